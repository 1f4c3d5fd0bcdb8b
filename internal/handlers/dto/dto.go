package dto

import (
	"todoList/internal/models/task"
	"todoList/internal/service"
)

type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Priority    *string `json:"priority,omitempty"`
}

// RestoreTaskRequest - тело удалённой задачи, которую нужно вернуть.
// id игнорируется, хранилище выдаёт новый.
type RestoreTaskRequest struct {
	ID          int64  `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

type TaskResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

func FromTask(t *task.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority.String(),
	}
}

func FromTaskList(tasks []*task.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}

// Options переводит частичное обновление в опции задачи.
// Пустое название - ошибка валидации, неизвестный приоритет возвращает task.ErrInvalidPriority.
func (r UpdateTaskRequest) Options() ([]task.TaskOption, error) {
	var options []task.TaskOption
	if r.Title != nil {
		if *r.Title == "" {
			return nil, service.NewValidationError("title", task.ErrEmptyTitle.Error())
		}
		options = append(options, task.WithTitle(*r.Title))
	}
	if r.Description != nil {
		options = append(options, task.WithDescription(*r.Description))
	}
	if r.Priority != nil {
		p, err := task.ParsePriority(*r.Priority)
		if err != nil {
			return nil, err
		}
		options = append(options, task.WithPriority(p))
	}
	return options, nil
}

func (r RestoreTaskRequest) ToTask() (*task.Task, error) {
	p, err := task.ParsePriority(r.Priority)
	if err != nil {
		return nil, err
	}
	return &task.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Priority:    p,
	}, nil
}
