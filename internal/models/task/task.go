package task

import "errors"

// Task - запись списка дел. ID назначается хранилищем при вставке.
type Task struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
}

var ErrEmptyTitle = errors.New("пустое название задачи")

// Clone возвращает независимую копию, хранилища не отдают наружу свои указатели.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// SameContent сравнивает все поля, кроме ID.
func (t *Task) SameContent(other *Task) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.Title == other.Title &&
		t.Description == other.Description &&
		t.Priority == other.Priority
}

func (t *Task) Validate() error {
	if t.Title == "" {
		return ErrEmptyTitle
	}
	if !t.Priority.Valid() {
		return ErrInvalidPriority
	}
	return nil
}
