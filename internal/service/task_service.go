package service

import (
	"context"
	"errors"
	"fmt"
	"todoList/internal/livequery"
	"todoList/internal/logger"
	"todoList/internal/models/task"
	rep "todoList/internal/repository"

	"go.uber.org/zap"
)

// здесь происходит проверка ошибок бизнес-логики и оповещение подписчиков

type RepoType string

const (
	SQLiteType   RepoType = "sqlite"
	PostgresType RepoType = "postgres"
	InMemoryType RepoType = "inmemory"
)

type TaskService struct {
	repo     rep.TaskRepository
	repoType RepoType
	hub      *livequery.Hub
}

func NewTaskService(repo rep.TaskRepository, repoType RepoType) *TaskService {
	return &TaskService{
		repo:     repo,
		repoType: repoType,
		hub:      livequery.NewHub(repo.List),
	}
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса (%s): %w", s.repoType, err)
	}
	return nil
}

func (s *TaskService) RepoType() RepoType {
	return s.repoType
}

func (s *TaskService) Subscribers() int {
	return s.hub.Len()
}

// CloseSubscriptions завершает все живые запросы, хранилище остаётся открытым.
func (s *TaskService) CloseSubscriptions() {
	s.hub.Close()
}

// Close закрывает подписки и хранилище.
func (s *TaskService) Close() error {
	s.hub.Close()
	return s.repo.Close()
}

func (s *TaskService) GetAll(ctx context.Context) ([]*task.Task, error) {
	return s.list(ctx, task.AllQuery())
}

func (s *TaskService) GetAllHighPriorityFirst(ctx context.Context) ([]*task.Task, error) {
	return s.list(ctx, task.HighFirstQuery())
}

func (s *TaskService) GetAllLowPriorityFirst(ctx context.Context) ([]*task.Task, error) {
	return s.list(ctx, task.LowFirstQuery())
}

// FindByTitle ищет по шаблону SQL LIKE, обёртку в '%' делает вызывающий.
func (s *TaskService) FindByTitle(ctx context.Context, pattern string) ([]*task.Task, error) {
	if pattern == "" {
		return nil, NewValidationError("pattern", "шаблон поиска не может быть пустым")
	}
	return s.list(ctx, task.SearchQuery(pattern))
}

func (s *TaskService) List(ctx context.Context, q task.Query) ([]*task.Task, error) {
	return s.list(ctx, q)
}

func (s *TaskService) list(ctx context.Context, q task.Query) ([]*task.Task, error) {
	tasks, err := s.repo.List(ctx, q)
	if err != nil {
		if errors.Is(err, rep.ErrInvalidQuery) {
			return nil, NewValidationError("query", err.Error())
		}
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return tasks, nil
}

// Subscribe возвращает живой запрос, обновляемый после каждой мутации.
func (s *TaskService) Subscribe(ctx context.Context, q task.Query) (*livequery.Subscription, error) {
	sub, err := s.hub.Subscribe(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("подписка на %s: %w", q.String(), err)
	}
	return sub, nil
}

func (s *TaskService) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrapLookup(id, err)
	}
	return t, nil
}

func (s *TaskService) Insert(ctx context.Context, title, description string, priority task.Priority) (*task.Task, error) {
	t := &task.Task{
		Title:       title,
		Description: description,
		Priority:    priority,
	}
	if err := validate(t); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("добавление задачи: %w", err)
	}

	logger.Info("Service: Задача добавлена", zap.Int64("task_id", t.ID), zap.String("priority", t.Priority.String()))
	s.notify(ctx)
	return t, nil
}

// Restore повторно вставляет удалённую задачу. ID назначается заново.
func (s *TaskService) Restore(ctx context.Context, deleted *task.Task) (*task.Task, error) {
	if deleted == nil {
		return nil, NewValidationError("task", "нечего восстанавливать")
	}
	restored, err := s.Insert(ctx, deleted.Title, deleted.Description, deleted.Priority)
	if err != nil {
		return nil, err
	}
	logger.Info("Service: Задача восстановлена",
		zap.Int64("old_id", deleted.ID),
		zap.Int64("new_id", restored.ID))
	return restored, nil
}

func (s *TaskService) Update(ctx context.Context, id int64, options ...task.TaskOption) (*task.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrapLookup(id, err)
	}

	t.Apply(options...)
	if err := validate(t); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, t); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, s.wrapLookup(id, err)
		}
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}

	s.notify(ctx)
	return t, nil
}

// Delete удаляет задачу и возвращает удалённую запись для возможной отмены.
func (s *TaskService) Delete(ctx context.Context, id int64) (*task.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrapLookup(id, err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, s.wrapLookup(id, err)
		}
		return nil, fmt.Errorf("удаление задачи: %w", err)
	}

	logger.Info("Service: Задача удалена", zap.Int64("task_id", id))
	s.notify(ctx)
	return t, nil
}

func (s *TaskService) DeleteAll(ctx context.Context) error {
	if err := s.repo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("удаление всех задач: %w", err)
	}

	logger.Info("Service: Все задачи удалены")
	s.notify(ctx)
	return nil
}

// notify не зависит от отмены ctx: мутация уже зафиксирована.
func (s *TaskService) notify(ctx context.Context) {
	s.hub.Notify(context.WithoutCancel(ctx))
}

func (s *TaskService) wrapLookup(id int64, err error) error {
	if errors.Is(err, rep.ErrNotFound) {
		logger.Info("Service: Задача не найдена", zap.Int64("target_id", id))
		return NewNotFound(s.repoType, id, err)
	}
	return fmt.Errorf("получение задачи: %w", err)
}

func validate(t *task.Task) error {
	switch err := t.Validate(); {
	case errors.Is(err, task.ErrEmptyTitle):
		return NewValidationError("title", "название не может быть пустым")
	case errors.Is(err, task.ErrInvalidPriority):
		return NewValidationError("priority", "допустимы High, Medium, Low")
	case err != nil:
		return NewValidationError("task", err.Error())
	}
	return nil
}
