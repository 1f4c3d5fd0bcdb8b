package repository

import (
	"context"
	"todoList/internal/models/task"
)

// TaskRepository - общий контракт хранилищ задач (sqlite, postgres, inmemory).
// Все реализации обязаны одинаково упорядочивать выдачу List:
// по ID, по приоритету с разрешением равенства по ID, поиск по ID.
type TaskRepository interface {
	HealthCheck(ctx context.Context) error
	Create(ctx context.Context, t *task.Task) error
	Update(ctx context.Context, t *task.Task) error
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
	GetByID(ctx context.Context, id int64) (*task.Task, error)
	List(ctx context.Context, q task.Query) ([]*task.Task, error)
	Close() error
}
