package handlers

import (
	"context"
	"todoList/internal/livequery"
	"todoList/internal/models/task"
)

type Service interface {
	HealthCheck(ctx context.Context) error
	List(ctx context.Context, q task.Query) ([]*task.Task, error)
	FindByTitle(ctx context.Context, pattern string) ([]*task.Task, error)
	Subscribe(ctx context.Context, q task.Query) (*livequery.Subscription, error)
	GetByID(ctx context.Context, id int64) (*task.Task, error)
	Insert(ctx context.Context, title, description string, priority task.Priority) (*task.Task, error)
	Restore(ctx context.Context, deleted *task.Task) (*task.Task, error)
	Update(ctx context.Context, id int64, options ...task.TaskOption) (*task.Task, error)
	Delete(ctx context.Context, id int64) (*task.Task, error)
	DeleteAll(ctx context.Context) error
}
