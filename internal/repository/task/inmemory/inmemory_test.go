package inmemory_test

import (
	"context"
	"testing"
	"todoList/internal/models/task"
	"todoList/internal/repository"
	"todoList/internal/repository/repotest"
	"todoList/internal/repository/task/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStorage_Contract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.TaskRepository {
		return inmemory.NewTaskStorage()
	})
}

// TestTaskStorage_ReturnsCopies тестирует, что хранилище не отдаёт свои указатели
func TestTaskStorage_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	created := &task.Task{Title: "Test Task", Priority: task.PriorityHigh}
	require.NoError(t, storage.Create(ctx, created))
	created.Title = "changed outside"

	got, err := storage.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Task", got.Title)

	got.Title = "changed again"
	again, err := storage.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Task", again.Title)
}

// TestTaskStorage_IDsNotReused тестирует, что ID не переиспользуются после удаления
func TestTaskStorage_IDsNotReused(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	first := &task.Task{Title: "first", Priority: task.PriorityLow}
	require.NoError(t, storage.Create(ctx, first))
	require.NoError(t, storage.DeleteAll(ctx))

	second := &task.Task{Title: "second", Priority: task.PriorityLow}
	require.NoError(t, storage.Create(ctx, second))
	assert.Greater(t, second.ID, first.ID)
}

// TestTaskStorage_ListCancelledContext тестирует отмену контекста
func TestTaskStorage_ListCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := inmemory.NewTaskStorage().List(ctx, task.AllQuery())
	assert.ErrorIs(t, err, context.Canceled)
}
