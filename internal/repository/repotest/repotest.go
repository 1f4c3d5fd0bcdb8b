// Package repotest содержит общий набор проверок для всех реализаций
// repository.TaskRepository.
package repotest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"todoList/internal/models/task"
	"todoList/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory возвращает пустое хранилище для одного теста.
type Factory func(t *testing.T) repository.TaskRepository

func Run(t *testing.T, newRepo Factory) {
	t.Run("CreateAssignsIDs", func(t *testing.T) { testCreateAssignsIDs(t, newRepo(t)) })
	t.Run("GetAllOrderedByID", func(t *testing.T) { testGetAllOrderedByID(t, newRepo(t)) })
	t.Run("PriorityOrders", func(t *testing.T) { testPriorityOrders(t, newRepo(t)) })
	t.Run("SearchByTitle", func(t *testing.T) { testSearchByTitle(t, newRepo(t)) })
	t.Run("Update", func(t *testing.T) { testUpdate(t, newRepo(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newRepo(t)) })
	t.Run("DeleteAll", func(t *testing.T) { testDeleteAll(t, newRepo(t)) })
	t.Run("ConcurrentCreate", func(t *testing.T) { testConcurrentCreate(t, newRepo(t)) })
}

func mustCreate(t *testing.T, r repository.TaskRepository, title string, p task.Priority) *task.Task {
	t.Helper()
	tk := &task.Task{Title: title, Priority: p}
	require.NoError(t, r.Create(context.Background(), tk))
	require.NotZero(t, tk.ID)
	return tk
}

func titles(tasks []*task.Task) []string {
	res := make([]string, 0, len(tasks))
	for _, t := range tasks {
		res = append(res, t.Title)
	}
	return res
}

func testCreateAssignsIDs(t *testing.T, r repository.TaskRepository) {
	ctx := context.Background()
	require.NoError(t, r.HealthCheck(ctx))

	first := mustCreate(t, r, "first", task.PriorityHigh)
	second := mustCreate(t, r, "second", task.PriorityLow)
	assert.Greater(t, second.ID, first.ID)

	got, err := r.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, second, got)

	_, err = r.GetByID(ctx, second.ID+1000)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testGetAllOrderedByID(t *testing.T, r repository.TaskRepository) {
	const n = 7
	want := make([]*task.Task, 0, n)
	for i := 0; i < n; i++ {
		p := task.Priority(i%3 + 1)
		want = append(want, mustCreate(t, r, fmt.Sprintf("task %d", i), p))
	}

	got, err := r.List(context.Background(), task.AllQuery())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func testPriorityOrders(t *testing.T, r repository.TaskRepository) {
	ctx := context.Background()
	mustCreate(t, r, "low", task.PriorityLow)
	mustCreate(t, r, "high", task.PriorityHigh)
	mustCreate(t, r, "medium", task.PriorityMedium)
	mustCreate(t, r, "high 2", task.PriorityHigh)

	high, err := r.List(ctx, task.HighFirstQuery())
	require.NoError(t, err)
	assert.Equal(t, []string{"high", "high 2", "medium", "low"}, titles(high))

	low, err := r.List(ctx, task.LowFirstQuery())
	require.NoError(t, err)
	assert.Equal(t, []string{"low", "medium", "high", "high 2"}, titles(low))
}

func testSearchByTitle(t *testing.T, r repository.TaskRepository) {
	ctx := context.Background()
	mustCreate(t, r, "buy milk", task.PriorityLow)
	mustCreate(t, r, "walk the dog", task.PriorityHigh)
	mustCreate(t, r, "Milkshake", task.PriorityMedium)
	mustCreate(t, r, "bake bread", task.PriorityHigh)

	found, err := r.List(ctx, task.SearchQuery("%milk%"))
	require.NoError(t, err)
	assert.Equal(t, []string{"buy milk", "Milkshake"}, titles(found))

	found, err = r.List(ctx, task.SearchQuery("b_ke%"))
	require.NoError(t, err)
	assert.Equal(t, []string{"bake bread"}, titles(found))

	found, err = r.List(ctx, task.SearchQuery("%nothing%"))
	require.NoError(t, err)
	assert.Empty(t, found)
}

func testUpdate(t *testing.T, r repository.TaskRepository) {
	ctx := context.Background()
	tk := mustCreate(t, r, "original", task.PriorityLow)

	tk.Title = "updated"
	tk.Description = "with description"
	tk.Priority = task.PriorityHigh
	require.NoError(t, r.Update(ctx, tk))

	got, err := r.GetByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, tk, got)

	missing := &task.Task{ID: tk.ID + 1000, Title: "ghost", Priority: task.PriorityLow}
	assert.ErrorIs(t, r.Update(ctx, missing), repository.ErrNotFound)
}

func testDelete(t *testing.T, r repository.TaskRepository) {
	ctx := context.Background()
	keep := mustCreate(t, r, "keep", task.PriorityLow)
	drop := mustCreate(t, r, "drop", task.PriorityLow)

	require.NoError(t, r.Delete(ctx, drop.ID))
	assert.ErrorIs(t, r.Delete(ctx, drop.ID), repository.ErrNotFound)

	all, err := r.List(ctx, task.AllQuery())
	require.NoError(t, err)
	assert.Equal(t, []*task.Task{keep}, all)
}

func testDeleteAll(t *testing.T, r repository.TaskRepository) {
	ctx := context.Background()
	mustCreate(t, r, "one", task.PriorityLow)
	mustCreate(t, r, "two", task.PriorityMedium)

	require.NoError(t, r.DeleteAll(ctx))

	all, err := r.List(ctx, task.AllQuery())
	require.NoError(t, err)
	assert.Empty(t, all)

	// пустое хранилище тоже можно очистить
	require.NoError(t, r.DeleteAll(ctx))
}

func testConcurrentCreate(t *testing.T, r repository.TaskRepository) {
	ctx := context.Background()
	const goroutines, perWorker = 5, 10

	var wg sync.WaitGroup
	errs := make(chan error, goroutines*perWorker)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				tk := &task.Task{Title: fmt.Sprintf("Task %d-%d", workerID, j), Priority: task.PriorityMedium}
				if err := r.Create(ctx, tk); err != nil {
					errs <- err
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	all, err := r.List(ctx, task.AllQuery())
	require.NoError(t, err)
	assert.Len(t, all, goroutines*perWorker)
}
