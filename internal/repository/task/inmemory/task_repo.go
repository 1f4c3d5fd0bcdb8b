package inmemory

import (
	"context"
	"sort"
	"sync"
	"todoList/internal/logger"
	"todoList/internal/models/task"
	repo "todoList/internal/repository"
)

type TaskStorage struct {
	storage map[int64]*task.Task
	mtx     *sync.RWMutex
	ids     []int64
	nextID  int64
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[int64]*task.Task),
		mtx:     &sync.RWMutex{},
		ids:     []int64{},
		nextID:  1,
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Debug("Repository: Соединение стабильно")
	return nil
}

func (s *TaskStorage) Close() error {
	return nil
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	taskToCreate.ID = s.nextID
	s.nextID++

	s.storage[taskToCreate.ID] = taskToCreate.Clone()
	s.ids = append(s.ids, taskToCreate.ID)
	return nil
}

func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[taskToUpdate.ID]; !ok {
		return repo.ErrNotFound
	}
	s.storage[taskToUpdate.ID] = taskToUpdate.Clone()
	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return taskToGet.Clone(), nil
}

func (s *TaskStorage) Delete(ctx context.Context, id int64) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[id]; !ok {
		return repo.ErrNotFound
	}

	delete(s.storage, id)
	for ind, val := range s.ids {
		if val == id {
			s.ids = append(s.ids[:ind], s.ids[ind+1:]...)
			break
		}
	}
	return nil
}

// удаление всех задач, счётчик ID не сбрасывается
func (s *TaskStorage) DeleteAll(ctx context.Context) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.storage = make(map[int64]*task.Task)
	s.ids = []int64{}
	return nil
}

func (s *TaskStorage) List(ctx context.Context, q task.Query) ([]*task.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mtx.RLock()
	res := make([]*task.Task, 0, len(s.ids))
	for _, id := range s.ids {
		taskToGet := s.storage[id]
		if q.IsSearch() && !matchLike(q.TitleLike, taskToGet.Title) {
			continue
		}
		res = append(res, taskToGet.Clone())
	}
	s.mtx.RUnlock()

	order := q.Order
	if q.IsSearch() {
		order = task.OrderByID
	}
	sort.SliceStable(res, func(i, j int) bool {
		return order.Less(res[i], res[j])
	})
	return res, nil
}
