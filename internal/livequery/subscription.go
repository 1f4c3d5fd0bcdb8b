package livequery

import (
	"context"
	"sync"
	"todoList/internal/models/task"
)

// Subscription - живой результат одного запроса.
// Канал Updates хранит только последний непрочитанный результат.
type Subscription struct {
	hub     *Hub
	id      uint64
	query   task.Query
	mu      sync.Mutex
	updates chan []*task.Task
	done    chan struct{}
	closed  bool
}

func (s *Subscription) Query() task.Query {
	return s.query
}

// Updates закрывается после Close.
func (s *Subscription) Updates() <-chan []*task.Task {
	return s.updates
}

func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.done)
	close(s.updates)
	s.mu.Unlock()

	s.hub.remove(s.id)
}

// refresh выполняет запрос и доставляет результат. Мьютекс держится
// на всё время запроса, поэтому результаты приходят в порядке выполнения.
func (s *Subscription) refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}

	tasks, err := s.hub.query(ctx, s.query)
	if err != nil {
		return err
	}

	select {
	case <-s.updates:
	default:
	}
	s.updates <- tasks
	return nil
}
