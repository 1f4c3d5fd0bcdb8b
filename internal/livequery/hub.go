// Package livequery реализует живые запросы: подписчик получает новый
// результат своего запроса после каждой зафиксированной мутации хранилища.
package livequery

import (
	"context"
	"errors"
	"sync"
	"todoList/internal/logger"
	"todoList/internal/models/task"

	"go.uber.org/zap"
)

var ErrHubClosed = errors.New("hub закрыт")

// QueryFunc выполняет запрос к хранилищу.
type QueryFunc func(ctx context.Context, q task.Query) ([]*task.Task, error)

// Hub владеет множеством подписок.
type Hub struct {
	query  QueryFunc
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool
}

func NewHub(query QueryFunc) *Hub {
	return &Hub{
		query: query,
		subs:  make(map[uint64]*Subscription),
	}
}

// Subscribe регистрирует подписку и сразу доставляет первый результат.
// Подписка закрывается при отмене ctx или вызове Close.
func (h *Hub) Subscribe(ctx context.Context, q task.Query) (*Subscription, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	h.nextID++
	sub := &Subscription{
		hub:     h,
		id:      h.nextID,
		query:   q,
		updates: make(chan []*task.Task, 1),
		done:    make(chan struct{}),
	}
	h.subs[sub.id] = sub
	h.mu.Unlock()

	if err := sub.refresh(ctx); err != nil {
		sub.Close()
		return nil, err
	}

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()

	logger.Debug("LiveQuery: новая подписка", zap.Uint64("subscription_id", sub.id), zap.String("query", q.String()))
	return sub, nil
}

// Notify перезапускает запросы всех активных подписок.
// Ошибки запросов только логируются, подписка остаётся с прошлым результатом.
func (h *Hub) Notify(ctx context.Context) {
	h.mu.RLock()
	subs := make([]*Subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		if err := sub.refresh(ctx); err != nil {
			logger.Warn("LiveQuery: ошибка обновления подписки",
				zap.Uint64("subscription_id", sub.id),
				zap.String("query", sub.query.String()),
				zap.Error(err))
		}
	}
}

// Len возвращает число активных подписок.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close закрывает все подписки, новые подписки больше не принимаются.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	subs := make([]*Subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}
