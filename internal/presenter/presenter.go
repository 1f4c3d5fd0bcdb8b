// Package presenter связывает экран списка задач с хранилищем: держит одну
// текущую подписку, переводит действия пользователя в операции хранилища
// и хранит последнюю удалённую задачу для отмены.
package presenter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"todoList/internal/livequery"
	"todoList/internal/logger"
	"todoList/internal/models/task"

	"go.uber.org/zap"
)

const (
	MsgDeleted    = "ToDo was deleted"
	MsgDeletedAll = "Go and create new todos!"
	MsgRestored   = "ToDo was restored"
)

var (
	ErrNothingToUndo = errors.New("нечего отменять")
	ErrNotOpen       = errors.New("список не открыт")
	ErrBadPosition   = errors.New("нет задачи на этой позиции")
)

// Store - операции хранилища, нужные экрану списка.
type Store interface {
	Subscribe(ctx context.Context, q task.Query) (*livequery.Subscription, error)
	Insert(ctx context.Context, title, description string, priority task.Priority) (*task.Task, error)
	Update(ctx context.Context, id int64, options ...task.TaskOption) (*task.Task, error)
	Delete(ctx context.Context, id int64) (*task.Task, error)
	Restore(ctx context.Context, deleted *task.Task) (*task.Task, error)
	DeleteAll(ctx context.Context) error
}

// Executor выполняет записи в фоне. Реализация - worker.MutationWorker.
type Executor interface {
	Submit(name string, run func(ctx context.Context) error) error
}

// View - то, что отображается на экране.
type View struct {
	Tasks []*task.Task
	Empty bool
	Mode  Mode
}

// Renderer вызывается из фоновой горутины и не должен обращаться к ListPresenter.
type Renderer interface {
	Render(v View)
}

type Message struct {
	Text          string
	UndoAvailable bool
}

// Notifier вызывается после выполнения записи, с Executor - из его горутины.
type Notifier interface {
	Notify(msg Message)
}

// Mode - какой запрос сейчас показан.
type Mode struct {
	Order  task.Order
	Search string
}

func (m Mode) Query() task.Query {
	if m.Search != "" {
		return task.SearchQuery(task.WrapLike(m.Search))
	}
	return task.Query{Order: m.Order}
}

func (m Mode) String() string {
	if m.Search != "" {
		return fmt.Sprintf("search %q", m.Search)
	}
	return "sort " + m.Order.String()
}

type Option func(*ListPresenter)

// WithExecutor включает асинхронное выполнение записей.
func WithExecutor(exec Executor) Option {
	return func(p *ListPresenter) {
		p.exec = exec
	}
}

type ListPresenter struct {
	store    Store
	renderer Renderer
	notifier Notifier
	exec     Executor

	mu          sync.Mutex
	ctx         context.Context
	mode        Mode
	sub         *livequery.Subscription
	current     []*task.Task
	lastDeleted *task.Task
	wg          sync.WaitGroup
}

func New(store Store, renderer Renderer, notifier Notifier, opts ...Option) *ListPresenter {
	p := &ListPresenter{
		store:    store,
		renderer: renderer,
		notifier: notifier,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Open подписывается на все задачи по ID. Подписка живёт до Close или отмены ctx.
func (p *ListPresenter) Open(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ctx = ctx
	return p.resubscribe(Mode{Order: task.OrderByID})
}

func (p *ListPresenter) Close() {
	p.mu.Lock()
	if p.sub != nil {
		p.sub.Close()
		p.sub = nil
	}
	p.ctx = nil
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *ListPresenter) Mode() Mode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

// Current возвращает последний показанный список.
func (p *ListPresenter) Current() []*task.Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	res := make([]*task.Task, len(p.current))
	copy(res, p.current)
	return res
}

func (p *ListPresenter) ShowAll() error {
	return p.switchMode(Mode{Order: task.OrderByID})
}

func (p *ListPresenter) SortHighFirst() error {
	return p.switchMode(Mode{Order: task.OrderHighFirst})
}

func (p *ListPresenter) SortLowFirst() error {
	return p.switchMode(Mode{Order: task.OrderLowFirst})
}

// Search показывает задачи, в названии которых есть text. Пустой text
// возвращает полный список.
func (p *ListPresenter) Search(text string) error {
	if text == "" {
		return p.ShowAll()
	}
	return p.switchMode(Mode{Order: task.OrderByID, Search: text})
}

func (p *ListPresenter) switchMode(mode Mode) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctx == nil {
		return ErrNotOpen
	}
	return p.resubscribe(mode)
}

// resubscribe вызывается под p.mu.
func (p *ListPresenter) resubscribe(mode Mode) error {
	if p.sub != nil {
		p.sub.Close()
		p.sub = nil
	}

	sub, err := p.store.Subscribe(p.ctx, mode.Query())
	if err != nil {
		return fmt.Errorf("переключение на %s: %w", mode, err)
	}
	p.sub = sub
	p.mode = mode

	p.wg.Add(1)
	go p.watch(sub, mode)

	logger.Debug("Presenter: Текущий запрос", zap.String("mode", mode.String()))
	return nil
}

func (p *ListPresenter) watch(sub *livequery.Subscription, mode Mode) {
	defer p.wg.Done()
	for tasks := range sub.Updates() {
		p.mu.Lock()
		if p.sub == sub {
			p.current = tasks
			p.renderer.Render(View{Tasks: tasks, Empty: len(tasks) == 0, Mode: mode})
		}
		p.mu.Unlock()
	}
}

func (p *ListPresenter) Add(title, description string, priority task.Priority) error {
	return p.execute("insert", func(ctx context.Context) error {
		_, err := p.store.Insert(ctx, title, description, priority)
		return err
	})
}

// Edit изменяет задачу на позиции position (с нуля) текущего списка.
func (p *ListPresenter) Edit(position int, options ...task.TaskOption) error {
	t, err := p.at(position)
	if err != nil {
		return err
	}
	return p.execute("update", func(ctx context.Context) error {
		_, err := p.store.Update(ctx, t.ID, options...)
		return err
	})
}

// SwipeDelete удаляет задачу на позиции position. Для Undo она запоминается
// только после успешного удаления.
func (p *ListPresenter) SwipeDelete(position int) (*task.Task, error) {
	t, err := p.at(position)
	if err != nil {
		return nil, err
	}

	err = p.execute("delete", func(ctx context.Context) error {
		if _, err := p.store.Delete(ctx, t.ID); err != nil {
			return err
		}

		p.mu.Lock()
		p.lastDeleted = t.Clone()
		p.mu.Unlock()

		p.notify(Message{Text: MsgDeleted, UndoAvailable: true})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Undo возвращает последнюю удалённую задачу. Поддерживается один уровень.
// Если вставка не удалась, запись для отмены остаётся.
func (p *ListPresenter) Undo() error {
	p.mu.Lock()
	deleted := p.lastDeleted
	p.lastDeleted = nil
	p.mu.Unlock()

	if deleted == nil {
		return ErrNothingToUndo
	}

	err := p.execute("restore", func(ctx context.Context) error {
		if _, err := p.store.Restore(ctx, deleted); err != nil {
			p.keepForUndo(deleted)
			return err
		}
		p.notify(Message{Text: MsgRestored})
		return nil
	})
	if err != nil {
		p.keepForUndo(deleted)
		return err
	}
	return nil
}

// keepForUndo возвращает запись, если за это время не удалили другую задачу.
func (p *ListPresenter) keepForUndo(deleted *task.Task) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastDeleted == nil {
		p.lastDeleted = deleted
	}
}

// DeleteAll удаляет все задачи, если confirm вернул true.
func (p *ListPresenter) DeleteAll(confirm func() bool) (bool, error) {
	if confirm != nil && !confirm() {
		return false, nil
	}

	err := p.execute("delete_all", func(ctx context.Context) error {
		if err := p.store.DeleteAll(ctx); err != nil {
			return err
		}
		p.notify(Message{Text: MsgDeletedAll})
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *ListPresenter) at(position int) (*task.Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctx == nil {
		return nil, ErrNotOpen
	}
	if position < 0 || position >= len(p.current) {
		return nil, fmt.Errorf("%w: %d", ErrBadPosition, position+1)
	}
	return p.current[position].Clone(), nil
}

func (p *ListPresenter) execute(name string, run func(ctx context.Context) error) error {
	p.mu.Lock()
	ctx := p.ctx
	p.mu.Unlock()

	if ctx == nil {
		return ErrNotOpen
	}
	if p.exec != nil {
		return p.exec.Submit(name, run)
	}
	return run(ctx)
}

func (p *ListPresenter) notify(msg Message) {
	if p.notifier != nil {
		p.notifier.Notify(msg)
	}
}
