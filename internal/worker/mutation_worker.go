package worker

import (
	"context"
	"errors"
	"sync"
	"time"
	"todoList/internal/logger"

	"go.uber.org/zap"
)

var (
	ErrQueueFull = errors.New("очередь мутаций переполнена")
	ErrStopped   = errors.New("обработчик мутаций остановлен")
)

// Job - одна операция записи в хранилище.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// ErrorHandler получает ошибки фоновых операций. Повторов нет.
type ErrorHandler func(job string, err error)

// MutationWorker выполняет записи в фоне по одной, в порядке постановки.
type MutationWorker struct {
	queue     chan Job
	onError   ErrorHandler
	mtx       sync.RWMutex
	stopped   bool
	done      chan struct{}
	startOnce sync.Once
}

func NewMutationWorker(queueSize *int, onError ErrorHandler) *MutationWorker {
	var sizeToSet int
	if queueSize == nil || *queueSize <= 0 {
		sizeToSet = 64
	} else {
		sizeToSet = *queueSize
	}

	if onError == nil {
		onError = logError
	}

	return &MutationWorker{
		queue:   make(chan Job, sizeToSet),
		onError: onError,
		done:    make(chan struct{}),
	}
}

func logError(job string, err error) {
	logger.Error("Worker: Ошибка фоновой операции", err, zap.String("job", job))
}

// Submit ставит операцию в очередь и сразу возвращает управление.
func (w *MutationWorker) Submit(name string, run func(ctx context.Context) error) error {
	w.mtx.RLock()
	defer w.mtx.RUnlock()

	if w.stopped {
		return ErrStopped
	}

	select {
	case w.queue <- Job{Name: name, Run: run}:
		return nil
	default:
		logger.Warn("Worker: Очередь переполнена", zap.String("job", name))
		return ErrQueueFull
	}
}

// Start обрабатывает очередь до отмены ctx, затем дорабатывает
// уже поставленные операции и возвращается.
func (w *MutationWorker) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		defer close(w.done)
		logger.Info("Worker: Обработчик мутаций запущен", zap.Int("queue_size", cap(w.queue)))

		for {
			select {
			case job := <-w.queue:
				w.run(ctx, job)
			case <-ctx.Done():
				w.drain()
				logger.Info("Worker: Обработчик мутаций остановлен")
				return
			}
		}
	})
}

// Wait блокируется до завершения Start.
func (w *MutationWorker) Wait() {
	<-w.done
}

func (w *MutationWorker) drain() {
	w.mtx.Lock()
	w.stopped = true
	close(w.queue)
	w.mtx.Unlock()

	ctx := context.Background()
	for job := range w.queue {
		w.run(ctx, job)
	}
}

func (w *MutationWorker) run(ctx context.Context, job Job) {
	start := time.Now()
	// операция уже принята, отмена ctx её не прерывает
	err := job.Run(context.WithoutCancel(ctx))
	if err != nil {
		w.onError(job.Name, err)
		return
	}
	logger.Debug("Worker: Операция выполнена",
		zap.String("job", job.Name),
		zap.Duration("ms", time.Since(start)))
}
