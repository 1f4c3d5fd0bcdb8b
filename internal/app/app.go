package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"
	"todoList/internal/config"
	"todoList/internal/handlers"
	"todoList/internal/logger"
	"todoList/internal/middleware"
	"todoList/internal/repository"
	"todoList/internal/repository/task/inmemory"
	"todoList/internal/repository/task/postgres"
	"todoList/internal/repository/task/sqlite"
	"todoList/internal/service"
	"todoList/internal/worker"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config     *config.Config
	server     *http.Server
	router     *chi.Mux
	repository repository.TaskRepository
	service    *service.TaskService
	worker     *worker.MutationWorker
	workerOnce sync.Once
	shutdowns  []func() // функции для graceful shutdown
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

// Init поднимает логгер, хранилище, сервис и роутер.
func (a *App) Init(ctx context.Context) error {
	if a.config.Logging.Quiet {
		logger.InitNop()
	} else if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	repo, repoType, err := a.openRepository(ctx)
	if err != nil {
		return fmt.Errorf("инициализация хранилища: %w", err)
	}
	a.repository = repo
	a.service = service.NewTaskService(repo, repoType)

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Закрытие хранилища...", zap.String("type", string(repoType)))
		if err := a.service.Close(); err != nil {
			logger.Error("Ошибка закрытия хранилища", err)
		}
	})

	a.router = a.newRouter()
	a.server = &http.Server{
		Addr:              a.config.GetServerAddr(),
		Handler:           a.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	// живые потоки /tasks/stream сами не завершатся при Shutdown
	a.server.RegisterOnShutdown(a.service.CloseSubscriptions)

	logger.Info("Приложение инициализировано",
		zap.String("repository", string(repoType)),
		zap.String("addr", a.server.Addr))
	return nil
}

func (a *App) openRepository(ctx context.Context) (repository.TaskRepository, service.RepoType, error) {
	switch a.config.Repository.Type {
	case string(service.PostgresType):
		storage, err := postgres.New(ctx, a.config.Database.URL, postgres.PoolConfig{
			MaxConns:    a.config.Database.MaxConnections,
			MinConns:    a.config.Database.MinConnections,
			IdleTimeout: a.config.Database.IdleTimeout,
		})
		if err != nil {
			return nil, "", err
		}
		if err := storage.Migrate(ctx); err != nil {
			_ = storage.Close()
			return nil, "", fmt.Errorf("миграции: %w", err)
		}
		return storage, service.PostgresType, nil

	case string(service.InMemoryType):
		return inmemory.NewTaskStorage(), service.InMemoryType, nil

	case string(service.SQLiteType):
		storage, err := sqlite.New(ctx, a.config.SQLite.Path)
		if err != nil {
			return nil, "", err
		}
		return storage, service.SQLiteType, nil
	}
	return nil, "", fmt.Errorf("неизвестный тип хранилища %q", a.config.Repository.Type)
}

func (a *App) newRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.RateLimit(a.config.Server.RateLimit))

	taskHandler := handlers.NewTaskHandler(a.service)
	taskHandler.Register(r)
	return r
}

func (a *App) Service() *service.TaskService {
	return a.service
}

// Worker создаётся при первом обращении: очередь записей нужна только консоли,
// HTTP обращается к сервису напрямую.
func (a *App) Worker() *worker.MutationWorker {
	a.workerOnce.Do(func() {
		queueSize := a.config.Worker.QueueSize
		a.worker = worker.NewMutationWorker(&queueSize, nil)
	})
	return a.worker
}

func (a *App) Handler() http.Handler {
	return a.router
}

// Run обслуживает HTTP до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("запуск сервера на %s: %w", a.server.Addr, err)
	}
	return a.Serve(ctx, listener)
}

func (a *App) Serve(ctx context.Context, listener net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Сервер запущен", zap.String("addr", listener.Addr().String()))
		if err := a.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("сервер: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.config.Server.ShutdownTimeout)
		defer cancel()

		logger.Info("Остановка сервера...")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("остановка сервера: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// RunWorker обрабатывает очередь записей до отмены ctx и дорабатывает остаток.
func (a *App) RunWorker(ctx context.Context) {
	a.Worker().Start(ctx)
}

// Shutdown освобождает ресурсы в обратном порядке.
func (a *App) Shutdown() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
