package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"
	"todoList/internal/logger"
	"todoList/internal/migrations"
	"todoList/internal/models/task"
	repo "todoList/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type PoolConfig struct {
	MaxConns    int32
	MinConns    int32
	IdleTimeout time.Duration
}

func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxConns:    10,
		MinConns:    2,
		IdleTimeout: time.Minute * 5,
	}
}

type Storage struct {
	pool       *pgxpool.Pool
	connString string
}

func New(ctx context.Context, connString string, poolCfg PoolConfig) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = poolCfg.MaxConns
	config.MinConns = poolCfg.MinConns
	config.MaxConnIdleTime = poolCfg.IdleTimeout

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool, connString: connString}, nil
}

func (s *Storage) Migrate(ctx context.Context) error {
	return migrations.Up(s.connString)
}

func (s *Storage) Down(ctx context.Context) error {
	return migrations.Down(s.connString)
}

func (s *Storage) Close() error {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
	return nil
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	err := s.pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	query := `INSERT INTO todo_table
				(title, description, priority)
				VALUES ($1, $2, $3)
				RETURNING id`

	err := s.pool.QueryRow(ctx, query,
		taskToCreate.Title,
		taskToCreate.Description,
		taskToCreate.Priority.Rank(),
	).Scan(&taskToCreate.ID)

	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	warnIfSlow(start)
	return nil
}

func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()

	query := `UPDATE todo_table
			SET title = $1,
				description = $2,
				priority = $3
			WHERE id = $4`

	tag, err := s.pool.Exec(ctx, query,
		taskToUpdate.Title,
		taskToUpdate.Description,
		taskToUpdate.Priority.Rank(),
		taskToUpdate.ID,
	)
	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	warnIfSlow(start)
	return nil
}

func (s *Storage) Delete(ctx context.Context, id int64) error {
	start := time.Now()

	tag, err := s.pool.Exec(ctx, `DELETE FROM todo_table WHERE id = $1`, id)
	if err != nil {
		logger.Error("Repository: Удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	warnIfSlow(start)
	return nil
}

func (s *Storage) DeleteAll(ctx context.Context) error {
	start := time.Now()

	_, err := s.pool.Exec(ctx, `DELETE FROM todo_table`)
	if err != nil {
		logger.Error("Repository: Удаление всех задач", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление всех задач: %w", err)
	}

	warnIfSlow(start)
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	start := time.Now()

	query := `SELECT id, title, description, priority
				FROM todo_table
				WHERE id = $1`

	t, err := scanTask(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	warnIfSlow(start)
	return t, nil
}

func (s *Storage) List(ctx context.Context, q task.Query) ([]*task.Task, error) {
	start := time.Now()

	var (
		rows pgx.Rows
		err  error
	)
	const selectAll = `SELECT id, title, description, priority FROM todo_table`

	switch {
	case q.IsSearch():
		rows, err = s.pool.Query(ctx, selectAll+` WHERE title ILIKE $1 ORDER BY id ASC`, q.TitleLike)
	case q.Order == task.OrderHighFirst:
		rows, err = s.pool.Query(ctx, selectAll+` ORDER BY priority ASC, id ASC`)
	case q.Order == task.OrderLowFirst:
		rows, err = s.pool.Query(ctx, selectAll+` ORDER BY priority DESC, id ASC`)
	case q.Order == task.OrderByID:
		rows, err = s.pool.Query(ctx, selectAll+` ORDER BY id ASC`)
	default:
		return nil, fmt.Errorf("%w: порядок %d", repo.ErrInvalidQuery, q.Order)
	}
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err,
			zap.String("query", q.String()),
			zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования задачи", zap.Error(err))
			return nil, fmt.Errorf("сканирование задачи: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	warnIfSlow(start)
	return tasks, nil
}

func scanTask(row pgx.Row) (*task.Task, error) {
	t := &task.Task{}
	var priority int
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &priority); err != nil {
		return nil, err
	}
	t.Priority = task.Priority(priority)
	return t, nil
}

func warnIfSlow(start time.Time) {
	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
}
