package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"todoList/internal/logger"
	"todoList/internal/models/task"
	repo "todoList/internal/repository"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const slowQuery = 100 * time.Millisecond

// Storage - локальная база задач в файле SQLite.
type Storage struct {
	db *gorm.DB
}

// New открывает (или создаёт) файл базы по пути path и применяет схему.
// Путь ":memory:" даёт базу в памяти, она живёт пока открыт Storage.
func New(ctx context.Context, path string) (*Storage, error) {
	db, err := gorm.Open(sqlite.Open(dsn(path)), &gorm.Config{
		Logger: newGormLogger(),
	})
	if err != nil {
		logger.Error("Repository: Ошибка открытия SQLite", err, zap.String("path", path))
		return nil, fmt.Errorf("открытие sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("получение sql.DB: %w", err)
	}
	// SQLite допускает одного писателя, а база ":memory:" существует
	// только в рамках одного соединения.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if path != ":memory:" {
		if err := db.WithContext(ctx).Exec("PRAGMA journal_mode=WAL;").Error; err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("установка journal_mode: %w", err)
		}
	}

	if err := db.WithContext(ctx).AutoMigrate(&todoRow{}); err != nil {
		_ = sqlDB.Close()
		logger.Error("Repository: Ошибка миграции SQLite", err)
		return nil, fmt.Errorf("миграция sqlite: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: База SQLite открыта", zap.String("path", path))
	return &Storage{db: db}, nil
}

func dsn(path string) string {
	if path == ":memory:" || strings.Contains(path, "?") {
		return path
	}
	return path + "?_busy_timeout=5000"
}

func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	logger.Info("Repository: Закрытие базы SQLite")
	return sqlDB.Close()
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("получение sql.DB: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	row := fromTask(taskToCreate)
	row.ID = 0
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}
	taskToCreate.ID = row.ID

	warnIfSlow(start)
	return nil
}

func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()

	result := s.db.WithContext(ctx).
		Model(&todoRow{}).
		Where("id = ?", taskToUpdate.ID).
		Updates(map[string]any{
			"title":       taskToUpdate.Title,
			"description": taskToUpdate.Description,
			"priority":    taskToUpdate.Priority.Rank(),
		})
	if err := result.Error; err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err, zap.Int64("task_id", taskToUpdate.ID))
		return fmt.Errorf("обновление задачи: %w", err)
	}
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}

	warnIfSlow(start)
	return nil
}

func (s *Storage) Delete(ctx context.Context, id int64) error {
	start := time.Now()

	result := s.db.WithContext(ctx).Delete(&todoRow{}, id)
	if err := result.Error; err != nil {
		logger.Error("Repository: Удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}

	warnIfSlow(start)
	return nil
}

func (s *Storage) DeleteAll(ctx context.Context) error {
	start := time.Now()

	if err := s.db.WithContext(ctx).Exec("DELETE FROM todo_table").Error; err != nil {
		logger.Error("Repository: Удаление всех задач", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление всех задач: %w", err)
	}

	warnIfSlow(start)
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	start := time.Now()

	var row todoRow
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	warnIfSlow(start)
	return row.toTask(), nil
}

func (s *Storage) List(ctx context.Context, q task.Query) ([]*task.Task, error) {
	start := time.Now()

	tx := s.db.WithContext(ctx).Model(&todoRow{})
	if q.IsSearch() {
		tx = tx.Where("title LIKE ?", q.TitleLike).Order("id ASC")
	} else {
		switch q.Order {
		case task.OrderHighFirst:
			tx = tx.Order("priority ASC").Order("id ASC")
		case task.OrderLowFirst:
			tx = tx.Order("priority DESC").Order("id ASC")
		case task.OrderByID:
			tx = tx.Order("id ASC")
		default:
			return nil, fmt.Errorf("%w: порядок %d", repo.ErrInvalidQuery, q.Order)
		}
	}

	var rows []todoRow
	if err := tx.Find(&rows).Error; err != nil {
		logger.Error("Repository: Не удалось получить задачи", err,
			zap.String("query", q.String()),
			zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	tasks := make([]*task.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.toTask())
	}

	warnIfSlow(start)
	return tasks, nil
}

func warnIfSlow(start time.Time) {
	if time.Since(start) > slowQuery {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
}
