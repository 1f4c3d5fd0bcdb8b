// Package migrations хранит схему PostgreSQL и применяет её через golang-migrate.
package migrations

import (
	"embed"
	"errors"
	"fmt"
	"strings"
	"todoList/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed *.sql
var files embed.FS

func newMigrate(connString string) (*migrate.Migrate, error) {
	src, err := iofs.New(files, ".")
	if err != nil {
		return nil, fmt.Errorf("чтение миграций: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL(connString))
	if err != nil {
		return nil, fmt.Errorf("инициализация migrate: %w", err)
	}
	return m, nil
}

// databaseURL переводит строку подключения pgx в схему драйвера pgx5.
// Поддерживается только URL (postgres:// или postgresql://), config.Validate
// отклоняет строки вида "host=... user=...".
func databaseURL(connString string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(connString, prefix) {
			return "pgx5://" + strings.TrimPrefix(connString, prefix)
		}
	}
	return connString
}

func Up(connString string) error {
	logger.Info("Попытка миграций")

	m, err := newMigrate(connString)
	if err != nil {
		return err
	}
	defer closeMigrate(m)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Migrations: ошибка применения", err)
		return fmt.Errorf("применение миграций: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("Миграции применены", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func Down(connString string) error {
	logger.Info("Откат миграций")

	m, err := newMigrate(connString)
	if err != nil {
		return err
	}
	defer closeMigrate(m)

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Migrations: ошибка отката", err)
		return fmt.Errorf("откат миграций: %w", err)
	}
	return nil
}

func closeMigrate(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil || dbErr != nil {
		logger.Warn("Migrations: ошибка закрытия", zap.NamedError("source", srcErr), zap.NamedError("database", dbErr))
	}
}
