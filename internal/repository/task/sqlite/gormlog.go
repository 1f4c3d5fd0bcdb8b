package sqlite

import (
	"time"
	"todoList/internal/logger"

	gormlogger "gorm.io/gorm/logger"
)

// zapWriter пробрасывает сообщения gorm в общий zap-логгер.
type zapWriter struct{}

func (zapWriter) Printf(format string, args ...interface{}) {
	logger.Logger.Sugar().Debugf(format, args...)
}

func newGormLogger() gormlogger.Interface {
	return gormlogger.New(zapWriter{}, gormlogger.Config{
		SlowThreshold:             100 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
