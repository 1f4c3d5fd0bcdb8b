package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"todoList/internal/app"
	"todoList/internal/config"
	"todoList/internal/logger"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "путь к config.yml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка конфигурации:", err)
		os.Exit(1)
	}

	application := app.New(cfg)
	if err := application.Init(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка запуска:", err)
		os.Exit(1)
	}

	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- application.Run(ctx)
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.Server.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"application": func(ctx context.Context) error {
				stop()
				err := <-done
				application.Shutdown()
				return err
			},
		},
	)

	select {
	case err := <-done:
		// сервер упал до сигнала остановки
		logger.Error("Сервер завершился", err)
		stop()
		application.Shutdown()
		os.Exit(1)
	case exitCode := <-wait:
		if exitCode != 0 {
			logger.Warn("Завершение с ошибкой", zap.Int("exit_code", exitCode))
			os.Exit(exitCode)
		}
	}
}
