package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"todoList/internal/app"
	"todoList/internal/config"
	"todoList/internal/console"
	"todoList/internal/logger"
	"todoList/internal/presenter"
)

func main() {
	configPath := flag.String("config", "", "путь к config.yml")
	verbose := flag.Bool("v", false, "писать логи в stderr")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка конфигурации:", err)
		os.Exit(1)
	}
	cfg.Logging.Quiet = !*verbose

	application := app.New(cfg)
	if err := application.Init(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка запуска:", err)
		os.Exit(1)
	}
	defer application.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerCtx, stopWorker := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		application.RunWorker(workerCtx)
	}()

	session := console.NewSession(application.Service(), os.Stdin, os.Stdout,
		presenter.WithExecutor(application.Worker()))

	done := make(chan error, 1)
	go func() {
		done <- session.Run(ctx)
	}()

	select {
	case err = <-done:
	case <-ctx.Done():
		// ввод блокирует чтение, сессию закрываем сами
		session.Close()
	}

	// поставленные записи дорабатываются до закрытия хранилища
	stopWorker()
	<-workerDone

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Консоль завершилась с ошибкой", err)
		fmt.Fprintln(os.Stderr, "Ошибка:", err)
	}
}
