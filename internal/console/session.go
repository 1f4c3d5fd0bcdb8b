package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"todoList/internal/logger"
	"todoList/internal/models/task"
	"todoList/internal/presenter"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const prompt = "> "

// syncWriter нужен, потому что список перерисовывается из фоновой горутины.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

type textRenderer struct {
	out io.Writer
}

func viewOf(tasks []*task.Task, mode presenter.Mode) presenter.View {
	return presenter.View{Tasks: tasks, Empty: len(tasks) == 0, Mode: mode}
}

func (r *textRenderer) Render(v presenter.View) {
	var b strings.Builder
	fmt.Fprintf(&b, "\n--- %s ---\n", v.Mode)
	if v.Empty {
		b.WriteString("  Список пуст\n")
	}
	for i, t := range v.Tasks {
		fmt.Fprintf(&b, "%3d. %-40s %s\n", i+1, t.Title, t.Priority)
		if t.Description != "" {
			fmt.Fprintf(&b, "     %s\n", t.Description)
		}
	}
	_, _ = io.WriteString(r.out, b.String())
}

type textNotifier struct {
	out io.Writer
}

func (n *textNotifier) Notify(msg presenter.Message) {
	text := msg.Text
	if msg.UndoAvailable {
		text += " (undo - вернуть)"
	}
	_, _ = fmt.Fprintln(n.out, text)
}

// Session - один экран списка, управляемый командами из in.
type Session struct {
	id       uuid.UUID
	list     *presenter.ListPresenter
	registry *Registry
	renderer *textRenderer
	out      *syncWriter
	in       *bufio.Scanner
}

func NewSession(store presenter.Store, in io.Reader, out io.Writer, opts ...presenter.Option) *Session {
	w := &syncWriter{w: out}
	renderer := &textRenderer{out: w}
	return &Session{
		id:       uuid.New(),
		list:     presenter.New(store, renderer, &textNotifier{out: w}, opts...),
		registry: DefaultRegistry(),
		renderer: renderer,
		out:      w,
		in:       bufio.NewScanner(in),
	}
}

// Open показывает полный список. Run вызывает его сам.
func (s *Session) Open(ctx context.Context) error {
	if err := s.list.Open(ctx); err != nil {
		return fmt.Errorf("открытие списка: %w", err)
	}
	logger.Info("Console: Сессия начата", zap.String("session_id", s.id.String()))
	return nil
}

func (s *Session) Close() {
	s.list.Close()
	logger.Info("Console: Сессия завершена", zap.String("session_id", s.id.String()))
}

// Run читает команды до quit, конца ввода или отмены ctx.
func (s *Session) Run(ctx context.Context) error {
	if err := s.Open(ctx); err != nil {
		return err
	}
	defer s.Close()

	s.println("help - список команд")
	for ctx.Err() == nil {
		s.print(prompt)
		if !s.in.Scan() {
			return s.in.Err()
		}

		err := s.Exec(s.in.Text())
		if errors.Is(err, ErrQuit) {
			return nil
		}
		if err != nil {
			s.println("Ошибка: " + err.Error())
		}
	}
	return ctx.Err()
}

// Exec выполняет одну строку ввода.
func (s *Session) Exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	cmd, ok := s.registry.Find(fields[0])
	if !ok {
		return fmt.Errorf("неизвестная команда %q, help - список команд", fields[0])
	}

	logger.Debug("Console: Команда",
		zap.String("session_id", s.id.String()),
		zap.String("command", cmd.Name()))
	return cmd.Run(s, fields[1:])
}

func (s *Session) confirm(question string) bool {
	s.print(question)
	if !s.in.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(s.in.Text()))
	return answer == "y" || answer == "yes" || answer == "д" || answer == "да"
}

func (s *Session) print(text string) {
	_, _ = io.WriteString(s.out, text)
}

func (s *Session) println(text string) {
	s.print(text + "\n")
}
