// Package console - построчный интерфейс к экрану списка задач.
package console

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrQuit возвращается командой выхода.
var ErrQuit = errors.New("выход")

// Command - одна команда консоли.
type Command interface {
	Name() string
	Aliases() []string
	Synopsis() string
	Usage() string
	Run(s *Session, args []string) error
}

type Registry struct {
	mu   sync.RWMutex
	cmds map[string]Command // имя и псевдонимы указывают на команду
}

func NewRegistry() *Registry {
	return &Registry{
		cmds: make(map[string]Command),
	}
}

// Register добавляет команду. Повтор имени или псевдонима - ошибка.
func (r *Registry) Register(c Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, exists := r.cmds[name]; exists {
		return fmt.Errorf("команда уже зарегистрирована: %s", name)
	}
	for _, alias := range c.Aliases() {
		if _, exists := r.cmds[alias]; exists {
			return fmt.Errorf("псевдоним уже зарегистрирован: %s", alias)
		}
	}

	r.cmds[name] = c
	for _, alias := range c.Aliases() {
		r.cmds[alias] = c
	}
	return nil
}

func (r *Registry) Find(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.cmds[name]
	return cmd, ok
}

// All возвращает команды без повторов, по имени.
func (r *Registry) All() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]Command)
	for _, cmd := range r.cmds {
		seen[cmd.Name()] = cmd
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]Command, len(names))
	for i, name := range names {
		result[i] = seen[name]
	}
	return result
}

// DefaultRegistry собирает все команды консоли.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, c := range []Command{
		&addCmd{},
		&editCmd{},
		&rmCmd{},
		&undoCmd{},
		&sortCmd{},
		&searchCmd{},
		&listCmd{},
		&clearCmd{},
		&helpCmd{},
		&quitCmd{},
	} {
		if err := r.Register(c); err != nil {
			panic(err)
		}
	}
	return r
}
