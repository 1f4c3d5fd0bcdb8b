package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"todoList/internal/models/task"
)

var errUsage = errors.New("неверные аргументы")

func usageError(c Command) error {
	return fmt.Errorf("%w, использование: %s", errUsage, c.Usage())
}

// parsePriorityWord принимает только целые слова, чтобы "Lunch" не стал Low.
func parsePriorityWord(word string) (task.Priority, bool) {
	switch strings.ToLower(word) {
	case "h", "high", "m", "medium", "l", "low":
		p, err := task.ParsePriority(word)
		return p, err == nil
	}
	return 0, false
}

// parsePosition переводит номер строки (с единицы) в индекс.
func parsePosition(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("неверный номер задачи: %q", raw)
	}
	return n - 1, nil
}

// splitDescription отделяет описание после "--".
func splitDescription(args []string) (title, description string) {
	for i, a := range args {
		if a == "--" {
			return strings.Join(args[:i], " "), strings.Join(args[i+1:], " ")
		}
	}
	return strings.Join(args, " "), ""
}

type addCmd struct{}

func (c *addCmd) Name() string      { return "add" }
func (c *addCmd) Aliases() []string { return []string{"a"} }
func (c *addCmd) Synopsis() string  { return "добавить задачу" }
func (c *addCmd) Usage() string     { return "add <high|medium|low> <название> [-- описание]" }

func (c *addCmd) Run(s *Session, args []string) error {
	if len(args) < 2 {
		return usageError(c)
	}
	priority, ok := parsePriorityWord(args[0])
	if !ok {
		return fmt.Errorf("%w: %q", task.ErrInvalidPriority, args[0])
	}
	title, description := splitDescription(args[1:])
	if title == "" {
		return usageError(c)
	}
	return s.list.Add(title, description, priority)
}

type editCmd struct{}

func (c *editCmd) Name() string      { return "edit" }
func (c *editCmd) Aliases() []string { return []string{"e"} }
func (c *editCmd) Synopsis() string  { return "изменить задачу" }
func (c *editCmd) Usage() string {
	return "edit <номер> [high|medium|low] [название] [-- описание]"
}

func (c *editCmd) Run(s *Session, args []string) error {
	if len(args) < 2 {
		return usageError(c)
	}
	position, err := parsePosition(args[0])
	if err != nil {
		return err
	}

	rest := args[1:]
	var options []task.TaskOption
	if p, ok := parsePriorityWord(rest[0]); ok {
		options = append(options, task.WithPriority(p))
		rest = rest[1:]
	}

	hasDescription := false
	for _, a := range rest {
		if a == "--" {
			hasDescription = true
		}
	}
	title, description := splitDescription(rest)
	if title != "" {
		options = append(options, task.WithTitle(title))
	}
	if hasDescription {
		options = append(options, task.WithDescription(description))
	}
	if len(options) == 0 {
		return usageError(c)
	}
	return s.list.Edit(position, options...)
}

type rmCmd struct{}

func (c *rmCmd) Name() string      { return "rm" }
func (c *rmCmd) Aliases() []string { return []string{"del"} }
func (c *rmCmd) Synopsis() string  { return "удалить задачу (можно отменить)" }
func (c *rmCmd) Usage() string     { return "rm <номер>" }

func (c *rmCmd) Run(s *Session, args []string) error {
	if len(args) != 1 {
		return usageError(c)
	}
	position, err := parsePosition(args[0])
	if err != nil {
		return err
	}
	_, err = s.list.SwipeDelete(position)
	return err
}

type undoCmd struct{}

func (c *undoCmd) Name() string      { return "undo" }
func (c *undoCmd) Aliases() []string { return []string{"u"} }
func (c *undoCmd) Synopsis() string  { return "вернуть последнюю удалённую задачу" }
func (c *undoCmd) Usage() string     { return "undo" }

func (c *undoCmd) Run(s *Session, args []string) error {
	return s.list.Undo()
}

type sortCmd struct{}

func (c *sortCmd) Name() string      { return "sort" }
func (c *sortCmd) Aliases() []string { return []string{"s"} }
func (c *sortCmd) Synopsis() string  { return "сменить сортировку" }
func (c *sortCmd) Usage() string     { return "sort <high|low|id>" }

func (c *sortCmd) Run(s *Session, args []string) error {
	if len(args) != 1 {
		return usageError(c)
	}
	order, err := task.ParseOrder(args[0])
	if err != nil {
		return err
	}
	switch order {
	case task.OrderHighFirst:
		return s.list.SortHighFirst()
	case task.OrderLowFirst:
		return s.list.SortLowFirst()
	default:
		return s.list.ShowAll()
	}
}

type searchCmd struct{}

func (c *searchCmd) Name() string      { return "search" }
func (c *searchCmd) Aliases() []string { return []string{"find", "/"} }
func (c *searchCmd) Synopsis() string  { return "искать по названию, без текста - весь список" }
func (c *searchCmd) Usage() string     { return "search [текст]" }

func (c *searchCmd) Run(s *Session, args []string) error {
	return s.list.Search(strings.Join(args, " "))
}

type listCmd struct{}

func (c *listCmd) Name() string      { return "list" }
func (c *listCmd) Aliases() []string { return []string{"ls"} }
func (c *listCmd) Synopsis() string  { return "показать текущий список" }
func (c *listCmd) Usage() string     { return "list" }

func (c *listCmd) Run(s *Session, args []string) error {
	tasks := s.list.Current()
	s.renderer.Render(viewOf(tasks, s.list.Mode()))
	return nil
}

type clearCmd struct{}

func (c *clearCmd) Name() string      { return "clear" }
func (c *clearCmd) Aliases() []string { return nil }
func (c *clearCmd) Synopsis() string  { return "удалить все задачи" }
func (c *clearCmd) Usage() string     { return "clear" }

func (c *clearCmd) Run(s *Session, args []string) error {
	done, err := s.list.DeleteAll(func() bool {
		return s.confirm("Удалить все задачи? [y/N] ")
	})
	if err != nil {
		return err
	}
	if !done {
		s.println("Отменено")
	}
	return nil
}

type helpCmd struct{}

func (c *helpCmd) Name() string      { return "help" }
func (c *helpCmd) Aliases() []string { return []string{"?"} }
func (c *helpCmd) Synopsis() string  { return "список команд" }
func (c *helpCmd) Usage() string     { return "help" }

func (c *helpCmd) Run(s *Session, args []string) error {
	var b strings.Builder
	b.WriteString("Команды:\n")
	for _, cmd := range s.registry.All() {
		fmt.Fprintf(&b, "  %-50s %s\n", cmd.Usage(), cmd.Synopsis())
	}
	s.print(b.String())
	return nil
}

type quitCmd struct{}

func (c *quitCmd) Name() string      { return "quit" }
func (c *quitCmd) Aliases() []string { return []string{"exit", "q"} }
func (c *quitCmd) Synopsis() string  { return "выйти" }
func (c *quitCmd) Usage() string     { return "quit" }

func (c *quitCmd) Run(s *Session, args []string) error {
	return ErrQuit
}
