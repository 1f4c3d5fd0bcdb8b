package task

type TaskOption func(*Task)

func WithTitle(title string) TaskOption {
	if title == "" {
		return nil
	}
	return func(task *Task) {
		task.Title = title
	}
}

func WithDescription(description string) TaskOption {
	return func(task *Task) {
		task.Description = description
	}
}

func WithPriority(priority Priority) TaskOption {
	if !priority.Valid() {
		return nil
	}
	return func(task *Task) {
		task.Priority = priority
	}
}

// Apply применяет опции, пропуская nil.
func (t *Task) Apply(options ...TaskOption) {
	for _, opt := range options {
		if opt != nil {
			opt(t)
		}
	}
}
