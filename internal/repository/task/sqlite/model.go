package sqlite

import "todoList/internal/models/task"

// todoRow - строка таблицы todo_table. Приоритет хранится рангом,
// поэтому сортировка по приоритету сводится к ORDER BY priority.
type todoRow struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Title       string `gorm:"not null"`
	Description string `gorm:"not null;default:''"`
	Priority    int    `gorm:"not null;index"`
}

func (todoRow) TableName() string {
	return "todo_table"
}

func fromTask(t *task.Task) todoRow {
	return todoRow{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority.Rank(),
	}
}

func (r todoRow) toTask() *task.Task {
	return &task.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Priority:    task.Priority(r.Priority),
	}
}
