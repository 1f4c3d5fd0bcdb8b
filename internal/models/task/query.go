package task

import (
	"errors"
	"fmt"
	"strings"
)

// Order задаёт порядок выдачи задач.
type Order int

const (
	OrderByID Order = iota
	OrderHighFirst
	OrderLowFirst
)

var ErrInvalidOrder = errors.New("неизвестный порядок сортировки")

func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "id", "all":
		return OrderByID, nil
	case "high":
		return OrderHighFirst, nil
	case "low":
		return OrderLowFirst, nil
	}
	return OrderByID, fmt.Errorf("%w: %q", ErrInvalidOrder, s)
}

func (o Order) String() string {
	switch o {
	case OrderHighFirst:
		return "high"
	case OrderLowFirst:
		return "low"
	default:
		return "id"
	}
}

// Less сравнивает задачи в заданном порядке. При равных приоритетах
// порядок определяется ID.
func (o Order) Less(a, b *Task) bool {
	switch o {
	case OrderHighFirst:
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
	case OrderLowFirst:
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
	}
	return a.ID < b.ID
}

// Query описывает один из запросов к хранилищу.
// Непустой TitleLike означает поиск по шаблону SQL LIKE, результат по ID.
type Query struct {
	Order     Order
	TitleLike string
}

func AllQuery() Query {
	return Query{Order: OrderByID}
}

func HighFirstQuery() Query {
	return Query{Order: OrderHighFirst}
}

func LowFirstQuery() Query {
	return Query{Order: OrderLowFirst}
}

func SearchQuery(pattern string) Query {
	return Query{Order: OrderByID, TitleLike: pattern}
}

func (q Query) IsSearch() bool {
	return q.TitleLike != ""
}

func (q Query) String() string {
	if q.IsSearch() {
		return "search:" + q.TitleLike
	}
	return q.Order.String()
}

// WrapLike оборачивает строку поиска в шаблон "%text%".
func WrapLike(text string) string {
	return "%" + text + "%"
}
