package task

import (
	"errors"
	"fmt"
	"strings"
)

// Priority - срочность задачи. Значение совпадает с позицией при сортировке
// "сначала высокий", поэтому в базе хранится как число.
type Priority int

const (
	PriorityHigh Priority = iota + 1
	PriorityMedium
	PriorityLow
)

var ErrInvalidPriority = errors.New("неизвестный приоритет")

var priorityTags = map[Priority]string{
	PriorityHigh:   "High Priority",
	PriorityMedium: "Medium Priority",
	PriorityLow:    "Low Priority",
}

// ParsePriority принимает старые строковые метки по первому символу:
// "High Priority", "h", "M" и т.д.
func ParsePriority(tag string) (Priority, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return 0, ErrInvalidPriority
	}
	switch tag[0] {
	case 'H', 'h':
		return PriorityHigh, nil
	case 'M', 'm':
		return PriorityMedium, nil
	case 'L', 'l':
		return PriorityLow, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPriority, tag)
}

func (p Priority) Valid() bool {
	return p >= PriorityHigh && p <= PriorityLow
}

func (p Priority) Rank() int {
	return int(p)
}

func (p Priority) String() string {
	if tag, ok := priorityTags[p]; ok {
		return tag
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

func (p Priority) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, ErrInvalidPriority
	}
	return []byte(p.String()), nil
}

func (p *Priority) UnmarshalText(text []byte) error {
	parsed, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
