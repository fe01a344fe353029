package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the completion status of a task
type TaskStatus string

const (
	TaskStatusIncomplete TaskStatus = "incomplete"
	TaskStatusComplete   TaskStatus = "complete"
)

// DueDateKind governs how a task's due date is derived and interpreted
type DueDateKind string

const (
	DueDateNone     DueDateKind = "none"
	DueDateThisWeek DueDateKind = "this-week"
	DueDateNextWeek DueDateKind = "next-week"
	DueDateCustom   DueDateKind = "custom"
)

// DueDateLayout is the calendar-date format used for due dates (date only, no time)
const DueDateLayout = "2006-01-02"

// CreatedLabelLayout is the human-readable creation timestamp captured once at
// creation time and never recomputed
const CreatedLabelLayout = "3:04 PM, 01/02/2006"

// Task represents one user-owned todo item
type Task struct {
	ID           uuid.UUID   `json:"id"`
	Owner        uuid.UUID   `json:"owner"`
	Title        string      `json:"title"`
	Status       TaskStatus  `json:"status"`
	CreatedLabel string      `json:"created_label"`
	DueDateKind  DueDateKind `json:"due_date_kind"`
	DueDate      *time.Time  `json:"due_date,omitempty"`
	Hashtags     string      `json:"hashtags"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// HashtagTokens splits the raw hashtags field into its whitespace-separated
// tokens. The field is not a normalized set; duplicates and inconsistent `#`
// prefixing are tolerated and returned as-is.
func (t *Task) HashtagTokens() []string {
	return strings.Fields(t.Hashtags)
}

// HasHashtag reports whether the task carries the given tag as one of its
// whitespace-separated tokens. Comparison ignores a single leading `#` on
// either side, so "#work" and "work" match the same token.
func (t *Task) HasHashtag(tag string) bool {
	want := strings.TrimPrefix(tag, "#")
	if want == "" {
		return false
	}
	for _, tok := range t.HashtagTokens() {
		if strings.TrimPrefix(tok, "#") == want {
			return true
		}
	}
	return false
}

// DateOnly truncates a time to its calendar date in the time's location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfWeek returns the calendar date of the Sunday ending the week containing t.
// Weeks run Monday through Sunday; if t is a Sunday the result is t's own date.
func EndOfWeek(t time.Time) time.Time {
	d := DateOnly(t)
	offset := (7 - int(d.Weekday())) % 7
	return d.AddDate(0, 0, offset)
}

// StartOfWeek returns the calendar date of the Monday starting the week containing t.
func StartOfWeek(t time.Time) time.Time {
	return EndOfWeek(t).AddDate(0, 0, -6)
}

// ResolveDueDate computes the concrete due date for a due-date kind, relative
// to now. For DueDateThisWeek and DueDateNextWeek the result is the end-of-week
// boundary computed at write time; for DueDateCustom the caller-supplied date
// is parsed and validated; for DueDateNone the result is nil.
func ResolveDueDate(kind DueDateKind, custom string, now time.Time) (*time.Time, error) {
	switch kind {
	case DueDateNone:
		return nil, nil
	case DueDateThisWeek:
		d := EndOfWeek(now)
		return &d, nil
	case DueDateNextWeek:
		d := EndOfWeek(now.AddDate(0, 0, 7))
		return &d, nil
	case DueDateCustom:
		d, err := time.ParseInLocation(DueDateLayout, custom, now.Location())
		if err != nil {
			return nil, fmt.Errorf("invalid due date %q: %w", custom, err)
		}
		return &d, nil
	default:
		return nil, fmt.Errorf("invalid due date kind: %s", kind)
	}
}

// ValidTaskStatus reports whether value is a known TaskStatus
func ValidTaskStatus(value string) bool {
	switch TaskStatus(value) {
	case TaskStatusIncomplete, TaskStatusComplete:
		return true
	default:
		return false
	}
}

// ValidDueDateKind reports whether value is a known DueDateKind
func ValidDueDateKind(value string) bool {
	switch DueDateKind(value) {
	case DueDateNone, DueDateThisWeek, DueDateNextWeek, DueDateCustom:
		return true
	default:
		return false
	}
}
