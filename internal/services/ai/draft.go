package ai

import (
	"errors"
	"strings"
	"time"

	"github.com/rowanhart/tasknest/internal/engine"
	"github.com/rowanhart/tasknest/internal/models"
)

// ErrEmptyDraftTitle is returned when the model proposes a task without a title
var ErrEmptyDraftTitle = errors.New("draft has no title")

// PrepareDraft normalizes a model-proposed task into an engine draft. A due
// date the model got wrong is dropped rather than failing the whole draft;
// a missing title is a hard error because there is nothing to create.
func PrepareDraft(d TaskDraft) (engine.Draft, error) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return engine.Draft{}, ErrEmptyDraftTitle
	}

	draft := engine.Draft{
		Title:       title,
		DueDateKind: models.DueDateNone,
		Hashtags:    strings.TrimSpace(d.Hashtags),
	}

	due := strings.TrimSpace(d.DueDate)
	if due != "" {
		if _, err := time.Parse(models.DueDateLayout, due); err == nil {
			draft.DueDateKind = models.DueDateCustom
			draft.DueDate = due
		}
	}

	return draft, nil
}
