package domain

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

const (
	TitleMaxLen       = 200
	DescriptionMaxLen = 1000
)

var (
	Statuses   = []string{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}
	Priorities = []string{PriorityLow, PriorityMedium, PriorityHigh}
)

func ValidStatus(s string) bool   { return slices.Contains(Statuses, s) }
func ValidPriority(p string) bool { return slices.Contains(Priorities, p) }

// Todo is a scheduled task. UserID is the owner whose lists it appears in,
// CreatedBy is who created it, and AssignedTo is who it was delegated to
// (owner and assignee coincide unless the creator assigned it elsewhere).
type Todo struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user"`
	CreatedBy   string     `json:"createdBy"`
	AssignedTo  string     `json:"assignedTo,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     time.Time  `json:"endTime"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	Tags        []string   `json:"tags"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Normalize trims free-text fields and drops empty tags.
func (t *Todo) Normalize() {
	t.Title = strings.TrimSpace(t.Title)
	t.Description = strings.TrimSpace(t.Description)

	tags := t.Tags[:0]
	for _, tag := range t.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	t.Tags = tags
}

// Validate returns one message per violated field constraint.
func (t *Todo) Validate() []string {
	var errs []string

	// Free-text bounds are counted in runes, not bytes.
	switch {
	case t.Title == "":
		errs = append(errs, "Title is required")
	case utf8.RuneCountInString(t.Title) > TitleMaxLen:
		errs = append(errs, "Title must not exceed 200 characters")
	}

	if utf8.RuneCountInString(t.Description) > DescriptionMaxLen {
		errs = append(errs, "Description must not exceed 1000 characters")
	}

	switch {
	case t.StartTime.IsZero():
		errs = append(errs, "Start time is required")
	case t.EndTime.IsZero():
		errs = append(errs, "End time is required")
	case !t.EndTime.After(t.StartTime):
		errs = append(errs, "End time must be after start time")
	}

	if !ValidStatus(t.Status) {
		errs = append(errs, "Status must be one of: pending, in-progress, completed, cancelled")
	}
	if !ValidPriority(t.Priority) {
		errs = append(errs, "Priority must be one of: low, medium, high")
	}

	return errs
}

// IsOverdue reports whether the todo's deadline has passed without it
// being completed.
func (t *Todo) IsOverdue(now time.Time) bool {
	return t.EndTime.Before(now) && t.Status != StatusCompleted
}
