package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"todoapi/internal/domain"
	"todoapi/internal/store"
	"todoapi/pkg/idx"
	"todoapi/pkg/slogx"
)

// TodoService owns the todo lifecycle. Every mutation is scoped to the
// calling user; listings exist in owner-scoped and admin-wide flavors.
type TodoService struct {
	Store store.Store
}

// TodoPage is a paginated listing result. Count is the size of this page;
// Total counts everything matching the filter.
type TodoPage struct {
	Todos       []domain.Todo `json:"todos"`
	Count       int           `json:"count"`
	Total       int           `json:"total"`
	CurrentPage int           `json:"currentPage"`
	Limit       int           `json:"limit"`
	TotalPages  int           `json:"totalPages"`
}

// Create validates and persists a new todo owned by userID.
func (s *TodoService) Create(ctx context.Context, userID string, t domain.Todo) (domain.Todo, error) {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	t.ID = idx.NewAt(now).String()
	t.UserID = userID
	t.CreatedBy = userID

	// Assigning a todo to another user makes them its owner; the creator
	// keeps visibility through the created-by listing.
	if t.AssignedTo != "" && t.AssignedTo != userID {
		if err := s.requireUser(ctx, t.AssignedTo); err != nil {
			return domain.Todo{}, err
		}
		t.UserID = t.AssignedTo
	}

	if t.Status == "" {
		t.Status = domain.StatusPending
	}
	if t.Priority == "" {
		t.Priority = domain.PriorityMedium
	}
	t.Normalize()

	if fields := t.Validate(); len(fields) > 0 {
		return domain.Todo{}, &ValidationError{Fields: fields}
	}

	t.CreatedAt = now
	t.UpdatedAt = now
	if err := s.Store.Todos().CreateTodo(ctx, t); err != nil {
		return domain.Todo{}, err
	}

	l.Debug("todo created", slog.String("todo_id", t.ID), slog.String("user_id", userID))
	return t, nil
}

// Get returns one of the user's todos.
func (s *TodoService) Get(ctx context.Context, userID, id string) (domain.Todo, error) {
	return s.Store.Todos().GetUserTodoByID(ctx, userID, id)
}

// Update applies changes to one of the user's todos. Zero-valued fields in
// patch keep their current values; validation runs on the merged result.
func (s *TodoService) Update(ctx context.Context, userID, id string, patch domain.Todo) (domain.Todo, error) {
	t, err := s.Store.Todos().GetUserTodoByID(ctx, userID, id)
	if err != nil {
		return domain.Todo{}, err
	}

	if patch.Title != "" {
		t.Title = patch.Title
	}
	if patch.Description != "" {
		t.Description = patch.Description
	}
	if !patch.StartTime.IsZero() {
		t.StartTime = patch.StartTime
	}
	if !patch.EndTime.IsZero() {
		t.EndTime = patch.EndTime
	}
	if patch.Status != "" {
		t.Status = patch.Status
	}
	if patch.Priority != "" {
		t.Priority = patch.Priority
	}
	if patch.Tags != nil {
		t.Tags = patch.Tags
	}
	if patch.AssignedTo != "" && patch.AssignedTo != t.AssignedTo {
		if err := s.requireUser(ctx, patch.AssignedTo); err != nil {
			return domain.Todo{}, err
		}
		t.AssignedTo = patch.AssignedTo
	}
	t.Normalize()

	if fields := t.Validate(); len(fields) > 0 {
		return domain.Todo{}, &ValidationError{Fields: fields}
	}

	t.UpdatedAt = time.Now().UTC()
	if err := s.Store.Todos().UpdateTodo(ctx, t); err != nil {
		return domain.Todo{}, err
	}
	return t, nil
}

// Delete removes one of the user's todos.
func (s *TodoService) Delete(ctx context.Context, userID, id string) error {
	ok, err := s.Store.Todos().DeleteUserTodo(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrNotFound
	}
	return nil
}

// List returns a page of the user's todos.
func (s *TodoService) List(ctx context.Context, f store.TodoFilter) (TodoPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}

	todos, total, err := s.Store.Todos().ListTodos(ctx, f)
	if err != nil {
		return TodoPage{}, err
	}
	if todos == nil {
		todos = []domain.Todo{}
	}

	pages := total / f.Limit
	if total%f.Limit > 0 {
		pages++
	}
	return TodoPage{
		Todos:       todos,
		Count:       len(todos),
		Total:       total,
		CurrentPage: f.Page,
		Limit:       f.Limit,
		TotalPages:  pages,
	}, nil
}

// requireUser maps a missing assignee onto a validation error.
func (s *TodoService) requireUser(ctx context.Context, userID string) error {
	if _, err := s.Store.Users().GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &ValidationError{Fields: []string{"Assigned user does not exist"}}
		}
		return err
	}
	return nil
}

// ListByStatus returns the user's todos with the given status.
func (s *TodoService) ListByStatus(ctx context.Context, userID, status string) ([]domain.Todo, error) {
	if !domain.ValidStatus(status) {
		return nil, &ValidationError{Fields: []string{"Status must be one of: pending, in-progress, completed, cancelled"}}
	}
	return s.Store.Todos().ListTodosByStatus(ctx, userID, status)
}

// ListInRange returns the user's todos whose window overlaps [start, end].
func (s *TodoService) ListInRange(ctx context.Context, userID string, start, end time.Time) ([]domain.Todo, error) {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return nil, &ValidationError{Fields: []string{"A valid startDate and endDate are required"}}
	}
	return s.Store.Todos().ListTodosInRange(ctx, userID, start, end)
}

// ListOverdue returns the user's incomplete todos whose deadline has passed.
func (s *TodoService) ListOverdue(ctx context.Context, userID string) ([]domain.Todo, error) {
	return s.Store.Todos().ListOverdueTodos(ctx, userID, time.Now().UTC())
}
