package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"todoapi/internal/domain"
	"todoapi/internal/service"
	"todoapi/internal/store"
	"todoapi/internal/store/drivers/sqlite"

	"github.com/stretchr/testify/require"
)

func newTodoService(t *testing.T) (*service.TodoService, domain.SafeUser) {
	t.Helper()

	s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	auth := &service.AuthService{
		Store: s,
		Tokens: &service.TokenService{
			AccessSecret: []byte("secret"),
			Issuer:       "todo-api",
			Audience:     "todo-app",
		},
		BcryptCost: 4,
	}
	u, _, err := auth.Register(context.Background(), "alice", "alice@example.com", "password1", "")
	require.NoError(t, err)

	return &service.TodoService{Store: s}, u
}

func TestTodoServiceCreate(t *testing.T) {
	todos, u := newTodoService(t)
	ctx := context.Background()
	start := time.Now().UTC().Add(time.Hour)

	t.Run("fills defaults and stamps ownership", func(t *testing.T) {
		td, err := todos.Create(ctx, u.ID, domain.Todo{
			Title:     "  write report  ",
			StartTime: start,
			EndTime:   start.Add(time.Hour),
		})
		require.NoError(t, err)
		require.Equal(t, "write report", td.Title)
		require.Equal(t, u.ID, td.UserID)
		require.Equal(t, u.ID, td.CreatedBy)
		require.Equal(t, domain.StatusPending, td.Status)
		require.Equal(t, domain.PriorityMedium, td.Priority)
		require.NotEmpty(t, td.ID)
	})

	t.Run("rejects an inverted window", func(t *testing.T) {
		_, err := todos.Create(ctx, u.ID, domain.Todo{
			Title:     "bad",
			StartTime: start,
			EndTime:   start.Add(-time.Hour),
		})
		ve, ok := service.AsValidationError(err)
		require.True(t, ok)
		require.Contains(t, ve.Fields, "End time must be after start time")
	})
}

func TestTodoServiceAssignment(t *testing.T) {
	todos, alice := newTodoService(t)
	ctx := context.Background()
	start := time.Now().UTC().Add(time.Hour)

	auth := &service.AuthService{
		Store: todos.Store,
		Tokens: &service.TokenService{
			AccessSecret: []byte("secret"),
			Issuer:       "todo-api",
			Audience:     "todo-app",
		},
		BcryptCost: 4,
	}
	bob, _, err := auth.Register(ctx, "bob", "bob@example.com", "password1", "")
	require.NoError(t, err)

	t.Run("assignment transfers ownership to the assignee", func(t *testing.T) {
		td, err := todos.Create(ctx, alice.ID, domain.Todo{
			Title:      "delegated",
			StartTime:  start,
			EndTime:    start.Add(time.Hour),
			AssignedTo: bob.ID,
		})
		require.NoError(t, err)
		require.Equal(t, bob.ID, td.UserID)
		require.Equal(t, alice.ID, td.CreatedBy)

		// It shows up in bob's listing, not alice's.
		_, err = todos.Get(ctx, bob.ID, td.ID)
		require.NoError(t, err)
		_, err = todos.Get(ctx, alice.ID, td.ID)
		require.ErrorIs(t, err, store.ErrNotFound)

		// But alice still sees it as its creator.
		page, err := todos.List(ctx, store.TodoFilter{CreatedBy: alice.ID})
		require.NoError(t, err)
		require.Equal(t, 1, page.Total)
	})

	t.Run("unknown assignees are rejected", func(t *testing.T) {
		_, err := todos.Create(ctx, alice.ID, domain.Todo{
			Title:      "nowhere",
			StartTime:  start,
			EndTime:    start.Add(time.Hour),
			AssignedTo: "ghost",
		})
		ve, ok := service.AsValidationError(err)
		require.True(t, ok)
		require.Contains(t, ve.Fields, "Assigned user does not exist")
	})
}

func TestTodoServiceUpdate(t *testing.T) {
	todos, u := newTodoService(t)
	ctx := context.Background()
	start := time.Now().UTC().Add(time.Hour)

	td, err := todos.Create(ctx, u.ID, domain.Todo{
		Title:     "original",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	})
	require.NoError(t, err)

	t.Run("merges the patch over current values", func(t *testing.T) {
		got, err := todos.Update(ctx, u.ID, td.ID, domain.Todo{
			Status: domain.StatusInProgress,
			Tags:   []string{"work"},
		})
		require.NoError(t, err)
		require.Equal(t, "original", got.Title)
		require.Equal(t, domain.StatusInProgress, got.Status)
		require.Equal(t, []string{"work"}, got.Tags)
	})

	t.Run("validates the merged result", func(t *testing.T) {
		_, err := todos.Update(ctx, u.ID, td.ID, domain.Todo{Status: "done"})
		_, ok := service.AsValidationError(err)
		require.True(t, ok)
	})

	t.Run("missing todos surface as not found", func(t *testing.T) {
		_, err := todos.Update(ctx, u.ID, "missing", domain.Todo{Title: "x"})
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestTodoServiceListing(t *testing.T) {
	todos, u := newTodoService(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, title := range []string{"a", "b", "c"} {
		_, err := todos.Create(ctx, u.ID, domain.Todo{
			Title:     title,
			StartTime: base.Add(time.Duration(i) * 24 * time.Hour),
			EndTime:   base.Add(time.Duration(i)*24*time.Hour + time.Hour),
		})
		require.NoError(t, err)
	}

	t.Run("paginates with totals", func(t *testing.T) {
		page, err := todos.List(ctx, store.TodoFilter{
			UserID: u.ID,
			SortBy: "startTime", SortOrder: "asc",
			Page: 2, Limit: 2,
		})
		require.NoError(t, err)
		require.Equal(t, 3, page.Total)
		require.Equal(t, 2, page.TotalPages)
		require.Len(t, page.Todos, 1)
		require.Equal(t, "c", page.Todos[0].Title)
	})

	t.Run("empty pages come back as empty slices", func(t *testing.T) {
		page, err := todos.List(ctx, store.TodoFilter{UserID: "nobody"})
		require.NoError(t, err)
		require.NotNil(t, page.Todos)
		require.Empty(t, page.Todos)
	})

	t.Run("range and status validation", func(t *testing.T) {
		_, err := todos.ListInRange(ctx, u.ID, base, base.Add(-time.Hour))
		_, ok := service.AsValidationError(err)
		require.True(t, ok)

		_, err = todos.ListByStatus(ctx, u.ID, "done")
		_, ok = service.AsValidationError(err)
		require.True(t, ok)
	})

	t.Run("status and overdue listings stay with their owner", func(t *testing.T) {
		pending, err := todos.ListByStatus(ctx, u.ID, domain.StatusPending)
		require.NoError(t, err)
		require.Len(t, pending, 3)

		pending, err = todos.ListByStatus(ctx, "somebody-else", domain.StatusPending)
		require.NoError(t, err)
		require.Empty(t, pending)

		overdue, err := todos.ListOverdue(ctx, "somebody-else")
		require.NoError(t, err)
		require.Empty(t, overdue)
	})

	t.Run("delete is owner scoped and idempotent failures map to not found", func(t *testing.T) {
		page, err := todos.List(ctx, store.TodoFilter{UserID: u.ID})
		require.NoError(t, err)
		id := page.Todos[0].ID

		require.NoError(t, todos.Delete(ctx, u.ID, id))
		require.ErrorIs(t, todos.Delete(ctx, u.ID, id), store.ErrNotFound)
		require.ErrorIs(t, todos.Delete(ctx, "someone-else", page.Todos[1].ID), store.ErrNotFound)
	})
}
