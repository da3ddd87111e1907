package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"todoapi/internal/domain"
	"todoapi/internal/store"
	"todoapi/internal/store/drivers/sqlite"
	"todoapi/pkg/idx"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedUser(t *testing.T, s store.Store, username string) domain.User {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Second)
	u := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$04$notarealhashnotarealhashnotarealha",
		Role:         domain.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func TestUsersRepo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice")

	t.Run("fetch by id and identifier", func(t *testing.T) {
		got, err := s.Users().GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, "alice", got.Username)

		got, err = s.Users().GetUserByIdentifier(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, alice.ID, got.ID)

		got, err = s.Users().GetUserByIdentifier(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, alice.ID, got.ID)
	})

	t.Run("email identifier match is case-insensitive", func(t *testing.T) {
		got, err := s.Users().GetUserByIdentifier(ctx, "Alice@Example.COM")
		require.NoError(t, err)
		require.Equal(t, alice.ID, got.ID)
	})

	t.Run("missing user maps to ErrNotFound", func(t *testing.T) {
		_, err := s.Users().GetUserByID(ctx, "nope")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate username maps to ErrAlreadyExists", func(t *testing.T) {
		dup := alice
		dup.ID = idx.New().String()
		dup.Email = "other@example.com"
		err := s.Users().CreateUser(ctx, dup)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("duplicate email maps to ErrAlreadyExists", func(t *testing.T) {
		dup := alice
		dup.ID = idx.New().String()
		dup.Username = "alice2"
		err := s.Users().CreateUser(ctx, dup)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("last login stamp", func(t *testing.T) {
		at := time.Now().UTC().Truncate(time.Second)
		require.NoError(t, s.Users().UpdateLastLogin(ctx, alice.ID, at))

		got, err := s.Users().GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		require.NotNil(t, got.LastLogin)
		require.WithinDuration(t, at, *got.LastLogin, time.Second)
	})

	t.Run("password hash update", func(t *testing.T) {
		require.NoError(t, s.Users().UpdatePasswordHash(ctx, alice.ID, "new-hash"))
		got, err := s.Users().GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, "new-hash", got.PasswordHash)
	})

	t.Run("is empty", func(t *testing.T) {
		empty, err := s.Users().IsEmpty(ctx)
		require.NoError(t, err)
		require.False(t, empty)
	})
}

func seedRefreshToken(t *testing.T, s store.Store, userID, hash string, at time.Time) {
	t.Helper()
	require.NoError(t, s.RefreshTokens().CreateRefreshToken(context.Background(), domain.RefreshToken{
		ID:        idx.NewAt(at).String(),
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: at.Add(7 * 24 * time.Hour),
		CreatedAt: at,
	}))
}

func TestRefreshTokensRepo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")

	t.Run("delete is a single-shot guard", func(t *testing.T) {
		seedRefreshToken(t, s, alice.ID, "fp-1", time.Now().UTC())

		ok, err := s.RefreshTokens().DeleteRefreshToken(ctx, alice.ID, "fp-1")
		require.NoError(t, err)
		require.True(t, ok)

		// Second delete of the same fingerprint must miss.
		ok, err = s.RefreshTokens().DeleteRefreshToken(ctx, alice.ID, "fp-1")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("delete is scoped to the owner", func(t *testing.T) {
		seedRefreshToken(t, s, alice.ID, "fp-owner", time.Now().UTC())

		ok, err := s.RefreshTokens().DeleteRefreshToken(ctx, bob.ID, "fp-owner")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("oldest tokens are evicted beyond the cap", func(t *testing.T) {
		base := time.Now().UTC().Add(-time.Hour)
		for i := 0; i < domain.MaxRefreshTokensPerUser+2; i++ {
			seedRefreshToken(t, s, bob.ID, "fp-bob-"+string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute))
		}

		live, err := s.RefreshTokens().ListUserRefreshTokens(ctx, bob.ID)
		require.NoError(t, err)
		require.Len(t, live, domain.MaxRefreshTokensPerUser)

		// The two oldest must be the ones gone.
		require.Equal(t, "fp-bob-c", live[0].TokenHash)
	})

	t.Run("expired rows are swept", func(t *testing.T) {
		expired := domain.RefreshToken{
			ID:        idx.New().String(),
			UserID:    alice.ID,
			TokenHash: "fp-expired",
			ExpiresAt: time.Now().UTC().Add(-time.Minute),
			CreatedAt: time.Now().UTC().Add(-time.Hour),
		}
		require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, expired))

		// Expired rows are invisible to the rotation guard.
		ok, err := s.RefreshTokens().DeleteRefreshToken(ctx, alice.ID, "fp-expired")
		require.NoError(t, err)
		require.False(t, ok)

		n, err := s.RefreshTokens().DeleteExpiredRefreshTokens(ctx)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, int64(1))
	})

	t.Run("delete all ends every session", func(t *testing.T) {
		seedRefreshToken(t, s, alice.ID, "fp-x", time.Now().UTC())
		seedRefreshToken(t, s, alice.ID, "fp-y", time.Now().UTC())

		require.NoError(t, s.RefreshTokens().DeleteAllUserRefreshTokens(ctx, alice.ID))

		live, err := s.RefreshTokens().ListUserRefreshTokens(ctx, alice.ID)
		require.NoError(t, err)
		require.Empty(t, live)
	})
}

func seedTodo(t *testing.T, s store.Store, userID, title, status, priority string, start time.Time) domain.Todo {
	t.Helper()

	td := domain.Todo{
		ID:        idx.New().String(),
		UserID:    userID,
		CreatedBy: userID,
		Title:     title,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    status,
		Priority:  priority,
		Tags:      []string{"test"},
		CreatedAt: start,
		UpdatedAt: start,
	}
	require.NoError(t, s.Todos().CreateTodo(context.Background(), td))
	return td
}

func TestTodosRepo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")

	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	first := seedTodo(t, s, alice.ID, "first", domain.StatusPending, domain.PriorityHigh, base)
	seedTodo(t, s, alice.ID, "second", domain.StatusCompleted, domain.PriorityLow, base.Add(24*time.Hour))
	seedTodo(t, s, bob.ID, "bobs", domain.StatusPending, domain.PriorityMedium, base.Add(48*time.Hour))

	t.Run("owner scoping on reads", func(t *testing.T) {
		got, err := s.Todos().GetUserTodoByID(ctx, alice.ID, first.ID)
		require.NoError(t, err)
		require.Equal(t, "first", got.Title)
		require.Equal(t, []string{"test"}, got.Tags)

		_, err = s.Todos().GetUserTodoByID(ctx, bob.ID, first.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("filtered paginated listing", func(t *testing.T) {
		todos, total, err := s.Todos().ListTodos(ctx, store.TodoFilter{
			UserID: alice.ID,
			SortBy: "startTime", SortOrder: "asc",
			Page: 1, Limit: 1,
		})
		require.NoError(t, err)
		require.Equal(t, 2, total)
		require.Len(t, todos, 1)
		require.Equal(t, "first", todos[0].Title)

		todos, total, err = s.Todos().ListTodos(ctx, store.TodoFilter{
			UserID: alice.ID,
			Status: domain.StatusCompleted,
		})
		require.NoError(t, err)
		require.Equal(t, 1, total)
		require.Equal(t, "second", todos[0].Title)
	})

	t.Run("unknown sort key falls back safely", func(t *testing.T) {
		_, _, err := s.Todos().ListTodos(ctx, store.TodoFilter{
			UserID: alice.ID,
			SortBy: "id; DROP TABLE todos",
		})
		require.NoError(t, err)

		// Table is still there.
		_, err = s.Todos().GetTodoByID(ctx, first.ID)
		require.NoError(t, err)
	})

	t.Run("status and range listings are owner scoped", func(t *testing.T) {
		pending, err := s.Todos().ListTodosByStatus(ctx, alice.ID, domain.StatusPending)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		require.Equal(t, "first", pending[0].Title)

		pending, err = s.Todos().ListTodosByStatus(ctx, bob.ID, domain.StatusPending)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		require.Equal(t, "bobs", pending[0].Title)

		inRange, err := s.Todos().ListTodosInRange(ctx, alice.ID, base, base.Add(2*time.Hour))
		require.NoError(t, err)
		require.Len(t, inRange, 1)
		require.Equal(t, "first", inRange[0].Title)

		inRange, err = s.Todos().ListTodosInRange(ctx, bob.ID, base, base.Add(2*time.Hour))
		require.NoError(t, err)
		require.Empty(t, inRange)
	})

	t.Run("overdue excludes completed and other owners", func(t *testing.T) {
		overdue, err := s.Todos().ListOverdueTodos(ctx, alice.ID, base.Add(72*time.Hour))
		require.NoError(t, err)
		require.Len(t, overdue, 1)
		require.Equal(t, "first", overdue[0].Title)
		require.NotEqual(t, domain.StatusCompleted, overdue[0].Status)
	})

	t.Run("update and delete are owner scoped", func(t *testing.T) {
		upd := first
		upd.Title = "first (renamed)"
		upd.Status = domain.StatusInProgress
		require.NoError(t, s.Todos().UpdateTodo(ctx, upd))

		got, err := s.Todos().GetTodoByID(ctx, first.ID)
		require.NoError(t, err)
		require.Equal(t, "first (renamed)", got.Title)

		ok, err := s.Todos().DeleteUserTodo(ctx, bob.ID, first.ID)
		require.NoError(t, err)
		require.False(t, ok)

		ok, err = s.Todos().DeleteUserTodo(ctx, alice.ID, first.ID)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("count per user", func(t *testing.T) {
		n, err := s.Todos().CountUserTodos(ctx, bob.ID)
		require.NoError(t, err)
		require.Equal(t, 1, n)
	})
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice")

	err := s.WithTx(ctx, func(tx store.Tx) error {
		seedRefreshToken(t, tx, alice.ID, "fp-tx", time.Now().UTC())
		return context.Canceled
	})
	require.ErrorIs(t, err, context.Canceled)

	live, err := s.RefreshTokens().ListUserRefreshTokens(ctx, alice.ID)
	require.NoError(t, err)
	require.Empty(t, live)
}
