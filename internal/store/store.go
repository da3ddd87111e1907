package store

import (
	"context"
	"errors"
	"time"

	"todoapi/internal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement it. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens
	Todos() Todos

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. A non-nil error from fn
	// rolls back; nil commits. Preferred over Tx for multi-step mutations
	// that must be atomic (e.g. refresh-token rotation).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases the underlying database handle.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It exposes the same repositories plus
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// CreateUser inserts a new user (id provided by the app via ULID).
	// Returns ErrAlreadyExists when the username or email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// GetUserByID returns a user by id, password hash included. Callers
	// expose users through domain.User.Safe only.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByIdentifier resolves a username or email. The email match is
	// case-insensitive. Used for login, so the password hash is included.
	GetUserByIdentifier(ctx context.Context, identifier string) (domain.User, error)

	// UpdateUser persists username, email, full name, role and active
	// flag, bumping updated_at. Returns ErrAlreadyExists on a uniqueness
	// violation.
	UpdateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash replaces the stored hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error

	// UpdateLastLogin stamps last_login.
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error

	// IsEmpty reports whether any users exist. Used by seeding.
	IsEmpty(ctx context.Context) (bool, error)
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new record and evicts the owner's
	// oldest records beyond domain.MaxRefreshTokensPerUser (FIFO).
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// DeleteRefreshToken removes the live (unexpired) record matching the
	// fingerprint for the given user, reporting whether a row was
	// deleted. Rotation relies on this as its delete-if-present guard:
	// of two concurrent exchanges of the same token, exactly one sees
	// true.
	DeleteRefreshToken(ctx context.Context, userID, tokenHash string) (bool, error)

	// DeleteAllUserRefreshTokens ends every session for a user.
	DeleteAllUserRefreshTokens(ctx context.Context, userID string) error

	// ListUserRefreshTokens returns a user's live records, oldest first.
	ListUserRefreshTokens(ctx context.Context, userID string) ([]domain.RefreshToken, error)

	// DeleteExpiredRefreshTokens is housekeeping; returns rows removed.
	DeleteExpiredRefreshTokens(ctx context.Context) (int64, error)
}

// TodoFilter narrows and pages a todo listing. Zero values mean "no
// constraint"; page and limit default to 1 and 10.
type TodoFilter struct {
	UserID    string // owner scope
	CreatedBy string // creator scope
	Status    string
	Priority  string
	Page      int
	Limit     int
	SortBy    string // column key: createdAt, startTime, endTime, title, status, priority, updatedAt
	SortOrder string // asc or desc
}

type Todos interface {
	CreateTodo(ctx context.Context, t domain.Todo) error

	// GetTodoByID returns a todo regardless of owner.
	GetTodoByID(ctx context.Context, id string) (domain.Todo, error)

	// GetUserTodoByID returns a todo only if it is owned by userID.
	GetUserTodoByID(ctx context.Context, userID, id string) (domain.Todo, error)

	// UpdateTodo persists all mutable fields, bumping updated_at.
	UpdateTodo(ctx context.Context, t domain.Todo) error

	// DeleteUserTodo removes a todo owned by userID, reporting whether a
	// row was deleted.
	DeleteUserTodo(ctx context.Context, userID, id string) (bool, error)

	// ListTodos returns a filtered, sorted, paginated slice plus the
	// total count matching the filter before pagination.
	ListTodos(ctx context.Context, f TodoFilter) ([]domain.Todo, int, error)

	// ListTodosByStatus returns the user's todos with the given status.
	ListTodosByStatus(ctx context.Context, userID, status string) ([]domain.Todo, error)

	// ListTodosInRange returns the user's todos overlapping [start, end].
	ListTodosInRange(ctx context.Context, userID string, start, end time.Time) ([]domain.Todo, error)

	// ListOverdueTodos returns the user's incomplete todos whose deadline
	// passed.
	ListOverdueTodos(ctx context.Context, userID string, now time.Time) ([]domain.Todo, error)

	// CountUserTodos returns how many todos a user owns.
	CountUserTodos(ctx context.Context, userID string) (int, error)
}
