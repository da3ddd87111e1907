package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"todoapi/internal/domain"
	"todoapi/internal/store"
)

type todosRepo struct {
	db dbtx
}

const todoColumns = `id, user_id, created_by, assigned_to, title, description, start_time, end_time, status, priority, tags, created_at, updated_at`

// sortColumns whitelists the sortable keys accepted from API clients. Anything
// else falls back to created_at.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"startTime": "start_time",
	"endTime":   "end_time",
	"title":     "title",
	"status":    "status",
	"priority":  "priority",
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func scanTodo(row interface{ Scan(...any) error }) (domain.Todo, error) {
	var (
		t          domain.Todo
		assignedTo sql.NullString
		tags       string
	)
	err := row.Scan(
		&t.ID, &t.UserID, &t.CreatedBy, &assignedTo, &t.Title, &t.Description,
		&t.StartTime, &t.EndTime, &t.Status, &t.Priority, &tags,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return domain.Todo{}, err
	}
	t.AssignedTo = mapNullString(assignedTo)
	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
		return domain.Todo{}, fmt.Errorf("decode tags for todo %s: %w", t.ID, err)
	}
	return t, nil
}

func (r *todosRepo) CreateTodo(ctx context.Context, t domain.Todo) error {
	tags, err := encodeTags(t.Tags)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO todos (id, user_id, created_by, assigned_to, title, description, start_time, end_time, status, priority, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.CreatedBy, mapStringNull(t.AssignedTo), t.Title, t.Description,
		t.StartTime, t.EndTime, t.Status, t.Priority, tags, t.CreatedAt, t.UpdatedAt,
	)
	return mapConstraint(err)
}

func (r *todosRepo) GetTodoByID(ctx context.Context, id string) (domain.Todo, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE id = ?`, id)

	t, err := scanTodo(row)
	if err != nil {
		return domain.Todo{}, mapNotFound(err)
	}
	return t, nil
}

func (r *todosRepo) GetUserTodoByID(ctx context.Context, userID, id string) (domain.Todo, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE id = ? AND user_id = ?`, id, userID)

	t, err := scanTodo(row)
	if err != nil {
		return domain.Todo{}, mapNotFound(err)
	}
	return t, nil
}

func (r *todosRepo) UpdateTodo(ctx context.Context, t domain.Todo) error {
	tags, err := encodeTags(t.Tags)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE todos
		SET assigned_to = ?, title = ?, description = ?, start_time = ?, end_time = ?,
		    status = ?, priority = ?, tags = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		mapStringNull(t.AssignedTo), t.Title, t.Description, t.StartTime, t.EndTime,
		t.Status, t.Priority, tags, time.Now().UTC(), t.ID, t.UserID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *todosRepo) DeleteUserTodo(ctx context.Context, userID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM todos WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *todosRepo) ListTodos(ctx context.Context, f store.TodoFilter) ([]domain.Todo, int, error) {
	var (
		where []string
		args  []any
	)
	if f.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.CreatedBy != "" {
		where = append(where, "created_by = ?")
		args = append(args, f.CreatedBy)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.Priority != "" {
		where = append(where, "priority = ?")
		args = append(args, f.Priority)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM todos`+clause, args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		dir = "ASC"
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 {
		limit = 10
	}

	query := fmt.Sprintf(
		`SELECT %s FROM todos%s ORDER BY %s %s LIMIT ? OFFSET ?`,
		todoColumns, clause, col, dir,
	)
	args = append(args, limit, (page-1)*limit)

	todos, err := r.queryTodos(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return todos, total, nil
}

func (r *todosRepo) ListTodosByStatus(ctx context.Context, userID, status string) ([]domain.Todo, error) {
	return r.queryTodos(ctx,
		`SELECT `+todoColumns+` FROM todos
		 WHERE user_id = ? AND status = ?
		 ORDER BY start_time ASC`,
		userID, status)
}

func (r *todosRepo) ListTodosInRange(ctx context.Context, userID string, start, end time.Time) ([]domain.Todo, error) {
	// Any of the user's todos whose window overlaps [start, end].
	return r.queryTodos(ctx,
		`SELECT `+todoColumns+` FROM todos
		 WHERE user_id = ? AND start_time <= ? AND end_time >= ?
		 ORDER BY start_time ASC`,
		userID, end, start)
}

func (r *todosRepo) ListOverdueTodos(ctx context.Context, userID string, now time.Time) ([]domain.Todo, error) {
	return r.queryTodos(ctx,
		`SELECT `+todoColumns+` FROM todos
		 WHERE user_id = ? AND end_time < ? AND status != ?
		 ORDER BY end_time ASC`,
		userID, now, domain.StatusCompleted)
}

func (r *todosRepo) CountUserTodos(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM todos WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

func (r *todosRepo) queryTodos(ctx context.Context, query string, args ...any) ([]domain.Todo, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
