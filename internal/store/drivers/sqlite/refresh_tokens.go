package sqlite

import (
	"context"
	"time"

	"todoapi/internal/domain"
)

type refreshTokensRepo struct {
	db dbtx
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.TokenHash, t.ExpiresAt, t.CreatedAt,
	)
	if err != nil {
		return mapConstraint(err)
	}

	// Keep only the newest MaxRefreshTokensPerUser records per user; oldest
	// sessions are evicted first.
	_, err = r.db.ExecContext(ctx, `
		DELETE FROM refresh_tokens
		WHERE user_id = ?
		  AND id NOT IN (
			SELECT id FROM refresh_tokens
			WHERE user_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		  )`,
		t.UserID, t.UserID, domain.MaxRefreshTokensPerUser,
	)
	return err
}

func (r *refreshTokensRepo) DeleteRefreshToken(ctx context.Context, userID, tokenHash string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM refresh_tokens
		WHERE user_id = ? AND token_hash = ? AND expires_at > ?`,
		userID, tokenHash, time.Now().UTC(),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *refreshTokensRepo) DeleteAllUserRefreshTokens(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE user_id = ?`, userID)
	return err
}

func (r *refreshTokensRepo) ListUserRefreshTokens(ctx context.Context, userID string) ([]domain.RefreshToken, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, token_hash, expires_at, created_at
		FROM refresh_tokens
		WHERE user_id = ? AND expires_at > ?
		ORDER BY created_at ASC, id ASC`,
		userID, time.Now().UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RefreshToken
	for rows.Next() {
		var t domain.RefreshToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
