package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/verifeed/accounts/internal/auth/entity"
	"github.com/verifeed/accounts/internal/pkg/goerror"
)

func (s *DB) CreateRefreshToken(ctx context.Context, in entity.RefreshToken) (err error) {
	ctx, span := s.startSpan(ctx, "CreateRefreshToken")
	defer func() { s.endSpan(span, err) }()

	const query = `
INSERT INTO refresh_tokens (id, user_id, token, expires_at, revoked, created_at)
VALUES ($1, $2, $3, $4, false, now())`

	_, err = s.conn.Exec(ctx, query, in.ID, in.UserID, in.Token, in.ExpiresAt)
	return s.mapError(err)
}

func (s *DB) GetUserRefreshToken(ctx context.Context, token string) (out *entity.UserRefreshToken, err error) {
	ctx, span := s.startSpan(ctx, "GetUserRefreshToken")
	defer func() { s.endSpan(span, err) }()

	const query = `
SELECT r.id, r.revoked, r.replaced_by_token_id, r.expires_at, u.id, u.email, u.status
FROM refresh_tokens r
JOIN users u ON u.id = r.user_id
WHERE r.token = $1`

	var rt entity.UserRefreshToken
	err = s.conn.QueryRow(ctx, query, token).Scan(
		&rt.RefreshID, &rt.RefreshRevoked, &rt.RefreshReplacedByTokenID, &rt.RefreshExpiresAt,
		&rt.UserID, &rt.UserEmail, &rt.UserStatus,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &rt, nil
}

func (s *DB) RotateRefreshToken(ctx context.Context, ro entity.RotateRefreshToken) (err error) {
	ctx, span := s.startSpan(ctx, "RotateRefreshToken")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	const revoke = `
UPDATE refresh_tokens SET revoked = true, replaced_by_token_id = $1
WHERE id = $2 AND revoked = false`

	tag, err := tx.Exec(ctx, revoke, ro.NewID, ro.OldID)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	const insert = `
INSERT INTO refresh_tokens (id, user_id, token, expires_at, revoked, created_at)
VALUES ($1, $2, $3, $4, false, now())`

	if _, err := tx.Exec(ctx, insert, ro.NewID, ro.UserID, ro.NewToken, ro.NewExpiresAt); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

func (s *DB) RevokeRefreshToken(ctx context.Context, token string) (err error) {
	ctx, span := s.startSpan(ctx, "RevokeRefreshToken")
	defer func() { s.endSpan(span, err) }()

	const query = `UPDATE refresh_tokens SET revoked = true WHERE token = $1`

	_, err = s.conn.Exec(ctx, query, token)
	return s.mapError(err)
}

func (s *DB) RevokeAllRefreshToken(ctx context.Context, userID int64) (err error) {
	ctx, span := s.startSpan(ctx, "RevokeAllRefreshToken")
	defer func() { s.endSpan(span, err) }()

	const query = `UPDATE refresh_tokens SET revoked = true WHERE user_id = $1 AND revoked = false`

	_, err = s.conn.Exec(ctx, query, userID)
	return s.mapError(err)
}
