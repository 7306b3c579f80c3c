package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/verifeed/accounts/internal/auth/entity"
	"github.com/verifeed/accounts/internal/pkg/goerror"
)

func (s *DB) GetActiveOtpChallenge(ctx context.Context, userID int64, purpose entity.OtpPurpose) (out *entity.OtpChallenge, err error) {
	ctx, span := s.startSpan(ctx, "GetActiveOtpChallenge")
	defer func() { s.endSpan(span, err) }()

	const query = `
SELECT id, user_id, purpose, code_hash, ip_address, metadata, failed_attempts, is_used, created_at, expires_at
FROM otp_challenges
WHERE user_id = $1 AND purpose = $2 AND is_used = false AND expires_at > now()
ORDER BY created_at DESC
LIMIT 1`

	var ch entity.OtpChallenge
	err = s.conn.QueryRow(ctx, query, userID, purpose).Scan(
		&ch.ID, &ch.UserID, &ch.Purpose, &ch.CodeHash, &ch.IPAddress, &ch.Metadata,
		&ch.FailedAttempts, &ch.IsUsed, &ch.CreatedAt, &ch.ExpiresAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &ch, nil
}

// ReplaceOtpChallenge marks every unused challenge for the (user, purpose)
// pair as used and inserts the new one in a single transaction. The UPDATE
// takes row locks, so concurrent issuers serialize and at most one challenge
// stays active.
func (s *DB) ReplaceOtpChallenge(ctx context.Context, in entity.OtpChallenge) (err error) {
	ctx, span := s.startSpan(ctx, "ReplaceOtpChallenge")
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

	const supersede = `
UPDATE otp_challenges SET is_used = true
WHERE user_id = $1 AND purpose = $2 AND is_used = false`

	if _, err := tx.Exec(ctx, supersede, in.UserID, in.Purpose); err != nil {
		return s.mapError(err)
	}

	const insert = `
INSERT INTO otp_challenges (id, user_id, purpose, code_hash, ip_address, metadata, failed_attempts, is_used, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, 0, false, $7, $8)`

	if _, err := tx.Exec(ctx, insert,
		in.ID, in.UserID, in.Purpose, in.CodeHash, in.IPAddress, in.Metadata, in.CreatedAt, in.ExpiresAt,
	); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

// IncrementOtpFailedAttempts bumps the counter atomically and returns the new
// value. It misses (ErrNotFound) when the row is already used or the counter
// already reached maxAttempts.
func (s *DB) IncrementOtpFailedAttempts(ctx context.Context, id int64, maxAttempts int16) (attempts int16, err error) {
	ctx, span := s.startSpan(ctx, "IncrementOtpFailedAttempts")
	defer func() { s.endSpan(span, err) }()

	const query = `
UPDATE otp_challenges SET failed_attempts = failed_attempts + 1
WHERE id = $1 AND is_used = false AND failed_attempts < $2
RETURNING failed_attempts`

	err = s.conn.QueryRow(ctx, query, id, maxAttempts).Scan(&attempts)
	if err != nil {
		return 0, s.mapError(err)
	}

	return attempts, nil
}

// ConsumeOtpChallenge marks the challenge as used, conditional on it still
// being consumable. Zero affected rows means someone got there first.
func (s *DB) ConsumeOtpChallenge(ctx context.Context, id int64, maxAttempts int16) (err error) {
	ctx, span := s.startSpan(ctx, "ConsumeOtpChallenge")
	defer func() { s.endSpan(span, err) }()

	const query = `
UPDATE otp_challenges SET is_used = true
WHERE id = $1 AND is_used = false AND failed_attempts < $2 AND expires_at > now()`

	tag, err := s.conn.Exec(ctx, query, id, maxAttempts)
	if err != nil {
		return s.mapError(err)
	}

	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
