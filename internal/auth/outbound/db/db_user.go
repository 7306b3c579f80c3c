package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/verifeed/accounts/internal/auth/entity"
)

const queryUserLoginInfo = `
SELECT u.id, u.username, u.email, u.full_name, u.two_fa_enabled, u.status, c.password
FROM users u
JOIN user_credentials c ON c.user_id = u.id
`

func (s *DB) GetUserLoginInfoByEmail(ctx context.Context, email string) (out *entity.UserLoginInfo, err error) {
	ctx, span := s.startSpan(ctx, "GetUserLoginInfoByEmail")
	defer func() { s.endSpan(span, err) }()

	return s.scanUserLoginInfo(s.conn.QueryRow(ctx, queryUserLoginInfo+"WHERE u.email = $1", email))
}

func (s *DB) GetUserLoginInfoByUsername(ctx context.Context, username string) (out *entity.UserLoginInfo, err error) {
	ctx, span := s.startSpan(ctx, "GetUserLoginInfoByUsername")
	defer func() { s.endSpan(span, err) }()

	return s.scanUserLoginInfo(s.conn.QueryRow(ctx, queryUserLoginInfo+"WHERE u.username = $1", username))
}

func (s *DB) scanUserLoginInfo(row pgx.Row) (*entity.UserLoginInfo, error) {
	var u entity.UserLoginInfo
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.TwoFAEnabled, &u.Status, &u.Password)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &u, nil
}

func (s *DB) GetUserByEmail(ctx context.Context, email string) (out *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByEmail")
	defer func() { s.endSpan(span, err) }()

	const query = `
SELECT id, username, email, full_name, avatar_url, two_fa_enabled, status, created_at, updated_at
FROM users
WHERE email = $1`

	var u entity.User
	err = s.conn.QueryRow(ctx, query, email).Scan(
		&u.ID, &u.Username, &u.Email, &u.FullName, &u.AvatarURL,
		&u.TwoFAEnabled, &u.Status, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &u, nil
}

func (s *DB) NewUser(ctx context.Context, user entity.NewUser, hash string) (err error) {
	ctx, span := s.startSpan(ctx, "NewUser")
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

	const insertUser = `
INSERT INTO users (id, username, email, full_name, avatar_url, two_fa_enabled, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, false, $6, now(), now())`

	if _, err := tx.Exec(ctx, insertUser,
		user.ID, user.Username, user.Email, user.FullName, user.AvatarURL, user.Status,
	); err != nil {
		return s.mapError(err)
	}

	const insertCredential = `
INSERT INTO user_credentials (user_id, password, created_at, updated_at)
VALUES ($1, $2, now(), now())`

	if _, err := tx.Exec(ctx, insertCredential, user.ID, hash); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

func (s *DB) UpdateUserTwoFA(ctx context.Context, userID int64, enabled bool) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserTwoFA")
	defer func() { s.endSpan(span, err) }()

	const query = `UPDATE users SET two_fa_enabled = $2, updated_at = now() WHERE id = $1`

	_, err = s.conn.Exec(ctx, query, userID, enabled)
	return s.mapError(err)
}

func (s *DB) ActivateUser(ctx context.Context, userID int64) (err error) {
	ctx, span := s.startSpan(ctx, "ActivateUser")
	defer func() { s.endSpan(span, err) }()

	const query = `UPDATE users SET status = $2, updated_at = now() WHERE id = $1 AND status = $3`

	_, err = s.conn.Exec(ctx, query, userID, entity.UserStatusActive, entity.UserStatusUnverified)
	return s.mapError(err)
}

func (s *DB) UpdateUserAvatar(ctx context.Context, id int64, avatarURL string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserAvatar")
	defer func() { s.endSpan(span, err) }()

	const query = `UPDATE users SET avatar_url = $2, updated_at = now() WHERE id = $1`

	_, err = s.conn.Exec(ctx, query, id, avatarURL)
	return s.mapError(err)
}

func (s *DB) UpdateUserCredential(ctx context.Context, userID int64, hash string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserCredential")
	defer func() { s.endSpan(span, err) }()

	const query = `UPDATE user_credentials SET password = $2, updated_at = now() WHERE user_id = $1`

	_, err = s.conn.Exec(ctx, query, userID, hash)
	return s.mapError(err)
}
