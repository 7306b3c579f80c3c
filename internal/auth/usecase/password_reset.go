package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/verifeed/accounts/internal/pkg/goerror"
	"github.com/verifeed/accounts/internal/pkg/jwt"
)

type PasswordResetInput struct {
	NewPassword string `validate:"required,password"`
}

// PasswordReset sets a new password for the authenticated user. Callers reach
// this after verifying a reset code, which issues the session used here. All
// other sessions are revoked once the password changes.
func (s *Usecase) PasswordReset(ctx context.Context, in PasswordResetInput) error {
	ctx, span := s.startSpan(ctx, "PasswordReset")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	user, err := s.repoDB.GetUserByEmail(ctx, clm.UserEmail)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found", "email", clm.UserEmail)
		return goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", clm.UserEmail, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		return err
	}

	newHash, err := s.password.Hash(in.NewPassword)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash new password", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoDB.UpdateUserCredential(ctx, user.ID, string(newHash)); err != nil {
		slog.ErrorContext(ctx, "failed to repo update user credential", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoDB.RevokeAllRefreshToken(ctx, user.ID); err != nil {
		slog.ErrorContext(ctx, "failed to repo revoke all refresh token", "user_id", user.ID, "error", err)
	}

	return nil
}
