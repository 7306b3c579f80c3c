package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/verifeed/accounts/internal/auth/entity"
	"github.com/verifeed/accounts/internal/pkg/goerror"
)

type LoginInput struct {
	Identifier string `validate:"required,max=254"`
	Password   string `validate:"required"`
}

type LoginOutput struct {
	AccessToken  string
	RefreshToken string
	User         UserSummary
}

// Login issues tokens directly for accounts without two-factor enabled.
// Accounts with two-factor enabled must go through the otp flow instead.
func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	in.Identifier = strings.TrimSpace(in.Identifier)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.findUserLoginInfo(ctx, in.Identifier)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found", "identifier", in.Identifier)
		return nil, goerror.NewBusiness("invalid credentials", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user login info", "identifier", in.Identifier, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.password.Verify(user.Password, in.Password) {
		slog.WarnContext(ctx, "password user account not match", "user_id", user.ID)
		return nil, goerror.NewBusiness("invalid credentials", goerror.CodeUnauthorized)
	}

	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		return nil, err
	}

	if user.Status == entity.UserStatusUnverified {
		slog.WarnContext(ctx, "user account is unverified", "user_id", user.ID)
		return nil, goerror.NewBusiness("account is not verified, complete signup verification first", goerror.CodeForbidden)
	}

	if user.TwoFAEnabled {
		slog.WarnContext(ctx, "two-factor enabled, direct login rejected", "user_id", user.ID)
		return nil, goerror.NewBusiness("two-factor authentication required, request a verification code", goerror.CodeForbidden)
	}

	acToken, refToken, err := s.issueSessionTokens(ctx, user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &LoginOutput{
		AccessToken:  acToken,
		RefreshToken: refToken,
		User: UserSummary{
			ID:           user.ID,
			Username:     user.Username,
			Email:        user.Email,
			FullName:     user.FullName,
			TwoFAEnabled: user.TwoFAEnabled,
		},
	}, nil
}
