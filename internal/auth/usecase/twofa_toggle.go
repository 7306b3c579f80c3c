package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/lo"
	"github.com/verifeed/accounts/internal/pkg/goerror"
	"github.com/verifeed/accounts/internal/pkg/jwt"
)

type TwoFAToggleInput struct {
	Enable bool
}

type TwoFAToggleOutput struct {
	TwoFAEnabled bool
}

func (s *Usecase) TwoFAToggle(ctx context.Context, in TwoFAToggleInput) (*TwoFAToggleOutput, error) {
	ctx, span := s.startSpan(ctx, "TwoFAToggle")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	user, err := s.repoDB.GetUserByEmail(ctx, clm.UserEmail)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found", "email", clm.UserEmail)
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", clm.UserEmail, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		return nil, err
	}

	if err := s.repoDB.UpdateUserTwoFA(ctx, user.ID, in.Enable); err != nil {
		slog.ErrorContext(ctx, "failed to repo update user two-factor flag", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "two-factor authentication "+lo.Ternary(in.Enable, "enabled", "disabled"), "user_id", user.ID)

	return &TwoFAToggleOutput{TwoFAEnabled: in.Enable}, nil
}
