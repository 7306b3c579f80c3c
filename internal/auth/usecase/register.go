package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/verifeed/accounts/internal/auth/entity"
	"github.com/verifeed/accounts/internal/pkg/goerror"
)

type RegisterInput struct {
	Username string `validate:"required,min=3,max=30,alphanum"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,password"`
	FullName string `validate:"required,min=5,max=100,alphaspace"`
}

// Register creates the account in an unverified state. Activation happens when
// the user verifies a signup code requested through the otp endpoints.
func (s *Usecase) Register(ctx context.Context, in RegisterInput) error {
	ctx, span := s.startSpan(ctx, "Register")
	defer span.End()

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	passwordHash, err := s.password.Hash(in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return goerror.NewServer(err)
	}

	err = s.repoDB.NewUser(ctx, entity.NewUser{
		ID:        s.uid.Generate(),
		Username:  in.Username,
		Email:     in.Email,
		FullName:  in.FullName,
		AvatarURL: "https://ui-avatars.com/api/?name=" + url.QueryEscape(in.FullName),
		Status:    entity.UserStatusUnverified,
	}, string(passwordHash))
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "username or email already registered", "username", in.Username)
		return goerror.NewBusiness("username or email already registered", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create user", "username", in.Username, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
