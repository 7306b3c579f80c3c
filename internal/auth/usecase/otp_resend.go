package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/verifeed/accounts/internal/auth/entity"
	"github.com/verifeed/accounts/internal/pkg/goerror"
)

type OtpResendInput struct {
	Identifier string `validate:"required,max=254"`
	Purpose    entity.OtpPurpose
	IPAddress  string
	UserAgent  string
}

type OtpResendOutput struct {
	MaskedEmail string
	ExpiresIn   int64
}

// OtpResend issues a fresh code without re-checking the password. The new
// challenge supersedes any unexpired one for the same purpose.
func (s *Usecase) OtpResend(ctx context.Context, in OtpResendInput) (*OtpResendOutput, error) {
	ctx, span := s.startSpan(ctx, "OtpResend")
	defer span.End()

	in.Identifier = strings.TrimSpace(in.Identifier)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if !in.Purpose.IsValid() {
		return nil, goerror.NewInvalidInput(nil, "purpose", "purpose must be one of login, signup, reset")
	}

	user, err := s.findUserLoginInfo(ctx, in.Identifier)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found for otp resend", "identifier", in.Identifier)
		return nil, goerror.NewBusiness("account not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user login info", "identifier", in.Identifier, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		return nil, err
	}

	if in.Purpose == entity.OtpPurposeLogin && !user.TwoFAEnabled {
		slog.WarnContext(ctx, "two-factor is disabled for login otp resend", "user_id", user.ID)
		return nil, goerror.NewBusiness("two-factor authentication is not enabled for this account", goerror.CodeForbidden)
	}

	expiresIn, err := s.issueAndDeliver(ctx, user, in.Purpose, in.IPAddress, in.UserAgent)
	if err != nil {
		return nil, err
	}

	return &OtpResendOutput{
		MaskedEmail: maskEmail(user.Email),
		ExpiresIn:   expiresIn,
	}, nil
}
