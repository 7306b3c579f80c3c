package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/verifeed/accounts/internal/auth/entity"
	"github.com/verifeed/accounts/internal/pkg/goerror"
	"github.com/verifeed/accounts/internal/pkg/idempotency"
	"github.com/verifeed/accounts/internal/pkg/valueobject"
)

type OtpRequestInput struct {
	Identifier string `validate:"required,max=254"`
	Password   string `validate:"required"`
	Purpose    entity.OtpPurpose
	IPAddress  string
	UserAgent  string
}

type OtpRequestOutput struct {
	MaskedEmail string
	ExpiresIn   int64
}

func (s *Usecase) OtpRequest(ctx context.Context, in OtpRequestInput) (*OtpRequestOutput, error) {
	ctx, span := s.startSpan(ctx, "OtpRequest")
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
		slog.WarnContext(ctx, "user account not found", "identifier", in.Identifier)
		return nil, goerror.NewBusiness("invalid credentials", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user login info", "identifier", in.Identifier, "error", err)
		return nil, goerror.NewServer(err)
	}

	// Unknown user and wrong password are indistinguishable to the caller.
	if !s.password.Verify(user.Password, in.Password) {
		slog.WarnContext(ctx, "password user account not match", "user_id", user.ID)
		return nil, goerror.NewBusiness("invalid credentials", goerror.CodeUnauthorized)
	}

	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		return nil, err
	}

	if in.Purpose == entity.OtpPurposeLogin && !user.TwoFAEnabled {
		slog.WarnContext(ctx, "two-factor is disabled for login otp request", "user_id", user.ID)
		return nil, goerror.NewBusiness("two-factor authentication is not enabled for this account", goerror.CodeForbidden)
	}

	expiresIn, err := s.issueAndDeliver(ctx, user, in.Purpose, in.IPAddress, in.UserAgent)
	if err != nil {
		return nil, err
	}

	return &OtpRequestOutput{
		MaskedEmail: maskEmail(user.Email),
		ExpiresIn:   expiresIn,
	}, nil
}

// issueAndDeliver creates a fresh challenge (superseding any prior unused one
// for the same purpose) and emails the code. The redis lock serializes
// concurrent issuance per (user, purpose) and doubles as a resend cooldown.
func (s *Usecase) issueAndDeliver(
	ctx context.Context,
	user *entity.UserLoginInfo,
	purpose entity.OtpPurpose,
	ipAddress string,
	userAgent string,
) (int64, error) {
	lockKey := fmt.Sprintf("otp:issue:%d:%s", user.ID, purpose)

	state, err := s.idemp.Acquire(ctx, lockKey, s.cfg.GetSecond("modules.auth.otp_issue_lock_seconds"))
	if err != nil {
		slog.ErrorContext(ctx, "failed to acquire otp issue lock", "user_id", user.ID, "error", err)
		return 0, goerror.NewServer(err)
	}
	if state != idempotency.StateNone {
		slog.WarnContext(ctx, "otp issue already in flight or cooling down", "user_id", user.ID, "purpose", purpose.String())
		return 0, goerror.NewBusiness("a code was sent recently, please wait before requesting another", goerror.CodeTooManyRequest)
	}

	code, err := s.otp.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp code", "user_id", user.ID, "error", err)
		s.releaseIssueLock(ctx, lockKey)
		return 0, goerror.NewServer(err)
	}

	codeHash, err := s.hmac.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash otp code", "user_id", user.ID, "error", err)
		s.releaseIssueLock(ctx, lockKey)
		return 0, goerror.NewServer(err)
	}

	ttl := s.cfg.GetMinute("modules.auth.otp_ttl_minutes")
	now := s.clock.Now()

	meta := valueobject.JSONMap{}
	if userAgent != "" {
		meta.Set("user_agent", userAgent)
	}

	if err := s.repoDB.ReplaceOtpChallenge(ctx, entity.OtpChallenge{
		ID:        s.uid.Generate(),
		UserID:    user.ID,
		Purpose:   purpose,
		CodeHash:  string(codeHash),
		IPAddress: ipAddress,
		Metadata:  meta,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo replace otp challenge", "user_id", user.ID, "error", err)
		s.releaseIssueLock(ctx, lockKey)
		return 0, goerror.NewServer(err)
	}

	expiresIn := int64(ttl / time.Second)

	// Delivery is synchronous so the caller learns about failures. The
	// challenge stays persisted; a resend will supersede it.
	if err := s.repoMail.SendOtpCode(ctx, SendOtpCodeInput{
		Email:     user.Email,
		FullName:  user.FullName,
		Code:      code,
		Purpose:   purpose,
		ExpiresIn: expiresIn,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to send otp code email", "user_id", user.ID, "error", err)
		s.releaseIssueLock(ctx, lockKey)
		return 0, goerror.NewBusiness("failed to deliver verification code, please try again", goerror.CodeInternal)
	}

	return expiresIn, nil
}

func (s *Usecase) releaseIssueLock(ctx context.Context, key string) {
	if err := s.idemp.Release(ctx, key); err != nil {
		slog.WarnContext(ctx, "failed to release otp issue lock", "key", key, "error", err)
	}
}
