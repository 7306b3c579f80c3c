package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/verifeed/accounts/internal/auth/entity"
	"github.com/verifeed/accounts/internal/pkg/goerror"
)

type OtpVerifyInput struct {
	Identifier string `validate:"required,max=254"`
	Code       string `validate:"required,otpcode"`
	Purpose    entity.OtpPurpose
}

type OtpVerifyOutput struct {
	AccessToken  string
	RefreshToken string
	User         UserSummary
}

type UserSummary struct {
	ID           int64
	Username     string
	Email        string
	FullName     string
	TwoFAEnabled bool
}

func (s *Usecase) OtpVerify(ctx context.Context, in OtpVerifyInput) (*OtpVerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "OtpVerify")
	defer span.End()

	in.Identifier = strings.TrimSpace(in.Identifier)
	in.Code = strings.TrimSpace(in.Code)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if !in.Purpose.IsValid() {
		return nil, goerror.NewInvalidInput(nil, "purpose", "purpose must be one of login, signup, reset")
	}

	// Unknown identifiers get the same answer as a missing challenge so the
	// endpoint does not leak which accounts exist.
	user, err := s.findUserLoginInfo(ctx, in.Identifier)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found for otp verify", "identifier", in.Identifier)
		return nil, goerror.NewBusiness("no active verification code", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user login info", "identifier", in.Identifier, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		return nil, err
	}

	ch, err := s.repoDB.GetActiveOtpChallenge(ctx, user.ID, in.Purpose)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "no active otp challenge", "user_id", user.ID, "purpose", in.Purpose.String())
		return nil, goerror.NewBusiness("no active verification code", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get active otp challenge", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	maxAttempts := int16(s.cfg.GetInt("modules.auth.otp_max_attempts"))

	// Exhaustion is checked before the code comparison, so a correct code on
	// a burned challenge is still rejected.
	if ch.FailedAttempts >= maxAttempts {
		slog.WarnContext(ctx, "otp challenge attempts exhausted", "user_id", user.ID, "challenge_id", ch.ID)
		return nil, goerror.NewBusiness("too many failed attempts, request a new code", goerror.CodeTooManyRequest)
	}

	if !s.hmac.Verify(ch.CodeHash, in.Code) {
		return nil, s.recordFailedAttempt(ctx, user.ID, ch.ID, maxAttempts)
	}

	// Consume is a conditional update keyed on the unused row; a concurrent
	// verify or supersede makes it miss, and the second caller is rejected.
	err = s.repoDB.ConsumeOtpChallenge(ctx, ch.ID, maxAttempts)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "otp challenge already consumed or superseded", "user_id", user.ID, "challenge_id", ch.ID)
		return nil, goerror.NewBusiness("no active verification code", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo consume otp challenge", "user_id", user.ID, "challenge_id", ch.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if in.Purpose == entity.OtpPurposeSignup && user.Status == entity.UserStatusUnverified {
		if err := s.repoDB.ActivateUser(ctx, user.ID); err != nil {
			slog.ErrorContext(ctx, "failed to repo activate user", "user_id", user.ID, "error", err)
			return nil, goerror.NewServer(err)
		}
	}

	acToken, refToken, err := s.issueSessionTokens(ctx, user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	// Success notification is fire-and-forget; it runs off the request path
	// and a broker outage never fails the verification response.
	evt := OtpVerifiedEvent{
		UserID:   user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Purpose:  in.Purpose,
	}
	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := s.repoMessaging.PublishOtpVerified(ctx, evt); err != nil {
			slog.ErrorContext(ctx, "failed to publish otp verified event", "user_id", evt.UserID, "error", err)
		}
		return nil
	})

	return &OtpVerifyOutput{
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

func (s *Usecase) recordFailedAttempt(ctx context.Context, userID, challengeID int64, maxAttempts int16) error {
	attempts, err := s.repoDB.IncrementOtpFailedAttempts(ctx, challengeID, maxAttempts)
	if errors.Is(err, goerror.ErrNotFound) {
		// Row was consumed or superseded between read and increment.
		slog.WarnContext(ctx, "otp challenge gone during failed attempt", "user_id", userID, "challenge_id", challengeID)
		return goerror.NewBusiness("no active verification code", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo increment otp failed attempts", "user_id", userID, "challenge_id", challengeID, "error", err)
		return goerror.NewServer(err)
	}

	if attempts >= maxAttempts {
		slog.WarnContext(ctx, "otp challenge attempts exhausted", "user_id", userID, "challenge_id", challengeID)
		return goerror.NewBusiness("too many failed attempts, request a new code", goerror.CodeTooManyRequest)
	}

	remaining := maxAttempts - attempts
	slog.WarnContext(ctx, "otp code mismatch", "user_id", userID, "challenge_id", challengeID, "remaining", remaining)

	return goerror.NewBusiness(fmt.Sprintf("invalid code, %d attempts remaining", remaining), goerror.CodeUnauthorized)
}
