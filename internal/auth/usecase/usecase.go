package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/verifeed/accounts/internal/auth/entity"
	"github.com/verifeed/accounts/internal/pkg/clock"
	"github.com/verifeed/accounts/internal/pkg/config"
	"github.com/verifeed/accounts/internal/pkg/goerror"
	"github.com/verifeed/accounts/internal/pkg/goroutine"
	"github.com/verifeed/accounts/internal/pkg/hash"
	"github.com/verifeed/accounts/internal/pkg/idempotency"
	"github.com/verifeed/accounts/internal/pkg/instrument"
	"github.com/verifeed/accounts/internal/pkg/jwt"
	"github.com/verifeed/accounts/internal/pkg/otpcode"
	"github.com/verifeed/accounts/internal/pkg/storage"
	"github.com/verifeed/accounts/internal/pkg/uid"
	"github.com/verifeed/accounts/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type OtpVerifiedEvent struct {
	UserID   int64
	Email    string
	FullName string
	Purpose  entity.OtpPurpose
}

type repoMessaging interface {
	PublishOtpVerified(ctx context.Context, msg OtpVerifiedEvent) error
}

type SendOtpCodeInput struct {
	Email     string
	FullName  string
	Code      string
	Purpose   entity.OtpPurpose
	ExpiresIn int64
}

type repoMail interface {
	SendOtpCode(ctx context.Context, in SendOtpCodeInput) error
}

type repoDB interface {
	GetUserLoginInfoByEmail(ctx context.Context, email string) (*entity.UserLoginInfo, error)
	GetUserLoginInfoByUsername(ctx context.Context, username string) (*entity.UserLoginInfo, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserRefreshToken(ctx context.Context, token string) (*entity.UserRefreshToken, error)
	GetActiveOtpChallenge(ctx context.Context, userID int64, purpose entity.OtpPurpose) (*entity.OtpChallenge, error)

	NewUser(ctx context.Context, user entity.NewUser, hash string) error
	ReplaceOtpChallenge(ctx context.Context, in entity.OtpChallenge) error
	IncrementOtpFailedAttempts(ctx context.Context, id int64, maxAttempts int16) (int16, error)
	ConsumeOtpChallenge(ctx context.Context, id int64, maxAttempts int16) error

	CreateRefreshToken(ctx context.Context, in entity.RefreshToken) error
	RotateRefreshToken(ctx context.Context, ro entity.RotateRefreshToken) error
	RevokeRefreshToken(ctx context.Context, token string) error
	RevokeAllRefreshToken(ctx context.Context, userID int64) error

	UpdateUserTwoFA(ctx context.Context, userID int64, enabled bool) error
	ActivateUser(ctx context.Context, userID int64) error
	UpdateUserAvatar(ctx context.Context, id int64, avatarURL string) error
	UpdateUserCredential(ctx context.Context, userID int64, hash string) error
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	repoMail      repoMail
	idemp         idempotency.Idempotency
	validator     validator.Validator
	cfg           config.Config
	storage       storage.Storage
	hmac          hash.Hash
	password      hash.Hash
	otp           otpcode.Generator
	uid           uid.NumberID
	uuid          uid.StringID
	oid           uid.StringID
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	RepoMail      repoMail
	Idempotency   idempotency.Idempotency
	Validator     validator.Validator
	Config        config.Config
	Storage       storage.Storage
	HMAC          hash.Hash
	Password      hash.Hash
	OtpCode       otpcode.Generator
	UID           uid.NumberID
	UUID          uid.StringID
	OID           uid.StringID
	Clock         clock.Clocker
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		repoMail:      dep.RepoMail,
		idemp:         dep.Idempotency,
		validator:     dep.Validator,
		cfg:           dep.Config,
		storage:       dep.Storage,
		hmac:          dep.HMAC,
		password:      dep.Password,
		otp:           dep.OtpCode,
		uid:           dep.UID,
		uuid:          dep.UUID,
		oid:           dep.OID,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.usecase").Start(ctx, name)
}

// findUserLoginInfo resolves an identifier to a user. An identifier containing
// '@' is treated as an email, otherwise as a username. No fallback between the
// two.
func (s *Usecase) findUserLoginInfo(ctx context.Context, identifier string) (*entity.UserLoginInfo, error) {
	if strings.Contains(identifier, "@") {
		return s.repoDB.GetUserLoginInfoByEmail(ctx, identifier)
	}
	return s.repoDB.GetUserLoginInfoByUsername(ctx, identifier)
}

func (s *Usecase) ensureUserStatusAllowed(ctx context.Context, userID int64, status entity.UserStatus) error {
	switch status.Ensure() {
	case entity.UserStatusUnknown:
		slog.WarnContext(ctx, "user account status is unrecognized", "user_id", userID)
		return goerror.NewBusiness("account status is unrecognized", goerror.CodeForbidden)

	case entity.UserStatusBanned:
		slog.WarnContext(ctx, "user account is banned", "user_id", userID)
		return goerror.NewBusiness("account is banned", goerror.CodeForbidden)

	case entity.UserStatusInactive:
		slog.WarnContext(ctx, "user account is deactivated", "user_id", userID)
		return goerror.NewBusiness("account is deactivated", goerror.CodeForbidden)

	default:
		return nil
	}
}

// issueSessionTokens creates the JWT access token plus a persisted opaque
// refresh token for the user.
func (s *Usecase) issueSessionTokens(ctx context.Context, userID int64, email string) (access, refresh string, err error) {
	acToken, err := s.jwt.Generate(userID, email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access jwt token", "user_id", userID, "error", err)
		return "", "", goerror.NewServer(err)
	}

	refToken := s.oid.Generate()
	refTokenHash, err := s.hmac.Hash(refToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash refresh token", "user_id", userID, "error", err)
		return "", "", goerror.NewServer(err)
	}

	if err := s.repoDB.CreateRefreshToken(ctx, entity.RefreshToken{
		ID:        s.uid.Generate(),
		UserID:    userID,
		Token:     string(refTokenHash),
		ExpiresAt: s.clock.Now().Add(s.cfg.GetDay("modules.auth.refresh_token_ttl_days")),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo create refresh token user", "user_id", userID, "error", err)
		return "", "", goerror.NewServer(err)
	}

	return acToken, refToken, nil
}

// maskEmail keeps at most the first three characters of the local part.
func maskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return email
	}

	local := email[:at]
	if len(local) > 3 {
		local = local[:3]
	}

	return local + "***" + email[at:]
}
