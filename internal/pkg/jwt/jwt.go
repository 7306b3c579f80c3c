package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidSigningMethod reports a token signed with an unexpected method.
	ErrInvalidSigningMethod = errors.New("invalid JWT signing method")

	// ErrSigningKeyTooShort reports an HS512 key shorter than 64 bytes.
	ErrSigningKeyTooShort = errors.New("HS512 signing key must be at least 64 bytes (512 bits)")

	// ErrTokenExpired reports an expired token.
	ErrTokenExpired = errors.New("JWT token has expired")

	// ErrInvalidToken reports a malformed token or failed validation.
	ErrInvalidToken = errors.New("invalid token")
)

// JWT issues and verifies access tokens. The refresh-token lifecycle lives in
// the database, not here.
type JWT interface {
	// Generate creates a signed access token for the user.
	Generate(uid int64, email string) (string, error)
	// Verify parses and validates the token and returns its claims.
	Verify(tokenStr string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

type jwtContextKey struct{}

// Config defines the inputs for building a JWT implementation.
type Config struct {
	// Secret is the HMAC signing key.
	Secret []byte
	// Issuer is the iss claim value.
	Issuer string
	// Audiences are the accepted aud values.
	Audiences []string
	// TTLMinutes is the access token time-to-live.
	TTLMinutes time.Duration
	// Clock provides the time source.
	Clock clocker
	// UUID generates jti values.
	UUID generator
}

// Claims extends the registered claims with the authenticated user.
type Claims struct {
	jwt.RegisteredClaims
	// UserID is the authenticated user identifier.
	UserID int64 `json:"user_id,string"`
	// UserEmail is the authenticated user email.
	UserEmail string `json:"user_email"`
}

// GetAuth returns the JWT claims stored in the context, if any.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(jwtContextKey{}).(Claims)
	if !ok {
		return nil
	}

	return &clm
}

// SetAuth stores JWT claims in the context.
func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, jwtContextKey{}, clm)
}
