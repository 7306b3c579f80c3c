package entity

import (
	"time"

	"github.com/verifeed/accounts/internal/pkg/valueobject"
)

type User struct {
	ID           int64
	Username     string
	Email        string
	FullName     string
	AvatarURL    string
	TwoFAEnabled bool
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserLoginInfo is the projection used for credential checks. Password is the
// password hash from user_credentials.
type UserLoginInfo struct {
	ID           int64
	Username     string
	Email        string
	FullName     string
	TwoFAEnabled bool
	Status       UserStatus
	Password     string
}

type NewUser struct {
	ID        int64
	Username  string
	Email     string
	FullName  string
	AvatarURL string
	Status    UserStatus
}

// OtpChallenge is a single one-time code issued to a user for a purpose. At
// most one challenge per (user, purpose) is active: issuing a new one marks
// every prior unused challenge as used.
type OtpChallenge struct {
	ID             int64
	UserID         int64
	Purpose        OtpPurpose
	CodeHash       string
	IPAddress      string
	Metadata       valueobject.JSONMap
	FailedAttempts int16
	IsUsed         bool
	CreatedAt      time.Time
	ExpiresAt      time.Time
}

type RefreshToken struct {
	ID        int64
	UserID    int64
	Token     string
	ExpiresAt time.Time
}

// UserRefreshToken joins a refresh token row with its owner, used for
// rotation and reuse detection.
type UserRefreshToken struct {
	RefreshID                int64
	RefreshRevoked           bool
	RefreshReplacedByTokenID *int64
	RefreshExpiresAt         time.Time
	UserID                   int64
	UserEmail                string
	UserStatus               UserStatus
}

type RotateRefreshToken struct {
	NewID        int64
	OldID        int64
	UserID       int64
	NewToken     string
	NewExpiresAt time.Time
}
