package entity

import "strings"

type UserStatus int16

const (
	// UserStatusUnknown is mean status is not known / not set.
	UserStatusUnknown UserStatus = 0

	// UserStatusUnverified mean user exists but has not verified via signup code.
	UserStatusUnverified UserStatus = 1

	// UserStatusActive mean user is verified and allowed to use the app.
	UserStatusActive UserStatus = 2

	// UserStatusBanned mean user is blocked from using the app (policy/abuse/etc).
	UserStatusBanned UserStatus = 3

	// UserStatusInactive mean user is not currently active (e.g., deactivated, closed).
	UserStatusInactive UserStatus = 4
)

func (us UserStatus) String() string {
	switch us {
	case UserStatusActive:
		return "Active"
	case UserStatusBanned:
		return "Banned"
	case UserStatusInactive:
		return "Inactive"
	case UserStatusUnverified:
		return "Unverified"
	default:
		return "Unknown"
	}
}

func (us UserStatus) Ensure() UserStatus {
	switch us {
	case UserStatusActive, UserStatusBanned, UserStatusInactive, UserStatusUnverified:
		return us
	default:
		return UserStatusUnknown
	}
}

// OtpPurpose identifies the flow a one-time code belongs to. Codes issued for
// one purpose can never be consumed by another.
type OtpPurpose int16

const (
	OtpPurposeUnknown OtpPurpose = 0
	OtpPurposeLogin   OtpPurpose = 1
	OtpPurposeSignup  OtpPurpose = 2
	OtpPurposeReset   OtpPurpose = 3
)

func (p OtpPurpose) String() string {
	switch p {
	case OtpPurposeLogin:
		return "login"
	case OtpPurposeSignup:
		return "signup"
	case OtpPurposeReset:
		return "reset"
	default:
		return "unknown"
	}
}

func (p OtpPurpose) IsValid() bool {
	switch p {
	case OtpPurposeLogin, OtpPurposeSignup, OtpPurposeReset:
		return true
	default:
		return false
	}
}

func OtpPurposeFromString(s string) OtpPurpose {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "login":
		return OtpPurposeLogin
	case "signup":
		return OtpPurposeSignup
	case "reset":
		return OtpPurposeReset
	default:
		return OtpPurposeUnknown
	}
}
