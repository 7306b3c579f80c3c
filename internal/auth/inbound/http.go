package inbound

import (
	"context"

	"github.com/verifeed/accounts/internal/auth/usecase"
	"github.com/verifeed/accounts/internal/pkg/router"
)

type uc interface {
	Register(ctx context.Context, in usecase.RegisterInput) error
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	RefreshToken(ctx context.Context, in usecase.RefreshTokenInput) (*usecase.RefreshTokenOutput, error)
	Logout(ctx context.Context, in usecase.LogoutInput) error

	OtpRequest(ctx context.Context, in usecase.OtpRequestInput) (*usecase.OtpRequestOutput, error)
	OtpVerify(ctx context.Context, in usecase.OtpVerifyInput) (*usecase.OtpVerifyOutput, error)
	OtpResend(ctx context.Context, in usecase.OtpResendInput) (*usecase.OtpResendOutput, error)

	TwoFAToggle(ctx context.Context, in usecase.TwoFAToggleInput) (*usecase.TwoFAToggleOutput, error)
	PasswordReset(ctx context.Context, in usecase.PasswordResetInput) error

	Profile(ctx context.Context, in usecase.ProfileInput) (*usecase.ProfileOutput, error)
	ProfileUpdateAvatar(ctx context.Context, in usecase.ProfileUpdateAvatarInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Account & Session
	r.POST("/api/v1/auth/register", end.Register)
	r.POST("/api/v1/auth/login", end.Login)
	r.POST("/api/v1/auth/refresh", end.RefreshToken)
	r.POST("/api/v1/auth/logout", end.Logout) // need authenticated

	// Verification Codes
	r.POST("/api/v1/auth/otp/request", end.OtpRequest)
	r.POST("/api/v1/auth/otp/verify", end.OtpVerify)
	r.POST("/api/v1/auth/otp/resend", end.OtpResend)

	// Account Settings (need authenticated)
	r.POST("/api/v1/auth/2fa/toggle", end.TwoFAToggle)
	r.POST("/api/v1/auth/password/reset", end.PasswordReset)

	// Profile (need authenticated)
	r.GET("/api/v1/auth/profile", end.Profile)
	r.PUT("/api/v1/auth/profile/avatar", end.ProfileUpdateAvatar)
}
