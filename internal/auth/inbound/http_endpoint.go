package inbound

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/verifeed/accounts/internal/auth/entity"
	"github.com/verifeed/accounts/internal/auth/usecase"
	"github.com/verifeed/accounts/internal/pkg/goerror"
	"github.com/verifeed/accounts/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for account and verification workflows.
type HTTPEndpoint struct {
	uc uc
}

// Register creates a new user account.
// @Summary Register user
// @Description Creates a new account in unverified state. The account is activated by verifying a signup code.
// @Tags Auth
// @Accept json
// @Param request body RegisterRequest true "Registration payload"
// @Success 204 "No Content"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 409 {object} router.errorResponse "Username or email already registered"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/register [post]
func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	var req RegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.Register(r.Context(), usecase.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	}); err != nil {
		return nil, err
	}

	return &RegisterResponse{}, nil
}

// Login authenticates a user and returns tokens.
// @Summary Authenticate user
// @Description Validates credentials and returns access/refresh tokens. Accounts with two-factor enabled must use the otp endpoints instead.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login payload"
// @Success 200 {object} router.successResponse{data=LoginResponse} "Authentication result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid credentials"
// @Failure 403 {object} router.errorResponse "Two-factor required or account not verified"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/login [post]
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Identifier: req.Identifier,
		Password:   req.Password,
	})
	if err != nil {
		return nil, err
	}

	return LoginResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         toUserResponse(resp.User),
	}, nil
}

// RefreshToken issues a new access token using a refresh token.
// @Summary Refresh access token
// @Description Exchanges a refresh token for a new access/refresh token pair. Reused tokens revoke the whole session family.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RefreshTokenRequest true "Refresh token payload"
// @Success 200 {object} router.successResponse{data=RefreshTokenResponse} "Token refresh result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid refresh token"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/refresh [post]
func (h *HTTPEndpoint) RefreshToken(r *router.Request) (any, error) {
	var req RefreshTokenRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RefreshToken(r.Context(), usecase.RefreshTokenInput{RefreshToken: req.RefreshToken})
	if err != nil {
		return nil, err
	}

	return RefreshTokenResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

// Logout revokes the caller's refresh token.
// @Summary Logout
// @Description Revokes the provided refresh token for the authenticated user.
// @Tags Auth
// @Security BearerAuth
// @Accept json
// @Param request body LogoutRequest true "Logout payload"
// @Success 204 "No Content"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/logout [post]
func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	var req LogoutRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.Logout(r.Context(), usecase.LogoutInput{RefreshToken: req.RefreshToken})
}

// OtpRequest issues a one-time verification code after a password check.
// @Summary Request verification code
// @Description Verifies credentials and emails a one-time code for the given purpose (login, signup or reset).
// @Tags Auth, OTP
// @Accept json
// @Produce json
// @Param request body OtpRequestRequest true "Code request payload"
// @Success 200 {object} router.successResponse{data=OtpRequestResponse} "Delivery result with masked email"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid credentials"
// @Failure 403 {object} router.errorResponse "Purpose not allowed for this account"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "A code was sent recently"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/otp/request [post]
func (h *HTTPEndpoint) OtpRequest(r *router.Request) (any, error) {
	var req OtpRequestRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.OtpRequest(r.Context(), usecase.OtpRequestInput{
		Identifier: req.Identifier,
		Password:   req.Password,
		Purpose:    entity.OtpPurposeFromString(req.Purpose),
		IPAddress:  clientIP(r),
		UserAgent:  r.UserAgent(),
	})
	if err != nil {
		return nil, err
	}

	return OtpRequestResponse{
		Email:     resp.MaskedEmail,
		ExpiresIn: resp.ExpiresIn,
	}, nil
}

// OtpVerify checks a one-time code and completes the flow it was issued for.
// @Summary Verify one-time code
// @Description Validates the code and returns session tokens. Signup codes also activate the account.
// @Tags Auth, OTP
// @Accept json
// @Produce json
// @Param request body OtpVerifyRequest true "Code verification payload"
// @Success 200 {object} router.successResponse{data=OtpVerifyResponse} "Verification result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid or expired code"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many failed attempts"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/otp/verify [post]
func (h *HTTPEndpoint) OtpVerify(r *router.Request) (any, error) {
	var req OtpVerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.OtpVerify(r.Context(), usecase.OtpVerifyInput{
		Identifier: req.Identifier,
		Code:       req.Code,
		Purpose:    entity.OtpPurposeFromString(req.Purpose),
	})
	if err != nil {
		return nil, err
	}

	return OtpVerifyResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         toUserResponse(resp.User),
	}, nil
}

// OtpResend issues a fresh code, superseding the previous one.
// @Summary Resend verification code
// @Description Sends a new code for the given purpose. The previous code stops working immediately.
// @Tags Auth, OTP
// @Accept json
// @Produce json
// @Param request body OtpResendRequest true "Code resend payload"
// @Success 200 {object} router.successResponse{data=OtpRequestResponse} "Delivery result with masked email"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 404 {object} router.errorResponse "Account not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "A code was sent recently"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/otp/resend [post]
func (h *HTTPEndpoint) OtpResend(r *router.Request) (any, error) {
	var req OtpResendRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.OtpResend(r.Context(), usecase.OtpResendInput{
		Identifier: req.Identifier,
		Purpose:    entity.OtpPurposeFromString(req.Purpose),
		IPAddress:  clientIP(r),
		UserAgent:  r.UserAgent(),
	})
	if err != nil {
		return nil, err
	}

	return OtpRequestResponse{
		Email:     resp.MaskedEmail,
		ExpiresIn: resp.ExpiresIn,
	}, nil
}

// TwoFAToggle enables or disables two-factor login for the current user.
// @Summary Toggle two-factor login
// @Description Turns the two-factor login requirement on or off for the authenticated user.
// @Tags Auth
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body TwoFAToggleRequest true "Toggle payload"
// @Success 200 {object} router.successResponse{data=TwoFAToggleResponse} "Toggle result"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/2fa/toggle [post]
func (h *HTTPEndpoint) TwoFAToggle(r *router.Request) (any, error) {
	var req TwoFAToggleRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.TwoFAToggle(r.Context(), usecase.TwoFAToggleInput{Enable: req.Enable})
	if err != nil {
		return nil, err
	}

	return TwoFAToggleResponse{TwoFAEnabled: resp.TwoFAEnabled}, nil
}

// PasswordReset sets a new password for the current user.
// @Summary Reset password
// @Description Sets a new password. Callers authenticate with the session issued by verifying a reset code.
// @Tags Auth
// @Security BearerAuth
// @Accept json
// @Param request body PasswordResetRequest true "New password payload"
// @Success 204 "No Content"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/password/reset [post]
func (h *HTTPEndpoint) PasswordReset(r *router.Request) (any, error) {
	var req PasswordResetRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.PasswordReset(r.Context(), usecase.PasswordResetInput{NewPassword: req.NewPassword}); err != nil {
		return nil, err
	}

	return &PasswordResetResponse{}, nil
}

// Profile retrieves the current user's profile details.
// @Summary Get profile
// @Description Returns profile information for the authenticated user.
// @Tags Auth, Profile
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=ProfileResponse} "Profile result"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/profile [get]
func (h *HTTPEndpoint) Profile(r *router.Request) (any, error) {
	resp, err := h.uc.Profile(r.Context(), usecase.ProfileInput{})
	if err != nil {
		return nil, err
	}

	return ProfileResponse{
		ID:           resp.ID,
		Username:     resp.Username,
		Email:        resp.Email,
		FullName:     resp.FullName,
		AvatarURL:    resp.AvatarURL,
		TwoFAEnabled: resp.TwoFAEnabled,
		Status:       resp.Status,
	}, nil
}

// ProfileUpdateAvatar updates the current user's avatar image.
// @Summary Update profile avatar
// @Description Uploads a new avatar for the authenticated user.
// @Tags Auth, Profile
// @Security BearerAuth
// @Accept multipart/form-data
// @Param avatar formData file true "Avatar image"
// @Success 204 "No Content"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/auth/profile/avatar [put]
func (h *HTTPEndpoint) ProfileUpdateAvatar(r *router.Request) (any, error) {
	ctx := r.Context()

	file, err := r.StreamSingleFile("avatar")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			slog.ErrorContext(ctx, "failed to close file", "error", err)
		}
	}()

	head := make([]byte, 512)
	n, err := file.Read(head)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, goerror.NewInvalidFormat()
	}

	return nil, h.uc.ProfileUpdateAvatar(ctx, usecase.ProfileUpdateAvatarInput{
		File:        io.MultiReader(bytes.NewReader(head[:n]), file),
		ContentType: http.DetectContentType(head[:n]),
	})
}

func toUserResponse(u usecase.UserSummary) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FullName:     u.FullName,
		TwoFAEnabled: u.TwoFAEnabled,
	}
}

// clientIP returns the caller address as set by the IP middleware, without the
// port when one is present.
func clientIP(r *router.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
