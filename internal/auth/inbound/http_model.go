package inbound

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type RegisterResponse struct{}

func (RegisterResponse) Message() string {
	return "Registration successful. Request a verification code to activate your account."
}

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

type UserResponse struct {
	ID           int64  `json:"id,string"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	TwoFAEnabled bool   `json:"two_fa_enabled"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type OtpRequestRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	Purpose    string `json:"purpose"`
}

type OtpRequestResponse struct {
	Email     string `json:"email"`
	ExpiresIn int64  `json:"expires_in"`
}

func (OtpRequestResponse) Message() string {
	return "A verification code has been sent to your email."
}

type OtpVerifyRequest struct {
	Identifier string `json:"identifier"`
	Code       string `json:"code"`
	Purpose    string `json:"purpose"`
}

type OtpVerifyResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

type OtpResendRequest struct {
	Identifier string `json:"identifier"`
	Purpose    string `json:"purpose"`
}

type TwoFAToggleRequest struct {
	Enable bool `json:"enable"`
}

type TwoFAToggleResponse struct {
	TwoFAEnabled bool `json:"two_fa_enabled"`
}

type PasswordResetRequest struct {
	NewPassword string `json:"new_password"`
}

type PasswordResetResponse struct{}

func (PasswordResetResponse) Message() string {
	return "Password updated. Please log in with your new password."
}

type ProfileResponse struct {
	ID           int64  `json:"id,string"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	AvatarURL    string `json:"avatar_url"`
	TwoFAEnabled bool   `json:"two_fa_enabled"`
	Status       string `json:"status"`
}
