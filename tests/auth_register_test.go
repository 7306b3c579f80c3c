package tests

import (
	"net/http"
	"testing"
)

func TestRegisterReal(t *testing.T) {
	requireServer(t)

	t.Run("register then duplicate conflicts", func(t *testing.T) {
		user := registerUser(t)

		payload := map[string]string{
			"username":  user.Username,
			"email":     user.Email,
			"password":  user.Password,
			"full_name": user.FullName,
		}

		status, body := doJSON(t, http.MethodPost, "/api/v1/auth/register", payload, "")
		if status != http.StatusConflict {
			errEnv := decodeError(t, body)
			t.Fatalf("duplicate register: status=%d message=%q", status, errEnv.Message)
		}
	})

	t.Run("validation errors are reported", func(t *testing.T) {
		payload := map[string]string{
			"username":  "x",
			"email":     "not-an-email",
			"password":  "short",
			"full_name": "ab",
		}

		status, body := doJSON(t, http.MethodPost, "/api/v1/auth/register", payload, "")
		if status != http.StatusUnprocessableEntity {
			t.Fatalf("status=%d body=%s", status, body)
		}
		errEnv := decodeError(t, body)
		if len(errEnv.Error) == 0 {
			t.Fatal("expected field errors in response")
		}
	})

	t.Run("unverified account cannot log in", func(t *testing.T) {
		user := registerUser(t)

		status, body := login(t, user.Email, user.Password)
		if status != http.StatusForbidden {
			errEnv := decodeError(t, body)
			t.Fatalf("login: status=%d message=%q", status, errEnv.Message)
		}
	})
}

func TestOtpRequestReal(t *testing.T) {
	requireServer(t)

	t.Run("signup code for a fresh account", func(t *testing.T) {
		user := registerUser(t)

		payload := map[string]string{
			"identifier": user.Email,
			"password":   user.Password,
			"purpose":    "signup",
		}

		status, body := doJSON(t, http.MethodPost, "/api/v1/auth/otp/request", payload, "")
		if status != http.StatusOK {
			errEnv := decodeError(t, body)
			t.Fatalf("otp request: status=%d message=%q", status, errEnv.Message)
		}

		var data struct {
			Email     string `json:"email"`
			ExpiresIn int64  `json:"expires_in"`
		}
		decodeSuccess(t, body, &data)
		if data.Email == user.Email {
			t.Error("response leaks the unmasked email")
		}
		if data.ExpiresIn <= 0 {
			t.Errorf("expires_in = %d", data.ExpiresIn)
		}

		// An immediate second request hits the cooldown.
		status, body = doJSON(t, http.MethodPost, "/api/v1/auth/otp/request", payload, "")
		if status != http.StatusTooManyRequests {
			errEnv := decodeError(t, body)
			t.Fatalf("second otp request: status=%d message=%q", status, errEnv.Message)
		}
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		user := registerUser(t)

		payload := map[string]string{
			"identifier": user.Email,
			"password":   "Wrong123!",
			"purpose":    "signup",
		}

		status, _ := doJSON(t, http.MethodPost, "/api/v1/auth/otp/request", payload, "")
		if status != http.StatusUnauthorized {
			t.Fatalf("status=%d", status)
		}
	})

	t.Run("unknown purpose fails validation", func(t *testing.T) {
		user := registerUser(t)

		payload := map[string]string{
			"identifier": user.Email,
			"password":   user.Password,
			"purpose":    "teleport",
		}

		status, _ := doJSON(t, http.MethodPost, "/api/v1/auth/otp/request", payload, "")
		if status != http.StatusUnprocessableEntity {
			t.Fatalf("status=%d", status)
		}
	})
}

func TestOtpVerifyReal(t *testing.T) {
	requireServer(t)

	t.Run("guessed code is rejected", func(t *testing.T) {
		user := registerUser(t)

		reqPayload := map[string]string{
			"identifier": user.Email,
			"password":   user.Password,
			"purpose":    "signup",
		}
		status, body := doJSON(t, http.MethodPost, "/api/v1/auth/otp/request", reqPayload, "")
		if status != http.StatusOK {
			errEnv := decodeError(t, body)
			t.Fatalf("otp request: status=%d message=%q", status, errEnv.Message)
		}

		verifyPayload := map[string]string{
			"identifier": user.Email,
			"code":       "000000",
			"purpose":    "signup",
		}
		status, _ = doJSON(t, http.MethodPost, "/api/v1/auth/otp/verify", verifyPayload, "")
		if status != http.StatusUnauthorized {
			t.Fatalf("status=%d", status)
		}
	})

	t.Run("verify without a pending code", func(t *testing.T) {
		user := registerUser(t)

		payload := map[string]string{
			"identifier": user.Email,
			"code":       "123456",
			"purpose":    "login",
		}
		status, _ := doJSON(t, http.MethodPost, "/api/v1/auth/otp/verify", payload, "")
		if status != http.StatusUnauthorized {
			t.Fatalf("status=%d", status)
		}
	})
}

func TestRefreshReal(t *testing.T) {
	requireServer(t)

	t.Run("bogus refresh token is unauthorized", func(t *testing.T) {
		payload := map[string]string{
			"refresh_token": "0000000000000000000000000000000000000000000000000000000000000000",
		}

		status, _ := doJSON(t, http.MethodPost, "/api/v1/auth/refresh", payload, "")
		if status != http.StatusUnauthorized {
			t.Fatalf("status=%d", status)
		}
	})
}

func TestProfileReal(t *testing.T) {
	requireServer(t)

	t.Run("profile requires authentication", func(t *testing.T) {
		status, _ := doJSON(t, http.MethodGet, "/api/v1/auth/profile", nil, "")
		if status != http.StatusUnauthorized {
			t.Fatalf("status=%d", status)
		}
	})
}
