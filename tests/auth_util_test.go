package tests

import (
	"fmt"
	"net/http"
	"testing"
	"time"
)

type registeredUser struct {
	Username string
	Email    string
	Password string
	FullName string
}

func uniqueSuffix() int64 {
	return time.Now().UnixNano()
}

// registerUser creates a fresh unverified account through the public API.
func registerUser(t *testing.T) registeredUser {
	t.Helper()

	n := uniqueSuffix()
	user := registeredUser{
		Username: fmt.Sprintf("realuser%d", n),
		Email:    fmt.Sprintf("real-user-%d@example.com", n),
		Password: "Secret123!",
		FullName: "Test User",
	}

	payload := map[string]string{
		"username":  user.Username,
		"email":     user.Email,
		"password":  user.Password,
		"full_name": user.FullName,
	}

	status, body := doJSON(t, http.MethodPost, "/api/v1/auth/register", payload, "")
	if status != http.StatusOK && status != http.StatusNoContent {
		errEnv := decodeError(t, body)
		t.Fatalf("register failed: status=%d message=%q", status, errEnv.Message)
	}

	return user
}

type sessionData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID           string `json:"id"`
		Username     string `json:"username"`
		Email        string `json:"email"`
		FullName     string `json:"full_name"`
		TwoFAEnabled bool   `json:"two_fa_enabled"`
	} `json:"user"`
}

func login(t *testing.T, identifier, password string) (int, []byte) {
	t.Helper()

	payload := map[string]string{
		"identifier": identifier,
		"password":   password,
	}

	return doJSON(t, http.MethodPost, "/api/v1/auth/login", payload, "")
}
