package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/verifeed/accounts/internal/auth/entity"
	"github.com/verifeed/accounts/internal/pkg/goerror"
)

func TestLogin(t *testing.T) {
	t.Run("issues tokens when two-factor is disabled", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, false))

		out, err := env.uc.Login(context.Background(), LoginInput{
			Identifier: "jane.doe@example.com",
			Password:   "Secret123!",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.AccessToken != "jwt-1" || out.RefreshToken != testToken(1) {
			t.Errorf("tokens = %q / %q", out.AccessToken, out.RefreshToken)
		}
	})

	t.Run("requires otp flow when two-factor is enabled", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, true))

		_, err := env.uc.Login(context.Background(), LoginInput{
			Identifier: "jane.doe@example.com",
			Password:   "Secret123!",
		})
		assertBusinessCode(t, err, goerror.CodeForbidden)
	})

	t.Run("rejects unverified accounts", func(t *testing.T) {
		user := activeUser(1, false)
		user.Status = entity.UserStatusUnverified
		env := newTestEnv(t, user)

		_, err := env.uc.Login(context.Background(), LoginInput{
			Identifier: "jane.doe@example.com",
			Password:   "Secret123!",
		})
		assertBusinessCode(t, err, goerror.CodeForbidden)
	})

	t.Run("rejects banned accounts", func(t *testing.T) {
		user := activeUser(1, false)
		user.Status = entity.UserStatusBanned
		env := newTestEnv(t, user)

		_, err := env.uc.Login(context.Background(), LoginInput{
			Identifier: "jane.doe@example.com",
			Password:   "Secret123!",
		})
		assertBusinessCode(t, err, goerror.CodeForbidden)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, false))

		_, err := env.uc.Login(context.Background(), LoginInput{
			Identifier: "jane.doe@example.com",
			Password:   "Wrong123!",
		})
		assertBusinessCode(t, err, goerror.CodeUnauthorized)
	})
}

func TestRegister(t *testing.T) {
	t.Run("creates an unverified account", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.uc.Register(context.Background(), RegisterInput{
			Username: "johndoe",
			Email:    "john.doe@example.com",
			Password: "Secret123!",
			FullName: "John Doe",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		u, err := env.repo.GetUserLoginInfoByEmail(context.Background(), "john.doe@example.com")
		if err != nil {
			t.Fatalf("user not stored: %v", err)
		}
		if u.Status != entity.UserStatusUnverified {
			t.Errorf("status = %v, want unverified", u.Status)
		}
		if u.Password != "h:Secret123!" {
			t.Errorf("stored password = %q, want the hash", u.Password)
		}
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, false))

		err := env.uc.Register(context.Background(), RegisterInput{
			Username: "otherone",
			Email:    "jane.doe@example.com",
			Password: "Secret123!",
			FullName: "Other One",
		})
		assertBusinessCode(t, err, goerror.CodeConflict)
	})

	t.Run("rejects invalid usernames", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.uc.Register(context.Background(), RegisterInput{
			Username: "no spaces!",
			Email:    "john.doe@example.com",
			Password: "Secret123!",
			FullName: "John Doe",
		})
		assertBusinessCode(t, err, goerror.CodeInvalidInput)
	})
}

func TestRefreshToken(t *testing.T) {
	issueSession := func(t *testing.T, env *testEnv) *LoginOutput {
		t.Helper()
		out, err := env.uc.Login(context.Background(), LoginInput{
			Identifier: "jane.doe@example.com",
			Password:   "Secret123!",
		})
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		return out
	}

	t.Run("rotates the refresh token", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, false))
		session := issueSession(t, env)

		out, err := env.uc.RefreshToken(context.Background(), RefreshTokenInput{
			RefreshToken: session.RefreshToken,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.RefreshToken == session.RefreshToken {
			t.Error("refresh token was not rotated")
		}

		// The old token is now revoked.
		_, err = env.uc.RefreshToken(context.Background(), RefreshTokenInput{
			RefreshToken: session.RefreshToken,
		})
		if err == nil {
			t.Fatal("expected replayed token to fail")
		}
	})

	t.Run("reuse of a rotated token revokes every session", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, false))
		session := issueSession(t, env)

		rotated, err := env.uc.RefreshToken(context.Background(), RefreshTokenInput{
			RefreshToken: session.RefreshToken,
		})
		if err != nil {
			t.Fatalf("rotate: %v", err)
		}

		_, err = env.uc.RefreshToken(context.Background(), RefreshTokenInput{
			RefreshToken: session.RefreshToken,
		})
		assertBusinessCode(t, err, goerror.CodeForbidden)

		// The freshly rotated token is caught in the family revocation.
		_, err = env.uc.RefreshToken(context.Background(), RefreshTokenInput{
			RefreshToken: rotated.RefreshToken,
		})
		assertBusinessCode(t, err, goerror.CodeUnauthorized)
	})

	t.Run("unknown token is unauthorized", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, false))

		_, err := env.uc.RefreshToken(context.Background(), RefreshTokenInput{
			RefreshToken: "nonexistent-token",
		})
		assertBusinessCode(t, err, goerror.CodeUnauthorized)
	})

	t.Run("expired token is unauthorized", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, false))
		session := issueSession(t, env)

		for _, row := range env.repo.tokens {
			row.ExpiresAt = testNow.Add(-time.Hour)
		}

		_, err := env.uc.RefreshToken(context.Background(), RefreshTokenInput{
			RefreshToken: session.RefreshToken,
		})
		assertBusinessCode(t, err, goerror.CodeUnauthorized)
	})
}
