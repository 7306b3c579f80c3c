package usecase

import (
	"context"
	"testing"

	"github.com/verifeed/accounts/internal/pkg/goerror"
	"github.com/verifeed/accounts/internal/pkg/jwt"
)

func authedContext(userID int64, email string) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{UserID: userID, UserEmail: email})
}

func TestTwoFAToggle(t *testing.T) {
	t.Run("enables two-factor for the caller", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, false))
		ctx := authedContext(1, "jane.doe@example.com")

		out, err := env.uc.TwoFAToggle(ctx, TwoFAToggleInput{Enable: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !out.TwoFAEnabled {
			t.Error("expected two-factor enabled in response")
		}
		if !env.repo.users[1].TwoFAEnabled {
			t.Error("two-factor flag not persisted")
		}
	})

	t.Run("disables two-factor for the caller", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, true))
		ctx := authedContext(1, "jane.doe@example.com")

		out, err := env.uc.TwoFAToggle(ctx, TwoFAToggleInput{Enable: false})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.TwoFAEnabled {
			t.Error("expected two-factor disabled in response")
		}
		if env.repo.users[1].TwoFAEnabled {
			t.Error("two-factor flag still set")
		}
	})

	t.Run("requires authentication", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, false))

		_, err := env.uc.TwoFAToggle(context.Background(), TwoFAToggleInput{Enable: true})
		assertBusinessCode(t, err, goerror.CodeUnauthorized)
	})
}

func TestPasswordReset(t *testing.T) {
	t.Run("updates the credential and revokes sessions", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, false))
		ctx := authedContext(1, "jane.doe@example.com")

		session, err := env.uc.Login(context.Background(), LoginInput{
			Identifier: "jane.doe@example.com",
			Password:   "Secret123!",
		})
		if err != nil {
			t.Fatalf("login: %v", err)
		}

		if err := env.uc.PasswordReset(ctx, PasswordResetInput{NewPassword: "Fresher456!"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if env.repo.users[1].Password != "h:Fresher456!" {
			t.Errorf("stored password = %q", env.repo.users[1].Password)
		}

		_, err = env.uc.RefreshToken(context.Background(), RefreshTokenInput{
			RefreshToken: session.RefreshToken,
		})
		assertBusinessCode(t, err, goerror.CodeUnauthorized)
	})

	t.Run("rejects weak passwords", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, false))
		ctx := authedContext(1, "jane.doe@example.com")

		err := env.uc.PasswordReset(ctx, PasswordResetInput{NewPassword: "short"})
		assertBusinessCode(t, err, goerror.CodeInvalidInput)
	})

	t.Run("requires authentication", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, false))

		err := env.uc.PasswordReset(context.Background(), PasswordResetInput{NewPassword: "Fresher456!"})
		assertBusinessCode(t, err, goerror.CodeUnauthorized)
	})
}

func TestLogout(t *testing.T) {
	t.Run("revokes the presented refresh token", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, false))
		ctx := authedContext(1, "jane.doe@example.com")

		session, err := env.uc.Login(context.Background(), LoginInput{
			Identifier: "jane.doe@example.com",
			Password:   "Secret123!",
		})
		if err != nil {
			t.Fatalf("login: %v", err)
		}

		if err := env.uc.Logout(ctx, LogoutInput{RefreshToken: session.RefreshToken}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err = env.uc.RefreshToken(context.Background(), RefreshTokenInput{
			RefreshToken: session.RefreshToken,
		})
		assertBusinessCode(t, err, goerror.CodeUnauthorized)
	})

	t.Run("requires authentication", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, false))

		err := env.uc.Logout(context.Background(), LogoutInput{RefreshToken: "whatever"})
		assertBusinessCode(t, err, goerror.CodeUnauthorized)
	})
}
