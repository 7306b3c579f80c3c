package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/verifeed/accounts/internal/auth/entity"
	"github.com/verifeed/accounts/internal/pkg/goerror"
)

func seedChallenge(env *testEnv, id, userID int64, purpose entity.OtpPurpose, code string) *entity.OtpChallenge {
	ch := &entity.OtpChallenge{
		ID:        id,
		UserID:    userID,
		Purpose:   purpose,
		CodeHash:  "h:" + code,
		CreatedAt: testNow.Add(-time.Minute),
		ExpiresAt: testNow.Add(4 * time.Minute),
	}
	env.repo.challenges[id] = ch
	return ch
}

func TestOtpVerify(t *testing.T) {
	t.Run("correct code issues a session", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, true))
		seedChallenge(env, 100, 1, entity.OtpPurposeLogin, "123456")

		out, err := env.uc.OtpVerify(context.Background(), OtpVerifyInput{
			Identifier: "jane.doe@example.com",
			Code:       "123456",
			Purpose:    entity.OtpPurposeLogin,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if out.AccessToken != "jwt-1" {
			t.Errorf("access token = %q", out.AccessToken)
		}
		if out.RefreshToken != testToken(1) {
			t.Errorf("refresh token = %q", out.RefreshToken)
		}
		if out.User.Email != "jane.doe@example.com" || out.User.Username != "janedoe" {
			t.Errorf("user summary = %+v", out.User)
		}

		if !env.repo.challenges[100].IsUsed {
			t.Error("challenge was not consumed")
		}

		// The event is published off the request path; drain the manager
		// before asserting.
		if err := env.gm.Wait(); err != nil {
			t.Fatalf("background tasks: %v", err)
		}
		if len(env.msg.published) != 1 || env.msg.published[0].Purpose != entity.OtpPurposeLogin {
			t.Errorf("published events = %+v", env.msg.published)
		}

		// Stored refresh token must be the hash, not the plaintext.
		for _, row := range env.repo.tokens {
			if row.Token != "h:"+testToken(1) {
				t.Errorf("stored refresh token = %q", row.Token)
			}
		}
	})

	t.Run("wrong code counts down remaining attempts", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, true))
		seedChallenge(env, 100, 1, entity.OtpPurposeLogin, "123456")

		in := OtpVerifyInput{
			Identifier: "jane.doe@example.com",
			Code:       "654321",
			Purpose:    entity.OtpPurposeLogin,
		}

		for want := 4; want >= 1; want-- {
			_, err := env.uc.OtpVerify(context.Background(), in)
			gerr := assertBusinessCode(t, err, goerror.CodeUnauthorized)
			expected := fmt.Sprintf("invalid code, %d attempts remaining", want)
			if gerr.Msg() != expected {
				t.Fatalf("message = %q, want %q", gerr.Msg(), expected)
			}
		}

		// Fifth failure exhausts the challenge.
		_, err := env.uc.OtpVerify(context.Background(), in)
		assertBusinessCode(t, err, goerror.CodeTooManyRequest)
	})

	t.Run("correct code on an exhausted challenge is rejected", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, true))
		ch := seedChallenge(env, 100, 1, entity.OtpPurposeLogin, "123456")
		ch.FailedAttempts = 5

		_, err := env.uc.OtpVerify(context.Background(), OtpVerifyInput{
			Identifier: "jane.doe@example.com",
			Code:       "123456",
			Purpose:    entity.OtpPurposeLogin,
		})
		assertBusinessCode(t, err, goerror.CodeTooManyRequest)

		if ch.IsUsed {
			t.Error("exhausted challenge must not be consumed")
		}
	})

	t.Run("expired challenge behaves like no challenge", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, true))
		ch := seedChallenge(env, 100, 1, entity.OtpPurposeLogin, "123456")
		ch.ExpiresAt = testNow.Add(-time.Second)

		_, err := env.uc.OtpVerify(context.Background(), OtpVerifyInput{
			Identifier: "jane.doe@example.com",
			Code:       "123456",
			Purpose:    entity.OtpPurposeLogin,
		})
		assertBusinessCode(t, err, goerror.CodeUnauthorized)
	})

	t.Run("verify after success is rejected", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, true))
		seedChallenge(env, 100, 1, entity.OtpPurposeLogin, "123456")

		in := OtpVerifyInput{
			Identifier: "jane.doe@example.com",
			Code:       "123456",
			Purpose:    entity.OtpPurposeLogin,
		}

		if _, err := env.uc.OtpVerify(context.Background(), in); err != nil {
			t.Fatalf("first verify: %v", err)
		}

		_, err := env.uc.OtpVerify(context.Background(), in)
		assertBusinessCode(t, err, goerror.CodeUnauthorized)
	})

	t.Run("purpose mismatch finds no challenge", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, true))
		seedChallenge(env, 100, 1, entity.OtpPurposeReset, "123456")

		_, err := env.uc.OtpVerify(context.Background(), OtpVerifyInput{
			Identifier: "jane.doe@example.com",
			Code:       "123456",
			Purpose:    entity.OtpPurposeLogin,
		})
		assertBusinessCode(t, err, goerror.CodeUnauthorized)
	})

	t.Run("unknown identifier does not reveal account existence", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, true))

		_, errUnknown := env.uc.OtpVerify(context.Background(), OtpVerifyInput{
			Identifier: "ghost@example.com",
			Code:       "123456",
			Purpose:    entity.OtpPurposeLogin,
		})
		_, errNoChallenge := env.uc.OtpVerify(context.Background(), OtpVerifyInput{
			Identifier: "jane.doe@example.com",
			Code:       "123456",
			Purpose:    entity.OtpPurposeLogin,
		})

		g1 := assertBusinessCode(t, errUnknown, goerror.CodeUnauthorized)
		g2 := assertBusinessCode(t, errNoChallenge, goerror.CodeUnauthorized)
		if g1.Msg() != g2.Msg() {
			t.Errorf("messages differ: %q vs %q", g1.Msg(), g2.Msg())
		}
	})

	t.Run("signup verification activates the account", func(t *testing.T) {
		user := activeUser(1, false)
		user.Status = entity.UserStatusUnverified
		env := newTestEnv(t, user)
		seedChallenge(env, 100, 1, entity.OtpPurposeSignup, "123456")

		out, err := env.uc.OtpVerify(context.Background(), OtpVerifyInput{
			Identifier: "jane.doe@example.com",
			Code:       "123456",
			Purpose:    entity.OtpPurposeSignup,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.AccessToken == "" {
			t.Error("missing access token")
		}
		if env.repo.users[1].Status != entity.UserStatusActive {
			t.Errorf("user status = %v, want active", env.repo.users[1].Status)
		}
	})

	t.Run("malformed code fails validation", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, true))

		_, err := env.uc.OtpVerify(context.Background(), OtpVerifyInput{
			Identifier: "jane.doe@example.com",
			Code:       "12ab56",
			Purpose:    entity.OtpPurposeLogin,
		})
		assertBusinessCode(t, err, goerror.CodeInvalidInput)
	})
}
