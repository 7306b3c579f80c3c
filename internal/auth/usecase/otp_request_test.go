package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/verifeed/accounts/internal/auth/entity"
	"github.com/verifeed/accounts/internal/pkg/goerror"
	"github.com/verifeed/accounts/internal/pkg/idempotency"
)

func TestOtpRequest(t *testing.T) {
	t.Run("delivers code and masks email", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, true))

		out, err := env.uc.OtpRequest(context.Background(), OtpRequestInput{
			Identifier: "jane.doe@example.com",
			Password:   "Secret123!",
			Purpose:    entity.OtpPurposeLogin,
			IPAddress:  "203.0.113.9",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if out.MaskedEmail != "jan***@example.com" {
			t.Errorf("masked email = %q", out.MaskedEmail)
		}
		if out.ExpiresIn != 300 {
			t.Errorf("expires_in = %d, want 300", out.ExpiresIn)
		}
		if len(env.mail.sent) != 1 {
			t.Fatalf("sent %d emails, want 1", len(env.mail.sent))
		}
		if env.mail.sent[0].Code != "123456" {
			t.Errorf("emailed code = %q", env.mail.sent[0].Code)
		}

		var stored *entity.OtpChallenge
		for _, ch := range env.repo.challenges {
			stored = ch
		}
		if stored == nil {
			t.Fatal("no challenge persisted")
		}
		if stored.CodeHash != "h:123456" {
			t.Errorf("stored hash = %q, plaintext must not be persisted", stored.CodeHash)
		}
		if stored.IPAddress != "203.0.113.9" {
			t.Errorf("stored ip = %q", stored.IPAddress)
		}
		if got := stored.ExpiresAt.Sub(stored.CreatedAt).Minutes(); got != 5 {
			t.Errorf("challenge ttl = %v minutes", got)
		}
	})

	t.Run("resolves username identifiers", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, true))

		_, err := env.uc.OtpRequest(context.Background(), OtpRequestInput{
			Identifier: "janedoe",
			Password:   "Secret123!",
			Purpose:    entity.OtpPurposeLogin,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("unknown user and wrong password are indistinguishable", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, true))

		_, errUnknown := env.uc.OtpRequest(context.Background(), OtpRequestInput{
			Identifier: "ghost@example.com",
			Password:   "Secret123!",
			Purpose:    entity.OtpPurposeLogin,
		})
		_, errWrongPass := env.uc.OtpRequest(context.Background(), OtpRequestInput{
			Identifier: "jane.doe@example.com",
			Password:   "Wrong123!",
			Purpose:    entity.OtpPurposeLogin,
		})

		g1 := assertBusinessCode(t, errUnknown, goerror.CodeUnauthorized)
		g2 := assertBusinessCode(t, errWrongPass, goerror.CodeUnauthorized)
		if g1.Msg() != g2.Msg() {
			t.Errorf("messages differ: %q vs %q", g1.Msg(), g2.Msg())
		}
	})

	t.Run("rejects login purpose when two-factor disabled", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, false))

		_, err := env.uc.OtpRequest(context.Background(), OtpRequestInput{
			Identifier: "jane.doe@example.com",
			Password:   "Secret123!",
			Purpose:    entity.OtpPurposeLogin,
		})
		assertBusinessCode(t, err, goerror.CodeForbidden)
	})

	t.Run("rejects unknown purpose", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, true))

		_, err := env.uc.OtpRequest(context.Background(), OtpRequestInput{
			Identifier: "jane.doe@example.com",
			Password:   "Secret123!",
			Purpose:    entity.OtpPurposeFromString("carrier-pigeon"),
		})
		assertBusinessCode(t, err, goerror.CodeInvalidInput)
	})

	t.Run("second request during cooldown is throttled", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, true))

		in := OtpRequestInput{
			Identifier: "jane.doe@example.com",
			Password:   "Secret123!",
			Purpose:    entity.OtpPurposeLogin,
		}

		if _, err := env.uc.OtpRequest(context.Background(), in); err != nil {
			t.Fatalf("first request: %v", err)
		}

		_, err := env.uc.OtpRequest(context.Background(), in)
		assertBusinessCode(t, err, goerror.CodeTooManyRequest)

		if len(env.mail.sent) != 1 {
			t.Errorf("sent %d emails, want 1", len(env.mail.sent))
		}
	})

	t.Run("new code supersedes the previous challenge", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, true))

		in := OtpRequestInput{
			Identifier: "jane.doe@example.com",
			Password:   "Secret123!",
			Purpose:    entity.OtpPurposeLogin,
		}

		if _, err := env.uc.OtpRequest(context.Background(), in); err != nil {
			t.Fatalf("first request: %v", err)
		}

		// Cooldown expired.
		env.idemp.held = map[string]idempotency.State{}

		if _, err := env.uc.OtpRequest(context.Background(), in); err != nil {
			t.Fatalf("second request: %v", err)
		}

		active := 0
		for _, ch := range env.repo.challenges {
			if !ch.IsUsed {
				active++
			}
		}
		if active != 1 {
			t.Errorf("active challenges = %d, want exactly 1", active)
		}
	})

	t.Run("concurrent requests issue exactly one challenge", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, true))

		in := OtpRequestInput{
			Identifier: "jane.doe@example.com",
			Password:   "Secret123!",
			Purpose:    entity.OtpPurposeLogin,
		}

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := range errs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = env.uc.OtpRequest(context.Background(), in)
			}()
		}
		wg.Wait()

		var issued, throttled int
		for _, err := range errs {
			if err == nil {
				issued++
				continue
			}

			var gerr *goerror.Error
			if errors.As(err, &gerr) && gerr.Code() == goerror.CodeTooManyRequest {
				throttled++
			}
		}
		if issued != 1 || throttled != 1 {
			t.Fatalf("issued = %d, throttled = %d, want exactly one of each (errs %v)", issued, throttled, errs)
		}

		active := 0
		for _, ch := range env.repo.challenges {
			if !ch.IsUsed {
				active++
			}
		}
		if active != 1 {
			t.Errorf("active challenges = %d, want exactly 1", active)
		}
		if len(env.mail.sent) != 1 {
			t.Errorf("sent %d emails, want 1", len(env.mail.sent))
		}
	})

	t.Run("delivery failure surfaces and releases the cooldown", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, true))
		env.mail.err = errors.New("smtp down")

		_, err := env.uc.OtpRequest(context.Background(), OtpRequestInput{
			Identifier: "jane.doe@example.com",
			Password:   "Secret123!",
			Purpose:    entity.OtpPurposeLogin,
		})
		assertBusinessCode(t, err, goerror.CodeInternal)

		if len(env.idemp.releases) != 1 {
			t.Errorf("lock releases = %d, want 1", len(env.idemp.releases))
		}
	})
}

func TestOtpResend(t *testing.T) {
	t.Run("issues a fresh code without a password", func(t *testing.T) {
		env := newTestEnv(t, activeUser(1, true))

		out, err := env.uc.OtpResend(context.Background(), OtpResendInput{
			Identifier: "jane.doe@example.com",
			Purpose:    entity.OtpPurposeLogin,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.MaskedEmail != "jan***@example.com" {
			t.Errorf("masked email = %q", out.MaskedEmail)
		}
		if len(env.mail.sent) != 1 {
			t.Errorf("sent %d emails, want 1", len(env.mail.sent))
		}
	})

	t.Run("unknown account is reported", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.uc.OtpResend(context.Background(), OtpResendInput{
			Identifier: "ghost@example.com",
			Purpose:    entity.OtpPurposeLogin,
		})
		assertBusinessCode(t, err, goerror.CodeNotFound)
	})
}
