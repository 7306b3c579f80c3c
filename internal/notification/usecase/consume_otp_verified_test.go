package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/verifeed/accounts/internal/pkg/config"
	"github.com/verifeed/accounts/internal/pkg/instrument"
	"github.com/verifeed/accounts/internal/pkg/mail"
	"github.com/verifeed/accounts/internal/pkg/validator"
)

const testConfigYAML = `
modules:
  notification:
    support_email: "support@verifeed.com"
`

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

type fakeMail struct {
	sent []mail.Message
	err  error
}

func (m *fakeMail) Send(_ context.Context, msg mail.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func newTestUsecase(t *testing.T, mailer *fakeMail) *Usecase {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfigYAML))
	if err != nil {
		t.Fatalf("build config: %v", err)
	}

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("build validator: %v", err)
	}

	return NewNotification(Dependency{
		Config:     cfg,
		Clock:      &fakeClock{now: time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)},
		Validator:  v10,
		RepoMail:   mailer,
		Instrument: instrument.NewNoop(),
	})
}

func TestConsumeOtpVerified(t *testing.T) {
	validInput := func() ConsumeOtpVerifiedInput {
		return ConsumeOtpVerifiedInput{
			UserID:   1,
			Email:    "jane.doe@example.com",
			FullName: "Jane Doe",
			Purpose:  "login",
		}
	}

	t.Run("sends a confirmation email", func(t *testing.T) {
		mailer := &fakeMail{}
		uc := newTestUsecase(t, mailer)

		if err := uc.ConsumeOtpVerified(context.Background(), validInput()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(mailer.sent) != 1 {
			t.Fatalf("sent %d emails, want 1", len(mailer.sent))
		}
		msg := mailer.sent[0]
		if msg.To[0] != "jane.doe@example.com" {
			t.Errorf("to = %v", msg.To)
		}
		if msg.Subject != "New sign-in to your account" {
			t.Errorf("subject = %q", msg.Subject)
		}
		if !strings.Contains(msg.HTMLBody, "Jane Doe") {
			t.Errorf("body does not address the user: %q", msg.HTMLBody)
		}
		if !strings.Contains(msg.HTMLBody, "support@verifeed.com") {
			t.Errorf("body is missing the support contact: %q", msg.HTMLBody)
		}
	})

	t.Run("subject follows the purpose", func(t *testing.T) {
		cases := []struct {
			purpose string
			subject string
		}{
			{"signup", "Welcome to VeriFeed"},
			{"reset", "Password reset verified"},
			{"login", "New sign-in to your account"},
		}

		for _, tc := range cases {
			mailer := &fakeMail{}
			uc := newTestUsecase(t, mailer)

			in := validInput()
			in.Purpose = tc.purpose
			if err := uc.ConsumeOtpVerified(context.Background(), in); err != nil {
				t.Fatalf("purpose %q: %v", tc.purpose, err)
			}
			if mailer.sent[0].Subject != tc.subject {
				t.Errorf("purpose %q: subject = %q, want %q", tc.purpose, mailer.sent[0].Subject, tc.subject)
			}
		}
	})

	t.Run("invalid payload is dropped without redelivery", func(t *testing.T) {
		mailer := &fakeMail{}
		uc := newTestUsecase(t, mailer)

		in := validInput()
		in.Email = "not-an-email"
		if err := uc.ConsumeOtpVerified(context.Background(), in); err != nil {
			t.Fatalf("expected nil so the message is acked, got %v", err)
		}
		if len(mailer.sent) != 0 {
			t.Errorf("sent %d emails, want 0", len(mailer.sent))
		}
	})

	t.Run("send failure is returned for redelivery", func(t *testing.T) {
		mailer := &fakeMail{err: errors.New("smtp down")}
		uc := newTestUsecase(t, mailer)

		if err := uc.ConsumeOtpVerified(context.Background(), validInput()); err == nil {
			t.Fatal("expected the transport error to propagate")
		}
	})
}
