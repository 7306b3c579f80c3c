package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/verifeed/accounts/internal/auth/entity"
	"github.com/verifeed/accounts/internal/auth/usecase"
	"github.com/verifeed/accounts/internal/pkg/instrument"
	"github.com/verifeed/accounts/internal/pkg/mail"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Mail struct {
	client mail.Mail
	ins    instrument.Instrumentation
}

func New(client mail.Mail, ins instrument.Instrumentation) *Mail {
	return &Mail{client: client, ins: ins}
}

// SendOtpCode delivers the verification code over email. SMTP hiccups are
// retried with a short fibonacci backoff since the code is only valid for a
// few minutes anyway.
func (m *Mail) SendOtpCode(ctx context.Context, in usecase.SendOtpCodeInput) (err error) {
	ctx, span := m.startSpan(ctx, "SendOtpCode")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	msg := mail.Message{
		To:       []string{in.Email},
		Subject:  subjectFor(in.Purpose),
		TextBody: textBody(in),
		HTMLBody: htmlBody(in),
	}

	b := retry.NewFibonacci(500 * time.Millisecond)
	b = retry.WithMaxRetries(3, b)
	b = retry.WithCappedDuration(3*time.Second, b)

	err = retry.Do(ctx, b, func(ctx context.Context) error {
		if sErr := m.client.Send(ctx, msg); sErr != nil {
			return retry.RetryableError(sErr)
		}
		return nil
	})

	return err
}

func subjectFor(purpose entity.OtpPurpose) string {
	switch purpose {
	case entity.OtpPurposeSignup:
		return "Verify your VeriFeed account"
	case entity.OtpPurposeReset:
		return "Reset your VeriFeed password"
	default:
		return "Your VeriFeed sign-in code"
	}
}

func textBody(in usecase.SendOtpCodeInput) string {
	minutes := in.ExpiresIn / 60

	return fmt.Sprintf(
		"Hi %s,\n\nYour verification code is %s. It expires in %d minutes.\n\n"+
			"If you did not request this code, you can safely ignore this email.\n",
		in.FullName, in.Code, minutes,
	)
}

func htmlBody(in usecase.SendOtpCodeInput) string {
	minutes := in.ExpiresIn / 60

	return fmt.Sprintf(
		`<p>Hi %s,</p>
<p>Your verification code is:</p>
<p style="font-size:24px;font-weight:bold;letter-spacing:4px">%s</p>
<p>It expires in %d minutes.</p>
<p>If you did not request this code, you can safely ignore this email.</p>`,
		in.FullName, in.Code, minutes,
	)
}

func (m *Mail) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return m.ins.Tracer("auth.outbound.mail").Start(ctx, name)
}
