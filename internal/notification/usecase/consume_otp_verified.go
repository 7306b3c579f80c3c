package usecase

import (
	"context"
	"log/slog"

	"github.com/verifeed/accounts/internal/pkg/mail"
)

type ConsumeOtpVerifiedInput struct {
	UserID   int64  `validate:"required,gt=0"`
	Email    string `validate:"required,email"`
	FullName string `validate:"required"`
	Purpose  string `validate:"required"`
}

const otpVerifiedEmailTemplate = `<p>Hi {{.full_name}},</p>
<p>{{.lead}}</p>
<p>If this wasn't you, contact {{.support_email}} right away.</p>
<p>{{.company_name}} &copy; {{.year}}</p>`

// ConsumeOtpVerified emails a confirmation after a code was verified. Payload
// problems are logged and dropped so the message is not redelivered forever.
func (s *Usecase) ConsumeOtpVerified(ctx context.Context, in ConsumeOtpVerifiedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeOtpVerified")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	subject, lead := otpVerifiedCopy(in.Purpose)

	data := s.baseEmailTemplateData()
	data["full_name"] = in.FullName
	data["lead"] = lead

	body, err := s.renderTemplate("otp_verified", otpVerifiedEmailTemplate, data)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render email body", "user_id", in.UserID, "error", err)
		return nil
	}

	if err := s.repoMail.Send(ctx, mail.Message{
		To:       []string{in.Email},
		Subject:  subject,
		HTMLBody: body,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to send verification confirmation email", "user_id", in.UserID, "error", err)
		return err
	}

	return nil
}

func otpVerifiedCopy(purpose string) (subject, lead string) {
	switch purpose {
	case "signup":
		return "Welcome to VeriFeed", "Your account is verified and ready to use."
	case "reset":
		return "Password reset verified", "Your identity was confirmed. You can now set a new password."
	default:
		return "New sign-in to your account", "A sign-in to your account was just verified with a one-time code."
	}
}
