package inbound

import (
	"context"

	"github.com/verifeed/accounts/internal/notification/usecase"
)

type uc interface {
	ConsumeOtpVerified(ctx context.Context, in usecase.ConsumeOtpVerifiedInput) error
}
