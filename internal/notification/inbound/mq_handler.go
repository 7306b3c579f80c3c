package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/verifeed/accounts/internal/notification/usecase"
	"github.com/verifeed/accounts/internal/pkg/instrument"
	"github.com/verifeed/accounts/internal/pkg/messaging"
	"github.com/verifeed/accounts/internal/pkg/uid"
	"github.com/verifeed/accounts/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	for i := range headers {
		if headers[i].Key == keyOfCorrelationID {
			return instrument.SetCorrelationID(ctx, string(headers[i].Value))
		}
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) OtpVerifiedNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "OtpVerifiedNotification")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: otp verified notification", "msg_body", string(body))

	var payload event.OtpVerifiedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of otp verified notification", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.ConsumeOtpVerified(ctx, usecase.ConsumeOtpVerifiedInput{
		UserID:   payload.UserID,
		Email:    payload.Email,
		FullName: payload.FullName,
		Purpose:  payload.Purpose,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume otp verified", "msg_body", string(body), "error", err)
		return err
	}

	return nil
}
