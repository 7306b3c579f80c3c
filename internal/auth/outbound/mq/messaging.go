package mq

import (
	"context"
	"encoding/json"

	"github.com/verifeed/accounts/internal/auth/usecase"
	"github.com/verifeed/accounts/internal/pkg/instrument"
	"github.com/verifeed/accounts/internal/pkg/messaging"
	"github.com/verifeed/accounts/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishOtpVerified(ctx context.Context, msg usecase.OtpVerifiedEvent) error {
	ctx, span := m.ins.Tracer("auth.outbound.mq").Start(ctx, "PublishOtpVerified")
	defer span.End()

	body, err := json.Marshal(event.OtpVerifiedMessage{
		UserID:   msg.UserID,
		Email:    msg.Email,
		FullName: msg.FullName,
		Purpose:  msg.Purpose.String(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.OtpVerifiedDestination, messaging.OutgoingMessage{
		Body:    body,
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
