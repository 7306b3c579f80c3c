package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/verifeed/accounts/internal/pkg/config"
	"github.com/verifeed/accounts/internal/pkg/goroutine"
	"github.com/verifeed/accounts/internal/pkg/instrument"
	"github.com/verifeed/accounts/internal/pkg/messaging"
	"github.com/verifeed/accounts/internal/pkg/uid"
	"github.com/verifeed/accounts/internal/shared/event"
)

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Messaging,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHanlder := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.notification.consumer_names")

	var consumers = []struct {
		name              string
		topic             string // destination where publisher sent message
		nsqConsumerName   string // for nsq
		natsConsumerName  string // for nats
		kafkaConsumerName string // for kafka
		handler           messaging.Handler
	}{
		{
			name:              event.OtpVerifiedDestinationConsumerNotification,
			topic:             event.OtpVerifiedDestination,
			nsqConsumerName:   event.OtpVerifiedDestinationConsumerNotification,
			natsConsumerName:  event.OtpVerifiedDestinationConsumerNotification,
			kafkaConsumerName: event.OtpVerifiedDestinationConsumerNotification,
			handler:           mqHanlder.OtpVerifiedNotification,
		},
	}

	for _, consumer := range consumers {
		if len(enableConsumerNames) > 0 && slices.Contains(enableConsumerNames, consumer.name) {
			routine.Go(ctx, func(pCtx context.Context) error {
				slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
				return messenger.Consume(pCtx,
					consumer.topic,
					consumer.handler,
					messaging.WithChannel(consumer.nsqConsumerName),
					messaging.WithQueueGroup(consumer.natsConsumerName),
					messaging.WithGroup(consumer.kafkaConsumerName),
					messaging.WithAutoAck(true),
					messaging.WithConcurrency(10),
					messaging.WithMaxInFlight(10),
				)
			})
		}
	}
}
