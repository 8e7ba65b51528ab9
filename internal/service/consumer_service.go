package service

import (
	"context"

	"einvoice-assistant-be/internal/pkg/logger"
	"einvoice-assistant-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// EventForwarder ships events off-process (JetStream in production).
type EventForwarder interface {
	Publish(ctx context.Context, event events.Event) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	analytics  logger.ILogger
	forwarder  EventForwarder
	logger     logger.ILogger
}

// NewConsumerService drains turn events from the in-process bus into the
// analytics log. forwarder may be nil.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	analytics logger.ILogger,
	forwarder EventForwarder,
	l logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		analytics:  analytics,
		forwarder:  forwarder,
		logger:     l,
	}
}

// Consume subscribes and processes messages in the background until ctx is
// done.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	event, err := events.Unmarshal(msg.Payload)
	if err != nil {
		cs.logger.Error("CONSUMER", "Failed to decode turn event", map[string]interface{}{"message_id": msg.UUID, "error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	details := make(map[string]interface{}, len(event.Payload())+1)
	for k, v := range event.Payload() {
		details[k] = v
	}
	details["occurred_at"] = event.Timestamp()
	cs.analytics.Info("TURN", event.EventType(), details)

	// Forwarding is best effort; the analytics log already holds the event.
	if cs.forwarder != nil {
		if err := cs.forwarder.Publish(ctx, event); err != nil {
			cs.logger.Warn("CONSUMER", "Failed to forward turn event", map[string]interface{}{"type": event.EventType(), "error": err.Error()})
		}
	}
	msg.Ack()
}
