// Package worker consumes item-change events and fans out push
// notifications to group members.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/cartshare/cartshare/internal/event"
)

// Notifier fans a message out to every device of a group's members.
type Notifier interface {
	NotifyGroup(ctx context.Context, groupID, title, body string) error
}

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	notifier         Notifier
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Notifier         Notifier
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Configure receive settings.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		notifier:         cfg.Notifier,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	var change event.ItemChange
	if err := json.Unmarshal(msg.Data, &change); err != nil {
		// A malformed payload will never parse on redelivery, so ack it
		// out of the subscription instead of looping.
		logger.Error().Err(err).Msg("failed to parse message, dropping")
		msg.Ack()
		return
	}

	if err := h.HandleItemChange(ctx, &change); err != nil {
		logger.Error().Err(err).Msg("item change handling failed")
		msg.Nack()
		return
	}

	logger.Info().
		Str("group_id", change.GroupID).
		Str("item_id", change.ItemID).
		Dur("duration", time.Since(startTime)).
		Msg("item change processed")

	msg.Ack()
}

// HandleItemChange reacts to a single item-change event. Only transitions
// to purchased notify the group; unpurchase events are consumed silently.
func (h *PubSubHandler) HandleItemChange(ctx context.Context, change *event.ItemChange) error {
	if !change.Purchased {
		h.logger.Debug().
			Str("item_id", change.ItemID).
			Msg("item unpurchased, no notification")
		return nil
	}

	title := "Purchase complete"
	body := fmt.Sprintf("%s was purchased.", change.ItemName)
	return h.notifier.NotifyGroup(ctx, change.GroupID, title, body)
}
