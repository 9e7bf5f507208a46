package event

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// Publisher publishes item-change events to a Pub/Sub topic.
type Publisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	topicName string
	logger    zerolog.Logger
}

// PublisherConfig holds configuration for the publisher.
type PublisherConfig struct {
	ProjectID string
	TopicName string
	Logger    zerolog.Logger
}

// NewPublisher creates a new item-change publisher.
func NewPublisher(ctx context.Context, cfg PublisherConfig) (*Publisher, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	return &Publisher{
		client:    client,
		publisher: client.Publisher(cfg.TopicName),
		topicName: cfg.TopicName,
		logger:    cfg.Logger,
	}, nil
}

// PublishItemChange publishes an item-change event and waits for the
// server acknowledgement.
func (p *Publisher) PublishItemChange(ctx context.Context, change *ItemChange) error {
	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("encoding item change: %w", err)
	}

	result := p.publisher.Publish(ctx, &pubsub.Message{Data: data})
	id, err := result.Get(ctx)
	if err != nil {
		return fmt.Errorf("publishing item change: %w", err)
	}

	p.logger.Debug().
		Str("message_id", id).
		Str("item_id", change.ItemID).
		Bool("purchased", change.Purchased).
		Msg("published item change")

	return nil
}

// Close stops the publisher and releases the underlying client.
func (p *Publisher) Close() error {
	p.publisher.Stop()
	return p.client.Close()
}
