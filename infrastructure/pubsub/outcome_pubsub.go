package pubsub

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"cloud.google.com/go/pubsub"

	"social-hub/domain/model"
	"social-hub/infrastructure/logger"
)

// IOutcomePubSub fans publish outcomes out to Google Pub/Sub for downstream
// consumers (analytics, notifications).
type IOutcomePubSub interface {
	PublishOutcome(ctx context.Context, userID string, outcome model.PublishOutcome) (string, error)
	GetSubscription(subID string) (*pubsub.Subscription, error)
}

type OutcomePubSub struct {
	PubSubClient *pubsub.Client
	Topic        string
}

type outcomeEvent struct {
	UserID     string               `json:"user_id"`
	Outcome    model.PublishOutcome `json:"outcome"`
	OccurredAt time.Time            `json:"occurred_at"`
}

func NewOutcomePubSub(pubSubClient *pubsub.Client, topic string) IOutcomePubSub {
	return &OutcomePubSub{
		PubSubClient: pubSubClient,
		Topic:        topic,
	}
}

func (o *OutcomePubSub) PublishOutcome(ctx context.Context, userID string, outcome model.PublishOutcome) (string, error) {
	payload, err := json.Marshal(outcomeEvent{UserID: userID, Outcome: outcome, OccurredAt: time.Now().UTC()})
	if err != nil {
		return "", err
	}

	topic := o.PubSubClient.Topic(o.Topic)

	// Create the topic if it doesn't exist.
	exists, err := topic.Exists(ctx)
	if err != nil {
		return "", err
	}
	if !exists {
		log.Printf("Topic %v doesn't exist - creating it", o.Topic)
		_, err = o.PubSubClient.CreateTopic(ctx, o.Topic)
		if err != nil {
			return "", err
		}
	}

	serverId, err := topic.Publish(ctx, &pubsub.Message{Data: payload}).Get(ctx)
	if err != nil {
		return "", err
	}

	logger.GetLogger().WithField("server ID", serverId).Info("Outcome event published")
	return serverId, nil
}

func (o *OutcomePubSub) GetSubscription(subID string) (*pubsub.Subscription, error) {
	logger.GetLogger().WithField("subID", subID).Info("PubSub starting...")

	return o.PubSubClient.Subscription(subID), nil
}
