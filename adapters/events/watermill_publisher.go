package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/sphinx-bounties/auth/ports"
)

const (
	TopicLogin  = "auth.login"
	TopicLogout = "auth.logout"
)

// AuthEvent is the payload published on login and logout
type AuthEvent struct {
	Pubkey string    `json:"pubkey"`
	At     time.Time `json:"at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishLogin publishes a login event
func (p *WatermillPublisher) PublishLogin(ctx context.Context, pubkey string) error {
	return p.publish(TopicLogin, pubkey)
}

// PublishLogout publishes a logout event
func (p *WatermillPublisher) PublishLogout(ctx context.Context, pubkey string) error {
	return p.publish(TopicLogout, pubkey)
}

func (p *WatermillPublisher) publish(topic, pubkey string) error {
	payload, err := json.Marshal(AuthEvent{Pubkey: pubkey, At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
