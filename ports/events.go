package ports

import "context"

// EventPublisher publishes auth lifecycle events to notify other services
type EventPublisher interface {
	PublishLogin(ctx context.Context, pubkey string) error
	PublishLogout(ctx context.Context, pubkey string) error
}
