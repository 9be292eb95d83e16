// Package messaging defines the event publishing contract shared by the
// service layer and the broker-specific implementations.
package messaging

import (
	"context"
)

// Subjects for catalog domain events.
const (
	SweetsPurchasedSubject = "sweets.purchased"
	SweetsRestockedSubject = "sweets.restocked"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
