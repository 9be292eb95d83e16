package events

import (
	"encoding/json"
	"time"

	"github.com/sweetlab/sweetshop/pkg/messaging"
	"github.com/google/uuid"
)

// SweetPurchasedEvent is emitted after a purchase transaction commits.
type SweetPurchasedEvent struct {
	SweetID    uuid.UUID `json:"sweet_id"`
	Quantity   int32     `json:"quantity"`
	Remaining  int32     `json:"remaining"`
	TotalPrice float64   `json:"total_price"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e SweetPurchasedEvent) Subject() string {
	return messaging.SweetsPurchasedSubject
}

func (e SweetPurchasedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

// SweetRestockedEvent is emitted after a restock transaction commits.
type SweetRestockedEvent struct {
	SweetID    uuid.UUID `json:"sweet_id"`
	Quantity   int32     `json:"quantity"`
	Stock      int32     `json:"stock"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e SweetRestockedEvent) Subject() string {
	return messaging.SweetsRestockedSubject
}

func (e SweetRestockedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
