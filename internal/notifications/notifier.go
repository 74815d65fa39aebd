package notifications

import (
	"context"
	"fmt"
	"log"
	"time"

	"marketplace-service/internal/models"
)

// Publisher is the event sink. Satisfied by rabbitmq.Publisher.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// Notifier dispatches user-facing notification events to an external
// consumer. Push/email delivery happens downstream; this side only emits.
type Notifier interface {
	OfferReceived(ctx context.Context, offer models.PriceOffer, offererNickname, itemName string)
}

// Emitter is an AMQP-backed Notifier.
type Emitter struct {
	publisher   Publisher
	service     string
	environment string
}

// NewEmitter constructs an Emitter.
func NewEmitter(publisher Publisher, service, environment string) *Emitter {
	return &Emitter{publisher: publisher, service: service, environment: environment}
}

// Envelope is the wire shape of a notification event.
type Envelope struct {
	SchemaVersion int     `json:"schema_version"`
	EventType     string  `json:"event_type"`
	OccurredAt    string  `json:"occurred_at"`
	Service       string  `json:"service"`
	Environment   string  `json:"environment"`
	Payload       Payload `json:"payload"`
}

// Payload carries the notification body.
type Payload struct {
	Type          string `json:"type"`
	UserID        int64  `json:"user_id"`
	RequesterID   int64  `json:"requester_id,omitempty"`
	ReferenceID   int64  `json:"reference_id,omitempty"`
	ReferenceType string `json:"reference_type,omitempty"`
	OfferedPrice  int64  `json:"offered_price,omitempty"`
	Currency      string `json:"currency,omitempty"`
	Title         string `json:"title"`
	Text          string `json:"text"`
}

// OfferReceived notifies the listing owner that a price offer arrived.
// Best effort: a publish failure is logged, never surfaced to the caller.
func (e *Emitter) OfferReceived(ctx context.Context, offer models.PriceOffer, offererNickname, itemName string) {
	if e == nil || e.publisher == nil {
		return
	}

	unit := "bells"
	if offer.Currency == models.CurrencyMileTicket {
		unit = "mile tickets"
	}
	text := fmt.Sprintf("%s offered %d %s for %s", offererNickname, offer.OfferedPrice, unit, itemName)

	envelope := Envelope{
		SchemaVersion: 1,
		EventType:     "notification",
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		Payload: Payload{
			Type:          "PRICE_OFFER_RECEIVED",
			UserID:        offer.ListingOwnerID,
			RequesterID:   offer.OffererID,
			ReferenceID:   offer.ID,
			ReferenceType: "PRICE_OFFER",
			OfferedPrice:  offer.OfferedPrice,
			Currency:      string(offer.Currency),
			Title:         "A price offer arrived",
			Text:          text,
		},
	}

	if err := e.publisher.Publish(ctx, "notifications.price_offer", envelope); err != nil {
		log.Printf("notification publish failed offer_id=%d: %v", offer.ID, err)
	}
}
