package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateOffer       OutboxAggregateType = "offer"
	AggregateReservation OutboxAggregateType = "reservation"
	AggregateListing     OutboxAggregateType = "listing"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOffer,
	AggregateReservation,
	AggregateListing,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventOfferCreated         OutboxEventType = "offer_created"
	EventOfferAccepted        OutboxEventType = "offer_accepted"
	EventOfferRejected        OutboxEventType = "offer_rejected"
	EventOfferCountered       OutboxEventType = "offer_countered"
	EventOfferWithdrawn       OutboxEventType = "offer_withdrawn"
	EventOfferExpired         OutboxEventType = "offer_expired"
	EventOfferExpiryWarning   OutboxEventType = "offer_expiry_warning"
	EventReservationCreated   OutboxEventType = "reservation_created"
	EventReservationExpired   OutboxEventType = "reservation_expired"
	EventReservationCompleted OutboxEventType = "reservation_completed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOfferCreated,
	EventOfferAccepted,
	EventOfferRejected,
	EventOfferCountered,
	EventOfferWithdrawn,
	EventOfferExpired,
	EventOfferExpiryWarning,
	EventReservationCreated,
	EventReservationExpired,
	EventReservationCompleted,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}
