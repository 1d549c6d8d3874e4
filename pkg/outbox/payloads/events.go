package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/oja-market/oja-backend/pkg/enums"
)

// OfferCreatedEvent signals that a buyer opened a negotiation, or that a
// counter offer extended one.
type OfferCreatedEvent struct {
	OfferID       uuid.UUID      `json:"offer_id"`
	ListingID     uuid.UUID      `json:"listing_id"`
	BuyerID       uuid.UUID      `json:"buyer_id"`
	SellerID      uuid.UUID      `json:"seller_id"`
	AmountCents   int64          `json:"amount_cents"`
	Currency      enums.Currency `json:"currency"`
	ParentOfferID *uuid.UUID     `json:"parent_offer_id,omitempty"`
	ExpiresAt     time.Time      `json:"expires_at"`
}

// OfferAcceptedEvent carries the reservation created by acceptance.
type OfferAcceptedEvent struct {
	OfferID              uuid.UUID `json:"offer_id"`
	ListingID            uuid.UUID `json:"listing_id"`
	BuyerID              uuid.UUID `json:"buyer_id"`
	SellerID             uuid.UUID `json:"seller_id"`
	AmountCents          int64     `json:"amount_cents"`
	ReservationID        uuid.UUID `json:"reservation_id"`
	ReservationExpiresAt time.Time `json:"reservation_expires_at"`
}

// OfferRejectedEvent is emitted when the seller declines an offer.
type OfferRejectedEvent struct {
	OfferID   uuid.UUID `json:"offer_id"`
	ListingID uuid.UUID `json:"listing_id"`
	BuyerID   uuid.UUID `json:"buyer_id"`
	SellerID  uuid.UUID `json:"seller_id"`
	Reason    string    `json:"reason"`
	Message   string    `json:"message,omitempty"`
}

// OfferCounteredEvent links the closed offer to its replacement.
type OfferCounteredEvent struct {
	OriginalOfferID uuid.UUID `json:"original_offer_id"`
	CounterOfferID  uuid.UUID `json:"counter_offer_id"`
	ListingID       uuid.UUID `json:"listing_id"`
	BuyerID         uuid.UUID `json:"buyer_id"`
	SellerID        uuid.UUID `json:"seller_id"`
	AmountCents     int64     `json:"amount_cents"`
	ChainLength     int       `json:"chain_length"`
}

// OfferWithdrawnEvent is emitted when the buyer pulls a pending offer.
type OfferWithdrawnEvent struct {
	OfferID     uuid.UUID `json:"offer_id"`
	ListingID   uuid.UUID `json:"listing_id"`
	BuyerID     uuid.UUID `json:"buyer_id"`
	SellerID    uuid.UUID `json:"seller_id"`
	WithdrawnAt time.Time `json:"withdrawn_at"`
}

// OfferExpiredEvent describes the payload when the TTL sweep closes an offer.
type OfferExpiredEvent struct {
	OfferID   uuid.UUID `json:"offerId"`
	ListingID uuid.UUID `json:"listingId"`
	BuyerID   uuid.UUID `json:"buyerId"`
	SellerID  uuid.UUID `json:"sellerId"`
	ExpiredAt time.Time `json:"expiredAt"`
}

// OfferExpiryWarningEvent nudges both parties before an offer lapses.
type OfferExpiryWarningEvent struct {
	OfferID   uuid.UUID `json:"offerId"`
	ListingID uuid.UUID `json:"listingId"`
	BuyerID   uuid.UUID `json:"buyerId"`
	SellerID  uuid.UUID `json:"sellerId"`
	ExpiresAt time.Time `json:"expiresAt"`
	HoursLeft int       `json:"hoursLeft"`
}

// ReservationCreatedEvent signals a new hold on a listing.
type ReservationCreatedEvent struct {
	ReservationID      uuid.UUID `json:"reservation_id"`
	ListingID          uuid.UUID `json:"listing_id"`
	BuyerID            uuid.UUID `json:"buyer_id"`
	OfferID            uuid.UUID `json:"offer_id"`
	ReservedPriceCents int64     `json:"reserved_price_cents"`
	ExpiresAt          time.Time `json:"expires_at"`
}

// ReservationExpiredEvent is emitted when a hold lapses and the listing is
// released back to the market.
type ReservationExpiredEvent struct {
	ReservationID uuid.UUID `json:"reservationId"`
	ListingID     uuid.UUID `json:"listingId"`
	BuyerID       uuid.UUID `json:"buyerId"`
	OfferID       uuid.UUID `json:"offerId"`
	ExpiredAt     time.Time `json:"expiredAt"`
}

// ReservationCompletedEvent is emitted when the sale goes through.
type ReservationCompletedEvent struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	ListingID     uuid.UUID `json:"listing_id"`
	BuyerID       uuid.UUID `json:"buyer_id"`
	OfferID       uuid.UUID `json:"offer_id"`
	CompletedAt   time.Time `json:"completed_at"`
}
