package offers

import (
	"time"

	"github.com/google/uuid"

	"github.com/oja-market/oja-backend/pkg/db/models"
	"github.com/oja-market/oja-backend/pkg/enums"
	"github.com/oja-market/oja-backend/pkg/negotiation"
	"github.com/oja-market/oja-backend/pkg/pagination"
)

// CreateInput captures a buyer opening a negotiation on a listing.
type CreateInput struct {
	ListingID   uuid.UUID
	BuyerID     uuid.UUID
	AmountCents int64
	Message     *string
}

// AcceptInput identifies the offer being accepted and who is acting.
type AcceptInput struct {
	OfferID     uuid.UUID
	ActorUserID uuid.UUID
}

// RejectInput carries the seller's decision and reason.
type RejectInput struct {
	OfferID     uuid.UUID
	ActorUserID uuid.UUID
	Reason      string
	Message     string
}

// WithdrawInput identifies the offer the buyer is pulling back.
type WithdrawInput struct {
	OfferID     uuid.UUID
	ActorUserID uuid.UUID
}

// CounterInput carries a counter proposal against a pending offer.
type CounterInput struct {
	OfferID     uuid.UUID
	ActorUserID uuid.UUID
	AmountCents int64
	Message     *string
}

// ListParams configures the paginated offers listing for one user.
type ListParams struct {
	UserID    uuid.UUID
	Role      enums.NegotiationRole
	Status    *enums.OfferStatus
	ListingID *uuid.UUID
	Limit     int
	Cursor    string
}

// listOffersParams is the repository-level translation of ListParams.
type listOffersParams struct {
	UserID    uuid.UUID
	Role      enums.NegotiationRole
	Status    *enums.OfferStatus
	ListingID *uuid.UUID
	Limit     int
	Cursor    *pagination.Cursor
}

// View is an offer decorated with the derived fields clients render.
type View struct {
	Offer     models.Offer          `json:"offer"`
	Remaining negotiation.Remaining `json:"remaining"`
	Rating    negotiation.Rating    `json:"rating"`
}

// AcceptOutcome reports the accepted offer and the reservation it produced.
type AcceptOutcome struct {
	Offer       models.Offer       `json:"offer"`
	Reservation models.Reservation `json:"reservation"`
}

// CounterOutcome reports the closed original and the new pending counter.
type CounterOutcome struct {
	Original models.Offer `json:"original"`
	Counter  models.Offer `json:"counter"`
}

// ListResult wraps the paginated offers plus the next page cursor.
type ListResult struct {
	Offers     []View `json:"offers"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// SuggestionsResult is what the suggestion endpoint returns for one offer.
type SuggestionsResult struct {
	OfferID     uuid.UUID                `json:"offer_id"`
	Role        enums.NegotiationRole    `json:"role"`
	Suggestions []negotiation.Suggestion `json:"suggestions"`
	Rating      negotiation.Rating       `json:"rating"`
}

// ChainEntry is one offer in a negotiation history, oldest first.
type ChainEntry struct {
	Offer     models.Offer `json:"offer"`
	Round     int          `json:"round"`
	CreatedAt time.Time    `json:"created_at"`
}
