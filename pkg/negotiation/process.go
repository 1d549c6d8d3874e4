package negotiation

import (
	"time"

	"github.com/google/uuid"

	"github.com/oja-market/oja-backend/pkg/db/models"
	"github.com/oja-market/oja-backend/pkg/enums"
	pkgerrors "github.com/oja-market/oja-backend/pkg/errors"
)

// AcceptResult carries the records acceptance produces: the accepted offer
// copy and the reservation derived from it. The caller persists both.
type AcceptResult struct {
	Offer       models.Offer
	Reservation models.Reservation
}

// Accept runs the acceptance preconditions in order and, on success, returns
// the accepted offer copy plus its reservation. The input offer is not
// mutated. The listing's current status is supplied by the caller; this
// function fetches nothing.
func (p Policy) Accept(offer models.Offer, listingStatus enums.ListingStatus, now time.Time) (AcceptResult, error) {
	if offer.Status != enums.OfferStatusPending {
		return AcceptResult{}, pkgerrors.New(pkgerrors.CodeStateConflict, "Offer is not pending")
	}
	// Acceptance at the exact deadline still succeeds; only a deadline
	// strictly in the past blocks it.
	if offer.ExpiresAt.Before(now) {
		return AcceptResult{}, pkgerrors.New(pkgerrors.CodeStateConflict, "Offer has expired")
	}
	if listingStatus != enums.ListingStatusActive {
		return AcceptResult{}, pkgerrors.New(pkgerrors.CodeStateConflict, "Listing is no longer available")
	}

	accepted := offer
	accepted.Status = enums.OfferStatusAccepted
	respondedAt := now
	accepted.RespondedAt = &respondedAt

	reservation := models.Reservation{
		ListingID:          offer.ListingID,
		BuyerID:            offer.BuyerID,
		OfferID:            offer.ID,
		ReservedPriceCents: offer.AmountCents,
		Status:             enums.ReservationStatusActive,
		ExpiresAt:          now.Add(p.ReservationTTL),
	}

	return AcceptResult{Offer: accepted, Reservation: reservation}, nil
}

// Reject returns a rejected copy of the offer carrying the seller's reason
// and optional message.
func (p Policy) Reject(offer models.Offer, reason, message string, now time.Time) (models.Offer, error) {
	if offer.Status != enums.OfferStatusPending {
		return models.Offer{}, pkgerrors.New(pkgerrors.CodeStateConflict, "Offer is not pending")
	}

	rejected := offer
	rejected.Status = enums.OfferStatusRejected
	rejected.RejectionReason = &reason
	if message != "" {
		rejected.ResponseMessage = &message
	}
	respondedAt := now
	rejected.RespondedAt = &respondedAt
	return rejected, nil
}

// Withdraw returns a withdrawn copy of the offer. Only the buyer who made
// the offer may withdraw it, and only while it is pending.
func (p Policy) Withdraw(offer models.Offer, requestingUserID uuid.UUID, now time.Time) (models.Offer, error) {
	if offer.BuyerID != requestingUserID {
		return models.Offer{}, pkgerrors.New(pkgerrors.CodeForbidden, "Only buyer can withdraw offer")
	}
	if offer.Status != enums.OfferStatusPending {
		return models.Offer{}, pkgerrors.New(pkgerrors.CodeStateConflict, "Can only withdraw pending offers")
	}

	withdrawn := offer
	withdrawn.Status = enums.OfferStatusWithdrawn
	withdrawnAt := now
	withdrawn.WithdrawnAt = &withdrawnAt
	return withdrawn, nil
}

// CounterResult carries the records countering produces: the original offer
// marked countered and the brand-new pending counter offer.
type CounterResult struct {
	Original models.Offer
	Counter  models.Offer
}

// CanCounter reports whether another counter round is allowed for a chain of
// the given length.
func (p Policy) CanCounter(chainLength int) bool {
	return chainLength < p.MaxCounterOffers
}

// Counter closes the original offer as countered and derives a fresh pending
// offer linked to it. The counter inherits the negotiation parties and gets a
// new expiry deadline. chainLength is the current ancestry length including
// the original offer.
func (p Policy) Counter(original models.Offer, amountCents int64, message *string, chainLength int, now time.Time) (CounterResult, error) {
	if original.Status != enums.OfferStatusPending {
		return CounterResult{}, pkgerrors.New(pkgerrors.CodeStateConflict, "Offer is not pending")
	}
	if !p.CanCounter(chainLength) {
		return CounterResult{}, pkgerrors.New(pkgerrors.CodeStateConflict, "Maximum counter-offer rounds reached").
			WithDetails(map[string]any{"chain_length": chainLength, "max_rounds": p.MaxCounterOffers})
	}

	countered := original
	countered.Status = enums.OfferStatusCountered
	respondedAt := now
	countered.RespondedAt = &respondedAt

	parentID := original.ID
	counter := models.Offer{
		ListingID:     original.ListingID,
		BuyerID:       original.BuyerID,
		SellerID:      original.SellerID,
		AmountCents:   amountCents,
		Currency:      original.Currency,
		Message:       message,
		Status:        enums.OfferStatusPending,
		ParentOfferID: &parentID,
		ExpiresAt:     now.Add(p.OfferTTL),
	}

	return CounterResult{Original: countered, Counter: counter}, nil
}
