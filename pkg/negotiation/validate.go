package negotiation

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/oja-market/oja-backend/pkg/db/models"
	"github.com/oja-market/oja-backend/pkg/enums"
)

// AmountValidation reports every violated amount rule, not just the first.
type AmountValidation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ValidateAmount checks an offer amount against the listing price. All rules
// are evaluated independently so the caller can surface every violation at
// once.
func (p Policy) ValidateAmount(amountCents, listingPriceCents int64) AmountValidation {
	var errs []string

	if listingPriceCents <= 0 {
		errs = append(errs, "Listing price must be positive")
	}

	if amountCents <= 0 {
		errs = append(errs, "Amount must be positive")
	}

	if listingPriceCents > 0 {
		if amountCents > listingPriceCents*int64(p.MaxPctOfListing)/100 {
			errs = append(errs, fmt.Sprintf("Amount cannot exceed %d%% of listing price", p.MaxPctOfListing))
		}
		// Ceiling division: a truncated floor would admit amounts a
		// fraction of a cent below the minimum percentage.
		minCents := (listingPriceCents*int64(p.MinPctOfListing) + 99) / 100
		if amountCents < minCents {
			errs = append(errs, fmt.Sprintf("Amount too low (less than %d%% of listing price)", p.MinPctOfListing))
		}
	}

	return AmountValidation{Valid: len(errs) == 0, Errors: errs}
}

// HasPendingOffer reports whether the buyer already has a pending offer for
// the listing among the supplied offers. The caller provides the candidate
// set; this predicate performs no lookups of its own.
func HasPendingOffer(buyerID, listingID uuid.UUID, offers []models.Offer) bool {
	for _, offer := range offers {
		if offer.BuyerID == buyerID && offer.ListingID == listingID && offer.Status == enums.OfferStatusPending {
			return true
		}
	}
	return false
}
