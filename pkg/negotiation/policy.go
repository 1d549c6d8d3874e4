// Package negotiation implements the offer negotiation rules: amount bounds,
// expiry, the status transition table, the accept/reject/counter/withdraw
// processors, counter chains, and counter suggestions.
//
// Every function here is a pure transform over its arguments. Current time is
// always an explicit parameter and the returned offer/reservation values are
// copies; persisting them (and serializing concurrent actors) is the caller's
// job.
package negotiation

import "time"

// Policy carries the product-tuning constants of the offer flow. The
// percentages have no deeper meaning than "what the product team picked", so
// they are data, not code.
type Policy struct {
	OfferTTL         time.Duration
	ReservationTTL   time.Duration
	MaxCounterOffers int

	WarningWindow   time.Duration
	WarningCooldown time.Duration

	// Amount bounds, as percentages of the listing price.
	MinPctOfListing int
	MaxPctOfListing int

	// Suggestion percentages per role.
	SellerConservativePct int
	SellerAggressivePct   int
	BuyerConservativePct  int
	BuyerModeratePct      int
	BuyerAggressivePct    int

	// Attractiveness thresholds, as percentages of the listing price.
	ExcellentPct int
	GoodPct      int
	FairPct      int
}

// DefaultPolicy returns the stock tuning.
func DefaultPolicy() Policy {
	return Policy{
		OfferTTL:              72 * time.Hour,
		ReservationTTL:        48 * time.Hour,
		MaxCounterOffers:      5,
		WarningWindow:         24 * time.Hour,
		WarningCooldown:       6 * time.Hour,
		MinPctOfListing:       10,
		MaxPctOfListing:       200,
		SellerConservativePct: 10,
		SellerAggressivePct:   25,
		BuyerConservativePct:  10,
		BuyerModeratePct:      5,
		BuyerAggressivePct:    15,
		ExcellentPct:          95,
		GoodPct:               85,
		FairPct:               70,
	}
}
