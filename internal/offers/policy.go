package offers

import (
	"github.com/oja-market/oja-backend/pkg/config"
	"github.com/oja-market/oja-backend/pkg/negotiation"
)

// PolicyFromConfig maps the environment-driven negotiation settings onto the
// pure policy value used by the domain functions.
func PolicyFromConfig(cfg config.NegotiationConfig) negotiation.Policy {
	return negotiation.Policy{
		OfferTTL:              cfg.OfferTTL,
		ReservationTTL:        cfg.ReservationTTL,
		MaxCounterOffers:      cfg.MaxCounterOffers,
		WarningWindow:         cfg.ExpiryWarningWindow,
		WarningCooldown:       cfg.ExpiryWarningCooldown,
		MinPctOfListing:       cfg.MinAmountPctOfListing,
		MaxPctOfListing:       cfg.MaxAmountMultiplierPct,
		SellerConservativePct: cfg.SellerConservativePct,
		SellerAggressivePct:   cfg.SellerAggressivePct,
		BuyerConservativePct:  cfg.BuyerConservativePct,
		BuyerModeratePct:      cfg.BuyerModeratePct,
		BuyerAggressivePct:    cfg.BuyerAggressivePct,
		ExcellentPct:          cfg.ExcellentPct,
		GoodPct:               cfg.GoodPct,
		FairPct:               cfg.FairPct,
	}
}
