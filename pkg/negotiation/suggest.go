package negotiation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/oja-market/oja-backend/pkg/enums"
)

// SuggestionType labels how assertive a suggested counter amount is.
type SuggestionType string

const (
	SuggestionConservative SuggestionType = "conservative"
	SuggestionModerate     SuggestionType = "moderate"
	SuggestionAggressive   SuggestionType = "aggressive"
)

// Suggestion is one candidate counter-offer amount.
type Suggestion struct {
	AmountCents int64          `json:"amount_cents"`
	Label       string         `json:"label"`
	Type        SuggestionType `json:"type"`
}

var centsPerUnit = decimal.NewFromInt(100)

// roundToUnit rounds a cent amount to the nearest whole currency unit.
func roundToUnit(d decimal.Decimal) int64 {
	return d.Div(centsPerUnit).Round(0).Mul(centsPerUnit).IntPart()
}

func scaleByPct(amountCents int64, pct int) int64 {
	factor := decimal.NewFromInt(100 + int64(pct)).Div(decimal.NewFromInt(100))
	return roundToUnit(decimal.NewFromInt(amountCents).Mul(factor))
}

// SuggestCounters proposes counter amounts for the given role. Sellers push
// the amount up toward the listing price; buyers mostly pull it down.
// Candidates are rounded to whole currency units and filtered to
// (0, listingPrice]; fewer than three entries may come back.
func (p Policy) SuggestCounters(originalCents, listingPriceCents int64, role enums.NegotiationRole) []Suggestion {
	var candidates []Suggestion

	if role == enums.RoleSeller {
		midpoint := roundToUnit(decimal.NewFromInt(originalCents + listingPriceCents).Div(decimal.NewFromInt(2)))
		aggressive := scaleByPct(originalCents, p.SellerAggressivePct)
		candidates = []Suggestion{
			{AmountCents: scaleByPct(originalCents, p.SellerConservativePct), Label: fmt.Sprintf("Conservative (+%d%%)", p.SellerConservativePct), Type: SuggestionConservative},
			{AmountCents: midpoint, Label: "Meet in middle", Type: SuggestionModerate},
			{AmountCents: min64(aggressive, listingPriceCents), Label: "Firm", Type: SuggestionAggressive},
		}
	} else {
		aggressive := scaleByPct(originalCents, p.BuyerAggressivePct)
		candidates = []Suggestion{
			{AmountCents: scaleByPct(originalCents, -p.BuyerConservativePct), Label: fmt.Sprintf("Lower (-%d%%)", p.BuyerConservativePct), Type: SuggestionConservative},
			{AmountCents: scaleByPct(originalCents, p.BuyerModeratePct), Label: fmt.Sprintf("Slight increase (+%d%%)", p.BuyerModeratePct), Type: SuggestionModerate},
			{AmountCents: min64(aggressive, listingPriceCents), Label: fmt.Sprintf("Higher (+%d%%)", p.BuyerAggressivePct), Type: SuggestionAggressive},
		}
	}

	suggestions := candidates[:0]
	for _, candidate := range candidates {
		if candidate.AmountCents > 0 && candidate.AmountCents <= listingPriceCents {
			suggestions = append(suggestions, candidate)
		}
	}
	return suggestions
}

// Rating buckets how attractive an offer is relative to the asking price.
// Purely presentational.
type Rating struct {
	Level string `json:"level"`
	Color string `json:"color"`
}

// Attractiveness classifies the offer/listing ratio into four buckets.
func (p Policy) Attractiveness(offerCents, listingPriceCents int64) Rating {
	if listingPriceCents <= 0 {
		return Rating{Level: "low", Color: "red"}
	}
	pct := offerCents * 100 / listingPriceCents
	switch {
	case pct >= int64(p.ExcellentPct):
		return Rating{Level: "excellent", Color: "green"}
	case pct >= int64(p.GoodPct):
		return Rating{Level: "good", Color: "blue"}
	case pct >= int64(p.FairPct):
		return Rating{Level: "fair", Color: "orange"}
	default:
		return Rating{Level: "low", Color: "red"}
	}
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
