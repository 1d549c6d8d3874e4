package negotiation

import (
	"testing"

	"github.com/oja-market/oja-backend/pkg/enums"
)

func TestSuggestCounters_Seller(t *testing.T) {
	policy := DefaultPolicy()

	// Buyer offered 100.00 on a 150.00 listing.
	suggestions := policy.SuggestCounters(10_000, 15_000, enums.RoleSeller)
	if len(suggestions) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(suggestions))
	}

	conservative := suggestions[0]
	if conservative.AmountCents != 11_000 {
		t.Fatalf("expected conservative 11000, got %d", conservative.AmountCents)
	}
	if conservative.Label != "Conservative (+10%)" || conservative.Type != SuggestionConservative {
		t.Fatalf("unexpected conservative suggestion %+v", conservative)
	}

	moderate := suggestions[1]
	if moderate.AmountCents != 12_500 {
		t.Fatalf("expected midpoint 12500, got %d", moderate.AmountCents)
	}
	if moderate.Label != "Meet in middle" || moderate.Type != SuggestionModerate {
		t.Fatalf("unexpected moderate suggestion %+v", moderate)
	}

	aggressive := suggestions[2]
	// +25% of 100.00 is 125.00, under the 150.00 cap.
	if aggressive.AmountCents != 12_500 {
		t.Fatalf("expected aggressive 12500, got %d", aggressive.AmountCents)
	}
	if aggressive.Label != "Firm" || aggressive.Type != SuggestionAggressive {
		t.Fatalf("unexpected aggressive suggestion %+v", aggressive)
	}
}

func TestSuggestCounters_SellerAggressiveCappedAtListing(t *testing.T) {
	policy := DefaultPolicy()

	// +25% of 140.00 would be 175.00; the cap pulls it back to the listing.
	suggestions := policy.SuggestCounters(14_000, 15_000, enums.RoleSeller)
	aggressive := suggestions[len(suggestions)-1]
	if aggressive.Type != SuggestionAggressive {
		t.Fatalf("expected aggressive last, got %+v", aggressive)
	}
	if aggressive.AmountCents != 15_000 {
		t.Fatalf("expected cap at 15000, got %d", aggressive.AmountCents)
	}
}

func TestSuggestCounters_Buyer(t *testing.T) {
	policy := DefaultPolicy()

	// Seller countered at 100.00 on a 150.00 listing.
	suggestions := policy.SuggestCounters(10_000, 15_000, enums.RoleBuyer)
	if len(suggestions) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(suggestions))
	}

	expected := []struct {
		amount int64
		label  string
		kind   SuggestionType
	}{
		{9_000, "Lower (-10%)", SuggestionConservative},
		{10_500, "Slight increase (+5%)", SuggestionModerate},
		{11_500, "Higher (+15%)", SuggestionAggressive},
	}
	for i, want := range expected {
		got := suggestions[i]
		if got.AmountCents != want.amount || got.Label != want.label || got.Type != want.kind {
			t.Fatalf("suggestion %d: expected %+v, got %+v", i, want, got)
		}
	}
}

func TestSuggestCounters_FiltersOutOfRange(t *testing.T) {
	policy := DefaultPolicy()

	// A near-asking counter pushes the raised candidates over the listing
	// price; only those at or below it survive.
	suggestions := policy.SuggestCounters(14_800, 15_000, enums.RoleBuyer)
	for _, suggestion := range suggestions {
		if suggestion.AmountCents <= 0 || suggestion.AmountCents > 15_000 {
			t.Fatalf("suggestion %d cents out of range", suggestion.AmountCents)
		}
	}
}

func TestSuggestCounters_RoundsToWholeUnits(t *testing.T) {
	policy := DefaultPolicy()

	// 10% of 100.33 is 10.033; candidates land on whole currency units.
	suggestions := policy.SuggestCounters(10_033, 20_000, enums.RoleSeller)
	for _, suggestion := range suggestions {
		if suggestion.AmountCents%100 != 0 {
			t.Fatalf("suggestion %d not rounded to a whole unit", suggestion.AmountCents)
		}
	}
}

func TestAttractiveness(t *testing.T) {
	policy := DefaultPolicy()

	cases := []struct {
		offer, listing int64
		level, color   string
	}{
		{19_600, 20_000, "excellent", "green"},
		{18_000, 20_000, "good", "blue"},
		{15_000, 20_000, "fair", "orange"},
		{10_000, 20_000, "low", "red"},
		{5_000, 0, "low", "red"},
	}
	for _, c := range cases {
		rating := policy.Attractiveness(c.offer, c.listing)
		if rating.Level != c.level || rating.Color != c.color {
			t.Fatalf("offer %d on %d: expected %s/%s, got %s/%s",
				c.offer, c.listing, c.level, c.color, rating.Level, rating.Color)
		}
	}
}
