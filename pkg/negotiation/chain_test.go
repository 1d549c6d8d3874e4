package negotiation

import (
	"testing"

	"github.com/google/uuid"

	"github.com/oja-market/oja-backend/pkg/db/models"
)

func linkedOffers(n int) []models.Offer {
	offers := make([]models.Offer, n)
	for i := range offers {
		offers[i].ID = uuid.New()
		offers[i].AmountCents = int64(10_000 + i*1_000)
		if i > 0 {
			parentID := offers[i-1].ID
			offers[i].ParentOfferID = &parentID
		}
	}
	return offers
}

func TestBuildChain_OldestFirst(t *testing.T) {
	offers := linkedOffers(3)

	chain := ChainFromSlice(offers[2].ID, offers)
	if len(chain) != 3 {
		t.Fatalf("expected chain of 3, got %d", len(chain))
	}
	for i, offer := range chain {
		if offer.ID != offers[i].ID {
			t.Fatalf("position %d: expected offer %s, got %s", i, offers[i].ID, offer.ID)
		}
	}
}

func TestBuildChain_SingleOffer(t *testing.T) {
	offers := linkedOffers(1)
	chain := ChainFromSlice(offers[0].ID, offers)
	if len(chain) != 1 {
		t.Fatalf("expected chain of 1, got %d", len(chain))
	}
}

func TestBuildChain_MissingParentEndsWalk(t *testing.T) {
	offers := linkedOffers(3)
	// Drop the root; the walk stops at the first unresolvable parent.
	chain := ChainFromSlice(offers[2].ID, offers[1:])
	if len(chain) != 2 {
		t.Fatalf("expected chain of 2, got %d", len(chain))
	}
	if chain[0].ID != offers[1].ID || chain[1].ID != offers[2].ID {
		t.Fatal("chain should hold the two resolvable offers oldest-first")
	}
}

func TestBuildChain_CycleGuard(t *testing.T) {
	offers := linkedOffers(2)
	loopID := offers[1].ID
	offers[0].ParentOfferID = &loopID

	chain := ChainFromSlice(offers[1].ID, offers)
	if len(chain) != 2 {
		t.Fatalf("expected cycle walk to terminate with 2 offers, got %d", len(chain))
	}
}

func TestChainFromSlice_UnknownLeaf(t *testing.T) {
	offers := linkedOffers(2)
	if chain := ChainFromSlice(uuid.New(), offers); chain != nil {
		t.Fatalf("expected nil chain for unknown leaf, got %d offers", len(chain))
	}
}
