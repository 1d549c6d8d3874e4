package negotiation

import (
	"github.com/google/uuid"

	"github.com/oja-market/oja-backend/pkg/db/models"
)

// OfferLookup resolves an offer by ID. A false return ends the walk.
type OfferLookup func(id uuid.UUID) (models.Offer, bool)

// BuildChain walks parent links from the given leaf back to the root offer
// and returns the ancestry oldest-first. Construction guarantees chains are
// acyclic (a counter's parent is always an earlier, persisted offer), but
// the walk still refuses to revisit an ID so corrupt data cannot hang it.
func BuildChain(leaf models.Offer, lookup OfferLookup) []models.Offer {
	chain := []models.Offer{leaf}
	visited := map[uuid.UUID]bool{leaf.ID: true}

	current := leaf
	for current.ParentOfferID != nil {
		parentID := *current.ParentOfferID
		if visited[parentID] {
			break
		}
		parent, ok := lookup(parentID)
		if !ok {
			break
		}
		visited[parentID] = true
		chain = append([]models.Offer{parent}, chain...)
		current = parent
	}

	return chain
}

// ChainFromSlice builds the ancestry of the offer with leafID from a
// caller-supplied set, oldest-first. Offers absent from the set terminate
// the walk.
func ChainFromSlice(leafID uuid.UUID, offers []models.Offer) []models.Offer {
	byID := make(map[uuid.UUID]models.Offer, len(offers))
	for _, offer := range offers {
		byID[offer.ID] = offer
	}
	leaf, ok := byID[leafID]
	if !ok {
		return nil
	}
	return BuildChain(leaf, func(id uuid.UUID) (models.Offer, bool) {
		offer, ok := byID[id]
		return offer, ok
	})
}
