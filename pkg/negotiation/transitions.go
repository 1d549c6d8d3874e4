package negotiation

import "github.com/oja-market/oja-backend/pkg/enums"

// legalTransitions is the full lifecycle table. Pending is the only state
// with outgoing edges; everything it can reach is terminal.
var legalTransitions = map[enums.OfferStatus][]enums.OfferStatus{
	enums.OfferStatusPending: {
		enums.OfferStatusAccepted,
		enums.OfferStatusRejected,
		enums.OfferStatusCountered,
		enums.OfferStatusExpired,
		enums.OfferStatusWithdrawn,
	},
	enums.OfferStatusAccepted:  {},
	enums.OfferStatusRejected:  {},
	enums.OfferStatusCountered: {},
	enums.OfferStatusExpired:   {},
	enums.OfferStatusWithdrawn: {},
}

// CanTransition reports whether from → to is a legal lifecycle move.
func CanTransition(from, to enums.OfferStatus) bool {
	for _, candidate := range legalTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}
