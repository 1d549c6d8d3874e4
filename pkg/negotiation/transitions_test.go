package negotiation

import (
	"testing"

	"github.com/oja-market/oja-backend/pkg/enums"
)

func TestCanTransition_FromPending(t *testing.T) {
	targets := []enums.OfferStatus{
		enums.OfferStatusAccepted,
		enums.OfferStatusRejected,
		enums.OfferStatusCountered,
		enums.OfferStatusExpired,
		enums.OfferStatusWithdrawn,
	}
	for _, target := range targets {
		if !CanTransition(enums.OfferStatusPending, target) {
			t.Fatalf("pending -> %s should be legal", target)
		}
	}
	if CanTransition(enums.OfferStatusPending, enums.OfferStatusPending) {
		t.Fatal("pending -> pending should be illegal")
	}
}

func TestCanTransition_TerminalStatesHaveNoExits(t *testing.T) {
	terminals := []enums.OfferStatus{
		enums.OfferStatusAccepted,
		enums.OfferStatusRejected,
		enums.OfferStatusCountered,
		enums.OfferStatusExpired,
		enums.OfferStatusWithdrawn,
	}
	all := append([]enums.OfferStatus{enums.OfferStatusPending}, terminals...)
	for _, from := range terminals {
		for _, to := range all {
			if CanTransition(from, to) {
				t.Fatalf("%s -> %s should be illegal", from, to)
			}
		}
	}
}

func TestCanTransition_UnknownStatus(t *testing.T) {
	if CanTransition(enums.OfferStatus("bogus"), enums.OfferStatusAccepted) {
		t.Fatal("unknown source status should never transition")
	}
}
