package notifications

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oja-market/oja-backend/pkg/enums"
	"github.com/oja-market/oja-backend/pkg/outbox"
	"github.com/oja-market/oja-backend/pkg/outbox/payloads"
)

func envelopeWith(t *testing.T, payload any, actor *outbox.ActorRef) outbox.PayloadEnvelope {
	t.Helper()

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Actor:      actor,
		Data:       data,
	}
}

func TestBuildNotificationsOfferCreatedTargetsSeller(t *testing.T) {
	c := &Consumer{}
	payload := payloads.OfferCreatedEvent{
		OfferID:     uuid.New(),
		ListingID:   uuid.New(),
		BuyerID:     uuid.New(),
		SellerID:    uuid.New(),
		AmountCents: 250000,
		Currency:    enums.CurrencyNGN,
	}

	built, err := c.buildNotifications(enums.EventOfferCreated, envelopeWith(t, payload, nil))
	require.NoError(t, err)
	require.Len(t, built, 1)
	assert.Equal(t, payload.SellerID, built[0].UserID)
	assert.Equal(t, enums.NotificationOfferReceived, built[0].Kind)
	assert.Contains(t, built[0].Message, "NGN 2500.00")
}

func TestBuildNotificationsSkipsCounterOfferCreation(t *testing.T) {
	c := &Consumer{}
	parent := uuid.New()
	payload := payloads.OfferCreatedEvent{
		OfferID:       uuid.New(),
		ListingID:     uuid.New(),
		BuyerID:       uuid.New(),
		SellerID:      uuid.New(),
		AmountCents:   100000,
		Currency:      enums.CurrencyNGN,
		ParentOfferID: &parent,
	}

	built, err := c.buildNotifications(enums.EventOfferCreated, envelopeWith(t, payload, nil))
	require.NoError(t, err)
	assert.Empty(t, built)
}

func TestBuildNotificationsCounterRoutesByActorRole(t *testing.T) {
	c := &Consumer{}
	payload := payloads.OfferCounteredEvent{
		OriginalOfferID: uuid.New(),
		CounterOfferID:  uuid.New(),
		ListingID:       uuid.New(),
		BuyerID:         uuid.New(),
		SellerID:        uuid.New(),
		AmountCents:     180000,
	}

	sellerActor := &outbox.ActorRef{UserID: payload.SellerID, Role: enums.RoleSeller}
	built, err := c.buildNotifications(enums.EventOfferCountered, envelopeWith(t, payload, sellerActor))
	require.NoError(t, err)
	require.Len(t, built, 1)
	assert.Equal(t, payload.BuyerID, built[0].UserID)
	require.NotNil(t, built[0].OfferID)
	assert.Equal(t, payload.CounterOfferID, *built[0].OfferID)

	buyerActor := &outbox.ActorRef{UserID: payload.BuyerID, Role: enums.RoleBuyer}
	built, err = c.buildNotifications(enums.EventOfferCountered, envelopeWith(t, payload, buyerActor))
	require.NoError(t, err)
	require.Len(t, built, 1)
	assert.Equal(t, payload.SellerID, built[0].UserID)
}

func TestBuildNotificationsExpiryWarningNotifiesBothParties(t *testing.T) {
	c := &Consumer{}
	payload := payloads.OfferExpiryWarningEvent{
		OfferID:   uuid.New(),
		ListingID: uuid.New(),
		BuyerID:   uuid.New(),
		SellerID:  uuid.New(),
		ExpiresAt: time.Now().Add(12 * time.Hour),
		HoursLeft: 12,
	}

	built, err := c.buildNotifications(enums.EventOfferExpiryWarning, envelopeWith(t, payload, nil))
	require.NoError(t, err)
	require.Len(t, built, 2)
	recipients := []uuid.UUID{built[0].UserID, built[1].UserID}
	assert.Contains(t, recipients, payload.BuyerID)
	assert.Contains(t, recipients, payload.SellerID)
	assert.Contains(t, built[0].Message, "12 hours")
}

func TestBuildNotificationsRejectedIncludesMessage(t *testing.T) {
	c := &Consumer{}
	payload := payloads.OfferRejectedEvent{
		OfferID:   uuid.New(),
		ListingID: uuid.New(),
		BuyerID:   uuid.New(),
		SellerID:  uuid.New(),
		Reason:    "too_low",
		Message:   "Cannot go below 200k",
	}

	built, err := c.buildNotifications(enums.EventOfferRejected, envelopeWith(t, payload, nil))
	require.NoError(t, err)
	require.Len(t, built, 1)
	assert.Equal(t, payload.BuyerID, built[0].UserID)
	assert.Contains(t, built[0].Message, "Cannot go below 200k")
}

func TestBuildNotificationsIgnoresUnhandledEvents(t *testing.T) {
	c := &Consumer{}
	payload := payloads.ReservationCreatedEvent{ReservationID: uuid.New()}

	built, err := c.buildNotifications(enums.EventReservationCreated, envelopeWith(t, payload, nil))
	require.NoError(t, err)
	assert.Empty(t, built)
}
