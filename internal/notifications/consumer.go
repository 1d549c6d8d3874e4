package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/oja-market/oja-backend/pkg/db/models"
	"github.com/oja-market/oja-backend/pkg/enums"
	"github.com/oja-market/oja-backend/pkg/logger"
	"github.com/oja-market/oja-backend/pkg/outbox"
	"github.com/oja-market/oja-backend/pkg/outbox/idempotency"
	"github.com/oja-market/oja-backend/pkg/outbox/payloads"
)

const offerNotificationConsumer = "offer-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Consumer watches offer lifecycle events and materializes in-app
// notifications for the affected users.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds an offer notification consumer bound to one subscription.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, offerNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	notifications, err := c.buildNotifications(eventType, envelope)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Delete(ctx, offerNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	if len(notifications) == 0 {
		c.logg.Info(logCtx, "event type not handled")
		return processResult{ack: true}
	}

	for i := range notifications {
		if err := c.repo.Create(ctx, &notifications[i]); err != nil {
			c.logg.Error(logCtx, "notification insert failed", err)
			_ = c.idempotency.Delete(ctx, offerNotificationConsumer, eventID)
			return processResult{nack: true}
		}
	}
	c.logg.Info(logCtx, "notifications created")
	return processResult{ack: true}
}

func (c *Consumer) buildNotifications(eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) ([]models.Notification, error) {
	switch eventType {
	case enums.EventOfferCreated:
		var p payloads.OfferCreatedEvent
		if err := json.Unmarshal(envelope.Data, &p); err != nil {
			return nil, err
		}
		// Counter offers announce themselves through offer_countered.
		if p.ParentOfferID != nil {
			return nil, nil
		}
		return []models.Notification{notify(
			p.SellerID, enums.NotificationOfferReceived,
			"New offer received",
			fmt.Sprintf("A buyer offered %s on your listing.", formatAmount(p.AmountCents, p.Currency)),
			p.OfferID, p.ListingID,
		)}, nil
	case enums.EventOfferAccepted:
		var p payloads.OfferAcceptedEvent
		if err := json.Unmarshal(envelope.Data, &p); err != nil {
			return nil, err
		}
		return []models.Notification{notify(
			p.BuyerID, enums.NotificationOfferAccepted,
			"Offer accepted",
			"Your offer was accepted. The item is reserved for you for 48 hours.",
			p.OfferID, p.ListingID,
		)}, nil
	case enums.EventOfferRejected:
		var p payloads.OfferRejectedEvent
		if err := json.Unmarshal(envelope.Data, &p); err != nil {
			return nil, err
		}
		message := "Your offer was declined."
		if p.Message != "" {
			message = fmt.Sprintf("Your offer was declined: %s", p.Message)
		}
		return []models.Notification{notify(
			p.BuyerID, enums.NotificationOfferRejected,
			"Offer declined",
			message,
			p.OfferID, p.ListingID,
		)}, nil
	case enums.EventOfferCountered:
		var p payloads.OfferCounteredEvent
		if err := json.Unmarshal(envelope.Data, &p); err != nil {
			return nil, err
		}
		recipient := p.BuyerID
		if envelope.Actor != nil && envelope.Actor.Role == enums.RoleBuyer {
			recipient = p.SellerID
		}
		return []models.Notification{notify(
			recipient, enums.NotificationOfferCountered,
			"Counter offer received",
			fmt.Sprintf("The other party countered with %s.", formatAmount(p.AmountCents, enums.CurrencyNGN)),
			p.CounterOfferID, p.ListingID,
		)}, nil
	case enums.EventOfferExpired:
		var p payloads.OfferExpiredEvent
		if err := json.Unmarshal(envelope.Data, &p); err != nil {
			return nil, err
		}
		return []models.Notification{notify(
			p.BuyerID, enums.NotificationOfferExpired,
			"Offer expired",
			"Your offer expired without a response.",
			p.OfferID, p.ListingID,
		)}, nil
	case enums.EventOfferExpiryWarning:
		var p payloads.OfferExpiryWarningEvent
		if err := json.Unmarshal(envelope.Data, &p); err != nil {
			return nil, err
		}
		message := fmt.Sprintf("An offer expires in about %d hours.", p.HoursLeft)
		return []models.Notification{
			notify(p.BuyerID, enums.NotificationOfferExpiring, "Offer expiring soon", message, p.OfferID, p.ListingID),
			notify(p.SellerID, enums.NotificationOfferExpiring, "Offer expiring soon", message, p.OfferID, p.ListingID),
		}, nil
	case enums.EventReservationExpired:
		var p payloads.ReservationExpiredEvent
		if err := json.Unmarshal(envelope.Data, &p); err != nil {
			return nil, err
		}
		return []models.Notification{notify(
			p.BuyerID, enums.NotificationReservationExpired,
			"Reservation expired",
			"Your reservation lapsed and the listing is available again.",
			p.OfferID, p.ListingID,
		)}, nil
	default:
		return nil, nil
	}
}

func notify(userID uuid.UUID, kind enums.NotificationKind, title, message string, offerID, listingID uuid.UUID) models.Notification {
	return models.Notification{
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Message:   message,
		OfferID:   &offerID,
		ListingID: &listingID,
	}
}

func formatAmount(amountCents int64, currency enums.Currency) string {
	return fmt.Sprintf("%s %d.%02d", currency, amountCents/100, amountCents%100)
}
