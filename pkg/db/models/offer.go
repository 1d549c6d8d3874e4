package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/oja-market/oja-backend/pkg/enums"
)

// Offer is one negotiation proposal from a buyer against a listing. Counter
// offers link back to the offer they respond to through ParentOfferID,
// forming a singly-linked ancestry chain rooted at the first offer.
type Offer struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ListingID         uuid.UUID         `gorm:"column:listing_id;type:uuid;not null"`
	BuyerID           uuid.UUID         `gorm:"column:buyer_id;type:uuid;not null"`
	SellerID          uuid.UUID         `gorm:"column:seller_id;type:uuid;not null"`
	AmountCents       int64             `gorm:"column:amount_cents;not null"`
	Currency          enums.Currency    `gorm:"column:currency;type:text;not null;default:'NGN'"`
	Message           *string           `gorm:"column:message"`
	Status            enums.OfferStatus `gorm:"column:status;type:offer_status;not null;default:'pending'"`
	ParentOfferID     *uuid.UUID        `gorm:"column:parent_offer_id;type:uuid"`
	RejectionReason   *string           `gorm:"column:rejection_reason"`
	ResponseMessage   *string           `gorm:"column:response_message"`
	ExpiresAt         time.Time         `gorm:"column:expires_at;not null"`
	RespondedAt       *time.Time        `gorm:"column:responded_at"`
	WithdrawnAt       *time.Time        `gorm:"column:withdrawn_at"`
	LastWarningSentAt *time.Time        `gorm:"column:last_warning_sent_at"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
