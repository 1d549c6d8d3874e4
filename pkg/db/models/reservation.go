package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/oja-market/oja-backend/pkg/enums"
)

// Reservation is the temporary hold on a listing created exactly once when an
// offer is accepted. The unique index on OfferID enforces the once-only rule.
type Reservation struct {
	ID                 uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ListingID          uuid.UUID               `gorm:"column:listing_id;type:uuid;not null"`
	BuyerID            uuid.UUID               `gorm:"column:buyer_id;type:uuid;not null"`
	OfferID            uuid.UUID               `gorm:"column:offer_id;type:uuid;not null;uniqueIndex:ux_reservations_offer"`
	ReservedPriceCents int64                   `gorm:"column:reserved_price_cents;not null"`
	Status             enums.ReservationStatus `gorm:"column:status;type:reservation_status;not null;default:'active'"`
	ExpiresAt          time.Time               `gorm:"column:expires_at;not null"`
	CreatedAt          time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
