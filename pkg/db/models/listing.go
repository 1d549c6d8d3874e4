package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/oja-market/oja-backend/pkg/enums"
)

// Listing is the marketplace item an offer negotiates over. Only the fields
// the offer flow reads and mutates live here.
type Listing struct {
	ID         uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID   uuid.UUID           `gorm:"column:seller_id;type:uuid;not null"`
	Title      string              `gorm:"column:title;type:text;not null"`
	PriceCents int64               `gorm:"column:price_cents;not null"`
	Currency   enums.Currency      `gorm:"column:currency;type:text;not null;default:'NGN'"`
	Status     enums.ListingStatus `gorm:"column:status;type:listing_status;not null;default:'active'"`
	CreatedAt  time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
