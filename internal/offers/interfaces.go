package offers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oja-market/oja-backend/pkg/db/models"
	"github.com/oja-market/oja-backend/pkg/enums"
	"github.com/oja-market/oja-backend/pkg/pagination"
)

// Repository defines persistence operations for the offers table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, offer *models.Offer) (*models.Offer, error)
	Find(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	Update(ctx context.Context, offer *models.Offer) error
	CountByBuyerAndListing(ctx context.Context, buyerID, listingID uuid.UUID) (int64, error)
	HasPending(ctx context.Context, buyerID, listingID uuid.UUID) (bool, error)
	FindAncestry(ctx context.Context, leafID uuid.UUID) ([]models.Offer, error)
	List(ctx context.Context, params listOffersParams) ([]models.Offer, *pagination.Cursor, error)
	FindPendingExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Offer, error)
	FindPendingExpiringBetween(ctx context.Context, from, until time.Time, limit int) ([]models.Offer, error)
}

// ListingStore is the slice of the listings domain the offer flow needs.
type ListingStore interface {
	Find(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	FindForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Listing, error)
	UpdateStatusTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, status enums.ListingStatus) error
}

// ReservationCreator inserts the hold produced by acceptance.
type ReservationCreator interface {
	CreateTx(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) (*models.Reservation, error)
}
