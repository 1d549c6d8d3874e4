package listings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oja-market/oja-backend/pkg/db/models"
	"github.com/oja-market/oja-backend/pkg/enums"
)

// Repository defines persistence operations for the listings table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, listing *models.Listing) (*models.Listing, error)
	Find(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	FindForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Listing, error)
	UpdateStatusTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, status enums.ListingStatus) error
	ListBySeller(ctx context.Context, sellerID uuid.UUID, limit int) ([]models.Listing, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a listings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, listing *models.Listing) (*models.Listing, error) {
	if err := r.db.WithContext(ctx).Create(listing).Error; err != nil {
		return nil, err
	}
	return listing, nil
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&listing).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// FindForUpdate locks the listing row so an accept and a competing status
// change serialize on it.
func (r *repository) FindForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Listing, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	var listing models.Listing
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&listing).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *repository) UpdateStatusTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, status enums.ListingStatus) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	return db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()}).Error
}

func (r *repository) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit int) ([]models.Listing, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	var listings []models.Listing
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&listings).Error
	return listings, err
}
