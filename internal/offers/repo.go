package offers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oja-market/oja-backend/pkg/db/models"
	"github.com/oja-market/oja-backend/pkg/enums"
	"github.com/oja-market/oja-backend/pkg/pagination"
)

const maxAncestryDepth = 64

type repository struct {
	db *gorm.DB
}

// NewRepository builds an offers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, offer *models.Offer) (*models.Offer, error) {
	if err := r.db.WithContext(ctx).Create(offer).Error; err != nil {
		return nil, err
	}
	return offer, nil
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&offer).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

// FindForUpdate locks the offer row for the rest of the transaction so
// concurrent accept/reject/withdraw calls serialize on it.
func (r *repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&offer).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *repository) Update(ctx context.Context, offer *models.Offer) error {
	return r.db.WithContext(ctx).Save(offer).Error
}

func (r *repository) CountByBuyerAndListing(ctx context.Context, buyerID, listingID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("buyer_id = ? AND listing_id = ? AND parent_offer_id IS NULL", buyerID, listingID).
		Count(&count).Error
	return count, err
}

func (r *repository) HasPending(ctx context.Context, buyerID, listingID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("buyer_id = ? AND listing_id = ? AND status = ?", buyerID, listingID, enums.OfferStatusPending).
		Count(&count).Error
	return count > 0, err
}

// FindAncestry loads the leaf offer plus every ancestor reachable through
// parent links. Ordering is left to the caller.
func (r *repository) FindAncestry(ctx context.Context, leafID uuid.UUID) ([]models.Offer, error) {
	var chain []models.Offer

	currentID := leafID
	for depth := 0; depth < maxAncestryDepth; depth++ {
		var offer models.Offer
		err := r.db.WithContext(ctx).Where("id = ?", currentID).First(&offer).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound && len(chain) > 0 {
				break
			}
			return nil, err
		}
		chain = append(chain, offer)
		if offer.ParentOfferID == nil {
			break
		}
		currentID = *offer.ParentOfferID
	}

	return chain, nil
}

// FindPendingExpiredBefore returns pending offers whose deadline passed
// before the cutoff, oldest deadline first, capped at limit.
func (r *repository) FindPendingExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Offer, error) {
	var offers []models.Offer
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at <= ?", enums.OfferStatusPending, cutoff).
		Order("expires_at ASC").
		Limit(limit).
		Find(&offers).Error
	return offers, err
}

// FindPendingExpiringBetween returns pending offers whose deadline falls
// inside (from, until], the candidates for an expiry warning.
func (r *repository) FindPendingExpiringBetween(ctx context.Context, from, until time.Time, limit int) ([]models.Offer, error) {
	var offers []models.Offer
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at > ? AND expires_at <= ?", enums.OfferStatusPending, from, until).
		Order("expires_at ASC").
		Limit(limit).
		Find(&offers).Error
	return offers, err
}

func (r *repository) List(ctx context.Context, params listOffersParams) ([]models.Offer, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Offer{})
	if params.Role == enums.RoleSeller {
		query = query.Where("seller_id = ?", params.UserID)
	} else {
		query = query.Where("buyer_id = ?", params.UserID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.ListingID != nil {
		query = query.Where("listing_id = ?", *params.ListingID)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var offers []models.Offer
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&offers).Error; err != nil {
		return nil, nil, err
	}

	if len(offers) > normalized {
		offers = offers[:normalized]
		last := offers[normalized-1]
		return offers, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return offers, nil, nil
}
