package reservations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oja-market/oja-backend/pkg/db/models"
	"github.com/oja-market/oja-backend/pkg/enums"
)

// Repository defines persistence operations for the reservations table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateTx(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) (*models.Reservation, error)
	Find(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	FindByOffer(ctx context.Context, offerID uuid.UUID) (*models.Reservation, error)
	FindActiveExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Reservation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ReservationStatus) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a reservations repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateTx(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) (*models.Reservation, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	if err := db.WithContext(ctx).Create(reservation).Error; err != nil {
		return nil, err
	}
	return reservation, nil
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&reservation).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *repository) FindByOffer(ctx context.Context, offerID uuid.UUID) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.WithContext(ctx).Where("offer_id = ?", offerID).First(&reservation).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// FindActiveExpiredBefore returns active reservations whose hold lapsed
// before the cutoff, oldest first, capped at limit.
func (r *repository) FindActiveExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", enums.ReservationStatusActive, cutoff).
		Order("expires_at ASC").
		Limit(limit).
		Find(&reservations).Error
	return reservations, err
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ReservationStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()}).Error
}
