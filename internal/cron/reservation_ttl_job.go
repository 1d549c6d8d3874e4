package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oja-market/oja-backend/internal/reservations"
	"github.com/oja-market/oja-backend/pkg/db/models"
	"github.com/oja-market/oja-backend/pkg/enums"
	"github.com/oja-market/oja-backend/pkg/logger"
	"github.com/oja-market/oja-backend/pkg/metrics"
	"github.com/oja-market/oja-backend/pkg/outbox"
	"github.com/oja-market/oja-backend/pkg/outbox/payloads"
)

type expiredReservationReader interface {
	FindActiveExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Reservation, error)
}

type listingReleaser interface {
	UpdateStatusTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, status enums.ListingStatus) error
}

type transactionalReservationRepo interface {
	Find(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ReservationStatus) error
}

type reservationRepoFactory func(tx *gorm.DB) transactionalReservationRepo

func defaultReservationRepo(tx *gorm.DB) transactionalReservationRepo {
	return reservations.NewRepository(tx)
}

// ReservationTTLJobParams configure the reservation expiry sweep.
type ReservationTTLJobParams struct {
	Logger        *logger.Logger
	DB            txRunner
	ExpiredReader expiredReservationReader
	Listings      listingReleaser
	Outbox        outboxEmitter
	Metrics       *metrics.CronJobMetrics
	RepoFactory   reservationRepoFactory
}

// NewReservationTTLJob builds the cron job that lapses stale holds and
// releases their listings back to the market.
func NewReservationTTLJob(params ReservationTTLJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.ExpiredReader == nil {
		return nil, fmt.Errorf("expired reservations reader required")
	}
	if params.Listings == nil {
		return nil, fmt.Errorf("listings repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	repoFactory := params.RepoFactory
	if repoFactory == nil {
		repoFactory = defaultReservationRepo
	}
	return &reservationTTLJob{
		logg:          params.Logger,
		db:            params.DB,
		expiredReader: params.ExpiredReader,
		listings:      params.Listings,
		outbox:        params.Outbox,
		metrics:       params.Metrics,
		repoFactory:   repoFactory,
		now:           time.Now,
	}, nil
}

type reservationTTLJob struct {
	logg          *logger.Logger
	db            txRunner
	expiredReader expiredReservationReader
	listings      listingReleaser
	outbox        outboxEmitter
	metrics       *metrics.CronJobMetrics
	repoFactory   reservationRepoFactory
	now           func() time.Time
}

func (j *reservationTTLJob) Name() string { return "reservation-ttl" }

func (j *reservationTTLJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	stale, err := j.expiredReader.FindActiveExpiredBefore(ctx, now, sweepBatchSize)
	if err != nil {
		return fmt.Errorf("query expired reservations: %w", err)
	}
	count := 0
	for _, reservation := range stale {
		released, err := j.releaseReservation(ctx, reservation.ID)
		if err != nil {
			return err
		}
		if released {
			count++
		}
	}
	if j.metrics != nil {
		j.metrics.AddProcessed(j.Name(), count)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count})
	j.logg.Info(logCtx, "reservation expiration loop complete")
	return nil
}

func (j *reservationTTLJob) releaseReservation(ctx context.Context, reservationID uuid.UUID) (bool, error) {
	released := false
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.repoFactory(tx)
		current, err := repo.Find(ctx, reservationID)
		if err != nil {
			return err
		}
		now := j.now().UTC()
		if current.Status != enums.ReservationStatusActive || current.ExpiresAt.After(now) {
			return nil
		}
		if err := repo.UpdateStatus(ctx, current.ID, enums.ReservationStatusExpired); err != nil {
			return err
		}
		if err := j.listings.UpdateStatusTx(ctx, tx, current.ListingID, enums.ListingStatusActive); err != nil {
			return err
		}
		released = true
		return j.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReservationExpired,
			AggregateType: enums.AggregateReservation,
			AggregateID:   current.ID,
			OccurredAt:    now,
			Data: payloads.ReservationExpiredEvent{
				ReservationID: current.ID,
				ListingID:     current.ListingID,
				BuyerID:       current.BuyerID,
				OfferID:       current.OfferID,
				ExpiredAt:     now,
			},
		})
	})
	return released, err
}
