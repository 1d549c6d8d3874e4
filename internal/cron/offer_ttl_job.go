package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/oja-market/oja-backend/internal/offers"
	"github.com/oja-market/oja-backend/pkg/db/models"
	"github.com/oja-market/oja-backend/pkg/enums"
	"github.com/oja-market/oja-backend/pkg/logger"
	"github.com/oja-market/oja-backend/pkg/metrics"
	"github.com/oja-market/oja-backend/pkg/negotiation"
	"github.com/oja-market/oja-backend/pkg/outbox"
	"github.com/oja-market/oja-backend/pkg/outbox/payloads"
)

const sweepBatchSize = 500

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type pendingOfferReader interface {
	FindPendingExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Offer, error)
	FindPendingExpiringBetween(ctx context.Context, from, until time.Time, limit int) ([]models.Offer, error)
}

type transactionalOfferRepo interface {
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	Update(ctx context.Context, offer *models.Offer) error
}

type offerRepoFactory func(tx *gorm.DB) transactionalOfferRepo

func defaultOfferRepo(tx *gorm.DB) transactionalOfferRepo {
	return offers.NewRepository(tx)
}

// OfferTTLJobParams configure the offer expiry sweep.
type OfferTTLJobParams struct {
	Logger        *logger.Logger
	DB            txRunner
	PendingReader pendingOfferReader
	Outbox        outboxEmitter
	Policy        negotiation.Policy
	Metrics       *metrics.CronJobMetrics
	RepoFactory   offerRepoFactory
}

// NewOfferTTLJob builds the cron job that expires stale pending offers and
// warns the parties before the deadline.
func NewOfferTTLJob(params OfferTTLJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.PendingReader == nil {
		return nil, fmt.Errorf("pending offers reader required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	repoFactory := params.RepoFactory
	if repoFactory == nil {
		repoFactory = defaultOfferRepo
	}
	return &offerTTLJob{
		logg:          params.Logger,
		db:            params.DB,
		pendingReader: params.PendingReader,
		outbox:        params.Outbox,
		policy:        params.Policy,
		metrics:       params.Metrics,
		repoFactory:   repoFactory,
		now:           time.Now,
	}, nil
}

type offerTTLJob struct {
	logg          *logger.Logger
	db            txRunner
	pendingReader pendingOfferReader
	outbox        outboxEmitter
	policy        negotiation.Policy
	metrics       *metrics.CronJobMetrics
	repoFactory   offerRepoFactory
	now           func() time.Time
}

func (j *offerTTLJob) Name() string { return "offer-ttl" }

func (j *offerTTLJob) Run(ctx context.Context) error {
	var errs []error
	if err := j.expirePendingOffers(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := j.warnExpiringOffers(ctx); err != nil {
		errs = append(errs, err)
	}
	return multierr.Combine(errs...)
}

func (j *offerTTLJob) expirePendingOffers(ctx context.Context) error {
	now := j.now().UTC()
	stale, err := j.pendingReader.FindPendingExpiredBefore(ctx, now, sweepBatchSize)
	if err != nil {
		return fmt.Errorf("query expired pending offers: %w", err)
	}
	count := 0
	for _, offer := range stale {
		expired, err := j.expireOffer(ctx, offer.ID)
		if err != nil {
			return err
		}
		if expired {
			count++
		}
	}
	if j.metrics != nil {
		j.metrics.AddProcessed(j.Name(), count)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count})
	j.logg.Info(logCtx, "offer expiration loop complete")
	return nil
}

func (j *offerTTLJob) expireOffer(ctx context.Context, offerID uuid.UUID) (bool, error) {
	expired := false
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.repoFactory(tx)
		current, err := repo.FindForUpdate(ctx, offerID)
		if err != nil {
			return err
		}
		now := j.now().UTC()
		// Re-check under the lock: the recipient may have responded between
		// the sweep query and this transaction.
		if current.Status != enums.OfferStatusPending || current.ExpiresAt.After(now) {
			return nil
		}
		current.Status = enums.OfferStatusExpired
		if err := repo.Update(ctx, current); err != nil {
			return err
		}
		expired = true
		return j.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOfferExpired,
			AggregateType: enums.AggregateOffer,
			AggregateID:   current.ID,
			OccurredAt:    now,
			Data: payloads.OfferExpiredEvent{
				OfferID:   current.ID,
				ListingID: current.ListingID,
				BuyerID:   current.BuyerID,
				SellerID:  current.SellerID,
				ExpiredAt: now,
			},
		})
	})
	return expired, err
}

func (j *offerTTLJob) warnExpiringOffers(ctx context.Context) error {
	now := j.now().UTC()
	expiring, err := j.pendingReader.FindPendingExpiringBetween(ctx, now, now.Add(j.policy.WarningWindow), sweepBatchSize)
	if err != nil {
		return fmt.Errorf("query expiring pending offers: %w", err)
	}
	count := 0
	for _, offer := range expiring {
		if !j.policy.ShouldWarn(offer.ExpiresAt, now, offer.LastWarningSentAt) {
			continue
		}
		warned, err := j.warnOffer(ctx, offer.ID)
		if err != nil {
			return err
		}
		if warned {
			count++
		}
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count})
	j.logg.Info(logCtx, "offer expiry warning loop complete")
	return nil
}

func (j *offerTTLJob) warnOffer(ctx context.Context, offerID uuid.UUID) (bool, error) {
	warned := false
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.repoFactory(tx)
		current, err := repo.FindForUpdate(ctx, offerID)
		if err != nil {
			return err
		}
		now := j.now().UTC()
		if current.Status != enums.OfferStatusPending {
			return nil
		}
		if !j.policy.ShouldWarn(current.ExpiresAt, now, current.LastWarningSentAt) {
			return nil
		}
		current.LastWarningSentAt = &now
		if err := repo.Update(ctx, current); err != nil {
			return err
		}
		warned = true
		hoursLeft := int(current.ExpiresAt.Sub(now).Hours())
		return j.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOfferExpiryWarning,
			AggregateType: enums.AggregateOffer,
			AggregateID:   current.ID,
			OccurredAt:    now,
			Data: payloads.OfferExpiryWarningEvent{
				OfferID:   current.ID,
				ListingID: current.ListingID,
				BuyerID:   current.BuyerID,
				SellerID:  current.SellerID,
				ExpiresAt: current.ExpiresAt,
				HoursLeft: hoursLeft,
			},
		})
	})
	return warned, err
}
