package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oja-market/oja-backend/pkg/db/models"
	"github.com/oja-market/oja-backend/pkg/enums"
	"github.com/oja-market/oja-backend/pkg/logger"
	"github.com/oja-market/oja-backend/pkg/outbox/payloads"
)

type fakeReservationReader struct {
	stale []models.Reservation
}

func (f *fakeReservationReader) FindActiveExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Reservation, error) {
	return f.stale, nil
}

type fakeReservationRepo struct {
	reservations map[uuid.UUID]*models.Reservation
	statuses     []enums.ReservationStatus
}

func (f *fakeReservationRepo) Find(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	reservation, ok := f.reservations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *reservation
	return &copied, nil
}

func (f *fakeReservationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ReservationStatus) error {
	f.statuses = append(f.statuses, status)
	f.reservations[id].Status = status
	return nil
}

type fakeListingReleaser struct {
	released []uuid.UUID
	statuses []enums.ListingStatus
}

func (f *fakeListingReleaser) UpdateStatusTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, status enums.ListingStatus) error {
	f.released = append(f.released, id)
	f.statuses = append(f.statuses, status)
	return nil
}

func newReservationTTLJob(t *testing.T, reader *fakeReservationReader, repo *fakeReservationRepo, listings *fakeListingReleaser, emitter *recordingEmitter) *reservationTTLJob {
	t.Helper()
	jobIface, err := NewReservationTTLJob(ReservationTTLJobParams{
		Logger:        logger.New(logger.Options{ServiceName: "test"}),
		DB:            cronFakeTxRunner{},
		ExpiredReader: reader,
		Listings:      listings,
		Outbox:        emitter,
		RepoFactory:   func(tx *gorm.DB) transactionalReservationRepo { return repo },
	})
	if err != nil {
		t.Fatalf("NewReservationTTLJob: %v", err)
	}
	job, ok := jobIface.(*reservationTTLJob)
	if !ok {
		t.Fatalf("expected reservationTTLJob, got %T", jobIface)
	}
	return job
}

func TestReservationTTLJobReleasesListing(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	reservation := &models.Reservation{
		ID:        uuid.New(),
		ListingID: uuid.New(),
		BuyerID:   uuid.New(),
		OfferID:   uuid.New(),
		Status:    enums.ReservationStatusActive,
		ExpiresAt: now.Add(-time.Hour),
	}
	repo := &fakeReservationRepo{reservations: map[uuid.UUID]*models.Reservation{reservation.ID: reservation}}
	reader := &fakeReservationReader{stale: []models.Reservation{*reservation}}
	listings := &fakeListingReleaser{}
	emitter := &recordingEmitter{}

	job := newReservationTTLJob(t, reader, repo, listings, emitter)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if reservation.Status != enums.ReservationStatusExpired {
		t.Fatalf("expected expired got %s", reservation.Status)
	}
	if len(listings.released) != 1 || listings.released[0] != reservation.ListingID {
		t.Fatalf("listing not released: %v", listings.released)
	}
	if listings.statuses[0] != enums.ListingStatusActive {
		t.Fatalf("listing should go back to active, got %s", listings.statuses[0])
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventReservationExpired {
		t.Fatalf("unexpected events %+v", emitter.events)
	}
	payload := emitter.events[0].Data.(payloads.ReservationExpiredEvent)
	if payload.ReservationID != reservation.ID || payload.OfferID != reservation.OfferID {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestReservationTTLJobSkipsCompletedReservation(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	reservation := &models.Reservation{
		ID:        uuid.New(),
		ListingID: uuid.New(),
		Status:    enums.ReservationStatusCompleted,
		ExpiresAt: now.Add(-time.Hour),
	}
	stale := *reservation
	stale.Status = enums.ReservationStatusActive
	repo := &fakeReservationRepo{reservations: map[uuid.UUID]*models.Reservation{reservation.ID: reservation}}
	reader := &fakeReservationReader{stale: []models.Reservation{stale}}
	listings := &fakeListingReleaser{}
	emitter := &recordingEmitter{}

	job := newReservationTTLJob(t, reader, repo, listings, emitter)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(listings.released) != 0 || len(emitter.events) != 0 {
		t.Fatal("completed reservation must not be released")
	}
}
