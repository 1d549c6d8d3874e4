package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oja-market/oja-backend/pkg/db/models"
	"github.com/oja-market/oja-backend/pkg/enums"
)

func setupOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedOutboxEvent(t *testing.T, db *gorm.DB, attempts int, publishedAt *time.Time, created time.Time) models.OutboxEvent {
	t.Helper()

	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOfferCreated,
		AggregateType: enums.AggregateOffer,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"version":1}`),
		CreatedAt:     created,
		PublishedAt:   publishedAt,
		AttemptCount:  attempts,
	}
	require.NoError(t, db.Create(&event).Error)
	return event
}

func TestFetchUnpublishedSkipsPublishedAndExhaustedRows(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)
	now := time.Now().UTC()

	fresh := seedOutboxEvent(t, db, 0, nil, now.Add(-2*time.Minute))
	seedOutboxEvent(t, db, 5, nil, now.Add(-time.Minute))
	published := now.Add(-30 * time.Second)
	seedOutboxEvent(t, db, 1, &published, now.Add(-time.Minute))

	rows, err := repo.FetchUnpublished(10, 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, fresh.ID, rows[0].ID)
}

func TestFetchUnpublishedOrdersByCreationAndLimits(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)
	now := time.Now().UTC()

	newest := seedOutboxEvent(t, db, 0, nil, now.Add(-time.Minute))
	oldest := seedOutboxEvent(t, db, 0, nil, now.Add(-3*time.Minute))
	middle := seedOutboxEvent(t, db, 0, nil, now.Add(-2*time.Minute))

	rows, err := repo.FetchUnpublished(2, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, oldest.ID, rows[0].ID)
	assert.Equal(t, middle.ID, rows[1].ID)
	_ = newest
}

func TestMarkFailedIncrementsAttempts(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)
	event := seedOutboxEvent(t, db, 2, nil, time.Now().UTC())

	require.NoError(t, repo.MarkFailed(event.ID, errors.New("broker unavailable")))

	var stored models.OutboxEvent
	require.NoError(t, db.First(&stored, "id = ?", event.ID).Error)
	assert.Equal(t, 3, stored.AttemptCount)
	require.NotNil(t, stored.LastError)
	assert.Equal(t, "broker unavailable", *stored.LastError)
}

func TestMarkTerminalPinsAttemptCeiling(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)
	event := seedOutboxEvent(t, db, 1, nil, time.Now().UTC())

	require.NoError(t, repo.MarkTerminal(event.ID, errors.New("unknown event type"), 10))

	rows, err := repo.FetchUnpublished(10, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)

	var stored models.OutboxEvent
	require.NoError(t, db.First(&stored, "id = ?", event.ID).Error)
	assert.Equal(t, 10, stored.AttemptCount)
}

func TestMarkPublishedExcludesRowFromFetch(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)
	event := seedOutboxEvent(t, db, 0, nil, time.Now().UTC())

	require.NoError(t, repo.MarkPublished(event.ID))

	rows, err := repo.FetchUnpublished(10, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDeletePublishedBefore(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)
	now := time.Now().UTC()
	cutoff := now.Add(-24 * time.Hour)

	oldPublished := now.Add(-48 * time.Hour)
	seedOutboxEvent(t, db, 1, &oldPublished, now.Add(-48*time.Hour))

	recentPublished := now.Add(-time.Hour)
	kept := seedOutboxEvent(t, db, 1, &recentPublished, now.Add(-time.Hour))

	// dead letter: exhausted its attempts long before the cutoff
	seedOutboxEvent(t, db, 10, nil, now.Add(-72*time.Hour))

	pending := seedOutboxEvent(t, db, 2, nil, now.Add(-72*time.Hour))

	deleted, err := repo.DeletePublishedBefore(context.Background(), nil, cutoff, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	var remaining []models.OutboxEvent
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 2)
	ids := []uuid.UUID{remaining[0].ID, remaining[1].ID}
	assert.Contains(t, ids, kept.ID)
	assert.Contains(t, ids, pending.ID)
}
