package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testModel struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to keep 1 record, got %d", count)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	pqErr := &pq.Error{Code: "23505", Constraint: "ux_offers_pending_buyer_listing"}

	if !IsUniqueViolation(pqErr, "") {
		t.Fatal("expected unique violation to match without constraint")
	}
	if !IsUniqueViolation(pqErr, "ux_offers_pending_buyer_listing") {
		t.Fatal("expected unique violation to match named constraint")
	}
	if IsUniqueViolation(pqErr, "ux_other") {
		t.Fatal("expected mismatch for a different constraint")
	}

	wrapped := fmt.Errorf("insert offer: %w", pqErr)
	if !IsUniqueViolation(wrapped, "ux_offers_pending_buyer_listing") {
		t.Fatal("expected wrapped pq error to match")
	}

	textual := errors.New(`ERROR: duplicate key value violates unique constraint "ux_reservations_offer"`)
	if !IsUniqueViolation(textual, "ux_reservations_offer") {
		t.Fatal("expected textual error to match by constraint name")
	}
	if IsUniqueViolation(nil, "") {
		t.Fatal("nil error should never match")
	}
}
