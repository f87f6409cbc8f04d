package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/sonicpact/sonicpact/internal/app/domain/deal"
	"github.com/sonicpact/sonicpact/internal/app/storage"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestGetPlatformNotFound(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("FROM platforms").
		WithArgs("platform").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := store.GetPlatform(context.Background(), "platform"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestSwapDealConflict(t *testing.T) {
	store, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE deals").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM deals").
		WithArgs("deal:platform:0").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "studio", "celebrity", "platform_id",
			"payment_amount", "duration_days", "usage_rights", "exclusivity",
			"name", "description", "status", "funded_amount",
			"created_at", "updated_at", "version",
		}).AddRow(
			"deal:platform:0", "studio", "celebrity", "platform",
			1_000_000, 30, "limited", true,
			"Name", "", "accepted", 0,
			now, now, 3,
		))

	d := deal.Deal{ID: "deal:platform:0", Status: deal.StatusFunded, FundedAmount: 1_000_000}
	if _, err := store.SwapDeal(context.Background(), 2, d); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected conflict when a newer version exists, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetDealRejectsUnknownStatus(t *testing.T) {
	store, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery("FROM deals").
		WithArgs("deal:platform:0").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "studio", "celebrity", "platform_id",
			"payment_amount", "duration_days", "usage_rights", "exclusivity",
			"name", "description", "status", "funded_amount",
			"created_at", "updated_at", "version",
		}).AddRow(
			"deal:platform:0", "studio", "celebrity", "platform",
			1_000_000, 30, "limited", true,
			"Name", "", "limbo", 0,
			now, now, 1,
		))

	if _, err := store.GetDeal(context.Background(), "deal:platform:0"); err == nil {
		t.Fatal("corrupt status must fail loudly, not default")
	}
}
