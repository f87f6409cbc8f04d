package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sonicpact/sonicpact/internal/app/domain/deal"
	"github.com/sonicpact/sonicpact/internal/app/domain/platform"
	"github.com/sonicpact/sonicpact/internal/app/storage"

	"github.com/lib/pq"
)

// Store implements the storage interfaces backed by PostgreSQL.
// Compare-and-swap is an optimistic version column: updates guard on the
// version they read and bump it in the same statement.
type Store struct {
	db *sql.DB
}

var _ storage.PlatformStore = (*Store)(nil)
var _ storage.DealStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// --- PlatformStore ----------------------------------------------------------

func (s *Store) CreatePlatform(ctx context.Context, reg platform.Registry) (platform.Registry, error) {
	now := time.Now().UTC()
	reg.CreatedAt = now
	reg.UpdatedAt = now
	reg.Version = 1

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO platforms (id, authority, fee_rate_bp, total_deals, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, reg.ID, reg.Authority, reg.FeeRateBasisPoints, reg.TotalDeals, reg.CreatedAt, reg.UpdatedAt, reg.Version)
	if err != nil {
		if isUniqueViolation(err) {
			return platform.Registry{}, storage.ErrAlreadyExists
		}
		return platform.Registry{}, err
	}
	return reg, nil
}

func (s *Store) GetPlatform(ctx context.Context, id string) (platform.Registry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, authority, fee_rate_bp, total_deals, created_at, updated_at, version
		FROM platforms
		WHERE id = $1
	`, id)

	var reg platform.Registry
	err := row.Scan(&reg.ID, &reg.Authority, &reg.FeeRateBasisPoints, &reg.TotalDeals,
		&reg.CreatedAt, &reg.UpdatedAt, &reg.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return platform.Registry{}, storage.ErrNotFound
	}
	if err != nil {
		return platform.Registry{}, err
	}
	return reg, nil
}

func (s *Store) SwapPlatform(ctx context.Context, expectedVersion int64, reg platform.Registry) (platform.Registry, error) {
	reg.UpdatedAt = time.Now().UTC()
	reg.Version = expectedVersion + 1

	result, err := s.db.ExecContext(ctx, `
		UPDATE platforms
		SET authority = $3, fee_rate_bp = $4, total_deals = $5, updated_at = $6, version = $7
		WHERE id = $1 AND version = $2
	`, reg.ID, expectedVersion, reg.Authority, reg.FeeRateBasisPoints, reg.TotalDeals,
		reg.UpdatedAt, reg.Version)
	if err != nil {
		return platform.Registry{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		if _, err := s.GetPlatform(ctx, reg.ID); errors.Is(err, storage.ErrNotFound) {
			return platform.Registry{}, storage.ErrNotFound
		}
		return platform.Registry{}, storage.ErrConflict
	}
	return reg, nil
}

// --- DealStore --------------------------------------------------------------

func (s *Store) CreateDeal(ctx context.Context, d deal.Deal) (deal.Deal, error) {
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	d.Version = 1

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO deals (
			id, studio, celebrity, platform_id,
			payment_amount, duration_days, usage_rights, exclusivity,
			name, description, status, funded_amount,
			created_at, updated_at, version
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, d.ID, d.Studio, d.Celebrity, d.Platform,
		d.Terms.PaymentAmount, d.Terms.DurationDays, string(d.Terms.UsageRights), d.Terms.Exclusivity,
		d.Name, d.Description, string(d.Status), d.FundedAmount,
		d.CreatedAt, d.UpdatedAt, d.Version)
	if err != nil {
		if isUniqueViolation(err) {
			return deal.Deal{}, storage.ErrAlreadyExists
		}
		return deal.Deal{}, err
	}
	return d, nil
}

func (s *Store) GetDeal(ctx context.Context, id string) (deal.Deal, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, studio, celebrity, platform_id,
			payment_amount, duration_days, usage_rights, exclusivity,
			name, description, status, funded_amount,
			created_at, updated_at, version
		FROM deals
		WHERE id = $1
	`, id)
	return scanDeal(row)
}

func (s *Store) SwapDeal(ctx context.Context, expectedVersion int64, d deal.Deal) (deal.Deal, error) {
	d.UpdatedAt = time.Now().UTC()
	d.Version = expectedVersion + 1

	result, err := s.db.ExecContext(ctx, `
		UPDATE deals
		SET status = $3, funded_amount = $4, updated_at = $5, version = $6
		WHERE id = $1 AND version = $2
	`, d.ID, expectedVersion, string(d.Status), d.FundedAmount, d.UpdatedAt, d.Version)
	if err != nil {
		return deal.Deal{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		if _, err := s.GetDeal(ctx, d.ID); errors.Is(err, storage.ErrNotFound) {
			return deal.Deal{}, storage.ErrNotFound
		}
		return deal.Deal{}, storage.ErrConflict
	}
	return d, nil
}

func (s *Store) ListDeals(ctx context.Context, party string) ([]deal.Deal, error) {
	query := `
		SELECT id, studio, celebrity, platform_id,
			payment_amount, duration_days, usage_rights, exclusivity,
			name, description, status, funded_amount,
			created_at, updated_at, version
		FROM deals
	`
	var (
		rows *sql.Rows
		err  error
	)
	if party == "" {
		rows, err = s.db.QueryContext(ctx, query+` ORDER BY id`)
	} else {
		rows, err = s.db.QueryContext(ctx, query+` WHERE studio = $1 OR celebrity = $1 ORDER BY id`, party)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []deal.Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDeal(row scanner) (deal.Deal, error) {
	var (
		d           deal.Deal
		usageRights string
		status      string
	)
	err := row.Scan(&d.ID, &d.Studio, &d.Celebrity, &d.Platform,
		&d.Terms.PaymentAmount, &d.Terms.DurationDays, &usageRights, &d.Terms.Exclusivity,
		&d.Name, &d.Description, &status, &d.FundedAmount,
		&d.CreatedAt, &d.UpdatedAt, &d.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return deal.Deal{}, storage.ErrNotFound
	}
	if err != nil {
		return deal.Deal{}, err
	}

	if d.Status, err = deal.ParseStatus(status); err != nil {
		return deal.Deal{}, err
	}
	if d.Terms.UsageRights, err = deal.ParseUsageRights(usageRights); err != nil {
		return deal.Deal{}, err
	}
	return d, nil
}
