/*
reporting.go - Revenue reader queries and the tax configuration row
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kalongo/folio-engine/hotel"
	"github.com/kalongo/folio-engine/tax"
)

// =============================================================================
// REVENUE READER
// =============================================================================

// ChargesBetween returns charges posted in [from, to). Empty sector
// means all sectors; limit <= 0 disables paging.
func (s *Store) ChargesBetween(ctx context.Context, from, to time.Time, sector hotel.Sector, limit, offset int) ([]hotel.Charge, error) {
	defer s.rlock()()

	query := `
		SELECT id, folio_id, sector, description, quantity, unit_price,
		       net, vat, gross, pos_order_id, offsets_id, posted_at
		FROM charges
		WHERE posted_at >= ? AND posted_at < ?`
	args := []any{formatTime(from), formatTime(to)}
	if sector != "" {
		query += ` AND sector = ?`
		args = append(args, sector)
	}
	query += ` ORDER BY posted_at, id`
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	return s.queryCharges(ctx, query, args...)
}

// =============================================================================
// TAX CONFIGURATION
// =============================================================================

// TaxConfig returns the current tax configuration. A missing row means
// tax has never been configured: disabled.
func (s *Store) TaxConfig(ctx context.Context) (tax.Config, error) {
	defer s.rlock()()

	var (
		enabled bool
		rate    string
		mode    string
	)
	err := s.q.QueryRowContext(ctx,
		`SELECT enabled, rate, mode FROM tax_config WHERE id = 1`,
	).Scan(&enabled, &rate, &mode)
	if err == sql.ErrNoRows {
		return tax.Config{}, nil
	}
	if err != nil {
		return tax.Config{}, fmt.Errorf("failed to get tax config: %w", err)
	}

	r, err := decimal.NewFromString(rate)
	if err != nil {
		return tax.Config{}, fmt.Errorf("bad tax rate %q: %w", rate, err)
	}
	return tax.Config{Enabled: enabled, Rate: r, Mode: tax.Mode(mode)}, nil
}

// SetTaxConfig replaces the tax configuration. Charges already posted
// keep their stored breakdowns; only future postings see the change.
func (s *Store) SetTaxConfig(ctx context.Context, cfg tax.Config) error {
	defer s.lock()()

	_, err := s.q.ExecContext(ctx, `
		INSERT OR REPLACE INTO tax_config (id, enabled, rate, mode)
		VALUES (1, ?, ?, ?)`,
		cfg.Enabled, cfg.Rate.String(), cfg.Mode,
	)
	if err != nil {
		return fmt.Errorf("failed to set tax config: %w", err)
	}
	return nil
}
