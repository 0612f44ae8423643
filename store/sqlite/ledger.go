/*
ledger.go - Folio, charge, payment and receipt persistence

The charges and payments tables are append-only: this file contains no
UPDATE or DELETE against either. Folio rows update status only.
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/kalongo/folio-engine/hotel"
	"github.com/kalongo/folio-engine/money"
)

// =============================================================================
// FOLIOS
// =============================================================================

func (s *Store) CreateFolio(ctx context.Context, f hotel.Folio) error {
	defer s.lock()()

	var closedAt any
	if f.ClosedAt != nil {
		closedAt = formatTime(*f.ClosedAt)
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO folios (id, booking_id, status, closed_at, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		f.ID, f.BookingID, f.Status, closedAt, formatTime(f.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create folio: %w", err)
	}
	return nil
}

func (s *Store) GetFolio(ctx context.Context, id string) (*hotel.Folio, error) {
	defer s.rlock()()
	return s.getFolio(ctx, `id = ?`, id)
}

func (s *Store) GetFolioByBooking(ctx context.Context, bookingID string) (*hotel.Folio, error) {
	defer s.rlock()()
	return s.getFolio(ctx, `booking_id = ?`, bookingID)
}

func (s *Store) getFolio(ctx context.Context, where string, arg any) (*hotel.Folio, error) {
	var f hotel.Folio
	var closedAt sql.NullString
	var createdAt string
	err := s.q.QueryRowContext(ctx, `
		SELECT id, booking_id, status, closed_at, created_at
		FROM folios WHERE `+where, arg,
	).Scan(&f.ID, &f.BookingID, &f.Status, &closedAt, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get folio: %w", err)
	}
	if closedAt.Valid {
		t := parseTime(closedAt.String)
		f.ClosedAt = &t
	}
	f.CreatedAt = parseTime(createdAt)
	return &f, nil
}

func (s *Store) UpdateFolioStatus(ctx context.Context, id string, status hotel.FolioStatus, closedAt *time.Time) error {
	defer s.lock()()

	var closed any
	if closedAt != nil {
		closed = formatTime(*closedAt)
	}
	res, err := s.q.ExecContext(ctx,
		`UPDATE folios SET status = ?, closed_at = ? WHERE id = ?`,
		status, closed, id)
	if err != nil {
		return fmt.Errorf("failed to update folio status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return hotel.ErrFolioNotFound
	}
	return nil
}

// ListFolios returns folios filtered by status; empty means all.
func (s *Store) ListFolios(ctx context.Context, status hotel.FolioStatus) ([]hotel.Folio, error) {
	defer s.rlock()()

	query := `SELECT id, booking_id, status, closed_at, created_at FROM folios`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list folios: %w", err)
	}
	defer rows.Close()

	var out []hotel.Folio
	for rows.Next() {
		var f hotel.Folio
		var closedAt sql.NullString
		var createdAt string
		if err := rows.Scan(&f.ID, &f.BookingID, &f.Status, &closedAt, &createdAt); err != nil {
			return nil, err
		}
		if closedAt.Valid {
			t := parseTime(closedAt.String)
			f.ClosedAt = &t
		}
		f.CreatedAt = parseTime(createdAt)
		out = append(out, f)
	}
	return out, rows.Err()
}

// =============================================================================
// CHARGES
// =============================================================================

// AppendCharge adds a charge to the ledger. Offsetting an already-offset
// charge trips idx_charges_offsets and surfaces as ErrAlreadyOffset.
func (s *Store) AppendCharge(ctx context.Context, c hotel.Charge) error {
	defer s.lock()()

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO charges
		(id, folio_id, sector, description, quantity, unit_price,
		 net, vat, gross, pos_order_id, offsets_id, posted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.FolioID, c.Sector, c.Description, c.Quantity,
		c.UnitPrice.String(), c.Net.String(), c.VAT.String(), c.Gross.String(),
		c.POSOrderID, c.OffsetsID, formatTime(c.PostedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return hotel.ErrAlreadyOffset
		}
		return fmt.Errorf("failed to append charge: %w", err)
	}
	return nil
}

func (s *Store) LoadCharges(ctx context.Context, folioID string) ([]hotel.Charge, error) {
	defer s.rlock()()
	return s.queryCharges(ctx, `
		SELECT id, folio_id, sector, description, quantity, unit_price,
		       net, vat, gross, pos_order_id, offsets_id, posted_at
		FROM charges WHERE folio_id = ? ORDER BY posted_at, id`, folioID)
}

func (s *Store) GetCharge(ctx context.Context, id string) (*hotel.Charge, error) {
	defer s.rlock()()

	charges, err := s.queryCharges(ctx, `
		SELECT id, folio_id, sector, description, quantity, unit_price,
		       net, vat, gross, pos_order_id, offsets_id, posted_at
		FROM charges WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(charges) == 0 {
		return nil, nil
	}
	return &charges[0], nil
}

func (s *Store) queryCharges(ctx context.Context, query string, args ...any) ([]hotel.Charge, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query charges: %w", err)
	}
	defer rows.Close()

	var out []hotel.Charge
	for rows.Next() {
		var c hotel.Charge
		var unitPrice, net, vat, gross, postedAt string
		err := rows.Scan(&c.ID, &c.FolioID, &c.Sector, &c.Description, &c.Quantity,
			&unitPrice, &net, &vat, &gross, &c.POSOrderID, &c.OffsetsID, &postedAt)
		if err != nil {
			return nil, err
		}
		if c.UnitPrice, err = money.Parse(unitPrice); err != nil {
			return nil, fmt.Errorf("bad unit price on charge %s: %w", c.ID, err)
		}
		if c.Net, err = money.Parse(net); err != nil {
			return nil, fmt.Errorf("bad net on charge %s: %w", c.ID, err)
		}
		if c.VAT, err = money.Parse(vat); err != nil {
			return nil, fmt.Errorf("bad vat on charge %s: %w", c.ID, err)
		}
		if c.Gross, err = money.Parse(gross); err != nil {
			return nil, fmt.Errorf("bad gross on charge %s: %w", c.ID, err)
		}
		c.PostedAt = parseTime(postedAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

// =============================================================================
// PAYMENTS
// =============================================================================

func (s *Store) AppendPayment(ctx context.Context, p hotel.Payment) error {
	defer s.lock()()

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO payments (id, folio_id, amount, method, reference, confirmed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.FolioID, p.Amount.String(), p.Method, p.Reference, formatTime(p.ConfirmedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to append payment: %w", err)
	}
	return nil
}

func (s *Store) LoadPayments(ctx context.Context, folioID string) ([]hotel.Payment, error) {
	defer s.rlock()()

	rows, err := s.q.QueryContext(ctx, `
		SELECT id, folio_id, amount, method, reference, confirmed_at
		FROM payments WHERE folio_id = ? ORDER BY confirmed_at, id`, folioID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}
	defer rows.Close()

	var out []hotel.Payment
	for rows.Next() {
		var p hotel.Payment
		var amount, confirmedAt string
		if err := rows.Scan(&p.ID, &p.FolioID, &amount, &p.Method, &p.Reference, &confirmedAt); err != nil {
			return nil, err
		}
		if p.Amount, err = money.Parse(amount); err != nil {
			return nil, fmt.Errorf("bad amount on payment %s: %w", p.ID, err)
		}
		p.ConfirmedAt = parseTime(confirmedAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

// =============================================================================
// RECEIPTS
// =============================================================================

func (s *Store) SaveReceipt(ctx context.Context, r hotel.Receipt) error {
	defer s.lock()()

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO receipts (id, number, payment_id, amount, issued_at)
		VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.Number, r.PaymentID, r.Amount.String(), formatTime(r.IssuedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save receipt: %w", err)
	}
	return nil
}

// =============================================================================
// ERROR CLASSIFICATION
// =============================================================================

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
