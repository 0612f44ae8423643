/*
pos.go - Menu and order persistence

Orders write two tables: pos_orders for the header and pos_order_items
for the snapshot of what was sold at which price. Items are replaced
wholesale on save; the header's (order, position) key keeps line order.
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kalongo/folio-engine/hotel"
	"github.com/kalongo/folio-engine/money"
	"github.com/kalongo/folio-engine/pos"
)

// =============================================================================
// MENU ITEMS
// =============================================================================

func (s *Store) SaveMenuItem(ctx context.Context, m pos.MenuItem) error {
	defer s.lock()()

	_, err := s.q.ExecContext(ctx, `
		INSERT OR REPLACE INTO menu_items (id, sector, name, category, price, available)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.Sector, m.Name, m.Category, m.Price.String(), m.Available,
	)
	if err != nil {
		return fmt.Errorf("failed to save menu item: %w", err)
	}
	return nil
}

func (s *Store) GetMenuItem(ctx context.Context, id string) (*pos.MenuItem, error) {
	defer s.rlock()()

	var m pos.MenuItem
	var price string
	err := s.q.QueryRowContext(ctx, `
		SELECT id, sector, name, category, price, available
		FROM menu_items WHERE id = ?`, id,
	).Scan(&m.ID, &m.Sector, &m.Name, &m.Category, &price, &m.Available)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get menu item: %w", err)
	}
	if m.Price, err = money.Parse(price); err != nil {
		return nil, fmt.Errorf("bad price on menu item %s: %w", m.ID, err)
	}
	return &m, nil
}

func (s *Store) ListMenuItems(ctx context.Context, sector hotel.Sector) ([]pos.MenuItem, error) {
	defer s.rlock()()

	query := `SELECT id, sector, name, category, price, available FROM menu_items`
	var args []any
	if sector != "" {
		query += ` WHERE sector = ?`
		args = append(args, sector)
	}
	query += ` ORDER BY sector, category, name`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}
	defer rows.Close()

	var out []pos.MenuItem
	for rows.Next() {
		var m pos.MenuItem
		var price string
		if err := rows.Scan(&m.ID, &m.Sector, &m.Name, &m.Category, &price, &m.Available); err != nil {
			return nil, err
		}
		if m.Price, err = money.Parse(price); err != nil {
			return nil, fmt.Errorf("bad price on menu item %s: %w", m.ID, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// =============================================================================
// ORDERS
// =============================================================================

// SaveOrder inserts or replaces an order and its item snapshot.
func (s *Store) SaveOrder(ctx context.Context, o pos.Order) error {
	defer s.lock()()

	_, err := s.q.ExecContext(ctx, `
		INSERT OR REPLACE INTO pos_orders
		(id, number, sector, status, intent, booking_id, charge_id, payment_id,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.Number, o.Sector, o.Status, o.Intent, o.BookingID,
		o.ChargeID, o.PaymentID, formatTime(o.CreatedAt), formatTime(o.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}

	if _, err := s.q.ExecContext(ctx,
		`DELETE FROM pos_order_items WHERE order_id = ?`, o.ID); err != nil {
		return fmt.Errorf("failed to clear order items: %w", err)
	}
	for i, item := range o.Items {
		_, err := s.q.ExecContext(ctx, `
			INSERT INTO pos_order_items
			(order_id, position, menu_item_id, name, quantity, unit_price)
			VALUES (?, ?, ?, ?, ?, ?)`,
			o.ID, i, item.MenuItemID, item.Name, item.Quantity, item.UnitPrice.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to save order item: %w", err)
		}
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*pos.Order, error) {
	defer s.rlock()()

	row := s.q.QueryRowContext(ctx, `
		SELECT id, number, sector, status, intent, booking_id, charge_id,
		       payment_id, created_at, updated_at
		FROM pos_orders WHERE id = ?`, id)

	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if o.Items, err = s.loadOrderItems(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Store) ListOrders(ctx context.Context, sector hotel.Sector, status pos.OrderStatus) ([]pos.Order, error) {
	defer s.rlock()()

	query := `
		SELECT id, number, sector, status, intent, booking_id, charge_id,
		       payment_id, created_at, updated_at
		FROM pos_orders`
	var (
		where []string
		args  []any
	)
	if sector != "" {
		where = append(where, `sector = ?`)
		args = append(args, sector)
	}
	if status != "" {
		where = append(where, `status = ?`)
		args = append(args, status)
	}
	for i, w := range where {
		if i == 0 {
			query += ` WHERE ` + w
		} else {
			query += ` AND ` + w
		}
	}
	query += ` ORDER BY number DESC`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var out []pos.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].Items, err = s.loadOrderItems(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// NextOrderNumber hands out the next human-facing order number. Callers
// run this inside WithTx so two orders never share a number.
func (s *Store) NextOrderNumber(ctx context.Context) (int64, error) {
	defer s.rlock()()

	var n int64
	err := s.q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(number), 0) + 1 FROM pos_orders`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate order number: %w", err)
	}
	return n, nil
}

func scanOrder(row scanner) (*pos.Order, error) {
	var o pos.Order
	var createdAt, updatedAt string
	err := row.Scan(&o.ID, &o.Number, &o.Sector, &o.Status, &o.Intent,
		&o.BookingID, &o.ChargeID, &o.PaymentID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	o.CreatedAt = parseTime(createdAt)
	o.UpdatedAt = parseTime(updatedAt)
	return &o, nil
}

func (s *Store) loadOrderItems(ctx context.Context, orderID string) ([]pos.OrderItem, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT menu_item_id, name, quantity, unit_price
		FROM pos_order_items WHERE order_id = ? ORDER BY position`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	var out []pos.OrderItem
	for rows.Next() {
		var item pos.OrderItem
		var unitPrice string
		if err := rows.Scan(&item.MenuItemID, &item.Name, &item.Quantity, &unitPrice); err != nil {
			return nil, err
		}
		if item.UnitPrice, err = money.Parse(unitPrice); err != nil {
			return nil, fmt.Errorf("bad unit price on order %s item: %w", orderID, err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
