/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  One store implements every persistence surface in the system. In
  production, the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

INTERFACES IMPLEMENTED:
  hotel.Store / hotel.TxStore:  inventory, bookings, folios, the ledger
  availability.ReservationStore: room interval claims
  pos.Store / pos.TxStore:       menus and orders
  revenue.Reader:                reporting queries
  tax config:                    TaxConfig / SetTaxConfig

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on the charges or payments tables
  - No DELETE statements on the charges or payments tables
  - Corrections via offsetting charges only
  - idx_charges_offsets makes double-offsetting a constraint violation

KEY TABLES:
  charges, payments:  immutable ledger rows (folio_id = '' for
                      standalone till sales)
  room_reservations:  room interval claims; released rows stay on record
  folios:             one per booking, status only ever moves forward
  pos_orders:         kitchen flow + backlinks to the ledger
  tax_config:         singleton row, snapshotted at each posting

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block, single writer at a time.

USAGE:
  store, err := sqlite.New("./data/kalongo.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := hotel.NewLedger(store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - hotel/store.go: interface definitions
  - ledger.go:      folio, charge, payment, receipt persistence
  - pos.go:         menu and order persistence
  - reporting.go:   revenue reader and tax config
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kalongo/folio-engine/availability"
	"github.com/kalongo/folio-engine/hotel"
	"github.com/kalongo/folio-engine/money"
)

// dbtx is the subset of *sql.DB and *sql.Tx the store queries through.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements all storage interfaces using SQLite. Inside WithTx,
// a transaction-scoped copy queries through the open *sql.Tx.
type Store struct {
	db   *sql.DB
	q    dbtx
	mu   *sync.RWMutex
	inTx bool
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, q: db, mu: &sync.RWMutex{}}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Reset clears all data. Demo scenarios only; never call in production.
func (s *Store) Reset(ctx context.Context) error {
	defer s.lock()()

	tables := []string{
		"receipts", "payments", "charges", "pos_order_items", "pos_orders",
		"menu_items", "folios", "room_reservations", "bookings", "guests",
		"rooms", "room_types", "tax_config",
	}
	for _, table := range tables {
		if _, err := s.q.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// lock takes the write lock unless a transaction already holds it.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// rlock takes the read lock unless a transaction holds the write lock.
func (s *Store) rlock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Inventory
	CREATE TABLE IF NOT EXISTS room_types (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		base_price TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		room_type_id TEXT NOT NULL,
		number TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL,
		floor TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_rooms_status ON rooms(status);

	CREATE TABLE IF NOT EXISTS guests (
		id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- Bookings: never deleted, only transitioned
	CREATE TABLE IF NOT EXISTS bookings (
		id TEXT PRIMARY KEY,
		guest_id TEXT NOT NULL,
		room_id TEXT NOT NULL,
		room_type_id TEXT NOT NULL,
		check_in TEXT NOT NULL,
		check_out TEXT NOT NULL,
		source TEXT NOT NULL,
		status TEXT NOT NULL,
		special_requests TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status);
	CREATE INDEX IF NOT EXISTS idx_bookings_room ON bookings(room_id);
	CREATE INDEX IF NOT EXISTS idx_bookings_guest ON bookings(guest_id);

	-- Room interval claims. Released rows stay for the audit trail;
	-- only active rows block new bookings.
	CREATE TABLE IF NOT EXISTS room_reservations (
		booking_id TEXT PRIMARY KEY,
		room_id TEXT NOT NULL,
		check_in TEXT NOT NULL,
		check_out TEXT NOT NULL,
		released_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_reservations_room
		ON room_reservations(room_id);
	CREATE INDEX IF NOT EXISTS idx_reservations_room_active
		ON room_reservations(room_id, check_in) WHERE released_at IS NULL;

	-- Folios: one per booking
	CREATE TABLE IF NOT EXISTS folios (
		id TEXT PRIMARY KEY,
		booking_id TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL,
		closed_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_folios_status ON folios(status);

	-- Charges (append-only ledger). folio_id = '' marks a standalone
	-- till sale.
	CREATE TABLE IF NOT EXISTS charges (
		id TEXT PRIMARY KEY,
		folio_id TEXT NOT NULL DEFAULT '',
		sector TEXT NOT NULL,
		description TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price TEXT NOT NULL,
		net TEXT NOT NULL,
		vat TEXT NOT NULL,
		gross TEXT NOT NULL,
		pos_order_id TEXT NOT NULL DEFAULT '',
		offsets_id TEXT NOT NULL DEFAULT '',
		posted_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_charges_folio ON charges(folio_id);
	CREATE INDEX IF NOT EXISTS idx_charges_posted_at ON charges(posted_at);
	CREATE INDEX IF NOT EXISTS idx_charges_sector_posted
		ON charges(sector, posted_at);

	-- CRITICAL: a charge can be offset at most once
	CREATE UNIQUE INDEX IF NOT EXISTS idx_charges_offsets
		ON charges(offsets_id) WHERE offsets_id != '';

	-- Payments (append-only ledger)
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		folio_id TEXT NOT NULL DEFAULT '',
		amount TEXT NOT NULL,
		method TEXT NOT NULL,
		reference TEXT NOT NULL DEFAULT '',
		confirmed_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payments_folio ON payments(folio_id);
	CREATE INDEX IF NOT EXISTS idx_payments_confirmed_at
		ON payments(confirmed_at);

	-- Receipts
	CREATE TABLE IF NOT EXISTS receipts (
		id TEXT PRIMARY KEY,
		number TEXT NOT NULL UNIQUE,
		payment_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		issued_at TEXT NOT NULL
	);

	-- Point of sale
	CREATE TABLE IF NOT EXISTS menu_items (
		id TEXT PRIMARY KEY,
		sector TEXT NOT NULL,
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		price TEXT NOT NULL,
		available BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE INDEX IF NOT EXISTS idx_menu_items_sector ON menu_items(sector);

	CREATE TABLE IF NOT EXISTS pos_orders (
		id TEXT PRIMARY KEY,
		number INTEGER NOT NULL UNIQUE,
		sector TEXT NOT NULL,
		status TEXT NOT NULL,
		intent TEXT NOT NULL,
		booking_id TEXT NOT NULL DEFAULT '',
		charge_id TEXT NOT NULL DEFAULT '',
		payment_id TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pos_orders_status ON pos_orders(status);
	CREATE INDEX IF NOT EXISTS idx_pos_orders_sector ON pos_orders(sector);

	CREATE TABLE IF NOT EXISTS pos_order_items (
		order_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		menu_item_id TEXT NOT NULL,
		name TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price TEXT NOT NULL,
		PRIMARY KEY (order_id, position)
	);

	-- Tax configuration: a single row
	CREATE TABLE IF NOT EXISTS tax_config (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		enabled BOOLEAN NOT NULL,
		rate TEXT NOT NULL,
		mode TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn against a transaction-scoped store. If fn returns
// an error the transaction rolls back; otherwise it commits. Nested
// calls reuse the open transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store hotel.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	child := &Store{db: s.db, q: sqlTx, mu: s.mu, inTx: true}
	if err := fn(child); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// =============================================================================
// ROOM TYPES
// =============================================================================

// SaveRoomType inserts or replaces a room type.
func (s *Store) SaveRoomType(ctx context.Context, rt hotel.RoomType) error {
	defer s.lock()()

	_, err := s.q.ExecContext(ctx, `
		INSERT OR REPLACE INTO room_types (id, name, base_price, description, active)
		VALUES (?, ?, ?, ?, ?)`,
		rt.ID, rt.Name, rt.BasePricePerNight.String(), rt.Description, rt.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to save room type: %w", err)
	}
	return nil
}

func (s *Store) GetRoomType(ctx context.Context, id string) (*hotel.RoomType, error) {
	defer s.rlock()()

	row := s.q.QueryRowContext(ctx, `
		SELECT id, name, base_price, description, active
		FROM room_types WHERE id = ?`, id)

	rt, err := scanRoomType(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room type: %w", err)
	}
	return rt, nil
}

func (s *Store) ListRoomTypes(ctx context.Context) ([]hotel.RoomType, error) {
	defer s.rlock()()

	rows, err := s.q.QueryContext(ctx, `
		SELECT id, name, base_price, description, active
		FROM room_types ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list room types: %w", err)
	}
	defer rows.Close()

	var out []hotel.RoomType
	for rows.Next() {
		rt, err := scanRoomType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rt)
	}
	return out, rows.Err()
}

func scanRoomType(row scanner) (*hotel.RoomType, error) {
	var rt hotel.RoomType
	var price string
	if err := row.Scan(&rt.ID, &rt.Name, &price, &rt.Description, &rt.Active); err != nil {
		return nil, err
	}
	var err error
	rt.BasePricePerNight, err = money.Parse(price)
	if err != nil {
		return nil, fmt.Errorf("bad base price for room type %s: %w", rt.ID, err)
	}
	return &rt, nil
}

// =============================================================================
// ROOMS
// =============================================================================

func (s *Store) SaveRoom(ctx context.Context, r hotel.Room) error {
	defer s.lock()()

	_, err := s.q.ExecContext(ctx, `
		INSERT OR REPLACE INTO rooms (id, room_type_id, number, status, floor, notes)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.RoomTypeID, r.Number, r.Status, r.Floor, r.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to save room: %w", err)
	}
	return nil
}

func (s *Store) GetRoom(ctx context.Context, id string) (*hotel.Room, error) {
	defer s.rlock()()

	var r hotel.Room
	err := s.q.QueryRowContext(ctx, `
		SELECT id, room_type_id, number, status, floor, notes
		FROM rooms WHERE id = ?`, id,
	).Scan(&r.ID, &r.RoomTypeID, &r.Number, &r.Status, &r.Floor, &r.Notes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return &r, nil
}

func (s *Store) ListRooms(ctx context.Context) ([]hotel.Room, error) {
	defer s.rlock()()

	rows, err := s.q.QueryContext(ctx, `
		SELECT id, room_type_id, number, status, floor, notes
		FROM rooms ORDER BY number`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var out []hotel.Room
	for rows.Next() {
		var r hotel.Room
		if err := rows.Scan(&r.ID, &r.RoomTypeID, &r.Number, &r.Status, &r.Floor, &r.Notes); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) UpdateRoomStatus(ctx context.Context, id string, status hotel.RoomStatus) error {
	defer s.lock()()

	res, err := s.q.ExecContext(ctx,
		`UPDATE rooms SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update room status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return hotel.ErrRoomNotFound
	}
	return nil
}

// =============================================================================
// GUESTS
// =============================================================================

func (s *Store) SaveGuest(ctx context.Context, g hotel.Guest) error {
	defer s.lock()()

	_, err := s.q.ExecContext(ctx, `
		INSERT OR REPLACE INTO guests (id, full_name, email, phone, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		g.ID, g.FullName, g.Email, g.Phone, formatTime(g.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save guest: %w", err)
	}
	return nil
}

func (s *Store) GetGuest(ctx context.Context, id string) (*hotel.Guest, error) {
	defer s.rlock()()

	var g hotel.Guest
	var createdAt string
	err := s.q.QueryRowContext(ctx, `
		SELECT id, full_name, email, phone, created_at
		FROM guests WHERE id = ?`, id,
	).Scan(&g.ID, &g.FullName, &g.Email, &g.Phone, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get guest: %w", err)
	}
	g.CreatedAt = parseTime(createdAt)
	return &g, nil
}

func (s *Store) ListGuests(ctx context.Context) ([]hotel.Guest, error) {
	defer s.rlock()()

	rows, err := s.q.QueryContext(ctx, `
		SELECT id, full_name, email, phone, created_at
		FROM guests ORDER BY full_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list guests: %w", err)
	}
	defer rows.Close()

	var out []hotel.Guest
	for rows.Next() {
		var g hotel.Guest
		var createdAt string
		if err := rows.Scan(&g.ID, &g.FullName, &g.Email, &g.Phone, &createdAt); err != nil {
			return nil, err
		}
		g.CreatedAt = parseTime(createdAt)
		out = append(out, g)
	}
	return out, rows.Err()
}

// =============================================================================
// BOOKINGS
// =============================================================================

func (s *Store) SaveBooking(ctx context.Context, b hotel.Booking) error {
	defer s.lock()()

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO bookings
		(id, guest_id, room_id, room_type_id, check_in, check_out,
		 source, status, special_requests, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.GuestID, b.RoomID, b.RoomTypeID,
		formatTime(b.Stay.CheckIn), formatTime(b.Stay.CheckOut),
		b.Source, b.Status, b.SpecialRequests,
		formatTime(b.CreatedAt), formatTime(b.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

func (s *Store) GetBooking(ctx context.Context, id string) (*hotel.Booking, error) {
	defer s.rlock()()

	row := s.q.QueryRowContext(ctx, `
		SELECT id, guest_id, room_id, room_type_id, check_in, check_out,
		       source, status, special_requests, created_at, updated_at
		FROM bookings WHERE id = ?`, id)

	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

func (s *Store) ListBookings(ctx context.Context) ([]hotel.Booking, error) {
	defer s.rlock()()

	rows, err := s.q.QueryContext(ctx, `
		SELECT id, guest_id, room_id, room_type_id, check_in, check_out,
		       source, status, special_requests, created_at, updated_at
		FROM bookings ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var out []hotel.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (s *Store) UpdateBookingStatus(ctx context.Context, id string, status hotel.BookingStatus, at time.Time) error {
	defer s.lock()()

	res, err := s.q.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`,
		status, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return hotel.ErrBookingNotFound
	}
	return nil
}

func scanBooking(row scanner) (*hotel.Booking, error) {
	var b hotel.Booking
	var checkIn, checkOut, createdAt, updatedAt string
	err := row.Scan(&b.ID, &b.GuestID, &b.RoomID, &b.RoomTypeID,
		&checkIn, &checkOut, &b.Source, &b.Status, &b.SpecialRequests,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	b.Stay = availability.Stay{CheckIn: parseTime(checkIn), CheckOut: parseTime(checkOut)}
	b.CreatedAt = parseTime(createdAt)
	b.UpdatedAt = parseTime(updatedAt)
	return &b, nil
}

// =============================================================================
// ROOM RESERVATIONS (availability.ReservationStore)
// =============================================================================

func (s *Store) ReservationsForRoom(ctx context.Context, roomID string) ([]availability.Reservation, error) {
	defer s.rlock()()

	rows, err := s.q.QueryContext(ctx, `
		SELECT booking_id, room_id, check_in, check_out, released_at
		FROM room_reservations WHERE room_id = ? ORDER BY check_in`, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reservations: %w", err)
	}
	defer rows.Close()

	var out []availability.Reservation
	for rows.Next() {
		var r availability.Reservation
		var checkIn, checkOut string
		var released sql.NullString
		if err := rows.Scan(&r.BookingID, &r.RoomID, &checkIn, &checkOut, &released); err != nil {
			return nil, err
		}
		r.Stay = availability.Stay{CheckIn: parseTime(checkIn), CheckOut: parseTime(checkOut)}
		if released.Valid {
			t := parseTime(released.String)
			r.ReleasedAt = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) AddReservation(ctx context.Context, r availability.Reservation) error {
	defer s.lock()()

	var released any
	if r.ReleasedAt != nil {
		released = formatTime(*r.ReleasedAt)
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO room_reservations (booking_id, room_id, check_in, check_out, released_at)
		VALUES (?, ?, ?, ?, ?)`,
		r.BookingID, r.RoomID, formatTime(r.Stay.CheckIn), formatTime(r.Stay.CheckOut), released,
	)
	if err != nil {
		return fmt.Errorf("failed to add reservation: %w", err)
	}
	return nil
}

func (s *Store) ReleaseReservation(ctx context.Context, roomID, bookingID string) error {
	defer s.lock()()

	_, err := s.q.ExecContext(ctx, `
		UPDATE room_reservations SET released_at = ?
		WHERE room_id = ? AND booking_id = ? AND released_at IS NULL`,
		formatTime(time.Now().UTC()), roomID, bookingID)
	if err != nil {
		return fmt.Errorf("failed to release reservation: %w", err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// timeLayout keeps a fixed-width fraction so the TEXT columns compare
// lexicographically in chronological order. RFC3339Nano drops trailing
// zeros and breaks that.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
