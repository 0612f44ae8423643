/*
scheduler.go - Automated night audit

PURPOSE:
  Periodically sweeps bookings whose check-in date has passed without the
  guest arriving and moves them to their terminal state: expired holds
  are cancelled, confirmed no-arrivals are marked no-show. Either way the
  room interval is released so it can be sold again.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Only PENDING and CONFIRMED bookings past their check-in date qualify
  - Bookings whose folio already carries charges are skipped and logged;
    the front desk has to resolve those by hand
  - All transitions go through the booking manager, so the usual
    invariants (folio closed, reservation released) hold

CONFIGURATION:
  - CheckInterval: How often to sweep (default: 1 hour)
  - Enabled: Whether the audit is active (default: true)

USAGE:
  audit := NewNightAudit(store, manager)
  audit.Start()
  // ... later
  audit.Stop()

SEE ALSO:
  - hotel/booking.go: Cancel, MarkNoShow
  - cmd/server/main.go: Wiring
*/
package api

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/kalongo/folio-engine/availability"
	"github.com/kalongo/folio-engine/hotel"
	"github.com/kalongo/folio-engine/store/sqlite"
)

// NightAudit sweeps stale bookings into their terminal states.
type NightAudit struct {
	Store         *sqlite.Store
	Manager       *hotel.Manager
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewNightAudit creates a new audit job.
func NewNightAudit(store *sqlite.Store, manager *hotel.Manager) *NightAudit {
	return &NightAudit{
		Store:         store,
		Manager:       manager,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the audit loop.
func (na *NightAudit) Start() {
	na.mu.Lock()
	defer na.mu.Unlock()

	if !na.Enabled {
		log.Println("[NightAudit] Disabled, not starting")
		return
	}

	na.ticker = time.NewTicker(na.CheckInterval)
	na.wg.Add(1)

	go na.run()

	log.Printf("[NightAudit] Started with check interval: %v", na.CheckInterval)
}

// Stop stops the audit loop.
func (na *NightAudit) Stop() {
	na.mu.Lock()
	defer na.mu.Unlock()

	if na.ticker != nil {
		na.ticker.Stop()
		close(na.stop)
		na.wg.Wait()
		log.Println("[NightAudit] Stopped")
	}
}

func (na *NightAudit) run() {
	defer na.wg.Done()

	// Run immediately on start
	na.Sweep(context.Background())

	for {
		select {
		case <-na.ticker.C:
			na.Sweep(context.Background())
		case <-na.stop:
			return
		}
	}
}

// Sweep runs one audit pass and returns how many bookings it closed out.
func (na *NightAudit) Sweep(ctx context.Context) int {
	today := availability.DateOf(time.Now().UTC())

	bookings, err := na.Store.ListBookings(ctx)
	if err != nil {
		log.Printf("[NightAudit] Error listing bookings: %v", err)
		return 0
	}

	processed := 0
	skipped := 0

	for _, b := range bookings {
		if b.Status != hotel.BookingPending && b.Status != hotel.BookingConfirmed {
			continue
		}
		if !b.Stay.CheckIn.Before(today) {
			continue
		}

		switch b.Status {
		case hotel.BookingPending:
			err = na.Manager.Cancel(ctx, b.ID)
		case hotel.BookingConfirmed:
			err = na.Manager.MarkNoShow(ctx, b.ID)
		}

		var nonEmpty *hotel.NonEmptyFolioError
		switch {
		case err == nil:
			processed++
		case errors.As(err, &nonEmpty):
			// Charges on the folio: needs a human decision.
			log.Printf("[NightAudit] Skipping %s: folio %s carries %d charge(s)",
				b.ID, nonEmpty.FolioID, nonEmpty.ChargeCount)
			skipped++
		default:
			log.Printf("[NightAudit] Error closing out %s: %v", b.ID, err)
		}
	}

	if processed > 0 || skipped > 0 {
		log.Printf("[NightAudit] Completed: %d closed out, %d skipped", processed, skipped)
	}
	return processed
}
