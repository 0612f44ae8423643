/*
Package revenue derives reporting views from the charge ledger.

PURPOSE:
  Every sale in the house, folio or standalone, is a charge row with a
  stored net/VAT/gross breakdown. Reports sum those stored values and
  never recompute tax: a rate change after the fact cannot rewrite a
  past period's numbers.

VIEWS:
  Summary      - per-day, per-sector totals over a date range
  Transactions - the raw charge rows, paged
  RefundsOwed  - folios whose balance went negative (overpayment)
*/
package revenue

import (
	"context"
	"sort"
	"time"

	"github.com/kalongo/folio-engine/hotel"
	"github.com/kalongo/folio-engine/money"
)

// Reader is the read-only store surface reports run on.
type Reader interface {
	// ChargesBetween returns charges posted in [from, to), newest last.
	// Empty sector means all sectors. limit <= 0 means no paging.
	ChargesBetween(ctx context.Context, from, to time.Time, sector hotel.Sector, limit, offset int) ([]hotel.Charge, error)

	// ListFolios returns folios filtered by status; empty means all.
	ListFolios(ctx context.Context, status hotel.FolioStatus) ([]hotel.Folio, error)

	LoadCharges(ctx context.Context, folioID string) ([]hotel.Charge, error)
	LoadPayments(ctx context.Context, folioID string) ([]hotel.Payment, error)
}

// Line is one day's takings for one sector.
type Line struct {
	Date   string // YYYY-MM-DD
	Sector hotel.Sector
	Count  int
	Net    money.Amount
	VAT    money.Amount
	Gross  money.Amount
}

// Summary is a period report: per-day/per-sector lines plus period totals.
type Summary struct {
	From, To   time.Time
	Lines      []Line
	TotalNet   money.Amount
	TotalVAT   money.Amount
	TotalGross money.Amount
}

// Refund is an overpaid folio awaiting a payout.
type Refund struct {
	FolioID   string
	BookingID string
	Status    hotel.FolioStatus
	Amount    money.Amount // positive: what the house owes back
}

// Aggregator computes reports from the reader.
type Aggregator struct {
	reader Reader
}

func NewAggregator(reader Reader) *Aggregator {
	return &Aggregator{reader: reader}
}

// =============================================================================
// SUMMARY
// =============================================================================

// Summary groups charges in [from, to) by posting date and sector,
// summing the stored breakdowns. Offsetting charges carry negative
// amounts and net themselves out of the totals naturally.
func (a *Aggregator) Summary(ctx context.Context, from, to time.Time, sector hotel.Sector) (*Summary, error) {
	charges, err := a.reader.ChargesBetween(ctx, from, to, sector, 0, 0)
	if err != nil {
		return nil, err
	}

	type key struct {
		date   string
		sector hotel.Sector
	}
	buckets := make(map[key]*Line)

	summary := &Summary{
		From:       from,
		To:         to,
		TotalNet:   money.Zero(),
		TotalVAT:   money.Zero(),
		TotalGross: money.Zero(),
	}

	for _, c := range charges {
		k := key{date: c.PostedAt.Format("2006-01-02"), sector: c.Sector}
		line, ok := buckets[k]
		if !ok {
			line = &Line{
				Date:   k.date,
				Sector: k.sector,
				Net:    money.Zero(),
				VAT:    money.Zero(),
				Gross:  money.Zero(),
			}
			buckets[k] = line
		}
		line.Count++
		line.Net = line.Net.Add(c.Net)
		line.VAT = line.VAT.Add(c.VAT)
		line.Gross = line.Gross.Add(c.Gross)

		summary.TotalNet = summary.TotalNet.Add(c.Net)
		summary.TotalVAT = summary.TotalVAT.Add(c.VAT)
		summary.TotalGross = summary.TotalGross.Add(c.Gross)
	}

	summary.Lines = make([]Line, 0, len(buckets))
	for _, line := range buckets {
		summary.Lines = append(summary.Lines, *line)
	}
	sort.Slice(summary.Lines, func(i, j int) bool {
		if summary.Lines[i].Date != summary.Lines[j].Date {
			return summary.Lines[i].Date < summary.Lines[j].Date
		}
		return summary.Lines[i].Sector < summary.Lines[j].Sector
	})
	return summary, nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// Transactions returns the raw charge rows for a period, paged.
func (a *Aggregator) Transactions(ctx context.Context, from, to time.Time, sector hotel.Sector, limit, offset int) ([]hotel.Charge, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return a.reader.ChargesBetween(ctx, from, to, sector, limit, offset)
}

// =============================================================================
// REFUNDS
// =============================================================================

// RefundsOwed lists folios whose payments exceed their charges. Balances
// are recomputed from the rows here, same as everywhere else.
func (a *Aggregator) RefundsOwed(ctx context.Context) ([]Refund, error) {
	folios, err := a.reader.ListFolios(ctx, "")
	if err != nil {
		return nil, err
	}

	var refunds []Refund
	for _, f := range folios {
		charges, err := a.reader.LoadCharges(ctx, f.ID)
		if err != nil {
			return nil, err
		}
		payments, err := a.reader.LoadPayments(ctx, f.ID)
		if err != nil {
			return nil, err
		}

		balance := money.Zero()
		for _, c := range charges {
			balance = balance.Add(c.Gross)
		}
		for _, p := range payments {
			balance = balance.Sub(p.Amount)
		}
		if balance.IsNegative() {
			refunds = append(refunds, Refund{
				FolioID:   f.ID,
				BookingID: f.BookingID,
				Status:    f.Status,
				Amount:    balance.Neg(),
			})
		}
	}
	return refunds, nil
}
