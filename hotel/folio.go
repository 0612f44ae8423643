/*
folio.go - The folio ledger: append-only charges and payments per stay

PURPOSE:
  The Ledger is the source of truth for what a guest owes. Charges and
  payments are immutable once written; the balance is recomputed from the
  rows on every read. There is no stored total that can drift.

CHARGE LIFECYCLE:
  - Charges post only to OPEN folios.
  - Tax is fixed at posting time from the configuration snapshot the
    caller passes in. A later rate change never rewrites history.
  - Corrections are offsetting charges (negated amounts referencing the
    original), never edits.

PAYMENT LIFECYCLE:
  - Payments land on OPEN or CLOSED folios (a guest can settle after
    checkout).
  - The settlement check runs inside the same transaction as the payment
    write: when the post-payment balance is exactly zero the folio
    transitions to SETTLED right there.
  - Overpayment is accepted and recorded; the negative balance surfaces
    as "refund owed" in the revenue reports.
*/
package hotel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kalongo/folio-engine/money"
	"github.com/kalongo/folio-engine/tax"
)

// ErrAlreadyOffset is returned when a charge already has an offsetting
// correction.
var ErrAlreadyOffset = errors.New("charge already offset")

// Ledger accumulates charges and payments on folios.
type Ledger struct {
	store TxStore
	now   func() time.Time
}

func NewLedger(store TxStore) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// WithClock overrides the ledger's clock. Tests only.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// ChargeInput describes a charge before tax.
type ChargeInput struct {
	Sector      Sector
	Description string
	Quantity    int64
	UnitPrice   money.Amount
	POSOrderID  string
}

func (in ChargeInput) validate() error {
	if !ValidSector(in.Sector) {
		return fmt.Errorf("%w: unknown sector %q", ErrInvalidAmount, in.Sector)
	}
	if in.Quantity < 1 {
		return fmt.Errorf("%w: quantity %d", ErrInvalidAmount, in.Quantity)
	}
	if in.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: negative unit price %s", ErrInvalidAmount, in.UnitPrice)
	}
	return nil
}

// =============================================================================
// CHARGES
// =============================================================================

// AddCharge posts a charge to an open folio. cfg is the business's tax
// configuration snapshot at this moment; the resulting breakdown is
// stored on the charge and never recalculated.
func (l *Ledger) AddCharge(ctx context.Context, folioID string, in ChargeInput, cfg tax.Config) (*Charge, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if cfg.Enabled {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	amount := in.UnitPrice.MulInt(in.Quantity)
	breakdown := tax.Compute(amount, cfg)

	charge := Charge{
		ID:          uuid.NewString(),
		FolioID:     folioID,
		Sector:      in.Sector,
		Description: in.Description,
		Quantity:    in.Quantity,
		UnitPrice:   in.UnitPrice,
		Net:         breakdown.Net,
		VAT:         breakdown.VAT,
		Gross:       breakdown.Gross,
		POSOrderID:  in.POSOrderID,
		PostedAt:    l.now(),
	}

	err := l.store.WithTx(ctx, func(s Store) error {
		folio, err := s.GetFolio(ctx, folioID)
		if err != nil {
			return err
		}
		if folio == nil {
			return ErrFolioNotFound
		}
		if folio.Status != FolioOpen {
			return &FolioStateError{FolioID: folioID, Status: folio.Status, Op: "post charge"}
		}
		return s.AppendCharge(ctx, charge)
	})
	if err != nil {
		return nil, err
	}
	return &charge, nil
}

// AddOffsetCharge appends the negation of an existing charge. This is the
// only way to correct a posted charge: both rows stay in the ledger and
// the audit trail survives.
func (l *Ledger) AddOffsetCharge(ctx context.Context, chargeID, reason string) (*Charge, error) {
	var offset Charge
	err := l.store.WithTx(ctx, func(s Store) error {
		var err error
		offset, err = AppendOffset(ctx, s, chargeID, reason, l.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return &offset, nil
}

// AppendOffset writes the offsetting charge for chargeID using the given
// (usually transaction-scoped) store. Callers that need the offset to
// commit with other writes run this inside their own WithTx.
func AppendOffset(ctx context.Context, s Store, chargeID, reason string, at time.Time) (Charge, error) {
	orig, err := s.GetCharge(ctx, chargeID)
	if err != nil {
		return Charge{}, err
	}
	if orig == nil {
		return Charge{}, ErrChargeNotFound
	}

	if orig.FolioID != "" {
		folio, err := s.GetFolio(ctx, orig.FolioID)
		if err != nil {
			return Charge{}, err
		}
		if folio == nil {
			return Charge{}, ErrFolioNotFound
		}
		if folio.Status == FolioSettled {
			return Charge{}, &FolioStateError{FolioID: folio.ID, Status: folio.Status, Op: "offset charge"}
		}
	}

	siblings, err := s.LoadCharges(ctx, orig.FolioID)
	if err != nil {
		return Charge{}, err
	}
	for _, c := range siblings {
		if c.OffsetsID == chargeID {
			return Charge{}, ErrAlreadyOffset
		}
	}

	offset := Charge{
		ID:          uuid.NewString(),
		FolioID:     orig.FolioID,
		Sector:      orig.Sector,
		Description: "Reversal: " + orig.Description + " (" + reason + ")",
		Quantity:    orig.Quantity,
		UnitPrice:   orig.UnitPrice.Neg(),
		Net:         orig.Net.Neg(),
		VAT:         orig.VAT.Neg(),
		Gross:       orig.Gross.Neg(),
		POSOrderID:  orig.POSOrderID,
		OffsetsID:   orig.ID,
		PostedAt:    at,
	}
	if err := s.AppendCharge(ctx, offset); err != nil {
		return Charge{}, err
	}
	return offset, nil
}

// =============================================================================
// PAYMENTS
// =============================================================================

// AddPayment records a payment against an open or closed folio. Returns
// the payment and whether it settled the folio. The settlement decision
// reads the balance inside the same transaction as the write.
func (l *Ledger) AddPayment(ctx context.Context, folioID string, amount money.Amount, method PaymentMethod, reference string) (*Payment, bool, error) {
	if !amount.IsPositive() {
		return nil, false, fmt.Errorf("%w: payment of %s", ErrInvalidAmount, amount)
	}
	if !ValidPaymentMethod(method) {
		return nil, false, fmt.Errorf("%w: unknown payment method %q", ErrInvalidAmount, method)
	}

	payment := Payment{
		ID:          uuid.NewString(),
		FolioID:     folioID,
		Amount:      amount,
		Method:      method,
		Reference:   reference,
		ConfirmedAt: l.now(),
	}

	settled := false
	err := l.store.WithTx(ctx, func(s Store) error {
		folio, err := s.GetFolio(ctx, folioID)
		if err != nil {
			return err
		}
		if folio == nil {
			return ErrFolioNotFound
		}
		if folio.Status == FolioSettled {
			return &FolioStateError{FolioID: folioID, Status: folio.Status, Op: "accept payment"}
		}

		if err := s.AppendPayment(ctx, payment); err != nil {
			return err
		}

		totals, err := computeTotals(ctx, s, folioID)
		if err != nil {
			return err
		}
		if totals.Balance.IsZero() {
			settled = true
			closedAt := folio.ClosedAt
			if closedAt == nil {
				t := l.now()
				closedAt = &t
			}
			return s.UpdateFolioStatus(ctx, folioID, FolioSettled, closedAt)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &payment, settled, nil
}

// ReceiptNumber builds the house receipt number: RCP-<payment>-<YYYYMMDD>.
func ReceiptNumber(paymentID string, at time.Time) string {
	return fmt.Sprintf("RCP-%.8s-%s", paymentID, at.Format("20060102"))
}

// IssueReceipt creates the receipt record for a confirmed payment.
func (l *Ledger) IssueReceipt(ctx context.Context, p Payment) (*Receipt, error) {
	receipt := Receipt{
		ID:        uuid.NewString(),
		Number:    ReceiptNumber(p.ID, l.now()),
		PaymentID: p.ID,
		Amount:    p.Amount,
		IssuedAt:  l.now(),
	}
	if err := l.store.SaveReceipt(ctx, receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// =============================================================================
// DERIVED VIEWS
// =============================================================================

// Totals recomputes charge/payment sums and the balance from the rows.
func (l *Ledger) Totals(ctx context.Context, folioID string) (Totals, error) {
	folio, err := l.store.GetFolio(ctx, folioID)
	if err != nil {
		return Totals{}, err
	}
	if folio == nil {
		return Totals{}, ErrFolioNotFound
	}
	return computeTotals(ctx, l.store, folioID)
}

// Balance is the folio's current balance: charges minus payments.
func (l *Ledger) Balance(ctx context.Context, folioID string) (money.Amount, error) {
	totals, err := l.Totals(ctx, folioID)
	if err != nil {
		return money.Amount{}, err
	}
	return totals.Balance, nil
}

// Entries returns the folio's charges and payments for display.
func (l *Ledger) Entries(ctx context.Context, folioID string) ([]Charge, []Payment, error) {
	charges, err := l.store.LoadCharges(ctx, folioID)
	if err != nil {
		return nil, nil, err
	}
	payments, err := l.store.LoadPayments(ctx, folioID)
	if err != nil {
		return nil, nil, err
	}
	return charges, payments, nil
}

func computeTotals(ctx context.Context, s Store, folioID string) (Totals, error) {
	charges, err := s.LoadCharges(ctx, folioID)
	if err != nil {
		return Totals{}, err
	}
	payments, err := s.LoadPayments(ctx, folioID)
	if err != nil {
		return Totals{}, err
	}

	totalCharges := money.Zero()
	for _, c := range charges {
		totalCharges = totalCharges.Add(c.Gross)
	}
	totalPayments := money.Zero()
	for _, p := range payments {
		totalPayments = totalPayments.Add(p.Amount)
	}

	return Totals{
		TotalCharges:  totalCharges,
		TotalPayments: totalPayments,
		Balance:       totalCharges.Sub(totalPayments),
	}, nil
}
