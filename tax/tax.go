/*
Package tax computes the VAT breakdown for a single charge.

PURPOSE:
  Pure function from (amount, configuration) to {net, vat, gross}. The
  configuration is an explicit snapshot passed in by the caller, never a
  global read: a charge posted today keeps today's tax forever, even if
  the business later changes the rate.

MODES:
  disabled:  net = gross = amount, vat = 0
  exclusive: net = amount, vat = round(amount * rate), gross = net + vat
  inclusive: gross = amount, net = round(amount / (1 + rate)), vat = gross - net

ROUNDING:
  Half-up to whole TZS, applied exactly once per charge. Sector and period
  totals are sums of per-charge rounded values; applying the rate to a
  pre-summed total drifts and is forbidden.

SEE ALSO:
  - hotel/folio.go: fixes the breakdown onto each charge at posting time
  - revenue/aggregator.go: sums stored breakdowns, never recomputes
*/
package tax

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/kalongo/folio-engine/money"
)

// Mode says whether a stated amount already contains tax.
type Mode string

const (
	ModeExclusive Mode = "exclusive"
	ModeInclusive Mode = "inclusive"
)

// ErrConfigMissing is returned when a charge is posted with no tax
// configuration available.
var ErrConfigMissing = errors.New("tax configuration missing")

// ErrInvalidRate is returned for rates outside [0, 1].
var ErrInvalidRate = errors.New("tax rate must be between 0 and 1")

// Config is the per-business VAT setting, snapshotted at charge time.
type Config struct {
	Enabled bool
	Rate    decimal.Decimal // 0.18 for 18%
	Mode    Mode
}

func (c Config) Validate() error {
	if c.Rate.IsNegative() || c.Rate.GreaterThan(decimal.NewFromInt(1)) {
		return ErrInvalidRate
	}
	if c.Mode != ModeExclusive && c.Mode != ModeInclusive {
		return ErrInvalidRate
	}
	return nil
}

// Breakdown is the per-charge tax split. Stored verbatim on the charge.
type Breakdown struct {
	Net   money.Amount
	VAT   money.Amount
	Gross money.Amount
}

// Compute splits amount into net/vat/gross under cfg.
func Compute(amount money.Amount, cfg Config) Breakdown {
	if !cfg.Enabled || cfg.Rate.IsZero() {
		return Breakdown{Net: amount, VAT: money.Zero(), Gross: amount}
	}

	switch cfg.Mode {
	case ModeInclusive:
		gross := amount
		divisor := decimal.NewFromInt(1).Add(cfg.Rate)
		net := gross.Div(divisor).RoundUnit()
		return Breakdown{Net: net, VAT: gross.Sub(net), Gross: gross}
	default: // exclusive
		net := amount
		vat := net.Mul(cfg.Rate).RoundUnit()
		return Breakdown{Net: net, VAT: vat, Gross: net.Add(vat)}
	}
}
