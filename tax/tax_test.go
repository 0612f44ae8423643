package tax_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/kalongo/folio-engine/money"
	"github.com/kalongo/folio-engine/tax"
)

func vat18Exclusive() tax.Config {
	return tax.Config{Enabled: true, Rate: decimal.NewFromFloat(0.18), Mode: tax.ModeExclusive}
}

func vat18Inclusive() tax.Config {
	return tax.Config{Enabled: true, Rate: decimal.NewFromFloat(0.18), Mode: tax.ModeInclusive}
}

func TestCompute_Disabled(t *testing.T) {
	cfg := tax.Config{Enabled: false, Rate: decimal.NewFromFloat(0.18), Mode: tax.ModeExclusive}

	b := tax.Compute(money.FromInt(100000), cfg)

	assert.Equal(t, "100000", b.Net.String())
	assert.Equal(t, "0", b.VAT.String())
	assert.Equal(t, "100000", b.Gross.String())
}

func TestCompute_Exclusive(t *testing.T) {
	// GIVEN: 100,000 at 18% exclusive
	// THEN: net stays 100,000; vat 18,000; gross 118,000
	b := tax.Compute(money.FromInt(100000), vat18Exclusive())

	assert.Equal(t, "100000", b.Net.String())
	assert.Equal(t, "18000", b.VAT.String())
	assert.Equal(t, "118000", b.Gross.String())
}

func TestCompute_Exclusive_RoundTrip(t *testing.T) {
	// Exclusive mode must preserve the stated amount as net,
	// and gross must equal net + vat for any input.
	for _, v := range []int64{1, 7, 99, 5555, 100000, 123457} {
		b := tax.Compute(money.FromInt(v), vat18Exclusive())
		assert.True(t, b.Net.Equal(money.FromInt(v)), "net preserved for %d", v)
		assert.True(t, b.Gross.Equal(b.Net.Add(b.VAT)), "gross = net + vat for %d", v)
	}
}

func TestCompute_Inclusive(t *testing.T) {
	// GIVEN: 118,000 at 18% inclusive
	// THEN: gross stays 118,000; net 100,000; vat 18,000
	b := tax.Compute(money.FromInt(118000), vat18Inclusive())

	assert.Equal(t, "118000", b.Gross.String())
	assert.Equal(t, "100000", b.Net.String())
	assert.Equal(t, "18000", b.VAT.String())
}

func TestCompute_Inclusive_GrossPreserved(t *testing.T) {
	for _, v := range []int64{1, 100, 9999, 118000, 333333} {
		b := tax.Compute(money.FromInt(v), vat18Inclusive())
		assert.True(t, b.Gross.Equal(money.FromInt(v)), "gross preserved for %d", v)
		assert.True(t, b.Gross.Equal(b.Net.Add(b.VAT)), "gross = net + vat for %d", v)
	}
}

func TestCompute_RoundHalfUp(t *testing.T) {
	// 5 at 18% exclusive = 0.9 vat, rounds up to 1
	b := tax.Compute(money.FromInt(5), vat18Exclusive())
	assert.Equal(t, "1", b.VAT.String())

	// 2 at 18% = 0.36, rounds down to 0
	b = tax.Compute(money.FromInt(2), vat18Exclusive())
	assert.Equal(t, "0", b.VAT.String())
}

func TestCompute_PerChargeRounding_NoDrift(t *testing.T) {
	// GIVEN: 1,000 charges of 7 TZS each at 18% exclusive
	// THEN: the period total vat is the SUM of per-charge rounded vat
	//       (1 each), not rate * pre-summed net (1260).
	cfg := vat18Exclusive()
	totalVAT := money.Zero()
	for i := 0; i < 1000; i++ {
		totalVAT = totalVAT.Add(tax.Compute(money.FromInt(7), cfg).VAT)
	}

	perChargeRounded := money.FromInt(1000) // round(7*0.18)=round(1.26)=1, times 1000
	assert.True(t, totalVAT.Equal(perChargeRounded), "got %s", totalVAT)

	preSummed := tax.Compute(money.FromInt(7000), cfg).VAT // 1260
	assert.False(t, totalVAT.Equal(preSummed), "aggregate rounding must differ from pre-summed")
}

func TestConfig_Validate(t *testing.T) {
	bad := tax.Config{Enabled: true, Rate: decimal.NewFromFloat(1.5), Mode: tax.ModeExclusive}
	assert.Error(t, bad.Validate())

	neg := tax.Config{Enabled: true, Rate: decimal.NewFromFloat(-0.1), Mode: tax.ModeInclusive}
	assert.Error(t, neg.Validate())

	ok := vat18Exclusive()
	assert.NoError(t, ok.Validate())
}
