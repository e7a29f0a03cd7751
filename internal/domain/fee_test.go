package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFeeOverride_Apply(t *testing.T) {
	defaults := FeeConfig{
		PixFeePercent:   decimal.RequireFromString("0.03"),
		CardFeePercent:  decimal.RequireFromString("0.05"),
		FixedFeeCents:   100,
		ReserveDays:     30,
		CardReleaseDays: 30,
	}

	t.Run("nil_override_returns_defaults", func(t *testing.T) {
		var o *FeeOverride
		assert.Equal(t, defaults, o.Apply(defaults))
	})

	t.Run("overrides_only_set_fields", func(t *testing.T) {
		pct := decimal.RequireFromString("0.02")
		fixed := int64(0)
		absorbs := true
		o := &FeeOverride{PixFeePercent: &pct, FixedFeeCents: &fixed, AbsorbsInstallmentInterest: &absorbs}

		got := o.Apply(defaults)

		assert.True(t, got.PixFeePercent.Equal(pct))
		assert.True(t, got.CardFeePercent.Equal(defaults.CardFeePercent))
		assert.Equal(t, int64(0), got.FixedFeeCents)
		assert.Equal(t, 30, got.ReserveDays)
		assert.True(t, got.AbsorbsInstallmentInterest)
	})
}

func TestFeeConfig_ReleaseDays(t *testing.T) {
	c := FeeConfig{PixReleaseDays: 0, BoletoReleaseDays: 2, CardReleaseDays: 30}

	assert.Equal(t, 0, c.ReleaseDays(PaymentMethodPix))
	assert.Equal(t, 2, c.ReleaseDays(PaymentMethodBoleto))
	assert.Equal(t, 30, c.ReleaseDays(PaymentMethodCreditCard))
	assert.Equal(t, 0, c.ReleaseDays(PaymentMethod("wire")))

	_, ok := c.FeePercent(PaymentMethod("wire"))
	assert.False(t, ok)
}
