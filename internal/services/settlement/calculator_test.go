package settlement

import (
	"testing"
	"time"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig() domain.FeeConfig {
	return domain.FeeConfig{
		PixFeePercent:       decimal.RequireFromString("0.03"),
		BoletoFeePercent:    decimal.RequireFromString("0.04"),
		CardFeePercent:      decimal.RequireFromString("0.05"),
		ReservePercent:      decimal.RequireFromString("0.10"),
		MonthlyInterestRate: decimal.RequireFromString("0.035"),
		FixedFeeCents:       100,
		WithdrawalFeeCents:  367,
		ReserveDays:         30,
		PixReleaseDays:      0,
		BoletoReleaseDays:   2,
		CardReleaseDays:     30,
	}
}

func TestCalculate(t *testing.T) {
	paidAt := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		order         domain.Order
		mutate        func(*domain.FeeConfig)
		wantBase      int64
		wantFee       int64
		wantShare     int64
		wantReserve   int64
		wantReleaseAt time.Time
	}{
		{
			name:          "pix_immediate_release",
			order:         domain.Order{AmountCents: 10000, PaymentMethod: domain.PaymentMethodPix, Installments: 1},
			wantBase:      10000,
			wantFee:       400, // 300 + 100
			wantShare:     9600,
			wantReserve:   1000,
			wantReleaseAt: paidAt,
		},
		{
			name:          "boleto_two_day_release",
			order:         domain.Order{AmountCents: 5000, PaymentMethod: domain.PaymentMethodBoleto, Installments: 1},
			wantBase:      5000,
			wantFee:       300, // 200 + 100
			wantShare:     4700,
			wantReserve:   500,
			wantReleaseAt: paidAt.Add(48 * time.Hour),
		},
		{
			name:          "fee_on_original_price_not_discounted_amount",
			order:         domain.Order{AmountCents: 8000, OriginalPriceCents: 10000, PaymentMethod: domain.PaymentMethodPix, Installments: 1},
			wantBase:      10000,
			wantFee:       400,
			wantShare:     9600,
			wantReserve:   1000,
			wantReleaseAt: paidAt,
		},
		{
			name:          "card_installments_buyer_pays_interest",
			order:         domain.Order{AmountCents: 11000, OriginalPriceCents: 10000, PaymentMethod: domain.PaymentMethodCreditCard, Installments: 3},
			wantBase:      10000,
			wantFee:       600, // 500 + 100
			wantShare:     9400,
			wantReserve:   1000,
			wantReleaseAt: paidAt.Add(30 * 24 * time.Hour),
		},
		{
			name:  "card_installments_producer_absorbs_interest",
			order: domain.Order{AmountCents: 11000, PaymentMethod: domain.PaymentMethodCreditCard, Installments: 3},
			mutate: func(c *domain.FeeConfig) {
				c.AbsorbsInstallmentInterest = true
			},
			// 11000 / 1.035^3 = 9921.36
			wantBase:      9921,
			wantFee:       596, // round(496.05) + 100
			wantShare:     9325,
			wantReserve:   992,
			wantReleaseAt: paidAt.Add(30 * 24 * time.Hour),
		},
		{
			name:  "absorbs_interest_single_installment_uses_price",
			order: domain.Order{AmountCents: 10000, PaymentMethod: domain.PaymentMethodCreditCard, Installments: 1},
			mutate: func(c *domain.FeeConfig) {
				c.AbsorbsInstallmentInterest = true
			},
			wantBase:      10000,
			wantFee:       600,
			wantShare:     9400,
			wantReserve:   1000,
			wantReleaseAt: paidAt.Add(30 * 24 * time.Hour),
		},
		{
			name:          "rounds_half_away_from_zero",
			order:         domain.Order{AmountCents: 1050, PaymentMethod: domain.PaymentMethodPix, Installments: 1},
			wantBase:      1050,
			wantFee:       132, // round(31.5) + 100
			wantShare:     918,
			wantReserve:   105,
			wantReleaseAt: paidAt,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}

			s, err := Calculate(&tt.order, cfg, paidAt)
			require.NoError(t, err)

			assert.Equal(t, tt.wantBase, s.BaseCents)
			assert.Equal(t, tt.wantFee, s.PlatformFeeCents)
			assert.Equal(t, tt.wantShare, s.ProducerShareCents)
			assert.Equal(t, tt.wantReserve, s.SecurityReserveCents)
			assert.Equal(t, tt.wantReleaseAt, s.ReleaseAt)
			assert.Equal(t, paidAt.Add(30*24*time.Hour), s.ReserveReleaseAt)
			assert.Equal(t, s.BaseCents, s.PlatformFeeCents+s.ProducerShareCents)
		})
	}
}

func TestCalculate_InvalidConfig(t *testing.T) {
	paidAt := time.Now()

	tests := []struct {
		name   string
		order  domain.Order
		mutate func(*domain.FeeConfig)
	}{
		{
			name:  "fixed_fee_exceeds_amount",
			order: domain.Order{AmountCents: 50, PaymentMethod: domain.PaymentMethodPix},
		},
		{
			name:  "percentage_above_one",
			order: domain.Order{AmountCents: 10000, PaymentMethod: domain.PaymentMethodPix},
			mutate: func(c *domain.FeeConfig) {
				c.PixFeePercent = decimal.RequireFromString("1.5")
			},
		},
		{
			name:  "negative_reserve_percent",
			order: domain.Order{AmountCents: 10000, PaymentMethod: domain.PaymentMethodPix},
			mutate: func(c *domain.FeeConfig) {
				c.ReservePercent = decimal.RequireFromString("-0.1")
			},
		},
		{
			name:  "negative_release_window",
			order: domain.Order{AmountCents: 10000, PaymentMethod: domain.PaymentMethodPix},
			mutate: func(c *domain.FeeConfig) {
				c.CardReleaseDays = -1
			},
		},
		{
			name:  "unknown_payment_method",
			order: domain.Order{AmountCents: 10000, PaymentMethod: domain.PaymentMethod("wire")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}

			s, err := Calculate(&tt.order, cfg, paidAt)

			assert.Nil(t, s)
			require.Error(t, err)
			assert.True(t, domain.IsDomainError(err, domain.ErrorCodeSettlementInvalidConfig))
		})
	}
}
