package domain

import (
	"github.com/shopspring/decimal"
)

// FeeConfig is the effective fee schedule applied to a producer's sales.
// Percentages are fractions (0.03 is 3%).
type FeeConfig struct {
	PixFeePercent              decimal.Decimal `json:"pix_fee_percent"`
	BoletoFeePercent           decimal.Decimal `json:"boleto_fee_percent"`
	CardFeePercent             decimal.Decimal `json:"card_fee_percent"`
	ReservePercent             decimal.Decimal `json:"reserve_percent"`
	MonthlyInterestRate        decimal.Decimal `json:"monthly_interest_rate"`
	FixedFeeCents              int64           `json:"fixed_fee_cents"`
	WithdrawalFeeCents         int64           `json:"withdrawal_fee_cents"`
	ReserveDays                int             `json:"reserve_days"`
	PixReleaseDays             int             `json:"pix_release_days"`
	BoletoReleaseDays          int             `json:"boleto_release_days"`
	CardReleaseDays            int             `json:"card_release_days"`
	AbsorbsInstallmentInterest bool            `json:"absorbs_installment_interest"`
}

// FeePercent returns the percentage fee charged for a payment method.
func (c FeeConfig) FeePercent(m PaymentMethod) (decimal.Decimal, bool) {
	switch m {
	case PaymentMethodPix:
		return c.PixFeePercent, true
	case PaymentMethodBoleto:
		return c.BoletoFeePercent, true
	case PaymentMethodCreditCard:
		return c.CardFeePercent, true
	default:
		return decimal.Zero, false
	}
}

// ReleaseDays returns how many days after payment funds become withdrawable. 0 is immediate.
func (c FeeConfig) ReleaseDays(m PaymentMethod) int {
	switch m {
	case PaymentMethodPix:
		return c.PixReleaseDays
	case PaymentMethodBoleto:
		return c.BoletoReleaseDays
	case PaymentMethodCreditCard:
		return c.CardReleaseDays
	default:
		return 0
	}
}

// FeeOverride holds a producer's contractual deviations from the platform defaults.
// Nil fields inherit the default.
type FeeOverride struct {
	PixFeePercent              *decimal.Decimal
	BoletoFeePercent           *decimal.Decimal
	CardFeePercent             *decimal.Decimal
	ReservePercent             *decimal.Decimal
	FixedFeeCents              *int64
	WithdrawalFeeCents         *int64
	ReserveDays                *int
	PixReleaseDays             *int
	BoletoReleaseDays          *int
	CardReleaseDays            *int
	AbsorbsInstallmentInterest *bool
}

// Apply returns defaults with every non-nil override field substituted.
func (o *FeeOverride) Apply(defaults FeeConfig) FeeConfig {
	if o == nil {
		return defaults
	}
	out := defaults
	if o.PixFeePercent != nil {
		out.PixFeePercent = *o.PixFeePercent
	}
	if o.BoletoFeePercent != nil {
		out.BoletoFeePercent = *o.BoletoFeePercent
	}
	if o.CardFeePercent != nil {
		out.CardFeePercent = *o.CardFeePercent
	}
	if o.ReservePercent != nil {
		out.ReservePercent = *o.ReservePercent
	}
	if o.FixedFeeCents != nil {
		out.FixedFeeCents = *o.FixedFeeCents
	}
	if o.WithdrawalFeeCents != nil {
		out.WithdrawalFeeCents = *o.WithdrawalFeeCents
	}
	if o.ReserveDays != nil {
		out.ReserveDays = *o.ReserveDays
	}
	if o.PixReleaseDays != nil {
		out.PixReleaseDays = *o.PixReleaseDays
	}
	if o.BoletoReleaseDays != nil {
		out.BoletoReleaseDays = *o.BoletoReleaseDays
	}
	if o.CardReleaseDays != nil {
		out.CardReleaseDays = *o.CardReleaseDays
	}
	if o.AbsorbsInstallmentInterest != nil {
		out.AbsorbsInstallmentInterest = *o.AbsorbsInstallmentInterest
	}
	return out
}
