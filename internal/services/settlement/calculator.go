package settlement

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/pkg/timeutil"
)

var (
	one      = decimal.NewFromInt(1)
	maxCents = decimal.NewFromInt(math.MaxInt64)
)

// Calculate computes the settlement of an order being paid at paidAt under cfg.
//
// The base amount is the pre-discount price. When the producer absorbs
// installment interest and the order has more than one installment, the base is
// the charged total with the interest backed out:
//
//	base = total / (1 + monthly_rate)^installments
//
// Then:
//
//	platform_fee     = round(base * method_fee_percent) + fixed_fee
//	producer_share   = base - platform_fee
//	security_reserve = round(base * reserve_percent)
//
// Rounding is half away from zero to whole minor units. A configuration that
// yields a negative share or an out-of-range value is rejected, never clamped.
func Calculate(order *domain.Order, cfg domain.FeeConfig, paidAt time.Time) (*domain.Settlement, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	pct, ok := cfg.FeePercent(order.PaymentMethod)
	if !ok {
		return nil, invalidConfig("unknown payment method", fmt.Errorf("payment_method=%q", order.PaymentMethod))
	}

	base := BaseAmount(order, cfg)

	variableFee := base.Mul(pct).Round(0)
	fee := variableFee.Add(decimal.NewFromInt(cfg.FixedFeeCents))
	share := base.Sub(fee)
	reserve := base.Mul(cfg.ReservePercent).Round(0)

	if share.IsNegative() {
		return nil, invalidConfig("fee exceeds order amount",
			fmt.Errorf("base=%s fee=%s", base.String(), fee.String())).
			WithDetail("order_id", order.ID)
	}
	for name, v := range map[string]decimal.Decimal{"platform_fee": fee, "producer_share": share, "security_reserve": reserve} {
		if v.GreaterThan(maxCents) {
			return nil, invalidConfig("amount out of range", fmt.Errorf("%s=%s", name, v.String()))
		}
	}

	return &domain.Settlement{
		PaidAt:               paidAt,
		ReleaseAt:            timeutil.AddDays(paidAt, cfg.ReleaseDays(order.PaymentMethod)),
		ReserveReleaseAt:     timeutil.AddDays(paidAt, cfg.ReserveDays),
		BaseCents:            base.IntPart(),
		PlatformFeeCents:     fee.IntPart(),
		ProducerShareCents:   share.IntPart(),
		SecurityReserveCents: reserve.IntPart(),
	}, nil
}

// BaseAmount returns the amount fees are computed on, already rounded to whole minor units.
func BaseAmount(order *domain.Order, cfg domain.FeeConfig) decimal.Decimal {
	if cfg.AbsorbsInstallmentInterest && order.Installments > 1 && cfg.MonthlyInterestRate.IsPositive() {
		factor := one.Add(cfg.MonthlyInterestRate).Pow(decimal.NewFromInt(int64(order.Installments)))
		return decimal.NewFromInt(order.AmountCents).Div(factor).Round(0)
	}
	return decimal.NewFromInt(order.PriceCents())
}

// Validate rejects fee configurations that cannot produce a meaningful settlement.
func Validate(cfg domain.FeeConfig) error {
	for name, pct := range map[string]decimal.Decimal{
		"pix_fee_percent":    cfg.PixFeePercent,
		"boleto_fee_percent": cfg.BoletoFeePercent,
		"card_fee_percent":   cfg.CardFeePercent,
		"reserve_percent":    cfg.ReservePercent,
	} {
		if pct.IsNegative() || pct.GreaterThan(one) {
			return invalidConfig("percentage out of range", fmt.Errorf("%s=%s", name, pct.String()))
		}
	}

	if cfg.MonthlyInterestRate.IsNegative() {
		return invalidConfig("negative interest rate", fmt.Errorf("monthly_interest_rate=%s", cfg.MonthlyInterestRate.String()))
	}

	if cfg.FixedFeeCents < 0 || cfg.WithdrawalFeeCents < 0 {
		return invalidConfig("negative fixed fee", fmt.Errorf("fixed=%d withdrawal=%d", cfg.FixedFeeCents, cfg.WithdrawalFeeCents))
	}

	if cfg.ReserveDays < 0 || cfg.PixReleaseDays < 0 || cfg.BoletoReleaseDays < 0 || cfg.CardReleaseDays < 0 {
		return invalidConfig("negative day window", nil)
	}

	return nil
}

func invalidConfig(msg string, err error) *domain.DomainError {
	if err == nil {
		return domain.NewDomainError(domain.ErrorCodeSettlementInvalidConfig, msg)
	}
	return domain.WrapError(domain.ErrorCodeSettlementInvalidConfig, msg, err)
}
