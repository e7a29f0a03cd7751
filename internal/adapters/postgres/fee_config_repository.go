package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kevin07696/settlement-service/internal/converters"
	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/domain/ports"
)

// FeeConfigRepository implements ports.FeeConfigRepository over the platform
// defaults row and the producer override row
type FeeConfigRepository struct {
	pool *pgxpool.Pool
}

// NewFeeConfigRepository creates a new fee configuration repository
func NewFeeConfigRepository(db ports.DBPort) *FeeConfigRepository {
	return &FeeConfigRepository{pool: db.GetDB()}
}

// GetEffective returns the platform defaults with the producer's overrides applied
func (r *FeeConfigRepository) GetEffective(ctx context.Context, producerID string) (domain.FeeConfig, error) {
	var (
		pix, boleto, card, reserve, interest           pgtype.Numeric
		fixed, withdrawal                              int64
		reserveDays, pixDays, boletoDays, cardDays     int
		oPix, oBoleto, oCard, oReserve                 pgtype.Numeric
		oFixed, oWithdrawal                            pgtype.Int8
		oReserveDays, oPixDays, oBoletoDays, oCardDays pgtype.Int4
		oAbsorbs                                       pgtype.Bool
	)

	err := r.pool.QueryRow(ctx, `
		SELECT d.pix_fee_percent, d.boleto_fee_percent, d.card_fee_percent, d.reserve_percent,
			d.monthly_interest_rate, d.fixed_fee_cents, d.withdrawal_fee_cents,
			d.reserve_days, d.pix_release_days, d.boleto_release_days, d.card_release_days,
			o.pix_fee_percent, o.boleto_fee_percent, o.card_fee_percent, o.reserve_percent,
			o.fixed_fee_cents, o.withdrawal_fee_cents,
			o.reserve_days, o.pix_release_days, o.boleto_release_days, o.card_release_days,
			o.absorbs_installment_interest
		FROM platform_fee_settings d
		LEFT JOIN producer_fee_overrides o ON o.producer_id = $1
		WHERE d.id`,
		producerID,
	).Scan(
		&pix, &boleto, &card, &reserve, &interest, &fixed, &withdrawal,
		&reserveDays, &pixDays, &boletoDays, &cardDays,
		&oPix, &oBoleto, &oCard, &oReserve, &oFixed, &oWithdrawal,
		&oReserveDays, &oPixDays, &oBoletoDays, &oCardDays, &oAbsorbs,
	)
	if err != nil {
		return domain.FeeConfig{}, fmt.Errorf("get fee configuration: %w", err)
	}

	defaults := domain.FeeConfig{
		FixedFeeCents:      fixed,
		WithdrawalFeeCents: withdrawal,
		ReserveDays:        reserveDays,
		PixReleaseDays:     pixDays,
		BoletoReleaseDays:  boletoDays,
		CardReleaseDays:    cardDays,
	}
	if defaults.PixFeePercent, err = converters.NumericToDecimal(pix); err != nil {
		return domain.FeeConfig{}, fmt.Errorf("pix_fee_percent: %w", err)
	}
	if defaults.BoletoFeePercent, err = converters.NumericToDecimal(boleto); err != nil {
		return domain.FeeConfig{}, fmt.Errorf("boleto_fee_percent: %w", err)
	}
	if defaults.CardFeePercent, err = converters.NumericToDecimal(card); err != nil {
		return domain.FeeConfig{}, fmt.Errorf("card_fee_percent: %w", err)
	}
	if defaults.ReservePercent, err = converters.NumericToDecimal(reserve); err != nil {
		return domain.FeeConfig{}, fmt.Errorf("reserve_percent: %w", err)
	}
	if defaults.MonthlyInterestRate, err = converters.NumericToDecimal(interest); err != nil {
		return domain.FeeConfig{}, fmt.Errorf("monthly_interest_rate: %w", err)
	}

	override := &domain.FeeOverride{
		FixedFeeCents:              converters.OptionalInt64(oFixed),
		WithdrawalFeeCents:         converters.OptionalInt64(oWithdrawal),
		ReserveDays:                converters.OptionalInt(oReserveDays),
		PixReleaseDays:             converters.OptionalInt(oPixDays),
		BoletoReleaseDays:          converters.OptionalInt(oBoletoDays),
		CardReleaseDays:            converters.OptionalInt(oCardDays),
		AbsorbsInstallmentInterest: converters.OptionalBool(oAbsorbs),
	}
	if override.PixFeePercent, err = converters.OptionalDecimal(oPix); err != nil {
		return domain.FeeConfig{}, fmt.Errorf("override pix_fee_percent: %w", err)
	}
	if override.BoletoFeePercent, err = converters.OptionalDecimal(oBoleto); err != nil {
		return domain.FeeConfig{}, fmt.Errorf("override boleto_fee_percent: %w", err)
	}
	if override.CardFeePercent, err = converters.OptionalDecimal(oCard); err != nil {
		return domain.FeeConfig{}, fmt.Errorf("override card_fee_percent: %w", err)
	}
	if override.ReservePercent, err = converters.OptionalDecimal(oReserve); err != nil {
		return domain.FeeConfig{}, fmt.Errorf("override reserve_percent: %w", err)
	}

	return override.Apply(defaults), nil
}
