package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name:     "without_wrapped_error",
			err:      NewDomainError(ErrorCodeOrderNotFound, "order not found"),
			expected: "ORDER_NOT_FOUND: order not found",
		},
		{
			name:     "with_wrapped_error",
			err:      WrapError(ErrorCodeDatabaseError, "failed to update order", errors.New("conn reset")),
			expected: "INTERNAL_DATABASE_ERROR: failed to update order: conn reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestDomainError_IsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("processing callback: %w",
		WrapError(ErrorCodeOrderNotFound, "no order for tx_123", errors.New("no rows")))

	assert.True(t, errors.Is(wrapped, ErrOrderNotFound))
	assert.False(t, errors.Is(wrapped, ErrEventUnmapped))
	assert.Equal(t, ErrorCodeOrderNotFound, GetErrorCode(wrapped))
}

func TestDomainError_WithDetail(t *testing.T) {
	err := NewDomainError(ErrorCodeSettlementInvalidConfig, "negative producer share").
		WithDetail("producer_id", "prod_1")

	assert.Equal(t, "prod_1", err.Details["producer_id"])
	assert.True(t, IsDomainError(err, ErrorCodeSettlementInvalidConfig))
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		notFound   bool
		validation bool
		noOp       bool
	}{
		{name: "order_not_found", err: ErrOrderNotFound, notFound: true, noOp: true},
		{name: "event_unmapped", err: ErrEventUnmapped, noOp: true},
		{name: "invalid_transition", err: ErrInvalidTransition, noOp: true},
		{name: "malformed_payload", err: ErrMalformedPayload, validation: true},
		{name: "unauthorized_source", err: ErrUnauthorizedSource, validation: true},
		{name: "delivery_not_found", err: ErrDeliveryNotFound, notFound: true},
		{name: "database_error", err: ErrDatabaseError},
		{name: "plain_error", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.notFound, IsNotFoundError(tt.err))
			assert.Equal(t, tt.validation, IsValidationError(tt.err))
			assert.Equal(t, tt.noOp, IsNoOp(tt.err))
		})
	}
}
