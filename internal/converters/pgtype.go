package converters

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// ToNullableText converts a string to pgtype.Text
// Returns invalid Text for the empty string
func ToNullableText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// NumericToDecimal converts pgtype.Numeric to decimal.Decimal
func NumericToDecimal(n pgtype.Numeric) (decimal.Decimal, error) {
	var dec decimal.Decimal
	str, err := n.MarshalJSON()
	if err != nil {
		return dec, fmt.Errorf("marshal numeric: %w", err)
	}
	// Remove quotes from JSON string
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}
	return decimal.NewFromString(string(str))
}

// OptionalDecimal converts a nullable NUMERIC column, returning nil for NULL
func OptionalDecimal(n pgtype.Numeric) (*decimal.Decimal, error) {
	if !n.Valid {
		return nil, nil
	}
	d, err := NumericToDecimal(n)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// OptionalInt64 returns nil for a NULL BIGINT
func OptionalInt64(v pgtype.Int8) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

// OptionalInt returns nil for a NULL INTEGER
func OptionalInt(v pgtype.Int4) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int32)
	return &i
}

// OptionalBool returns nil for a NULL BOOLEAN
func OptionalBool(v pgtype.Bool) *bool {
	if !v.Valid {
		return nil
	}
	return &v.Bool
}

// StringOrEmpty returns empty string if pointer is nil, otherwise returns the value
func StringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
