package sqltypes

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/docshift-inc/docshift-engine/pkg/models"
)

// String length tiers for bounded text, checked in ascending order.
var textTiers = []struct {
	limit int
	token string
}{
	{50, TypeNVarChar50},
	{100, TypeNVarChar100},
	{255, TypeNVarChar255},
	{1000, TypeNVarChar1000},
}

// dateTimeLayouts are tried in order when classifying string values.
// Cosmos documents carry ISO 8601 timestamps; the date-only layout is checked
// last so a bare date is not widened to DATETIME2.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

const dateOnlyLayout = "2006-01-02"

// InferValue maps a single scalar value to a candidate column type token.
// Total: every input produces exactly one token; unrecognized kinds fall back
// to unbounded text. Objects and arrays are opaque here - the schema
// extractor handles structure, this only sees them when an array element
// nests another array.
func InferValue(v models.Value) string {
	switch v.Kind {
	case models.KindNull:
		return TypeNull
	case models.KindBool:
		return TypeBit
	case models.KindString:
		return InferString(v.Str)
	case models.KindNumber:
		return InferNumber(v.Num.String())
	case models.KindObject, models.KindArray:
		return TypeNVarCharMax
	default:
		return TypeNVarCharMax
	}
}

// InferString classifies a string value: date-time, date, GUID, then bounded
// text by length tier.
func InferString(s string) string {
	for _, layout := range dateTimeLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return TypeDateTime2
		}
	}
	if _, err := time.Parse(dateOnlyLayout, s); err == nil {
		return TypeDate
	}
	if _, err := uuid.Parse(s); err == nil {
		return TypeUniqueIdentifier
	}
	for _, tier := range textTiers {
		if len(s) <= tier.limit {
			return tier.token
		}
	}
	return TypeNVarCharMax
}

// InferNumber classifies raw JSON number text. Integers bucket by magnitude,
// everything else is fixed-point decimal with the scale tier derived from the
// number of fractional digits in the source text.
func InferNumber(raw string) string {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return TypeNVarCharMax
	}

	// Scientific notation and fractional values go straight to decimal tiers.
	if d.Exponent() >= 0 && d.IsInteger() {
		i := d.BigInt()
		if i.IsInt64() {
			return integerToken(i.Int64())
		}
		// Beyond 64-bit range; keep it as zero-scale decimal.
		return TypeDecimal0
	}

	scale := int32(0)
	if d.Exponent() < 0 {
		scale = -d.Exponent()
	}
	switch {
	case scale == 0:
		return TypeDecimal0
	case scale <= 2:
		return TypeDecimal2
	case scale <= 4:
		return TypeDecimal4
	default:
		return TypeDecimal6
	}
}

func integerToken(n int64) string {
	switch {
	case n >= 0 && n <= 255:
		return TypeTinyInt
	case n >= math.MinInt16 && n <= math.MaxInt16:
		return TypeSmallInt
	case n >= math.MinInt32 && n <= math.MaxInt32:
		return TypeInt
	default:
		return TypeBigInt
	}
}
