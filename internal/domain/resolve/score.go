package resolve

import (
	"strings"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/crmagente/ranking/internal/domain/record"
)

// scoreFields is the priority order for the per-sale score: the nested
// modern form first, then the legacy top-level field.
var scoreFields = []string{"scores.base", "puntaje"}

// Score extracts the numeric score of a record as an exact decimal.
// Numeric-looking strings ("0.95") are coerced; non-numeric values and
// absent fields yield ok=false so the record is excluded upstream rather
// than counted as zero. No rounding happens here.
func Score(s record.Sale) (decimal.Decimal, bool) {
	for _, name := range scoreFields {
		v := s.Field(name)
		if v == nil {
			continue
		}
		if d, ok := coerceDecimal(v); ok {
			return d, true
		}
		// A present but unparseable value does not fall through to the
		// legacy field; the record is defective.
		return decimal.Zero, false
	}
	return decimal.Zero, false
}

func coerceDecimal(v interface{}) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val), true
	case float32:
		return decimal.NewFromFloat32(val), true
	case int:
		return decimal.NewFromInt(int64(val)), true
	case int32:
		return decimal.NewFromInt32(val), true
	case int64:
		return decimal.NewFromInt(val), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(val))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case primitive.Decimal128:
		d, err := decimal.NewFromString(val.String())
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}
