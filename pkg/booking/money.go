package booking

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var minorUnitsFactor = decimal.NewFromInt(minorUnitsPerMajorUnit)

// ToMinorUnits converts a major-unit price to minor units, rounding half-up.
func ToMinorUnits(price decimal.Decimal) (int64, error) {
	if price.IsNegative() {
		return 0, fmt.Errorf("%w: negative price %s", ErrInvalidInput, price.String())
	}
	return price.Mul(minorUnitsFactor).Round(0).IntPart(), nil
}
