package booking

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestToMinorUnitsRoundsHalfUp(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		price    string
		expected int64
	}{
		{price: "3", expected: 300},
		{price: "0.01", expected: 1},
		{price: "2.345", expected: 235},
		{price: "2.344", expected: 234},
		{price: "0.005", expected: 1},
		{price: "19.999", expected: 2000},
		{price: "0", expected: 0},
	}
	for _, testCase := range testCases {
		amount, err := ToMinorUnits(decimal.RequireFromString(testCase.price))
		if err != nil {
			test.Fatalf("%s: %v", testCase.price, err)
		}
		if amount != testCase.expected {
			test.Fatalf("%s: expected %d, got %d", testCase.price, testCase.expected, amount)
		}
	}
}

func TestToMinorUnitsRejectsNegative(test *testing.T) {
	test.Parallel()
	if _, err := ToMinorUnits(decimal.RequireFromString("-1")); !errors.Is(err, ErrInvalidInput) {
		test.Fatalf("expected invalid input, got %v", err)
	}
}
