// Package money converts between human-readable decimal amounts and the
// fixed-point minor-unit strings used for the 6-decimal custodial token
// (1000000 minor units = 1.00).
package money

import (
	"fmt"
	"math/big"
	"strings"
)

// TokenDecimals is the number of fractional digits of the custodial token.
const TokenDecimals = 6

var minorUnitsPerToken = big.NewRat(1_000_000, 1)

// ToMinorUnits converts a human decimal amount ("10.5") to a minor-unit
// integer string ("10500000"). Digits beyond the sixth decimal place are
// truncated toward zero. Negative or non-numeric input is rejected.
func ToMinorUnits(human string) (string, error) {
	human = strings.TrimSpace(human)
	if human == "" {
		return "", fmt.Errorf("amount is empty")
	}

	r, ok := new(big.Rat).SetString(human)
	if !ok {
		return "", fmt.Errorf("amount %q is not a number", human)
	}
	if r.Sign() < 0 {
		return "", fmt.Errorf("amount %q is negative", human)
	}

	r.Mul(r, minorUnitsPerToken)
	// Quo truncates toward zero; for non-negative input that is a floor.
	return new(big.Int).Quo(r.Num(), r.Denom()).String(), nil
}

// FromMinorUnits renders a minor-unit string for display with exactly two
// decimal digits, rounding half-up at the cent. Display intentionally loses
// precision beyond cents; storage keeps all six digits.
func FromMinorUnits(minor string) (string, error) {
	units, err := parse(minor)
	if err != nil {
		return "", err
	}

	// 10^4 minor units per cent; +5000 rounds half-up.
	cents := new(big.Int).Add(units, big.NewInt(5_000))
	cents.Quo(cents, big.NewInt(10_000))

	whole, frac := new(big.Int).QuoRem(cents, big.NewInt(100), new(big.Int))
	return fmt.Sprintf("%s.%02d", whole.String(), frac.Int64()), nil
}

// Validate reports whether s is a well-formed minor-unit amount: a base-10
// non-negative integer string.
func Validate(s string) error {
	_, err := parse(s)
	return err
}

func parse(minor string) (*big.Int, error) {
	if minor == "" {
		return nil, fmt.Errorf("minor-unit amount is empty")
	}
	n, ok := new(big.Int).SetString(minor, 10)
	if !ok {
		return nil, fmt.Errorf("minor-unit amount %q is not an integer", minor)
	}
	if n.Sign() < 0 {
		return nil, fmt.Errorf("minor-unit amount %q is negative", minor)
	}
	return n, nil
}
