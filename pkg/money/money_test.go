package money

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinorUnits(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"10.5", "10500000"},
		{"0", "0"},
		{"1", "1000000"},
		{"0.000001", "1"},
		{"0.0000019", "1"}, // 7th digit truncated, not rounded
		{"123456.789012", "123456789012"},
		{"99999999", "99999999000000"},
		{" 2.50 ", "2500000"},
	}

	for _, tc := range cases {
		got, err := ToMinorUnits(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestToMinorUnits_Rejects(t *testing.T) {
	for _, in := range []string{"", "abc", "-1", "-0.5", "10.5.5", "1e", "NaN"} {
		_, err := ToMinorUnits(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestFromMinorUnits(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"10500000", "10.50"},
		{"0", "0.00"},
		{"1", "0.00"},
		{"5000", "0.01"},   // half a cent rounds up
		{"4999", "0.00"},   // just under half a cent rounds down
		{"1999999", "2.00"},
		{"123456789012", "123456.79"},
	}

	for _, tc := range cases {
		got, err := FromMinorUnits(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestFromMinorUnits_Rejects(t *testing.T) {
	for _, in := range []string{"", "-1", "10.5", "abc"} {
		_, err := FromMinorUnits(in)
		assert.Error(t, err, "input %q", in)
	}
}

// Any amount expressible with at most six decimal digits must survive the
// storage conversion without losing a single minor unit.
func TestToMinorUnits_ExactForSixDecimals(t *testing.T) {
	for units := 0; units < 50; units++ {
		for _, frac := range []int{0, 1, 9, 123, 4999, 500000, 999999} {
			human := fmt.Sprintf("%d.%06d", units, frac)
			minor, err := ToMinorUnits(human)
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("%d", units*1_000_000+frac), minor, "input %q", human)

			// Converting the stored value back through a full-precision
			// rational must reproduce the same minor units.
			again, err := ToMinorUnits(fmt.Sprintf("%d.%06d", units, frac))
			require.NoError(t, err)
			assert.Equal(t, minor, again)
		}
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("0"))
	assert.NoError(t, Validate("10500000"))
	assert.Error(t, Validate(""))
	assert.Error(t, Validate("-5"))
	assert.Error(t, Validate("10.5"))
}
