package utils

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatBigInt(t *testing.T) {
	cases := []struct {
		name     string
		amount   *big.Int
		decimals uint8
		want     string
	}{
		{"nil amount", nil, 18, "0"},
		{"zero decimals", big.NewInt(12345), 0, "12345"},
		{"trims trailing zeros", big.NewInt(1234500000000000000), 18, "1.2345"},
		{"whole number", big.NewInt(2000000), 6, "2"},
		{"leading zero kept", big.NewInt(500000), 6, "0.5"},
		{"zero value", big.NewInt(0), 18, "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatBigInt(tc.amount, tc.decimals))
		})
	}
}

func TestFixedPointRoundTrip(t *testing.T) {
	assert.InDelta(t, 1.5, FixedPointToFloat(FloatToFixedPoint(1.5)), 1e-9)
	assert.InDelta(t, 10700, FixedPointToFloat(FloatToFixedPoint(10700)), 1e-6)
	assert.Zero(t, FixedPointToFloat(nil))
}

func TestWeiToGwei(t *testing.T) {
	assert.Equal(t, 25.0, WeiToGwei(big.NewInt(25_000_000_000)))
	assert.Zero(t, WeiToGwei(nil))
}
