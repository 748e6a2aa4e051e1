package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNormalizesCurrency(t *testing.T) {
	m, err := New(100, "xof")
	require.NoError(t, err)
	assert.Equal(t, "XOF", m.Currency)

	_, err = New(100, "CFA1")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestArithmeticRequiresSameCurrency(t *testing.T) {
	a := Must(1000, "XOF")
	b := Must(250, "XOF")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, int64(1250), sum.Amount)

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, int64(750), diff.Amount)

	_, err = a.Add(Must(1, "EUR"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestRatioRoundsHalfUp(t *testing.T) {
	cases := []struct {
		amount   int64
		num, den int64
		want     int64
	}{
		{100000, 15, 100, 15000},
		{10000 * 7, 85, 100, 59500},
		{10000 * 30, 70, 100, 210000},
		{10, 15, 100, 2},   // 1.5 -> 2
		{13, 15, 100, 2},   // 1.95 -> 2
		{3, 15, 100, 0},    // 0.45 -> 0
		{-10, 15, 100, -2}, // -1.5 -> -2
	}
	for _, tc := range cases {
		got := Must(tc.amount, "XOF").Ratio(tc.num, tc.den)
		assert.Equal(t, tc.want, got.Amount, "amount=%d ratio=%d/%d", tc.amount, tc.num, tc.den)
	}
}

func TestFloorZero(t *testing.T) {
	assert.Equal(t, int64(0), Must(-5, "XOF").FloorZero().Amount)
	assert.Equal(t, int64(5), Must(5, "XOF").FloorZero().Amount)
}
