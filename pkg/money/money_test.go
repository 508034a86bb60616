package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	amount, err := Parse(" 1500.50 ")
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.RequireFromString("1500.5")))

	amount, err = Parse("300.100")
	require.NoError(t, err)
	assert.Equal(t, "300.10", Format(amount))

	_, err = Parse("")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Parse("12abc")
	assert.ErrorIs(t, err, ErrNotNumeric)

	_, err = Parse("0.001")
	assert.ErrorIs(t, err, ErrTooPrecise)
}

func TestNormalize(t *testing.T) {
	amount, err := Normalize(decimal.NewFromFloat(99.9))
	require.NoError(t, err)
	assert.Equal(t, "99.90", Format(amount))

	_, err = Normalize(decimal.RequireFromString("10.125"))
	assert.ErrorIs(t, err, ErrTooPrecise)
}

func TestSumIsExact(t *testing.T) {
	values := make([]decimal.Decimal, 0, 10)
	for i := 0; i < 10; i++ {
		values = append(values, decimal.RequireFromString("0.10"))
	}
	assert.True(t, Sum(values...).Equal(decimal.NewFromInt(1)))
	assert.True(t, Sum().Equal(decimal.Zero))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "800.00", Format(decimal.NewFromInt(800)))
	assert.Equal(t, "-12.50", Format(decimal.RequireFromString("-12.5")))
}
