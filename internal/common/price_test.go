package common_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ironbook/internal/common"
)

func TestNewPriceRejectsNonFinite(t *testing.T) {
	_, err := common.NewPrice(math.NaN())
	assert.ErrorIs(t, err, common.ErrNonFinitePrice)

	_, err = common.NewPrice(math.Inf(1))
	assert.ErrorIs(t, err, common.ErrNonFinitePrice)

	_, err = common.NewPrice(math.Inf(-1))
	assert.ErrorIs(t, err, common.ErrNonFinitePrice)
}

func TestPriceTotalOrder(t *testing.T) {
	cases := []float64{-100.5, -1, 0, 0.01, 1, 12.00, 99.999, 1e9}
	for i := 0; i < len(cases); i++ {
		for j := i + 1; j < len(cases); j++ {
			a := common.MustPrice(cases[i])
			b := common.MustPrice(cases[j])
			assert.True(t, a.Less(b), "%v should order before %v", cases[i], cases[j])
			assert.False(t, b.Less(a))
			assert.Equal(t, -1, a.Compare(b))
			assert.Equal(t, 1, b.Compare(a))
		}
	}
}

func TestPriceEqualityIsUsableAsMapKey(t *testing.T) {
	a := common.MustPrice(12.00)
	b := common.MustPrice(12.00)

	m := map[common.Price]int{a: 1}
	m[b]++
	assert.Equal(t, 2, m[a])
}

func TestPriceJSONRoundTrip(t *testing.T) {
	p := common.MustPrice(12.34)
	data, err := p.MarshalJSON()
	require.NoError(t, err)

	var out common.Price
	require.NoError(t, out.UnmarshalJSON(data))
	assert.Equal(t, p, out)
}
