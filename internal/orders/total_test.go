package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubRates struct {
	rate decimal.Decimal
	err  error
	hits int
}

func (s *stubRates) BlueRate(context.Context) (decimal.Decimal, error) {
	s.hits++
	return s.rate, s.err
}

func TestParseTotalMode(t *testing.T) {
	m, err := ParseTotalMode("sum")
	require.NoError(t, err)
	assert.Equal(t, TotalSum, m)

	m, err = ParseTotalMode("last")
	require.NoError(t, err)
	assert.Equal(t, TotalLast, m)

	_, err = ParseTotalMode("avg")
	assert.Error(t, err)
}

func TestTotalSingleLine(t *testing.T) {
	for _, mode := range []TotalMode{TotalSum, TotalLast} {
		c := &Calculator{Mode: mode}
		got := c.Total([]Line{{Quantity: 2, Price: 5.0}})
		assert.True(t, got.Equal(decimal.NewFromInt(10)), "mode %s got %s", mode, got)
	}
}

func TestTotalMultiLineModes(t *testing.T) {
	lines := []Line{{Quantity: 2, Price: 5.0}, {Quantity: 3, Price: 1.5}}

	sum := (&Calculator{Mode: TotalSum}).Total(lines)
	assert.Equal(t, "14.5", sum.String())

	// last mode keeps only the final line-item's contribution
	last := (&Calculator{Mode: TotalLast}).Total(lines)
	assert.Equal(t, "4.5", last.String())
}

func TestTotalNoLines(t *testing.T) {
	assert.True(t, (&Calculator{Mode: TotalSum}).Total(nil).IsZero())
}

func TestTotalAvoidsFloatDrift(t *testing.T) {
	got := (&Calculator{Mode: TotalSum}).Total([]Line{{Quantity: 3, Price: 0.1}})
	assert.Equal(t, "0.3", got.String())
}

func TestViewWithRate(t *testing.T) {
	rates := &stubRates{rate: decimal.RequireFromString("350.5")}
	c := &Calculator{Mode: TotalSum, Rates: rates}
	o := Order{ID: 1, DateTime: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}

	v := c.View(o, []Line{{Quantity: 2, Price: 5}}, c.Rate(context.Background()))
	assert.Equal(t, 10.0, v.Total)
	require.NotNil(t, v.TotalUSD)
	assert.Equal(t, 3505.0, *v.TotalUSD)
	assert.Equal(t, 1, rates.hits)
}

func TestViewRateFailureOmitsConverted(t *testing.T) {
	c := &Calculator{Mode: TotalSum, Rates: &stubRates{err: errors.New("dial tcp: timeout")}, Log: zap.NewNop()}
	v := c.View(Order{ID: 1}, []Line{{Quantity: 2, Price: 5}}, c.Rate(context.Background()))
	assert.Equal(t, 10.0, v.Total)
	assert.Nil(t, v.TotalUSD)
}

func TestViewWithoutRatesOrLines(t *testing.T) {
	c := &Calculator{Mode: TotalSum}
	assert.Nil(t, c.Rate(context.Background()))

	r := decimal.NewFromInt(100)
	v := c.View(Order{ID: 1}, nil, &r)
	assert.Equal(t, 0.0, v.Total)
	assert.Nil(t, v.TotalUSD)
}
