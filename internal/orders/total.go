package orders

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TotalMode selects how line-items are folded into an order total.
type TotalMode string

const (
	// TotalSum adds every line-item's quantity*price.
	TotalSum TotalMode = "sum"
	// TotalLast keeps only the final line-item's quantity*price. Legacy clients
	// compare against this figure.
	TotalLast TotalMode = "last"
)

func ParseTotalMode(s string) (TotalMode, error) {
	switch m := TotalMode(s); m {
	case TotalSum, TotalLast:
		return m, nil
	default:
		return "", fmt.Errorf("unknown total mode %q", s)
	}
}

// RateSource yields the exchange rate applied to produce total_usd.
type RateSource interface {
	BlueRate(ctx context.Context) (decimal.Decimal, error)
}

// Calculator derives an order's total and its converted total.
// Rates is optional; without it total_usd is never populated.
type Calculator struct {
	Mode  TotalMode
	Rates RateSource
	Log   *zap.Logger
}

// Total folds lines according to the calculator mode. Lines are expected in id order.
func (c *Calculator) Total(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		v := decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity)))
		if c.Mode == TotalLast {
			total = v
			continue
		}
		total = total.Add(v)
	}
	return total
}

// Rate fetches the current quote, logging and swallowing any failure.
func (c *Calculator) Rate(ctx context.Context) *decimal.Decimal {
	if c.Rates == nil {
		return nil
	}
	r, err := c.Rates.BlueRate(ctx)
	if err != nil {
		if c.Log != nil {
			c.Log.Warn("exchange rate unavailable, omitting total_usd", zap.Error(err))
		}
		return nil
	}
	return &r
}

// View builds the client representation of o. rate may be nil; an order with no
// line-items never gets a converted total.
func (c *Calculator) View(o Order, lines []Line, rate *decimal.Decimal) OrderView {
	total := c.Total(lines)
	v := OrderView{Order: o, Total: total.InexactFloat64()}
	if rate != nil && len(lines) > 0 {
		usd := total.Mul(*rate).InexactFloat64()
		v.TotalUSD = &usd
	}
	return v
}
