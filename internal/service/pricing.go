package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// Pricing holds the shipping rule applied at checkout.
type Pricing struct {
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
}

// ShippingFee is free at or above the threshold, otherwise the flat fee.
func (p Pricing) ShippingFee(itemsTotal decimal.Decimal) decimal.Decimal {
	if itemsTotal.GreaterThanOrEqual(p.FreeShippingThreshold) {
		return decimal.Zero
	}
	return p.FlatShippingFee
}

// Totals returns the shipping fee and grand total for itemsTotal.
func (p Pricing) Totals(itemsTotal decimal.Decimal) (shipping, grand decimal.Decimal) {
	shipping = p.ShippingFee(itemsTotal)
	return shipping, itemsTotal.Add(shipping)
}

func lineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// OrderNumberFunc returns a candidate order number for the given instant.
type OrderNumberFunc func(now time.Time) (string, error)

var sixDigits = big.NewInt(1_000_000)

// NewOrderNumberFunc builds order numbers shaped prefix + YYYYMMDD + six
// random digits.
func NewOrderNumberFunc(prefix string) OrderNumberFunc {
	return func(now time.Time) (string, error) {
		n, err := rand.Int(rand.Reader, sixDigits)
		if err != nil {
			return "", fmt.Errorf("order number entropy: %w", err)
		}
		return fmt.Sprintf("%s%s%06d", prefix, now.Format("20060102"), n.Int64()), nil
	}
}
