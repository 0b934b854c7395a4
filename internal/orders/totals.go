package orders

import (
	"crypto/rand"
	"math"
	"math/big"

	"food-order-backend/internal/models"
)

const (
	orderNumberLen      = 10
	orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// RecalculateTotals sets subtotal, tax and total from the order's line items.
// Tax is rounded half-to-even to whole cents.
func RecalculateTotals(o *models.Order, taxRate float64) {
	var subtotal int64
	for _, item := range o.Items {
		subtotal += int64(item.Quantity) * item.UnitPriceCents
	}
	o.SubtotalCents = subtotal
	o.TaxCents = int64(math.RoundToEven(float64(subtotal) * taxRate))
	o.TotalCents = o.SubtotalCents + o.TaxCents + o.DeliveryFeeCents
}

// GenerateOrderNumber returns a random 10-character [A-Z0-9] string.
func GenerateOrderNumber() (string, error) {
	max := big.NewInt(int64(len(orderNumberAlphabet)))
	b := make([]byte, orderNumberLen)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = orderNumberAlphabet[n.Int64()]
	}
	return string(b), nil
}
