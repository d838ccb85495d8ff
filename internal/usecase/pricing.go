package usecase

import domain "github.com/minshop/order-api/internal/entity"

// Minor-unit currency amounts (KRW, no fractional component).
const (
	FreeShippingThreshold = 50000
	FlatShippingFee       = 3500
)

// ShippingFee is free from FreeShippingThreshold inclusive, flat below.
func ShippingFee(itemsTotal int64) int64 {
	if itemsTotal >= FreeShippingThreshold {
		return 0
	}
	return FlatShippingFee
}

// ComputeTotals sums the given lines into itemsTotal/shippingFee/
// orderTotal. Pure integer arithmetic, no rounding. An empty or
// degenerate line set fails with ErrInvalidAmount.
func ComputeTotals(lines []domain.OrderLine) (domain.Totals, error) {
	var itemsTotal int64
	for _, l := range lines {
		itemsTotal += l.LineTotal
	}
	if itemsTotal <= 0 {
		return domain.Totals{}, ErrInvalidAmount
	}

	fee := ShippingFee(itemsTotal)
	orderTotal := itemsTotal + fee
	if orderTotal <= 0 {
		return domain.Totals{}, ErrInvalidAmount
	}

	return domain.Totals{
		ItemsTotal:  itemsTotal,
		ShippingFee: fee,
		OrderTotal:  orderTotal,
	}, nil
}

// LinesFromCart freezes a cart snapshot into immutable order lines.
func LinesFromCart(items []domain.CartLine) []domain.OrderLine {
	lines := make([]domain.OrderLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, domain.OrderLine{
			ProductSeq:  it.ProductSeq,
			ProductName: it.ProductName,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			LineTotal:   it.UnitPrice * int64(it.Quantity),
		})
	}
	return lines
}
