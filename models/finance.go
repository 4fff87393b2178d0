package models

import "github.com/shopspring/decimal"

var oneHundred = decimal.NewFromInt(100)

// LineItemTotal is quantity * unitPrice, kept at full precision. Rounding
// happens only when the tax amount is derived from the subtotal.
func LineItemTotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice)
}

// BidAggregate is the derived money state of a bid.
type BidAggregate struct {
	Subtotal  decimal.Decimal
	TaxAmount decimal.Decimal
	Total     decimal.Decimal
}

// RecomputeBid derives a bid's money fields from the full current line item
// set. It is deterministic and safe to re-run any number of times; callers
// must always replace the stored aggregate with this result rather than
// patching it incrementally.
//
//	subtotal  = sum(lineTotals)
//	taxAmount = round2(subtotal * taxPercent / 100)
//	total     = subtotal + taxAmount
func RecomputeBid(taxPercent decimal.Decimal, lineTotals []decimal.Decimal) BidAggregate {
	subtotal := decimal.Zero
	for _, t := range lineTotals {
		subtotal = subtotal.Add(t)
	}
	taxAmount := subtotal.Mul(taxPercent).Div(oneHundred).Round(2)
	return BidAggregate{
		Subtotal:  subtotal,
		TaxAmount: taxAmount,
		Total:     subtotal.Add(taxAmount),
	}
}
