package money

import "github.com/shopspring/decimal"

// Round rounds an amount to two decimal places, the precision all persisted
// money amounts carry.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// Format renders an amount with exactly two decimal places.
func Format(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// Ratio returns part/whole rounded to four decimal places. A zero whole yields
// zero rather than a division error, since ratio-of-nothing reports as zero.
func Ratio(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Round(4)
}

// Sum adds a slice of amounts.
func Sum(amounts []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
