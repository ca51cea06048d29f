package supplier

import (
	"fmt"
)

const (
	// The supplier sells consumer electronics; anything under this is almost
	// certainly a truncated or placeholder price.
	lowPriceThreshold = 5.0

	highPriceThreshold = 10000.0
)

// Classify decides whether a supplier answer is trustworthy. The API is known
// to intermittently return self-contradictory stock/price pairs; these rules
// separate a real out-of-stock from an API glitch. Rules are evaluated in
// order, first match wins.
func Classify(answer Answer) Verdict {
	price := answer.Price

	if answer.Availability == OutOfStock && price > 0 {
		return Verdict{
			Valid:    false,
			Reason:   fmt.Sprintf("suspicious: outOfStock but price $%v", price),
			Severity: SeverityHigh,
		}
	}

	if answer.Availability == OutOfStock && price == 0 {
		return Verdict{
			Valid:    false,
			Reason:   "suspicious: outOfStock with $0 - may be API error",
			Severity: SeverityMedium,
		}
	}

	if price > 0 && price < lowPriceThreshold {
		return Verdict{
			Valid:    false,
			Reason:   fmt.Sprintf("suspicious: unusually low price $%v", price),
			Severity: SeverityMedium,
		}
	}

	if price > highPriceThreshold {
		return Verdict{
			Valid:    false,
			Reason:   fmt.Sprintf("suspicious: unusually high price $%v", price),
			Severity: SeverityLow,
		}
	}

	return Verdict{Valid: true, Severity: SeverityLow}
}
