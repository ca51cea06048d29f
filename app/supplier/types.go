package supplier

// Availability is the wire form shared with the persisted store
type Availability string

const (
	InStock    Availability = "inStock"
	OutOfStock Availability = "outOfStock"
)

// Answer is one normalized supplier response for a SKU. Produced fresh per
// lookup attempt, never mutated.
type Answer struct {
	SKU          string
	Price        float64
	Brand        string
	Availability Availability
	Quantity     int
	HandlingDays int
}

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Verdict classifies a single Answer as trustworthy or suspicious
type Verdict struct {
	Valid    bool
	Reason   string
	Severity Severity
}
