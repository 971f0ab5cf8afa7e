package domain

// Confidence is the external, closed classification of a match. The score
// behind it is internal to the matcher.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

// Rank orders tiers so that a higher value is a stronger match.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

type MatchResult struct {
	Transaction    BankTransaction `json:"transaction"`
	MatchedInvoice *InvoiceRef     `json:"matched_invoice"`
	Confidence     Confidence      `json:"confidence"`
	MatchReason    string          `json:"match_reason"`
}
