package esg

// Rating buckets, keyed by fixed score breakpoints.
const (
	RatingExcellent = "Excellent"
	RatingGood      = "Good"
	RatingModerate  = "Moderate"
	RatingPoor      = "Poor"
	RatingCritical  = "Critical"
)

// Interpretation is the human-readable view of a score. Both the direct API
// path and the live tracking path use this single mapping so a given score
// always renders the same rating and color.
type Interpretation struct {
	Rating         string `json:"rating"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
	Color          string `json:"color"`
}

// Interpret maps a score onto its rating bucket.
func Interpret(score int) Interpretation {
	switch {
	case score >= 90:
		return Interpretation{
			Rating:         RatingExcellent,
			Description:    "Excellent environmental performance",
			Recommendation: "Industry-leading practices. Share best practices with fleet.",
			Color:          "green",
		}
	case score >= 70:
		return Interpretation{
			Rating:         RatingGood,
			Description:    "Good environmental performance",
			Recommendation: "Maintain current practices, minor optimizations possible.",
			Color:          "lightgreen",
		}
	case score >= 50:
		return Interpretation{
			Rating:         RatingModerate,
			Description:    "Moderate environmental performance",
			Recommendation: "Review operational practices. Focus on reducing identified risks.",
			Color:          "yellow",
		}
	case score >= 30:
		return Interpretation{
			Rating:         RatingPoor,
			Description:    "Poor environmental performance",
			Recommendation: "Immediate action required. Address all risk flags systematically.",
			Color:          "orange",
		}
	default:
		return Interpretation{
			Rating:         RatingCritical,
			Description:    "Critical environmental performance",
			Recommendation: "Urgent intervention needed. Comprehensive environmental audit recommended.",
			Color:          "red",
		}
	}
}
