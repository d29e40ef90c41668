package domain

// Category is the price action recommended for a matched merchant product.
type Category string

const (
	CategoryRaise    Category = "raise"
	CategoryLower    Category = "lower"
	CategoryApproved Category = "approved"
	CategoryMissing  Category = "missing"
)

// Risk flags how much manual review a decision needs. It is derived from
// match confidence and is orthogonal to the category.
type Risk string

const (
	RiskNormal   Risk = "normal"
	RiskMedium   Risk = "medium"
	RiskCritical Risk = "critical"
)

// MatchCandidate pairs a competitor record with its similarity score against
// one merchant query. Transient; never persisted on its own.
type MatchCandidate struct {
	Record CatalogRecord
	Score  int
}

// MatchDecision is the unit of output and persistence: one decision per
// merchant record per run. Never mutated after creation; re-running a session
// supersedes earlier decisions rather than updating them.
type MatchDecision struct {
	Merchant           CatalogRecord  `json:"merchant"`
	Competitor         *CatalogRecord `json:"competitor,omitempty"`
	Confidence         int            `json:"confidence"`
	PriceDelta         float64        `json:"priceDelta"`
	Category           Category       `json:"category"`
	Risk               Risk           `json:"risk"`
	RecommendedPrice   *float64       `json:"recommendedPrice,omitempty"`
	AdjudicationReason string         `json:"adjudicationReason,omitempty"`
	Brand              string         `json:"brand,omitempty"`
	ProductCategory    string         `json:"productCategory,omitempty"`
}

// Matched reports whether a competitor record was resolved for this decision.
func (d MatchDecision) Matched() bool {
	return d.Competitor != nil
}

// RunState is the explicit per-session state of one catalog pass. A resumed
// run reconstructs ProcessedCount from the persistence collaborator and skips
// that many leading merchant records.
type RunState struct {
	SessionID      string          `json:"sessionId"`
	ProcessedCount int             `json:"processedCount"`
	Decisions      []MatchDecision `json:"decisions"`
	Summary        Summary         `json:"summary"`
}

// Summary aggregates a decision set per category and per risk level.
type Summary struct {
	Total      int              `json:"total"`
	ByCategory map[Category]int `json:"byCategory"`
	ByRisk     map[Risk]int     `json:"byRisk"`
}

// Summarize counts decisions per category and per risk level.
func Summarize(decisions []MatchDecision) Summary {
	s := Summary{
		Total:      len(decisions),
		ByCategory: make(map[Category]int),
		ByRisk:     make(map[Risk]int),
	}
	for _, d := range decisions {
		s.ByCategory[d.Category]++
		s.ByRisk[d.Risk]++
	}
	return s
}
