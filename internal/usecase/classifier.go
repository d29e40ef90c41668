package usecase

import (
	"context"
	"log"

	"github.com/pricepilot/backend/internal/domain"
)

// priceEpsilon guards percentage computation against a zero merchant price.
const priceEpsilon = 0.01

// Default decision thresholds.
const (
	defaultMatchThreshold = 60
	defaultAmbiguousLow   = 60
	defaultAmbiguousHigh  = 85
	defaultRaisePct       = 10.0
	defaultLowerPct       = 5.0
	defaultReviewPct      = 85
	defaultCriticalPct    = 70
)

// Thresholds are the caller-configurable cutoffs of the decision classifier.
// Confidence values are integer percentages in [0,100]. RaisePct and LowerPct
// are price-swing percentages relative to the merchant price; a matched
// decision whose swing exceeds them is escalated to at least medium risk.
type Thresholds struct {
	Match         int
	AmbiguousLow  int
	AmbiguousHigh int
	RaisePct      float64
	LowerPct      float64
	ReviewPct     int
	CriticalPct   int
}

// DefaultThresholds returns the default cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Match:         defaultMatchThreshold,
		AmbiguousLow:  defaultAmbiguousLow,
		AmbiguousHigh: defaultAmbiguousHigh,
		RaisePct:      defaultRaisePct,
		LowerPct:      defaultLowerPct,
		ReviewPct:     defaultReviewPct,
		CriticalPct:   defaultCriticalPct,
	}
}

// withDefaults fills unset fields with the default cutoffs.
func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t.Match <= 0 {
		t.Match = d.Match
	}
	if t.AmbiguousLow <= 0 {
		t.AmbiguousLow = d.AmbiguousLow
	}
	if t.AmbiguousHigh <= 0 {
		t.AmbiguousHigh = d.AmbiguousHigh
	}
	if t.RaisePct <= 0 {
		t.RaisePct = d.RaisePct
	}
	if t.LowerPct <= 0 {
		t.LowerPct = d.LowerPct
	}
	if t.ReviewPct <= 0 {
		t.ReviewPct = d.ReviewPct
	}
	if t.CriticalPct <= 0 {
		t.CriticalPct = d.CriticalPct
	}
	return t
}

// Classifier maps (similarity score, price delta) to a category and a risk
// level. Ambiguous-confidence matches are escalated to the adjudicator before
// classification; everything else is a pure function of the thresholds.
type Classifier struct {
	thresholds  Thresholds
	adjudicator domain.Adjudicator
	debug       bool
}

// NewClassifier creates a classifier. A nil adjudicator is treated as an
// unavailable one, so the conservative fallback policy governs the ambiguous
// band.
func NewClassifier(thresholds Thresholds, adjudicator domain.Adjudicator, debug bool) *Classifier {
	return &Classifier{
		thresholds:  thresholds.withDefaults(),
		adjudicator: adjudicator,
		debug:       debug,
	}
}

// Thresholds returns the effective cutoffs after default fill-in.
func (c *Classifier) Thresholds() Thresholds {
	return c.thresholds
}

// Classify produces the decision for one merchant record. hasCandidate is
// false when the block lookup returned nothing; otherwise candidate carries
// the best-scoring competitor and its confidence.
func (c *Classifier) Classify(ctx context.Context, merchant domain.CatalogRecord, candidate domain.MatchCandidate, hasCandidate bool) domain.MatchDecision {
	t := c.thresholds

	if !hasCandidate || candidate.Score < t.Match {
		return missingDecision(merchant, "", domain.RiskNormal)
	}

	confidence := candidate.Score
	reason := ""

	// Ambiguous band: string similarity alone is not decisive, ask the
	// adjudicator. The band's upper bound is exclusive so auto-accept starts
	// exactly at AmbiguousHigh.
	if confidence >= t.AmbiguousLow && confidence < t.AmbiguousHigh {
		verdict, err := c.adjudicate(ctx, merchant, candidate.Record)
		switch {
		case err != nil:
			// Never silently accept: take the match only when
			// confidence clears the band midpoint, otherwise reject and flag
			// the decision for manual review.
			midpoint := float64(t.AmbiguousLow+t.AmbiguousHigh) / 2
			if float64(confidence) < midpoint {
				if c.debug {
					log.Printf("[CLASSIFY] adjudicator unavailable, rejecting %q at confidence %d", merchant.DisplayName, confidence)
				}
				return missingDecision(merchant, "adjudicator unavailable; confidence below fallback threshold", domain.RiskCritical)
			}
			reason = "adjudicator unavailable; accepted on confidence"
		case !verdict.IsMatch:
			return missingDecision(merchant, verdict.Reason, domain.RiskNormal)
		default:
			reason = verdict.Reason
		}
	}

	competitor := candidate.Record
	delta := competitor.Price - merchant.Price
	base := merchant.Price
	if base < priceEpsilon {
		base = priceEpsilon
	}
	pct := delta / base * 100

	decision := domain.MatchDecision{
		Merchant:           merchant,
		Competitor:         &competitor,
		Confidence:         confidence,
		PriceDelta:         delta,
		Category:           domain.CategoryApproved,
		Risk:               riskFor(confidence, t),
		AdjudicationReason: reason,
	}

	// Any real price gap is acted on. Undercut strategy: land one currency
	// unit below the competitor.
	switch {
	case delta > priceEpsilon:
		decision.Category = domain.CategoryRaise
		rec := competitor.Price - 1
		decision.RecommendedPrice = &rec
	case delta < -priceEpsilon:
		decision.Category = domain.CategoryLower
		rec := competitor.Price - 1
		decision.RecommendedPrice = &rec
	}

	// A swing beyond the configured percentages needs a human look even at
	// high confidence.
	if (pct > t.RaisePct || pct < -t.LowerPct) && decision.Risk == domain.RiskNormal {
		decision.Risk = domain.RiskMedium
	}

	return decision
}

func (c *Classifier) adjudicate(ctx context.Context, merchant, competitor domain.CatalogRecord) (*domain.Verdict, error) {
	if c.adjudicator == nil {
		return nil, domain.ErrAdjudicatorUnavailable
	}
	return c.adjudicator.Adjudicate(ctx, merchant.DisplayName, competitor.DisplayName, merchant.Price, competitor.Price)
}

func riskFor(confidence int, t Thresholds) domain.Risk {
	switch {
	case confidence < t.CriticalPct:
		return domain.RiskCritical
	case confidence < t.ReviewPct:
		return domain.RiskMedium
	default:
		return domain.RiskNormal
	}
}

func missingDecision(merchant domain.CatalogRecord, reason string, risk domain.Risk) domain.MatchDecision {
	return domain.MatchDecision{
		Merchant:           merchant,
		Category:           domain.CategoryMissing,
		Risk:               risk,
		AdjudicationReason: reason,
	}
}
