package domain

import "context"

// DecisionStore is the persistence collaborator for match decisions.
// SaveDecision failures must not abort a run; the controller logs and
// continues, accepting at-least-once persistence semantics.
type DecisionStore interface {
	SaveDecision(ctx context.Context, sessionID string, decision MatchDecision) error
	ProcessedCount(ctx context.Context, sessionID string) (int, error)
}

// DecisionReader serves persisted decisions back to consumers. Stores that
// can list decisions implement it alongside DecisionStore.
type DecisionReader interface {
	Decisions(ctx context.Context, sessionID string) ([]MatchDecision, error)
}

// Verdict is the adjudicator's answer for one ambiguous match.
type Verdict struct {
	IsMatch bool   `json:"is_match"`
	Reason  string `json:"reason"`
}

// Adjudicator is the external capability consulted for ambiguous-confidence
// matches only. Implementations own transport, model choice, and credentials;
// a call that cannot produce a verdict returns ErrAdjudicatorUnavailable.
type Adjudicator interface {
	Adjudicate(ctx context.Context, queryName, candidateName string, queryPrice, candidatePrice float64) (*Verdict, error)
}

// ProgressFunc receives (index, total) after every durably decided record.
type ProgressFunc func(index, total int)
