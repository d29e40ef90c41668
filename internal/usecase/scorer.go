package usecase

import (
	"math"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/pricepilot/backend/internal/domain"
)

// ScorerConfig holds configuration for the similarity scorer.
type ScorerConfig struct {
	// EnableFuzzyTokens folds candidate tokens within FuzzyEditDistance of a
	// query token onto that token before the token-sort comparison, absorbing
	// small spelling variants.
	EnableFuzzyTokens bool
	FuzzyEditDistance int
}

// Scorer computes a bounded [0,100] similarity between product names and
// selects the best candidate per query.
type Scorer struct {
	enableFuzzyTokens bool
	fuzzyEditDistance int
}

// NewScorer creates a scorer with the given configuration.
func NewScorer(config ScorerConfig) *Scorer {
	dist := config.FuzzyEditDistance
	if dist <= 0 {
		dist = 1
	}
	return &Scorer{
		enableFuzzyTokens: config.EnableFuzzyTokens,
		fuzzyEditDistance: dist,
	}
}

// Score returns an integer similarity in [0,100] between two names.
// It is the better of a plain character-level indel ratio and a
// token-order-insensitive ratio over the sorted tokens, so identical token
// multisets score 100 and token order never hurts a match. Inputs are
// lower-cased; diacritics, punctuation, and digits pass through as-is.
func (s *Scorer) Score(query, candidate string) int {
	q := strings.ToLower(query)
	c := strings.ToLower(candidate)

	plain := indelRatio([]rune(q), []rune(c))

	qTokens := strings.Fields(q)
	cTokens := strings.Fields(c)
	if s.enableFuzzyTokens {
		cTokens = s.foldTokens(qTokens, cTokens)
	}
	sorted := indelRatio([]rune(joinSorted(qTokens)), []rune(joinSorted(cTokens)))

	score := int(math.Round(math.Max(plain, sorted)))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// BestMatch returns the highest-scoring candidate for the query, or false
// when the candidate list is empty. Ties go to the first-encountered
// candidate, so results are deterministic for a given input order.
func (s *Scorer) BestMatch(query string, candidates []domain.CatalogRecord) (domain.MatchCandidate, bool) {
	if len(candidates) == 0 {
		return domain.MatchCandidate{}, false
	}

	best := domain.MatchCandidate{Score: -1}
	for _, cand := range candidates {
		score := s.Score(query, cand.NormalizedName)
		if score > best.Score {
			best = domain.MatchCandidate{Record: cand, Score: score}
		}
	}
	return best, true
}

// foldTokens maps candidate tokens that are within the edit-distance
// threshold of a query token onto that token. Tokens shorter than 4 runes
// are left alone to avoid false positives.
func (s *Scorer) foldTokens(queryTokens, candTokens []string) []string {
	folded := make([]string, len(candTokens))
	for i, ct := range candTokens {
		folded[i] = ct
		if len([]rune(ct)) < 4 {
			continue
		}
		for _, qt := range queryTokens {
			if ct == qt {
				break
			}
			if len([]rune(qt)) < 4 {
				continue
			}
			if levenshtein.ComputeDistance(ct, qt) <= s.fuzzyEditDistance {
				folded[i] = qt
				break
			}
		}
	}
	return folded
}

func joinSorted(tokens []string) string {
	sorted := make([]string, len(tokens))
	copy(sorted, tokens)
	sort.Strings(sorted)
	return strings.Join(sorted, " ")
}

// indelRatio is the normalized insert/delete similarity between two rune
// slices: 200*LCS/(len(a)+len(b)), i.e. 100 means identical. Substitutions
// count as a delete plus an insert.
func indelRatio(a, b []rune) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 100
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	// Two rows instead of the full LCS matrix for space efficiency.
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	lcs := prev[len(b)]
	return 200 * float64(lcs) / float64(len(a)+len(b))
}
