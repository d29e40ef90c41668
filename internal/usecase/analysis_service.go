package usecase

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pricepilot/backend/internal/domain"
)

// AnalysisConfig holds configuration for the analysis service.
type AnalysisConfig struct {
	Thresholds Thresholds
	Scorer     ScorerConfig
	// Workers > 1 fans record pipelines out over an errgroup. Per-record
	// pipelines are independent; the processed count then means "records
	// durably decided", not "highest index processed".
	Workers            int
	EnableDebugLogging bool
}

// CompetitorCatalog is one competitor file's rows, tagged with its source.
type CompetitorCatalog struct {
	SourceID string       `json:"sourceId"`
	Rows     []domain.Row `json:"rows"`
}

// RunRequest describes one catalog pass. SessionID is optional; an empty one
// starts a fresh session. Resumption requires the merchant rows to arrive in
// the same order as the interrupted run — that is the caller's precondition.
type RunRequest struct {
	SessionID   string
	Merchant    []domain.Row
	Competitors []CompetitorCatalog
	Progress    domain.ProgressFunc
}

// AnalysisService orchestrates the full catalog pass: normalize, block
// lookup, score, classify (adjudicating ambiguous matches), persist each
// decision immediately, and report progress after every record.
type AnalysisService struct {
	store      domain.DecisionStore
	scorer     *Scorer
	classifier *Classifier
	enricher   *BrandClassifier
	workers    int
	debug      bool
}

// NewAnalysisService creates the service with its collaborators. The store
// must not be nil; the adjudicator may be.
func NewAnalysisService(store domain.DecisionStore, adjudicator domain.Adjudicator, config AnalysisConfig) *AnalysisService {
	workers := config.Workers
	if workers <= 0 {
		workers = 1
	}
	return &AnalysisService{
		store:      store,
		scorer:     NewScorer(config.Scorer),
		classifier: NewClassifier(config.Thresholds, adjudicator, config.EnableDebugLogging),
		enricher:   NewBrandClassifier(nil, nil),
		workers:    workers,
		debug:      config.EnableDebugLogging,
	}
}

// Run executes one catalog pass and returns the session's run state. A
// partially persisted session resumes where it left off: the persisted count
// of decisions is fetched first and that many leading merchant records are
// skipped, so crashes never re-bill adjudication calls for decided records.
func (s *AnalysisService) Run(ctx context.Context, req RunRequest) (*domain.RunState, error) {
	if len(req.Merchant) == 0 {
		return nil, domain.ErrInvalidRequest
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = NewSessionID()
	}

	merchant := NormalizeCatalog(req.Merchant, "merchant")
	var competitors []domain.CatalogRecord
	for _, cat := range req.Competitors {
		competitors = append(competitors, NormalizeCatalog(cat.Rows, cat.SourceID)...)
	}
	index := BuildBlockIndex(competitors)

	processed, err := s.store.ProcessedCount(ctx, sessionID)
	if err != nil {
		// Best-effort resume: an unreachable store means starting over, not
		// aborting the run.
		log.Printf("[RUN] processed count unavailable for session %s: %v", sessionID, err)
		processed = 0
	}
	total := len(merchant)
	if processed > total {
		processed = total
	}
	if processed > 0 {
		log.Printf("[RUN] session %s resuming, skipping %d already-decided records", sessionID, processed)
	}

	remaining := merchant[processed:]
	state := &domain.RunState{SessionID: sessionID}

	var persisted int64
	if s.workers > 1 {
		state.Decisions, err = s.runParallel(ctx, sessionID, remaining, processed, total, index, req.Progress, &persisted)
	} else {
		state.Decisions, err = s.runSequential(ctx, sessionID, remaining, processed, total, index, req.Progress, &persisted)
	}

	state.ProcessedCount = processed + int(atomic.LoadInt64(&persisted))
	state.Summary = domain.Summarize(state.Decisions)

	log.Printf("[RUN] session %s: %d decided, %d persisted, totals %v",
		sessionID, len(state.Decisions), state.ProcessedCount, state.Summary.ByCategory)
	return state, err
}

// runSequential is the reference mode: one record's full pipeline completes
// before the next begins.
func (s *AnalysisService) runSequential(ctx context.Context, sessionID string, records []domain.CatalogRecord, offset, total int, index *BlockIndex, progress domain.ProgressFunc, persisted *int64) ([]domain.MatchDecision, error) {
	decisions := make([]domain.MatchDecision, 0, len(records))
	for i, rec := range records {
		select {
		case <-ctx.Done():
			// Stop issuing new pipelines; already-decided work is kept.
			return decisions, ctx.Err()
		default:
		}

		decision := s.processRecord(ctx, rec, index)
		s.persist(ctx, sessionID, decision, persisted)
		decisions = append(decisions, decision)
		if progress != nil {
			progress(offset+i+1, total)
		}
	}
	return decisions, nil
}

// runParallel fans record pipelines out over workers. Decisions are returned
// in record order; persistence order is unspecified, which is fine because
// the processed count tracks durably decided records, not indexes.
func (s *AnalysisService) runParallel(ctx context.Context, sessionID string, records []domain.CatalogRecord, offset, total int, index *BlockIndex, progress domain.ProgressFunc, persisted *int64) ([]domain.MatchDecision, error) {
	decisions := make([]domain.MatchDecision, len(records))
	decided := make([]bool, len(records))
	var done int64
	var progressMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, rec := range records {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			decision := s.processRecord(gctx, rec, index)
			s.persist(gctx, sessionID, decision, persisted)
			decisions[i] = decision
			decided[i] = true
			count := atomic.AddInt64(&done, 1)
			if progress != nil {
				progressMu.Lock()
				progress(offset+int(count), total)
				progressMu.Unlock()
			}
			return nil
		})
	}
	err := g.Wait()
	if err != nil {
		// Drop the slots of records that never ran; a cancelled run returns
		// only the decisions it actually made, like the sequential mode.
		kept := decisions[:0]
		for i, d := range decisions {
			if decided[i] {
				kept = append(kept, d)
			}
		}
		return kept, err
	}
	return decisions, err
}

// processRecord runs one merchant record through block lookup, scoring, and
// classification, then decorates the decision with brand lookup results.
func (s *AnalysisService) processRecord(ctx context.Context, rec domain.CatalogRecord, index *BlockIndex) domain.MatchDecision {
	candidates := index.Lookup(rec.NormalizedName)
	best, ok := s.scorer.BestMatch(rec.NormalizedName, candidates)
	if s.debug && ok {
		log.Printf("[MATCH] %q -> %q (confidence %d)", rec.DisplayName, best.Record.DisplayName, best.Score)
	}

	decision := s.classifier.Classify(ctx, rec, best, ok)
	decision.Brand = s.enricher.Brand(rec.DisplayName)
	decision.ProductCategory = s.enricher.ProductCategory(rec.DisplayName)
	return decision
}

// persist saves one decision immediately so progress survives a crash at any
// point. Failures are logged, never fatal: the decision stays in the
// in-memory result set and resumption may reprocess it (at-least-once).
func (s *AnalysisService) persist(ctx context.Context, sessionID string, decision domain.MatchDecision, persisted *int64) {
	if err := s.store.SaveDecision(ctx, sessionID, decision); err != nil {
		log.Printf("[STORE] save failed for %q in session %s: %v", decision.Merchant.DisplayName, sessionID, err)
		return
	}
	atomic.AddInt64(persisted, 1)
}

// NewSessionID generates an opaque session token, stable across resumptions
// once handed back to the caller.
func NewSessionID() string {
	return uuid.NewString()[:8]
}
