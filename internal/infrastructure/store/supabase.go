package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pricepilot/backend/internal/domain"
)

const defaultTable = "analysis_results"

// SupabaseStore persists decisions in a Supabase (PostgREST) table. The
// cloud schema is the collaborator's concern; this client only stores one
// flat row per decision and reads counts back.
type SupabaseStore struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	table      string
}

// NewSupabaseStore creates a REST decision store.
func NewSupabaseStore(baseURL, apiKey, table string) *SupabaseStore {
	if table == "" {
		table = defaultTable
	}
	return &SupabaseStore{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		table:      table,
	}
}

// decisionRow is the flat wire shape of one persisted decision.
type decisionRow struct {
	SessionID          string   `json:"session_id"`
	MerchantName       string   `json:"merchant_name"`
	MerchantPrice      float64  `json:"merchant_price"`
	CompetitorName     *string  `json:"competitor_name,omitempty"`
	CompetitorPrice    *float64 `json:"competitor_price,omitempty"`
	CompetitorSource   *string  `json:"competitor_source,omitempty"`
	Confidence         int      `json:"confidence"`
	PriceDelta         float64  `json:"price_delta"`
	Category           string   `json:"category"`
	Risk               string   `json:"risk"`
	RecommendedPrice   *float64 `json:"recommended_price,omitempty"`
	AdjudicationReason string   `json:"adjudication_reason,omitempty"`
	Brand              string   `json:"brand,omitempty"`
	ProductCategory    string   `json:"product_category,omitempty"`
}

func toRow(sessionID string, d domain.MatchDecision) decisionRow {
	row := decisionRow{
		SessionID:          sessionID,
		MerchantName:       d.Merchant.DisplayName,
		MerchantPrice:      d.Merchant.Price,
		Confidence:         d.Confidence,
		PriceDelta:         d.PriceDelta,
		Category:           string(d.Category),
		Risk:               string(d.Risk),
		RecommendedPrice:   d.RecommendedPrice,
		AdjudicationReason: d.AdjudicationReason,
		Brand:              d.Brand,
		ProductCategory:    d.ProductCategory,
	}
	if d.Competitor != nil {
		row.CompetitorName = &d.Competitor.DisplayName
		row.CompetitorPrice = &d.Competitor.Price
		row.CompetitorSource = &d.Competitor.SourceID
	}
	return row
}

func (r decisionRow) toDecision() domain.MatchDecision {
	d := domain.MatchDecision{
		Merchant:           domain.CatalogRecord{DisplayName: r.MerchantName, Price: r.MerchantPrice},
		Confidence:         r.Confidence,
		PriceDelta:         r.PriceDelta,
		Category:           domain.Category(r.Category),
		Risk:               domain.Risk(r.Risk),
		RecommendedPrice:   r.RecommendedPrice,
		AdjudicationReason: r.AdjudicationReason,
		Brand:              r.Brand,
		ProductCategory:    r.ProductCategory,
	}
	if r.CompetitorName != nil {
		comp := domain.CatalogRecord{DisplayName: *r.CompetitorName}
		if r.CompetitorPrice != nil {
			comp.Price = *r.CompetitorPrice
		}
		if r.CompetitorSource != nil {
			comp.SourceID = *r.CompetitorSource
		}
		d.Competitor = &comp
	}
	return d
}

// SaveDecision POSTs one row; fire-and-forget from the controller's view.
func (s *SupabaseStore) SaveDecision(ctx context.Context, sessionID string, d domain.MatchDecision) error {
	body, err := json.Marshal(toRow(sessionID, d))
	if err != nil {
		return fmt.Errorf("encode decision: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tableURL(""), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	s.setHeaders(req)
	req.Header.Set("Prefer", "return=minimal")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d: %s", domain.ErrStoreUnavailable, resp.StatusCode, msg)
	}
	return nil
}

// ProcessedCount asks PostgREST for an exact count without fetching rows,
// reading it from the Content-Range header ("0-0/42").
func (s *SupabaseStore) ProcessedCount(ctx context.Context, sessionID string) (int, error) {
	query := url.Values{}
	query.Set("select", "session_id")
	query.Set("session_id", "eq."+sessionID)

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.tableURL(query.Encode()), nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	s.setHeaders(req)
	req.Header.Set("Prefer", "count=exact")
	req.Header.Set("Range", "0-0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return 0, fmt.Errorf("%w: status %d", domain.ErrStoreUnavailable, resp.StatusCode)
	}

	return parseContentRangeCount(resp.Header.Get("Content-Range"))
}

// Decisions fetches the session's rows in insertion order.
func (s *SupabaseStore) Decisions(ctx context.Context, sessionID string) ([]domain.MatchDecision, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("session_id", "eq."+sessionID)
	query.Set("order", "id.asc")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.tableURL(query.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	s.setHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", domain.ErrStoreUnavailable, resp.StatusCode)
	}

	var rows []decisionRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode decisions: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrSessionNotFound
	}

	decisions := make([]domain.MatchDecision, len(rows))
	for i, row := range rows {
		decisions[i] = row.toDecision()
	}
	return decisions, nil
}

func (s *SupabaseStore) tableURL(rawQuery string) string {
	u := fmt.Sprintf("%s/rest/v1/%s", s.baseURL, s.table)
	if rawQuery != "" {
		u += "?" + rawQuery
	}
	return u
}

func (s *SupabaseStore) setHeaders(req *http.Request) {
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
}

func parseContentRangeCount(header string) (int, error) {
	idx := strings.LastIndex(header, "/")
	if idx < 0 {
		return 0, fmt.Errorf("%w: missing Content-Range", domain.ErrStoreUnavailable)
	}
	total := header[idx+1:]
	if total == "*" {
		return 0, nil
	}
	count, err := strconv.Atoi(total)
	if err != nil {
		return 0, fmt.Errorf("%w: bad Content-Range %q", domain.ErrStoreUnavailable, header)
	}
	return count, nil
}
