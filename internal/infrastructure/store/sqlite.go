package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/pricepilot/backend/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS decisions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	merchant_name TEXT NOT NULL,
	merchant_price REAL NOT NULL,
	competitor_name TEXT,
	competitor_price REAL,
	competitor_source TEXT,
	confidence INTEGER NOT NULL,
	price_delta REAL NOT NULL,
	category TEXT NOT NULL,
	risk TEXT NOT NULL,
	recommended_price REAL,
	adjudication_reason TEXT,
	brand TEXT,
	product_category TEXT,
	created_at TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_decisions_session ON decisions(session_id);
`

// SQLiteStore persists decisions in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and ensures
// the schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	// Single writer; avoids SQLITE_BUSY churn under the parallel run mode.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// SaveDecision inserts one decision row.
func (s *SQLiteStore) SaveDecision(ctx context.Context, sessionID string, d domain.MatchDecision) error {
	var compName, compSource sql.NullString
	var compPrice sql.NullFloat64
	if d.Competitor != nil {
		compName = sql.NullString{String: d.Competitor.DisplayName, Valid: true}
		compPrice = sql.NullFloat64{Float64: d.Competitor.Price, Valid: true}
		compSource = sql.NullString{String: d.Competitor.SourceID, Valid: true}
	}
	var recPrice sql.NullFloat64
	if d.RecommendedPrice != nil {
		recPrice = sql.NullFloat64{Float64: *d.RecommendedPrice, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decisions (
			session_id, merchant_name, merchant_price,
			competitor_name, competitor_price, competitor_source,
			confidence, price_delta, category, risk,
			recommended_price, adjudication_reason, brand, product_category
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, d.Merchant.DisplayName, d.Merchant.Price,
		compName, compPrice, compSource,
		d.Confidence, d.PriceDelta, string(d.Category), string(d.Risk),
		recPrice, nullableString(d.AdjudicationReason), d.Brand, d.ProductCategory,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// ProcessedCount returns the number of decisions persisted for the session.
func (s *SQLiteStore) ProcessedCount(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM decisions WHERE session_id = ?", sessionID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return count, nil
}

// Decisions returns the session's decisions in insertion order.
func (s *SQLiteStore) Decisions(ctx context.Context, sessionID string) ([]domain.MatchDecision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT merchant_name, merchant_price,
			competitor_name, competitor_price, competitor_source,
			confidence, price_delta, category, risk,
			recommended_price, adjudication_reason, brand, product_category
		FROM decisions WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var decisions []domain.MatchDecision
	for rows.Next() {
		var d domain.MatchDecision
		var compName, compSource, reason, brand, productCategory sql.NullString
		var compPrice, recPrice sql.NullFloat64
		var category, risk string

		err := rows.Scan(&d.Merchant.DisplayName, &d.Merchant.Price,
			&compName, &compPrice, &compSource,
			&d.Confidence, &d.PriceDelta, &category, &risk,
			&recPrice, &reason, &brand, &productCategory)
		if err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}

		d.Category = domain.Category(category)
		d.Risk = domain.Risk(risk)
		if compName.Valid {
			d.Competitor = &domain.CatalogRecord{
				DisplayName: compName.String,
				Price:       compPrice.Float64,
				SourceID:    compSource.String,
			}
		}
		if recPrice.Valid {
			v := recPrice.Float64
			d.RecommendedPrice = &v
		}
		d.AdjudicationReason = reason.String
		d.Brand = brand.String
		d.ProductCategory = productCategory.String
		decisions = append(decisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if len(decisions) == 0 {
		return nil, domain.ErrSessionNotFound
	}
	return decisions, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
