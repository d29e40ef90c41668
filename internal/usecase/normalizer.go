package usecase

import (
	"strconv"
	"strings"

	"github.com/pricepilot/backend/internal/domain"
)

// Column name fragments accepted during schema resolution. Uploaded files mix
// English and Arabic headers, often with prefixes like "product_name".
var (
	nameColumnTokens  = []string{"name", "اسم"}
	priceColumnTokens = []string{"price", "سعر"}
)

// arabicDigits maps Arabic-Indic digits onto ASCII before numeric parsing.
var arabicDigits = strings.NewReplacer(
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
)

// NormalizeCatalog turns heterogeneous tabular rows into CatalogRecords.
// Column resolution: the first column whose name contains a name token wins,
// falling back to the first column; prices come from the first column
// containing a price token, falling back to the second column, else 0.
// Unparseable prices silently become 0 because input files are uncontrolled
// user uploads. Pure transform; the input rows are never modified.
func NormalizeCatalog(rows []domain.Row, sourceID string) []domain.CatalogRecord {
	records := make([]domain.CatalogRecord, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		nameIdx := resolveColumn(row, nameColumnTokens, 0)
		priceIdx := resolveColumn(row, priceColumnTokens, 1)

		display := strings.TrimSpace(row[nameIdx].Value)
		price := 0.0
		if priceIdx >= 0 && priceIdx < len(row) {
			price = ParsePrice(row[priceIdx].Value)
		}

		records = append(records, domain.CatalogRecord{
			DisplayName:    display,
			NormalizedName: strings.ToLower(display),
			Price:          price,
			SourceID:       sourceID,
			RawAttributes:  row,
		})
	}
	return records
}

// resolveColumn returns the index of the first column whose name contains one
// of the tokens, or fallback when none matches. A fallback beyond the row's
// width resolves to -1.
func resolveColumn(row domain.Row, tokens []string, fallback int) int {
	for i, cell := range row {
		col := strings.ToLower(cell.Column)
		for _, tok := range tokens {
			if strings.Contains(col, tok) {
				return i
			}
		}
	}
	if fallback >= len(row) {
		return -1
	}
	return fallback
}

// ParsePrice coerces a raw cell value to a non-negative price. Anything that
// fails to parse becomes 0; this is a silent-degradation policy, not an error.
func ParsePrice(raw string) float64 {
	s := arabicDigits.Replace(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(strings.TrimSuffix(s, "ر.س"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
