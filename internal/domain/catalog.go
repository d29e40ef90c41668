package domain

import "strings"

// Cell is a single column of an ingested row. Rows keep their original
// column order because column resolution picks the first matching column.
type Cell struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

// Row is one tabular row as delivered by the file-ingestion collaborator.
type Row []Cell

// Get returns the value of the first cell with the given column name.
func (r Row) Get(column string) (string, bool) {
	for _, c := range r {
		if c.Column == column {
			return c.Value, true
		}
	}
	return "", false
}

// CatalogRecord is one product row from either the merchant or a competitor
// catalog, normalized into a uniform shape. Immutable once created.
type CatalogRecord struct {
	DisplayName    string  `json:"displayName"`
	NormalizedName string  `json:"-"`
	Price          float64 `json:"price"`
	SourceID       string  `json:"sourceId,omitempty"`
	RawAttributes  Row     `json:"rawAttributes,omitempty"`
}

// BlockKeyOther is the sentinel block key for records with an empty name.
const BlockKeyOther = "other"

// BlockKey returns the blocking discriminator for the record: the first
// whitespace-delimited token of the normalized name.
func (r CatalogRecord) BlockKey() string {
	fields := strings.Fields(r.NormalizedName)
	if len(fields) == 0 {
		return BlockKeyOther
	}
	return fields[0]
}
