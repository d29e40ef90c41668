package usecase

import (
	"strings"

	"github.com/pricepilot/backend/internal/domain"
)

// BlockIndex partitions competitor records into buckets keyed by the first
// token of the normalized name, bounding comparison cost. The first token is
// a cheap high-recall filter for product names (the brand word usually
// leads); precision is traded for speed, and the catch-all list degrades
// recall to brute force rather than to zero matches. The catch-all is kept
// outside the bucket map so no first token can collide with it. Read-only
// after build.
type BlockIndex struct {
	buckets map[string][]domain.CatalogRecord
	all     []domain.CatalogRecord
}

// BuildBlockIndex indexes competitor records in a single pass. Every record
// lands in its keyed bucket and, once, in the catch-all list.
func BuildBlockIndex(records []domain.CatalogRecord) *BlockIndex {
	idx := &BlockIndex{buckets: make(map[string][]domain.CatalogRecord)}
	for _, rec := range records {
		key := rec.BlockKey()
		idx.buckets[key] = append(idx.buckets[key], rec)
		idx.all = append(idx.all, rec)
	}
	return idx
}

// Lookup returns likely-similar competitor records for a query name: the
// query key's bucket, or the catch-all list when that bucket is empty.
func (idx *BlockIndex) Lookup(queryName string) []domain.CatalogRecord {
	key := domain.BlockKeyOther
	if fields := strings.Fields(strings.ToLower(queryName)); len(fields) > 0 {
		key = fields[0]
	}
	if bucket := idx.buckets[key]; len(bucket) > 0 {
		return bucket
	}
	return idx.all
}

// Size returns the number of indexed competitor records.
func (idx *BlockIndex) Size() int {
	return len(idx.all)
}
