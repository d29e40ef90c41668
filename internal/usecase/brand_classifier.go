package usecase

import (
	"sort"
	"strings"
)

// defaultBrands are the house and designer brands the store stocks. Listed
// longest-first where one name contains another so the more specific brand
// wins (e.g. "armani" vs "emporio armani").
var defaultBrands = []string{
	"emporio armani", "giorgio armani", "tom ford", "swiss arabian",
	"chanel", "dior", "versace", "gucci", "armani", "ysl", "creed",
	"lattafa", "rasasi", "ajmal", "arabian oud", "العربية للعود",
	"burberry", "bvlgari", "hugo boss", "montblanc", "lancome",
}

// defaultCategories maps a product category to the keywords that imply it.
var defaultCategories = map[string][]string{
	"EDP":       {"edp", "eau de parfum", "او دي بارفان"},
	"EDT":       {"edt", "eau de toilette", "او دي تواليت"},
	"EDC":       {"edc", "cologne", "كولونيا"},
	"Extrait":   {"extrait", "parfum extract", "خلاصة"},
	"Oil":       {"perfume oil", "زيت عطري", "دهن"},
	"Body Mist": {"mist", "معطر جسم"},
}

// BrandClassifier enriches product names with a brand and product category
// using pure lookup tables. It never feeds the matching engine; it only
// decorates decisions for downstream consumers.
type BrandClassifier struct {
	brands     []string
	categories map[string][]string
}

// NewBrandClassifier creates a classifier; nil tables fall back to the
// built-in perfume defaults.
func NewBrandClassifier(brands []string, categories map[string][]string) *BrandClassifier {
	if brands == nil {
		brands = defaultBrands
	}
	if categories == nil {
		categories = defaultCategories
	}
	return &BrandClassifier{brands: brands, categories: categories}
}

// Brand returns the first configured brand appearing in the name, or "".
func (b *BrandClassifier) Brand(name string) string {
	lower := strings.ToLower(name)
	for _, brand := range b.brands {
		if strings.Contains(lower, strings.ToLower(brand)) {
			return brand
		}
	}
	return ""
}

// ProductCategory returns the first category (in sorted key order, so the
// result is deterministic) whose keywords appear in the name, or "".
func (b *BrandClassifier) ProductCategory(name string) string {
	lower := strings.ToLower(name)
	keys := make([]string, 0, len(b.categories))
	for key := range b.categories {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if containsAny(lower, b.categories[key]) {
			return key
		}
	}
	return ""
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
