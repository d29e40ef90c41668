package usecase

import "testing"

func TestBrand(t *testing.T) {
	bc := NewBrandClassifier(nil, nil)

	tests := []struct {
		name string
		want string
	}{
		{"Chanel No5 EDP 100ml", "chanel"},
		{"DIOR Sauvage EDT", "dior"},
		{"Emporio Armani Stronger With You", "emporio armani"},
		{"Giorgio Armani Acqua di Gio", "giorgio armani"},
		{"عطر العربية للعود كلاسيك", "العربية للعود"},
		{"No brand here", ""},
	}
	for _, tt := range tests {
		if got := bc.Brand(tt.name); got != tt.want {
			t.Errorf("Brand(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestProductCategory(t *testing.T) {
	bc := NewBrandClassifier(nil, nil)

	tests := []struct {
		name string
		want string
	}{
		{"Chanel No5 EDP 100ml", "EDP"},
		{"Dior Sauvage Eau de Toilette", "EDT"},
		{"4711 Original Cologne", "EDC"},
		{"Roja Parfum Extract", "Extrait"},
		{"Lattafa Perfume Oil 12ml", "Oil"},
		{"Victoria Body Mist 250ml", "Body Mist"},
		{"او دي بارفان شانيل", "EDP"},
		{"Just a candle", ""},
	}
	for _, tt := range tests {
		if got := bc.ProductCategory(tt.name); got != tt.want {
			t.Errorf("ProductCategory(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestBrandClassifierCustomTables(t *testing.T) {
	bc := NewBrandClassifier(
		[]string{"acme"},
		map[string][]string{"Soap": {"soap"}},
	)
	if got := bc.Brand("Acme bar soap"); got != "acme" {
		t.Errorf("Brand = %q, want acme", got)
	}
	if got := bc.ProductCategory("Acme bar soap"); got != "Soap" {
		t.Errorf("ProductCategory = %q, want Soap", got)
	}
	if got := bc.Brand("Chanel No5"); got != "" {
		t.Errorf("custom tables must not fall back to defaults, got %q", got)
	}
}
