package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/printgenie/orderflow/internal/models"
)

func catalog() *models.ShopConfiguration {
	return &models.ShopConfiguration{
		Products: []models.Product{
			{ID: "business-cards", Name: "Business Cards", BasePrice: 0.25},
			{ID: "flyers", Name: "Flyers", BasePrice: 0.40},
			{ID: "posters", Name: "Posters", BasePrice: 5.00},
		},
		Finishes: []models.Finish{
			{ID: "matte", Name: "Matte", Multiplier: 1},
			{ID: "glossy", Name: "Glossy", Multiplier: 1.1},
			{ID: "laminated", Name: "Laminated", Multiplier: 1.3},
		},
	}
}

func TestEstimate(t *testing.T) {
	tests := []struct {
		name     string
		product  string
		finish   string
		quantity int
		size     Size
		want     string
	}{
		{"flyers glossy standard", "flyers", "glossy", 100, SizeStandard, "44"},
		{"cards matte standard", "business-cards", "matte", 500, SizeStandard, "125"},
		{"posters laminated large", "posters", "laminated", 10, SizeLarge, "117"},
		{"posters matte custom", "posters", "matte", 2, SizeCustom, "25"},
		{"single unit", "flyers", "matte", 1, SizeStandard, "0.4"},
		{"unknown product contributes zero", "stickers", "glossy", 100, SizeLarge, "0"},
		{"unknown finish contributes one", "flyers", "velvet", 100, SizeStandard, "40"},
		{"unknown size contributes one", "flyers", "matte", 100, Size("a0"), "40"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Estimate(catalog(), tt.product, tt.finish, tt.quantity, tt.size)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"got %s, want %s", got, tt.want)
		})
	}
}

func TestEstimateScenarioFromQuoteSheet(t *testing.T) {
	// flyers at 0.40, glossy 1.1, quantity 100, standard size => 44.00
	got := Estimate(catalog(), "flyers", "glossy", 100, SizeStandard)
	assert.Equal(t, "44.00", got.StringFixed(2))
}

func TestEstimateRoundsToTwoDecimals(t *testing.T) {
	cfg := &models.ShopConfiguration{
		Products: []models.Product{{ID: "p", BasePrice: 0.333}},
		Finishes: []models.Finish{{ID: "f", Multiplier: 1.1}},
	}
	got := Estimate(cfg, "p", "f", 1, SizeStandard)
	// 0.333 * 1.1 = 0.3663, presented as 0.37
	assert.Equal(t, "0.37", got.StringFixed(2))
}
