package models

import "time"

// Product is one orderable product in the shop catalog.
type Product struct {
	ID        string  `firestore:"id" json:"id"`
	Name      string  `firestore:"name" json:"name"`
	BasePrice float64 `firestore:"basePrice" json:"basePrice"`
}

// Finish is one surface finish and its price multiplier.
type Finish struct {
	ID         string  `firestore:"id" json:"id"`
	Name       string  `firestore:"name" json:"name"`
	Multiplier float64 `firestore:"multiplier" json:"multiplier"`
}

// ShopConfiguration is the single global shop record, stored as document
// "main" in the shop_configuration collection. Staff mutate it via
// full-document merge writes; every customer-facing page reads it.
type ShopConfiguration struct {
	ShopName           string    `firestore:"shopName" json:"shopName"`
	LogoURL            string    `firestore:"logoUrl" json:"logoUrl"`
	Currency           string    `firestore:"currency" json:"currency"`
	HeroTitle          string    `firestore:"heroTitle" json:"heroTitle"`
	HeroSubtitle       string    `firestore:"heroSubtitle" json:"heroSubtitle"`
	BusinessHours      string    `firestore:"businessHours" json:"businessHours"`
	AboutUsText        string    `firestore:"aboutUsText" json:"aboutUsText"`
	ContactInformation string    `firestore:"contactInformation" json:"contactInformation"`
	Products           []Product `firestore:"products" json:"products"`
	Finishes           []Finish  `firestore:"finishes" json:"finishes"`
	UpdatedAt          time.Time `firestore:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// Normalize fills defaults for every optional field at the read boundary.
// Records written by older app versions may miss any of these.
func (c *ShopConfiguration) Normalize() {
	if c.ShopName == "" {
		c.ShopName = "Print Genie"
	}
	if c.Currency == "" {
		c.Currency = "PHP"
	}
	if c.HeroTitle == "" {
		c.HeroTitle = "Print Your Vision with Precision"
	}
	if c.HeroSubtitle == "" {
		c.HeroSubtitle = "High-resolution printing, professional finishes, and AI-powered quality checks."
	}
	if c.BusinessHours == "" {
		c.BusinessHours = "Mon-Fri: 9am-6pm"
	}
	if c.Products == nil {
		c.Products = []Product{}
	}
	if c.Finishes == nil {
		c.Finishes = []Finish{}
	}
}

// DefaultShopConfiguration returns the catalog a fresh shop starts with.
func DefaultShopConfiguration() *ShopConfiguration {
	cfg := &ShopConfiguration{
		AboutUsText:        "We provide high-quality professional printing services powered by AI.",
		ContactInformation: "123 Design Lane, Creative City",
		Products: []Product{
			{ID: "business-cards", Name: "Business Cards", BasePrice: 0.25},
			{ID: "flyers", Name: "Flyers", BasePrice: 0.40},
			{ID: "posters", Name: "Posters", BasePrice: 5.00},
			{ID: "banners", Name: "Banners", BasePrice: 15.00},
			{ID: "custom", Name: "Custom Print", BasePrice: 2.00},
		},
		Finishes: []Finish{
			{ID: "matte", Name: "Matte", Multiplier: 1},
			{ID: "glossy", Name: "Glossy", Multiplier: 1.1},
			{ID: "laminated", Name: "Laminated", Multiplier: 1.3},
			{ID: "uv-coated", Name: "UV Coated", Multiplier: 1.5},
		},
	}
	cfg.Normalize()
	return cfg
}
