package dto

import "github.com/nuvora/catalog-service/internal/model"

// Sort keys shared by the listing endpoints.
const (
	SortRelevance = "relevance"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortNameAsc   = "name_asc"
	SortNameDesc  = "name_desc"
	SortNewest    = "newest"

	// Flash-deal only sorts.
	SortDiscount   = "discount"
	SortSavings    = "savings"
	SortUrgency    = "urgency"
	SortPopularity = "popularity"
)

// Filters is the shared conjunctive filter contract. Zero values mean "no
// constraint".
type Filters struct {
	Query      string
	CategoryID string
	CompanyID  string

	PriceMin *float64
	PriceMax *float64
	InStock  *bool

	Featured     *bool
	TopSeller    *bool
	OnSale       *bool
	New          *bool
	SpecialOffer *bool
	ShippingFree *bool

	Discounted  *bool
	MinDiscount float64

	// PublishedOnly is set by the endpoint, not the caller: storefront
	// queries see published active products, the admin list sees all.
	PublishedOnly bool
	Status        string

	// SearchCustomDetails widens the free-text match to the serialized
	// custom_details blob (search endpoint only).
	SearchCustomDetails bool

	SortBy   string
	Page     int
	PageSize int
}

func (f *Filters) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
}

type FlashDealFilters struct {
	Filters
	// Tier filters to one deal tier; quality score never filters unless
	// the caller asks for it explicitly.
	Tier            string
	MinQualityScore *int
}

// ProductList is the shared paginated response shape. TotalCount and
// Products come from one query context, so they cannot drift.
type ProductList struct {
	Products    []model.Product `json:"products"`
	TotalCount  int             `json:"total_count"`
	CurrentPage int             `json:"current_page"`
	TotalPages  int             `json:"total_pages"`
	HasMore     bool            `json:"has_more"`
	Facets      *Facets         `json:"facets,omitempty"`
}

// Facets are derived from the current result page, not the full corpus.
type Facets struct {
	PriceRange     PriceRangeFacet      `json:"price_range"`
	Availability   AvailabilityFacet    `json:"availability"`
	Specifications []SpecificationFacet `json:"specifications"`
}

type PriceRangeFacet struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type AvailabilityFacet struct {
	InStock    int `json:"in_stock"`
	OutOfStock int `json:"out_of_stock"`
}

type SpecificationFacet struct {
	Key    string           `json:"key"`
	Label  string           `json:"label"`
	Values []SpecValueCount `json:"values"`
}

type SpecValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type Recommendation struct {
	Product model.Product `json:"product"`
	Score   int           `json:"score"`
	Reasons []string      `json:"recommendation_reasons"`
}

type FlashDeal struct {
	Product      model.Product `json:"product"`
	Tier         string        `json:"tier"`
	QualityScore int           `json:"deal_quality_score"`
	SavingsNett  float64       `json:"savings_nett"`
	SavingsGross float64       `json:"savings_gross"`
}

type FlashDealList struct {
	Deals       []FlashDeal `json:"deals"`
	TotalCount  int         `json:"total_count"`
	CurrentPage int         `json:"current_page"`
	TotalPages  int         `json:"total_pages"`
	HasMore     bool        `json:"has_more"`
}
