package dto

import (
	optiondto "github.com/nuvora/catalog-service/internal/option/dto"
)

type CreateProductInput struct {
	Title            string  `json:"title"`
	Description      *string `json:"description"`
	ShortDescription *string `json:"short_description"`

	// Identity fields are generated when absent.
	SKU     string `json:"sku"`
	Slug    string `json:"slug"`
	Barcode string `json:"barcode"`
	EAN     string `json:"ean"`

	PurchasePriceNett float64 `json:"purchase_price_nett"`
	RegularPriceNett  float64 `json:"regular_price_nett"`
	DiscountPct       float64 `json:"discount_percentage"`
	TaxID             string  `json:"tax_id"`

	CompanyID  *string `json:"company_id"`
	SupplierID *string `json:"supplier_id"`

	MarkAsNew      bool `json:"mark_as_new"`
	Featured       bool `json:"featured"`
	TopSeller      bool `json:"top_seller"`
	IsOnSale       bool `json:"is_on_sale"`
	IsSpecialOffer bool `json:"is_special_offer"`
	ShippingFree   bool `json:"shipping_free"`
	InStock        bool `json:"in_stock"`

	Weight        *float64 `json:"weight"`
	WeightUnit    *string  `json:"weight_unit"`
	Length        *float64 `json:"length"`
	Width         *float64 `json:"width"`
	Height        *float64 `json:"height"`
	DimensionUnit *string  `json:"dimension_unit"`
	UnitType      *string  `json:"unit_type"`
	LeadTime      *string  `json:"lead_time"`

	CustomDetails []CustomDetailInput      `json:"custom_details"`
	Images        []ImageInput             `json:"images"`
	Services      []ServiceInput           `json:"services"`
	Categories    []CategoryInput          `json:"categories"`
	Options       []optiondto.OptionInput  `json:"options"`
}

type EditProductInput struct {
	Title            *string `json:"title"`
	Description      *string `json:"description"`
	ShortDescription *string `json:"short_description"`

	SKU     *string `json:"sku"`
	Barcode *string `json:"barcode"`
	EAN     *string `json:"ean"`

	PurchasePriceNett *float64 `json:"purchase_price_nett"`
	RegularPriceNett  *float64 `json:"regular_price_nett"`
	DiscountPct       *float64 `json:"discount_percentage"`
	TaxID             *string  `json:"tax_id"`

	CompanyID  *string `json:"company_id"`
	SupplierID *string `json:"supplier_id"`

	MarkAsNew      *bool `json:"mark_as_new"`
	Featured       *bool `json:"featured"`
	TopSeller      *bool `json:"top_seller"`
	IsOnSale       *bool `json:"is_on_sale"`
	IsSpecialOffer *bool `json:"is_special_offer"`
	ShippingFree   *bool `json:"shipping_free"`
	InStock        *bool `json:"in_stock"`

	Weight        *float64 `json:"weight"`
	WeightUnit    *string  `json:"weight_unit"`
	Length        *float64 `json:"length"`
	Width         *float64 `json:"width"`
	Height        *float64 `json:"height"`
	DimensionUnit *string  `json:"dimension_unit"`
	UnitType      *string  `json:"unit_type"`
	LeadTime      *string  `json:"lead_time"`

	CustomDetails *[]CustomDetailInput `json:"custom_details"`

	// When ReplaceImages is set the image list fully replaces the current
	// one (existing images referenced by ID keep their URL); otherwise new
	// uploads are appended.
	Images        []ImageInput `json:"images"`
	ReplaceImages bool         `json:"replace_images"`

	Categories *[]CategoryInput `json:"categories"`
}

type CustomDetailInput struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type ImageInput struct {
	// ID references an existing image row (edit reordering).
	ID string `json:"id"`
	// URL references an already-hosted file.
	URL string `json:"url"`
	// Upload carries fresh bytes for the image store.
	Upload  *optiondto.FileUpload `json:"-"`
	AltText string                `json:"alt_text"`
	IsMain  bool                  `json:"is_main"`
}

type ServiceInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Price       float64 `json:"price"`
}

type CategoryInput struct {
	CategoryID string `json:"category_id"`
	IsPrimary  bool   `json:"is_primary"`
}
