package dto

import "github.com/nuvora/catalog-service/internal/model"

type OptionInput struct {
	Name         string           `json:"name"`
	Type         model.OptionType `json:"type"`
	Required     bool             `json:"required"`
	SortOrder    int              `json:"sort_order"`
	AffectsPrice bool             `json:"affects_price"`
	BaseModifier float64          `json:"base_modifier"`
	Values       []ValueInput     `json:"values"`
}

type ValueInput struct {
	Value         string             `json:"value"`
	DisplayName   string             `json:"display_name"`
	SortOrder     int                `json:"sort_order"`
	IsDefault     bool               `json:"is_default"`
	PriceModifier float64            `json:"price_modifier"`
	ModifierType  model.ModifierType `json:"modifier_type"`
	// ImageURL is set when the client references an already-hosted image.
	// Image carries freshly uploaded bytes. Values with neither fall back
	// to the preserved URL of their prior incarnation, if any.
	ImageURL      *string     `json:"image_url"`
	Image         *FileUpload `json:"-"`
	StockQuantity *int        `json:"stock_quantity"`
	InStock       bool        `json:"in_stock"`
}

type FileUpload struct {
	Filename string
	Data     []byte
}
