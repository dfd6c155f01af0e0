package model

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/pkg/errors"
)

type ProductStatus string

const (
	StatusActive   ProductStatus = "active"
	StatusArchived ProductStatus = "archived"
)

type Product struct {
	BaseModel
	SKU              string  `db:"sku" json:"sku"`
	Slug             string  `db:"slug" json:"slug"`
	Barcode          string  `db:"barcode" json:"barcode"`
	EAN              string  `db:"ean" json:"ean"`
	Title            string  `db:"title" json:"title"`
	Description      *string `db:"description" json:"description"`
	ShortDescription *string `db:"short_description" json:"short_description"`

	Status      ProductStatus `db:"status" json:"status"`
	IsActive    bool          `db:"is_active" json:"is_active"`
	IsPublished bool          `db:"is_published" json:"is_published"`

	MarkAsNew      bool `db:"mark_as_new" json:"mark_as_new"`
	Featured       bool `db:"featured" json:"featured"`
	TopSeller      bool `db:"top_seller" json:"top_seller"`
	IsOnSale       bool `db:"is_on_sale" json:"is_on_sale"`
	IsSpecialOffer bool `db:"is_special_offer" json:"is_special_offer"`
	ShippingFree   bool `db:"shipping_free" json:"shipping_free"`

	// InStock is the only stock signal the catalog owns.
	InStock bool `db:"in_stock" json:"in_stock"`

	Weight        *float64 `db:"weight" json:"weight"`
	WeightUnit    *string  `db:"weight_unit" json:"weight_unit"`
	Length        *float64 `db:"length" json:"length"`
	Width         *float64 `db:"width" json:"width"`
	Height        *float64 `db:"height" json:"height"`
	DimensionUnit *string  `db:"dimension_unit" json:"dimension_unit"`
	UnitType      *string  `db:"unit_type" json:"unit_type"`
	LeadTime      *string  `db:"lead_time" json:"lead_time"`

	// Pricing block. Gross values are persisted rounded to 2 decimals;
	// nett values retain full precision. All of these are derived by the
	// pricing deriver and must never be written independently.
	PurchasePriceNett    float64 `db:"purchase_price_nett" json:"purchase_price_nett"`
	PurchasePriceGross   float64 `db:"purchase_price_gross" json:"purchase_price_gross"`
	RegularPriceNett     float64 `db:"regular_price_nett" json:"regular_price_nett"`
	RegularPriceGross    float64 `db:"regular_price_gross" json:"regular_price_gross"`
	DiscountPctNett      float64 `db:"discount_percentage_nett" json:"discount_percentage_nett"`
	DiscountPctGross     float64 `db:"discount_percentage_gross" json:"discount_percentage_gross"`
	FinalPriceNett       float64 `db:"final_price_nett" json:"final_price_nett"`
	FinalPriceGross      float64 `db:"final_price_gross" json:"final_price_gross"`
	IsDiscounted         bool    `db:"is_discounted" json:"is_discounted"`

	CustomDetails CustomDetails `db:"custom_details" json:"custom_details"`

	TaxID      string  `db:"tax_id" json:"tax_id"`
	CompanyID  *string `db:"company_id" json:"company_id"`
	SupplierID *string `db:"supplier_id" json:"supplier_id"`

	Images     []ProductImage    `db:"-" json:"images"`
	Services   []ProductService  `db:"-" json:"services"`
	Categories []ProductCategory `db:"-" json:"categories"`
	Options    []CustomOption    `db:"-" json:"options"`
	Tax        *Tax              `db:"-" json:"tax"`
}

// CustomDetail is one free-form specification row. Keys are generated and
// collision-tolerant; order is the caller's submission order.
type CustomDetail struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// CustomDetails is stored as a JSONB column.
type CustomDetails []CustomDetail

func (d CustomDetails) Value() (driver.Value, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d)
}

func (d *CustomDetails) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = nil
		return nil
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return errors.Errorf("unsupported custom_details source type %T", src)
	}
}

type ProductImage struct {
	BaseModel
	ProductID string  `db:"product_id" json:"product_id"`
	URL       string  `db:"url" json:"url"`
	AltText   *string `db:"alt_text" json:"alt_text"`
	SortOrder int     `db:"sort_order" json:"sort_order"`
	IsMain    bool    `db:"is_main" json:"is_main"`
}

type ProductService struct {
	BaseModel
	ProductID   string  `db:"product_id" json:"product_id"`
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description"`
	Price       float64 `db:"price" json:"price"`
}
