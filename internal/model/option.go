package model

type OptionType string

const (
	OptionTypeText     OptionType = "text"
	OptionTypeTextarea OptionType = "textarea"
	OptionTypeSelect   OptionType = "select"
	OptionTypeRadio    OptionType = "radio"
	OptionTypeCheckbox OptionType = "checkbox"
	OptionTypeFile     OptionType = "file"
	OptionTypeDate     OptionType = "date"
	OptionTypeNumber   OptionType = "number"
)

func (t OptionType) Valid() bool {
	switch t {
	case OptionTypeText, OptionTypeTextarea, OptionTypeSelect, OptionTypeRadio,
		OptionTypeCheckbox, OptionTypeFile, OptionTypeDate, OptionTypeNumber:
		return true
	}
	return false
}

type ModifierType string

const (
	ModifierFixed      ModifierType = "fixed"
	ModifierPercentage ModifierType = "percentage"
)

type CustomOption struct {
	BaseModel
	ProductID    string     `db:"product_id" json:"product_id"`
	Name         string     `db:"name" json:"name"`
	Type         OptionType `db:"type" json:"type"`
	Required     bool       `db:"required" json:"required"`
	SortOrder    int        `db:"sort_order" json:"sort_order"`
	AffectsPrice bool       `db:"affects_price" json:"affects_price"`
	BaseModifier float64    `db:"base_modifier" json:"base_modifier"`

	Values []CustomOptionValue `db:"-" json:"values"`
}

type CustomOptionValue struct {
	BaseModel
	OptionID      string       `db:"option_id" json:"option_id"`
	Value         string       `db:"value" json:"value"`
	DisplayName   *string      `db:"display_name" json:"display_name"`
	SortOrder     int          `db:"sort_order" json:"sort_order"`
	IsDefault     bool         `db:"is_default" json:"is_default"`
	PriceModifier float64      `db:"price_modifier" json:"price_modifier"`
	ModifierType  ModifierType `db:"modifier_type" json:"modifier_type"`
	ImageURL      *string      `db:"image_url" json:"image_url"`
	StockQuantity *int         `db:"stock_quantity" json:"stock_quantity"`
	InStock       bool         `db:"in_stock" json:"in_stock"`
}
