package model

type Category struct {
	BaseModel
	ParentID    *string `db:"parent_id" json:"parent_id"`
	Name        string  `db:"name" json:"name"`
	Slug        string  `db:"slug" json:"slug"`
	Description *string `db:"description" json:"description"`
	SortOrder   int     `db:"sort_order" json:"sort_order"`
	IsActive    bool    `db:"is_active" json:"is_active"`
}

// ProductCategory links a product to a category. At most one link per
// product carries is_primary.
type ProductCategory struct {
	BaseModel
	ProductID  string `db:"product_id" json:"product_id"`
	CategoryID string `db:"category_id" json:"category_id"`
	IsPrimary  bool   `db:"is_primary" json:"is_primary"`

	Category *Category `db:"-" json:"category"`
}
