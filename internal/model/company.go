package model

type Tax struct {
	BaseModel
	Name     string  `db:"name" json:"name"`
	Rate     float64 `db:"rate" json:"rate"`
	IsActive bool    `db:"is_active" json:"is_active"`
}

type Company struct {
	BaseModel
	Name       string `db:"name" json:"name"`
	IsActive   bool   `db:"is_active" json:"is_active"`
	IsSupplier bool   `db:"is_supplier" json:"is_supplier"`
}
