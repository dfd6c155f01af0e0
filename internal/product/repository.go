package product

import (
	"context"

	"github.com/nuvora/catalog-service/internal/model"
)

// ConflictFields is the combined uniqueness probe input. Empty fields are
// skipped.
type ConflictFields struct {
	SKU     string
	Slug    string
	Barcode string
	Title   string
	EAN     string
}

// UpdateSpec controls which parts of the aggregate an update touches.
type UpdateSpec struct {
	ReplaceImages     bool
	AppendImages      bool
	ReplaceCategories bool
}

type Repository interface {
	// SlugExists and SKUExists satisfy identifier.UniquenessProbe.
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	SKUExists(ctx context.Context, sku, excludeID string) (bool, error)

	// FindConflict probes all unique identity columns in one query and
	// returns the name of the first conflicting field, or "".
	FindConflict(ctx context.Context, fields ConflictFields, excludeID string) (string, error)

	// FindByID loads the aggregate with images, services and category
	// links. Returns nil when absent.
	FindByID(ctx context.Context, id string) (*model.Product, error)

	// CreateAggregate persists the product row plus images, services,
	// category links and options within one transaction.
	CreateAggregate(ctx context.Context, p *model.Product) error

	UpdateAggregate(ctx context.Context, p *model.Product, spec UpdateSpec) error
	UpdateState(ctx context.Context, p *model.Product) error

	AddServices(ctx context.Context, services []model.ProductService) error
	AddCategories(ctx context.Context, links []model.ProductCategory) error
}
