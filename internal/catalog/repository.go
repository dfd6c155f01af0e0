package catalog

import (
	"context"

	"github.com/nuvora/catalog-service/internal/catalog/dto"
	"github.com/nuvora/catalog-service/internal/model"
)

type Repository interface {
	// Find runs the count and row queries inside one transaction so the
	// pagination header can never drift from the rows.
	Find(ctx context.Context, filters *dto.Filters) ([]model.Product, int, error)

	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindBySlug(ctx context.Context, slug string, publishedOnly bool) (*model.Product, error)

	// CategoryLinks loads the category links for a set of products, keyed
	// by product id. Used by the recommendation scorer.
	CategoryLinks(ctx context.Context, productIDs []string) (map[string][]model.ProductCategory, error)
}
