package catalog

import (
	"context"

	"github.com/nuvora/catalog-service/internal/catalog/dto"
	"github.com/nuvora/catalog-service/internal/model"
)

// SearchIndex is the Elasticsearch index products are synced into.
const SearchIndex = "products"

// ListCachePrefix keys cached result pages; the write side invalidates
// ListCachePrefix + "*" on every product mutation.
const ListCachePrefix = "catalog:list:"

type UseCase interface {
	ListAll(ctx context.Context, filters *dto.Filters) (*dto.ProductList, error)
	Search(ctx context.Context, query string, filters *dto.Filters) (*dto.ProductList, error)
	ByCategory(ctx context.Context, categoryID string, filters *dto.Filters) (*dto.ProductList, error)
	TopNew(ctx context.Context, limit int) ([]model.Product, error)
	TopFlashDeals(ctx context.Context, limit int, minDiscount float64) ([]dto.FlashDeal, error)
	FlashDeals(ctx context.Context, filters *dto.FlashDealFilters) (*dto.FlashDealList, error)
	Recommend(ctx context.Context, productSlug string, limit int) ([]dto.Recommendation, error)
	GetByID(ctx context.Context, id string) (*model.Product, error)
	GetBySlug(ctx context.Context, slug string) (*model.Product, error)

	// Categories lists the browse tree, ordered by sort_order then name.
	Categories(ctx context.Context, activeOnly bool) ([]model.Category, error)
}
