package product

import (
	"context"

	"github.com/nuvora/catalog-service/internal/model"
	"github.com/nuvora/catalog-service/internal/product/dto"
)

type UseCase interface {
	Create(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error)
	Edit(ctx context.Context, id string, input *dto.EditProductInput) (*model.Product, error)

	// Duplicate deep-clones a product with fresh identifiers. Sub-entity
	// clone failures are logged and skipped, unlike Create which is
	// all-or-nothing.
	Duplicate(ctx context.Context, id string) (*model.Product, error)

	Publish(ctx context.Context, id string) (*model.Product, error)
	Unpublish(ctx context.Context, id string) (*model.Product, error)
	Archive(ctx context.Context, id string) (*model.Product, error)
	Unarchive(ctx context.Context, id string) (*model.Product, error)
}
