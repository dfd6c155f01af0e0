package option

import (
	"context"

	"github.com/nuvora/catalog-service/internal/model"
)

type Repository interface {
	ProductExists(ctx context.Context, productID string) (bool, error)
	FindByProduct(ctx context.Context, productID string) ([]model.CustomOption, error)
	FindByID(ctx context.Context, optionID string) (*model.CustomOption, error)
	FindValue(ctx context.Context, optionID, valueID string) (*model.CustomOptionValue, error)

	// CreateForProduct inserts options without touching existing ones.
	CreateForProduct(ctx context.Context, options []model.CustomOption) error

	// ReplaceForProduct deletes the product's option tree and inserts the
	// given one within a single transaction.
	ReplaceForProduct(ctx context.Context, productID string, options []model.CustomOption) error

	// ReplaceOne updates one option row and swaps its values within a
	// single transaction.
	ReplaceOne(ctx context.Context, option *model.CustomOption) error

	Delete(ctx context.Context, optionID string) error
	UpdateValueImage(ctx context.Context, valueID, url string) error
}
