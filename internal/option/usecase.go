package option

import (
	"context"

	"github.com/nuvora/catalog-service/internal/model"
	"github.com/nuvora/catalog-service/internal/option/dto"
)

type UseCase interface {
	// BuildTree validates inputs and assembles a persistable option tree
	// without touching storage; the product create pipeline embeds the
	// result in its own transaction.
	BuildTree(ctx context.Context, productID string, inputs []dto.OptionInput) ([]model.CustomOption, error)

	CreateOptions(ctx context.Context, productID string, inputs []dto.OptionInput) ([]model.CustomOption, error)
	ListOptions(ctx context.Context, productID string) ([]model.CustomOption, error)

	// ReplaceOptions swaps the whole option tree of a product, preserving
	// value images by natural key for values the caller did not re-upload.
	ReplaceOptions(ctx context.Context, productID string, inputs []dto.OptionInput) ([]model.CustomOption, error)

	UpdateOption(ctx context.Context, optionID string, input dto.OptionInput) (*model.CustomOption, error)
	DeleteOption(ctx context.Context, optionID string) error
	UploadValueImage(ctx context.Context, optionID, valueID string, file dto.FileUpload) (string, error)
}
