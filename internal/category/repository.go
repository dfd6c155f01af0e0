package category

import (
	"context"

	"github.com/nuvora/catalog-service/internal/model"
)

type Repository interface {
	FindByID(ctx context.Context, id string) (*model.Category, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Category, error)
	FindAll(ctx context.Context, activeOnly bool) ([]model.Category, error)
}
