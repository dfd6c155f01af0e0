package tax

import (
	"context"

	"github.com/nuvora/catalog-service/internal/model"
)

type Repository interface {
	FindByID(ctx context.Context, id string) (*model.Tax, error)
}
