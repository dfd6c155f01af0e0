package company

import (
	"context"

	"github.com/nuvora/catalog-service/internal/model"
)

type Repository interface {
	FindByID(ctx context.Context, id string) (*model.Company, error)
}
