package repository

import (
	"context"

	"foodapp/internal/domain/model"
)

type CategoryRepository interface {
	ListByVendorID(ctx context.Context, vendorID int64) ([]model.Category, error)
	FindByID(ctx context.Context, id int64) (model.Category, error)
	FindByVendorAndName(ctx context.Context, vendorID int64, name string) (model.Category, error)
	Create(ctx context.Context, c model.Category) (model.Category, error)
	Delete(ctx context.Context, id int64) error
}
