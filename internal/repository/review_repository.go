package repository

import (
	"context"

	"foodapp/internal/domain/model"
)

type ReviewRepository interface {
	Create(ctx context.Context, r model.Review) (model.Review, error)
	//新しい順
	ListByVendorID(ctx context.Context, vendorID int64) ([]model.Review, error)
	//平均と件数
	Aggregate(ctx context.Context, vendorID int64) (avg float64, count int64, err error)
}
