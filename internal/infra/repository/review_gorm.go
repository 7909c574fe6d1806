package repository

import (
	"context"

	"foodapp/internal/domain/model"

	"gorm.io/gorm"
)

type ReviewGormRepository struct {
	db *gorm.DB
}

func NewReviewGormRepository(db *gorm.DB) *ReviewGormRepository {
	return &ReviewGormRepository{db: db}
}

func (r *ReviewGormRepository) Create(ctx context.Context, rv model.Review) (model.Review, error) {
	if err := r.db.WithContext(ctx).Create(&rv).Error; err != nil {
		return model.Review{}, translate(err)
	}
	return rv, nil
}

func (r *ReviewGormRepository) ListByVendorID(ctx context.Context, vendorID int64) ([]model.Review, error) {
	var rs []model.Review
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at desc, id desc").
		Find(&rs).Error
	if err != nil {
		return []model.Review{}, err
	}
	return rs, nil
}

// 平均評価と件数をDB側で集計
func (r *ReviewGormRepository) Aggregate(ctx context.Context, vendorID int64) (float64, int64, error) {
	var row struct {
		Avg   float64
		Count int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("vendor_id = ?", vendorID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Avg, row.Count, nil
}
