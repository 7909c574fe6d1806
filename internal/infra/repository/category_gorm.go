package repository

import (
	"context"

	"foodapp/internal/domain/model"
	repo "foodapp/internal/repository"

	"gorm.io/gorm"
)

type CategoryGormRepository struct {
	db *gorm.DB
}

func NewCategoryGormRepository(db *gorm.DB) *CategoryGormRepository {
	return &CategoryGormRepository{db: db}
}

func (r *CategoryGormRepository) ListByVendorID(ctx context.Context, vendorID int64) ([]model.Category, error) {
	var cs []model.Category
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("name asc").
		Find(&cs).Error
	if err != nil {
		return []model.Category{}, err
	}
	return cs, nil
}

func (r *CategoryGormRepository) FindByID(ctx context.Context, id int64) (model.Category, error) {
	var c model.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return model.Category{}, translate(err)
	}
	return c, nil
}

func (r *CategoryGormRepository) FindByVendorAndName(ctx context.Context, vendorID int64, name string) (model.Category, error) {
	var c model.Category
	err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND name = ?", vendorID, name).
		First(&c).Error
	if err != nil {
		return model.Category{}, translate(err)
	}
	return c, nil
}

// (vendor_id, name) の一意制約違反は ErrDuplicate
func (r *CategoryGormRepository) Create(ctx context.Context, c model.Category) (model.Category, error) {
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return model.Category{}, translate(err)
	}
	return c, nil
}

func (r *CategoryGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Category{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
