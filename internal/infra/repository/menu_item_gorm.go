package repository

import (
	"context"
	"strings"

	"foodapp/internal/domain/model"
	repo "foodapp/internal/repository"

	"gorm.io/gorm"
)

type MenuItemGormRepository struct {
	db *gorm.DB
}

func NewMenuItemGormRepository(db *gorm.DB) *MenuItemGormRepository {
	return &MenuItemGormRepository{db: db}
}

// ベンダーのメニュー一覧（論理削除は除外される）
func (r *MenuItemGormRepository) ListByVendorID(ctx context.Context, vendorID int64) ([]model.MenuItem, error) {
	var items []model.MenuItem
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("category asc, id asc").
		Find(&items).Error
	if err != nil {
		return []model.MenuItem{}, err
	}
	return items, nil
}

func (r *MenuItemGormRepository) FindByID(ctx context.Context, id int64) (model.MenuItem, error) {
	var m model.MenuItem
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		return model.MenuItem{}, translate(err)
	}
	return m, nil
}

func (r *MenuItemGormRepository) Create(ctx context.Context, item model.MenuItem) (model.MenuItem, error) {
	if err := r.db.WithContext(ctx).Create(&item).Error; err != nil {
		return model.MenuItem{}, translate(err)
	}
	return item, nil
}

// vendor_id も条件に入れて、他店の商品は触れない
func (r *MenuItemGormRepository) Update(ctx context.Context, item model.MenuItem) error {
	res := r.db.WithContext(ctx).Model(&model.MenuItem{}).
		Where("id = ? AND vendor_id = ?", item.ID, item.VendorID).
		Select("name", "description", "price", "image", "available", "category", "type", "ingredients").
		Updates(&item)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *MenuItemGormRepository) SoftDelete(ctx context.Context, vendorID int64, id int64) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND vendor_id = ?", id, vendorID).
		Delete(&model.MenuItem{})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// カテゴリ削除に合わせて中の商品も消す（0件でもエラーにしない）。
// カテゴリ名は小文字で保存しているので大文字小文字は区別しない
func (r *MenuItemGormRepository) SoftDeleteByCategory(ctx context.Context, vendorID int64, category string) error {
	return r.db.WithContext(ctx).
		Where("vendor_id = ? AND LOWER(category) = ?", vendorID, strings.ToLower(category)).
		Delete(&model.MenuItem{}).Error
}
