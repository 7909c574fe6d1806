package repository

import (
	"context"

	"foodapp/internal/domain/model"
)

// メニューの永続化（保存・取得）だけを約束。
type MenuItemRepository interface {
	ListByVendorID(ctx context.Context, vendorID int64) ([]model.MenuItem, error)
	FindByID(ctx context.Context, id int64) (model.MenuItem, error)

	Create(ctx context.Context, item model.MenuItem) (model.MenuItem, error)
	// vendorの持ち物だけ更新（なければ ErrNotFound）
	Update(ctx context.Context, item model.MenuItem) error
	SoftDelete(ctx context.Context, vendorID int64, id int64) error
	SoftDeleteByCategory(ctx context.Context, vendorID int64, category string) error
}
