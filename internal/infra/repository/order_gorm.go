package repository

import (
	"context"

	"foodapp/internal/domain/model"
	repo "foodapp/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

// 表示に必要な関連をまとめて読む
func (r *OrderGormRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("User").
		Preload("Vendor").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_items.id asc")
		}).
		Preload("Items.MenuItem")
}

// 注文と明細を一緒に保存
func (r *OrderGormRepository) Create(ctx context.Context, order *model.Order) error {
	return translate(r.db.WithContext(ctx).Omit("User", "Vendor").Create(order).Error)
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID string) (model.Order, error) {
	var o model.Order
	err := r.withRelations(ctx).Where("orders.id = ?", orderID).First(&o).Error
	if err != nil {
		return model.Order{}, translate(err)
	}
	return o, nil
}

func (r *OrderGormRepository) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	var o model.Order
	err := r.withRelations(ctx).
		Where("orders.user_id = ? AND orders.idempotency_key = ?", userID, key).
		First(&o).Error

	if isNotFound(err) {
		return model.Order{}, false, nil
	}
	if err != nil {
		return model.Order{}, false, err
	}
	return o, true, nil
}

func (r *OrderGormRepository) ListActiveByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	var items []model.Order
	err := r.withRelations(ctx).
		Where("orders.user_id = ? AND orders.order_status IN ?", userID, model.ActiveOrderStatuses).
		Order("orders.created_at desc").
		Find(&items).Error
	if err != nil {
		return []model.Order{}, err
	}
	return items, nil
}

func (r *OrderGormRepository) ListByVendor(ctx context.Context, f repo.VendorOrderListFilter) ([]model.Order, error) {
	switch {
	case f.Limit <= 0:
		f.Limit = 50
	case f.Limit > 200:
		f.Limit = 200
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	q := r.withRelations(ctx).Where("orders.vendor_id = ?", f.VendorID)

	//status 絞り込み
	if f.Status != nil {
		q = q.Where("orders.order_status = ?", *f.Status)
	}

	var items []model.Order
	if err := q.Order("orders.created_at desc").Limit(f.Limit).Offset(f.Offset).Find(&items).Error; err != nil {
		return []model.Order{}, err
	}
	return items, nil
}

// 条件付き更新。別リクエストが先に変えていたら false
func (r *OrderGormRepository) UpdateStatus(ctx context.Context, orderID string, from, to model.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND order_status = ?", orderID, from).
		Update("order_status", to)

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *OrderGormRepository) UpdatePaymentStatus(ctx context.Context, orderID string, status model.PaymentStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Update("payment_status", status)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
