package repository

import (
	"context"

	"foodapp/internal/domain/model"
)

// Limit 0以下は50件、200件を超える指定は200件にそろえる
type VendorOrderListFilter struct {
	VendorID int64
	Status   *model.OrderStatus
	Limit    int
	Offset   int
}

// 読み取り系はユーザー・ベンダー・明細のメニューをPreloadして返す
type OrderRepository interface {
	//明細ごと1回で保存（idempotency_key重複は ErrDuplicate）
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, orderID string) (model.Order, error)
	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error)

	//pending / in_progress / out_for_delivery だけ。新しい順
	ListActiveByUserID(ctx context.Context, userID int64) ([]model.Order, error)
	ListByVendor(ctx context.Context, f VendorOrderListFilter) ([]model.Order, error)

	//from のときだけ to へ（0件なら false）
	UpdateStatus(ctx context.Context, orderID string, from, to model.OrderStatus) (bool, error)
	UpdatePaymentStatus(ctx context.Context, orderID string, status model.PaymentStatus) error
}
