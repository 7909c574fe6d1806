package repository

import (
	"context"

	"foodapp/internal/domain/model"
)

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成（email重複は ErrDuplicate）
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	//メールからユーザーを一件取得する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	//トークンのバージョンを＋１
	IncrementTokenVersion(ctx context.Context, userID int64) error

	//ベンダー一覧・1件
	ListVendors(ctx context.Context) ([]model.User, error)
	FindVendorByID(ctx context.Context, vendorID int64) (*model.User, error)
	//レビュー集計の反映
	UpdateVendorRating(ctx context.Context, vendorID int64, rating float64, numReviews int64) error
}
