package repository

import (
	"context"

	"foodapp/internal/domain/model"
	repo "foodapp/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type WalletGormRepository struct {
	db *gorm.DB
}

func NewWalletGormRepository(db *gorm.DB) *WalletGormRepository {
	return &WalletGormRepository{db: db}
}

// 残高が足りるときだけ減らす（読んでから書くと同時注文でマイナスになる）
func (r *WalletGormRepository) DebitIfEnough(ctx context.Context, userID int64, amount decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND wallet_balance >= ?", userID, amount).
		UpdateColumn("wallet_balance", gorm.Expr("wallet_balance - ?", amount))

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

// 返金・入金
func (r *WalletGormRepository) Credit(ctx context.Context, userID int64, amount decimal.Decimal) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumn("wallet_balance", gorm.Expr("wallet_balance + ?", amount))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *WalletGormRepository) Balance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Select("wallet_balance").
		Where("id = ?", userID).
		First(&u).Error
	if err != nil {
		return decimal.Zero, translate(err)
	}
	return u.WalletBalance, nil
}
