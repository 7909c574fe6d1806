package repository

import (
	"context"

	"github.com/shopspring/decimal"
)

// ウォレット残高の更新はここだけ
type WalletRepository interface {
	// 残高が足りるときだけ減算（足りなければ false）
	DebitIfEnough(ctx context.Context, userID int64, amount decimal.Decimal) (bool, error)
	// 返金・入金
	Credit(ctx context.Context, userID int64, amount decimal.Decimal) error
	Balance(ctx context.Context, userID int64) (decimal.Decimal, error)
}
