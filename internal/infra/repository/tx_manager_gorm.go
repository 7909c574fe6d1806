package repository

import (
	"context"

	repo "foodapp/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	users      repo.UserRepository
	wallets    repo.WalletRepository
	menuItems  repo.MenuItemRepository
	categories repo.CategoryRepository
	orders     repo.OrderRepository
	reviews    repo.ReviewRepository
	auditLogs  repo.AuditLogRepository
}

func (r *txReposGorm) Users() repo.UserRepository          { return r.users }
func (r *txReposGorm) Wallets() repo.WalletRepository      { return r.wallets }
func (r *txReposGorm) MenuItems() repo.MenuItemRepository  { return r.menuItems }
func (r *txReposGorm) Categories() repo.CategoryRepository { return r.categories }
func (r *txReposGorm) Orders() repo.OrderRepository        { return r.orders }
func (r *txReposGorm) Reviews() repo.ReviewRepository      { return r.reviews }
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository  { return r.auditLogs }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			users:      NewUserGormRepository(tx),
			wallets:    NewWalletGormRepository(tx),
			menuItems:  NewMenuItemGormRepository(tx),
			categories: NewCategoryGormRepository(tx),
			orders:     NewOrderGormRepository(tx),
			reviews:    NewReviewGormRepository(tx),
			auditLogs:  NewAuditLogGormRepository(tx),
		}
		return fn(r)
	})
}

var (
	_ repo.WalletRepository   = (*WalletGormRepository)(nil)
	_ repo.MenuItemRepository = (*MenuItemGormRepository)(nil)
	_ repo.CategoryRepository = (*CategoryGormRepository)(nil)
	_ repo.OrderRepository    = (*OrderGormRepository)(nil)
	_ repo.ReviewRepository   = (*ReviewGormRepository)(nil)
	_ repo.TransactionManager = (*TxManagerGorm)(nil)
)
