package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MenuItemType string

const (
	MenuItemVeg    MenuItemType = "Veg"
	MenuItemNonVeg MenuItemType = "Non-Veg"
)

// メニュー商品。削除は論理削除（注文明細から参照されるため）
type MenuItem struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	VendorID    int64           `gorm:"not null;index:idx_menu_vendor_category" json:"vendorId"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Image       *string         `gorm:"type:varchar(255)" json:"image"`
	Available   bool            `gorm:"not null" json:"available"`
	Category    string          `gorm:"type:varchar(100);not null;index:idx_menu_vendor_category" json:"category"`
	Type        MenuItemType    `gorm:"type:varchar(20);not null;default:'Veg'" json:"type"`
	Ingredients string          `gorm:"type:text" json:"ingredients"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updatedAt"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}
