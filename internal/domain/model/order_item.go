package model

import "github.com/shopspring/decimal"

// 注文明細。名前と単価は注文時点のスナップショット
type OrderItem struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID    string          `gorm:"type:uuid;not null;index" json:"orderId"`
	MenuItemID int64           `gorm:"not null;index" json:"menuItemId"`
	Name       string          `gorm:"type:varchar(255);not null" json:"name"`
	Quantity   int64           `gorm:"not null" json:"quantity"`
	Price      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`

	//現在のメニュー（削除済みなら nil）
	MenuItem *MenuItem `gorm:"foreignKey:MenuItemID" json:"-"`
}

func (it OrderItem) LineTotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(it.Quantity))
}
