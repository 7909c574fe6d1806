package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusInProgress     OrderStatus = "in_progress"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// 進行中の注文（一覧で返す対象）
var ActiveOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusInProgress,
	OrderStatusOutForDelivery,
}

// 遷移表。キャンセルは終端以外からならOK
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:        {OrderStatusInProgress, OrderStatusCancelled},
	OrderStatusInProgress:     {OrderStatusOutForDelivery, OrderStatusCancelled},
	OrderStatusOutForDelivery: {OrderStatusDelivered, OrderStatusCancelled},
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusInProgress, OrderStatusOutForDelivery,
		OrderStatusDelivered, OrderStatusCancelled:
		return OrderStatus(s), true
	}
	return "", false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodWallet         PaymentMethod = "wallet"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

// 画面の表示名（"Wallet" / "Cash on Delivery"）も受け付ける
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch s {
	case "wallet", "Wallet":
		return PaymentMethodWallet, true
	case "cash_on_delivery", "Cash on Delivery":
		return PaymentMethodCashOnDelivery, true
	}
	return "", false
}

type PaymentStatus string

const (
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// 注文（集約ルート）。明細は Items で一緒に保存する
type Order struct {
	ID       string `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   int64  `gorm:"not null;index;uniqueIndex:uq_order_user_idempotency" json:"userId"`
	VendorID int64  `gorm:"not null;index" json:"vendorId"`
	//注文時点の電話番号（プロフィール変更の影響を受けない）
	UserPhoneNumber string          `gorm:"type:varchar(30)" json:"userPhoneNumber"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"totalAmount"`
	PaymentMethod   PaymentMethod   `gorm:"type:varchar(30);not null" json:"paymentMethod"`
	PaymentStatus   PaymentStatus   `gorm:"type:varchar(20);not null;default:'unpaid'" json:"paymentStatus"`
	OrderStatus     OrderStatus     `gorm:"type:varchar(30);not null;index" json:"orderStatus"`
	IdempotencyKey  *string         `gorm:"type:varchar(255);uniqueIndex:uq_order_user_idempotency" json:"-"`
	CreatedAt       time.Time       `gorm:"not null;index" json:"createdAt"`
	UpdatedAt       time.Time       `gorm:"not null" json:"updatedAt"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`

	//表示用（読み取り時にPreloadする）
	User   *User `gorm:"foreignKey:UserID" json:"-"`
	Vendor *User `gorm:"foreignKey:VendorID" json:"-"`
}
