package usecase

import (
	"time"

	"foodapp/internal/domain/model"

	"github.com/shopspring/decimal"
)

// 注文者の表示用
type OrderUserOutput struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

// ベンダーの表示用
type OrderVendorOutput struct {
	ID             int64  `json:"id"`
	RestaurantName string `json:"restaurantName"`
	Email          string `json:"email"`
	PhoneNumber    string `json:"phoneNumber"`
}

// 明細が指しているメニューの現在値（削除済みなら null）
type CurrentMenuItemOutput struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type OrderItemOutput struct {
	MenuItemID int64                  `json:"menuItemId"`
	Name       string                 `json:"name"`
	Quantity   int64                  `json:"quantity"`
	Price      decimal.Decimal        `json:"price"`
	MenuItem   *CurrentMenuItemOutput `json:"menuItem"`
}

type OrderOutput struct {
	ID              string              `json:"id"`
	User            *OrderUserOutput    `json:"user"`
	Vendor          *OrderVendorOutput  `json:"vendor"`
	UserPhoneNumber string              `json:"userPhoneNumber"`
	Items           []OrderItemOutput   `json:"items"`
	TotalAmount     decimal.Decimal     `json:"totalAmount"`
	PaymentMethod   model.PaymentMethod `json:"paymentMethod"`
	PaymentStatus   model.PaymentStatus `json:"paymentStatus"`
	OrderStatus     model.OrderStatus   `json:"orderStatus"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

func toOrderOutput(o model.Order) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(o.Items))
	for _, it := range o.Items {
		item := OrderItemOutput{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Quantity:   it.Quantity,
			Price:      it.Price,
		}
		if it.MenuItem != nil {
			item.MenuItem = &CurrentMenuItemOutput{
				ID:    it.MenuItem.ID,
				Name:  it.MenuItem.Name,
				Price: it.MenuItem.Price,
			}
		}
		outItems = append(outItems, item)
	}

	out := OrderOutput{
		ID:              o.ID,
		UserPhoneNumber: o.UserPhoneNumber,
		Items:           outItems,
		TotalAmount:     o.TotalAmount,
		PaymentMethod:   o.PaymentMethod,
		PaymentStatus:   o.PaymentStatus,
		OrderStatus:     o.OrderStatus,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	if o.User != nil {
		out.User = &OrderUserOutput{
			ID:          o.User.ID,
			Username:    o.User.Username,
			Email:       o.User.Email,
			PhoneNumber: o.User.PhoneNumber,
		}
	}
	if o.Vendor != nil {
		out.Vendor = &OrderVendorOutput{
			ID:             o.Vendor.ID,
			RestaurantName: o.Vendor.VendorDetails.RestaurantName,
			Email:          o.Vendor.Email,
			PhoneNumber:    o.Vendor.PhoneNumber,
		}
	}
	return out
}

func toOrderOutputs(orders []model.Order) []OrderOutput {
	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		outs = append(outs, toOrderOutput(o))
	}
	return outs
}
