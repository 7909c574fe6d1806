package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"foodapp/internal/domain/model"
	repo "foodapp/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// 注文明細の入力。name/priceはクライアント表示用で、保存値はカタログから取る
type OrderItemInput struct {
	MenuItemID int64            `json:"menuItemId" validate:"required,gt=0"`
	Name       string           `json:"name"`
	Quantity   int64            `json:"quantity" validate:"required,gte=1,lte=1000"`
	Price      *decimal.Decimal `json:"price"`
}

type PlaceOrderInput struct {
	Items         []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	TotalAmount   *decimal.Decimal `json:"totalAmount" validate:"required"`
	VendorID      int64            `json:"vendorId" validate:"required,gt=0"`
	PaymentMethod string           `json:"paymentMethod" validate:"required"`

	// Idempotency-Key ヘッダー（任意）
	IdempotencyKey string `json:"-"`
}

// 1明細あたりの上限
const MaxItemQuantity = 1000

// orders.total_amount は NUMERIC(12,2)
var maxOrderTotal = decimal.RequireFromString("9999999999.99")

// ValidatedOrder は検証済みの注文下書き
type ValidatedOrder struct {
	Vendor *model.User
	Items  []model.OrderItem
	Total  decimal.Decimal
	Method model.PaymentMethod
}

// OrderValidator は副作用なしで注文を検証する（読むだけ）
type OrderValidator struct {
	users     repo.UserRepository
	menuItems repo.MenuItemRepository
	validate  *validator.Validate
}

// DI
func NewOrderValidator(users repo.UserRepository, menuItems repo.MenuItemRepository) *OrderValidator {
	return &OrderValidator{
		users:     users,
		menuItems: menuItems,
		validate:  validator.New(),
	}
}

// Validate の順番:
// 必須項目 → ベンダー → 各メニュー → 支払い方法 → 合計金額
func (v *OrderValidator) Validate(ctx context.Context, in PlaceOrderInput) (ValidatedOrder, error) {
	if err := v.validate.StructCtx(ctx, in); err != nil {
		if quantityTooLarge(err) {
			return ValidatedOrder{}, validationError(ErrQuantityTooLarge,
				fmt.Sprintf("Quantity must be at most %d", MaxItemQuantity))
		}
		return ValidatedOrder{}, validationError(ErrMissingFields, "Missing required order details")
	}

	vendor, err := v.users.FindByID(ctx, in.VendorID)
	if errors.Is(err, repo.ErrNotFound) {
		return ValidatedOrder{}, notFoundError(ErrVendorNotFound, "Vendor not found")
	}
	if err != nil {
		return ValidatedOrder{}, persistenceError(err)
	}
	if !vendor.IsVendor() {
		return ValidatedOrder{}, notFoundError(ErrVendorNotFound, "Vendor not found")
	}

	items := make([]model.OrderItem, 0, len(in.Items))
	total := decimal.Zero
	for _, it := range in.Items {
		m, err := v.menuItems.FindByID(ctx, it.MenuItemID)
		if errors.Is(err, repo.ErrNotFound) {
			return ValidatedOrder{}, notFoundError(ErrInvalidMenuItem, invalidMenuItemMessage(it))
		}
		if err != nil {
			return ValidatedOrder{}, persistenceError(err)
		}
		//他店の商品
		if m.VendorID != vendor.ID {
			return ValidatedOrder{}, authorizationError(ErrInvalidMenuItem, invalidMenuItemMessage(it))
		}
		//販売停止中
		if !m.Available {
			return ValidatedOrder{}, businessRuleError(ErrMenuItemUnavailable, "Menu item not available: "+m.Name)
		}

		//スナップショットはカタログの値
		items = append(items, model.OrderItem{
			MenuItemID: m.ID,
			Name:       m.Name,
			Quantity:   it.Quantity,
			Price:      m.Price,
		})
		total = total.Add(m.Price.Mul(decimal.NewFromInt(it.Quantity)))
	}

	method, ok := model.ParsePaymentMethod(in.PaymentMethod)
	if !ok {
		return ValidatedOrder{}, businessRuleError(ErrUnsupportedPaymentMethod, "Invalid payment method")
	}

	if total.GreaterThan(maxOrderTotal) {
		return ValidatedOrder{}, validationError(ErrTotalTooLarge, "Total amount too large")
	}

	if !in.TotalAmount.Equal(total) {
		return ValidatedOrder{}, validationError(ErrTotalMismatch,
			fmt.Sprintf("Total amount mismatch: expected %s", total.StringFixed(2)))
	}

	return ValidatedOrder{
		Vendor: vendor,
		Items:  items,
		Total:  total,
		Method: method,
	}, nil
}

func invalidMenuItemMessage(it OrderItemInput) string {
	label := it.Name
	if label == "" {
		label = strconv.FormatInt(it.MenuItemID, 10)
	}
	return "Invalid menu item: " + label
}

func quantityTooLarge(err error) bool {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return false
	}
	for _, fe := range verrs {
		if fe.Field() == "Quantity" && fe.Tag() == "lte" {
			return true
		}
	}
	return false
}
