package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"foodapp/internal/domain/model"
	"foodapp/internal/notify"
	repo "foodapp/internal/repository"
	"foodapp/internal/telemetry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("foodapp/usecase")

// キーの重複で作成がぶつかった（tx をロールバックさせるためのもの）
var errIdempotentReplay = errors.New("idempotent replay")

type OrderUsecase struct {
	tx        repo.TransactionManager
	orders    repo.OrderRepository
	validator *OrderValidator
	payments  *PaymentSettlement
	notifier  notify.Notifier
	idGen     IDGenerator
	clock     Clock
	metrics   *telemetry.Metrics
	log       *slog.Logger
}

// DI
func NewOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	validator *OrderValidator,
	payments *PaymentSettlement,
	notifier notify.Notifier,
	idGen IDGenerator,
	clock Clock,
	metrics *telemetry.Metrics,
	log *slog.Logger,
) *OrderUsecase {
	if log == nil {
		log = slog.Default()
	}
	return &OrderUsecase{
		tx:        tx,
		orders:    orders,
		validator: validator,
		payments:  payments,
		notifier:  notifier,
		idGen:     idGen,
		clock:     clock,
		metrics:   metrics,
		log:       log,
	}
}

type PlaceOrderResult struct {
	Order OrderOutput
	// false なら同じ Idempotency-Key の既存注文を返した
	Created bool
}

// PlaceOrder: 検証 → 支払い+保存(1トランザクション) → 読み直し → 通知
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (PlaceOrderResult, error) {
	ctx, span := tracer.Start(ctx, "order.place", trace.WithAttributes(
		attribute.Int64("user.id", userID),
		attribute.Int64("vendor.id", in.VendorID),
	))
	defer span.End()

	res, err := u.placeOrder(ctx, userID, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return PlaceOrderResult{}, err
	}
	span.SetAttributes(
		attribute.String("order.id", res.Order.ID),
		attribute.Bool("order.created", res.Created),
	)
	return res, nil
}

func (u *OrderUsecase) placeOrder(ctx context.Context, userID int64, in PlaceOrderInput) (PlaceOrderResult, error) {
	if userID <= 0 {
		return PlaceOrderResult{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if len(key) > 255 {
		return PlaceOrderResult{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency key")
	}

	// 同じキーなら同じ結果（通知はもう送らない）
	if key != "" {
		existing, found, err := u.orders.FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return PlaceOrderResult{}, persistenceError(err)
		}
		if found {
			return PlaceOrderResult{Order: toOrderOutput(existing)}, nil
		}
	}

	vctx, vspan := tracer.Start(ctx, "order.validate")
	validated, err := u.validator.Validate(vctx, in)
	vspan.End()
	if err != nil {
		return PlaceOrderResult{}, err
	}

	now := u.clock.Now()
	order := model.Order{
		ID:            u.idGen.NewID(),
		UserID:        userID,
		VendorID:      validated.Vendor.ID,
		Items:         validated.Items,
		TotalAmount:   validated.Total,
		PaymentMethod: validated.Method,
		OrderStatus:   model.OrderStatusInProgress,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if key != "" {
		order.IdempotencyKey = &key
	}

	sctx, sspan := tracer.Start(ctx, "order.settle_and_store")
	err = u.tx.WithinTx(sctx, func(r repo.TxRepos) error {
		settlement, err := u.payments.Settle(sctx, r, userID, validated.Method, validated.Total)
		if err != nil {
			return err
		}
		order.PaymentStatus = settlement.Status
		order.UserPhoneNumber = settlement.PhoneNumber

		if err := r.Orders().Create(sctx, &order); err != nil {
			if key != "" && errors.Is(err, repo.ErrDuplicate) {
				//同時に同じキーが来た。引き落としごとロールバック
				return errIdempotentReplay
			}
			return persistenceError(err)
		}
		return nil
	})
	sspan.End()

	if errors.Is(err, errIdempotentReplay) {
		existing, found, ferr := u.orders.FindByIdempotencyKey(ctx, userID, key)
		if ferr == nil && !found {
			ferr = errors.New("replayed order not found")
		}
		if ferr != nil {
			return PlaceOrderResult{}, persistenceError(ferr)
		}
		return PlaceOrderResult{Order: toOrderOutput(existing)}, nil
	}
	if err != nil {
		return PlaceOrderResult{}, asUsecaseError(err)
	}

	u.metrics.OrderPlaced(string(order.PaymentMethod))

	// コミット済みなので、読み直しに失敗しても作成した形で返す
	out := toOrderOutput(order)
	if enriched, err := u.orders.FindByID(ctx, order.ID); err != nil {
		u.log.WarnContext(ctx, "order: read back failed", "order_id", order.ID, "error", err)
	} else {
		out = toOrderOutput(enriched)
	}

	nctx, nspan := tracer.Start(ctx, "order.notify")
	u.notifier.Notify(nctx, userID, notify.Event{
		Type:    notify.EventOrderConfirmation,
		Message: "Your order has been placed successfully!",
		OrderID: order.ID,
	})
	u.notifier.Notify(nctx, order.VendorID, notify.Event{
		Type:    notify.EventNewOrder,
		Message: "You have a new order!",
		OrderID: order.ID,
	})
	nspan.End()

	u.log.InfoContext(ctx, "order placed",
		"order_id", order.ID,
		"user_id", userID,
		"vendor_id", order.VendorID,
		"payment_method", order.PaymentMethod,
		"total", order.TotalAmount.String(),
	)
	return PlaceOrderResult{Order: out, Created: true}, nil
}

// 進行中の注文（新しい順）
func (u *OrderUsecase) ListMyActiveOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	orders, err := u.orders.ListActiveByUserID(ctx, userID)
	if err != nil {
		return []OrderOutput{}, persistenceError(err)
	}
	return toOrderOutputs(orders), nil
}

// 注文者かその注文のベンダーだけ見られる
func (u *OrderUsecase) GetOrder(ctx context.Context, callerID int64, orderID string) (OrderOutput, error) {
	if callerID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	o, err := u.findOrder(ctx, u.orders, orderID)
	if err != nil {
		return OrderOutput{}, err
	}
	if o.UserID != callerID && o.VendorID != callerID {
		//他人の注文は「存在しない扱い」にする
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "Order not found")
	}
	return toOrderOutput(o), nil
}

const (
	DefaultVendorOrderLimit = 50
	MaxVendorOrderLimit     = 200
)

// ベンダー向け一覧のクエリ。limit 省略は DefaultVendorOrderLimit 件
type VendorOrderQuery struct {
	Status string `query:"status"`
	Limit  int    `query:"limit" validate:"gte=0,lte=200"`
	Offset int    `query:"offset" validate:"gte=0"`
}

func (u *OrderUsecase) ListVendorOrders(ctx context.Context, vendorID int64, q VendorOrderQuery) ([]OrderOutput, error) {
	if vendorID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := inputValidator.StructCtx(ctx, q); err != nil {
		if fe, ok := firstFieldError(err); ok && fe.Field() == "Offset" {
			return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "offset must not be negative")
		}
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", MaxVendorOrderLimit))
	}

	f := repo.VendorOrderListFilter{VendorID: vendorID, Limit: q.Limit, Offset: q.Offset}
	if f.Limit == 0 {
		f.Limit = DefaultVendorOrderLimit
	}
	if s := strings.TrimSpace(q.Status); s != "" {
		st, ok := model.ParseOrderStatus(s)
		if !ok {
			return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		f.Status = &st
	}

	orders, err := u.orders.ListByVendor(ctx, f)
	if err != nil {
		return []OrderOutput{}, persistenceError(err)
	}
	return toOrderOutputs(orders), nil
}

type UpdateOrderStatusInput struct {
	Status string `json:"status"`
}

// ベンダーがステータスを進める。cancelled なら支払い済みウォレットは返金
func (u *OrderUsecase) UpdateStatus(ctx context.Context, vendorID int64, orderID string, in UpdateOrderStatusInput) (OrderOutput, error) {
	if vendorID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	next, ok := model.ParseOrderStatus(strings.TrimSpace(in.Status))
	if !ok {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var (
		o       model.Order
		changed bool
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		o, err = u.findOrder(ctx, r.Orders(), orderID)
		if err != nil {
			return err
		}
		if o.VendorID != vendorID {
			return NewHTTPError(http.StatusNotFound, "Order not found")
		}

		changed, err = u.transition(ctx, r, vendorID, &o, next)
		return err
	})
	if err != nil {
		return OrderOutput{}, asUsecaseError(err)
	}

	if changed {
		u.notifier.Notify(ctx, o.UserID, notify.Event{
			Type:    notify.EventOrderStatusUpdated,
			Message: "Your order is now " + string(o.OrderStatus),
			OrderID: o.ID,
		})
	}
	return toOrderOutput(o), nil
}

// 注文者がキャンセルする
func (u *OrderUsecase) Cancel(ctx context.Context, userID int64, orderID string) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var (
		o       model.Order
		changed bool
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		o, err = u.findOrder(ctx, r.Orders(), orderID)
		if err != nil {
			return err
		}
		if o.UserID != userID {
			return NewHTTPError(http.StatusNotFound, "Order not found")
		}

		changed, err = u.transition(ctx, r, userID, &o, model.OrderStatusCancelled)
		return err
	})
	if err != nil {
		return OrderOutput{}, asUsecaseError(err)
	}

	if changed {
		u.notifier.Notify(ctx, o.VendorID, notify.Event{
			Type:    notify.EventOrderCancelled,
			Message: "An order has been cancelled",
			OrderID: o.ID,
		})
	}
	return toOrderOutput(o), nil
}

// transition は遷移表のチェック、条件付き更新、返金、監査ログをまとめて行う。
// 同じステータスへの変更は何もしない（changed=false）
func (u *OrderUsecase) transition(ctx context.Context, r repo.TxRepos, actorID int64, o *model.Order, next model.OrderStatus) (bool, error) {
	before := o.OrderStatus
	if before == next {
		return false, nil
	}
	if !before.CanTransitionTo(next) {
		return false, validationError(ErrInvalidTransition,
			fmt.Sprintf("cannot change order from %s to %s", before, next))
	}

	ok, err := r.Orders().UpdateStatus(ctx, o.ID, before, next)
	if err != nil {
		return false, persistenceError(err)
	}
	if !ok {
		return false, NewHTTPError(http.StatusConflict, "order was updated by another request")
	}
	o.OrderStatus = next
	o.UpdatedAt = u.clock.Now()

	if next == model.OrderStatusCancelled {
		ps, err := u.payments.Refund(ctx, r, *o)
		if err != nil {
			return false, err
		}
		o.PaymentStatus = ps
	}

	beforeJSON, _ := json.Marshal(map[string]string{"order_status": string(before)})
	afterJSON, _ := json.Marshal(map[string]string{
		"order_status":   string(next),
		"payment_status": string(o.PaymentStatus),
	})
	if err := r.AuditLogs().Create(ctx, model.AuditLog{
		ActorUserID:  actorID,
		Action:       model.AuditActionUpdateOrderStatus,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   o.ID,
		BeforeJSON:   string(beforeJSON),
		AfterJSON:    string(afterJSON),
		CreatedAt:    u.clock.Now(),
	}); err != nil {
		return false, persistenceError(err)
	}
	return true, nil
}

func (u *OrderUsecase) findOrder(ctx context.Context, orders repo.OrderRepository, orderID string) (model.Order, error) {
	//UUIDでなければDBに行かずに404
	if _, err := uuid.Parse(orderID); err != nil {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "Order not found")
	}

	o, err := orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "Order not found")
	}
	if err != nil {
		return model.Order{}, persistenceError(err)
	}
	return o, nil
}
