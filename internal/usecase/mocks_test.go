package usecase_test

import (
	"context"
	"sync"
	"time"

	"foodapp/internal/domain/model"
	"foodapp/internal/notify"
	repo "foodapp/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	// 呼ばれた事実だけ記録（ctxの具体値は問わない）
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	users      repo.UserRepository
	wallets    repo.WalletRepository
	menuItems  repo.MenuItemRepository
	categories repo.CategoryRepository
	orders     repo.OrderRepository
	reviews    repo.ReviewRepository
	auditLogs  repo.AuditLogRepository
}

func (r *TxReposMock) Users() repo.UserRepository          { return r.users }
func (r *TxReposMock) Wallets() repo.WalletRepository      { return r.wallets }
func (r *TxReposMock) MenuItems() repo.MenuItemRepository  { return r.menuItems }
func (r *TxReposMock) Categories() repo.CategoryRepository { return r.categories }
func (r *TxReposMock) Orders() repo.OrderRepository        { return r.orders }
func (r *TxReposMock) Reviews() repo.ReviewRepository      { return r.reviews }
func (r *TxReposMock) AuditLogs() repo.AuditLogRepository  { return r.auditLogs }

// =====================
// Repository mocks
// =====================

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepoMock) IncrementTokenVersion(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *UserRepoMock) ListVendors(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	vs, _ := args.Get(0).([]model.User)
	return vs, args.Error(1)
}

func (m *UserRepoMock) FindVendorByID(ctx context.Context, vendorID int64) (*model.User, error) {
	args := m.Called(ctx, vendorID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) UpdateVendorRating(ctx context.Context, vendorID int64, rating float64, numReviews int64) error {
	args := m.Called(ctx, vendorID, rating, numReviews)
	return args.Error(0)
}

type WalletRepoMock struct{ mock.Mock }

func (m *WalletRepoMock) DebitIfEnough(ctx context.Context, userID int64, amount decimal.Decimal) (bool, error) {
	args := m.Called(ctx, userID, amount)
	return args.Bool(0), args.Error(1)
}

func (m *WalletRepoMock) Credit(ctx context.Context, userID int64, amount decimal.Decimal) error {
	args := m.Called(ctx, userID, amount)
	return args.Error(0)
}

func (m *WalletRepoMock) Balance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	d, _ := args.Get(0).(decimal.Decimal)
	return d, args.Error(1)
}

type MenuItemRepoMock struct{ mock.Mock }

func (m *MenuItemRepoMock) ListByVendorID(ctx context.Context, vendorID int64) ([]model.MenuItem, error) {
	args := m.Called(ctx, vendorID)
	items, _ := args.Get(0).([]model.MenuItem)
	return items, args.Error(1)
}

func (m *MenuItemRepoMock) FindByID(ctx context.Context, id int64) (model.MenuItem, error) {
	args := m.Called(ctx, id)
	it, _ := args.Get(0).(model.MenuItem)
	return it, args.Error(1)
}

func (m *MenuItemRepoMock) Create(ctx context.Context, item model.MenuItem) (model.MenuItem, error) {
	args := m.Called(ctx, item)
	it, _ := args.Get(0).(model.MenuItem)
	return it, args.Error(1)
}

func (m *MenuItemRepoMock) Update(ctx context.Context, item model.MenuItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MenuItemRepoMock) SoftDelete(ctx context.Context, vendorID int64, id int64) error {
	args := m.Called(ctx, vendorID, id)
	return args.Error(0)
}

func (m *MenuItemRepoMock) SoftDeleteByCategory(ctx context.Context, vendorID int64, category string) error {
	args := m.Called(ctx, vendorID, category)
	return args.Error(0)
}

type CategoryRepoMock struct{ mock.Mock }

func (m *CategoryRepoMock) ListByVendorID(ctx context.Context, vendorID int64) ([]model.Category, error) {
	args := m.Called(ctx, vendorID)
	cs, _ := args.Get(0).([]model.Category)
	return cs, args.Error(1)
}

func (m *CategoryRepoMock) FindByID(ctx context.Context, id int64) (model.Category, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(model.Category)
	return c, args.Error(1)
}

func (m *CategoryRepoMock) FindByVendorAndName(ctx context.Context, vendorID int64, name string) (model.Category, error) {
	args := m.Called(ctx, vendorID, name)
	c, _ := args.Get(0).(model.Category)
	return c, args.Error(1)
}

func (m *CategoryRepoMock) Create(ctx context.Context, c model.Category) (model.Category, error) {
	args := m.Called(ctx, c)
	out, _ := args.Get(0).(model.Category)
	return out, args.Error(1)
}

func (m *CategoryRepoMock) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) Create(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID string) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	args := m.Called(ctx, userID, key)
	o, _ := args.Get(0).(model.Order)
	return o, args.Bool(1), args.Error(2)
}

func (m *OrderRepoMock) ListActiveByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	args := m.Called(ctx, userID)
	os, _ := args.Get(0).([]model.Order)
	return os, args.Error(1)
}

func (m *OrderRepoMock) ListByVendor(ctx context.Context, f repo.VendorOrderListFilter) ([]model.Order, error) {
	args := m.Called(ctx, f)
	os, _ := args.Get(0).([]model.Order)
	return os, args.Error(1)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID string, from, to model.OrderStatus) (bool, error) {
	args := m.Called(ctx, orderID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *OrderRepoMock) UpdatePaymentStatus(ctx context.Context, orderID string, status model.PaymentStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

type ReviewRepoMock struct{ mock.Mock }

func (m *ReviewRepoMock) Create(ctx context.Context, r model.Review) (model.Review, error) {
	args := m.Called(ctx, r)
	out, _ := args.Get(0).(model.Review)
	return out, args.Error(1)
}

func (m *ReviewRepoMock) ListByVendorID(ctx context.Context, vendorID int64) ([]model.Review, error) {
	args := m.Called(ctx, vendorID)
	rs, _ := args.Get(0).([]model.Review)
	return rs, args.Error(1)
}

func (m *ReviewRepoMock) Aggregate(ctx context.Context, vendorID int64) (float64, int64, error) {
	args := m.Called(ctx, vendorID)
	return args.Get(0).(float64), args.Get(1).(int64), args.Error(2)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	panic("not used in usecase tests")
}

var (
	_ repo.UserRepository     = (*UserRepoMock)(nil)
	_ repo.WalletRepository   = (*WalletRepoMock)(nil)
	_ repo.MenuItemRepository = (*MenuItemRepoMock)(nil)
	_ repo.CategoryRepository = (*CategoryRepoMock)(nil)
	_ repo.OrderRepository    = (*OrderRepoMock)(nil)
	_ repo.ReviewRepository   = (*ReviewRepoMock)(nil)
	_ repo.AuditLogRepository = (*AuditRepoMock)(nil)
	_ repo.TransactionManager = (*TxManagerMock)(nil)
)

// =====================
// notifier / clock / id
// =====================

type sentEvent struct {
	UserID int64
	Event  notify.Event
}

// NotifierSpy は送った通知を記録する
type NotifierSpy struct {
	mu   sync.Mutex
	sent []sentEvent
}

func (n *NotifierSpy) Notify(_ context.Context, userID int64, ev notify.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentEvent{UserID: userID, Event: ev})
}

func (n *NotifierSpy) Sent() []sentEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentEvent(nil), n.sent...)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fixedID struct{ id string }

func (g fixedID) NewID() string { return g.id }
