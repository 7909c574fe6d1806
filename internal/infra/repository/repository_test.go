package repository

import (
	"context"
	"testing"
	"time"

	"foodapp/internal/domain/model"
	"foodapp/internal/infra/db/dbtest"
	repo "foodapp/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// =====================
// fixtures
// =====================

func seedUser(t *testing.T, gdb *gorm.DB, email string, role model.Role, balance string) model.User {
	t.Helper()
	u := model.User{
		Username:      "user-" + email,
		Email:         email,
		PhoneNumber:   "090-0000-0000",
		PasswordHash:  "x",
		Role:          role,
		WalletBalance: decimal.RequireFromString(balance),
	}
	if role == model.RoleVendor {
		u.VendorDetails.RestaurantName = "Pizza Place"
	}
	require.NoError(t, NewUserGormRepository(gdb).Create(context.Background(), &u))
	return u
}

func seedMenuItem(t *testing.T, gdb *gorm.DB, vendorID int64, name, price string) model.MenuItem {
	t.Helper()
	m, err := NewMenuItemGormRepository(gdb).Create(context.Background(), model.MenuItem{
		VendorID:  vendorID,
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Available: true,
		Category:  "pizza",
		Type:      model.MenuItemVeg,
	})
	require.NoError(t, err)
	return m
}

func newOrder(userID, vendorID int64, item model.MenuItem, qty int64, status model.OrderStatus, createdAt time.Time) *model.Order {
	return &model.Order{
		ID:            uuid.NewString(),
		UserID:        userID,
		VendorID:      vendorID,
		TotalAmount:   item.Price.Mul(decimal.NewFromInt(qty)),
		PaymentMethod: model.PaymentMethodWallet,
		PaymentStatus: model.PaymentStatusPaid,
		OrderStatus:   status,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
		Items: []model.OrderItem{
			{MenuItemID: item.ID, Name: item.Name, Quantity: qty, Price: item.Price},
		},
	}
}

// =====================
// users / wallet
// =====================

func TestUserGormRepository_DuplicateEmail(t *testing.T) {
	gdb := dbtest.Open(t)
	seedUser(t, gdb, "a@example.com", model.RoleUser, "0")

	dup := model.User{Username: "b", Email: "a@example.com", PhoneNumber: "1", PasswordHash: "x", Role: model.RoleUser}
	err := NewUserGormRepository(gdb).Create(context.Background(), &dup)
	assert.ErrorIs(t, err, repo.ErrDuplicate)
}

func TestUserGormRepository_FindByID_NotFound(t *testing.T) {
	gdb := dbtest.Open(t)

	u, err := NewUserGormRepository(gdb).FindByID(context.Background(), 999)
	assert.Nil(t, u)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestUserGormRepository_IncrementTokenVersion(t *testing.T) {
	gdb := dbtest.Open(t)
	ctx := context.Background()
	u := seedUser(t, gdb, "tv@example.com", model.RoleUser, "0")
	users := NewUserGormRepository(gdb)

	require.NoError(t, users.IncrementTokenVersion(ctx, u.ID))
	got, err := users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TokenVersion)

	assert.ErrorIs(t, users.IncrementTokenVersion(ctx, 999), repo.ErrNotFound)
}

func TestUserGormRepository_VendorsOnly(t *testing.T) {
	gdb := dbtest.Open(t)
	ctx := context.Background()
	seedUser(t, gdb, "u@example.com", model.RoleUser, "0")
	v := seedUser(t, gdb, "v@example.com", model.RoleVendor, "0")
	users := NewUserGormRepository(gdb)

	vendors, err := users.ListVendors(ctx)
	require.NoError(t, err)
	require.Len(t, vendors, 1)
	assert.Equal(t, v.ID, vendors[0].ID)

	_, err = users.FindVendorByID(ctx, v.ID+100)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestWalletGormRepository_DebitIfEnough(t *testing.T) {
	gdb := dbtest.Open(t)
	ctx := context.Background()
	u := seedUser(t, gdb, "w@example.com", model.RoleUser, "500")
	wallets := NewWalletGormRepository(gdb)

	ok, err := wallets.DebitIfEnough(ctx, u.ID, decimal.NewFromInt(300))
	require.NoError(t, err)
	assert.True(t, ok)

	//残り200なので300は引けない
	ok, err = wallets.DebitIfEnough(ctx, u.ID, decimal.NewFromInt(300))
	require.NoError(t, err)
	assert.False(t, ok)

	bal, err := wallets.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.NewFromInt(200)), "balance=%s", bal)

	require.NoError(t, wallets.Credit(ctx, u.ID, decimal.NewFromInt(300)))
	bal, err = wallets.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.NewFromInt(500)), "balance=%s", bal)
}

func TestWalletGormRepository_UpdateDoesNotTouchBalance(t *testing.T) {
	gdb := dbtest.Open(t)
	ctx := context.Background()
	u := seedUser(t, gdb, "keep@example.com", model.RoleUser, "500")

	//古い残高のままプロフィールを保存しても残高は変わらない
	u.WalletBalance = decimal.Zero
	u.PhoneNumber = "080-1111-2222"
	require.NoError(t, NewUserGormRepository(gdb).Update(ctx, &u))

	bal, err := NewWalletGormRepository(gdb).Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.NewFromInt(500)), "balance=%s", bal)
}

// =====================
// orders
// =====================

func TestOrderGormRepository_CreateAndFind(t *testing.T) {
	gdb := dbtest.Open(t)
	ctx := context.Background()
	u := seedUser(t, gdb, "o@example.com", model.RoleUser, "0")
	v := seedUser(t, gdb, "ov@example.com", model.RoleVendor, "0")
	pizza := seedMenuItem(t, gdb, v.ID, "Pizza", "300")
	orders := NewOrderGormRepository(gdb)

	o := newOrder(u.ID, v.ID, pizza, 2, model.OrderStatusInProgress, time.Now())
	require.NoError(t, orders.Create(ctx, o))

	got, err := orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusInProgress, got.OrderStatus)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Pizza", got.Items[0].Name)
	require.NotNil(t, got.User)
	require.NotNil(t, got.Vendor)
	assert.Equal(t, "Pizza Place", got.Vendor.VendorDetails.RestaurantName)
	require.NotNil(t, got.Items[0].MenuItem)

	_, err = orders.FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestOrderGormRepository_ListActiveByUserID(t *testing.T) {
	gdb := dbtest.Open(t)
	ctx := context.Background()
	u := seedUser(t, gdb, "la@example.com", model.RoleUser, "0")
	other := seedUser(t, gdb, "lb@example.com", model.RoleUser, "0")
	v := seedUser(t, gdb, "lv@example.com", model.RoleVendor, "0")
	pizza := seedMenuItem(t, gdb, v.ID, "Pizza", "300")
	orders := NewOrderGormRepository(gdb)

	base := time.Now().Add(-time.Hour)
	older := newOrder(u.ID, v.ID, pizza, 1, model.OrderStatusInProgress, base)
	newer := newOrder(u.ID, v.ID, pizza, 1, model.OrderStatusOutForDelivery, base.Add(10*time.Minute))
	delivered := newOrder(u.ID, v.ID, pizza, 1, model.OrderStatusDelivered, base.Add(20*time.Minute))
	cancelled := newOrder(u.ID, v.ID, pizza, 1, model.OrderStatusCancelled, base.Add(30*time.Minute))
	othersOrder := newOrder(other.ID, v.ID, pizza, 1, model.OrderStatusInProgress, base)
	for _, o := range []*model.Order{older, newer, delivered, cancelled, othersOrder} {
		require.NoError(t, orders.Create(ctx, o))
	}

	got, err := orders.ListActiveByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer.ID, got[0].ID)
	assert.Equal(t, older.ID, got[1].ID)

	empty, err := orders.ListActiveByUserID(ctx, 999)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Len(t, empty, 0)
}

func TestOrderGormRepository_UpdateStatusIsConditional(t *testing.T) {
	gdb := dbtest.Open(t)
	ctx := context.Background()
	u := seedUser(t, gdb, "us@example.com", model.RoleUser, "0")
	v := seedUser(t, gdb, "vs@example.com", model.RoleVendor, "0")
	pizza := seedMenuItem(t, gdb, v.ID, "Pizza", "300")
	orders := NewOrderGormRepository(gdb)

	o := newOrder(u.ID, v.ID, pizza, 1, model.OrderStatusInProgress, time.Now())
	require.NoError(t, orders.Create(ctx, o))

	ok, err := orders.UpdateStatus(ctx, o.ID, model.OrderStatusInProgress, model.OrderStatusOutForDelivery)
	require.NoError(t, err)
	assert.True(t, ok)

	//同じfromでもう一度は通らない
	ok, err = orders.UpdateStatus(ctx, o.ID, model.OrderStatusInProgress, model.OrderStatusCancelled)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusOutForDelivery, got.OrderStatus)
}

func TestOrderGormRepository_IdempotencyKey(t *testing.T) {
	gdb := dbtest.Open(t)
	ctx := context.Background()
	u := seedUser(t, gdb, "ik@example.com", model.RoleUser, "0")
	v := seedUser(t, gdb, "ikv@example.com", model.RoleVendor, "0")
	pizza := seedMenuItem(t, gdb, v.ID, "Pizza", "300")
	orders := NewOrderGormRepository(gdb)

	key := "k-1"
	first := newOrder(u.ID, v.ID, pizza, 1, model.OrderStatusInProgress, time.Now())
	first.IdempotencyKey = &key
	require.NoError(t, orders.Create(ctx, first))

	second := newOrder(u.ID, v.ID, pizza, 1, model.OrderStatusInProgress, time.Now())
	second.IdempotencyKey = &key
	assert.ErrorIs(t, orders.Create(ctx, second), repo.ErrDuplicate)

	got, found, err := orders.FindByIdempotencyKey(ctx, u.ID, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, first.ID, got.ID)

	_, found, err = orders.FindByIdempotencyKey(ctx, u.ID, "other")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestOrderGormRepository_ListByVendorStatusFilter(t *testing.T) {
	gdb := dbtest.Open(t)
	ctx := context.Background()
	u := seedUser(t, gdb, "vf@example.com", model.RoleUser, "0")
	v := seedUser(t, gdb, "vfv@example.com", model.RoleVendor, "0")
	pizza := seedMenuItem(t, gdb, v.ID, "Pizza", "300")
	orders := NewOrderGormRepository(gdb)

	require.NoError(t, orders.Create(ctx, newOrder(u.ID, v.ID, pizza, 1, model.OrderStatusInProgress, time.Now())))
	require.NoError(t, orders.Create(ctx, newOrder(u.ID, v.ID, pizza, 1, model.OrderStatusDelivered, time.Now())))

	all, err := orders.ListByVendor(ctx, repo.VendorOrderListFilter{VendorID: v.ID})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	st := model.OrderStatusDelivered
	delivered, err := orders.ListByVendor(ctx, repo.VendorOrderListFilter{VendorID: v.ID, Status: &st})
	require.NoError(t, err)
	require.Len(t, delivered, 1)
	assert.Equal(t, model.OrderStatusDelivered, delivered[0].OrderStatus)
}

func TestOrderGormRepository_ListByVendorPages(t *testing.T) {
	gdb := dbtest.Open(t)
	ctx := context.Background()
	u := seedUser(t, gdb, "pg@example.com", model.RoleUser, "0")
	v := seedUser(t, gdb, "pgv@example.com", model.RoleVendor, "0")
	pizza := seedMenuItem(t, gdb, v.ID, "Pizza", "300")
	orders := NewOrderGormRepository(gdb)

	base := time.Now().Add(-time.Hour)
	var ids []string
	for i := 0; i < 5; i++ {
		o := newOrder(u.ID, v.ID, pizza, 1, model.OrderStatusInProgress, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, orders.Create(ctx, o))
		ids = append(ids, o.ID)
	}

	page, err := orders.ListByVendor(ctx, repo.VendorOrderListFilter{VendorID: v.ID, Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	//新しい順で1件飛ばした次の2件
	assert.Equal(t, ids[3], page[0].ID)
	assert.Equal(t, ids[2], page[1].ID)

	tail, err := orders.ListByVendor(ctx, repo.VendorOrderListFilter{VendorID: v.ID, Limit: 2, Offset: 4})
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, ids[0], tail[0].ID)

	//上限超えは200件扱い（50件に落とさない）
	all, err := orders.ListByVendor(ctx, repo.VendorOrderListFilter{VendorID: v.ID, Limit: 1000})
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

// =====================
// menu / categories / reviews
// =====================

func TestMenuItemGormRepository_SoftDelete(t *testing.T) {
	gdb := dbtest.Open(t)
	ctx := context.Background()
	v := seedUser(t, gdb, "mv@example.com", model.RoleVendor, "0")
	other := seedUser(t, gdb, "mo@example.com", model.RoleVendor, "0")
	pizza := seedMenuItem(t, gdb, v.ID, "Pizza", "300")
	items := NewMenuItemGormRepository(gdb)

	//他店からは消せない
	assert.ErrorIs(t, items.SoftDelete(ctx, other.ID, pizza.ID), repo.ErrNotFound)

	require.NoError(t, items.SoftDelete(ctx, v.ID, pizza.ID))
	_, err := items.FindByID(ctx, pizza.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	list, err := items.ListByVendorID(ctx, v.ID)
	require.NoError(t, err)
	assert.Len(t, list, 0)
}

func TestMenuItemGormRepository_CreateKeepsUnavailable(t *testing.T) {
	gdb := dbtest.Open(t)
	ctx := context.Background()
	v := seedUser(t, gdb, "mu@example.com", model.RoleVendor, "0")
	items := NewMenuItemGormRepository(gdb)

	//false がDBのデフォルトで上書きされない
	created, err := items.Create(ctx, model.MenuItem{
		VendorID: v.ID, Name: "Calzone", Price: decimal.NewFromInt(300),
		Available: false, Category: "mains", Type: model.MenuItemVeg,
	})
	require.NoError(t, err)

	got, err := items.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, got.Available)
}

func TestCategoryGormRepository_UniquePerVendor(t *testing.T) {
	gdb := dbtest.Open(t)
	ctx := context.Background()
	v := seedUser(t, gdb, "cv@example.com", model.RoleVendor, "0")
	w := seedUser(t, gdb, "cw@example.com", model.RoleVendor, "0")
	cats := NewCategoryGormRepository(gdb)

	_, err := cats.Create(ctx, model.Category{VendorID: v.ID, Name: "pizza"})
	require.NoError(t, err)
	_, err = cats.Create(ctx, model.Category{VendorID: v.ID, Name: "pizza"})
	assert.ErrorIs(t, err, repo.ErrDuplicate)

	//別ベンダーなら同名OK
	_, err = cats.Create(ctx, model.Category{VendorID: w.ID, Name: "pizza"})
	assert.NoError(t, err)
}

func TestReviewGormRepository_Aggregate(t *testing.T) {
	gdb := dbtest.Open(t)
	ctx := context.Background()
	u := seedUser(t, gdb, "ru@example.com", model.RoleUser, "0")
	v := seedUser(t, gdb, "rv@example.com", model.RoleVendor, "0")
	reviews := NewReviewGormRepository(gdb)

	avg, n, err := reviews.Aggregate(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.Equal(t, 0.0, avg)

	for _, r := range []int{5, 4, 3} {
		_, err := reviews.Create(ctx, model.Review{UserID: u.ID, VendorID: v.ID, Name: u.Username, Rating: r, Comment: "ok"})
		require.NoError(t, err)
	}

	avg, n, err = reviews.Aggregate(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.InDelta(t, 4.0, avg, 0.0001)
}

// =====================
// tx
// =====================

func TestTxManagerGorm_RollbackOnError(t *testing.T) {
	gdb := dbtest.Open(t)
	ctx := context.Background()
	u := seedUser(t, gdb, "tx@example.com", model.RoleUser, "500")
	tm := NewTxManagerGorm(gdb)

	err := tm.WithinTx(ctx, func(r repo.TxRepos) error {
		ok, err := r.Wallets().DebitIfEnough(ctx, u.ID, decimal.NewFromInt(300))
		require.NoError(t, err)
		require.True(t, ok)
		return repo.ErrNotFound
	})
	assert.ErrorIs(t, err, repo.ErrNotFound)

	bal, err := NewWalletGormRepository(gdb).Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.NewFromInt(500)), "balance=%s", bal)
}
