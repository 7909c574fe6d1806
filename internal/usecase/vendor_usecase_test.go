package usecase_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"foodapp/internal/domain/model"
	"foodapp/internal/infra/db/dbtest"
	"foodapp/internal/infra/repository"
	"foodapp/internal/infra/storage"
	repo "foodapp/internal/repository"
	"foodapp/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedVendorAndUser(t *testing.T, gormDB *gorm.DB) (model.User, model.User) {
	t.Helper()
	users := repository.NewUserGormRepository(gormDB)
	vendor := model.User{Username: "v", Email: "v@example.com", PhoneNumber: "1", PasswordHash: "x", Role: model.RoleVendor}
	require.NoError(t, users.Create(context.Background(), &vendor))
	user := model.User{Username: "alice", Email: "a@example.com", PhoneNumber: "2", PasswordHash: "x", Role: model.RoleUser}
	require.NoError(t, users.Create(context.Background(), &user))
	return vendor, user
}

// =====================
// Category
// =====================

func TestCategoryCreate_LowercasesAndRejectsDuplicate(t *testing.T) {
	categories := new(CategoryRepoMock)
	uc := usecase.NewCategoryUsecase(&TxManagerMock{}, categories)

	categories.On("FindByVendorAndName", mock.Anything, testVendorID, "desserts").Return(model.Category{}, repo.ErrNotFound).Once()
	categories.On("Create", mock.Anything, model.Category{VendorID: testVendorID, Name: "desserts"}).
		Return(model.Category{ID: 5, VendorID: testVendorID, Name: "desserts"}, nil).Once()

	c, err := uc.Create(context.Background(), testVendorID, testVendorID, usecase.CreateCategoryInput{Name: "  Desserts "})
	require.NoError(t, err)
	assert.Equal(t, "desserts", c.Name)

	categories.On("FindByVendorAndName", mock.Anything, testVendorID, "desserts").Return(model.Category{ID: 5}, nil).Once()
	_, err = uc.Create(context.Background(), testVendorID, testVendorID, usecase.CreateCategoryInput{Name: "DESSERTS"})
	he := assertHTTPError(t, err, http.StatusBadRequest, nil)
	assert.Equal(t, "Category already exists", he.Message)
	categories.AssertExpectations(t)
}

func TestCategoryCreate_OtherVendorForbidden(t *testing.T) {
	uc := usecase.NewCategoryUsecase(&TxManagerMock{}, new(CategoryRepoMock))

	_, err := uc.Create(context.Background(), 3, testVendorID, usecase.CreateCategoryInput{Name: "x"})

	assertHTTPError(t, err, http.StatusForbidden, nil)
}

func TestCategoryCreate_InputRules(t *testing.T) {
	uc := usecase.NewCategoryUsecase(&TxManagerMock{}, new(CategoryRepoMock))

	_, err := uc.Create(context.Background(), testVendorID, testVendorID, usecase.CreateCategoryInput{Name: "   "})
	he := assertHTTPError(t, err, http.StatusBadRequest, nil)
	assert.Equal(t, "name required", he.Message)

	_, err = uc.Create(context.Background(), testVendorID, testVendorID, usecase.CreateCategoryInput{Name: strings.Repeat("x", 101)})
	he = assertHTTPError(t, err, http.StatusBadRequest, nil)
	assert.Equal(t, "name must be at most 100 characters", he.Message)
}

func TestCategoryDelete_SoftDeletesItsMenuItems(t *testing.T) {
	gormDB := dbtest.Open(t)
	ctx := context.Background()
	vendor, _ := seedVendorAndUser(t, gormDB)

	categoryRepo := repository.NewCategoryGormRepository(gormDB)
	menuRepo := repository.NewMenuItemGormRepository(gormDB)
	uc := usecase.NewCategoryUsecase(repository.NewTxManagerGorm(gormDB), categoryRepo)

	c, err := uc.Create(ctx, vendor.ID, vendor.ID, usecase.CreateCategoryInput{Name: "Drinks"})
	require.NoError(t, err)
	_, err = menuRepo.Create(ctx, model.MenuItem{VendorID: vendor.ID, Name: "Cola", Price: decimal.NewFromInt(2), Category: "Drinks", Type: model.MenuItemVeg, Available: true})
	require.NoError(t, err)
	_, err = menuRepo.Create(ctx, model.MenuItem{VendorID: vendor.ID, Name: "Soup", Price: decimal.NewFromInt(5), Category: "starters", Type: model.MenuItemVeg, Available: true})
	require.NoError(t, err)

	require.NoError(t, uc.Delete(ctx, vendor.ID, vendor.ID, c.ID))

	items, err := menuRepo.ListByVendorID(ctx, vendor.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Soup", items[0].Name)

	err = uc.Delete(ctx, vendor.ID, vendor.ID, c.ID)
	assertHTTPError(t, err, http.StatusNotFound, nil)
}

// =====================
// Review
// =====================

func TestReviewCreate_UpdatesVendorRating(t *testing.T) {
	gormDB := dbtest.Open(t)
	ctx := context.Background()
	vendor, user := seedVendorAndUser(t, gormDB)

	uc := usecase.NewReviewUsecase(repository.NewTxManagerGorm(gormDB), repository.NewReviewGormRepository(gormDB))

	r, err := uc.Create(ctx, user.ID, vendor.ID, usecase.CreateReviewInput{Rating: 5, Comment: "great"})
	require.NoError(t, err)
	assert.Equal(t, "alice", r.Name)
	_, err = uc.Create(ctx, user.ID, vendor.ID, usecase.CreateReviewInput{Rating: 2, Comment: "cold"})
	require.NoError(t, err)

	got, err := repository.NewUserGormRepository(gormDB).FindVendorByID(ctx, vendor.ID)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, got.VendorDetails.Rating, 0.0001)
	assert.Equal(t, int64(2), got.VendorDetails.NumReviews)

	list, err := uc.List(ctx, vendor.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "cold", list[0].Comment)
}

func TestReviewCreate_Rejections(t *testing.T) {
	gormDB := dbtest.Open(t)
	ctx := context.Background()
	vendor, user := seedVendorAndUser(t, gormDB)
	uc := usecase.NewReviewUsecase(repository.NewTxManagerGorm(gormDB), repository.NewReviewGormRepository(gormDB))

	_, err := uc.Create(ctx, user.ID, vendor.ID, usecase.CreateReviewInput{Rating: 4})
	he := assertHTTPError(t, err, http.StatusBadRequest, nil)
	assert.Equal(t, "Rating and comment are required", he.Message)

	_, err = uc.Create(ctx, user.ID, vendor.ID, usecase.CreateReviewInput{Rating: 6, Comment: "x"})
	he = assertHTTPError(t, err, http.StatusBadRequest, nil)
	assert.Equal(t, "rating must be between 1 and 5", he.Message)

	_, err = uc.Create(ctx, user.ID, vendor.ID, usecase.CreateReviewInput{Rating: -1, Comment: "x"})
	he = assertHTTPError(t, err, http.StatusBadRequest, nil)
	assert.Equal(t, "rating must be between 1 and 5", he.Message)

	//空白だけのコメントは無いのと同じ
	_, err = uc.Create(ctx, user.ID, vendor.ID, usecase.CreateReviewInput{Rating: 3, Comment: "   "})
	he = assertHTTPError(t, err, http.StatusBadRequest, nil)
	assert.Equal(t, "Rating and comment are required", he.Message)

	_, err = uc.Create(ctx, user.ID, vendor.ID, usecase.CreateReviewInput{Rating: 3, Comment: strings.Repeat("a", 1001)})
	he = assertHTTPError(t, err, http.StatusBadRequest, nil)
	assert.Equal(t, "comment must be at most 1000 characters", he.Message)

	//ベンダーではないユーザー宛て
	_, err = uc.Create(ctx, user.ID, user.ID, usecase.CreateReviewInput{Rating: 4, Comment: "x"})
	assertHTTPError(t, err, http.StatusNotFound, nil)
}

// =====================
// Admin
// =====================

func TestAdminCreditWallet_WritesAuditLog(t *testing.T) {
	gormDB := dbtest.Open(t)
	ctx := context.Background()
	_, user := seedVendorAndUser(t, gormDB)
	uc := usecase.NewAdminUsecase(repository.NewTxManagerGorm(gormDB), fixedClock{t: testNow})

	out, err := uc.CreditWallet(ctx, 99, user.ID, usecase.CreditWalletInput{Amount: decimal.RequireFromString("150.5")})
	require.NoError(t, err)
	assert.True(t, out.WalletBalance.Equal(decimal.RequireFromString("150.5")))

	var logs []model.AuditLog
	require.NoError(t, gormDB.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, model.AuditActionWalletCredit, logs[0].Action)
	assert.Equal(t, `{"wallet_balance":"150.50"}`, logs[0].AfterJSON)

	_, err = uc.CreditWallet(ctx, 99, user.ID, usecase.CreditWalletInput{Amount: decimal.NewFromInt(-1)})
	assertHTTPError(t, err, http.StatusBadRequest, nil)
	_, err = uc.CreditWallet(ctx, 99, 12345, usecase.CreditWalletInput{Amount: decimal.NewFromInt(1)})
	assertHTTPError(t, err, http.StatusNotFound, nil)
}

func TestAdminForceLogout_BumpsTokenVersion(t *testing.T) {
	gormDB := dbtest.Open(t)
	ctx := context.Background()
	_, user := seedVendorAndUser(t, gormDB)
	uc := usecase.NewAdminUsecase(repository.NewTxManagerGorm(gormDB), fixedClock{t: testNow})

	out, err := uc.ForceLogout(ctx, 99, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, out.UserID)
	assert.Equal(t, 1, out.NewTokenVersion)

	_, err = uc.ForceLogout(ctx, 99, 12345)
	assertHTTPError(t, err, http.StatusNotFound, nil)
}

// =====================
// Menu
// =====================

type imageStoreStub struct {
	saved   []string
	deleted []string
	err     error
}

func (s *imageStoreStub) Save(_ context.Context, prefix, filename string, _ int64, r io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	_, _ = io.Copy(io.Discard, r)
	p := "/uploads/" + prefix + "-" + filename
	s.saved = append(s.saved, p)
	return p, nil
}

func (s *imageStoreStub) Delete(_ context.Context, stored string) error {
	s.deleted = append(s.deleted, stored)
	return nil
}

func TestMenuCreate_ValidatesAndStoresImage(t *testing.T) {
	menu := new(MenuItemRepoMock)
	images := &imageStoreStub{}
	uc := usecase.NewMenuUsecase(menu, images, nil)

	menu.On("Create", mock.Anything, mock.MatchedBy(func(it model.MenuItem) bool {
		return it.Name == "Pizza" && it.Price.Equal(decimal.RequireFromString("9.99")) &&
			it.Type == model.MenuItemNonVeg && it.Image != nil && *it.Image == "/uploads/menu-p.png"
	})).Return(model.MenuItem{ID: 1, Name: "Pizza"}, nil).Once()

	_, err := uc.Create(context.Background(), testVendorID, testVendorID, usecase.MenuItemInput{
		Name:     "Pizza",
		Price:    "9.99",
		Category: "mains",
		Type:     "Non-Veg",
		Image:    &usecase.ImageUpload{Filename: "p.png", Size: 3, Content: strings.NewReader("png")},
	})
	require.NoError(t, err)
	menu.AssertExpectations(t)

	_, err = uc.Create(context.Background(), testVendorID, testVendorID, usecase.MenuItemInput{Name: "Pizza", Price: "abc", Category: "mains"})
	he := assertHTTPError(t, err, http.StatusBadRequest, nil)
	assert.Equal(t, "Invalid price format. Please enter a number.", he.Message)

	_, err = uc.Create(context.Background(), testVendorID, testVendorID, usecase.MenuItemInput{Name: "Pizza"})
	assertHTTPError(t, err, http.StatusBadRequest, nil)
}

func TestMenuCreate_RejectsNonImage(t *testing.T) {
	uc := usecase.NewMenuUsecase(new(MenuItemRepoMock), &imageStoreStub{err: storage.ErrUnsupportedImage}, nil)

	_, err := uc.Create(context.Background(), testVendorID, testVendorID, usecase.MenuItemInput{
		Name: "Pizza", Price: "1", Category: "mains",
		Image: &usecase.ImageUpload{Filename: "x.pdf", Size: 1, Content: strings.NewReader("x")},
	})

	he := assertHTTPError(t, err, http.StatusBadRequest, nil)
	assert.Equal(t, "Only image files are allowed!", he.Message)
}

func TestMenuUpdate_ReplacesImageAndCleansUpOld(t *testing.T) {
	menu := new(MenuItemRepoMock)
	images := &imageStoreStub{}
	uc := usecase.NewMenuUsecase(menu, images, nil)

	old := "/uploads/menu-old.png"
	menu.On("FindByID", mock.Anything, pizzaID).Return(model.MenuItem{ID: pizzaID, VendorID: testVendorID, Name: "Pizza", Image: &old}, nil)
	menu.On("Update", mock.Anything, mock.AnythingOfType("model.MenuItem")).Return(nil).Once()

	name := "Margherita"
	out, err := uc.Update(context.Background(), testVendorID, testVendorID, pizzaID, usecase.MenuItemPatch{
		Name:  &name,
		Image: &usecase.ImageUpload{Filename: "new.png", Size: 1, Content: strings.NewReader("x")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Margherita", out.Name)
	assert.Equal(t, []string{old}, images.deleted)

	_, err = uc.Update(context.Background(), 3, 3, pizzaID, usecase.MenuItemPatch{Name: &name})
	assertHTTPError(t, err, http.StatusForbidden, nil)
}

func TestMenuInputRules(t *testing.T) {
	menu := new(MenuItemRepoMock)
	uc := usecase.NewMenuUsecase(menu, &imageStoreStub{}, nil)
	ctx := context.Background()
	empty, longName, badType := "  ", strings.Repeat("n", 256), "Vegan"

	cases := []struct {
		name    string
		run     func() error
		message string
	}{
		{
			name: "create without category",
			run: func() error {
				_, err := uc.Create(ctx, testVendorID, testVendorID, usecase.MenuItemInput{Name: "Pizza", Price: "1", Category: " "})
				return err
			},
			message: "Please provide all required fields: name, price, and category",
		},
		{
			name: "create with unknown type",
			run: func() error {
				_, err := uc.Create(ctx, testVendorID, testVendorID, usecase.MenuItemInput{Name: "Pizza", Price: "1", Category: "mains", Type: badType})
				return err
			},
			message: "type must be Veg or Non-Veg",
		},
		{
			name: "create with long name",
			run: func() error {
				_, err := uc.Create(ctx, testVendorID, testVendorID, usecase.MenuItemInput{Name: longName, Price: "1", Category: "mains"})
				return err
			},
			message: "name must be at most 255 characters",
		},
		{
			name: "update to blank name",
			run: func() error {
				_, err := uc.Update(ctx, testVendorID, testVendorID, pizzaID, usecase.MenuItemPatch{Name: &empty})
				return err
			},
			message: "name must not be empty",
		},
		{
			name: "update to blank category",
			run: func() error {
				_, err := uc.Update(ctx, testVendorID, testVendorID, pizzaID, usecase.MenuItemPatch{Category: &empty})
				return err
			},
			message: "category must not be empty",
		},
		{
			name: "update to unknown type",
			run: func() error {
				_, err := uc.Update(ctx, testVendorID, testVendorID, pizzaID, usecase.MenuItemPatch{Type: &badType})
				return err
			},
			message: "type must be Veg or Non-Veg",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			he := assertHTTPError(t, tc.run(), http.StatusBadRequest, nil)
			assert.Equal(t, tc.message, he.Message)
		})
	}
	//入力で落ちたらリポジトリは触らない
	menu.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	menu.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestMenuDelete_NotFound(t *testing.T) {
	menu := new(MenuItemRepoMock)
	uc := usecase.NewMenuUsecase(menu, &imageStoreStub{}, nil)
	menu.On("SoftDelete", mock.Anything, testVendorID, int64(404)).Return(repo.ErrNotFound)
	menu.On("SoftDelete", mock.Anything, testVendorID, int64(500)).Return(errors.New("boom"))

	err := uc.Delete(context.Background(), testVendorID, testVendorID, 404)
	assertHTTPError(t, err, http.StatusNotFound, nil)

	err = uc.Delete(context.Background(), testVendorID, testVendorID, 500)
	assertHTTPError(t, err, http.StatusInternalServerError, usecase.ErrPersistence)
}
