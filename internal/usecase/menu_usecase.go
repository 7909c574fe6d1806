package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"foodapp/internal/domain/model"
	"foodapp/internal/infra/storage"
	repo "foodapp/internal/repository"

	"github.com/shopspring/decimal"
)

// ImageStore は画像の保存先の約束
type ImageStore interface {
	Save(ctx context.Context, prefix string, filename string, size int64, r io.Reader) (string, error)
	Delete(ctx context.Context, stored string) error
}

// ImageUpload はhandlerから渡すアップロードファイル
type ImageUpload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

type MenuUsecase struct {
	menuItems repo.MenuItemRepository
	images    ImageStore
	log       *slog.Logger
}

// DI
func NewMenuUsecase(menuItems repo.MenuItemRepository, images ImageStore, log *slog.Logger) *MenuUsecase {
	if log == nil {
		log = slog.Default()
	}
	return &MenuUsecase{menuItems: menuItems, images: images, log: log}
}

// 作成の入力。multipartのフォーム値なので文字列で受ける
type MenuItemInput struct {
	Name        string `validate:"required,max=255"`
	Description string
	Price       string `validate:"required"`
	Category    string `validate:"required,max=100"`
	Type        string `validate:"omitempty,oneof=Veg Non-Veg"`
	Ingredients string
	Available   *bool
	Image       *ImageUpload
}

// 部分更新。nil は変更しない
type MenuItemPatch struct {
	Name        *string `validate:"omitnil,required,max=255"`
	Description *string
	Price       *string
	Category    *string `validate:"omitnil,required,max=100"`
	Type        *string `validate:"omitnil,oneof=Veg Non-Veg"`
	Ingredients *string
	Available   *bool
	Image       *ImageUpload
}

// 公開メニュー
func (u *MenuUsecase) List(ctx context.Context, vendorID int64) ([]model.MenuItem, error) {
	if vendorID <= 0 {
		return []model.MenuItem{}, NewHTTPError(http.StatusBadRequest, "invalid vendor id")
	}
	items, err := u.menuItems.ListByVendorID(ctx, vendorID)
	if err != nil {
		return []model.MenuItem{}, persistenceError(err)
	}
	return items, nil
}

func (u *MenuUsecase) Create(ctx context.Context, callerID, vendorID int64, in MenuItemInput) (model.MenuItem, error) {
	if err := checkVendorOwner(callerID, vendorID, "Not authorized to create menu items for this vendor"); err != nil {
		return model.MenuItem{}, err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Price = strings.TrimSpace(in.Price)
	in.Category = strings.TrimSpace(in.Category)
	in.Type = strings.TrimSpace(in.Type)
	if err := inputValidator.StructCtx(ctx, in); err != nil {
		if fe, ok := firstFieldError(err); ok && fe.Tag() == "required" {
			return model.MenuItem{}, NewHTTPError(http.StatusBadRequest, "Please provide all required fields: name, price, and category")
		}
		return model.MenuItem{}, menuInputError(err)
	}
	name, category := in.Name, in.Category
	price, err := parsePrice(in.Price)
	if err != nil {
		return model.MenuItem{}, err
	}
	itemType, err := parseMenuItemType(in.Type)
	if err != nil {
		return model.MenuItem{}, err
	}

	item := model.MenuItem{
		VendorID:    vendorID,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Price:       price,
		Available:   true,
		Category:    category,
		Type:        itemType,
		Ingredients: strings.TrimSpace(in.Ingredients),
	}
	if in.Available != nil {
		item.Available = *in.Available
	}

	if in.Image != nil {
		stored, err := u.saveImage(ctx, in.Image)
		if err != nil {
			return model.MenuItem{}, err
		}
		item.Image = &stored
	}

	created, err := u.menuItems.Create(ctx, item)
	if err != nil {
		if item.Image != nil {
			_ = u.images.Delete(ctx, *item.Image)
		}
		return model.MenuItem{}, persistenceError(err)
	}
	return created, nil
}

func (u *MenuUsecase) Update(ctx context.Context, callerID, vendorID, itemID int64, in MenuItemPatch) (model.MenuItem, error) {
	if err := checkVendorOwner(callerID, vendorID, "Not authorized to update this menu item"); err != nil {
		return model.MenuItem{}, err
	}

	in.Name, in.Category, in.Type = trimPtr(in.Name), trimPtr(in.Category), trimPtr(in.Type)
	if err := inputValidator.StructCtx(ctx, in); err != nil {
		return model.MenuItem{}, menuInputError(err)
	}

	item, err := u.ownedItem(ctx, vendorID, itemID)
	if err != nil {
		return model.MenuItem{}, err
	}

	if in.Name != nil {
		item.Name = *in.Name
	}
	if in.Description != nil {
		item.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		p, err := parsePrice(*in.Price)
		if err != nil {
			return model.MenuItem{}, err
		}
		item.Price = p
	}
	if in.Category != nil {
		item.Category = *in.Category
	}
	if in.Type != nil {
		t, err := parseMenuItemType(*in.Type)
		if err != nil {
			return model.MenuItem{}, err
		}
		item.Type = t
	}
	if in.Ingredients != nil {
		item.Ingredients = strings.TrimSpace(*in.Ingredients)
	}
	if in.Available != nil {
		item.Available = *in.Available
	}

	oldImage := item.Image
	if in.Image != nil {
		stored, err := u.saveImage(ctx, in.Image)
		if err != nil {
			return model.MenuItem{}, err
		}
		item.Image = &stored
	}

	if err := u.menuItems.Update(ctx, item); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.MenuItem{}, NewHTTPError(http.StatusNotFound, "Menu item not found")
		}
		return model.MenuItem{}, persistenceError(err)
	}

	//差し替えた古い画像は後始末（失敗してもレスポンスには影響させない）
	if in.Image != nil && oldImage != nil {
		if err := u.images.Delete(ctx, *oldImage); err != nil {
			u.log.WarnContext(ctx, "menu: old image cleanup failed", "image", *oldImage, "error", err)
		}
	}
	return item, nil
}

func (u *MenuUsecase) Delete(ctx context.Context, callerID, vendorID, itemID int64) error {
	if err := checkVendorOwner(callerID, vendorID, "Not authorized to delete this menu item"); err != nil {
		return err
	}

	err := u.menuItems.SoftDelete(ctx, vendorID, itemID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "Menu item not found")
	}
	if err != nil {
		return persistenceError(err)
	}
	return nil
}

func (u *MenuUsecase) ownedItem(ctx context.Context, vendorID, itemID int64) (model.MenuItem, error) {
	if itemID <= 0 {
		return model.MenuItem{}, NewHTTPError(http.StatusBadRequest, "invalid menu item id")
	}
	item, err := u.menuItems.FindByID(ctx, itemID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.MenuItem{}, NewHTTPError(http.StatusNotFound, "Menu item not found")
	}
	if err != nil {
		return model.MenuItem{}, persistenceError(err)
	}
	if item.VendorID != vendorID {
		return model.MenuItem{}, NewHTTPError(http.StatusForbidden, "Not authorized to update this menu item")
	}
	return item, nil
}

func (u *MenuUsecase) saveImage(ctx context.Context, img *ImageUpload) (string, error) {
	stored, err := u.images.Save(ctx, "menu", img.Filename, img.Size, img.Content)
	switch {
	case errors.Is(err, storage.ErrUnsupportedImage):
		return "", NewHTTPError(http.StatusBadRequest, "Only image files are allowed!")
	case errors.Is(err, storage.ErrImageTooLarge):
		return "", NewHTTPError(http.StatusBadRequest, "Image must be 5MB or smaller")
	case err != nil:
		return "", persistenceError(err)
	}
	return stored, nil
}

// ルートのvendorIdとログイン中のユーザーが一致するか
func checkVendorOwner(callerID, vendorID int64, message string) error {
	if callerID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if vendorID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid vendor id")
	}
	if callerID != vendorID {
		return NewHTTPError(http.StatusForbidden, message)
	}
	return nil
}

// menuInputError は validate タグの失敗を400にする
func menuInputError(err error) error {
	fe, ok := firstFieldError(err)
	if !ok {
		return NewHTTPError(http.StatusBadRequest, "invalid menu item")
	}
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return NewHTTPError(http.StatusBadRequest, field+" must not be empty")
	case "max":
		return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
	case "oneof":
		return NewHTTPError(http.StatusBadRequest, "type must be Veg or Non-Veg")
	}
	return NewHTTPError(http.StatusBadRequest, "invalid "+field)
}

func parsePrice(s string) (decimal.Decimal, error) {
	p, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, NewHTTPError(http.StatusBadRequest, "Invalid price format. Please enter a number.")
	}
	if p.IsNegative() {
		return decimal.Decimal{}, NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	return p.Round(2), nil
}

func parseMenuItemType(s string) (model.MenuItemType, error) {
	switch strings.TrimSpace(s) {
	case "":
		return model.MenuItemVeg, nil
	case string(model.MenuItemVeg):
		return model.MenuItemVeg, nil
	case string(model.MenuItemNonVeg):
		return model.MenuItemNonVeg, nil
	}
	return "", NewHTTPError(http.StatusBadRequest, "type must be Veg or Non-Veg")
}
