package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"foodapp/internal/domain/model"
	repo "foodapp/internal/repository"
)

type CategoryUsecase struct {
	tx         repo.TransactionManager
	categories repo.CategoryRepository
}

// DI
func NewCategoryUsecase(tx repo.TransactionManager, categories repo.CategoryRepository) *CategoryUsecase {
	return &CategoryUsecase{tx: tx, categories: categories}
}

type CreateCategoryInput struct {
	Name string `json:"name" validate:"required,max=100"`
}

func (u *CategoryUsecase) List(ctx context.Context, callerID, vendorID int64) ([]model.Category, error) {
	if err := checkVendorOwner(callerID, vendorID, "Not authorized to view these categories"); err != nil {
		return []model.Category{}, err
	}
	cs, err := u.categories.ListByVendorID(ctx, vendorID)
	if err != nil {
		return []model.Category{}, persistenceError(err)
	}
	return cs, nil
}

// 名前は小文字にそろえる。同じベンダーに同名があれば400
func (u *CategoryUsecase) Create(ctx context.Context, callerID, vendorID int64, in CreateCategoryInput) (model.Category, error) {
	if err := checkVendorOwner(callerID, vendorID, "Not authorized to add categories for this vendor"); err != nil {
		return model.Category{}, err
	}
	in.Name = strings.ToLower(strings.TrimSpace(in.Name))
	if err := inputValidator.StructCtx(ctx, in); err != nil {
		if fe, ok := firstFieldError(err); ok && fe.Tag() == "max" {
			return model.Category{}, NewHTTPError(http.StatusBadRequest, "name must be at most 100 characters")
		}
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "name required")
	}
	name := in.Name

	_, err := u.categories.FindByVendorAndName(ctx, vendorID, name)
	if err == nil {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "Category already exists")
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return model.Category{}, persistenceError(err)
	}

	c, err := u.categories.Create(ctx, model.Category{VendorID: vendorID, Name: name})
	if errors.Is(err, repo.ErrDuplicate) {
		//確認後に同時作成された
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "Category already exists")
	}
	if err != nil {
		return model.Category{}, persistenceError(err)
	}
	return c, nil
}

// カテゴリと、その中のメニューをまとめて消す
func (u *CategoryUsecase) Delete(ctx context.Context, callerID, vendorID, categoryID int64) error {
	if err := checkVendorOwner(callerID, vendorID, "Not authorized to delete this category"); err != nil {
		return err
	}
	if categoryID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid category id")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		c, err := r.Categories().FindByID(ctx, categoryID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "Category not found")
		}
		if err != nil {
			return persistenceError(err)
		}
		if c.VendorID != vendorID {
			return NewHTTPError(http.StatusForbidden, "Not authorized to delete this category")
		}

		if err := r.MenuItems().SoftDeleteByCategory(ctx, vendorID, c.Name); err != nil {
			return persistenceError(err)
		}
		if err := r.Categories().Delete(ctx, c.ID); err != nil {
			return persistenceError(err)
		}
		return nil
	})
	return asUsecaseError(err)
}
