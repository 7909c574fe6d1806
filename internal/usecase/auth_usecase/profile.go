package auth

import (
	"context"
	"errors"

	"foodapp/internal/domain/model"
	"foodapp/internal/repository"
)

var ErrVendorNotFound = errors.New("vendor not found")

// ProfileUsecase はプロフィールとベンダー一覧の読み取り
type ProfileUsecase struct {
	userRepo repository.UserRepository
}

func NewProfileUsecase(userRepo repository.UserRepository) *ProfileUsecase {
	return &ProfileUsecase{userRepo: userRepo}
}

func (u *ProfileUsecase) Me(ctx context.Context, userID int64) (model.User, error) {
	user, err := u.userRepo.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	return *user, nil
}

func (u *ProfileUsecase) Vendors(ctx context.Context) ([]model.User, error) {
	return u.userRepo.ListVendors(ctx)
}

func (u *ProfileUsecase) Vendor(ctx context.Context, vendorID int64) (model.User, error) {
	v, err := u.userRepo.FindVendorByID(ctx, vendorID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, ErrVendorNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	return *v, nil
}
