package repository

import (
	"context"

	"foodapp/internal/domain/model"
	domainrepo "foodapp/internal/repository"

	"gorm.io/gorm"
)

type userGormRepository struct {
	db *gorm.DB
}

// DI
// main.goでこれをnewしてusecaseに注入します。
func NewUserGormRepository(db *gorm.DB) domainrepo.UserRepository {
	return &userGormRepository{db: db}
}

// Create はユーザーを新規作成
func (r *userGormRepository) Create(ctx context.Context, user *model.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

// emailでユーザーを1件取得
func (r *userGormRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// IDでユーザーを1件取得
func (r *userGormRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// プロフィール項目だけ更新。残高とtoken_versionは専用の更新からしか変えない
func (r *userGormRepository) Update(ctx context.Context, user *model.User) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", user.ID).
		Select(
			"username", "phone_number", "password_hash",
			"vendor_restaurant_name", "vendor_restaurant_address",
			"vendor_cuisine", "vendor_description", "vendor_photo",
		).
		Updates(user)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrNotFound
	}
	return nil
}

// token_versionを+1 します。
func (r *userGormRepository) IncrementTokenVersion(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		UpdateColumn("token_version", gorm.Expr("token_version + ?", 1))

	if res.Error != nil {
		return res.Error
	}

	// 0件更新は「対象がない」
	if res.RowsAffected == 0 {
		return domainrepo.ErrNotFound
	}
	return nil
}

func (r *userGormRepository) ListVendors(ctx context.Context) ([]model.User, error) {
	var vendors []model.User
	err := r.db.WithContext(ctx).
		Where("role = ?", model.RoleVendor).
		Order("id asc").
		Find(&vendors).Error
	if err != nil {
		return []model.User{}, err
	}
	return vendors, nil
}

func (r *userGormRepository) FindVendorByID(ctx context.Context, vendorID int64) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Where("id = ? AND role = ?", vendorID, model.RoleVendor).
		First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userGormRepository) UpdateVendorRating(ctx context.Context, vendorID int64, rating float64, numReviews int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND role = ?", vendorID, model.RoleVendor).
		Updates(map[string]interface{}{
			"vendor_rating":      rating,
			"vendor_num_reviews": numReviews,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrNotFound
	}
	return nil
}
