package auth

import (
	"context"
	"errors"

	"foodapp/internal/repository"
)

var ErrUserNotFound = errors.New("user not found")

// LogoutUsecase はtoken_versionを上げて、発行済みのトークンを全部無効にする。
// 自分のログアウトと管理者の強制ログアウトで共通
type LogoutUsecase struct {
	userRepo repository.UserRepository
}

func NewLogoutUsecase(userRepo repository.UserRepository) *LogoutUsecase {
	return &LogoutUsecase{userRepo: userRepo}
}

// 更新後のtoken_versionを返す
func (u *LogoutUsecase) Execute(ctx context.Context, userID int64) (int, error) {
	if err := u.userRepo.IncrementTokenVersion(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.TokenVersion, nil
}
