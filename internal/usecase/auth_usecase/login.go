package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"foodapp/internal/domain/model"
	"foodapp/internal/repository"
)

// handlerからusecaseに渡す入力
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// メールまたはパスワードが違う
var ErrInvalidCredentials = errors.New("invalid credentials")

// JWTを発行する約束
type AccessTokenIssuer interface {
	Issue(userID int64, role model.Role, tokenVersion int, now time.Time) (token string, expiresAt time.Time, err error)
}

// 入力パスワードと保存したハッシュを比べる約束
type PasswordVerifier interface {
	Verify(plain string, hashed string) bool
}

type LoginUsecase struct {
	userRepo repository.UserRepository
	verifier PasswordVerifier
	issuer   AccessTokenIssuer
	clock    Clock
}

func NewLoginUsecase(
	userRepo repository.UserRepository,
	verifier PasswordVerifier,
	issuer AccessTokenIssuer,
	clock Clock,
) *LoginUsecase {
	return &LoginUsecase{
		userRepo: userRepo,
		verifier: verifier,
		issuer:   issuer,
		clock:    clock,
	}
}

// ログイン処理を実行する
func (u *LoginUsecase) Execute(ctx context.Context, in LoginInput) (AuthOutput, error) {
	var out AuthOutput

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return out, ErrMissingFields
	}

	//emailでユーザー取得
	user, err := u.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return out, ErrInvalidCredentials
		}
		return out, err
	}

	//パスワード照合
	if ok := u.verifier.Verify(in.Password, user.PasswordHash); !ok {
		return out, ErrInvalidCredentials
	}

	//AccessToken発行
	token, err := issueToken(u.issuer, user, u.clock.Now())
	if err != nil {
		return out, err
	}

	out.User = *user
	out.Token = token
	return out, nil
}

func issueToken(issuer AccessTokenIssuer, user *model.User, now time.Time) (JwtAccessToken, error) {
	accessToken, exp, err := issuer.Issue(user.ID, user.Role, user.TokenVersion, now)
	if err != nil {
		return JwtAccessToken{}, err
	}
	return JwtAccessToken{
		AccessToken:  accessToken,
		ExpiresIn:    int(exp.Sub(now).Seconds()),
		TokenVersion: user.TokenVersion,
	}, nil
}
