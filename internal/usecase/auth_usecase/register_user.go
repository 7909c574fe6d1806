package auth

import (
	"context"
	"errors"
	"io"
	"net/mail"
	"strings"
	"time"

	"foodapp/internal/domain/model"
	"foodapp/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// 店舗情報（ベンダー登録のときだけ）
type VendorInput struct {
	RestaurantName    string `json:"restaurantName"`
	RestaurantAddress string `json:"restaurantAddress"`
	Cuisine           string `json:"cuisine"`
	Description       string `json:"description"`
}

// 店舗写真
type PhotoUpload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// 会員登録の入力
type RegisterUserInput struct {
	Username    string       `json:"username"`
	Email       string       `json:"email"`
	PhoneNumber string       `json:"phoneNumber"`
	Password    string       `json:"password"`
	Role        string       `json:"role"`
	Vendor      *VendorInput `json:"vendorDetails"`
	Photo       *PhotoUpload `json:"-"`
}

// 登録・ログインの出力
type AuthOutput struct {
	User  model.User     `json:"user"`
	Token JwtAccessToken `json:"token"`
}

// token 形（JwtAccessToken相当）
type JwtAccessToken struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenVersion int    `json:"token_version"`
}

// bcryptハッシュ化
type BcryptPasswordHasher struct {
	cost int
}

var (
	// 入力が不正
	ErrMissingFields      = errors.New("please provide all required fields")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrWeakPassword       = errors.New("weak password")
	ErrInvalidRole        = errors.New("invalid role")
	ErrVendorDetails      = errors.New("vendor details are required")
	ErrPhotoRequired      = errors.New("restaurant photo is required")

	// 競合
	ErrEmailAlreadyExists = errors.New("user already exists")
)

// 平文パスワードからハッシュへ。
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

// 店舗写真の保存先
type PhotoStore interface {
	Save(ctx context.Context, prefix string, filename string, size int64, r io.Reader) (string, error)
	Delete(ctx context.Context, stored string) error
}

// RegisterUserUsecaseは会員登録の処理。
type RegisterUserUsecase struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	photos   PhotoStore
	issuer   AccessTokenIssuer
	clock    Clock
}

// DI
func NewRegisterUserUsecase(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	photos PhotoStore,
	issuer AccessTokenIssuer,
	clock Clock,
) *RegisterUserUsecase {
	return &RegisterUserUsecase{
		userRepo: userRepo,
		hasher:   hasher,
		photos:   photos,
		issuer:   issuer,
		clock:    clock,
	}
}

// 会員登録実行。登録後そのままログイン状態にする
func (u *RegisterUserUsecase) Execute(ctx context.Context, in RegisterUserInput) (AuthOutput, error) {
	var out AuthOutput

	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)
	phone := strings.TrimSpace(in.PhoneNumber)
	if username == "" || email == "" || phone == "" || in.Password == "" {
		return out, ErrMissingFields
	}

	// emailの形式チェック
	if !isValidEmailFormat(email) {
		return out, ErrInvalidEmailFormat
	}

	// password の長さチェック（最小8文字）
	if len(in.Password) < 8 {
		return out, ErrPasswordTooShort
	}

	// よくある弱いパスワードの拒否
	if isWeakPassword(in.Password) {
		return out, ErrWeakPassword
	}

	role, err := parseRegisterRole(in.Role)
	if err != nil {
		return out, err
	}

	var details model.VendorDetails
	if role == model.RoleVendor {
		if in.Vendor == nil ||
			strings.TrimSpace(in.Vendor.RestaurantName) == "" ||
			strings.TrimSpace(in.Vendor.RestaurantAddress) == "" ||
			strings.TrimSpace(in.Vendor.Cuisine) == "" ||
			strings.TrimSpace(in.Vendor.Description) == "" {
			return out, ErrVendorDetails
		}
		if in.Photo == nil {
			return out, ErrPhotoRequired
		}
		details = model.VendorDetails{
			RestaurantName:    strings.TrimSpace(in.Vendor.RestaurantName),
			RestaurantAddress: strings.TrimSpace(in.Vendor.RestaurantAddress),
			Cuisine:           strings.TrimSpace(in.Vendor.Cuisine),
			Description:       strings.TrimSpace(in.Vendor.Description),
		}
	}

	// email重複チェック
	existing, err := u.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return out, ErrEmailAlreadyExists
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return out, err
	}

	// パスワードをハッシュ化
	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return out, err
	}

	// 写真は検証が全部通ってから保存
	if role == model.RoleVendor {
		stored, err := u.photos.Save(ctx, "vendor", in.Photo.Filename, in.Photo.Size, in.Photo.Content)
		if err != nil {
			return out, err
		}
		details.Photo = stored
	}

	now := u.clock.Now()
	user := &model.User{
		Username:      username,
		Email:         email,
		PhoneNumber:   phone,
		PasswordHash:  hashed, // ハッシュを保存（平文は保存しない）
		Role:          role,
		TokenVersion:  0,
		VendorDetails: details,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// DBへ保存（同時登録はunique制約で弾く）
	if err := u.userRepo.Create(ctx, user); err != nil {
		if details.Photo != "" {
			_ = u.photos.Delete(ctx, details.Photo)
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return out, ErrEmailAlreadyExists
		}
		return out, err
	}

	token, err := issueToken(u.issuer, user, now)
	if err != nil {
		return out, err
	}

	out.User = *user
	out.Token = token
	return out, nil
}

// 登録できるのは一般ユーザーとベンダーだけ（ADMINは不可）
func parseRegisterRole(s string) (model.Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(model.RoleUser):
		return model.RoleUser, nil
	case string(model.RoleVendor):
		return model.RoleVendor, nil
	}
	return "", ErrInvalidRole
}

// メールチェック
func isValidEmailFormat(email string) bool {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return false
	}
	_, err := mail.ParseAddress(trimmed)
	return err == nil
}

// パスワードのよくある弱いパスワード
func isWeakPassword(password string) bool {
	normalized := strings.ToLower(strings.TrimSpace(password))

	weak := map[string]struct{}{
		"password":     {},
		"password123":  {},
		"123456789012": {},
		"1234567890":   {},
		"12345678":     {},
		"qwertyuiop":   {},
		"letmein1":     {},
		"admin123":     {},
	}

	_, ok := weak[normalized]
	return ok
}

// DI
func NewBcryptPasswordHasher(cost int) *BcryptPasswordHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswordHasher{cost}
}

// bcryptでハッシュ化
func (h *BcryptPasswordHasher) Hash(plain string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}

	return string(hashedBytes), nil
}

// bcryptハッシュと平文を比較
type BcryptPasswordVerifier struct{}

// DI
func NewBcryptPasswordVerifier() *BcryptPasswordVerifier {
	return &BcryptPasswordVerifier{}
}

// 平文(plain)をbcryptで比較
func (v *BcryptPasswordVerifier) Verify(plain string, hashed string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	return err == nil
}
