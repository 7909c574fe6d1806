package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleUser   Role = "USER"
	RoleVendor Role = "VENDOR"
	RoleAdmin  Role = "ADMIN"
)

// ベンダー(店舗)の情報。role=VENDOR のときだけ埋まる
type VendorDetails struct {
	RestaurantName    string `gorm:"type:varchar(255)" json:"restaurantName"`
	RestaurantAddress string `gorm:"type:varchar(255)" json:"restaurantAddress"`
	Cuisine           string `gorm:"type:varchar(100)" json:"cuisine"`
	Description       string `gorm:"type:text" json:"description"`
	Photo             string `gorm:"type:varchar(255)" json:"photo"`

	//レビューの集計結果
	Rating     float64 `gorm:"not null;default:0" json:"rating"`
	NumReviews int64   `gorm:"not null;default:0" json:"numReviews"`
}

// ユーザーとベンダーは同じテーブル（roleで区別）
type User struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Username      string          `gorm:"type:varchar(100);not null" json:"username"`
	Email         string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PhoneNumber   string          `gorm:"type:varchar(30);not null" json:"phoneNumber"`
	PasswordHash  string          `gorm:"column:password_hash;not null" json:"-"`
	Role          Role            `gorm:"type:varchar(20);not null;default:'USER';index" json:"role"`
	WalletBalance decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"walletBalance"`
	TokenVersion  int             `gorm:"not null;default:0" json:"-"`
	VendorDetails VendorDetails   `gorm:"embedded;embeddedPrefix:vendor_" json:"vendorDetails"`
	CreatedAt     time.Time       `gorm:"not null" json:"createdAt"`
	UpdatedAt     time.Time       `gorm:"not null" json:"updatedAt"`
}

func (u *User) IsVendor() bool {
	return u.Role == RoleVendor
}
