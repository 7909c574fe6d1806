package model

import "time"

// カテゴリ名は小文字で保存。ベンダー内で一意
type Category struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	VendorID  int64     `gorm:"not null;uniqueIndex:uq_category_vendor_name" json:"vendorId"`
	Name      string    `gorm:"type:varchar(100);not null;uniqueIndex:uq_category_vendor_name" json:"name"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}
