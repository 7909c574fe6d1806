package model

import "time"

type Review struct {
	ID       int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID   int64 `gorm:"not null;index" json:"userId"`
	VendorID int64 `gorm:"not null;index" json:"vendorId"`
	//投稿時点のユーザー名
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"type:text;not null" json:"comment"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}
