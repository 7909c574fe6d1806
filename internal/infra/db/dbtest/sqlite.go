// Package dbtest はテスト用のインメモリDBを用意する。
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"foodapp/internal/domain/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open はテストごとに独立したsqliteを開いてテーブルを作る
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	//インメモリDBはコネクションごとに別物になるので1本に絞る
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, gormDB.AutoMigrate(
		&model.User{},
		&model.MenuItem{},
		&model.Category{},
		&model.Review{},
		&model.Order{},
		&model.OrderItem{},
		&model.AuditLog{},
	))
	return gormDB
}
