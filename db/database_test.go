package db

import (
	"fmt"
	"path/filepath"
	"testing"

	"eshop/config"
	"eshop/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpen_MemorySqlite(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := Open(config.Database{Driver: "sqlite", DSN: dsn}, zap.NewNop())
	require.NoError(t, err)
	defer Close(conn)

	for _, model := range []any{&models.User{}, &models.Product{}, &models.Order{}, &models.Review{}} {
		require.True(t, conn.Migrator().HasTable(model))
	}
	require.True(t, conn.Migrator().HasTable("product_sub_categories"))
}

func TestOpen_FileSqliteCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "shop.db")
	conn, err := Open(config.Database{Driver: "sqlite", DSN: path}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, Close(conn))
	require.FileExists(t, path)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(config.Database{Driver: "oracle", DSN: "x"}, zap.NewNop())
	require.Error(t, err)
}
