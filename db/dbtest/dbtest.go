// Package dbtest opens throwaway in-memory databases for tests.
package dbtest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"eshop/config"
	"eshop/db"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var seq atomic.Int64

// Open returns a migrated in-memory sqlite database that is closed when the
// test finishes. Every call gets its own database.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))

	conn, err := db.Open(config.Database{Driver: "sqlite", DSN: dsn}, zap.NewNop())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(conn) })

	return conn
}
