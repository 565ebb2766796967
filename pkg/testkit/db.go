// Package testkit holds helpers shared by the storefront's tests: a migrated
// in-memory database, JSON request helpers and an outgoing-HTTP mock.
package testkit

import (
	"io"
	"strings"
	"testing"

	"gorm.io/gorm"

	_ "github.com/perennia/storefront/database/migrations"
	"github.com/perennia/storefront/pkg/database"
	"github.com/perennia/storefront/pkg/migration"
)

// DB returns a freshly migrated in-memory sqlite database private to t.
func DB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	db, err := database.Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("testkit: open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	if _, err := migration.New(db, io.Discard).Run(); err != nil {
		t.Fatalf("testkit: migrate: %v", err)
	}
	return db
}
