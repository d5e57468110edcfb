package services

import (
	"strings"
	"testing"

	"gorm.io/gorm"
)

// newTestDB - 테스트마다 분리된 in-memory sqlite
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := OpenDatabase("sqlite", "file:"+name+"?mode=memory&cache=shared", nil)
	if err != nil {
		t.Fatalf("OpenDatabase: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func TestOpenDatabaseRejectsUnknownDriver(t *testing.T) {
	if _, err := OpenDatabase("postgres", "x", nil); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
