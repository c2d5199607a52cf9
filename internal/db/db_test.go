package db

import (
	"errors"
	"testing"

	"gorm.io/gorm"

	"poolfinder/internal/config"
	"poolfinder/internal/models"
)

func openMemory(t *testing.T) *DB {
	t.Helper()
	conn, err := Open(config.DBConfig{Driver: DriverSQLite, DSN: ":memory:", MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = Close(conn) })
	if err := AutoMigrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open(config.DBConfig{Driver: "oracle"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestAutoMigrate_CreatesTables(t *testing.T) {
	conn := openMemory(t)
	for _, model := range []any{&models.Pool{}, &models.FreeSwimSchedule{}, &models.PoolPrice{}, &models.Review{}, &models.SyncState{}} {
		if !conn.Gorm.Migrator().HasTable(model) {
			t.Fatalf("missing table for %T", model)
		}
	}
	if err := Ping(conn); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := SetTimezone(conn, "Asia/Seoul"); err != nil {
		t.Fatalf("sqlite timezone should be a no-op: %v", err)
	}
}

func TestOpen_TranslatesUniqueViolation(t *testing.T) {
	conn := openMemory(t)
	first := &models.Pool{Name: "a", Slug: "same", Sido: "서울특별시", SidoSlug: "seoul", Sigungu: "중구", SigunguSlug: "중구", IsOperating: true}
	if err := conn.Gorm.Create(first).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	second := &models.Pool{Name: "b", Slug: "same", Sido: "서울특별시", SidoSlug: "seoul", Sigungu: "중구", SigunguSlug: "중구", IsOperating: true}
	err := conn.Gorm.Create(second).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("err=%v want ErrDuplicatedKey", err)
	}
}

func TestNilHandles(t *testing.T) {
	if err := Close(nil); err != nil {
		t.Fatalf("close nil: %v", err)
	}
	if err := Ping(nil); err != nil {
		t.Fatalf("ping nil: %v", err)
	}
	if err := AutoMigrate(nil); err != nil {
		t.Fatalf("migrate nil: %v", err)
	}
}
