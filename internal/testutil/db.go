// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"fmt"
	"testing"

	"transport-service/internal/model"
	"transport-service/pkg/database"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory SQLite database private to the test.
// A single connection keeps every statement on the same memory database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig(logger.Silent))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.MigrateModels(db, model.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Tenant inserts an active tenant
func Tenant(t testing.TB, db *gorm.DB, slug string) *model.Tenant {
	t.Helper()
	tenant := &model.Tenant{Name: slug + " Transport", Slug: slug, IsActive: true}
	if err := db.Create(tenant).Error; err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	return tenant
}

// User inserts a user with a known bcrypt hash
func User(t testing.TB, db *gorm.DB, tenantID *uint, email string, role model.Role, hash string) *model.User {
	t.Helper()
	user := &model.User{Name: email, Email: email, Password: hash, Role: role, TenantID: tenantID}
	if err := db.Omit("Tenant").Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// Vehicle inserts an available vehicle
func Vehicle(t testing.TB, db *gorm.DB, tenantID uint, number string) *model.Vehicle {
	t.Helper()
	v := &model.Vehicle{Number: number, Model: "Tata 407", Capacity: 4, IsAvailable: true, TenantID: tenantID}
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("create vehicle: %v", err)
	}
	return v
}
