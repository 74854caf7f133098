// Package testutil holds shared helpers for package tests.
package testutil

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/waste3d/learning-platform/internal/domain"
	"github.com/waste3d/learning-platform/internal/infrastructure/repository"
)

// NewDB opens an isolated in-memory sqlite database with the schema applied.
// A single connection serialises transactions the way row locks would.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := repository.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func NewUser(t *testing.T, db *gorm.DB, role domain.Role) *domain.User {
	t.Helper()
	id := uuid.New()
	u := &domain.User{
		ID:            id,
		Name:          string(role) + "-" + id.String()[:8],
		Email:         id.String()[:8] + "@example.com",
		Password:      "x",
		Role:          role,
		EmailVerified: true,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func NewCourse(t *testing.T, db *gorm.DB, teacherID uuid.UUID, published bool) *domain.Course {
	t.Helper()
	c := &domain.Course{
		ID:          uuid.New(),
		Title:       "Go basics",
		Description: "intro",
		Category:    "programming",
		TeacherID:   teacherID,
		IsPublished: published,
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("create course: %v", err)
	}
	return c
}
