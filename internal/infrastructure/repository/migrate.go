package repository

import (
	"gorm.io/gorm"

	"github.com/waste3d/learning-platform/internal/domain"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Course{},
		&domain.Lesson{},
		&domain.Quiz{},
		&domain.Enrollment{},
		&domain.CompletedLesson{},
	)
}
