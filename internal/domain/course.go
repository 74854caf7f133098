package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Course struct {
	ID          uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string                      `gorm:"size:120;not null;index" json:"title"`
	Description string                      `gorm:"size:2000" json:"description"`
	Category    string                      `gorm:"index" json:"category"`
	Level       string                      `gorm:"size:32" json:"level"`
	Thumbnail   string                      `json:"thumbnail"`
	Tags        datatypes.JSONSlice[string] `json:"tags"`

	// Владелец курса
	TeacherID uuid.UUID `gorm:"type:uuid;not null;index" json:"teacher"`

	IsPublished bool `gorm:"not null;index" json:"isPublished"`

	// Денормализованные счетчики, меняются только при создании/удалении уроков и тестов
	TotalLessons int `gorm:"not null;default:0" json:"totalLessons"`
	TotalQuizzes int `gorm:"not null;default:0" json:"totalQuizzes"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CourseInput is what a teacher sends to create a course.
type CourseInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Level       string   `json:"level"`
	Thumbnail   string   `json:"thumbnail"`
	Tags        []string `json:"tags"`
}

func (in CourseInput) Validate() error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if len([]rune(title)) > 120 {
		return fmt.Errorf("%w: title must be at most 120 characters", ErrValidation)
	}
	if len([]rune(in.Description)) > 2000 {
		return fmt.Errorf("%w: description must be at most 2000 characters", ErrValidation)
	}
	return nil
}

// CoursePatch is the update allow-list for courses. Publication state,
// ownership and counters are deliberately absent.
type CoursePatch struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Level       *string  `json:"level"`
	Tags        []string `json:"tags"`
}

func (p CoursePatch) Validate() error {
	if p.Title != nil {
		if t := strings.TrimSpace(*p.Title); t == "" || len([]rune(t)) > 120 {
			return fmt.Errorf("%w: title must be 1-120 characters", ErrValidation)
		}
	}
	if p.Description != nil && len([]rune(*p.Description)) > 2000 {
		return fmt.Errorf("%w: description must be at most 2000 characters", ErrValidation)
	}
	return nil
}

// Columns turns the patch into a column -> value map for a partial update.
func (p CoursePatch) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if p.Title != nil {
		cols["title"] = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		cols["description"] = strings.TrimSpace(*p.Description)
	}
	if p.Category != nil {
		cols["category"] = strings.TrimSpace(*p.Category)
	}
	if p.Level != nil {
		cols["level"] = *p.Level
	}
	if p.Tags != nil {
		cols["tags"] = datatypes.JSONSlice[string](p.Tags)
	}
	return cols
}

// CourseFilter drives the public catalogue listing.
type CourseFilter struct {
	Search   string
	Category string
	Tags     []string
	Limit    int
	Offset   int
}
