package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Lesson struct {
	ID        uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID  uuid.UUID                   `gorm:"type:uuid;not null;index" json:"course"`
	Title     string                      `gorm:"size:150;not null" json:"title"`
	Content   string                      `gorm:"type:text" json:"content"`
	VideoURL  string                      `json:"videoUrl"`
	Duration  int                         `gorm:"not null;default:0" json:"duration"` // минуты
	Order     int                         `gorm:"column:sort_order;not null;default:0;index" json:"order"`
	Resources datatypes.JSONSlice[string] `json:"resources"`

	IsPublished bool `gorm:"not null" json:"isPublished"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type LessonInput struct {
	Title     string   `json:"title" form:"title"`
	Content   string   `json:"content" form:"content"`
	VideoURL  string   `json:"videoUrl" form:"videoUrl"`
	Duration  int      `json:"duration" form:"duration"`
	Order     int      `json:"order" form:"order"`
	Resources []string `json:"resources" form:"resources"`
}

func (in LessonInput) Validate() error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if len([]rune(title)) > 150 {
		return fmt.Errorf("%w: title must be at most 150 characters", ErrValidation)
	}
	if in.Duration < 0 {
		return fmt.Errorf("%w: duration must not be negative", ErrValidation)
	}
	return nil
}

// LessonPatch is the update allow-list for lessons. CourseID is immutable.
type LessonPatch struct {
	Title     *string  `json:"title"`
	Content   *string  `json:"content"`
	Duration  *int     `json:"duration"`
	Order     *int     `json:"order"`
	Resources []string `json:"resources"`
	VideoURL  *string  `json:"videoUrl"`
}

func (p LessonPatch) Validate() error {
	if p.Title != nil {
		if t := strings.TrimSpace(*p.Title); t == "" || len([]rune(t)) > 150 {
			return fmt.Errorf("%w: title must be 1-150 characters", ErrValidation)
		}
	}
	if p.Duration != nil && *p.Duration < 0 {
		return fmt.Errorf("%w: duration must not be negative", ErrValidation)
	}
	return nil
}

func (p LessonPatch) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if p.Title != nil {
		cols["title"] = strings.TrimSpace(*p.Title)
	}
	if p.Content != nil {
		cols["content"] = *p.Content
	}
	if p.Duration != nil {
		cols["duration"] = *p.Duration
	}
	if p.Order != nil {
		cols["sort_order"] = *p.Order
	}
	if p.Resources != nil {
		cols["resources"] = datatypes.JSONSlice[string](p.Resources)
	}
	if p.VideoURL != nil {
		cols["video_url"] = *p.VideoURL
	}
	return cols
}
