package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/waste3d/learning-platform/internal/domain"
)

type LessonRepository struct {
	db *gorm.DB
}

func NewLessonRepository(db *gorm.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// Create inserts the lesson and bumps the course counter in one transaction.
func (r *LessonRepository) Create(ctx context.Context, lesson *domain.Lesson) error {
	if lesson.ID == uuid.Nil {
		lesson.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(lesson).Error; err != nil {
			return translate(err, "lesson")
		}
		return incrementCounter(tx, lesson.CourseID, "total_lessons")
	})
}

func (r *LessonRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lesson, error) {
	var lesson domain.Lesson
	if err := r.db.WithContext(ctx).First(&lesson, "id = ?", id).Error; err != nil {
		return nil, translate(err, "lesson")
	}
	return &lesson, nil
}

func (r *LessonRepository) ListByCourse(ctx context.Context, courseID uuid.UUID, publishedOnly bool) ([]domain.Lesson, error) {
	q := r.db.WithContext(ctx).Where("course_id = ?", courseID)
	if publishedOnly {
		q = q.Where("is_published = ?", true)
	}
	lessons := make([]domain.Lesson, 0)
	err := q.Order("sort_order ASC").Order("created_at ASC").Find(&lessons).Error
	return lessons, err
}

func (r *LessonRepository) Update(ctx context.Context, id uuid.UUID, cols map[string]interface{}) (*domain.Lesson, error) {
	if len(cols) > 0 {
		result := r.db.WithContext(ctx).Model(&domain.Lesson{}).Where("id = ?", id).Updates(cols)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, fmt.Errorf("%w: lesson not found", domain.ErrNotFound)
		}
	}
	return r.GetByID(ctx, id)
}

func (r *LessonRepository) TogglePublish(ctx context.Context, id uuid.UUID) (*domain.Lesson, error) {
	result := r.db.WithContext(ctx).Model(&domain.Lesson{}).
		Where("id = ?", id).
		Update("is_published", gorm.Expr("NOT is_published"))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: lesson not found", domain.ErrNotFound)
	}
	return r.GetByID(ctx, id)
}

// Delete removes the lesson, its completion marks and decrements the course
// counter atomically.
func (r *LessonRepository) Delete(ctx context.Context, lesson *domain.Lesson) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", lesson.ID).Delete(&domain.Lesson{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: lesson not found", domain.ErrNotFound)
		}
		if err := tx.Where("lesson_id = ?", lesson.ID).Delete(&domain.CompletedLesson{}).Error; err != nil {
			return err
		}
		return decrementCounter(tx, lesson.CourseID, "total_lessons")
	})
}
