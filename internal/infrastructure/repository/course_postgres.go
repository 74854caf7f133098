package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/waste3d/learning-platform/internal/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type CourseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) Create(ctx context.Context, course *domain.Course) error {
	if course.ID == uuid.Nil {
		course.ID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Create(course).Error, "course")
}

func (r *CourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	var course domain.Course
	if err := r.db.WithContext(ctx).First(&course, "id = ?", id).Error; err != nil {
		return nil, translate(err, "course")
	}
	return &course, nil
}

// ListPublished returns the public catalogue, newest first.
func (r *CourseRepository) ListPublished(ctx context.Context, f domain.CourseFilter) ([]domain.Course, error) {
	q := r.db.WithContext(ctx).Model(&domain.Course{}).Where("is_published = ?", true)

	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if c := strings.TrimSpace(f.Category); c != "" {
		q = q.Where("category = ?", c)
	}
	for _, tag := range f.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			q = q.Where("CAST(tags AS TEXT) LIKE ?", fmt.Sprintf("%%%q%%", tag))
		}
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	courses := make([]domain.Course, 0)
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&courses).Error
	return courses, err
}

// ListByTeacher returns every course of a teacher regardless of publication.
func (r *CourseRepository) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]domain.Course, error) {
	courses := make([]domain.Course, 0)
	err := r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("created_at DESC").
		Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) ListAll(ctx context.Context) ([]domain.Course, error) {
	courses := make([]domain.Course, 0)
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) Update(ctx context.Context, id uuid.UUID, cols map[string]interface{}) (*domain.Course, error) {
	if len(cols) > 0 {
		result := r.db.WithContext(ctx).Model(&domain.Course{}).Where("id = ?", id).Updates(cols)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, fmt.Errorf("%w: course not found", domain.ErrNotFound)
		}
	}
	return r.GetByID(ctx, id)
}

func (r *CourseRepository) SetThumbnail(ctx context.Context, id uuid.UUID, url string) (*domain.Course, error) {
	return r.Update(ctx, id, map[string]interface{}{"thumbnail": url})
}

// TogglePublish flips the flag in a single statement so concurrent toggles
// never read a stale value.
func (r *CourseRepository) TogglePublish(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	result := r.db.WithContext(ctx).Model(&domain.Course{}).
		Where("id = ?", id).
		Update("is_published", gorm.Expr("NOT is_published"))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: course not found", domain.ErrNotFound)
	}
	return r.GetByID(ctx, id)
}

// Delete removes the course with its lessons, quizzes and enrollments.
func (r *CourseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		enrollments := tx.Model(&domain.Enrollment{}).Select("id").Where("course_id = ?", id)
		if err := tx.Where("enrollment_id IN (?)", enrollments).Delete(&domain.CompletedLesson{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&domain.Enrollment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&domain.Quiz{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&domain.Lesson{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&domain.Course{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: course not found", domain.ErrNotFound)
		}
		return nil
	})
}

// incrementCounter bumps total_lessons or total_quizzes inside tx. Zero rows
// affected means the course is gone and the caller's tx must roll back.
func incrementCounter(tx *gorm.DB, courseID uuid.UUID, column string) error {
	result := tx.Model(&domain.Course{}).
		Where("id = ?", courseID).
		UpdateColumn(column, gorm.Expr(column+" + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: course not found", domain.ErrNotFound)
	}
	return nil
}

// decrementCounter never lets the counter go below zero.
func decrementCounter(tx *gorm.DB, courseID uuid.UUID, column string) error {
	return tx.Model(&domain.Course{}).
		Where("id = ?", courseID).
		UpdateColumn(column, gorm.Expr("CASE WHEN "+column+" > 0 THEN "+column+" - 1 ELSE 0 END")).
		Error
}
