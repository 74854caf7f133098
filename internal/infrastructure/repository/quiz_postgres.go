package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/waste3d/learning-platform/internal/domain"
)

type QuizRepository struct {
	db *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{db: db}
}

func (r *QuizRepository) Create(ctx context.Context, quiz *domain.Quiz) error {
	if quiz.ID == uuid.Nil {
		quiz.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(quiz).Error; err != nil {
			return translate(err, "quiz")
		}
		return incrementCounter(tx, quiz.CourseID, "total_quizzes")
	})
}

func (r *QuizRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Quiz, error) {
	var quiz domain.Quiz
	if err := r.db.WithContext(ctx).First(&quiz, "id = ?", id).Error; err != nil {
		return nil, translate(err, "quiz")
	}
	return &quiz, nil
}

func (r *QuizRepository) ListByCourse(ctx context.Context, courseID uuid.UUID, publishedOnly bool) ([]domain.Quiz, error) {
	q := r.db.WithContext(ctx).Where("course_id = ?", courseID)
	if publishedOnly {
		q = q.Where("is_published = ?", true)
	}
	quizzes := make([]domain.Quiz, 0)
	err := q.Order("created_at ASC").Find(&quizzes).Error
	return quizzes, err
}

func (r *QuizRepository) Update(ctx context.Context, id uuid.UUID, cols map[string]interface{}) (*domain.Quiz, error) {
	if len(cols) > 0 {
		result := r.db.WithContext(ctx).Model(&domain.Quiz{}).Where("id = ?", id).Updates(cols)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, fmt.Errorf("%w: quiz not found", domain.ErrNotFound)
		}
	}
	return r.GetByID(ctx, id)
}

func (r *QuizRepository) TogglePublish(ctx context.Context, id uuid.UUID) (*domain.Quiz, error) {
	result := r.db.WithContext(ctx).Model(&domain.Quiz{}).
		Where("id = ?", id).
		Update("is_published", gorm.Expr("NOT is_published"))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: quiz not found", domain.ErrNotFound)
	}
	return r.GetByID(ctx, id)
}

func (r *QuizRepository) Delete(ctx context.Context, quiz *domain.Quiz) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", quiz.ID).Delete(&domain.Quiz{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: quiz not found", domain.ErrNotFound)
		}
		return decrementCounter(tx, quiz.CourseID, "total_quizzes")
	})
}
