package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/waste3d/learning-platform/internal/domain"
)

type EnrollmentRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Create relies on the (student, course) unique index. A concurrent duplicate
// surfaces as ErrAlreadyEnrolled.
func (r *EnrollmentRepository) Create(ctx context.Context, e *domain.Enrollment) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.EnrolledAt.IsZero() {
		e.EnrolledAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyEnrolled
		}
		return err
	}
	if e.CompletedLessons == nil {
		e.CompletedLessons = []uuid.UUID{}
	}
	return nil
}

// FindByStudentAndCourse returns (nil, nil) when there is no enrollment.
func (r *EnrollmentRepository) FindByStudentAndCourse(ctx context.Context, studentID, courseID uuid.UUID) (*domain.Enrollment, error) {
	var e domain.Enrollment
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *EnrollmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Enrollment, error) {
	return r.load(r.db.WithContext(ctx), id)
}

// ListByStudent returns the student's enrollments with course summaries
// attached, newest first.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]domain.Enrollment, error) {
	db := r.db.WithContext(ctx)

	enrollments := make([]domain.Enrollment, 0)
	if err := db.Where("student_id = ?", studentID).Order("enrolled_at DESC").Find(&enrollments).Error; err != nil {
		return nil, err
	}
	if len(enrollments) == 0 {
		return enrollments, nil
	}

	ids := make([]uuid.UUID, 0, len(enrollments))
	courseIDs := make([]uuid.UUID, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.ID)
		courseIDs = append(courseIDs, e.CourseID)
	}

	var courses []domain.Course
	if err := db.Where("id IN ?", courseIDs).Find(&courses).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*domain.Course, len(courses))
	for i := range courses {
		byID[courses[i].ID] = &courses[i]
	}

	var done []domain.CompletedLesson
	if err := db.Where("enrollment_id IN ?", ids).Order("created_at ASC").Find(&done).Error; err != nil {
		return nil, err
	}
	completed := make(map[uuid.UUID][]uuid.UUID, len(enrollments))
	for _, d := range done {
		completed[d.EnrollmentID] = append(completed[d.EnrollmentID], d.LessonID)
	}

	for i := range enrollments {
		enrollments[i].Course = byID[enrollments[i].CourseID]
		enrollments[i].CompletedLessons = completed[enrollments[i].ID]
		if enrollments[i].CompletedLessons == nil {
			enrollments[i].CompletedLessons = []uuid.UUID{}
		}
	}
	return enrollments, nil
}

// CompleteLesson adds lessonID to the completed set and recomputes progress
// against the course's current lesson count. Marking a lesson twice is a
// no-op. The enrollment row is locked so concurrent completions serialise.
func (r *EnrollmentRepository) CompleteLesson(ctx context.Context, enrollmentID, lessonID uuid.UUID) (*domain.Enrollment, error) {
	var out *domain.Enrollment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := r.load(tx.Clauses(clause.Locking{Strength: "UPDATE"}), enrollmentID)
		if err != nil {
			return err
		}

		mark := domain.CompletedLesson{EnrollmentID: enrollmentID, LessonID: lessonID, CreatedAt: time.Now().UTC()}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&mark).Error; err != nil {
			return err
		}

		var completed int64
		if err := tx.Model(&domain.CompletedLesson{}).Where("enrollment_id = ?", enrollmentID).Count(&completed).Error; err != nil {
			return err
		}
		var course domain.Course
		if err := tx.Select("total_lessons").First(&course, "id = ?", e.CourseID).Error; err != nil {
			return translate(err, "course")
		}

		progress := domain.ComputeProgress(int(completed), course.TotalLessons)
		if err := tx.Model(&domain.Enrollment{}).
			Where("id = ?", enrollmentID).
			Update("progress", progress).Error; err != nil {
			return err
		}

		out, err = r.load(tx, enrollmentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *EnrollmentRepository) load(db *gorm.DB, id uuid.UUID) (*domain.Enrollment, error) {
	var e domain.Enrollment
	if err := db.First(&e, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: enrollment not found", domain.ErrNotFound)
		}
		return nil, err
	}
	e.CompletedLessons = []uuid.UUID{}
	var done []domain.CompletedLesson
	if err := db.Where("enrollment_id = ?", id).Order("created_at ASC").Find(&done).Error; err != nil {
		return nil, err
	}
	for _, d := range done {
		e.CompletedLessons = append(e.CompletedLessons, d.LessonID)
	}
	return &e, nil
}
