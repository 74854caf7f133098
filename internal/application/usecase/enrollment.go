package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/waste3d/learning-platform/internal/domain"
	"github.com/waste3d/learning-platform/internal/platform/logger"
	"github.com/waste3d/learning-platform/internal/platform/observability"
	"github.com/waste3d/learning-platform/internal/policy"
)

type EnrollmentUseCase struct {
	log         *logger.Logger
	courses     CourseStore
	lessons     LessonStore
	enrollments EnrollmentStore
	policy      *policy.Engine
}

func NewEnrollmentUseCase(
	log *logger.Logger,
	courses CourseStore,
	lessons LessonStore,
	enrollments EnrollmentStore,
	engine *policy.Engine,
) *EnrollmentUseCase {
	return &EnrollmentUseCase{
		log:         log.With("service", "EnrollmentUseCase"),
		courses:     courses,
		lessons:     lessons,
		enrollments: enrollments,
		policy:      engine,
	}
}

// Enroll signs a student up for a published course. The pre-check gives a
// clean error, the unique index settles concurrent attempts.
func (uc *EnrollmentUseCase) Enroll(ctx context.Context, p domain.Principal, courseID uuid.UUID) (*domain.Enrollment, error) {
	ctx, span := observability.Tracer().Start(ctx, "EnrollmentUseCase.Enroll")
	defer span.End()

	if err := uc.policy.RequireRole(p, domain.RoleStudent); err != nil {
		return nil, err
	}

	course, err := uc.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: course does not exist", domain.ErrInvalidState)
		}
		return nil, err
	}
	if !course.IsPublished {
		return nil, fmt.Errorf("%w: course is not published", domain.ErrInvalidState)
	}

	existing, err := uc.enrollments.FindByStudentAndCourse(ctx, p.ID, courseID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrAlreadyEnrolled
	}

	e := &domain.Enrollment{
		ID:         uuid.New(),
		StudentID:  p.ID,
		CourseID:   courseID,
		EnrolledAt: time.Now().UTC(),
	}
	if err := uc.enrollments.Create(ctx, e); err != nil {
		return nil, err
	}
	e.Course = course
	uc.log.Info("Student enrolled", "student_id", p.ID, "course_id", courseID)
	return e, nil
}

// CompleteLesson records a completed lesson for the caller's own enrollment.
// Repeating it for the same lesson changes nothing.
func (uc *EnrollmentUseCase) CompleteLesson(ctx context.Context, p domain.Principal, enrollmentID, lessonID uuid.UUID) (*domain.Enrollment, error) {
	ctx, span := observability.Tracer().Start(ctx, "EnrollmentUseCase.CompleteLesson")
	defer span.End()

	e, err := uc.enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	// Админ не отмечает уроки за студента
	if !uc.policy.Authorize(p, policy.TrackProgress, e.StudentID).Allowed() || e.StudentID != p.ID {
		return nil, fmt.Errorf("%w: enrollment belongs to another student", domain.ErrForbidden)
	}

	lesson, err := uc.lessons.GetByID(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if lesson.CourseID != e.CourseID || !lesson.IsPublished {
		return nil, fmt.Errorf("%w: lesson not found in this course", domain.ErrNotFound)
	}
	course, err := uc.courses.GetByID(ctx, e.CourseID)
	if err != nil {
		return nil, err
	}
	if !course.IsPublished {
		return nil, fmt.Errorf("%w: course not found", domain.ErrNotFound)
	}

	return uc.enrollments.CompleteLesson(ctx, enrollmentID, lessonID)
}

func (uc *EnrollmentUseCase) ListMine(ctx context.Context, p domain.Principal) ([]domain.Enrollment, error) {
	if err := uc.policy.RequireRole(p, domain.RoleStudent); err != nil {
		return nil, err
	}
	return uc.enrollments.ListByStudent(ctx, p.ID)
}
