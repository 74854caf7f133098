package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/waste3d/learning-platform/internal/domain"
	"github.com/waste3d/learning-platform/internal/platform/logger"
	"github.com/waste3d/learning-platform/internal/platform/observability"
	"github.com/waste3d/learning-platform/internal/policy"
)

type QuizUseCase struct {
	log         *logger.Logger
	courses     CourseStore
	lessons     LessonStore
	quizzes     QuizStore
	enrollments EnrollmentStore
	policy      *policy.Engine
}

func NewQuizUseCase(
	log *logger.Logger,
	courses CourseStore,
	lessons LessonStore,
	quizzes QuizStore,
	enrollments EnrollmentStore,
	engine *policy.Engine,
) *QuizUseCase {
	return &QuizUseCase{
		log:         log.With("service", "QuizUseCase"),
		courses:     courses,
		lessons:     lessons,
		quizzes:     quizzes,
		enrollments: enrollments,
		policy:      engine,
	}
}

// Create adds an unpublished quiz to a course the caller manages.
func (uc *QuizUseCase) Create(ctx context.Context, p domain.Principal, courseID uuid.UUID, in domain.QuizInput) (*domain.Quiz, error) {
	ctx, span := observability.Tracer().Start(ctx, "QuizUseCase.Create")
	defer span.End()

	course, err := uc.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := uc.policy.Require(p, policy.ManageQuiz, course.TeacherID); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := uc.checkLesson(ctx, course.ID, in.Lesson); err != nil {
		return nil, err
	}

	quiz := &domain.Quiz{
		ID:           uuid.New(),
		CourseID:     course.ID,
		LessonID:     domain.LessonRef(in.Lesson),
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Questions:    in.Questions,
		TimeLimit:    in.TimeLimit,
		PassingScore: in.PassingScore,
		IsPublished:  false,
	}
	if quiz.Questions == nil {
		quiz.Questions = []domain.Question{}
	}
	if err := uc.quizzes.Create(ctx, quiz); err != nil {
		return nil, err
	}
	uc.log.Info("Quiz created", "quiz_id", quiz.ID, "course_id", course.ID)
	return quiz, nil
}

// GetByID returns the full quiz to managers. Everyone else must be an
// enrolled student and gets the quiz without correct answers.
func (uc *QuizUseCase) GetByID(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Quiz, error) {
	quiz, err := uc.quizzes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	course, err := uc.courses.GetByID(ctx, quiz.CourseID)
	if err != nil {
		return nil, fmt.Errorf("%w: quiz not found", domain.ErrNotFound)
	}
	if uc.policy.Authorize(p, policy.ManageQuiz, course.TeacherID).Allowed() {
		return quiz, nil
	}
	if !quiz.IsPublished || !course.IsPublished {
		return nil, fmt.Errorf("%w: quiz not found", domain.ErrNotFound)
	}
	if err := uc.requireEnrolled(ctx, p, course.ID); err != nil {
		return nil, err
	}
	return quiz.WithoutAnswers(), nil
}

func (uc *QuizUseCase) ListByCourse(ctx context.Context, p domain.Principal, courseID uuid.UUID) ([]domain.Quiz, error) {
	course, err := uc.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if uc.policy.Authorize(p, policy.ManageQuiz, course.TeacherID).Allowed() {
		return uc.quizzes.ListByCourse(ctx, courseID, false)
	}
	if !course.IsPublished {
		return nil, fmt.Errorf("%w: course not found", domain.ErrNotFound)
	}
	if err := uc.requireEnrolled(ctx, p, course.ID); err != nil {
		return nil, err
	}

	quizzes, err := uc.quizzes.ListByCourse(ctx, courseID, true)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Quiz, 0, len(quizzes))
	for i := range quizzes {
		out = append(out, *quizzes[i].WithoutAnswers())
	}
	return out, nil
}

func (uc *QuizUseCase) Update(ctx context.Context, p domain.Principal, id uuid.UUID, patch domain.QuizPatch) (*domain.Quiz, error) {
	ctx, span := observability.Tracer().Start(ctx, "QuizUseCase.Update")
	defer span.End()

	quiz, err := uc.authorize(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if err := uc.checkLesson(ctx, quiz.CourseID, patch.Lesson); err != nil {
		return nil, err
	}
	return uc.quizzes.Update(ctx, id, patch.Columns())
}

func (uc *QuizUseCase) TogglePublish(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Quiz, error) {
	ctx, span := observability.Tracer().Start(ctx, "QuizUseCase.TogglePublish")
	defer span.End()

	if _, err := uc.authorize(ctx, p, id); err != nil {
		return nil, err
	}
	return uc.quizzes.TogglePublish(ctx, id)
}

func (uc *QuizUseCase) Delete(ctx context.Context, p domain.Principal, id uuid.UUID) error {
	ctx, span := observability.Tracer().Start(ctx, "QuizUseCase.Delete")
	defer span.End()

	quiz, err := uc.authorize(ctx, p, id)
	if err != nil {
		return err
	}
	if err := uc.quizzes.Delete(ctx, quiz); err != nil {
		return err
	}
	uc.log.Info("Quiz deleted", "quiz_id", id, "course_id", quiz.CourseID)
	return nil
}

func (uc *QuizUseCase) authorize(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Quiz, error) {
	quiz, err := uc.quizzes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	course, err := uc.courses.GetByID(ctx, quiz.CourseID)
	if err != nil {
		return nil, err
	}
	if err := uc.policy.Require(p, policy.ManageQuiz, course.TeacherID); err != nil {
		return nil, err
	}
	return quiz, nil
}

// requireEnrolled lets through students enrolled in the course. Other roles
// that do not manage the course are refused.
func (uc *QuizUseCase) requireEnrolled(ctx context.Context, p domain.Principal, courseID uuid.UUID) error {
	if err := uc.policy.RequireRole(p, domain.RoleStudent); err != nil {
		return err
	}
	e, err := uc.enrollments.FindByStudentAndCourse(ctx, p.ID, courseID)
	if err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("%w: not enrolled in this course", domain.ErrForbidden)
	}
	return nil
}

// checkLesson makes sure an optional lesson reference points into the course.
func (uc *QuizUseCase) checkLesson(ctx context.Context, courseID uuid.UUID, lessonID *uuid.UUID) error {
	if lessonID == nil || *lessonID == uuid.Nil {
		return nil
	}
	lesson, err := uc.lessons.GetByID(ctx, *lessonID)
	if err != nil {
		return err
	}
	if lesson.CourseID != courseID {
		return fmt.Errorf("%w: lesson belongs to another course", domain.ErrValidation)
	}
	return nil
}
