package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/waste3d/learning-platform/internal/domain"
	"github.com/waste3d/learning-platform/internal/infrastructure/storage"
	"github.com/waste3d/learning-platform/internal/platform/logger"
	"github.com/waste3d/learning-platform/internal/platform/observability"
	"github.com/waste3d/learning-platform/internal/policy"
)

type LessonUseCase struct {
	log      *logger.Logger
	courses  CourseStore
	lessons  LessonStore
	policy   *policy.Engine
	uploader AssetUploader
}

func NewLessonUseCase(log *logger.Logger, courses CourseStore, lessons LessonStore, engine *policy.Engine, uploader AssetUploader) *LessonUseCase {
	return &LessonUseCase{
		log:      log.With("service", "LessonUseCase"),
		courses:  courses,
		lessons:  lessons,
		policy:   engine,
		uploader: uploader,
	}
}

// Create adds a lesson to a course the caller manages. video is optional and
// replaces in.VideoURL when present.
func (uc *LessonUseCase) Create(ctx context.Context, p domain.Principal, courseID uuid.UUID, in domain.LessonInput, video *File) (*domain.Lesson, error) {
	ctx, span := observability.Tracer().Start(ctx, "LessonUseCase.Create")
	defer span.End()

	course, err := uc.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := uc.policy.Require(p, policy.ManageLesson, course.TeacherID); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	videoURL := strings.TrimSpace(in.VideoURL)
	if video != nil {
		if videoURL, err = uc.uploader.Upload(ctx, video.Reader, storage.FolderVideos, video.Ext, video.ContentType); err != nil {
			return nil, err
		}
	}

	lesson := &domain.Lesson{
		ID:          uuid.New(),
		CourseID:    course.ID,
		Title:       strings.TrimSpace(in.Title),
		Content:     in.Content,
		VideoURL:    videoURL,
		Duration:    in.Duration,
		Order:       in.Order,
		Resources:   in.Resources,
		IsPublished: true,
	}
	if lesson.Resources == nil {
		lesson.Resources = []string{}
	}
	if err := uc.lessons.Create(ctx, lesson); err != nil {
		return nil, err
	}
	uc.log.Info("Lesson created", "lesson_id", lesson.ID, "course_id", course.ID)
	return lesson, nil
}

// GetByID shows a lesson to non-managers only when both the lesson and its
// course are published.
func (uc *LessonUseCase) GetByID(ctx context.Context, viewer *domain.Principal, id uuid.UUID) (*domain.Lesson, error) {
	lesson, err := uc.lessons.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	course, err := uc.courses.GetByID(ctx, lesson.CourseID)
	if err != nil {
		return nil, fmt.Errorf("%w: lesson not found", domain.ErrNotFound)
	}
	if uc.policy.Can(viewer, policy.ManageLesson, course.TeacherID) {
		return lesson, nil
	}
	if !lesson.IsPublished || !course.IsPublished {
		return nil, fmt.Errorf("%w: lesson not found", domain.ErrNotFound)
	}
	return lesson, nil
}

// ListByCourse returns every lesson to managers and only published lessons
// of a published course to everyone else, ordered by Order.
func (uc *LessonUseCase) ListByCourse(ctx context.Context, viewer *domain.Principal, courseID uuid.UUID) ([]domain.Lesson, error) {
	course, err := uc.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	manager := uc.policy.Can(viewer, policy.ManageLesson, course.TeacherID)
	if !manager && !course.IsPublished {
		return nil, fmt.Errorf("%w: course not found", domain.ErrNotFound)
	}
	return uc.lessons.ListByCourse(ctx, courseID, !manager)
}

func (uc *LessonUseCase) Update(ctx context.Context, p domain.Principal, id uuid.UUID, patch domain.LessonPatch, video *File) (*domain.Lesson, error) {
	ctx, span := observability.Tracer().Start(ctx, "LessonUseCase.Update")
	defer span.End()

	if _, err := uc.authorize(ctx, p, id); err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if video != nil {
		url, err := uc.uploader.Upload(ctx, video.Reader, storage.FolderVideos, video.Ext, video.ContentType)
		if err != nil {
			return nil, err
		}
		patch.VideoURL = &url
	}
	return uc.lessons.Update(ctx, id, patch.Columns())
}

func (uc *LessonUseCase) TogglePublish(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Lesson, error) {
	ctx, span := observability.Tracer().Start(ctx, "LessonUseCase.TogglePublish")
	defer span.End()

	if _, err := uc.authorize(ctx, p, id); err != nil {
		return nil, err
	}
	return uc.lessons.TogglePublish(ctx, id)
}

// Delete removes the lesson and decrements the course counter atomically.
func (uc *LessonUseCase) Delete(ctx context.Context, p domain.Principal, id uuid.UUID) error {
	ctx, span := observability.Tracer().Start(ctx, "LessonUseCase.Delete")
	defer span.End()

	lesson, err := uc.authorize(ctx, p, id)
	if err != nil {
		return err
	}
	if err := uc.lessons.Delete(ctx, lesson); err != nil {
		return err
	}
	uc.log.Info("Lesson deleted", "lesson_id", id, "course_id", lesson.CourseID)
	return nil
}

// authorize loads the lesson and checks the caller manages its course.
func (uc *LessonUseCase) authorize(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Lesson, error) {
	lesson, err := uc.lessons.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	course, err := uc.courses.GetByID(ctx, lesson.CourseID)
	if err != nil {
		return nil, err
	}
	if err := uc.policy.Require(p, policy.ManageLesson, course.TeacherID); err != nil {
		return nil, err
	}
	return lesson, nil
}
