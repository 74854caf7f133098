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

type CourseUseCase struct {
	log      *logger.Logger
	courses  CourseStore
	policy   *policy.Engine
	uploader AssetUploader
}

func NewCourseUseCase(log *logger.Logger, courses CourseStore, engine *policy.Engine, uploader AssetUploader) *CourseUseCase {
	return &CourseUseCase{
		log:      log.With("service", "CourseUseCase"),
		courses:  courses,
		policy:   engine,
		uploader: uploader,
	}
}

// Create starts a draft course owned by the caller.
func (uc *CourseUseCase) Create(ctx context.Context, p domain.Principal, in domain.CourseInput) (*domain.Course, error) {
	ctx, span := observability.Tracer().Start(ctx, "CourseUseCase.Create")
	defer span.End()

	if err := uc.policy.RequireRole(p, domain.RoleTeacher, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	course := &domain.Course{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Level:       in.Level,
		Thumbnail:   in.Thumbnail,
		Tags:        in.Tags,
		TeacherID:   p.ID,
		IsPublished: false,
	}
	if course.Tags == nil {
		course.Tags = []string{}
	}
	if err := uc.courses.Create(ctx, course); err != nil {
		return nil, err
	}
	uc.log.Info("Course created", "course_id", course.ID, "teacher_id", p.ID)
	return course, nil
}

// GetByID hides unpublished courses from everyone but the owner and admins.
// viewer is nil for anonymous requests.
func (uc *CourseUseCase) GetByID(ctx context.Context, viewer *domain.Principal, id uuid.UUID) (*domain.Course, error) {
	course, err := uc.courses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !course.IsPublished && !uc.policy.Can(viewer, policy.ManageCourse, course.TeacherID) {
		return nil, fmt.Errorf("%w: course not found", domain.ErrNotFound)
	}
	return course, nil
}

func (uc *CourseUseCase) ListPublished(ctx context.Context, f domain.CourseFilter) ([]domain.Course, error) {
	return uc.courses.ListPublished(ctx, f)
}

// ListMine returns the caller's own courses, drafts included. Admins get
// every course.
func (uc *CourseUseCase) ListMine(ctx context.Context, p domain.Principal) ([]domain.Course, error) {
	if err := uc.policy.RequireRole(p, domain.RoleTeacher, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if p.IsAdmin() {
		return uc.courses.ListAll(ctx)
	}
	return uc.courses.ListByTeacher(ctx, p.ID)
}

func (uc *CourseUseCase) Update(ctx context.Context, p domain.Principal, id uuid.UUID, patch domain.CoursePatch) (*domain.Course, error) {
	ctx, span := observability.Tracer().Start(ctx, "CourseUseCase.Update")
	defer span.End()

	if _, err := uc.authorize(ctx, p, id); err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	return uc.courses.Update(ctx, id, patch.Columns())
}

func (uc *CourseUseCase) UploadThumbnail(ctx context.Context, p domain.Principal, id uuid.UUID, file File) (*domain.Course, error) {
	ctx, span := observability.Tracer().Start(ctx, "CourseUseCase.UploadThumbnail")
	defer span.End()

	course, err := uc.authorize(ctx, p, id)
	if err != nil {
		return nil, err
	}
	url, err := uc.uploader.Upload(ctx, file.Reader, storage.FolderThumbnails, file.Ext, file.ContentType)
	if err != nil {
		return nil, err
	}
	updated, err := uc.courses.SetThumbnail(ctx, id, url)
	if err != nil {
		return nil, err
	}
	if course.Thumbnail != "" {
		if err := uc.uploader.Delete(ctx, course.Thumbnail); err != nil {
			uc.log.Warn("Failed to delete old thumbnail", "course_id", id, "error", err)
		}
	}
	return updated, nil
}

func (uc *CourseUseCase) TogglePublish(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Course, error) {
	ctx, span := observability.Tracer().Start(ctx, "CourseUseCase.TogglePublish")
	defer span.End()

	if _, err := uc.authorize(ctx, p, id); err != nil {
		return nil, err
	}
	course, err := uc.courses.TogglePublish(ctx, id)
	if err != nil {
		return nil, err
	}
	uc.log.Info("Course publication toggled", "course_id", id, "published", course.IsPublished)
	return course, nil
}

// Delete removes the course together with its lessons, quizzes and
// enrollments.
func (uc *CourseUseCase) Delete(ctx context.Context, p domain.Principal, id uuid.UUID) error {
	ctx, span := observability.Tracer().Start(ctx, "CourseUseCase.Delete")
	defer span.End()

	if _, err := uc.authorize(ctx, p, id); err != nil {
		return err
	}
	if err := uc.courses.Delete(ctx, id); err != nil {
		return err
	}
	uc.log.Info("Course deleted", "course_id", id, "by", p.ID)
	return nil
}

func (uc *CourseUseCase) authorize(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.Course, error) {
	course, err := uc.courses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.policy.Require(p, policy.ManageCourse, course.TeacherID); err != nil {
		return nil, err
	}
	return course, nil
}
