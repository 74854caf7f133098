package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/waste3d/learning-platform/internal/application/usecase"
	"github.com/waste3d/learning-platform/internal/domain"
	"github.com/waste3d/learning-platform/internal/infrastructure/cache"
	"github.com/waste3d/learning-platform/internal/infrastructure/repository"
	"github.com/waste3d/learning-platform/internal/infrastructure/security"
	"github.com/waste3d/learning-platform/internal/infrastructure/storage"
	"github.com/waste3d/learning-platform/internal/platform/logger"
	"github.com/waste3d/learning-platform/internal/policy"
	"github.com/waste3d/learning-platform/internal/testutil"
)

type fakeTokens struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeTokens() *fakeTokens { return &fakeTokens{data: map[string]string{}} }

func (f *fakeTokens) set(k, v string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[k] = v
	return nil
}

func (f *fakeTokens) get(k string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[k]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (f *fakeTokens) del(k string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, k)
	return nil
}

func (f *fakeTokens) SaveRefresh(_ context.Context, userID, token string, _ time.Duration) error {
	return f.set("r:"+token, userID)
}
func (f *fakeTokens) CheckRefresh(_ context.Context, token string) (string, error) {
	return f.get("r:" + token)
}
func (f *fakeTokens) DeleteRefresh(_ context.Context, token string) error { return f.del("r:" + token) }
func (f *fakeTokens) SaveVerifyToken(_ context.Context, digest, userID string) error {
	return f.set("v:"+digest, userID)
}
func (f *fakeTokens) GetVerifyToken(_ context.Context, digest string) (string, error) {
	return f.get("v:" + digest)
}
func (f *fakeTokens) DeleteVerifyToken(_ context.Context, digest string) error {
	return f.del("v:" + digest)
}
func (f *fakeTokens) SaveResetToken(_ context.Context, digest, userID string) error {
	return f.set("p:"+digest, userID)
}
func (f *fakeTokens) GetResetToken(_ context.Context, digest string) (string, error) {
	return f.get("p:" + digest)
}
func (f *fakeTokens) DeleteResetToken(_ context.Context, digest string) error {
	return f.del("p:" + digest)
}

type fakeMailer struct {
	mu     sync.Mutex
	verify map[string]string
	reset  map[string]string
	fail   bool
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{verify: map[string]string{}, reset: map[string]string{}}
}

func (m *fakeMailer) SendVerificationEmail(_ context.Context, to, _, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp down")
	}
	m.verify[to] = token
	return nil
}

func (m *fakeMailer) SendResetEmail(_ context.Context, to, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp down")
	}
	m.reset[to] = token
	return nil
}

type fakeUploader struct {
	mu       sync.Mutex
	n        int
	uploaded []string
	deleted  []string
}

func (u *fakeUploader) Upload(_ context.Context, r io.Reader, folder storage.Folder, ext, _ string) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.n++
	url := fmt.Sprintf("https://cdn.test/%s/%d%s", folder, u.n, ext)
	u.uploaded = append(u.uploaded, url)
	return url, nil
}

func (u *fakeUploader) Delete(_ context.Context, url string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.deleted = append(u.deleted, url)
	return nil
}

type env struct {
	t           *testing.T
	ctx         context.Context
	users       *repository.UserRepository
	courseRepo  *repository.CourseRepository
	tokens      *fakeTokens
	mailer      *fakeMailer
	uploader    *fakeUploader
	tm          *security.TokenManager
	resolver    *usecase.IdentityResolver
	auth        *usecase.AuthUseCase
	courses     *usecase.CourseUseCase
	lessons     *usecase.LessonUseCase
	quizzes     *usecase.QuizUseCase
	enrollments *usecase.EnrollmentUseCase
	profiles    *usecase.UserUseCase
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	log := logger.Nop()
	engine := policy.NewEngine()

	users := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)

	tokens := newFakeTokens()
	mailer := newFakeMailer()
	uploader := &fakeUploader{}
	tm := security.NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, time.Hour)

	return &env{
		t:           t,
		ctx:         context.Background(),
		users:       users,
		courseRepo:  courseRepo,
		tokens:      tokens,
		mailer:      mailer,
		uploader:    uploader,
		tm:          tm,
		resolver:    usecase.NewIdentityResolver(tm, users),
		auth:        usecase.NewAuthUseCase(log, users, tokens, security.NewPasswordHasher(), tm, mailer),
		courses:     usecase.NewCourseUseCase(log, courseRepo, engine, uploader),
		lessons:     usecase.NewLessonUseCase(log, courseRepo, lessonRepo, engine, uploader),
		quizzes:     usecase.NewQuizUseCase(log, courseRepo, lessonRepo, quizRepo, enrollmentRepo, engine),
		enrollments: usecase.NewEnrollmentUseCase(log, courseRepo, lessonRepo, enrollmentRepo, engine),
		profiles:    usecase.NewUserUseCase(log, users, engine, uploader),
	}
}

// principal creates a verified user of the given role.
func (e *env) principal(role domain.Role) domain.Principal {
	e.t.Helper()
	u := &domain.User{Name: string(role), Email: fmt.Sprintf("%s-%s@example.com", role, uuid.NewString()[:8]), Password: "x", Role: role, EmailVerified: true}
	if err := e.users.Create(e.ctx, u); err != nil {
		e.t.Fatalf("create %s: %v", role, err)
	}
	return u.Principal()
}

func (e *env) course(owner domain.Principal, published bool) *domain.Course {
	e.t.Helper()
	c, err := e.courses.Create(e.ctx, owner, domain.CourseInput{Title: "Course", Description: "d", Category: "dev"})
	if err != nil {
		e.t.Fatalf("create course: %v", err)
	}
	if published {
		if c, err = e.courses.TogglePublish(e.ctx, owner, c.ID); err != nil {
			e.t.Fatalf("publish: %v", err)
		}
	}
	return c
}

func (e *env) lesson(owner domain.Principal, courseID uuid.UUID, title string) *domain.Lesson {
	e.t.Helper()
	l, err := e.lessons.Create(e.ctx, owner, courseID, domain.LessonInput{Title: title}, nil)
	if err != nil {
		e.t.Fatalf("create lesson: %v", err)
	}
	return l
}

func (e *env) totals(id uuid.UUID) (int, int) {
	e.t.Helper()
	c, err := e.courseRepo.GetByID(e.ctx, id)
	if err != nil {
		e.t.Fatalf("reload course: %v", err)
	}
	return c.TotalLessons, c.TotalQuizzes
}

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }

func mustIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
}

func imageFile() usecase.File {
	return usecase.File{Reader: strings.NewReader("\x89PNG"), Ext: ".png", ContentType: "image/png"}
}

func videoFile() *usecase.File {
	return &usecase.File{Reader: strings.NewReader("mp4"), Ext: ".mp4", ContentType: "video/mp4"}
}

func isConflict(err error) bool { return errors.Is(err, domain.ErrConflict) }

func imageFilePtr() *usecase.File {
	f := imageFile()
	return &f
}
