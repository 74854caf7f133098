package usecase

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/waste3d/learning-platform/internal/domain"
	"github.com/waste3d/learning-platform/internal/infrastructure/oauth"
	"github.com/waste3d/learning-platform/internal/infrastructure/storage"
)

// CredentialVerifier checks a signed access token.
type CredentialVerifier interface {
	Verify(token string) (uuid.UUID, time.Time, error)
}

type AccountStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type UserStore interface {
	AccountStore
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error)
	LinkGoogle(ctx context.Context, id uuid.UUID, googleID, avatar string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, upd domain.ProfileUpdate) (*domain.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
	SetRole(ctx context.Context, id uuid.UUID, role domain.Role) (*domain.User, error)
	SetDisabled(ctx context.Context, id uuid.UUID, disabled bool, at time.Time) error
	SetFCMToken(ctx context.Context, id uuid.UUID, token string) (*domain.User, error)
}

type CourseStore interface {
	Create(ctx context.Context, course *domain.Course) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error)
	ListPublished(ctx context.Context, f domain.CourseFilter) ([]domain.Course, error)
	ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]domain.Course, error)
	ListAll(ctx context.Context) ([]domain.Course, error)
	Update(ctx context.Context, id uuid.UUID, cols map[string]interface{}) (*domain.Course, error)
	SetThumbnail(ctx context.Context, id uuid.UUID, url string) (*domain.Course, error)
	TogglePublish(ctx context.Context, id uuid.UUID) (*domain.Course, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// LessonStore.Create and Delete keep Course.TotalLessons in step within the
// same transaction.
type LessonStore interface {
	Create(ctx context.Context, lesson *domain.Lesson) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lesson, error)
	ListByCourse(ctx context.Context, courseID uuid.UUID, publishedOnly bool) ([]domain.Lesson, error)
	Update(ctx context.Context, id uuid.UUID, cols map[string]interface{}) (*domain.Lesson, error)
	TogglePublish(ctx context.Context, id uuid.UUID) (*domain.Lesson, error)
	Delete(ctx context.Context, lesson *domain.Lesson) error
}

type QuizStore interface {
	Create(ctx context.Context, quiz *domain.Quiz) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Quiz, error)
	ListByCourse(ctx context.Context, courseID uuid.UUID, publishedOnly bool) ([]domain.Quiz, error)
	Update(ctx context.Context, id uuid.UUID, cols map[string]interface{}) (*domain.Quiz, error)
	TogglePublish(ctx context.Context, id uuid.UUID) (*domain.Quiz, error)
	Delete(ctx context.Context, quiz *domain.Quiz) error
}

type EnrollmentStore interface {
	Create(ctx context.Context, e *domain.Enrollment) error
	FindByStudentAndCourse(ctx context.Context, studentID, courseID uuid.UUID) (*domain.Enrollment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Enrollment, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]domain.Enrollment, error)
	CompleteLesson(ctx context.Context, enrollmentID, lessonID uuid.UUID) (*domain.Enrollment, error)
}

type TokenStore interface {
	SaveRefresh(ctx context.Context, userID, refreshToken string, ttl time.Duration) error
	CheckRefresh(ctx context.Context, refreshToken string) (string, error)
	DeleteRefresh(ctx context.Context, refreshToken string) error
	SaveVerifyToken(ctx context.Context, digest, userID string) error
	GetVerifyToken(ctx context.Context, digest string) (string, error)
	DeleteVerifyToken(ctx context.Context, digest string) error
	SaveResetToken(ctx context.Context, digest, userID string) error
	GetResetToken(ctx context.Context, digest string) (string, error)
	DeleteResetToken(ctx context.Context, digest string) error
}

type TokenIssuer interface {
	Generate(userID uuid.UUID) (string, string, error)
	ValidateRefreshToken(token string) (uuid.UUID, error)
	RefreshTTL() time.Duration
}

type Mailer interface {
	SendVerificationEmail(ctx context.Context, toEmail, name, token string) error
	SendResetEmail(ctx context.Context, toEmail, token string) error
}

// GoogleAuthenticator runs the OAuth2 authorization-code flow against Google.
type GoogleAuthenticator interface {
	AuthCodeURL(state string) (string, error)
	Exchange(ctx context.Context, code string) (oauth.GoogleProfile, error)
}

type AssetUploader interface {
	Upload(ctx context.Context, r io.Reader, folder storage.Folder, ext, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
}

// File is an already validated upload handed over by the transport layer.
type File struct {
	Reader      io.Reader
	Ext         string
	ContentType string
}
