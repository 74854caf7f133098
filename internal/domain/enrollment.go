package domain

import (
	"time"

	"github.com/google/uuid"
)

type Enrollment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_student_course" json:"student"`
	CourseID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_student_course;index" json:"course"`
	EnrolledAt time.Time `gorm:"not null" json:"enrolledAt"`
	Progress   float64   `gorm:"not null;default:0" json:"progress"` // 0-100

	CompletedLessons []uuid.UUID `gorm:"-" json:"completedLessons"`
	Course           *Course     `gorm:"-" json:"courseInfo,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CompletedLesson is one entry of an enrollment's completed-lesson set. The
// composite primary key makes a lesson count at most once.
type CompletedLesson struct {
	EnrollmentID uuid.UUID `gorm:"type:uuid;primaryKey"`
	LessonID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt    time.Time
}

// ComputeProgress returns the completion percentage. A course without
// lessons is treated as having one so the division is always defined.
func ComputeProgress(completed, totalLessons int) float64 {
	if totalLessons <= 0 {
		totalLessons = 1
	}
	p := float64(completed) / float64(totalLessons) * 100
	if p > 100 {
		return 100
	}
	return p
}
