package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

type User struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string     `gorm:"size:50;not null" json:"name"`
	Nickname      string     `gorm:"size:30" json:"nickname"`
	Email         string     `gorm:"uniqueIndex;not null;size:100" json:"email"`
	Password      string     `gorm:"not null" json:"-"`
	Avatar        string     `json:"avatar"`
	Location      string     `gorm:"size:100" json:"location"`
	DateOfBirth   *time.Time `json:"dateOfBirth,omitempty"`
	Gender        string     `gorm:"size:16" json:"gender,omitempty"`
	Role          Role       `gorm:"size:16;not null;index" json:"role"`
	EmailVerified bool       `gorm:"not null" json:"emailVerified"`
	IsDeleted     bool       `gorm:"not null;index" json:"isDeleted"`
	DisabledAt    *time.Time `json:"disabledAt,omitempty"`
	FCMToken      string     `gorm:"column:fcm_token" json:"-"`

	// NULL для аккаунтов без Google, поэтому уникальный индекс не мешает
	GoogleID        *string `gorm:"size:64;uniqueIndex" json:"-"`
	IsGoogleAccount bool    `gorm:"not null;default:false" json:"isGoogleAccount"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Principal is the request-scoped projection used for authorization.
func (u *User) Principal() Principal {
	return Principal{
		ID:            u.ID,
		Role:          u.Role,
		IsDeleted:     u.IsDeleted,
		EmailVerified: u.EmailVerified,
	}
}

// ProfileUpdate holds the fields a user may change on their own profile.
// Nil means "leave as is".
type ProfileUpdate struct {
	Name         *string    `json:"name"`
	Nickname     *string    `json:"nickname"`
	Location     *string    `json:"location"`
	DateOfBirth  *time.Time `json:"dateOfBirth"`
	Gender       *string    `json:"gender"`
	Avatar       *string    `json:"-"`
	DeleteAvatar bool       `json:"deleteAvatar"`
}
