package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/waste3d/learning-platform/internal/domain"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	result := r.db.WithContext(ctx).Create(user)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return domain.ErrUserAlreadyExists
		}
		return result.Error
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("google_id = ?", googleID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// LinkGoogle attaches a Google identity to an existing account and marks its
// email verified. An empty avatar keeps the current one.
func (r *UserRepository) LinkGoogle(ctx context.Context, id uuid.UUID, googleID, avatar string) (*domain.User, error) {
	cols := map[string]interface{}{
		"google_id":         googleID,
		"is_google_account": true,
		"email_verified":    true,
	}
	if avatar != "" {
		cols["avatar"] = avatar
	}
	if err := r.updateColumns(ctx, id, cols); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: google account already linked", domain.ErrConflict)
		}
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// UpdateProfile applies the self-service profile fields and returns the
// fresh record.
func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, upd domain.ProfileUpdate) (*domain.User, error) {
	cols := map[string]interface{}{}
	if upd.Name != nil {
		cols["name"] = strings.TrimSpace(*upd.Name)
	}
	if upd.Nickname != nil {
		cols["nickname"] = strings.TrimSpace(*upd.Nickname)
	}
	if upd.Location != nil {
		cols["location"] = strings.TrimSpace(*upd.Location)
	}
	if upd.DateOfBirth != nil {
		cols["date_of_birth"] = *upd.DateOfBirth
	}
	if upd.Gender != nil {
		cols["gender"] = *upd.Gender
	}
	if upd.Avatar != nil {
		cols["avatar"] = *upd.Avatar
	} else if upd.DeleteAvatar {
		cols["avatar"] = ""
	}
	if err := r.updateColumns(ctx, id, cols); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"password": hash})
}

func (r *UserRepository) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"email_verified": true})
}

func (r *UserRepository) SetRole(ctx context.Context, id uuid.UUID, role domain.Role) (*domain.User, error) {
	if err := r.updateColumns(ctx, id, map[string]interface{}{"role": role}); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// SetDisabled flips the soft-delete flag. disabledAt is cleared on restore.
func (r *UserRepository) SetDisabled(ctx context.Context, id uuid.UUID, disabled bool, at time.Time) error {
	cols := map[string]interface{}{"is_deleted": disabled, "disabled_at": nil}
	if disabled {
		cols["disabled_at"] = at
	}
	return r.updateColumns(ctx, id, cols)
}

func (r *UserRepository) SetFCMToken(ctx context.Context, id uuid.UUID, token string) (*domain.User, error) {
	if err := r.updateColumns(ctx, id, map[string]interface{}{"fcm_token": token}); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) updateColumns(ctx context.Context, id uuid.UUID, cols map[string]interface{}) error {
	if len(cols) == 0 {
		_, err := r.GetByID(ctx, id)
		return err
	}
	result := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(cols)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
