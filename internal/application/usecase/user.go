package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/waste3d/learning-platform/internal/domain"
	"github.com/waste3d/learning-platform/internal/infrastructure/storage"
	"github.com/waste3d/learning-platform/internal/platform/logger"
	"github.com/waste3d/learning-platform/internal/platform/observability"
	"github.com/waste3d/learning-platform/internal/policy"
)

// PublicProfile is what other users may see about an account.
type PublicProfile struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Nickname  string      `json:"nickname"`
	Avatar    string      `json:"avatar"`
	Location  string      `json:"location"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
}

type UserUseCase struct {
	log      *logger.Logger
	users    UserStore
	policy   *policy.Engine
	uploader AssetUploader
	now      func() time.Time
}

func NewUserUseCase(log *logger.Logger, users UserStore, engine *policy.Engine, uploader AssetUploader) *UserUseCase {
	return &UserUseCase{
		log:      log.With("service", "UserUseCase"),
		users:    users,
		policy:   engine,
		uploader: uploader,
		now:      time.Now,
	}
}

func (uc *UserUseCase) GetMe(ctx context.Context, p domain.Principal) (*domain.User, error) {
	if err := uc.policy.Require(p, policy.ReadProfile, p.ID); err != nil {
		return nil, err
	}
	return uc.users.GetByID(ctx, p.ID)
}

// UpdateMe applies the profile allow-list. A new avatar replaces the old
// one; the old object is removed after the record is saved.
func (uc *UserUseCase) UpdateMe(ctx context.Context, p domain.Principal, upd domain.ProfileUpdate, avatar *File) (*domain.User, error) {
	ctx, span := observability.Tracer().Start(ctx, "UserUseCase.UpdateMe")
	defer span.End()

	if err := uc.policy.Require(p, policy.UpdateProfile, p.ID); err != nil {
		return nil, err
	}
	if err := validateProfile(upd); err != nil {
		return nil, err
	}
	current, err := uc.users.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	upd.Avatar = nil
	if avatar != nil {
		url, err := uc.uploader.Upload(ctx, avatar.Reader, storage.FolderAvatars, avatar.Ext, avatar.ContentType)
		if err != nil {
			return nil, err
		}
		upd.Avatar = &url
	}

	user, err := uc.users.UpdateProfile(ctx, p.ID, upd)
	if err != nil {
		return nil, err
	}
	if current.Avatar != "" && current.Avatar != user.Avatar {
		if err := uc.uploader.Delete(ctx, current.Avatar); err != nil {
			uc.log.Warn("Failed to delete old avatar", "user_id", p.ID, "error", err)
		}
	}
	return user, nil
}

// GetByID returns the public profile. Disabled accounts are reported as
// missing.
func (uc *UserUseCase) GetByID(ctx context.Context, id uuid.UUID) (*PublicProfile, error) {
	user, err := uc.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsDeleted {
		return nil, domain.ErrUserNotFound
	}
	return &PublicProfile{
		ID:        user.ID,
		Name:      user.Name,
		Nickname:  user.Nickname,
		Avatar:    user.Avatar,
		Location:  user.Location,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}, nil
}

// MakeTeacher promotes a student. Admins are never demoted by it.
func (uc *UserUseCase) MakeTeacher(ctx context.Context, p domain.Principal, id uuid.UUID) (*domain.User, error) {
	ctx, span := observability.Tracer().Start(ctx, "UserUseCase.MakeTeacher")
	defer span.End()

	if err := uc.policy.RequireRole(p, domain.RoleAdmin); err != nil {
		return nil, err
	}
	user, err := uc.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch user.Role {
	case domain.RoleTeacher:
		return user, nil
	case domain.RoleAdmin:
		return nil, fmt.Errorf("%w: user is an admin", domain.ErrInvalidState)
	}
	user, err = uc.users.SetRole(ctx, id, domain.RoleTeacher)
	if err != nil {
		return nil, err
	}
	uc.log.Info("User promoted to teacher", "user_id", id, "by", p.ID)
	return user, nil
}

// Disable soft-deletes an account. An admin can not disable themselves.
func (uc *UserUseCase) Disable(ctx context.Context, p domain.Principal, id uuid.UUID) error {
	ctx, span := observability.Tracer().Start(ctx, "UserUseCase.Disable")
	defer span.End()

	if err := uc.policy.RequireRole(p, domain.RoleAdmin); err != nil {
		return err
	}
	if id == p.ID {
		return fmt.Errorf("%w: can not disable your own account", domain.ErrInvalidState)
	}
	if err := uc.users.SetDisabled(ctx, id, true, uc.now().UTC()); err != nil {
		return err
	}
	uc.log.Info("User disabled", "user_id", id, "by", p.ID)
	return nil
}

func (uc *UserUseCase) Restore(ctx context.Context, p domain.Principal, id uuid.UUID) error {
	ctx, span := observability.Tracer().Start(ctx, "UserUseCase.Restore")
	defer span.End()

	if err := uc.policy.RequireRole(p, domain.RoleAdmin); err != nil {
		return err
	}
	if err := uc.users.SetDisabled(ctx, id, false, uc.now().UTC()); err != nil {
		return err
	}
	uc.log.Info("User restored", "user_id", id, "by", p.ID)
	return nil
}

func (uc *UserUseCase) SaveFCMToken(ctx context.Context, p domain.Principal, token string) (*domain.User, error) {
	if err := uc.policy.Require(p, policy.UpdateProfile, p.ID); err != nil {
		return nil, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: fcm token is required", domain.ErrValidation)
	}
	return uc.users.SetFCMToken(ctx, p.ID, token)
}

var genders = map[string]bool{"": true, "male": true, "female": true, "other": true}

func validateProfile(upd domain.ProfileUpdate) error {
	if upd.Name != nil {
		if n := strings.TrimSpace(*upd.Name); n == "" || len([]rune(n)) > 50 {
			return fmt.Errorf("%w: name must be 1-50 characters", domain.ErrValidation)
		}
	}
	if upd.Nickname != nil && len([]rune(strings.TrimSpace(*upd.Nickname))) > 30 {
		return fmt.Errorf("%w: nickname must be at most 30 characters", domain.ErrValidation)
	}
	if upd.Location != nil && len([]rune(strings.TrimSpace(*upd.Location))) > 100 {
		return fmt.Errorf("%w: location must be at most 100 characters", domain.ErrValidation)
	}
	if upd.Gender != nil && !genders[*upd.Gender] {
		return fmt.Errorf("%w: unsupported gender %q", domain.ErrValidation, *upd.Gender)
	}
	if upd.DateOfBirth != nil && upd.DateOfBirth.After(time.Now()) {
		return fmt.Errorf("%w: dateOfBirth is in the future", domain.ErrValidation)
	}
	return nil
}
