package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/waste3d/learning-platform/internal/domain"
	"github.com/waste3d/learning-platform/internal/infrastructure/oauth"
	"github.com/waste3d/learning-platform/internal/infrastructure/security"
	"github.com/waste3d/learning-platform/internal/platform/logger"
	"github.com/waste3d/learning-platform/internal/platform/observability"
)

const minPasswordLen = 6

type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type AuthUseCase struct {
	log          *logger.Logger
	userRepo     UserStore
	tokenCache   TokenStore
	hasher       *security.PasswordHasher
	tokenManager TokenIssuer
	emailSender  Mailer
	google       GoogleAuthenticator
}

func NewAuthUseCase(
	log *logger.Logger,
	ur UserStore,
	tc TokenStore,
	h *security.PasswordHasher,
	tm TokenIssuer,
	es Mailer,
) *AuthUseCase {
	return &AuthUseCase{
		log:          log.With("service", "AuthUseCase"),
		userRepo:     ur,
		tokenCache:   tc,
		hasher:       h,
		tokenManager: tm,
		emailSender:  es,
	}
}

// WithGoogle enables sign-in with a Google account.
func (uc *AuthUseCase) WithGoogle(g GoogleAuthenticator) *AuthUseCase {
	uc.google = g
	return uc
}

func (uc *AuthUseCase) GoogleAuthURL(state string) (string, error) {
	if uc.google == nil {
		return "", oauth.ErrDisabled
	}
	return uc.google.AuthCodeURL(state)
}

// GoogleLogin exchanges the authorization code and signs the user in. The
// account is found by Google ID, then by verified email (and linked), and
// otherwise a verified student is created.
func (uc *AuthUseCase) GoogleLogin(ctx context.Context, code string) (Tokens, *domain.User, error) {
	ctx, span := observability.Tracer().Start(ctx, "AuthUseCase.GoogleLogin")
	defer span.End()

	if uc.google == nil {
		return Tokens{}, nil, oauth.ErrDisabled
	}
	if strings.TrimSpace(code) == "" {
		return Tokens{}, nil, fmt.Errorf("%w: missing authorization code", domain.ErrUnauthenticated)
	}
	profile, err := uc.google.Exchange(ctx, code)
	if err != nil {
		if errors.Is(err, oauth.ErrDisabled) {
			return Tokens{}, nil, err
		}
		uc.log.Warn("Google exchange failed", "error", err)
		return Tokens{}, nil, fmt.Errorf("%w: google sign-in failed", domain.ErrUnauthenticated)
	}
	email := strings.ToLower(strings.TrimSpace(profile.Email))
	if email == "" || !profile.EmailVerified {
		return Tokens{}, nil, fmt.Errorf("%w: google account has no verified email", domain.ErrUnauthenticated)
	}

	user, err := uc.googleAccount(ctx, profile, email)
	if err != nil {
		return Tokens{}, nil, err
	}
	tokens, err := uc.generateAndSaveTokens(ctx, user.ID)
	if err != nil {
		return Tokens{}, nil, err
	}
	uc.log.Info("Google sign-in", "user_id", user.ID)
	return tokens, user, nil
}

func (uc *AuthUseCase) googleAccount(ctx context.Context, profile oauth.GoogleProfile, email string) (*domain.User, error) {
	user, err := uc.userRepo.GetByGoogleID(ctx, profile.ID)
	if err == nil {
		if !user.EmailVerified {
			if err := uc.userRepo.MarkEmailVerified(ctx, user.ID); err != nil {
				return nil, err
			}
			user.EmailVerified = true
		}
		return user, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	user, err = uc.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return uc.userRepo.LinkGoogle(ctx, user.ID, profile.ID, profile.Picture)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	googleID := profile.ID
	user = &domain.User{
		ID:              uuid.New(),
		Name:            googleName(profile.Name, email),
		Email:           email,
		Avatar:          profile.Picture,
		Role:            domain.RoleStudent,
		EmailVerified:   true,
		GoogleID:        &googleID,
		IsGoogleAccount: true,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	uc.log.Info("User registered via Google", "user_id", user.ID)
	return user, nil
}

func googleName(name, email string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	if r := []rune(name); len(r) > 50 {
		name = string(r[:50])
	}
	return name
}

// Register creates an unverified student account and mails a verification
// link. A mail failure is logged, the account is kept.
func (uc *AuthUseCase) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	ctx, span := observability.Tracer().Start(ctx, "AuthUseCase.Register")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > 50 {
		return nil, fmt.Errorf("%w: name must be 1-50 characters", domain.ErrValidation)
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid email", domain.ErrValidation)
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := uc.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		ID:       uuid.New(),
		Name:     name,
		Email:    strings.ToLower(addr.Address),
		Password: hash,
		Role:     domain.RoleStudent,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := uc.sendVerification(ctx, user); err != nil {
		uc.log.Error("Failed to send verification email", "user_id", user.ID, "error", err)
	}
	uc.log.Info("User registered", "user_id", user.ID)
	return user, nil
}

func (uc *AuthUseCase) VerifyEmail(ctx context.Context, token string) error {
	digest := security.HashOpaqueToken(strings.TrimSpace(token))
	userIDStr, err := uc.tokenCache.GetVerifyToken(ctx, digest)
	if err != nil {
		return fmt.Errorf("%w: invalid or expired token", domain.ErrValidation)
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return fmt.Errorf("%w: invalid or expired token", domain.ErrValidation)
	}
	if err := uc.userRepo.MarkEmailVerified(ctx, userID); err != nil {
		return err
	}
	_ = uc.tokenCache.DeleteVerifyToken(ctx, digest)
	return nil
}

// ResendVerification is silent for unknown or already verified addresses.
func (uc *AuthUseCase) ResendVerification(ctx context.Context, email string) error {
	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if user.EmailVerified {
		return nil
	}
	if err := uc.sendVerification(ctx, user); err != nil {
		uc.log.Error("Failed to send verification email", "user_id", user.ID, "error", err)
	}
	return nil
}

// Login checks credentials only. Disabled accounts still receive tokens and
// are then denied by the policy engine on every action.
func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (Tokens, *domain.User, error) {
	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Tokens{}, nil, domain.ErrInvalidCredentials
		}
		return Tokens{}, nil, err
	}
	if err := uc.hasher.Compare(user.Password, password); err != nil {
		return Tokens{}, nil, domain.ErrInvalidCredentials
	}

	tokens, err := uc.generateAndSaveTokens(ctx, user.ID)
	if err != nil {
		return Tokens{}, nil, err
	}
	return tokens, user, nil
}

// Refresh rotates the refresh token: the old one is revoked.
func (uc *AuthUseCase) Refresh(ctx context.Context, oldRefreshToken string) (Tokens, error) {
	userID, err := uc.tokenManager.ValidateRefreshToken(oldRefreshToken)
	if err != nil {
		return Tokens{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	cachedID, err := uc.tokenCache.CheckRefresh(ctx, oldRefreshToken)
	if err != nil || cachedID != userID.String() {
		return Tokens{}, fmt.Errorf("%w: token revoked", domain.ErrUnauthenticated)
	}
	// Удаляем старый
	_ = uc.tokenCache.DeleteRefresh(ctx, oldRefreshToken)

	if _, err := uc.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Tokens{}, fmt.Errorf("%w: account no longer exists", domain.ErrUnauthenticated)
		}
		return Tokens{}, err
	}
	return uc.generateAndSaveTokens(ctx, userID)
}

func (uc *AuthUseCase) Logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return nil
	}
	return uc.tokenCache.DeleteRefresh(ctx, refreshToken)
}

// ForgotPassword never reveals whether the address is registered.
func (uc *AuthUseCase) ForgotPassword(ctx context.Context, email string) error {
	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	plain, digest, err := security.NewOpaqueToken()
	if err != nil {
		return err
	}
	if err := uc.tokenCache.SaveResetToken(ctx, digest, user.ID.String()); err != nil {
		return err
	}
	if err := uc.emailSender.SendResetEmail(ctx, user.Email, plain); err != nil {
		uc.log.Error("Failed to send reset email", "user_id", user.ID, "error", err)
	}
	return nil
}

func (uc *AuthUseCase) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	digest := security.HashOpaqueToken(strings.TrimSpace(token))
	userIDStr, err := uc.tokenCache.GetResetToken(ctx, digest)
	if err != nil {
		return fmt.Errorf("%w: invalid or expired token", domain.ErrValidation)
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return fmt.Errorf("%w: invalid or expired token", domain.ErrValidation)
	}

	hash, err := uc.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := uc.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	// Удаляем токен, чтобы его нельзя было использовать повторно
	_ = uc.tokenCache.DeleteResetToken(ctx, digest)
	return nil
}

func (uc *AuthUseCase) generateAndSaveTokens(ctx context.Context, userID uuid.UUID) (Tokens, error) {
	access, refresh, err := uc.tokenManager.Generate(userID)
	if err != nil {
		return Tokens{}, err
	}
	if err := uc.tokenCache.SaveRefresh(ctx, userID.String(), refresh, uc.tokenManager.RefreshTTL()); err != nil {
		return Tokens{}, err
	}
	return Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

func (uc *AuthUseCase) sendVerification(ctx context.Context, user *domain.User) error {
	plain, digest, err := security.NewOpaqueToken()
	if err != nil {
		return err
	}
	if err := uc.tokenCache.SaveVerifyToken(ctx, digest, user.ID.String()); err != nil {
		return err
	}
	return uc.emailSender.SendVerificationEmail(ctx, user.Email, user.Name, plain)
}

func validatePassword(p string) error {
	if len(p) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLen)
	}
	return nil
}
