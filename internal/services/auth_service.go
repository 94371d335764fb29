// internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/rifas-backend/internal/config"
	"github.com/javajoker/rifas-backend/internal/models"
	"github.com/javajoker/rifas-backend/internal/store"
	"github.com/javajoker/rifas-backend/internal/utils"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidToken = errors.New("invalid or expired token")
)

type AuthService struct {
	store store.Store
	cfg   *config.Config
	now   func() time.Time
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
	DNI      string `json:"dni" validate:"omitempty,dni"`
	Address  string `json:"address" validate:"omitempty,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// UpdateProfileRequest is a partial patch; nil fields stay unchanged.
type UpdateProfileRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=100"`
	Phone   *string `json:"phone" validate:"omitempty,max=20"`
	DNI     *string `json:"dni" validate:"omitempty,dni"`
	Address *string `json:"address" validate:"omitempty,max=255"`
}

type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // in seconds
}

// storedUser is the persisted form of a user, including the password hash
// the public model never serializes.
type storedUser struct {
	models.User
	Hash string `json:"password_hash"`
}

type emailIndex struct {
	UserID string `json:"user_id"`
}

func NewAuthService(st store.Store, cfg *config.Config) *AuthService {
	return &AuthService{
		store: st,
		cfg:   cfg,
		now:   time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)

	// Validate request
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	user := &models.User{
		ID:        uuid.NewString(),
		Email:     req.Email,
		Name:      req.Name,
		Phone:     req.Phone,
		DNI:       req.DNI,
		Address:   strings.TrimSpace(req.Address),
		IsAdmin:   s.cfg.IsAdminEmail(req.Email),
		CreatedAt: s.now().UTC(),
	}

	// Set password
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Claim the email first; the create-only insert keeps it unique
	idx, err := encodeRecord(user.Email, 0, nil, emailIndex{UserID: user.ID})
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Put(ctx, store.CollectionUserEmail, idx); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to reserve email: %w", err)
	}

	if err := s.saveUser(ctx, user); err != nil {
		if derr := s.store.Delete(context.WithoutCancel(ctx), store.CollectionUserEmail, user.Email); derr != nil {
			logrus.WithError(derr).WithField("email", user.Email).Error("Failed to release email after failed registration")
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("User registered")

	return s.issueTokens(user)
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)

	// Validate request
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	user, err := s.findByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// Verify password
	if err := user.CheckPassword(req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	// Update last login time
	now := s.now().UTC()
	user.LastLoginAt = &now
	user.IsAdmin = s.cfg.IsAdminEmail(user.Email)
	if err := s.saveUser(ctx, user); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("Failed to record last login")
	}

	return s.issueTokens(user)
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	// Validate refresh token
	userID, err := utils.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.IsAdmin = s.cfg.IsAdminEmail(user.Email)

	return s.issueTokens(user)
}

func (s *AuthService) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	rec, err := s.store.Get(ctx, store.CollectionUsers, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	su, err := decodeRecord[storedUser](rec)
	if err != nil {
		return nil, err
	}
	user := su.User
	user.PasswordHash = su.Hash
	user.Version = rec.Version
	return &user, nil
}

// Attempts of the read-modify-write cycle when a concurrent login bumps the
// user's version.
const profileUpdateAttempts = 3

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*models.User, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
	}

	// Validate request
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= profileUpdateAttempts; attempt++ {
		user, err := s.GetUserByID(ctx, userID)
		if err != nil {
			return nil, err
		}

		// Update fields
		if req.Name != nil {
			user.Name = *req.Name
		}
		if req.Phone != nil {
			user.Phone = strings.TrimSpace(*req.Phone)
		}
		if req.DNI != nil {
			user.DNI = *req.DNI
		}
		if req.Address != nil {
			user.Address = strings.TrimSpace(*req.Address)
		}

		err = s.saveUser(ctx, user)
		if err == nil {
			logrus.WithField("user_id", user.ID).Info("Profile updated")
			return user, nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return nil, err
		}
		logrus.WithField("attempt", attempt).Debug("Profile changed concurrently, retrying")
	}

	return nil, ErrBusy
}

func (s *AuthService) findByEmail(ctx context.Context, email string) (*models.User, error) {
	rec, err := s.store.Get(ctx, store.CollectionUserEmail, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}
	idx, err := decodeRecord[emailIndex](rec)
	if err != nil {
		return nil, err
	}
	return s.GetUserByID(ctx, idx.UserID)
}

func (s *AuthService) saveUser(ctx context.Context, user *models.User) error {
	rec, err := encodeRecord(user.ID, user.Version, map[string]string{"email": user.Email},
		storedUser{User: *user, Hash: user.PasswordHash})
	if err != nil {
		return err
	}
	saved, err := s.store.Put(ctx, store.CollectionUsers, rec)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	user.Version = saved.Version
	return nil
}

func (s *AuthService) issueTokens(user *models.User) (*AuthResponse, error) {
	// Generate tokens
	accessToken, err := utils.GenerateJWT(user.ID, user.Email, user.IsAdmin, s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := utils.GenerateRefreshToken(user.ID, s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.cfg.JWT.AccessTokenTTL * 3600, // Convert hours to seconds
	}, nil
}
