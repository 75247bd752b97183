// internal/services/auth_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nppdirect/pricing-backend/internal/config"
	"github.com/nppdirect/pricing-backend/internal/database"
	"github.com/nppdirect/pricing-backend/internal/models"
	"github.com/nppdirect/pricing-backend/internal/utils"
)

type AuthService struct {
	db  *gorm.DB
	cfg *config.Config
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Username        string          `json:"username" validate:"required,username"`
	Email           string          `json:"email" validate:"required,email"`
	Password        string          `json:"password" validate:"required,min=8"`
	UserType        models.UserType `json:"user_type" validate:"required"`
	ManufacturerIDs []uuid.UUID     `json:"manufacturer_ids,omitempty"`
}

type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // in seconds
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{
		db:  db,
		cfg: cfg,
	}
}

// Register creates a user account. Only admin-class callers may create other
// users; the handler enforces that, this validates the rest.
func (s *AuthService) Register(req *RegisterRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationf("invalid registration: %v", err)
	}

	var existingUser models.User
	if err := s.db.Where("email = ? OR username = ?", req.Email, req.Username).First(&existingUser).Error; err == nil {
		if existingUser.Email == req.Email {
			return nil, conflictf("user with this email already exists")
		}
		return nil, conflictf("username already taken")
	}

	switch req.UserType {
	case models.UserTypeAdmin, models.UserTypeNPP, models.UserTypeManufacturer, models.UserTypeDistributor:
	default:
		return nil, validationf("invalid user type %q", req.UserType)
	}
	if req.UserType == models.UserTypeManufacturer && len(req.ManufacturerIDs) == 0 {
		return nil, validationf("manufacturer users require at least one manufacturer assignment")
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		UserType: req.UserType,
		Status:   models.UserStatusActive,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		for _, manufacturerID := range req.ManufacturerIDs {
			assignment := &models.UserManufacturer{UserID: user.ID, ManufacturerID: manufacturerID}
			if err := tx.Create(assignment).Error; err != nil {
				return fmt.Errorf("failed to assign manufacturer: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.issueTokens(user)
}

func (s *AuthService) Login(req *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationf("invalid login: %v", err)
	}

	var user models.User
	if err := s.db.Preload("ManufacturerAssignments").
		Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationf("invalid username or password")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if user.Status == models.UserStatusSuspended {
		return nil, validationf("account is suspended")
	}

	if err := user.CheckPassword(req.Password); err != nil {
		return nil, validationf("invalid username or password")
	}

	now := time.Now()
	user.LastLoginAt = &now
	s.db.Model(&models.User{}).Where("id = ?", user.ID).Update("last_login_at", now)

	return s.issueTokens(&user)
}

func (s *AuthService) RefreshToken(refreshToken string) (*AuthResponse, error) {
	subject, err := utils.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, validationf("invalid refresh token")
	}

	userID, err := uuid.Parse(subject)
	if err != nil {
		return nil, validationf("invalid refresh token")
	}

	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if user.Status == models.UserStatusSuspended {
		return nil, validationf("account is suspended")
	}

	return s.issueTokens(user)
}

func (s *AuthService) GetUser(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("ManufacturerAssignments").First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("user %s", id)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

// PrincipalFor resolves the typed principal for a user, including the
// manufacturer assignments that scope what the user may see.
func (s *AuthService) PrincipalFor(user *models.User) models.Principal {
	manufacturerIDs := make([]uuid.UUID, 0, len(user.ManufacturerAssignments))
	for _, a := range user.ManufacturerAssignments {
		manufacturerIDs = append(manufacturerIDs, a.ManufacturerID)
	}
	return models.Principal{
		UserID:          user.ID,
		Username:        user.Username,
		Capability:      models.CapabilityFor(user.UserType),
		ManufacturerIDs: manufacturerIDs,
	}
}

func (s *AuthService) issueTokens(user *models.User) (*AuthResponse, error) {
	principal := s.PrincipalFor(user)

	accessToken, err := utils.GenerateJWT(principal, s.cfg.JWT.AccessTokenTTL)
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
