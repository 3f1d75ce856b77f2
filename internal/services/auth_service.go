package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/arigatojournal/arigato-backend/internal/config"
	"github.com/arigatojournal/arigato-backend/internal/dto"
	"github.com/arigatojournal/arigato-backend/internal/identity"
	"github.com/arigatojournal/arigato-backend/internal/models"
	"github.com/arigatojournal/arigato-backend/internal/session"
)

var (
	ErrUserIDTaken        = errors.New("user id already taken")
	ErrInvalidCredentials = errors.New("invalid user id or password")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
)

// Handles are lowercase so mentions and lookups never depend on case.
var userIDPattern = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)

type AuthService struct {
	db       *gorm.DB
	cfg      *config.Config
	sessions *session.Store
}

func NewAuthService(db *gorm.DB, cfg *config.Config, sessions *session.Store) *AuthService {
	return &AuthService{db: db, cfg: cfg, sessions: sessions}
}

func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if !userIDPattern.MatchString(req.UserID) {
		return nil, errors.New("user id must be 3-30 lowercase letters, digits or underscores")
	}
	if req.Name == "" {
		return nil, errors.New("name is required")
	}
	if len(req.Password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}

	var existing models.User
	if err := s.db.WithContext(ctx).Where("user_id = ?", req.UserID).First(&existing).Error; err == nil {
		return nil, ErrUserIDTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		UserID:   req.UserID,
		Name:     req.Name,
		Password: string(hash),
		Avatar:   models.DefaultAvatar,
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.openSession(ctx, &user)
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("user_id = ?", req.UserID).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.openSession(ctx, &user)
}

func (s *AuthService) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	tokenHash := hashToken(req.RefreshToken)

	var stored models.RefreshToken
	if err := s.db.WithContext(ctx).Where("token_hash = ? AND revoked = false", tokenHash).First(&stored).Error; err != nil {
		return nil, ErrInvalidToken
	}

	if time.Now().After(stored.ExpiresAt) {
		s.db.Model(&stored).Update("revoked", true)
		return nil, ErrInvalidToken
	}

	s.db.Model(&stored).Update("revoked", true)

	var user models.User
	if err := s.db.WithContext(ctx).Where("user_id = ?", stored.UserID).First(&user).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	return s.openSession(ctx, &user)
}

// Logout revokes the refresh token and destroys the caller's session.
func (s *AuthService) Logout(ctx context.Context, p identity.Principal, req *dto.LogoutRequest) error {
	tokenHash := hashToken(req.RefreshToken)
	err := s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokenHash).
		Update("revoked", true).Error
	if err != nil {
		return err
	}

	if s.sessions != nil && p.SessionID != "" {
		if err := s.sessions.Clear(ctx, p.SessionID); err != nil {
			slog.Error("session clear failed",
				slog.String("user_id", p.UserID),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

// openSession mints a fresh session snapshot plus a token pair bound to it.
func (s *AuthService) openSession(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	sessionID := uuid.NewString()

	if s.sessions != nil {
		snap, err := loadSnapshot(ctx, s.db, user.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to build session snapshot: %w", err)
		}
		if err := s.sessions.Set(ctx, sessionID, snap); err != nil {
			return nil, fmt.Errorf("failed to store session: %w", err)
		}
	}

	accessToken, err := s.generateAccessToken(user, sessionID)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(ctx, user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: dto.UserResponse{
			UserID: user.UserID,
			Name:   user.Name,
			Avatar: user.Avatar,
		},
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User, sessionID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": user.UserID,
		"sid": sessionID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(ctx context.Context, user *models.User) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := base64.URLEncoding.EncodeToString(rawBytes)
	tokenHash := hashToken(rawToken)

	record := models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.UserID,
		TokenHash: tokenHash,
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshExpiry),
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
