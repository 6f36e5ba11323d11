// Package accounts handles signup, login and token refresh.
package accounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/01moynul/storefront-golang/internal/apperr"
	"github.com/01moynul/storefront-golang/internal/auth"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/store"
)

const minPasswordLength = 6

type Service struct {
	users  store.UserStore
	tokens *auth.TokenManager
	log    *logrus.Entry
}

func NewService(users store.UserStore, tokens *auth.TokenManager, log *logrus.Entry) *Service {
	return &Service{users: users, tokens: tokens, log: log.WithField("component", "accounts")}
}

// AccessTTL is how long an access token (and its cookie) lives.
func (s *Service) AccessTTL() time.Duration { return s.tokens.AccessTTL }

// RefreshTTL is how long a refresh token (and its cookie) lives.
func (s *Service) RefreshTTL() time.Duration { return s.tokens.RefreshTTL }

// Session is a user together with freshly issued tokens.
type Session struct {
	User   *models.User
	Tokens auth.TokenPair
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
}

func (s *Service) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	// 1. --- Validate ---
	name := strings.TrimSpace(in.Name)
	email := models.NormalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, apperr.Validation("Name, email and password are required")
	}
	if !strings.Contains(email, "@") {
		return nil, apperr.Validation("Please provide a valid email address")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperr.Validation("Password must be at least %d characters long", minPasswordLength)
	}

	// 2. --- Hash the password ---
	var password models.Password
	if err := password.Set(in.Password); err != nil {
		return nil, apperr.Internal(err, "Internal server error")
	}

	role := in.Role
	if role == "" {
		role = models.RoleCustomer
	}
	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: password.Hash,
		Role:         role,
		CartItems:    []models.CartItem{},
	}

	// 3. --- Persist; the unique email index settles races ---
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Validation("User already exists")
		}
		return nil, apperr.Internal(err, "Internal server error")
	}
	s.log.WithField("userId", user.ID).Info("User signed up")

	return s.session(user)
}

func (s *Service) Login(ctx context.Context, email, plaintext string) (*Session, error) {
	user, err := s.users.FindUserByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Unauthorized("Invalid credentials")
		}
		return nil, apperr.Internal(err, "Internal server error")
	}

	password := models.Password{Hash: user.PasswordHash}
	ok, err := password.Matches(plaintext)
	if err != nil {
		return nil, apperr.Internal(err, "Internal server error")
	}
	if !ok {
		return nil, apperr.Unauthorized("Invalid credentials")
	}
	return s.session(user)
}

// Refresh exchanges a refresh token for a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apperr.Unauthorized("No refresh token found")
	}
	userID, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", apperr.Unauthorized("Invalid or expired refresh token. Please log in again.")
	}
	if _, err := s.users.FindUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", apperr.Unauthorized("Invalid or expired refresh token. Please log in again.")
		}
		return "", apperr.Internal(err, "Internal server error")
	}

	access, err := s.tokens.GenerateAccessToken(userID)
	if err != nil {
		return "", apperr.Internal(err, "Internal server error")
	}
	return access, nil
}

// Authenticate resolves an access token to its user.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	if accessToken == "" {
		return nil, apperr.Unauthorized("Unauthorized - No access token found")
	}
	userID, err := s.tokens.ValidateAccessToken(accessToken)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, apperr.Unauthorized("Unauthorized - Access token expired")
		}
		return nil, apperr.Unauthorized("Unauthorized - Invalid access token")
	}

	user, err := s.users.FindUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Unauthorized("Unauthorized - User not found")
		}
		return nil, apperr.Internal(err, "Internal server error")
	}
	return user, nil
}

func (s *Service) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("User profile not found.")
		}
		return nil, apperr.Internal(err, "Internal server error")
	}
	return user, nil
}

func (s *Service) session(user *models.User) (*Session, error) {
	pair, err := s.tokens.GeneratePair(user.ID)
	if err != nil {
		return nil, apperr.Internal(err, "Internal server error")
	}
	return &Session{User: user, Tokens: pair}, nil
}
