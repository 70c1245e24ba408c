package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"pharmacy-storefront/common/logger"
	"pharmacy-storefront/models"
	"pharmacy-storefront/repository"
)

const invalidCredentials = "Invalid email or password"

// AuthService defines login, signup and identity lookup.
type AuthService interface {
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, *ServiceError)
	Signup(ctx context.Context, req *models.SignupRequest) (*models.AuthResponse, *ServiceError)
	CurrentUser(ctx context.Context, userID int64) (*models.User, *ServiceError)
}

type authServiceImpl struct {
	users  repository.UserRepository
	tokens *TokenService
	logger *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(users repository.UserRepository, tokens *TokenService, logger *zap.Logger) AuthService {
	return &authServiceImpl{users: users, tokens: tokens, logger: logger}
}

// Login checks the password against the stored bcrypt hash. Unknown emails and
// wrong passwords get the same answer.
func (s *authServiceImpl) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, *ServiceError) {
	user, hash, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			logger.For(ctx, s.logger).Error("Failed to look up user", zap.Error(err))
			return nil, internal("Login failed")
		}
		return nil, unauthorized(invalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(req.Password)); err != nil {
		logger.For(ctx, s.logger).Info("Login rejected", zap.Int64("user_id", user.ID))
		return nil, unauthorized(invalidCredentials)
	}
	return s.issue(user, "Login successful")
}

// Signup registers a new account and logs it in.
func (s *authServiceImpl) Signup(ctx context.Context, req *models.SignupRequest) (*models.AuthResponse, *ServiceError) {
	name := strings.TrimSpace(req.DisplayName())
	if name == "" {
		return nil, badRequest("Name is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.For(ctx, s.logger).Error("Failed to hash password", zap.Error(err))
		return nil, internal("Signup failed")
	}

	user := &models.User{
		Name:      name,
		Email:     strings.TrimSpace(req.Email),
		Phone:     req.Phone,
		Addresses: []models.Address{},
	}
	if err := s.users.Create(ctx, user, hash); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, &ServiceError{StatusCode: http.StatusConflict, Message: "Email already registered"}
		}
		logger.For(ctx, s.logger).Error("Failed to create user", zap.Error(err))
		return nil, internal("Signup failed")
	}
	logger.For(ctx, s.logger).Info("User signed up", zap.Int64("user_id", user.ID))
	return s.issue(user, "Signup successful")
}

func (s *authServiceImpl) CurrentUser(ctx context.Context, userID int64) (*models.User, *ServiceError) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, unauthorized("Unauthorized")
	}
	return user, nil
}

func (s *authServiceImpl) issue(user *models.User, msg string) (*models.AuthResponse, *ServiceError) {
	token, err := s.tokens.GenerateAccessToken(user.ID)
	if err != nil {
		s.logger.Error("Failed to sign token", zap.Error(err))
		return nil, internal("Failed to issue token")
	}
	return &models.AuthResponse{Token: token, User: *user, Message: msg}, nil
}

// SeedDemoAccount registers the demo user with its delivered sample order.
func SeedDemoAccount(ctx context.Context, users repository.UserRepository, orders repository.OrderRepository) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(repository.DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user := repository.DemoUser()
	if err := users.Create(ctx, &user, hash); err != nil {
		return err
	}
	return orders.Create(ctx, repository.DemoOrder(user))
}
