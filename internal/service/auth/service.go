package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"nammaraitha-backend/internal/domain"
	"nammaraitha-backend/pkg/jwt"
	"nammaraitha-backend/pkg/logger"
	"nammaraitha-backend/pkg/metrics"
	"nammaraitha-backend/pkg/password"
)

// UserRepository interface
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// Service handles signup, login and token issuance
type Service struct {
	userRepo   UserRepository
	jwtManager *jwt.JWTManager
	tokenTTL   time.Duration
}

// NewService creates a new auth service
func NewService(userRepo UserRepository, jwtManager *jwt.JWTManager, tokenTTL time.Duration) *Service {
	return &Service{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		tokenTTL:   tokenTTL,
	}
}

// RegisterInput contains signup data
type RegisterInput struct {
	Email    string
	Name     string
	Password string
	Role     string
}

// Register creates a profile with the given role and issues a token
func (s *Service) Register(ctx context.Context, input *RegisterInput) (*domain.AuthResponse, error) {
	if input.Role != domain.RoleFarmer && input.Role != domain.RoleRetailer {
		return nil, fmt.Errorf("role must be farmer or retailer")
	}

	if validationErrs, err := password.Validate(input.Password, password.DefaultRequirements()); err != nil {
		return nil, fmt.Errorf("failed to validate password: %w", err)
	} else if len(validationErrs) > 0 {
		return nil, validationErrs[0]
	}

	existing, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		UserID:       uuid.New(),
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: string(hash),
		Role:         input.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		metrics.AuthSignupTotal.WithLabelValues(input.Role, "error").Inc()
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	metrics.AuthSignupTotal.WithLabelValues(input.Role, "success").Inc()

	logger.Info("User registered",
		zap.String("user_id", user.UserID.String()),
		zap.String("role", user.Role))

	return s.issueToken(user)
}

// LoginInput contains login credentials
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and issues a token
func (s *Service) Login(ctx context.Context, input *LoginInput) (*domain.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		metrics.AuthLoginFailedTotal.Inc()
		return nil, fmt.Errorf("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		metrics.AuthLoginFailedTotal.Inc()
		return nil, fmt.Errorf("invalid email or password")
	}

	metrics.AuthLoginSuccessTotal.Inc()
	return s.issueToken(user)
}

// GetProfile retrieves the caller's profile
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}
	return user.ToResponse(), nil
}

func (s *Service) issueToken(user *domain.User) (*domain.AuthResponse, error) {
	token, err := s.jwtManager.GenerateAccessToken(user.UserID, user.Email, user.Name, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &domain.AuthResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.tokenTTL.Seconds()),
		User:        *user.ToResponse(),
	}, nil
}
