package auth

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"nammaraitha-backend/internal/domain"
	"nammaraitha-backend/pkg/jwt"
	"nammaraitha-backend/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InitDefault()
	os.Exit(m.Run())
}

// Mocks
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func newTestService(repo *MockUserRepository) *Service {
	manager := jwt.NewJWTManager("test-secret-key-for-testing", 15*time.Minute, 24*time.Hour)
	return NewService(repo, manager, 15*time.Minute)
}

const validPassword = "Str0ng!Pass"

func TestRegister_Success(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetByEmail", mock.Anything, "farmer@example.com").Return(nil, nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	svc := newTestService(repo)

	resp, err := svc.Register(context.Background(), &RegisterInput{
		Email:    "farmer@example.com",
		Name:     "Ravi",
		Password: validPassword,
		Role:     domain.RoleFarmer,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "farmer@example.com", resp.User.Email)
	assert.Equal(t, domain.RoleFarmer, resp.User.Role)
	repo.AssertExpectations(t)
}

func TestRegister_HashesPassword(t *testing.T) {
	repo := new(MockUserRepository)
	var created *domain.User
	repo.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.User) }).
		Return(nil)

	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), &RegisterInput{
		Email:    "farmer@example.com",
		Name:     "Ravi",
		Password: validPassword,
		Role:     domain.RoleFarmer,
	})

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.NotEqual(t, validPassword, created.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte(validPassword)))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetByEmail", mock.Anything, "taken@example.com").Return(&domain.User{
		UserID: uuid.New(),
		Email:  "taken@example.com",
	}, nil)

	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), &RegisterInput{
		Email:    "taken@example.com",
		Name:     "Ravi",
		Password: validPassword,
		Role:     domain.RoleFarmer,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "email already registered")
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_InvalidRole(t *testing.T) {
	svc := newTestService(new(MockUserRepository))

	_, err := svc.Register(context.Background(), &RegisterInput{
		Email:    "x@example.com",
		Name:     "X",
		Password: validPassword,
		Role:     "admin",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "farmer or retailer")
}

func TestRegister_WeakPassword(t *testing.T) {
	svc := newTestService(new(MockUserRepository))

	_, err := svc.Register(context.Background(), &RegisterInput{
		Email:    "x@example.com",
		Name:     "X",
		Password: "short",
		Role:     domain.RoleRetailer,
	})

	assert.Error(t, err)
}

func TestLogin_Success(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte(validPassword), bcrypt.DefaultCost)
	require.NoError(t, err)

	userID := uuid.New()
	repo := new(MockUserRepository)
	repo.On("GetByEmail", mock.Anything, "farmer@example.com").Return(&domain.User{
		UserID:       userID,
		Email:        "farmer@example.com",
		Name:         "Ravi",
		PasswordHash: string(hash),
		Role:         domain.RoleFarmer,
	}, nil)

	svc := newTestService(repo)

	resp, err := svc.Login(context.Background(), &LoginInput{
		Email:    "farmer@example.com",
		Password: validPassword,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, userID, resp.User.UserID)
}

func TestLogin_UnknownEmail(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, nil)

	svc := newTestService(repo)

	_, err := svc.Login(context.Background(), &LoginInput{
		Email:    "nobody@example.com",
		Password: validPassword,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid email or password")
}

func TestLogin_WrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte(validPassword), bcrypt.DefaultCost)
	require.NoError(t, err)

	repo := new(MockUserRepository)
	repo.On("GetByEmail", mock.Anything, "farmer@example.com").Return(&domain.User{
		UserID:       uuid.New(),
		Email:        "farmer@example.com",
		PasswordHash: string(hash),
		Role:         domain.RoleFarmer,
	}, nil)

	svc := newTestService(repo)

	_, err = svc.Login(context.Background(), &LoginInput{
		Email:    "farmer@example.com",
		Password: "Wr0ng!Pass",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid email or password")
}

func TestLogin_RepositoryError(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	svc := newTestService(repo)

	_, err := svc.Login(context.Background(), &LoginInput{
		Email:    "x@example.com",
		Password: validPassword,
	})

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "invalid email or password")
}

func TestGetProfile_Success(t *testing.T) {
	userID := uuid.New()
	repo := new(MockUserRepository)
	repo.On("GetByID", mock.Anything, userID).Return(&domain.User{
		UserID: userID,
		Email:  "farmer@example.com",
		Name:   "Ravi",
		Role:   domain.RoleFarmer,
	}, nil)

	svc := newTestService(repo)

	profile, err := svc.GetProfile(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, userID, profile.UserID)
	assert.Equal(t, "Ravi", profile.Name)
}

func TestGetProfile_NotFound(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetByID", mock.Anything, mock.Anything).Return(nil, nil)

	svc := newTestService(repo)

	_, err := svc.GetProfile(context.Background(), uuid.New())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestIssuedTokenCarriesProfileClaims(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	manager := jwt.NewJWTManager("test-secret-key-for-testing", 15*time.Minute, 24*time.Hour)
	svc := NewService(repo, manager, 15*time.Minute)

	resp, err := svc.Register(context.Background(), &RegisterInput{
		Email:    "retailer@example.com",
		Name:     "Meena",
		Password: validPassword,
		Role:     domain.RoleRetailer,
	})
	require.NoError(t, err)

	claims, err := manager.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "retailer@example.com", claims.Email)
	assert.Equal(t, "Meena", claims.Name)
	assert.Equal(t, domain.RoleRetailer, claims.Role)
}
