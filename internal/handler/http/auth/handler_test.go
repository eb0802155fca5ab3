package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"nammaraitha-backend/internal/domain"
	authService "nammaraitha-backend/internal/service/auth"
	"nammaraitha-backend/pkg/jwt"
	"nammaraitha-backend/pkg/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.InitDefault()
	os.Exit(m.Run())
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func newTestRouter(repo *mockUserRepo) *gin.Engine {
	manager := jwt.NewJWTManager("test-secret", 15*time.Minute, 24*time.Hour)
	svc := authService.NewService(repo, manager, 15*time.Minute)
	handler := NewHandler(svc)

	router := gin.New()
	router.POST("/v1/auth/register", handler.Register)
	router.POST("/v1/auth/login", handler.Login)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRegisterEndpoint_Created(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("GetByEmail", mock.Anything, "farmer@example.com").Return(nil, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	rec := postJSON(t, newTestRouter(repo), "/v1/auth/register", gin.H{
		"email":    "farmer@example.com",
		"name":     "Ravi",
		"password": "Str0ng!Pass",
		"role":     "farmer",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.NotEmpty(t, body.Data.AccessToken)
}

func TestRegisterEndpoint_DuplicateEmailConflict(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("GetByEmail", mock.Anything, "taken@example.com").Return(&domain.User{
		UserID: uuid.New(),
		Email:  "taken@example.com",
	}, nil)

	rec := postJSON(t, newTestRouter(repo), "/v1/auth/register", gin.H{
		"email":    "taken@example.com",
		"name":     "Ravi",
		"password": "Str0ng!Pass",
		"role":     "farmer",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterEndpoint_RejectsUnknownRole(t *testing.T) {
	rec := postJSON(t, newTestRouter(new(mockUserRepo)), "/v1/auth/register", gin.H{
		"email":    "x@example.com",
		"name":     "X Y",
		"password": "Str0ng!Pass",
		"role":     "admin",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterEndpoint_RejectsMalformedEmail(t *testing.T) {
	rec := postJSON(t, newTestRouter(new(mockUserRepo)), "/v1/auth/register", gin.H{
		"email":    "not-an-email",
		"name":     "X Y",
		"password": "Str0ng!Pass",
		"role":     "farmer",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginEndpoint_OK(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("Str0ng!Pass"), bcrypt.DefaultCost)
	require.NoError(t, err)

	repo := new(mockUserRepo)
	repo.On("GetByEmail", mock.Anything, "farmer@example.com").Return(&domain.User{
		UserID:       uuid.New(),
		Email:        "farmer@example.com",
		Name:         "Ravi",
		PasswordHash: string(hash),
		Role:         domain.RoleFarmer,
	}, nil)

	rec := postJSON(t, newTestRouter(repo), "/v1/auth/login", gin.H{
		"email":    "farmer@example.com",
		"password": "Str0ng!Pass",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginEndpoint_BadCredentialsUnauthorized(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, nil)

	rec := postJSON(t, newTestRouter(repo), "/v1/auth/login", gin.H{
		"email":    "nobody@example.com",
		"password": "Wr0ng!Pass",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
