package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nammaraitha-backend/pkg/jwt"
	"nammaraitha-backend/pkg/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.InitDefault()
	os.Exit(m.Run())
}

func newAuthRouter(manager *jwt.JWTManager) *gin.Engine {
	router := gin.New()
	router.GET("/protected", AuthMiddleware(manager), func(c *gin.Context) {
		userID, _ := c.Get("user_id")
		c.JSON(http.StatusOK, gin.H{
			"user_id": userID.(uuid.UUID).String(),
			"role":    c.GetString("role"),
		})
	})
	return router
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	manager := jwt.NewJWTManager("test-secret", 15*time.Minute, 24*time.Hour)
	userID := uuid.New()
	token, err := manager.GenerateAccessToken(userID, "farmer@example.com", "Ravi", "farmer")
	require.NoError(t, err)

	router := newAuthRouter(manager)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), userID.String())
	assert.Contains(t, rec.Body.String(), "farmer")
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	manager := jwt.NewJWTManager("test-secret", 15*time.Minute, 24*time.Hour)

	router := newAuthRouter(manager)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	manager := jwt.NewJWTManager("test-secret", 15*time.Minute, 24*time.Hour)

	router := newAuthRouter(manager)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "NotBearer token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	signer := jwt.NewJWTManager("other-secret", 15*time.Minute, 24*time.Hour)
	token, err := signer.GenerateAccessToken(uuid.New(), "x@example.com", "X", "farmer")
	require.NoError(t, err)

	manager := jwt.NewJWTManager("test-secret", 15*time.Minute, 24*time.Hour)
	router := newAuthRouter(manager)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole_Matching(t *testing.T) {
	router := gin.New()
	router.GET("/farmers-only",
		func(c *gin.Context) { c.Set("role", "farmer") },
		RequireRole("farmer"),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/farmers-only", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole_Mismatch(t *testing.T) {
	router := gin.New()
	router.GET("/farmers-only",
		func(c *gin.Context) { c.Set("role", "retailer") },
		RequireRole("farmer"),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/farmers-only", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
