package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/freightlink/backend/internal/config"
	"github.com/freightlink/backend/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jwtConfig = config.JWTConfig{Secret: "test-secret", Issuer: "freightlink"}

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		id, _ := CurrentUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id.String()})
	})
	r.GET("/", handlers...)
	return r
}

func request(t *testing.T, r http.Handler, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func token(t *testing.T, userID uuid.UUID, admin bool) string {
	t.Helper()
	tok, err := utils.SignToken(userID, "user@example.com", admin, jwtConfig.Secret, jwtConfig.Issuer, time.Minute)
	require.NoError(t, err)
	return tok
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter(AuthMiddleware(jwtConfig))
	userID := uuid.New()

	w := request(t, r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = request(t, r, "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = request(t, r, token(t, userID, false))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
}

func TestAdminMiddleware(t *testing.T) {
	r := newRouter(AuthMiddleware(jwtConfig), AdminMiddleware())

	w := request(t, r, token(t, uuid.New(), false))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = request(t, r, token(t, uuid.New(), true))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUserRateLimiterIsPerUser(t *testing.T) {
	rl := NewRateLimiter(0.001, 2, 0)
	defer rl.Stop()
	r := newRouter(AuthMiddleware(jwtConfig), rl.UserRateLimiterMiddleware())

	alice := token(t, uuid.New(), false)
	bob := token(t, uuid.New(), false)

	assert.Equal(t, http.StatusOK, request(t, r, alice).Code)
	assert.Equal(t, http.StatusOK, request(t, r, alice).Code)
	assert.Equal(t, http.StatusTooManyRequests, request(t, r, alice).Code)

	assert.Equal(t, http.StatusOK, request(t, r, bob).Code)
}

func TestRateLimiterCleanupForgetsIdleKeys(t *testing.T) {
	rl := NewRateLimiter(0.001, 1, 20*time.Millisecond)
	defer rl.Stop()

	assert.True(t, rl.Allow("k"))
	assert.False(t, rl.Allow("k"))

	assert.Eventually(t, func() bool {
		rl.mu.Lock()
		defer rl.mu.Unlock()
		return len(rl.visitors) == 0
	}, time.Second, 10*time.Millisecond)
	assert.True(t, rl.Allow("k"))
}
