package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestLimiterPoolAllowsBurst(t *testing.T) {
	pool := &limiterPool{}

	// 5 попыток проходят сразу
	for i := 0; i < loginAttempts; i++ {
		assert.True(t, pool.Allow("10.0.0.1"), "попытка %d должна пройти", i+1)
	}

	// шестая — нет
	assert.False(t, pool.Allow("10.0.0.1"))
}

func TestLimiterPoolPerKey(t *testing.T) {
	pool := &limiterPool{}

	for i := 0; i < loginAttempts; i++ {
		pool.Allow("10.0.0.1")
	}
	assert.False(t, pool.Allow("10.0.0.1"))

	// лимит считается на каждый IP отдельно
	assert.True(t, pool.Allow("10.0.0.2"))
}

func TestLoginRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// отдельный пул, чтобы не зависеть от других тестов
	loginLimiters = &limiterPool{}

	r := gin.New()
	r.POST("/login", LoginRateLimit(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	var lastCode int
	for i := 0; i < loginAttempts+1; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "192.168.1.7:1234"
		r.ServeHTTP(w, req)
		lastCode = w.Code
	}

	assert.Equal(t, http.StatusTooManyRequests, lastCode)
}
