package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Лимит попыток входа: 5 за 10 минут с одного IP.
// Хранится в памяти процесса и сбрасывается при рестарте.
const (
	loginAttempts = 5
	loginWindow   = 10 * time.Minute
)

type limiterPool struct {
	mu sync.Mutex
	m  map[string]*rate.Limiter
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.m == nil {
		p.m = make(map[string]*rate.Limiter)
	}
	if l, ok := p.m[key]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Every(loginWindow/loginAttempts), loginAttempts)
	p.m[key] = l
	return l
}

func (p *limiterPool) Allow(key string) bool {
	return p.get(key).Allow()
}

var loginLimiters = &limiterPool{}

// LoginRateLimit ограничивает попытки входа по IP клиента
func LoginRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !loginLimiters.Allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "слишком много попыток входа, попробуйте позже"})
			c.Abort()
			return
		}
		c.Next()
	}
}
