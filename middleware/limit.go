package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/Skaum103/form-flow-backend/model"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// 每个来源 IP 一个令牌桶；长期不活跃的桶会被回收
const (
	limitPerSecond = 100
	limitBurst     = 200
	limiterIdleTTL = 2 * time.Hour
)

var (
	limiterMu sync.Mutex
	limiters  = make(map[string]*model.IpLimiter)
)

func limiterFor(ip string) *rate.Limiter {
	limiterMu.Lock()
	defer limiterMu.Unlock()

	l, ok := limiters[ip]
	if !ok {
		l = &model.IpLimiter{
			Limiter: rate.NewLimiter(rate.Limit(limitPerSecond), limitBurst),
		}
		limiters[ip] = l
	}
	l.LastActive = time.Now()
	return l.Limiter
}

func reapIdleLimiters() {
	for {
		time.Sleep(1 * time.Hour)
		limiterMu.Lock()
		now := time.Now()
		for ip, l := range limiters {
			if now.Sub(l.LastActive) > limiterIdleTTL {
				delete(limiters, ip)
			}
		}
		limiterMu.Unlock()
	}
}

// RateLimitMiddleware 按来源IP限流
func RateLimitMiddleware() gin.HandlerFunc {
	go reapIdleLimiters()

	return func(c *gin.Context) {
		if !limiterFor(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "Too many requests. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
