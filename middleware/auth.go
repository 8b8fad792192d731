package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/Skaum103/form-flow-backend/config"
	"github.com/Skaum103/form-flow-backend/module/session"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware 会话认证中间件。
// 令牌是不透明随机标识，有效性完全以 sessions 表为准：
// 缺失 → 400，无效或已过期 → 401。
// 校验通过后把 username 写入请求上下文供后续处理器使用
func AuthMiddleware(sm *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			sendError(c, http.StatusBadRequest, "Session token is missing.")
			return
		}

		if !sm.VerifySession(token) {
			sendError(c, http.StatusUnauthorized, "Unauthorized or session expired.")
			return
		}

		// 校验已通过，这里只是回取用户名
		s, err := sm.GetSession(token)
		if err != nil || s == nil {
			log.Printf("回取会话失败: %v", err)
			sendError(c, http.StatusUnauthorized, "Unauthorized or session expired.")
			return
		}

		c.Set("username", s.Username)
		c.Set("session_token", token)
		c.Next()
	}
}

// extractToken 依次尝试 Authorization: Bearer、Cookie、自定义头
func extractToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	if cookieToken, err := c.Cookie("session_token"); err == nil && cookieToken != "" {
		return cookieToken
	}
	return c.GetHeader("X-Session-Token")
}

func sendError(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, gin.H{
		"success": false,
		"message": msg,
	})
}

func CorsMiddleware(cfg *config.Config) gin.HandlerFunc {
	isDev := cfg.Env != "production"

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		// 根据不同 Origin 进行缓存区分
		c.Writer.Header().Add("Vary", "Origin")

		allowed := false
		for _, allowedOrigin := range cfg.AllowedOrigins {
			if origin == allowedOrigin {
				allowed = true
				break
			}
		}
		// 开发环境放宽：允许本机任意端口
		if !allowed && isDev && origin != "" &&
			(strings.HasPrefix(origin, "http://localhost:") ||
				strings.HasPrefix(origin, "http://127.0.0.1:")) {
			allowed = true
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Session-Token, X-Requested-With, Accept")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func SecurityHeadersMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 基本安全头部
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
		c.Writer.Header().Set("X-Frame-Options", "DENY")
		c.Writer.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// HSTS - 在生产环境启用
		if cfg.Env == "production" {
			c.Writer.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
		}

		c.Next()
	}
}
