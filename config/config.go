package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 进程级配置，启动时加载一次后只读，
// 通过构造函数/Init 显式传递给各模块，不使用全局开关
type Config struct {
	Env          string // dev | production
	Port         string
	CookieDomain string //（可空）

	HTTPSEnabled bool
	HTTPSPort    string
	SSLCertFile  string
	SSLKeyFile   string
	HTTPRedirect bool

	DBUser     string
	DBPassword string
	DBHost     string
	DBName     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionTTL     time.Duration // 会话有效期
	PasswordPepper string

	CaptchaEnabled bool
	CaptchaLevel   int

	ResendAPIKey  string
	ResendFrom    string
	ResendReplyTo string

	TrustedProxies []string
	AllowedOrigins []string
	CleanupCron    string // 过期会话/验证码清理的 Cron 表达式
}

// Load 从环境变量读取配置（.env 由 main 先行加载）
func Load() *Config {
	cfg := &Config{
		Env:          strings.ToLower(getEnv("ENV", "dev")),
		Port:         getEnv("PORT", "11333"),
		CookieDomain: os.Getenv("COOKIE_DOMAIN"),

		HTTPSEnabled: os.Getenv("HTTPS_ENABLED") == "true",
		HTTPSPort:    getEnv("HTTPS_PORT", "443"),
		SSLCertFile:  os.Getenv("SSL_CERT_FILE"),
		SSLKeyFile:   os.Getenv("SSL_KEY_FILE"),
		HTTPRedirect: os.Getenv("HTTP_REDIRECT") == "true",

		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBHost:     getEnv("DB_HOST", "127.0.0.1:3306"),
		DBName:     getEnv("DB_NAME", "formflow"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		SessionTTL:     24 * time.Hour,
		PasswordPepper: os.Getenv("PASSWORD_PEPPER"),

		CaptchaEnabled: getEnv("CAPTCHA_ENABLED", "true") == "true",
		CaptchaLevel:   getEnvInt("CAPTCHA_LEVEL", 2),

		ResendAPIKey:  os.Getenv("RESEND_API_KEY"),
		ResendFrom:    getEnv("RESEND_FROM_EMAIL", "FormFlow <onboarding@resend.dev>"),
		ResendReplyTo: os.Getenv("RESEND_REPLY_TO"),

		CleanupCron: getEnv("CLEANUP_CRON", "@hourly"),
	}

	if v := os.Getenv("SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.SessionTTL = d
		}
	}

	cfg.TrustedProxies = loadTrustedProxies()
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.AllowedOrigins = strings.Split(v, ",")
	}

	return cfg
}

// loadTrustedProxies 加载可信代理列表
func loadTrustedProxies() []string {
	proxiesEnv := os.Getenv("TRUSTED_PROXIES")
	if proxiesEnv == "" {
		// 默认：只信任本地回环地址
		return []string{"127.0.0.1"}
	}
	// 多个代理用逗号分隔
	return strings.Split(proxiesEnv, ",")
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}
