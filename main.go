package main

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skaum103/form-flow-backend/config"
	"github.com/Skaum103/form-flow-backend/middleware"
	"github.com/Skaum103/form-flow-backend/module/access"
	"github.com/Skaum103/form-flow-backend/module/analytics"
	"github.com/Skaum103/form-flow-backend/module/email"
	"github.com/Skaum103/form-flow-backend/module/session"
	"github.com/Skaum103/form-flow-backend/module/survey"
	"github.com/Skaum103/form-flow-backend/module/survey/question"
	"github.com/Skaum103/form-flow-backend/module/take"
	"github.com/Skaum103/form-flow-backend/module/user"
	"github.com/Skaum103/form-flow-backend/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {

	gin.SetMode(gin.ReleaseMode)

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.Load()

	// 初始化数据库与 Redis
	config.InitDB(cfg)
	db := config.DB
	defer db.Close()

	if err := config.InitRedis(cfg); err != nil {
		log.Fatalf("无法连接到 Redis: %v", err)
	}

	// 初始化验证码服务
	utils.InitCaptcha(cfg)

	// 初始化会话管理器
	sessionManager := session.NewManager(db, cfg.SessionTTL)
	log.Println("会话管理服务已启动")

	// 初始化各业务模块
	resolver := access.NewResolver(db)
	survey.Init(db, resolver)
	question.Init(db)
	take.Init(db)
	analytics.Init(db)
	user.Init(db, sessionManager, cfg)
	email.Init(db, cfg)
	log.Println("业务模块已初始化")

	// 定时清理：过期会话行 + 过期邮箱验证码
	startCleanupScheduler(cfg, sessionManager)

	router := gin.Default()

	// 设置可信代理
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Fatalf("设置可信代理失败: %v", err)
	}

	router.Use(gin.Recovery())
	router.Use(
		middleware.CorsMiddleware(cfg),
		middleware.RateLimitMiddleware(),
		middleware.SecurityHeadersMiddleware(cfg),
	)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	router.POST("/api/getCaptcha", utils.GetCaptchaHandler)
	router.POST("/api/verifyCaptcha", utils.VerifyCaptchaHandler)

	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/register", user.RegisterHandler)
		authGroup.POST("/login", user.LoginHandler)

		// 邮箱验证码相关路由
		authGroup.POST("/email/send-code", email.SendVerificationCodeHandler)
		authGroup.POST("/email/verify-code", email.VerifyEmailCodeHandler)
	}

	protectedGroup := router.Group("/api")
	protectedGroup.Use(middleware.AuthMiddleware(sessionManager))
	{
		protectedGroup.POST("/auth/logout", user.LogoutHandler)
		protectedGroup.POST("/auth/delete", user.DeleteUserHandler)
		protectedGroup.GET("/user/current", user.GetCurrentUserHandler)

		// 问卷相关API
		protectedGroup.POST("/survey/add", survey.CreateSurveyHandler)
		protectedGroup.GET("/survey/list", survey.GetSurveysHandler)
		protectedGroup.GET("/survey/detail/:id", survey.GetSurveyDetailHandler)

		// 问题相关API
		protectedGroup.GET("/survey/:surveyId/questions", question.GetSurveyQuestionsHandler)
		protectedGroup.PUT("/survey/:surveyId/questions", question.UpdateSurveyQuestionsHandler)

		// 答卷与统计API
		protectedGroup.POST("/survey/take", take.SubmitTakeHandler)
		protectedGroup.GET("/survey/stats/:id", analytics.GetSurveyStatsHandler)
	}

	startServer(router, cfg)
}

// startCleanupScheduler 定时删除已过期的会话行和验证码记录。
// 过期会话无论是否删除都会被验证拒绝，这里只是控制表的体积。
func startCleanupScheduler(cfg *config.Config, sm *session.Manager) {
	c := cron.New()
	_, err := c.AddFunc(cfg.CleanupCron, func() {
		if n, err := sm.CleanupExpired(); err != nil {
			log.Printf("清理过期会话失败: %v", err)
		} else if n > 0 {
			log.Printf("清理过期会话 %d 条", n)
		}
		if svc := email.DefaultService(); svc != nil {
			if err := svc.CleanupExpiredCodes(); err != nil {
				log.Printf("清理过期验证码失败: %v", err)
			}
		}
	})
	if err != nil {
		log.Printf("启动定时清理任务失败: %v", err)
		return
	}
	c.Start()
	log.Printf("定时清理任务已启动，Cron表达式: %s", cfg.CleanupCron)
}

// startServer 启动HTTP/HTTPS服务器
func startServer(router *gin.Engine, cfg *config.Config) {
	if cfg.HTTPSEnabled && cfg.SSLCertFile != "" && cfg.SSLKeyFile != "" {
		if _, err := os.Stat(cfg.SSLCertFile); os.IsNotExist(err) {
			log.Printf("警告: SSL证书文件不存在: %s", cfg.SSLCertFile)
			log.Printf("回退到HTTP模式")
			startHTTPServer(router, cfg.Port)
			return
		}
		if _, err := os.Stat(cfg.SSLKeyFile); os.IsNotExist(err) {
			log.Printf("警告: SSL私钥文件不存在: %s", cfg.SSLKeyFile)
			log.Printf("回退到HTTP模式")
			startHTTPServer(router, cfg.Port)
			return
		}

		startHTTPSServer(router, cfg.HTTPSPort, cfg.SSLCertFile, cfg.SSLKeyFile, cfg.HTTPRedirect, cfg.Port)
	} else {
		if !cfg.HTTPSEnabled {
			log.Printf("HTTPS已禁用，启动HTTP模式")
		} else {
			log.Printf("HTTPS配置不完整，回退到HTTP模式")
		}
		startHTTPServer(router, cfg.Port)
	}
}

// startHTTPServer 启动HTTP服务器
func startHTTPServer(router *gin.Engine, port string) {
	log.Printf("启动HTTP服务器，端口: %s", port)

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP服务器启动失败: %v", err)
		}
	}()

	gracefulShutdown(server, nil)
}

// startHTTPSServer 启动HTTPS服务器
func startHTTPSServer(router *gin.Engine, httpsPort, certFile, keyFile string, httpRedirect bool, httpPort string) {
	log.Printf("启动HTTPS服务器，端口: %s", httpsPort)

	httpsServer := &http.Server{
		Addr:    ":" + httpsPort,
		Handler: router,
		TLSConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
			CipherSuites: []uint16{
				tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
				tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
				tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			},
		},
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := httpsServer.ListenAndServeTLS(certFile, keyFile); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTPS服务器启动失败: %v", err)
		}
	}()

	var httpServer *http.Server
	if httpRedirect {
		log.Printf("启动HTTP重定向服务器，端口: %s -> HTTPS:%s", httpPort, httpsPort)

		redirectHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			httpsURL := "https://" + r.Host
			if httpsPort != "443" {
				httpsURL = "https://" + r.Host + ":" + httpsPort
			}
			httpsURL += r.RequestURI

			http.Redirect(w, r, httpsURL, http.StatusMovedPermanently)
		})

		httpServer = &http.Server{
			Addr:         ":" + httpPort,
			Handler:      redirectHandler,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			IdleTimeout:  15 * time.Second,
		}

		go func() {
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("HTTP重定向服务器启动失败: %v", err)
			}
		}()
	}

	gracefulShutdown(httpsServer, httpServer)
}

// gracefulShutdown 优雅关闭服务器
func gracefulShutdown(primary *http.Server, secondary *http.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := primary.Shutdown(ctx); err != nil {
		log.Printf("服务器强制关闭: %v", err)
	}
	if secondary != nil {
		if err := secondary.Shutdown(ctx); err != nil {
			log.Printf("重定向服务器强制关闭: %v", err)
		}
	}

	log.Println("服务器已关闭")
}
