package email

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"

	"github.com/Skaum103/form-flow-backend/config"
	"github.com/Skaum103/form-flow-backend/utils"

	"github.com/gin-gonic/gin"
)

var (
	db      *sql.DB
	service *Service
)

// Init 初始化邮件服务
func Init(database *sql.DB, cfg *config.Config) {
	db = database
	service = NewService(database, cfg)
}

// DefaultService 获取邮件服务实例（供定时清理任务使用）
func DefaultService() *Service {
	return service
}

// SendVerificationCodeHandler 发送注册验证码（无需登录）
func SendVerificationCodeHandler(c *gin.Context) {
	if service == nil || !service.IsConfigured() {
		utils.SendError(c, http.StatusServiceUnavailable, "Email service is not configured.")
		return
	}

	var req struct {
		Email        string `json:"email" binding:"required,email"`
		CaptchaId    string `json:"captchaId" binding:"required"`
		CaptchaValue string `json:"captchaValue" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("请求绑定失败", err)
		utils.SendError(c, http.StatusBadRequest, "Invalid request body.")
		return
	}

	// 验证图形验证码
	if !utils.Verify(req.CaptchaId, req.CaptchaValue) {
		utils.LogError("验证码验证失败", fmt.Errorf("captchaId: %s", req.CaptchaId))
		utils.SendError(c, http.StatusBadRequest, "Captcha verification failed.")
		return
	}

	// 标准化邮箱地址
	email := strings.ToLower(strings.TrimSpace(req.Email))

	// 检查邮箱是否已被使用
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users WHERE email = ?", email).Scan(&count); err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Internal server error.", err)
		return
	}
	if count > 0 {
		utils.SendError(c, http.StatusBadRequest, "Email already exists.")
		return
	}

	if _, err := service.SendVerificationCode(email, PurposeRegister, ""); err != nil {
		utils.SendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Verification code sent.",
		"email":   email,
	})
}

// VerifyEmailCodeHandler 验证邮箱验证码
func VerifyEmailCodeHandler(c *gin.Context) {
	if service == nil {
		utils.SendError(c, http.StatusServiceUnavailable, "Email service is not configured.")
		return
	}

	var req struct {
		Email string `json:"email" binding:"required,email"`
		Code  string `json:"code" binding:"required,len=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid request body.")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	valid, err := service.VerifyCode(email, req.Code, PurposeRegister)
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, err.Error())
		return
	}
	if !valid {
		utils.SendError(c, http.StatusBadRequest, "Verification failed.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"email":    email,
		"verified": true,
	})
}
