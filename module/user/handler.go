package user

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Skaum103/form-flow-backend/config"
	"github.com/Skaum103/form-flow-backend/model"
	"github.com/Skaum103/form-flow-backend/module/session"
	"github.com/Skaum103/form-flow-backend/security"
	"github.com/Skaum103/form-flow-backend/utils"

	"github.com/gin-gonic/gin"
)

var (
	db            *sql.DB
	sessions      *session.Manager
	pepper        string
	secureCookies bool
	cookieDomain  string
)

// Init 注入数据库、会话管理器和启动时加载的配置
func Init(database *sql.DB, sm *session.Manager, cfg *config.Config) {
	db = database
	sessions = sm
	pepper = cfg.PasswordPepper
	secureCookies = cfg.Env == "production"
	cookieDomain = cfg.CookieDomain
}

// 统一设置会话Cookie（区分dev/prod）
func setSessionCookie(c *gin.Context, token string, expires time.Time) {
	maxAge := int(time.Until(expires).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}

	// SameSite 策略：生产用 None；开发用 Lax
	if secureCookies {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}

	c.SetCookie("session_token", token, maxAge, "/", cookieDomain, secureCookies, true)
}

func clearSessionCookie(c *gin.Context) {
	if secureCookies {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie("session_token", "", -1, "/", cookieDomain, secureCookies, true)
}

// 注册处理器
func RegisterHandler(c *gin.Context) {
	var req model.UserRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid request body.", err)
		return
	}
	if !utils.Verify(req.CaptchaId, req.CaptchaValue) {
		utils.SendError(c, http.StatusBadRequest, "Captcha verification failed.", nil)
		return
	}

	if len(req.Password) < 8 || len(req.Password) > 64 {
		utils.SendError(c, http.StatusBadRequest, "Password must be between 8 and 64 characters.", nil)
		return
	}
	if len(req.Username) < 3 || len(req.Username) > 12 {
		utils.SendError(c, http.StatusBadRequest, "Username must be between 3 and 12 characters.", nil)
		return
	}
	if !isValidUsername(req.Username) {
		utils.SendError(c, http.StatusBadRequest, "Username may only contain letters and digits.", nil)
		return
	}

	// 验证邮箱格式（如果提供）
	if req.Email != "" && !isValidEmail(req.Email) {
		utils.SendError(c, http.StatusBadRequest, "Invalid email address.", nil)
		return
	}

	// 检查用户名是否已存在
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM users WHERE username = ?", req.Username).Scan(&count)
	if err != nil {
		utils.LogError("检查用户名失败", err)
		utils.SendError(c, http.StatusInternalServerError, "Internal server error.", err)
		return
	}
	if count > 0 {
		utils.SendError(c, http.StatusBadRequest, "Username already exists.", nil)
		return
	}

	// 检查邮箱是否已存在（如果提供）
	if req.Email != "" {
		err = db.QueryRow("SELECT COUNT(*) FROM users WHERE email = ?", req.Email).Scan(&count)
		if err != nil {
			utils.LogError("检查邮箱失败", err)
			utils.SendError(c, http.StatusInternalServerError, "Internal server error.", err)
			return
		}
		if count > 0 {
			utils.SendError(c, http.StatusBadRequest, "Email already exists.", nil)
			return
		}
	}

	// 如果提供了邮箱，需要验证邮箱验证码
	if req.Email != "" {
		var verified bool
		var expiresAt time.Time
		err = db.QueryRow(`
			SELECT verified, expires_at FROM email_verifications
			WHERE email = ? AND code = ? AND purpose = 'register'
			ORDER BY created_at DESC LIMIT 1
		`, req.Email, req.EmailCode).Scan(&verified, &expiresAt)

		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				utils.SendError(c, http.StatusBadRequest, "Email verification code not found or expired.", nil)
				return
			}
			utils.SendError(c, http.StatusInternalServerError, "Internal server error.", err)
			return
		}
		if verified {
			utils.SendError(c, http.StatusBadRequest, "Verification code already used.", nil)
			return
		}
		if time.Now().After(expiresAt) {
			utils.SendError(c, http.StatusBadRequest, "Verification code expired.", nil)
			return
		}
	}

	// 使用Argon2id哈希密码
	hashedPassword, err := security.HashPassword(req.Password, pepper)
	if err != nil {
		utils.LogError("密码哈希失败", err)
		utils.SendError(c, http.StatusInternalServerError, "Internal server error.", err)
		return
	}

	userID := utils.GenerateUserID()

	// 开启事务
	tx, err := db.Begin()
	if err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Internal server error.", err)
		return
	}
	defer tx.Rollback()

	if req.Email != "" {
		_, err = tx.Exec("INSERT INTO users (id, username, password_hash, email) VALUES (?, ?, ?, ?)",
			userID, req.Username, hashedPassword, req.Email)
	} else {
		_, err = tx.Exec("INSERT INTO users (id, username, password_hash) VALUES (?, ?, ?)",
			userID, req.Username, hashedPassword)
	}
	if err != nil {
		utils.LogError("数据库写入失败", err)
		utils.SendError(c, http.StatusInternalServerError, "Internal server error.", err)
		return
	}

	// 标记验证码为已使用
	if req.Email != "" && req.EmailCode != "" {
		_, err = tx.Exec(`
			UPDATE email_verifications
			SET verified = TRUE, verified_at = NOW()
			WHERE email = ? AND code = ? AND purpose = 'register'
		`, req.Email, req.EmailCode)
		if err != nil {
			utils.LogError("更新验证状态失败", err)
			utils.SendError(c, http.StatusInternalServerError, "Internal server error.", err)
			return
		}
	}

	if err = tx.Commit(); err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Registration failed.", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully.",
		"userId":  userID,
	})
}

func isValidUsername(username string) bool {
	for _, c := range username {
		if !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

func isValidEmail(email string) bool {
	// 简单的邮箱格式验证
	if len(email) < 3 || len(email) > 255 {
		return false
	}
	atIndex := strings.Index(email, "@")
	if atIndex <= 0 || atIndex == len(email)-1 {
		return false
	}
	dotIndex := strings.LastIndex(email, ".")
	if dotIndex <= atIndex+1 || dotIndex == len(email)-1 {
		return false
	}
	return true
}

// 登录处理器
func LoginHandler(c *gin.Context) {
	var req model.UserLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid request body.", err)
		return
	}
	if !utils.Verify(req.CaptchaId, req.CaptchaValue) {
		utils.SendError(c, http.StatusBadRequest, "Captcha verification failed.", nil)
		return
	}

	var storedUser struct {
		ID             string
		PasswordHash   string
		FailedAttempts int
		LockedUntil    *time.Time
	}

	err := db.QueryRow("SELECT id, password_hash, failed_attempts, locked_until FROM users WHERE username = ?",
		req.Username).Scan(&storedUser.ID, &storedUser.PasswordHash, &storedUser.FailedAttempts, &storedUser.LockedUntil)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// 防止时序攻击
			security.VerifyPassword(req.Password, pepper, "$argon2id$v=19$m=65536,t=1,p=4$fakeSaltForTiming$fakeHashForTiming")
			utils.SendError(c, http.StatusUnauthorized, "Invalid username or password.", nil)
			return
		}
		utils.LogError("数据库查询失败", err)
		utils.SendError(c, http.StatusInternalServerError, "Internal server error.", err)
		return
	}

	// 检查账户是否被锁定
	if storedUser.LockedUntil != nil && storedUser.LockedUntil.After(time.Now()) {
		remaining := time.Until(*storedUser.LockedUntil).Round(time.Minute)
		utils.SendError(c, http.StatusTooManyRequests,
			fmt.Sprintf("Account locked. Try again in %d minutes.", int(remaining.Minutes())), nil)
		return
	}

	var passwordValid bool
	var passwordErr error
	if security.IsArgon2Hash(storedUser.PasswordHash) {
		passwordValid, passwordErr = security.VerifyPassword(req.Password, pepper, storedUser.PasswordHash)
	} else {
		passwordErr = fmt.Errorf("不支持的密码哈希格式")
	}

	if passwordErr != nil || !passwordValid {
		tx, err := db.Begin()
		if err != nil {
			utils.LogError("事务开启失败", err)
			utils.SendError(c, http.StatusInternalServerError, "Internal server error.", err)
			return
		}

		var currentAttempts int
		var currentLockedUntil *time.Time
		err = tx.QueryRow("SELECT failed_attempts, locked_until FROM users WHERE id = ? FOR UPDATE", storedUser.ID).
			Scan(&currentAttempts, &currentLockedUntil)
		if err != nil {
			tx.Rollback()
			utils.LogError("获取锁定状态失败", err)
			utils.SendError(c, http.StatusInternalServerError, "Internal server error.", err)
			return
		}

		if currentLockedUntil != nil && currentLockedUntil.After(time.Now()) {
			tx.Rollback()
			remaining := time.Until(*currentLockedUntil).Round(time.Minute)
			utils.SendError(c, http.StatusTooManyRequests,
				fmt.Sprintf("Account locked. Try again in %d minutes.", int(remaining.Minutes())), nil)
			return
		}

		newAttempts := currentAttempts + 1
		var updateErr error
		if newAttempts >= 5 {
			lockTime := time.Now().Add(10 * time.Minute)
			_, updateErr = tx.Exec("UPDATE users SET failed_attempts = ?, locked_until = ? WHERE id = ?",
				newAttempts, lockTime, storedUser.ID)
		} else {
			_, updateErr = tx.Exec("UPDATE users SET failed_attempts = ? WHERE id = ?",
				newAttempts, storedUser.ID)
		}
		if updateErr != nil {
			tx.Rollback()
			utils.LogError("更新尝试次数失败", updateErr)
			utils.SendError(c, http.StatusInternalServerError, "Internal server error.", updateErr)
			return
		}
		if err := tx.Commit(); err != nil {
			utils.LogError("提交事务失败", err)
			utils.SendError(c, http.StatusInternalServerError, "Internal server error.", err)
			return
		}

		if newAttempts >= 5 {
			utils.SendError(c, http.StatusTooManyRequests, "Account locked. Try again in 10 minutes.", nil)
		} else {
			utils.SendError(c, http.StatusUnauthorized,
				fmt.Sprintf("Invalid username or password. %d attempts remaining.", 5-newAttempts), nil)
		}
		return
	}

	// 登录成功，重置尝试次数
	if _, err := db.Exec("UPDATE users SET failed_attempts = 0, locked_until = NULL WHERE id = ?",
		storedUser.ID); err != nil {
		utils.LogError("重置登录尝试失败", err)
	}

	// 签发不透明会话令牌
	sess, err := sessions.CreateSession(req.Username)
	if err != nil {
		utils.LogError("创建会话失败", err)
		utils.SendError(c, http.StatusInternalServerError, "Internal server error.", err)
		return
	}

	setSessionCookie(c, sess.SessionToken, sess.Expiration)

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       "Login successful.",
		"session_token": sess.SessionToken,
		"expiration":    sess.Expiration,
	})
}

// 注销接口：删除会话记录并清除Cookie
func LogoutHandler(c *gin.Context) {
	token := c.GetHeader("X-Session-Token")
	if token == "" {
		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimPrefix(auth, "Bearer ")
		}
	}
	if token == "" {
		if cookieToken, err := c.Cookie("session_token"); err == nil {
			token = cookieToken
		}
	}
	if token == "" {
		utils.SendError(c, http.StatusBadRequest, "Session token is missing.", nil)
		return
	}

	// 不存在的令牌也视为成功（幂等）
	if err := sessions.DeleteSession(token); err != nil {
		utils.LogError("删除会话失败", err)
		utils.SendError(c, http.StatusInternalServerError, "Internal server error.", err)
		return
	}

	clearSessionCookie(c)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged out successfully.",
	})
}

// 注销账户：删除用户及其全部关联数据
func DeleteUserHandler(c *gin.Context) {
	username := c.MustGet("username").(string)

	var req model.UserDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid request body.", err)
		return
	}
	if req.Username != username {
		utils.SendError(c, http.StatusForbidden, "Username does not match the current session.", nil)
		return
	}

	var userID string
	err := db.QueryRow("SELECT id FROM users WHERE username = ?", username).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.SendError(c, http.StatusNotFound, "User not found.", nil)
			return
		}
		utils.SendError(c, http.StatusInternalServerError, "Internal server error.", err)
		return
	}

	tx, err := db.Begin()
	if err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Internal server error.", err)
		return
	}
	defer tx.Rollback()

	// 依次清理答卷、授权、名下问卷及其题目、会话，最后删除用户本体
	if _, err = tx.Exec("DELETE FROM takes WHERE user_id = ?", userID); err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Internal server error.", err)
		return
	}
	if _, err = tx.Exec("DELETE FROM access WHERE user_id = ?", userID); err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Internal server error.", err)
		return
	}
	if _, err = tx.Exec(`DELETE FROM questions WHERE survey_id IN (SELECT id FROM surveys WHERE owner_id = ?)`, userID); err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Internal server error.", err)
		return
	}
	if _, err = tx.Exec(`DELETE FROM access WHERE survey_id IN (SELECT id FROM surveys WHERE owner_id = ?)`, userID); err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Internal server error.", err)
		return
	}
	if _, err = tx.Exec(`DELETE FROM takes WHERE survey_id IN (SELECT id FROM surveys WHERE owner_id = ?)`, userID); err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Internal server error.", err)
		return
	}
	if _, err = tx.Exec("DELETE FROM surveys WHERE owner_id = ?", userID); err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Internal server error.", err)
		return
	}
	if _, err = tx.Exec("DELETE FROM sessions WHERE username = ?", username); err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Internal server error.", err)
		return
	}
	if _, err = tx.Exec("DELETE FROM users WHERE id = ?", userID); err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Internal server error.", err)
		return
	}

	if err = tx.Commit(); err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Internal server error.", err)
		return
	}

	clearSessionCookie(c)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User deleted successfully.",
	})
}

// 当前用户信息
func GetCurrentUserHandler(c *gin.Context) {
	username := c.MustGet("username").(string)

	var user model.User
	var email sql.NullString
	err := db.QueryRow("SELECT id, username, email, created_at FROM users WHERE username = ?", username).
		Scan(&user.ID, &user.Username, &email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// 会话有效但用户已被删除：数据一致性问题
			utils.SendError(c, http.StatusNotFound, "User not found.", nil)
			return
		}
		utils.SendError(c, http.StatusInternalServerError, "Internal server error.", err)
		return
	}
	if email.Valid {
		user.Email = email.String
	}

	c.JSON(http.StatusOK, user)
}
