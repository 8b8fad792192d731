package model

import "time"

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`        // 唯一用户名，创建后不可变
	Email        string    `json:"email,omitempty"` // 唯一邮箱
	PasswordHash string    `json:"-"`               // Argon2id 哈希
	CreatedAt    time.Time `json:"createdAt,omitempty"`
}

type UserRegisterRequest struct {
	Username     string `json:"username" binding:"required"`
	Password     string `json:"password" binding:"required"`
	Email        string `json:"email"`
	EmailCode    string `json:"emailCode"` // 邮箱验证码（提供邮箱时必填）
	CaptchaId    string `json:"captchaId"`
	CaptchaValue string `json:"captchaValue"`
}

type UserLoginRequest struct {
	Username     string `json:"username" binding:"required"`
	Password     string `json:"password" binding:"required"`
	CaptchaId    string `json:"captchaId"`
	CaptchaValue string `json:"captchaValue"`
}

type UserDeleteRequest struct {
	Username string `json:"username" binding:"required"`
}
