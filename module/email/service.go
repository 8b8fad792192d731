package email

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/Skaum103/form-flow-backend/config"

	"github.com/resend/resend-go/v2"
)

// VerificationPurpose 验证目的类型
type VerificationPurpose string

const (
	PurposeRegister VerificationPurpose = "register"
)

// Service 邮件验证码服务，通过 Resend 发送
type Service struct {
	db         *sql.DB
	client     *resend.Client
	from       string
	replyTo    string
	codeExpiry time.Duration
}

// NewService 创建邮件服务实例
func NewService(db *sql.DB, cfg *config.Config) *Service {
	s := &Service{
		db:         db,
		from:       cfg.ResendFrom,
		replyTo:    cfg.ResendReplyTo,
		codeExpiry: 10 * time.Minute, // 验证码10分钟有效期
	}
	if cfg.ResendAPIKey != "" {
		s.client = resend.NewClient(cfg.ResendAPIKey)
	}
	return s
}

// IsConfigured 检查邮件服务是否已配置
func (s *Service) IsConfigured() bool {
	return s.client != nil && s.from != ""
}

// GenerateCode 生成6位数字验证码
func (s *Service) GenerateCode() (string, error) {
	const digits = "0123456789"
	code := make([]byte, 6)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		code[i] = digits[num.Int64()]
	}
	return string(code), nil
}

// SendVerificationCode 发送验证码邮件
func (s *Service) SendVerificationCode(email string, purpose VerificationPurpose, username string) (string, error) {
	if !s.IsConfigured() {
		return "", fmt.Errorf("邮件服务未配置")
	}

	code, err := s.GenerateCode()
	if err != nil {
		return "", fmt.Errorf("生成验证码失败: %v", err)
	}

	// 检查是否有1分钟内发送的验证码
	var existingCode string
	var createdAt time.Time
	err = s.db.QueryRow(`
		SELECT code, created_at FROM email_verifications
		WHERE email = ? AND purpose = ? AND verified = FALSE
		ORDER BY created_at DESC LIMIT 1
	`, email, purpose).Scan(&existingCode, &createdAt)

	if err == nil {
		if time.Since(createdAt) < 1*time.Minute {
			return "", fmt.Errorf("验证码已发送，请稍后再试")
		}
	}

	// 发送前先清除该邮箱和目的的所有未验证记录
	_, err = s.db.Exec(`
		DELETE FROM email_verifications
		WHERE email = ? AND purpose = ? AND verified = FALSE
	`, email, purpose)
	if err != nil {
		log.Printf("清除旧验证码记录失败: %v", err)
	}

	expiresAt := time.Now().Add(s.codeExpiry)
	result, err := s.db.Exec(`
		INSERT INTO email_verifications (email, code, purpose, expires_at)
		VALUES (?, ?, ?, ?)
	`, email, code, purpose, expiresAt)
	if err != nil {
		return "", fmt.Errorf("存储验证码失败: %v", err)
	}
	verificationID, _ := result.LastInsertId()

	subject, body := buildEmailContent(code, purpose, username)
	if err := s.send(email, subject, body); err != nil {
		// 发送失败时删除刚插入的验证码记录
		s.db.Exec("DELETE FROM email_verifications WHERE id = ?", verificationID)
		return "", fmt.Errorf("发送邮件失败: %v", err)
	}

	log.Printf("验证码邮件发送成功: Email=%s, Purpose=%s", email, purpose)
	return code, nil
}

// VerifyCode 验证验证码并标记为已使用
func (s *Service) VerifyCode(email string, code string, purpose VerificationPurpose) (bool, error) {
	var id int64
	var verified bool
	var expiresAt time.Time

	err := s.db.QueryRow(`
		SELECT id, verified, expires_at FROM email_verifications
		WHERE email = ? AND code = ? AND purpose = ?
		ORDER BY created_at DESC LIMIT 1
	`, email, code, purpose).Scan(&id, &verified, &expiresAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("验证码不存在或已过期")
		}
		return false, err
	}

	if verified {
		return false, fmt.Errorf("验证码已使用")
	}
	if time.Now().After(expiresAt) {
		return false, fmt.Errorf("验证码已过期")
	}

	_, err = s.db.Exec(`
		UPDATE email_verifications
		SET verified = TRUE, verified_at = NOW()
		WHERE id = ?
	`, id)
	if err != nil {
		return false, fmt.Errorf("更新验证状态失败: %v", err)
	}
	return true, nil
}

// CleanupExpiredCodes 清理过期超过24小时的验证码（定时任务）
func (s *Service) CleanupExpiredCodes() error {
	result, err := s.db.Exec(`
		DELETE FROM email_verifications
		WHERE expires_at < DATE_SUB(NOW(), INTERVAL 24 HOUR)
	`)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows > 0 {
		log.Printf("清理过期验证码: %d 条", rows)
	}
	return nil
}

func (s *Service) send(to, subject, body string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	}
	if s.replyTo != "" {
		params.ReplyTo = s.replyTo
	}

	sent, err := s.client.Emails.SendWithContext(context.Background(), params)
	if err != nil {
		return fmt.Errorf("resend发送失败: %v", err)
	}
	log.Printf("邮件通过Resend发送成功: ID=%s, To=%s", sent.Id, to)
	return nil
}

// buildEmailContent 构建邮件内容
func buildEmailContent(code string, purpose VerificationPurpose, username string) (string, string) {
	if username == "" {
		username = "用户"
	}
	var subject, body string

	switch purpose {
	case PurposeRegister:
		subject = "FormFlow - 注册验证码"
		body = fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #f8f9fa; padding: 30px; text-align: center; border-radius: 10px 10px 0 0; border-bottom: 3px solid #667eea; }
        .header h1 { margin: 0; font-size: 28px; font-weight: 600; color: #333; }
        .content { background: #f9f9f9; padding: 30px; border-radius: 0 0 10px 10px; }
        .code { font-size: 32px; font-weight: bold; color: #667eea; text-align: center; padding: 20px; background: white; border-radius: 8px; letter-spacing: 5px; margin: 20px 0; }
        .footer { text-align: center; color: #999; font-size: 12px; margin-top: 20px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>欢迎注册 FormFlow</h1>
        </div>
        <div class="content">
            <p>%s 您好！</p>
            <p>感谢您注册 FormFlow 问卷系统。您的验证码是：</p>
            <div class="code">%s</div>
            <p>验证码有效期为 <strong>10分钟</strong>，请尽快完成验证。</p>
            <p>如果这不是您本人的操作，请忽略此邮件。</p>
        </div>
        <div class="footer">
            <p>此邮件由系统自动发送，请勿回复。</p>
            <p>&copy; 2026 FormFlow. All rights reserved.</p>
        </div>
    </div>
</body>
</html>
`, username, code)
	}

	return subject, body
}
