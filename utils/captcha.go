package utils

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/Skaum103/form-flow-backend/config"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/mojocn/base64Captcha"
)

// ========== 验证码相关 ========== //

var (
	captchaStore   base64Captcha.Store = base64Captcha.DefaultMemStore
	captchaEnabled                     = true
	captchaLevel                       = 2
)

const captchaTTL = 5 * time.Minute

// redisCaptchaStore 用 Redis 存验证码答案，多实例部署时共享
type redisCaptchaStore struct {
	client *redis.Client
}

func (s *redisCaptchaStore) Set(id string, value string) error {
	return s.client.Set(context.Background(), "captcha:"+id, value, captchaTTL).Err()
}

func (s *redisCaptchaStore) Get(id string, clear bool) string {
	ctx := context.Background()
	key := "captcha:" + id
	value, err := s.client.Get(ctx, key).Result()
	if err != nil {
		return ""
	}
	if clear {
		s.client.Del(ctx, key)
	}
	return value
}

func (s *redisCaptchaStore) Verify(id, answer string, clear bool) bool {
	return answer != "" && s.Get(id, clear) == answer
}

// InitCaptcha 初始化验证码模块；Redis 可用时用 Redis 存储，否则退回内存
func InitCaptcha(cfg *config.Config) {
	captchaEnabled = cfg.CaptchaEnabled
	captchaLevel = cfg.CaptchaLevel
	if config.RedisClient != nil {
		captchaStore = &redisCaptchaStore{client: config.RedisClient}
	} else {
		log.Println("Redis 未初始化，验证码使用内存存储")
	}
}

// GetCaptchaHandler 获取验证码图片接口
func GetCaptchaHandler(c *gin.Context) {
	driver := base64Captcha.NewDriverString(
		60,           // 高度
		154,          // 宽度
		captchaLevel, // 噪点数量
		captchaLevel, // 干扰线数量
		4,            // 长度
		"1234567890", // 字符集
		nil,          // 背景色
		nil,          // 字体存储
		nil,          // 字体
	)
	captcha := base64Captcha.NewCaptcha(driver, captchaStore)
	id, b64s, _, err := captcha.Generate()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 0, "msg": "验证码生成失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 1, "data": b64s, "captchaId": id, "msg": "success"})
}

// VerifyCaptchaHandler 校验验证码接口
func VerifyCaptchaHandler(c *gin.Context) {
	var req struct {
		CaptchaId    string `json:"captchaId"`
		CaptchaValue string `json:"captchaValue"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 0, "msg": "参数错误"})
		return
	}
	if Verify(req.CaptchaId, req.CaptchaValue) {
		c.JSON(http.StatusOK, gin.H{"code": 1, "msg": "ok"})
	} else {
		c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "验证码错误"})
	}
}

func Verify(captchaId, captchaValue string) bool {
	if !captchaEnabled {
		return true
	}
	return captchaStore.Verify(captchaId, captchaValue, true)
}
