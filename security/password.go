package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id 参数配置
const (
	// 时间成本（迭代次数）
	ArgonTime = 1
	// 内存成本（KB）
	ArgonMemory = 64 * 1024
	// 并行度
	ArgonThreads = 4
	// 密钥长度
	ArgonKeyLen = 32
	// 盐长度
	ArgonSaltLen = 16
)

// GenerateSalt 生成随机盐
func GenerateSalt(length uint32) ([]byte, error) {
	salt := make([]byte, length)
	_, err := rand.Read(salt)
	if err != nil {
		return nil, fmt.Errorf("生成盐失败: %v", err)
	}
	return salt, nil
}

// HashPassword 使用Argon2id哈希密码
// 格式: $argon2id$v=19$m=65536,t=1,p=4$salt$hash
func HashPassword(password string, pepper string) (string, error) {
	salt, err := GenerateSalt(ArgonSaltLen)
	if err != nil {
		return "", err
	}

	// 组合密码：password + salt + pepper
	combined := password + string(salt) + pepper
	hash := argon2.IDKey([]byte(combined), salt, ArgonTime, ArgonMemory, ArgonThreads, ArgonKeyLen)

	saltB64 := base64.RawStdEncoding.EncodeToString(salt)
	hashB64 := base64.RawStdEncoding.EncodeToString(hash)

	encoded := fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		ArgonMemory, ArgonTime, ArgonThreads, saltB64, hashB64)

	return encoded, nil
}

// VerifyPassword 验证密码
func VerifyPassword(password string, pepper string, encodedHash string) (bool, error) {
	memory, time, threads, salt, hash, err := parseEncodedHash(encodedHash)
	if err != nil {
		return false, err
	}

	combined := password + string(salt) + pepper
	otherHash := argon2.IDKey([]byte(combined), salt, time, memory, threads, uint32(len(hash)))

	// 使用constant time比较防止时序攻击
	if subtle.ConstantTimeCompare(hash, otherHash) == 1 {
		return true, nil
	}
	return false, nil
}

// parseEncodedHash 解析编码的哈希字符串
func parseEncodedHash(encodedHash string) (memory, time uint32, threads uint8, salt, hash []byte, err error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return 0, 0, 0, nil, nil, fmt.Errorf("无效的哈希格式")
	}
	if parts[1] != "argon2id" {
		return 0, 0, 0, nil, nil, fmt.Errorf("不支持的哈希算法: %s", parts[1])
	}
	if parts[2] != "v=19" {
		return 0, 0, 0, nil, nil, fmt.Errorf("不支持的Argon2版本: %s", parts[2])
	}

	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("解析参数失败: %v", err)
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("解码盐失败: %v", err)
	}
	hash, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("解码哈希失败: %v", err)
	}

	return memory, time, threads, salt, hash, nil
}

// IsArgon2Hash 检查是否为Argon2哈希
func IsArgon2Hash(hash string) bool {
	return strings.HasPrefix(hash, "$argon2id$")
}
