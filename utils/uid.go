package utils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GenerateUserID 生成 XXX_XXXXXXXXXXX 格式的用户ID
func GenerateUserID() string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	id = id[:14]
	return fmt.Sprintf("%s_%s", id[:3], id[3:])
}
