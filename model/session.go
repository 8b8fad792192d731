package model

import "time"

// Session 会话状态只有三种：有效、已过期、已删除。
// 过期由墙钟时间惰性判定，删除只能显式发生，没有复活。
type Session struct {
	ID           int64     `json:"id"`
	SessionToken string    `json:"sessionToken"` // 不透明随机令牌，全局唯一
	Username     string    `json:"username"`
	Expiration   time.Time `json:"expiration"`
}
