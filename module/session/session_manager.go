package session

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/Skaum103/form-flow-backend/model"

	"github.com/google/uuid"
)

// Manager 管理不透明会话令牌的签发、校验与删除。
// 过期只在校验时惰性判定，不做任何后台状态转移。
type Manager struct {
	db  *sql.DB
	ttl time.Duration
}

func NewManager(db *sql.DB, ttl time.Duration) *Manager {
	return &Manager{db: db, ttl: ttl}
}

// CreateSession 为用户签发新会话
// 令牌为 128 位随机 UUID，唯一性由 sessions.session_token 的唯一约束兜底
func (m *Manager) CreateSession(username string) (*model.Session, error) {
	session := &model.Session{
		SessionToken: uuid.NewString(),
		Username:     username,
		Expiration:   time.Now().Add(m.ttl),
	}

	result, err := m.db.Exec(`
		INSERT INTO sessions (session_token, username, expiration)
		VALUES (?, ?, ?)
	`, session.SessionToken, session.Username, session.Expiration)
	if err != nil {
		return nil, fmt.Errorf("创建会话失败: %v", err)
	}

	session.ID, _ = result.LastInsertId()
	return session, nil
}

// VerifySession 校验会话有效性
// 不存在与已过期都是正常结果，统一返回 false，绝不向调用方抛错
func (m *Manager) VerifySession(token string) bool {
	var expiration time.Time
	err := m.db.QueryRow(`
		SELECT expiration FROM sessions WHERE session_token = ?
	`, token).Scan(&expiration)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("查询会话失败: %v", err)
		}
		return false
	}

	return expiration.After(time.Now())
}

// GetSession 按令牌原样查找会话，不做过期检查；
// 供 VerifySession 通过后回取用户名使用，不存在时返回 (nil, nil)
func (m *Manager) GetSession(token string) (*model.Session, error) {
	var s model.Session
	err := m.db.QueryRow(`
		SELECT id, session_token, username, expiration
		FROM sessions WHERE session_token = ?
	`, token).Scan(&s.ID, &s.SessionToken, &s.Username, &s.Expiration)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("查询会话失败: %v", err)
	}
	return &s, nil
}

// DeleteSession 删除会话，令牌不存在时视为无事发生
func (m *Manager) DeleteSession(token string) error {
	_, err := m.db.Exec(`DELETE FROM sessions WHERE session_token = ?`, token)
	if err != nil {
		return fmt.Errorf("删除会话失败: %v", err)
	}
	return nil
}

// CleanupExpired 批量删除已过期的会话行。
// 运维动作：过期行本就会被 VerifySession 判为无效，删除不改变对外行为
func (m *Manager) CleanupExpired() (int64, error) {
	result, err := m.db.Exec(`DELETE FROM sessions WHERE expiration <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("清理过期会话失败: %v", err)
	}

	affected, _ := result.RowsAffected()
	if affected > 0 {
		log.Printf("已清理 %d 个过期会话", affected)
	}
	return affected, nil
}
