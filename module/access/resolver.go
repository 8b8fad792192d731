package access

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Skaum103/form-flow-backend/model"
)

var (
	ErrUserNotFound = errors.New("用户不存在")
)

// publicGranteeID 存储层表示"公开共享"的保留哨兵，
// 不对应任何真实用户，只允许在本包的 SQL 边界出现
const publicGranteeID = "-1"

type GrantKind int

const (
	GrantUser GrantKind = iota
	GrantPublic
)

// GrantTarget 一条授权的目标：具体用户或公开
type GrantTarget struct {
	Kind   GrantKind
	UserID string // Kind == GrantUser 时有效
}

type Resolver struct {
	db *sql.DB
}

func NewResolver(db *sql.DB) *Resolver {
	return &Resolver{db: db}
}

// ResolveGrants 解析建问卷时提交的共享说明。
// "-1" 表示公开共享；否则按逗号拆成用户名列表做批量解析。
// 解析不到的用户名不再静默丢弃，而是原样返回给调用方；
// 属主本人无需显式授权行，列表里出现时直接跳过。
func (r *Resolver) ResolveGrants(spec string, ownerUsername string) ([]GrantTarget, []string, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil, nil
	}
	if spec == "-1" {
		return []GrantTarget{{Kind: GrantPublic}}, nil, nil
	}

	var names []string
	seen := make(map[string]bool)
	for _, name := range strings.Split(spec, ",") {
		name = strings.TrimSpace(name)
		if name == "" || name == ownerUsername || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, nil, nil
	}

	// 批量查询一次，避免逐名回表
	placeholders := strings.Repeat("?,", len(names))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(names))
	for i, n := range names {
		args[i] = n
	}

	rows, err := r.db.Query(`
		SELECT id, username FROM users WHERE username IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("批量查询用户失败: %v", err)
	}
	defer rows.Close()

	resolvedID := make(map[string]string)
	for rows.Next() {
		var id, username string
		if err := rows.Scan(&id, &username); err != nil {
			return nil, nil, fmt.Errorf("读取用户数据失败: %v", err)
		}
		resolvedID[username] = id
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("读取用户数据失败: %v", err)
	}

	var targets []GrantTarget
	var unresolved []string
	for _, name := range names {
		if id, ok := resolvedID[name]; ok {
			targets = append(targets, GrantTarget{Kind: GrantUser, UserID: id})
		} else {
			unresolved = append(unresolved, name)
		}
	}
	return targets, unresolved, nil
}

// GrantAccess 将授权目标落成 access 行。授权只增不减，没有"拒绝"授权
func (r *Resolver) GrantAccess(surveyID int64, targets []GrantTarget) error {
	if len(targets) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, t := range targets {
		granteeID := t.UserID
		if t.Kind == GrantPublic {
			granteeID = publicGranteeID
		}
		if _, err := tx.Exec(`
			INSERT INTO access (user_id, survey_id) VALUES (?, ?)
		`, granteeID, surveyID); err != nil {
			return fmt.Errorf("写入授权失败: %v", err)
		}
	}

	return tx.Commit()
}

// AccessibleSurveys 返回用户可见的全部问卷：
// 自有、被显式授权、被公开授权三者的并集，按问卷ID去重，自有在前。
// 会话有效但用户行已不存在属于数据一致性问题，按 ErrUserNotFound 上报
func (r *Resolver) AccessibleSurveys(username string) ([]model.Survey, error) {
	var userID string
	err := r.db.QueryRow(`SELECT id FROM users WHERE username = ?`, username).Scan(&userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("查询用户失败: %v", err)
	}

	surveys, seen, err := r.querySurveys(nil, `
		SELECT id, survey_name, description, owner_id
		FROM surveys WHERE owner_id = ?
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, err
	}

	// 显式授权与公开授权一条 SQL 取回，对应存储层的哨兵行
	granted, _, err := r.querySurveys(seen, `
		SELECT DISTINCT s.id, s.survey_name, s.description, s.owner_id
		FROM surveys s
		JOIN access a ON a.survey_id = s.id
		WHERE a.user_id = ? OR a.user_id = ?
		ORDER BY s.id
	`, userID, publicGranteeID)
	if err != nil {
		return nil, err
	}

	return append(surveys, granted...), nil
}

func (r *Resolver) querySurveys(seen map[int64]bool, query string, args ...interface{}) ([]model.Survey, map[int64]bool, error) {
	if seen == nil {
		seen = make(map[int64]bool)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("查询问卷失败: %v", err)
	}
	defer rows.Close()

	var surveys []model.Survey
	for rows.Next() {
		var s model.Survey
		var description sql.NullString
		if err := rows.Scan(&s.ID, &s.SurveyName, &description, &s.OwnerID); err != nil {
			return nil, nil, fmt.Errorf("读取问卷数据失败: %v", err)
		}
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		s.Description = description.String
		surveys = append(surveys, s)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("读取问卷数据失败: %v", err)
	}

	return surveys, seen, nil
}
