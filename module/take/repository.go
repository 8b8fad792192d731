package take

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Skaum103/form-flow-backend/model"
)

var (
	ErrSurveyNotFound = errors.New("问卷不存在")
	ErrUserNotFound   = errors.New("用户不存在")
)

// Repository 定义答卷数据访问接口
type Repository interface {
	// 按用户名取用户ID
	UserIDByUsername(username string) (string, error)

	// 校验问卷存在
	SurveyExists(surveyID int64) error

	// 保存答卷
	SaveTake(t *model.Take) error

	// 获取问卷的全部答卷，按提交顺序
	TakesBySurveyID(surveyID int64) ([]model.Take, error)
}

type repositoryImpl struct {
	db *sql.DB
}

// NewRepository 创建 Repository 实例
func NewRepository(db *sql.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) UserIDByUsername(username string) (string, error) {
	var id string
	err := r.db.QueryRow(`SELECT id FROM users WHERE username = ?`, username).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("查询用户失败: %v", err)
	}
	return id, nil
}

func (r *repositoryImpl) SurveyExists(surveyID int64) error {
	var one int
	err := r.db.QueryRow(`SELECT 1 FROM surveys WHERE id = ?`, surveyID).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrSurveyNotFound
		}
		return fmt.Errorf("查询问卷失败: %v", err)
	}
	return nil
}

func (r *repositoryImpl) SaveTake(t *model.Take) error {
	result, err := r.db.Exec(`
		INSERT INTO takes (user_id, survey_id, answers) VALUES (?, ?, ?)
	`, t.UserID, t.SurveyID, t.Answers)
	if err != nil {
		return fmt.Errorf("保存答卷失败: %v", err)
	}
	t.ID, _ = result.LastInsertId()
	return nil
}

func (r *repositoryImpl) TakesBySurveyID(surveyID int64) ([]model.Take, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, survey_id, answers
		FROM takes WHERE survey_id = ?
		ORDER BY id
	`, surveyID)
	if err != nil {
		return nil, fmt.Errorf("查询答卷失败: %v", err)
	}
	defer rows.Close()

	var takes []model.Take
	for rows.Next() {
		var t model.Take
		if err := rows.Scan(&t.ID, &t.UserID, &t.SurveyID, &t.Answers); err != nil {
			return nil, fmt.Errorf("读取答卷数据失败: %v", err)
		}
		takes = append(takes, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("读取答卷数据失败: %v", err)
	}
	return takes, nil
}
