package survey

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Skaum103/form-flow-backend/model"
	"github.com/Skaum103/form-flow-backend/module/access"
	"github.com/Skaum103/form-flow-backend/utils"

	"github.com/gin-gonic/gin"
)

var (
	ErrSurveyNotFound = errors.New("问卷不存在")
)

var (
	db       *sql.DB
	resolver *access.Resolver
)

// Init 初始化问卷模块
func Init(database *sql.DB, r *access.Resolver) {
	db = database
	resolver = r
}

// CreateSurveyHandler 创建问卷
// POST /api/survey/add
func CreateSurveyHandler(c *gin.Context) {
	username := c.MustGet("username").(string)

	var req model.CreateSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "无效的问卷数据", err)
		return
	}

	var ownerID string
	err := db.QueryRow(`SELECT id FROM users WHERE username = ?`, username).Scan(&ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			utils.SendError(c, http.StatusBadRequest, "用户不存在")
			return
		}
		utils.SendError(c, http.StatusInternalServerError, "系统错误", err)
		return
	}

	if strings.TrimSpace(req.SurveyName) == "" {
		utils.SendError(c, http.StatusBadRequest, "问卷名称不能为空")
		return
	}

	result, err := db.Exec(`
		INSERT INTO surveys (survey_name, description, owner_id)
		VALUES (?, ?, ?)
	`, req.SurveyName, req.Description, ownerID)
	if err != nil {
		utils.SendError(c, http.StatusInternalServerError, "创建问卷失败", err)
		return
	}
	surveyID, _ := result.LastInsertId()

	// 问卷行与授权行是两次独立写入，中间崩溃会留下无授权行的问卷；
	// 属主访问不受影响（所有权即访问权），共享访问需要重新授权
	targets, unresolved, err := resolver.ResolveGrants(req.AccessSpec, username)
	if err != nil {
		utils.SendError(c, http.StatusInternalServerError, "解析共享列表失败", err)
		return
	}
	if err := resolver.GrantAccess(surveyID, targets); err != nil {
		utils.SendError(c, http.StatusInternalServerError, "写入授权失败", err)
		return
	}

	resp := gin.H{
		"success":  true,
		"message":  "Survey created successfully.",
		"surveyId": surveyID,
	}
	if len(unresolved) > 0 {
		// 解析不到的用户名回显给调用方，不静默丢弃
		resp["unresolved_users"] = unresolved
	}
	c.JSON(http.StatusOK, resp)
}

// GetSurveysHandler 获取当前用户可见的全部问卷：
// 自有、被显式授权、被公开授权的并集
// GET /api/survey/list
func GetSurveysHandler(c *gin.Context) {
	username := c.MustGet("username").(string)

	surveys, err := resolver.AccessibleSurveys(username)
	if err != nil {
		if err == access.ErrUserNotFound {
			utils.SendError(c, http.StatusBadRequest, "用户不存在")
			return
		}
		utils.SendError(c, http.StatusInternalServerError, "获取问卷列表失败", err)
		return
	}

	if surveys == nil {
		surveys = []model.Survey{}
	}
	c.JSON(http.StatusOK, gin.H{"surveys": surveys})
}

// GetSurveyDetailHandler 获取问卷的问题列表
// GET /api/survey/detail/:id
func GetSurveyDetailHandler(c *gin.Context) {
	surveyID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "无效的问卷ID")
		return
	}

	var one int
	if err := db.QueryRow(`SELECT 1 FROM surveys WHERE id = ?`, surveyID).Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			utils.SendError(c, http.StatusBadRequest, ErrSurveyNotFound.Error())
			return
		}
		utils.SendError(c, http.StatusInternalServerError, "系统错误", err)
		return
	}

	questions, err := QuestionsBySurveyID(db, surveyID)
	if err != nil {
		utils.SendError(c, http.StatusInternalServerError, "获取问题列表失败", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

// QuestionsBySurveyID 按问题顺序读取问卷的问题列表
func QuestionsBySurveyID(db *sql.DB, surveyID int64) ([]model.Question, error) {
	rows, err := db.Query(`
		SELECT id, survey_id, question_type, question_description, body, question_order
		FROM questions
		WHERE survey_id = ?
		ORDER BY question_order ASC
	`, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.SurveyID, &q.QuestionType,
			&q.QuestionDescription, &q.Body, &q.Order); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
