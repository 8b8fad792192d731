package question

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/Skaum103/form-flow-backend/model"
	"github.com/Skaum103/form-flow-backend/module/survey"
	"github.com/Skaum103/form-flow-backend/utils"

	"github.com/gin-gonic/gin"
)

var db *sql.DB

// Init 初始化问题模块
func Init(database *sql.DB) {
	db = database
}

// UpdateSurveyQuestionsHandler 整表替换问卷的问题列表：
// 先删除问卷现有全部问题，再批量插入新列表；列表为 null 时只删除。
// 不做字段级合并
// PUT /api/survey/:surveyId/questions
func UpdateSurveyQuestionsHandler(c *gin.Context) {
	surveyID, err := strconv.ParseInt(c.Param("surveyId"), 10, 64)
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "无效的问卷ID")
		return
	}

	var one int
	if err := db.QueryRow(`SELECT 1 FROM surveys WHERE id = ?`, surveyID).Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			utils.SendError(c, http.StatusBadRequest, "问卷不存在")
			return
		}
		utils.SendError(c, http.StatusInternalServerError, "系统错误", err)
		return
	}

	var req model.UpdateQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "无效的请求格式", err)
		return
	}

	tx, err := db.Begin()
	if err != nil {
		utils.SendError(c, http.StatusInternalServerError, "系统错误", err)
		return
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM questions WHERE survey_id = ?`, surveyID); err != nil {
		utils.SendError(c, http.StatusInternalServerError, "删除旧问题失败", err)
		return
	}

	for i, q := range req.Questions {
		// 外键在插入前的最后一刻统一指向本问卷，不允许悬空
		q.SurveyID = surveyID
		if _, err := tx.Exec(`
			INSERT INTO questions (survey_id, question_type, question_description, body, question_order)
			VALUES (?, ?, ?, ?, ?)
		`, q.SurveyID, q.QuestionType, q.QuestionDescription, q.Body, i); err != nil {
			utils.SendError(c, http.StatusInternalServerError, "插入问题失败", err)
			return
		}
	}

	if err := tx.Commit(); err != nil {
		utils.SendError(c, http.StatusInternalServerError, "系统错误", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Questions updated successfully.",
	})
}

// GetSurveyQuestionsHandler 获取问卷的问题列表
// GET /api/survey/:surveyId/questions
func GetSurveyQuestionsHandler(c *gin.Context) {
	surveyID, err := strconv.ParseInt(c.Param("surveyId"), 10, 64)
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "无效的问卷ID")
		return
	}

	questions, err := survey.QuestionsBySurveyID(db, surveyID)
	if err != nil {
		utils.SendError(c, http.StatusInternalServerError, "获取问题列表失败", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"questions": questions})
}
