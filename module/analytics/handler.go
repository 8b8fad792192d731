package analytics

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/Skaum103/form-flow-backend/module/take"
	"github.com/Skaum103/form-flow-backend/utils"

	"github.com/gin-gonic/gin"
)

var db *sql.DB

// Init 初始化统计模块
func Init(database *sql.DB) {
	db = database
}

// GetSurveyStatsHandler 获取问卷的每题选项频次统计
// GET /api/survey/stats/:id
func GetSurveyStatsHandler(c *gin.Context) {
	surveyID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "无效的问卷ID")
		return
	}

	takes, err := take.NewRepository(db).TakesBySurveyID(surveyID)
	if err != nil {
		utils.SendError(c, http.StatusInternalServerError, "查询答卷失败", err)
		return
	}
	// 零答卷是明确的失败结果，不返回空成功
	if len(takes) == 0 {
		utils.SendError(c, http.StatusNotFound, ErrNoTakes.Error())
		return
	}

	questionCount, err := countQuestions(surveyID)
	if err != nil {
		utils.SendError(c, http.StatusInternalServerError, "查询问题数量失败", err)
		return
	}
	// 问题数量以 questions 表为准；问卷当前没有存任何问题时
	// 退回用第一份答卷的段数，让既有数据仍可汇总
	if questionCount == 0 {
		if set, err := take.ParseAnswerSet(takes[0].Answers); err == nil {
			questionCount = len(set)
		}
	}

	stats, malformed := Aggregate(takes, questionCount)

	resp := gin.H{"stats": stats}
	if len(malformed) > 0 {
		// 段数不符的答卷按ID上报，不静默忽略
		resp["malformed"] = malformed
	}
	c.JSON(http.StatusOK, resp)
}

func countQuestions(surveyID int64) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM questions WHERE survey_id = ?`, surveyID).Scan(&count)
	return count, err
}
