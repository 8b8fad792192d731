package take

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/Skaum103/form-flow-backend/model"
	"github.com/Skaum103/form-flow-backend/utils"

	"github.com/gin-gonic/gin"
)

var repo Repository

// Init 初始化答卷模块
func Init(db *sql.DB) {
	repo = NewRepository(db)
}

// SubmitTakeHandler 提交答卷
// POST /api/survey/take
func SubmitTakeHandler(c *gin.Context) {
	username := c.MustGet("username").(string)

	var req model.TakeSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "无效的请求格式", err)
		return
	}

	userID, err := repo.UserIDByUsername(username)
	if err != nil {
		if err == ErrUserNotFound {
			utils.SendError(c, http.StatusBadRequest, "用户不存在")
			return
		}
		utils.SendError(c, http.StatusInternalServerError, "系统错误", err)
		return
	}

	surveyID, err := strconv.ParseInt(req.SurveyID, 10, 64)
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "无效的问卷ID")
		return
	}

	if err := repo.SurveyExists(surveyID); err != nil {
		if err == ErrSurveyNotFound {
			utils.SendError(c, http.StatusBadRequest, "问卷不存在")
			return
		}
		utils.SendError(c, http.StatusInternalServerError, "系统错误", err)
		return
	}

	// 存储编码无转义，含分隔符或为空的选项在落库前当场拒绝
	set := AnswerSet(req.Answers)
	if err := set.Validate(); err != nil {
		utils.SendError(c, http.StatusBadRequest, "答卷格式错误", err)
		return
	}

	t := &model.Take{
		UserID:   userID,
		SurveyID: surveyID,
		Answers:  set.Encode(),
	}
	if err := repo.SaveTake(t); err != nil {
		utils.SendError(c, http.StatusInternalServerError, "保存答卷失败", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Answers saved successfully.",
	})
}
