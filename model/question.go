package model

type Question struct {
	ID                  int64  `json:"id,omitempty"`
	SurveyID            int64  `json:"surveyId,omitempty"`
	QuestionType        string `json:"questionType"`
	QuestionDescription string `json:"questionDescription"`
	Body                string `json:"body"`
	Order               int    `json:"order"` // 从 0 开始编号
}

type UpdateQuestionsRequest struct {
	// 整表替换：先删除问卷现有全部问题，再批量插入下面的列表；
	// 列表为 null 时只删除
	Questions []Question `json:"questions"`
}
