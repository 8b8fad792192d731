package model

type Survey struct {
	ID          int64  `json:"surveyId"`
	SurveyName  string `json:"surveyName"`
	Description string `json:"description,omitempty"`
	OwnerID     string `json:"-"`
	CreateTime  string `json:"createTime,omitempty"`
}

// 名称校验由处理器在用户查找之后执行，不在绑定层做
type CreateSurveyRequest struct {
	SurveyName  string `json:"surveyName"`
	Description string `json:"description"`
	// 共享说明："-1" 表示公开共享，否则为逗号分隔的用户名列表
	AccessSpec string `json:"accessSpec"`
}
