package model

// Take 一份答卷：answers 为两级分隔编码的字符串，
// 问题之间用 ";" 分隔，同一问题的多选项之间用 "," 分隔。
// 编解码统一走 module/take 的 codec，业务代码不得自行 split。
type Take struct {
	ID         int64  `json:"id"`
	UserID     string `json:"userId"`
	SurveyID   int64  `json:"surveyId"`
	Answers    string `json:"answers"`
	CreateTime string `json:"createTime,omitempty"`
}

// TakeSurveyRequest 提交答卷的请求体。
// answers 在 API 边界是结构化的选项集合列表，
// 编码成存储字符串只发生在 module/take 内部
type TakeSurveyRequest struct {
	SurveyID string     `json:"surveyId" binding:"required"`
	Answers  [][]string `json:"answers" binding:"required"`
}
