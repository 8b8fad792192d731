package analytics

import (
	"errors"

	"github.com/Skaum103/form-flow-backend/model"
	"github.com/Skaum103/form-flow-backend/module/take"
)

var (
	ErrNoTakes = errors.New("该问卷还没有答卷")
)

// QuestionStats 单个问题的选项频次表，question_order 从 0 开始编号
type QuestionStats struct {
	QuestionOrder int            `json:"question_order"`
	Stats         map[string]int `json:"stats"`
}

// Aggregate 把答卷汇总成每题的选项频次表。
// questionCount 是问题数量的权威来源（来自 questions 表，而不是答卷本身）；
// 段数与之不符的答卷属于数据完整性问题，不参与计数，按ID返回给调用方上报。
func Aggregate(takes []model.Take, questionCount int) ([]QuestionStats, []int64) {
	stats := make([]QuestionStats, questionCount)
	for i := range stats {
		stats[i] = QuestionStats{
			QuestionOrder: i,
			Stats:         make(map[string]int),
		}
	}

	var malformed []int64
	for _, t := range takes {
		set, err := take.ParseAnswerSet(t.Answers)
		if err != nil || len(set) != questionCount {
			malformed = append(malformed, t.ID)
			continue
		}
		for i, choices := range set {
			for _, choice := range choices {
				stats[i].Stats[choice]++
			}
		}
	}

	return stats, malformed
}
