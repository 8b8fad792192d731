package analytics

import (
	"testing"

	"github.com/Skaum103/form-flow-backend/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	takes := []model.Take{
		{ID: 1, Answers: "A,B;X"},
		{ID: 2, Answers: "A;Y"},
	}

	stats, malformed := Aggregate(takes, 2)
	require.Len(t, stats, 2)
	assert.Empty(t, malformed)

	assert.Equal(t, 0, stats[0].QuestionOrder)
	assert.Equal(t, map[string]int{"A": 2, "B": 1}, stats[0].Stats)

	assert.Equal(t, 1, stats[1].QuestionOrder)
	assert.Equal(t, map[string]int{"X": 1, "Y": 1}, stats[1].Stats)
}

func TestAggregate_MalformedRows(t *testing.T) {
	takes := []model.Take{
		{ID: 1, Answers: "A;X"},
		{ID: 2, Answers: "B"},       // 段数少于问题数
		{ID: 3, Answers: "C;Y;Z"},   // 段数多于问题数
		{ID: 4, Answers: "A,,B;X"},  // 空选项，解码失败
		{ID: 5, Answers: "B;Y"},
	}

	stats, malformed := Aggregate(takes, 2)
	require.Len(t, stats, 2)

	// 异常答卷不参与计数，但必须按ID上报
	assert.Equal(t, []int64{2, 3, 4}, malformed)
	assert.Equal(t, map[string]int{"A": 1, "B": 1}, stats[0].Stats)
	assert.Equal(t, map[string]int{"X": 1, "Y": 1}, stats[1].Stats)
}

func TestAggregate_NoTakes(t *testing.T) {
	stats, malformed := Aggregate(nil, 3)
	require.Len(t, stats, 3)
	assert.Empty(t, malformed)
	for i, qs := range stats {
		assert.Equal(t, i, qs.QuestionOrder)
		assert.Empty(t, qs.Stats)
	}
}
