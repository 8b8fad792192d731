package take

import (
	"errors"
	"fmt"
	"strings"
)

// answers 字段的存储编码：问题之间用 ";"、选项之间用 "," 分隔。
// 编码没有转义机制，选项值一旦含有分隔符就会破坏解码，
// 所以编解码集中在本文件：API 边界收结构化的 AnswerSet，
// 提交时先 Validate 再 Encode 落库，读回时用 ParseAnswerSet 解码。

var (
	ErrEmptyAnswers = errors.New("答卷内容为空")
)

// AnswerSet 一份答卷的结构化表示：外层按问题顺序，内层为该问题选中的选项
type AnswerSet [][]string

// ParseAnswerSet 解码 answers 字符串并校验
// 空段（"A;;B"）和空选项（"A,,B"）都视为非法
func ParseAnswerSet(s string) (AnswerSet, error) {
	if strings.TrimSpace(s) == "" {
		return nil, ErrEmptyAnswers
	}

	segments := strings.Split(s, ";")
	set := make(AnswerSet, 0, len(segments))
	for i, segment := range segments {
		if segment == "" {
			return nil, fmt.Errorf("第 %d 题没有答案", i)
		}
		choices := strings.Split(segment, ",")
		for _, choice := range choices {
			if choice == "" {
				return nil, fmt.Errorf("第 %d 题含有空选项", i)
			}
		}
		set = append(set, choices)
	}
	return set, nil
}

// Encode 编码为存储格式，是 ParseAnswerSet 的逆操作
func (a AnswerSet) Encode() string {
	segments := make([]string, len(a))
	for i, choices := range a {
		segments[i] = strings.Join(choices, ",")
	}
	return strings.Join(segments, ";")
}

// Validate 校验程序内构造的答卷：
// 选项值不得为空、不得含有分隔符（编码无转义，含分隔符必然破坏解码）
func (a AnswerSet) Validate() error {
	if len(a) == 0 {
		return ErrEmptyAnswers
	}
	for i, choices := range a {
		if len(choices) == 0 {
			return fmt.Errorf("第 %d 题没有答案", i)
		}
		for _, choice := range choices {
			if choice == "" {
				return fmt.Errorf("第 %d 题含有空选项", i)
			}
			if strings.ContainsAny(choice, ";,") {
				return fmt.Errorf("第 %d 题的选项含有分隔符: %q", i, choice)
			}
		}
	}
	return nil
}
