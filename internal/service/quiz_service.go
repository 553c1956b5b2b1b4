package service

import (
	"edulearn_backend/internal/model"
	"edulearn_backend/internal/util"
	"math"
)

type QuizService struct{}

func NewQuizService() *QuizService {
	return &QuizService{}
}

// QuestionResult 单题判分明细，仅用于前端反馈展示
type QuestionResult struct {
	QuestionID  uint   `json:"questionId"`
	Submitted   int    `json:"submitted"` // 未作答时为 -1
	Correct     int    `json:"correct"`
	IsCorrect   bool   `json:"isCorrect"`
	Explanation string `json:"explanation,omitempty"`
}

// GradeResult 测验判分结果，进度引擎只消费聚合 Score
type GradeResult struct {
	Score          int              `json:"score"`
	Passed         bool             `json:"passed"`
	CorrectCount   int              `json:"correctCount"`
	TotalQuestions int              `json:"totalQuestions"`
	Questions      []QuestionResult `json:"questions"`
}

// Grade 按提交答案对测验判分：逐题精确匹配，无部分得分。
// score = round(正确数/题数*100)，passed 为通过线（含边界）判断。
func (s *QuizService) Grade(questions []model.QuizQuestion, answers map[uint]int, passingScore int) (*GradeResult, error) {
	if len(questions) == 0 {
		return nil, util.ErrEmptyQuiz
	}

	result := &GradeResult{
		TotalQuestions: len(questions),
		Questions:      make([]QuestionResult, 0, len(questions)),
	}

	for _, q := range questions {
		submitted, answered := answers[q.ID]
		if !answered {
			submitted = -1
		}
		correct := answered && submitted == q.CorrectOption
		if correct {
			result.CorrectCount++
		}
		result.Questions = append(result.Questions, QuestionResult{
			QuestionID:  q.ID,
			Submitted:   submitted,
			Correct:     q.CorrectOption,
			IsCorrect:   correct,
			Explanation: q.Explanation,
		})
	}

	result.Score = int(math.Round(float64(result.CorrectCount) / float64(result.TotalQuestions) * 100))
	result.Passed = result.Score >= passingScore
	return result, nil
}
