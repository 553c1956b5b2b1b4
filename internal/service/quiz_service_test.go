package service

import (
	"edulearn_backend/internal/model"
	"edulearn_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeQuestions(correctOptions ...int) []model.QuizQuestion {
	questions := make([]model.QuizQuestion, 0, len(correctOptions))
	for i, correct := range correctOptions {
		q := model.QuizQuestion{Text: "q", CorrectOption: correct}
		q.ID = uint(i + 1)
		questions = append(questions, q)
	}
	return questions
}

func TestGradeEmptyQuiz(t *testing.T) {
	svc := NewQuizService()
	_, err := svc.Grade(nil, map[uint]int{}, 60)
	assert.ErrorIs(t, err, util.ErrEmptyQuiz)
}

func TestGradeAllCorrect(t *testing.T) {
	svc := NewQuizService()
	questions := makeQuestions(0, 1, 2)

	result, err := svc.Grade(questions, map[uint]int{1: 0, 2: 1, 3: 2}, 60)
	require.NoError(t, err)

	assert.Equal(t, 100, result.Score)
	assert.Equal(t, 3, result.CorrectCount)
	assert.Equal(t, 3, result.TotalQuestions)
	assert.True(t, result.Passed)
}

func TestGradePassingBoundaryInclusive(t *testing.T) {
	svc := NewQuizService()
	questions := makeQuestions(0, 0, 0, 0, 0, 0, 0, 0, 0, 0)

	// 10 题对 7 题，70 分线恰好及格
	answers := map[uint]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0, 6: 0, 7: 0, 8: 1, 9: 1, 10: 1}
	result, err := svc.Grade(questions, answers, 70)
	require.NoError(t, err)

	assert.Equal(t, 70, result.Score)
	assert.True(t, result.Passed)
}

func TestGradeBelowPassingLine(t *testing.T) {
	svc := NewQuizService()
	questions := makeQuestions(0, 0, 0, 0, 0)

	result, err := svc.Grade(questions, map[uint]int{1: 0, 2: 0, 3: 0, 4: 1, 5: 1}, 70)
	require.NoError(t, err)

	assert.Equal(t, 60, result.Score)
	assert.False(t, result.Passed)
}

func TestGradeUnansweredCountsWrong(t *testing.T) {
	svc := NewQuizService()
	questions := makeQuestions(0, 1)

	result, err := svc.Grade(questions, map[uint]int{1: 0}, 60)
	require.NoError(t, err)

	assert.Equal(t, 50, result.Score)
	require.Len(t, result.Questions, 2)
	assert.Equal(t, -1, result.Questions[1].Submitted)
	assert.False(t, result.Questions[1].IsCorrect)
}

func TestGradeScoreRounding(t *testing.T) {
	svc := NewQuizService()
	questions := makeQuestions(0, 0, 0)

	// 2/3 = 66.67 四舍五入到 67
	result, err := svc.Grade(questions, map[uint]int{1: 0, 2: 0, 3: 1}, 60)
	require.NoError(t, err)
	assert.Equal(t, 67, result.Score)

	// 1/3 = 33.33 四舍五入到 33
	result, err = svc.Grade(questions, map[uint]int{1: 0, 2: 1, 3: 1}, 60)
	require.NoError(t, err)
	assert.Equal(t, 33, result.Score)
}

func TestGradeNoPartialCredit(t *testing.T) {
	svc := NewQuizService()
	questions := makeQuestions(2)

	result, err := svc.Grade(questions, map[uint]int{1: 1}, 60)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Score)
	assert.Equal(t, 2, result.Questions[0].Correct)
	assert.Equal(t, 1, result.Questions[0].Submitted)
}
