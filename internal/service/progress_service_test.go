package service

import (
	"edulearn_backend/internal/model"
	"edulearn_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCompletionPercent(t *testing.T) {
	assert.Equal(t, 0, CompletionPercent(0, 0))
	assert.Equal(t, 0, CompletionPercent(3, 0))
	assert.Equal(t, 33, CompletionPercent(1, 3))
	assert.Equal(t, 67, CompletionPercent(2, 3))
	assert.Equal(t, 100, CompletionPercent(3, 3))
	assert.Equal(t, 14, CompletionPercent(1, 7))
}

func TestCompleteLessonRequiresEnrollment(t *testing.T) {
	f := newFixture()
	f.addUser(1, "alice", "student")
	f.addCourse(10, 2, 101, 102)

	_, err := f.progress.CompleteLesson(1, 10, 101, 5, nil)
	assert.ErrorIs(t, err, util.ErrNotEnrolled)
}

func TestCompleteLessonUnknownLesson(t *testing.T) {
	f := newFixture()
	f.addUser(1, "alice", "student")
	f.addCourse(10, 2, 101, 102)
	f.enroll(1, 10)

	_, err := f.progress.CompleteLesson(1, 10, 999, 5, nil)
	assert.ErrorIs(t, err, util.ErrLessonNotFound)
}

func TestCompleteLessonAdvancesProgress(t *testing.T) {
	f := newFixture()
	f.addUser(1, "alice", "student")
	f.addCourse(10, 2, 101, 102, 103)
	f.enroll(1, 10)

	result, err := f.progress.CompleteLesson(1, 10, 101, 15, nil)
	require.NoError(t, err)

	assert.Equal(t, 33, result.ProgressPercent)
	assert.False(t, result.IsCompleted)
	assert.Equal(t, 1, result.StreakDays)

	progress, err := f.progress.GetProgress(1, 10)
	require.NoError(t, err)
	assert.Equal(t, 33, progress.ProgressPercent)
	assert.Equal(t, 15, progress.TotalTimeSpentMin)
	assert.Len(t, progress.CompletedLessons, 1)

	// 反范式缓存同步刷新
	enrollment, err := f.store.FindEnrollment(1, 10)
	require.NoError(t, err)
	assert.Equal(t, 33, enrollment.CompletionPercent)
}

func TestCompleteLessonOrderIndependent(t *testing.T) {
	f := newFixture()
	f.addUser(1, "alice", "student")
	f.addCourse(10, 2, 101, 102, 103)
	f.enroll(1, 10)

	// 逆序完成也能到 100%
	for _, lessonID := range []uint{103, 101, 102} {
		_, err := f.progress.CompleteLesson(1, 10, lessonID, 10, nil)
		require.NoError(t, err)
	}

	progress, err := f.progress.GetProgress(1, 10)
	require.NoError(t, err)
	assert.Equal(t, 100, progress.ProgressPercent)
	assert.True(t, progress.IsCompleted)
	require.NotNil(t, progress.CompletedAt)
}

func TestCompleteLessonIdempotent(t *testing.T) {
	f := newFixture()
	f.addUser(1, "alice", "student")
	f.addCourse(10, 2, 101, 102)
	f.enroll(1, 10)

	score1 := 80
	_, err := f.progress.CompleteLesson(1, 10, 101, 20, &score1)
	require.NoError(t, err)

	// 重复完成：时长累计、分数覆盖、不重复计数
	score2 := 95
	result, err := f.progress.CompleteLesson(1, 10, 101, 10, &score2)
	require.NoError(t, err)
	assert.Equal(t, 50, result.ProgressPercent)

	progress, err := f.progress.GetProgress(1, 10)
	require.NoError(t, err)
	require.Len(t, progress.CompletedLessons, 1)
	assert.Equal(t, 30, progress.CompletedLessons[0].TimeSpentMin)
	require.NotNil(t, progress.CompletedLessons[0].QuizScore)
	assert.Equal(t, 95, *progress.CompletedLessons[0].QuizScore)
	assert.Equal(t, 30, progress.TotalTimeSpentMin)
	assert.InDelta(t, 95.0, progress.AverageQuizScore, 0.001)
}

func TestCompleteLessonRejectsNegativeTime(t *testing.T) {
	f := newFixture()
	f.addUser(1, "alice", "student")
	f.addCourse(10, 2, 101, 102)
	f.enroll(1, 10)

	_, err := f.progress.CompleteLesson(1, 10, 101, 30, nil)
	require.NoError(t, err)

	// 负时长会在重复完成时倒扣累计时长，必须整单拒绝
	_, err = f.progress.CompleteLesson(1, 10, 101, -25, nil)
	assert.ErrorIs(t, err, util.ErrNegativeTimeSpent)

	_, err = f.progress.SubmitQuiz(1, 10, 101, map[uint]int{}, -1)
	assert.ErrorIs(t, err, util.ErrNegativeTimeSpent)

	progress, err := f.progress.GetProgress(1, 10)
	require.NoError(t, err)
	assert.Equal(t, 30, progress.TotalTimeSpentMin)
}

func TestCompleteLessonRecountsAfterCourseGrows(t *testing.T) {
	f := newFixture()
	f.addUser(1, "alice", "student")
	course := f.addCourse(10, 2, 101, 102)
	f.enroll(1, 10)

	_, err := f.progress.CompleteLesson(1, 10, 101, 5, nil)
	require.NoError(t, err)
	_, err = f.progress.CompleteLesson(1, 10, 102, 5, nil)
	require.NoError(t, err)

	progress, err := f.progress.GetProgress(1, 10)
	require.NoError(t, err)
	assert.Equal(t, 100, progress.ProgressPercent)

	// 讲师加课后，下一次完成会按新总数重算
	newLesson := course.Modules[0].Lessons[0]
	newLesson.ID = 103
	course.Modules[0].Lessons = append(course.Modules[0].Lessons, newLesson)

	_, err = f.progress.CompleteLesson(1, 10, 103, 5, nil)
	require.NoError(t, err)

	progress, err = f.progress.GetProgress(1, 10)
	require.NoError(t, err)
	assert.Equal(t, 100, progress.ProgressPercent)
	assert.Len(t, progress.CompletedLessons, 3)
}

func TestStreakTransitions(t *testing.T) {
	f := newFixture()
	f.addUser(1, "alice", "student")
	f.addCourse(10, 2, 101, 102, 103, 104)
	f.enroll(1, 10)

	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	f.progress.now = func() time.Time { return base }

	result, err := f.progress.CompleteLesson(1, 10, 101, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.StreakDays)

	// 同一天再学：不变
	f.progress.now = func() time.Time { return base.Add(6 * time.Hour) }
	result, err = f.progress.CompleteLesson(1, 10, 102, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.StreakDays)

	// 次日：+1
	f.progress.now = func() time.Time { return base.AddDate(0, 0, 1) }
	result, err = f.progress.CompleteLesson(1, 10, 103, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.StreakDays)

	// 隔了两天：重置为 1
	f.progress.now = func() time.Time { return base.AddDate(0, 0, 3) }
	result, err = f.progress.CompleteLesson(1, 10, 104, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.StreakDays)

	progress, err := f.progress.GetProgress(1, 10)
	require.NoError(t, err)
	require.NotNil(t, progress.LastActiveDate)
	assert.Equal(t, base.AddDate(0, 0, 3).Truncate(24*time.Hour), *progress.LastActiveDate)
}

func TestCompletionIssuesCertificate(t *testing.T) {
	f := newFixture()
	f.addUser(1, "alice", "student")
	f.addCourse(10, 2, 101, 102)
	f.enroll(1, 10)

	_, err := f.progress.CompleteLesson(1, 10, 101, 5, nil)
	require.NoError(t, err)

	result, err := f.progress.CompleteLesson(1, 10, 102, 5, nil)
	require.NoError(t, err)
	assert.True(t, result.IsCompleted)
	assert.True(t, result.CertificateIssued)
	assert.False(t, result.CertificateError)

	cert, err := f.store.FindCertificate(1, 10)
	require.NoError(t, err)
	assert.Equal(t, "alice", cert.LearnerName)

	enrollment, err := f.store.FindEnrollment(1, 10)
	require.NoError(t, err)
	assert.True(t, enrollment.CertificateIssued)
}

// 四课时课程走完全程：1-3 课后 75% 无证书，第 4 课触发结业，
// 无测验分数时默认满分计为 A+
func TestFourLessonCourseEndToEnd(t *testing.T) {
	f := newFixture()
	f.addUser(1, "alice", "student")
	f.addCourse(10, 2, 101, 102, 103, 104)
	f.enroll(1, 10)

	var result *CompleteLessonResult
	var err error
	for _, lessonID := range []uint{101, 102, 103} {
		result, err = f.progress.CompleteLesson(1, 10, lessonID, 10, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 75, result.ProgressPercent)
	assert.False(t, result.IsCompleted)
	_, err = f.store.FindCertificate(1, 10)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	result, err = f.progress.CompleteLesson(1, 10, 104, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, 100, result.ProgressPercent)
	assert.True(t, result.IsCompleted)
	assert.True(t, result.CertificateIssued)

	cert, err := f.store.FindCertificate(1, 10)
	require.NoError(t, err)
	assert.Equal(t, model.GradeAPlus, cert.Grade)
	assert.InDelta(t, 100.0, cert.Score, 0.001)
}

func TestCertificateFailureDoesNotRollBackProgress(t *testing.T) {
	f := newFixture()
	// 学员记录缺失让签发必然失败
	f.addCourse(10, 2, 101)
	f.enroll(1, 10)

	result, err := f.progress.CompleteLesson(1, 10, 101, 5, nil)
	require.NoError(t, err)

	assert.True(t, result.IsCompleted)
	assert.False(t, result.CertificateIssued)
	assert.True(t, result.CertificateError)

	// 进度保持已完成，证书可后续补发
	progress, err := f.progress.GetProgress(1, 10)
	require.NoError(t, err)
	assert.True(t, progress.IsCompleted)
	assert.Equal(t, 100, progress.ProgressPercent)
}

func TestRecompletionAfterCertificateIsNotAnError(t *testing.T) {
	f := newFixture()
	f.addUser(1, "alice", "student")
	f.addCourse(10, 2, 101)
	f.enroll(1, 10)

	result, err := f.progress.CompleteLesson(1, 10, 101, 5, nil)
	require.NoError(t, err)
	require.True(t, result.CertificateIssued)

	// 重置后再学完：证书已存在，既不是失败也不再签发
	require.NoError(t, f.progress.ResetProgress(1, 10))
	result, err = f.progress.CompleteLesson(1, 10, 101, 5, nil)
	require.NoError(t, err)

	assert.True(t, result.IsCompleted)
	assert.False(t, result.CertificateIssued)
	assert.False(t, result.CertificateError)

	certs, err := f.store.ListCertificates(1)
	require.NoError(t, err)
	assert.Len(t, certs, 1)
}

func TestResetKeepsEnrollmentAndCertificate(t *testing.T) {
	f := newFixture()
	f.addUser(1, "alice", "student")
	f.addCourse(10, 2, 101)
	f.enroll(1, 10)

	_, err := f.progress.CompleteLesson(1, 10, 101, 5, nil)
	require.NoError(t, err)

	require.NoError(t, f.progress.ResetProgress(1, 10))

	progress, err := f.progress.GetProgress(1, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, progress.ProgressPercent)
	assert.False(t, progress.IsCompleted)
	assert.Empty(t, progress.CompletedLessons)
	assert.Equal(t, 0, progress.StreakDays)

	_, err = f.store.FindEnrollment(1, 10)
	assert.NoError(t, err)
	_, err = f.store.FindCertificate(1, 10)
	assert.NoError(t, err)
}

func TestCompleteLessonRetriesOnVersionConflict(t *testing.T) {
	f := newFixture()
	f.addUser(1, "alice", "student")
	f.addCourse(10, 2, 101, 102)
	f.enroll(1, 10)

	f.store.saveConflicts = 2

	result, err := f.progress.CompleteLesson(1, 10, 101, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, 50, result.ProgressPercent)

	// 冲突重试不会重复入账
	progress, err := f.progress.GetProgress(1, 10)
	require.NoError(t, err)
	require.Len(t, progress.CompletedLessons, 1)
	assert.Equal(t, 5, progress.TotalTimeSpentMin)
}

func TestCompleteLessonGivesUpAfterRetriesExhausted(t *testing.T) {
	f := newFixture()
	f.addUser(1, "alice", "student")
	f.addCourse(10, 2, 101)
	f.enroll(1, 10)

	f.store.saveConflicts = 100

	_, err := f.progress.CompleteLesson(1, 10, 101, 5, nil)
	assert.ErrorIs(t, err, util.ErrVersionConflict)
}

func TestSubmitQuizRecordsCompletionWithScore(t *testing.T) {
	f := newFixture()
	f.addUser(1, "alice", "student")
	course := f.addCourse(10, 2, 101, 102)
	addLessonQuiz(course, 101, 60, 500, 0, 1, 2, 3)
	f.enroll(1, 10)

	result, err := f.progress.SubmitQuiz(1, 10, 101, map[uint]int{500: 0, 501: 1, 502: 2, 503: 0}, 12)
	require.NoError(t, err)

	assert.Equal(t, 75, result.Grade.Score)
	assert.True(t, result.Grade.Passed)
	assert.Equal(t, 3, result.Grade.CorrectCount)
	assert.Equal(t, 50, result.Completion.ProgressPercent)

	progress, err := f.progress.GetProgress(1, 10)
	require.NoError(t, err)
	require.Len(t, progress.CompletedLessons, 1)
	require.NotNil(t, progress.CompletedLessons[0].QuizScore)
	assert.Equal(t, 75, *progress.CompletedLessons[0].QuizScore)
	assert.InDelta(t, 75.0, progress.AverageQuizScore, 0.001)
}

func TestSubmitQuizLessonWithoutQuiz(t *testing.T) {
	f := newFixture()
	f.addUser(1, "alice", "student")
	f.addCourse(10, 2, 101)
	f.enroll(1, 10)

	_, err := f.progress.SubmitQuiz(1, 10, 101, map[uint]int{}, 5)
	assert.ErrorIs(t, err, util.ErrQuizNotFound)
}

func TestSubmitQuizRequiresEnrollment(t *testing.T) {
	f := newFixture()
	f.addUser(1, "alice", "student")
	course := f.addCourse(10, 2, 101)
	addLessonQuiz(course, 101, 60, 500, 0)

	_, err := f.progress.SubmitQuiz(1, 10, 101, map[uint]int{500: 0}, 5)
	assert.ErrorIs(t, err, util.ErrNotEnrolled)
}

func TestBookmarkLifecycle(t *testing.T) {
	f := newFixture()
	f.addUser(1, "alice", "student")
	f.addCourse(10, 2, 101)
	f.enroll(1, 10)

	bookmark, err := f.progress.AddBookmark(1, 10, 101, 95, "核心概念")
	require.NoError(t, err)
	require.NotZero(t, bookmark.ID)

	_, err = f.progress.AddBookmark(1, 10, 999, 0, "")
	assert.ErrorIs(t, err, util.ErrLessonNotFound)

	require.NoError(t, f.progress.RemoveBookmark(1, 10, bookmark.ID))
	err = f.progress.RemoveBookmark(1, 10, bookmark.ID)
	assert.Error(t, err)
}

func TestNoteLifecycle(t *testing.T) {
	f := newFixture()
	f.addUser(1, "alice", "student")
	f.addCourse(10, 2, 101)
	f.enroll(1, 10)

	note, err := f.progress.AddNote(1, 10, 101, 30, "第一版笔记")
	require.NoError(t, err)

	require.NoError(t, f.progress.UpdateNote(1, 10, note.ID, "改过的笔记"))

	progress, err := f.progress.GetProgress(1, 10)
	require.NoError(t, err)
	require.Len(t, progress.Notes, 1)
	assert.Equal(t, "改过的笔记", progress.Notes[0].Content)

	require.NoError(t, f.progress.RemoveNote(1, 10, note.ID))
	err = f.progress.UpdateNote(1, 10, note.ID, "x")
	assert.Error(t, err)
}

func TestSweepOrphans(t *testing.T) {
	f := newFixture()
	f.addUser(1, "alice", "student")
	f.addCourse(10, 2, 101)
	unpublished := f.addCourse(20, 2, 201)
	f.enroll(1, 10)
	f.enroll(1, 20)

	unpublished.IsPublished = false

	require.NoError(t, f.progress.SweepOrphans())

	_, err := f.progress.GetProgress(1, 20)
	assert.ErrorIs(t, err, util.ErrProgressNotFound)
	_, err = f.progress.GetProgress(1, 10)
	assert.NoError(t, err)
}
