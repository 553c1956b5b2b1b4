package service

import (
	"edulearn_backend/internal/model"
	"edulearn_backend/internal/util"
	"edulearn_backend/pkg/logger"
	"edulearn_backend/pkg/monitoring"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 乐观锁冲突后的重读重试次数
const maxCompletionRetries = 3

// CompletionPercent 完成百分比的唯一计算出处：
// round(已完成课时数 / 当前课时总数 * 100)
func CompletionPercent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// averageQuizScore 所有带分数完成条目的平均分；没有带分条目时 ok 为 false
func averageQuizScore(completions []model.LessonCompletion) (float64, bool) {
	sum := 0
	count := 0
	for _, c := range completions {
		if c.QuizScore != nil {
			sum += *c.QuizScore
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return float64(sum) / float64(count), true
}

// toDate 把时间截断到日历日期
func toDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween 两个日历日期间隔的整天数
func daysBetween(earlier, later time.Time) int {
	return int(toDate(later).Sub(toDate(earlier)).Hours() / 24)
}

type ProgressService struct {
	Enrollments  EnrollmentStore
	Progresses   ProgressStore
	Courses      CourseReader
	Quizzes      *QuizService
	Certificates *CertificateService
	Events       *EventBus
	Scanner      OrphanScanner

	now func() time.Time // 测试注入
}

func NewProgressService(
	enrollments EnrollmentStore,
	progresses ProgressStore,
	courses CourseReader,
	quizzes *QuizService,
	certificates *CertificateService,
	events *EventBus,
	scanner OrphanScanner,
) *ProgressService {
	return &ProgressService{
		Enrollments:  enrollments,
		Progresses:   progresses,
		Courses:      courses,
		Quizzes:      quizzes,
		Certificates: certificates,
		Events:       events,
		Scanner:      scanner,
		now:          time.Now,
	}
}

// CompleteLessonResult 完成一课的结果。证书签发失败不回滚进度，
// 通过 CertificateError 标记部分失败，调用方可稍后重试签发。
type CompleteLessonResult struct {
	ProgressPercent   int             `json:"progressPercent"`
	IsCompleted       bool            `json:"isCompleted"`
	StreakDays        int             `json:"streakDays"`
	CertificateIssued bool            `json:"certificateIssued"`
	CertificateError  bool            `json:"certificateError,omitempty"`
	Progress          *model.Progress `json:"-"`
}

// CompleteLesson 记录课时完成。对课程进度幂等：同一课时重复完成
// 只累计学习时长、覆盖测验分数，不重复计数。
func (s *ProgressService) CompleteLesson(learnerID, courseID, lessonID uint, timeSpentMin int, quizScore *int) (*CompleteLessonResult, error) {
	// 时长只增不减，负值会在重复完成时倒扣累计时长
	if timeSpentMin < 0 {
		return nil, util.ErrNegativeTimeSpent
	}

	if _, err := s.Enrollments.FindByLearnerAndCourse(learnerID, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotEnrolled
		}
		return nil, err
	}

	exists, err := s.Courses.LessonExists(courseID, lessonID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, util.ErrLessonNotFound
	}

	var result *CompleteLessonResult
	for attempt := 0; ; attempt++ {
		result, err = s.completeOnce(learnerID, courseID, lessonID, timeSpentMin, quizScore)
		if !errors.Is(err, util.ErrVersionConflict) || attempt >= maxCompletionRetries {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	monitoring.LessonsCompletedTotal.Inc()

	// 选课记录上的反范式缓存，失败只记日志
	if err := s.Enrollments.UpdateCompletion(learnerID, courseID, result.ProgressPercent); err != nil {
		logger.Log.Warn("failed to refresh enrollment completion cache",
			zap.Uint("learnerId", learnerID), zap.Uint("courseId", courseID), zap.Error(err))
	}

	return result, nil
}

// completeOnce 单次读-改-写。并发修改同一进度记录时返回 ErrVersionConflict。
func (s *ProgressService) completeOnce(learnerID, courseID, lessonID uint, timeSpentMin int, quizScore *int) (*CompleteLessonResult, error) {
	progress, err := s.Progresses.FindByLearnerAndCourse(learnerID, courseID)
	if err != nil {
		return nil, err
	}

	now := s.now()

	entry := progress.FindCompletion(lessonID)
	if entry == nil {
		progress.CompletedLessons = append(progress.CompletedLessons, model.LessonCompletion{
			LessonID:     lessonID,
			CompletedAt:  now,
			TimeSpentMin: timeSpentMin,
			QuizScore:    quizScore,
		})
		entry = &progress.CompletedLessons[len(progress.CompletedLessons)-1]
	} else {
		entry.TimeSpentMin += timeSpentMin
		if quizScore != nil {
			entry.QuizScore = quizScore // 重考覆盖
		}
	}

	// 课时总数每次取最新：选课后课程加课会把百分比拉回 100 以下
	total, err := s.Courses.TotalLessons(courseID)
	if err != nil {
		return nil, err
	}
	progress.ProgressPercent = CompletionPercent(len(progress.CompletedLessons), total)
	progress.TotalTimeSpentMin += timeSpentMin

	if avg, ok := averageQuizScore(progress.CompletedLessons); ok {
		progress.AverageQuizScore = avg
	}

	s.updateStreak(progress, now)

	newlyCompleted := false
	if progress.ProgressPercent >= 100 && !progress.IsCompleted {
		progress.IsCompleted = true
		completedAt := now
		progress.CompletedAt = &completedAt
		newlyCompleted = true
	}

	if err := s.Progresses.SaveCompletion(progress, entry); err != nil {
		return nil, err
	}

	result := &CompleteLessonResult{
		ProgressPercent: progress.ProgressPercent,
		IsCompleted:     progress.IsCompleted,
		StreakDays:      progress.StreakDays,
		Progress:        progress,
	}

	if newlyCompleted {
		s.Events.Publish(Event{
			Type:      EventCourseCompleted,
			LearnerID: learnerID,
			CourseID:  courseID,
		})

		_, certErr := s.Certificates.Issue(learnerID, courseID, progress)
		switch {
		case certErr == nil:
			result.CertificateIssued = true
		case errors.Is(certErr, util.ErrCertificateExists):
			// 重学后再次完成：证书早已签发，不算失败
		default:
			result.CertificateError = true
			logger.Log.Error("certificate issuance failed after completion",
				zap.Uint("learnerId", learnerID), zap.Uint("courseId", courseID), zap.Error(certErr))
		}
	}

	return result, nil
}

// updateStreak 按日历日更新连续学习天数：
// 同日多次学习不变；隔 1 天 +1；隔 2 天及以上重置为 1
func (s *ProgressService) updateStreak(progress *model.Progress, now time.Time) {
	today := toDate(now)
	if progress.LastActiveDate == nil {
		progress.StreakDays = 1
	} else {
		switch gap := daysBetween(*progress.LastActiveDate, now); {
		case gap == 1:
			progress.StreakDays++
		case gap > 1:
			progress.StreakDays = 1
		}
	}
	progress.LastActiveDate = &today
}

// SubmitQuizResult 测验提交结果：判分明细 + 进度推进结果
type SubmitQuizResult struct {
	Grade      *GradeResult          `json:"grade"`
	Completion *CompleteLessonResult `json:"completion"`
}

// SubmitQuiz 对课时内嵌测验判分，并把聚合分数作为该课时的完成记录入账
func (s *ProgressService) SubmitQuiz(learnerID, courseID, lessonID uint, answers map[uint]int, timeSpentMin int) (*SubmitQuizResult, error) {
	if timeSpentMin < 0 {
		return nil, util.ErrNegativeTimeSpent
	}

	if _, err := s.Enrollments.FindByLearnerAndCourse(learnerID, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotEnrolled
		}
		return nil, err
	}

	quiz, err := s.Courses.QuizForLesson(courseID, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrLessonNotFound
		}
		return nil, err
	}
	if quiz == nil {
		return nil, util.ErrQuizNotFound
	}

	grade, err := s.Quizzes.Grade(quiz.Questions, answers, quiz.PassingScore)
	if err != nil {
		return nil, err
	}

	completion, err := s.CompleteLesson(learnerID, courseID, lessonID, timeSpentMin, &grade.Score)
	if err != nil {
		return nil, err
	}

	return &SubmitQuizResult{Grade: grade, Completion: completion}, nil
}

func (s *ProgressService) GetProgress(learnerID, courseID uint) (*model.Progress, error) {
	return s.Progresses.FindByLearnerAndCourse(learnerID, courseID)
}

// ResetProgress 学员主动清零进度重新学习。选课关系保留；
// 已签发的证书同样保留（产品决策：重学不吊销已获证书）。
func (s *ProgressService) ResetProgress(learnerID, courseID uint) error {
	progress, err := s.Progresses.FindByLearnerAndCourse(learnerID, courseID)
	if err != nil {
		return err
	}
	return s.Progresses.Reset(progress)
}

func (s *ProgressService) AddBookmark(learnerID, courseID, lessonID uint, timestampSeconds int, title string) (*model.Bookmark, error) {
	progress, err := s.Progresses.FindByLearnerAndCourse(learnerID, courseID)
	if err != nil {
		return nil, err
	}

	exists, err := s.Courses.LessonExists(courseID, lessonID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, util.ErrLessonNotFound
	}

	bookmark := &model.Bookmark{
		ProgressID:       progress.ID,
		LessonID:         lessonID,
		TimestampSeconds: timestampSeconds,
		Title:            title,
	}
	if err := s.Progresses.AddBookmark(bookmark); err != nil {
		return nil, err
	}
	return bookmark, nil
}

func (s *ProgressService) RemoveBookmark(learnerID, courseID, bookmarkID uint) error {
	progress, err := s.Progresses.FindByLearnerAndCourse(learnerID, courseID)
	if err != nil {
		return err
	}
	return s.Progresses.DeleteBookmark(progress.ID, bookmarkID)
}

func (s *ProgressService) AddNote(learnerID, courseID, lessonID uint, timestampSeconds int, content string) (*model.Note, error) {
	progress, err := s.Progresses.FindByLearnerAndCourse(learnerID, courseID)
	if err != nil {
		return nil, err
	}

	exists, err := s.Courses.LessonExists(courseID, lessonID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, util.ErrLessonNotFound
	}

	note := &model.Note{
		ProgressID:       progress.ID,
		LessonID:         lessonID,
		TimestampSeconds: timestampSeconds,
		Content:          content,
	}
	if err := s.Progresses.AddNote(note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *ProgressService) UpdateNote(learnerID, courseID, noteID uint, content string) error {
	progress, err := s.Progresses.FindByLearnerAndCourse(learnerID, courseID)
	if err != nil {
		return err
	}
	return s.Progresses.UpdateNote(progress.ID, noteID, content)
}

func (s *ProgressService) RemoveNote(learnerID, courseID, noteID uint) error {
	progress, err := s.Progresses.FindByLearnerAndCourse(learnerID, courseID)
	if err != nil {
		return err
	}
	return s.Progresses.DeleteNote(progress.ID, noteID)
}

// SweepOrphans 清理课程已下架或已删除的进度记录，后台任务定期调用
func (s *ProgressService) SweepOrphans() error {
	courseIDs, err := s.Progresses.DistinctCourseIDs()
	if err != nil {
		return err
	}

	orphaned, err := s.Scanner.UnpublishedOrDeletedIDs(courseIDs)
	if err != nil {
		return err
	}
	if len(orphaned) == 0 {
		return nil
	}

	deleted, err := s.Progresses.DeleteByCourses(orphaned)
	if err != nil {
		return err
	}
	if deleted > 0 {
		logger.Log.Info("orphaned progress records removed",
			zap.Int("courses", len(orphaned)), zap.Int64("records", deleted))
	}
	return nil
}
