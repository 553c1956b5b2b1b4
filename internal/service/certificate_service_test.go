package service

import (
	"edulearn_backend/internal/model"
	"edulearn_backend/internal/util"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradeForScore(t *testing.T) {
	cases := []struct {
		score float64
		want  model.CertificateGrade
	}{
		{100, model.GradeAPlus},
		{95, model.GradeAPlus},
		{94.9, model.GradeA},
		{90, model.GradeA},
		{89, model.GradeBPlus},
		{85, model.GradeBPlus},
		{84, model.GradeB},
		{80, model.GradeB},
		{75, model.GradeCPlus},
		{70, model.GradeC},
		{69.9, model.GradePass},
		{0, model.GradePass},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, GradeForScore(c.score), "score %.1f", c.score)
	}
}

func completedProgress(learnerID, courseID uint, quizScores ...int) *model.Progress {
	completedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	progress := &model.Progress{
		LearnerID:       learnerID,
		CourseID:        courseID,
		ProgressPercent: 100,
		IsCompleted:     true,
		CompletedAt:     &completedAt,
	}
	for i, score := range quizScores {
		s := score
		entry := model.LessonCompletion{LessonID: uint(100 + i), CompletedAt: completedAt, QuizScore: &s}
		progress.CompletedLessons = append(progress.CompletedLessons, entry)
	}
	return progress
}

func TestIssueRequiresCompletion(t *testing.T) {
	f := newFixture()
	f.addUser(1, "alice", "student")
	f.addCourse(10, 2, 101)

	_, err := f.certificates.Issue(1, 10, &model.Progress{IsCompleted: false})
	assert.ErrorIs(t, err, util.ErrNotCompleted)

	_, err = f.certificates.Issue(1, 10, nil)
	assert.ErrorIs(t, err, util.ErrNotCompleted)
}

func TestIssueSnapshotsLearnerAndCourse(t *testing.T) {
	f := newFixture()
	f.addUser(1, "alice", "student")
	course := f.addCourse(10, 2, 101, 102)
	f.enroll(1, 10)

	cert, err := f.certificates.Issue(1, 10, completedProgress(1, 10, 90, 94))
	require.NoError(t, err)

	assert.Equal(t, "alice", cert.LearnerName)
	assert.Equal(t, course.Title, cert.CourseTitle)
	assert.Equal(t, []string{"go", "backend"}, cert.SkillTags)
	assert.InDelta(t, 92.0, cert.Score, 0.001)
	assert.Equal(t, model.GradeA, cert.Grade)
	assert.True(t, cert.IsValid)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), cert.CompletionDate)

	// 标签是快照：课程后续编辑不影响已发证书
	course.SkillTags[0] = "rust"
	assert.Equal(t, "go", cert.SkillTags[0])
}

func TestIssueIdentityFormat(t *testing.T) {
	f := newFixture()
	f.addUser(1, "alice", "student")
	f.addCourse(10, 2, 101)
	f.enroll(1, 10)

	cert, err := f.certificates.Issue(1, 10, completedProgress(1, 10))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(cert.CertificateNo, "EDU-"))
	assert.Len(t, cert.CertificateNo, 4+16)
	assert.Equal(t, strings.ToUpper(cert.CertificateNo), cert.CertificateNo)
	assert.Len(t, cert.VerificationCode, 32)
	assert.NotEqual(t, cert.CertificateNo, cert.VerificationCode)
}

func TestIssueDefaultScoreWithoutQuizzes(t *testing.T) {
	f := newFixture()
	f.addUser(1, "alice", "student")
	f.addCourse(10, 2, 101, 102, 103, 104)
	f.enroll(1, 10)

	// 四节纯视频课，没有任何测验：按满分结业，等级 A+
	for _, lessonID := range []uint{101, 102, 103, 104} {
		_, err := f.progress.CompleteLesson(1, 10, lessonID, 10, nil)
		require.NoError(t, err)
	}

	cert, err := f.store.FindCertificate(1, 10)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, cert.Score, 0.001)
	assert.Equal(t, model.GradeAPlus, cert.Grade)
}

func TestIssueExactlyOnce(t *testing.T) {
	f := newFixture()
	f.addUser(1, "alice", "student")
	f.addCourse(10, 2, 101)
	f.enroll(1, 10)

	progress := completedProgress(1, 10)
	_, err := f.certificates.Issue(1, 10, progress)
	require.NoError(t, err)

	_, err = f.certificates.Issue(1, 10, progress)
	assert.ErrorIs(t, err, util.ErrCertificateExists)
}

func TestIssueExactlyOnceUnderConcurrency(t *testing.T) {
	f := newFixture()
	f.addUser(1, "alice", "student")
	f.addCourse(10, 2, 101)
	f.enroll(1, 10)

	progress := completedProgress(1, 10)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < len(errs); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.certificates.Issue(1, 10, progress)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, util.ErrCertificateExists)
		}
	}
	assert.Equal(t, 1, succeeded)

	certs, err := f.store.ListCertificates(1)
	require.NoError(t, err)
	assert.Len(t, certs, 1)
}

func TestIssueRetriesIdentityCollision(t *testing.T) {
	f := newFixture()
	f.addUser(1, "alice", "student")
	f.addCourse(10, 2, 101)
	f.enroll(1, 10)

	f.store.identityConflicts = 2

	cert, err := f.certificates.Issue(1, 10, completedProgress(1, 10))
	require.NoError(t, err)
	assert.NotEmpty(t, cert.CertificateNo)
}

func TestIssueGivesUpAfterIdentityRetries(t *testing.T) {
	f := newFixture()
	f.addUser(1, "alice", "student")
	f.addCourse(10, 2, 101)
	f.enroll(1, 10)

	f.store.identityConflicts = 100

	_, err := f.certificates.Issue(1, 10, completedProgress(1, 10))
	assert.ErrorIs(t, err, util.ErrIdentityConflict)
}

func TestVerifyRequiresExactPair(t *testing.T) {
	f := newFixture()
	f.addUser(1, "alice", "student")
	f.addCourse(10, 2, 101)
	f.enroll(1, 10)

	cert, err := f.certificates.Issue(1, 10, completedProgress(1, 10, 96))
	require.NoError(t, err)

	result, err := f.certificates.Verify(cert.CertificateNo, cert.VerificationCode)
	require.NoError(t, err)
	assert.Equal(t, "alice", result.LearnerName)
	assert.Equal(t, model.GradeAPlus, result.Grade)

	_, err = f.certificates.Verify(cert.CertificateNo, "wrong-code")
	assert.ErrorIs(t, err, util.ErrCertificateInvalid)

	_, err = f.certificates.Verify("EDU-DOESNOTEXIST0", cert.VerificationCode)
	assert.ErrorIs(t, err, util.ErrCertificateInvalid)

	_, err = f.certificates.Verify("", "")
	assert.ErrorIs(t, err, util.ErrCertificateInvalid)
}

func TestVerifyRejectsInvalidatedCertificate(t *testing.T) {
	f := newFixture()
	f.addUser(1, "alice", "student")
	f.addCourse(10, 2, 101)
	f.enroll(1, 10)

	cert, err := f.certificates.Issue(1, 10, completedProgress(1, 10))
	require.NoError(t, err)

	require.Len(t, f.store.certificates, 1)
	f.store.certificates[0].IsValid = false

	_, err = f.certificates.Verify(cert.CertificateNo, cert.VerificationCode)
	assert.ErrorIs(t, err, util.ErrCertificateInvalid)
}

func TestDownloadIncrementsCounter(t *testing.T) {
	f := newFixture()
	f.addUser(1, "alice", "student")
	f.addCourse(10, 2, 101)
	f.enroll(1, 10)

	_, err := f.certificates.Issue(1, 10, completedProgress(1, 10))
	require.NoError(t, err)

	cert, err := f.certificates.Download(1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, cert.DownloadCount)

	cert, err = f.certificates.Download(1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, cert.DownloadCount)

	_, err = f.certificates.Download(1, 99)
	assert.ErrorIs(t, err, util.ErrCertificateInvalid)
}
