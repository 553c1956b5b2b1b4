package service

import (
	"edulearn_backend/internal/model"
)

// 各聚合的存储接口：服务层只依赖这些接口，gorm 仓库实现之，
// 测试用内存假实现替换。

// CourseReader 课程结构只读视图
type CourseReader interface {
	FindByID(id uint) (*model.Course, error)
	TotalLessons(courseID uint) (int, error)
	LessonExists(courseID, lessonID uint) (bool, error)
	QuizForLesson(courseID, lessonID uint) (*model.Quiz, error)
	SkillTags(courseID uint) ([]string, error)
}

type EnrollmentStore interface {
	CreateWithProgress(enrollment *model.Enrollment, progress *model.Progress) error
	FindByLearnerAndCourse(learnerID, courseID uint) (*model.Enrollment, error)
	ListByLearner(learnerID uint) ([]model.Enrollment, error)
	UpdateCompletion(learnerID, courseID uint, percent int) error
	SetCertificateIssued(learnerID, courseID uint) error
}

type ProgressStore interface {
	FindByLearnerAndCourse(learnerID, courseID uint) (*model.Progress, error)
	SaveCompletion(p *model.Progress, entry *model.LessonCompletion) error
	Reset(p *model.Progress) error
	AddBookmark(bookmark *model.Bookmark) error
	DeleteBookmark(progressID, bookmarkID uint) error
	AddNote(note *model.Note) error
	UpdateNote(progressID, noteID uint, content string) error
	DeleteNote(progressID, noteID uint) error
	DistinctCourseIDs() ([]uint, error)
	DeleteByCourses(courseIDs []uint) (int64, error)
}

type CertificateStore interface {
	Create(cert *model.Certificate) error
	FindByLearnerAndCourse(learnerID, courseID uint) (*model.Certificate, error)
	FindByNoAndCode(certificateNo, verificationCode string) (*model.Certificate, error)
	ListByLearner(learnerID uint) ([]model.Certificate, error)
	IncrementDownload(certID string) error
	SetArtifactURL(certID, url string) error
}

type UserReader interface {
	FindByID(id uint) (*model.User, error)
}

// OrphanScanner 孤儿清理需要的课程状态查询，与只读结构视图分开声明
type OrphanScanner interface {
	UnpublishedOrDeletedIDs(courseIDs []uint) ([]uint, error)
}
