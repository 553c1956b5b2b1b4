package util

import "errors"

// 业务前置条件错误：调用方据此分支，不做字符串匹配
var (
	ErrAlreadyEnrolled    = errors.New("already enrolled in this course")
	ErrNotEnrolled        = errors.New("not enrolled in this course")
	ErrSelfEnrollment     = errors.New("instructors cannot enroll in their own course")
	ErrCourseNotAvailable = errors.New("course not available")
	ErrCourseNotFound     = errors.New("course not found")
	ErrLessonNotFound     = errors.New("lesson not found in this course")
	ErrQuizNotFound       = errors.New("lesson has no quiz")
	ErrEmptyQuiz          = errors.New("quiz has no questions")
	ErrNotCompleted       = errors.New("course not yet completed")
	ErrNegativeTimeSpent  = errors.New("time spent must not be negative")
	ErrCertificateExists  = errors.New("certificate already issued")
	ErrCertificateInvalid = errors.New("certificate not found or invalid")
	ErrProgressNotFound   = errors.New("progress record not found")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrEmailRegistered    = errors.New("该邮箱已被注册")
	ErrPermissionDenied   = errors.New("permission denied")

	// 完整性错误：对本次操作致命，向调用方只暴露通用失败
	ErrVersionConflict  = errors.New("progress record was modified concurrently")
	ErrIdentityConflict = errors.New("certificate identity generation exhausted retries")
)
