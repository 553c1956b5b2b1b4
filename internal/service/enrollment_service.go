package service

import (
	"edulearn_backend/internal/model"
	"edulearn_backend/internal/util"
	"edulearn_backend/pkg/monitoring"
	"errors"
	"time"

	"gorm.io/gorm"
)

type EnrollmentService struct {
	Enrollments  EnrollmentStore
	Progresses   ProgressStore
	Courses      CourseReader
	Certificates CertificateStore
	Events       *EventBus
}

func NewEnrollmentService(
	enrollments EnrollmentStore,
	progresses ProgressStore,
	courses CourseReader,
	certificates CertificateStore,
	events *EventBus,
) *EnrollmentService {
	return &EnrollmentService{
		Enrollments:  enrollments,
		Progresses:   progresses,
		Courses:      courses,
		Certificates: certificates,
		Events:       events,
	}
}

// Enroll 学员选课：课程必须已发布，讲师不能选自己的课，同一对至多一条。
// 选课记录与空进度记录原子创建。
func (s *EnrollmentService) Enroll(learnerID, courseID uint) (*model.Enrollment, error) {
	course, err := s.Courses.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotAvailable
		}
		return nil, err
	}
	if !course.IsPublished {
		return nil, util.ErrCourseNotAvailable
	}
	if course.InstructorID == learnerID {
		return nil, util.ErrSelfEnrollment
	}

	enrollment := &model.Enrollment{
		LearnerID:  learnerID,
		CourseID:   courseID,
		EnrolledAt: time.Now(),
	}
	progress := &model.Progress{
		LearnerID: learnerID,
		CourseID:  courseID,
	}

	if err := s.Enrollments.CreateWithProgress(enrollment, progress); err != nil {
		return nil, err
	}

	monitoring.EnrollmentsTotal.Inc()
	s.Events.Publish(Event{
		Type:        EventEnrolled,
		LearnerID:   learnerID,
		CourseID:    courseID,
		CourseTitle: course.Title,
	})

	return enrollment, nil
}

// EnrollmentStatus 选课状态投影：未选课时 Enrolled 为 false，而不是查无记录
type EnrollmentStatus struct {
	Enrolled    bool               `json:"enrolled"`
	Enrollment  *model.Enrollment  `json:"enrollment,omitempty"`
	Progress    *model.Progress    `json:"progress,omitempty"`
	Certificate *model.Certificate `json:"certificate,omitempty"`
}

func (s *EnrollmentService) GetStatus(learnerID, courseID uint) (*EnrollmentStatus, error) {
	enrollment, err := s.Enrollments.FindByLearnerAndCourse(learnerID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &EnrollmentStatus{Enrolled: false}, nil
		}
		return nil, err
	}

	status := &EnrollmentStatus{Enrolled: true, Enrollment: enrollment}

	progress, err := s.Progresses.FindByLearnerAndCourse(learnerID, courseID)
	if err != nil && !errors.Is(err, util.ErrProgressNotFound) {
		return nil, err
	}
	status.Progress = progress

	cert, err := s.Certificates.FindByLearnerAndCourse(learnerID, courseID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	status.Certificate = cert

	return status, nil
}

func (s *EnrollmentService) ListByLearner(learnerID uint) ([]model.Enrollment, error) {
	return s.Enrollments.ListByLearner(learnerID)
}
