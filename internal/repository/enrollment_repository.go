package repository

import (
	"edulearn_backend/internal/model"
	"edulearn_backend/internal/util"
	"errors"
	"time"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

// CreateWithProgress 在同一事务内创建选课记录和空进度记录，并累加课程选课计数。
// 重复选课由 (learner_id, course_id) 唯一索引拦截，转换为 ErrAlreadyEnrolled，
// 不做先查后插。
func (r *EnrollmentRepository) CreateWithProgress(enrollment *model.Enrollment, progress *model.Progress) error {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if enrollment.EnrolledAt.IsZero() {
			enrollment.EnrolledAt = time.Now()
		}
		if err := tx.Create(enrollment).Error; err != nil {
			return err
		}
		if err := tx.Create(progress).Error; err != nil {
			return err
		}
		return tx.Model(&model.Course{}).Where("id = ?", enrollment.CourseID).
			Update("enrollment_count", gorm.Expr("enrollment_count + 1")).Error
	})

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return util.ErrAlreadyEnrolled
	}
	return err
}

func (r *EnrollmentRepository) FindByLearnerAndCourse(learnerID, courseID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.DB.Where("learner_id = ? AND course_id = ?", learnerID, courseID).First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *EnrollmentRepository) ListByLearner(learnerID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.DB.Where("learner_id = ?", learnerID).Order("enrolled_at DESC").Find(&enrollments).Error
	return enrollments, err
}

// UpdateCompletion 刷新选课记录上的反范式进度缓存
func (r *EnrollmentRepository) UpdateCompletion(learnerID, courseID uint, percent int) error {
	return r.DB.Model(&model.Enrollment{}).
		Where("learner_id = ? AND course_id = ?", learnerID, courseID).
		Update("completion_percent", percent).Error
}

func (r *EnrollmentRepository) SetCertificateIssued(learnerID, courseID uint) error {
	return r.DB.Model(&model.Enrollment{}).
		Where("learner_id = ? AND course_id = ?", learnerID, courseID).
		Update("certificate_issued", true).Error
}
