package repository

import (
	"edulearn_backend/internal/model"
	"edulearn_backend/internal/util"
	"errors"

	"gorm.io/gorm"
)

type CertificateRepository struct {
	DB *gorm.DB
}

func NewCertificateRepository(db *gorm.DB) *CertificateRepository {
	return &CertificateRepository{DB: db}
}

// Create 依赖三个唯一索引做 insert-if-absent：
// (learner_id, course_id) 保证每对至多一张证书，certificate_no 与
// verification_code 各自全局唯一。冲突时区分是重复签发还是编号碰撞：
// 前者返回 ErrCertificateExists，后者返回 ErrIdentityConflict（调用方换号重试）。
func (r *CertificateRepository) Create(cert *model.Certificate) error {
	err := r.DB.Create(cert).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}

	var count int64
	if lookupErr := r.DB.Model(&model.Certificate{}).
		Where("learner_id = ? AND course_id = ?", cert.LearnerID, cert.CourseID).
		Count(&count).Error; lookupErr != nil {
		return err
	}
	if count > 0 {
		return util.ErrCertificateExists
	}
	return util.ErrIdentityConflict
}

func (r *CertificateRepository) FindByLearnerAndCourse(learnerID, courseID uint) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.DB.Where("learner_id = ? AND course_id = ?", learnerID, courseID).First(&cert).Error
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

// FindByNoAndCode 公开验证查询：编号与验证码必须同时精确匹配
func (r *CertificateRepository) FindByNoAndCode(certificateNo, verificationCode string) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.DB.
		Where("certificate_no = ? AND verification_code = ?", certificateNo, verificationCode).
		First(&cert).Error
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *CertificateRepository) ListByLearner(learnerID uint) ([]model.Certificate, error) {
	var certs []model.Certificate
	err := r.DB.Where("learner_id = ?", learnerID).Order("completion_date DESC").Find(&certs).Error
	return certs, err
}

func (r *CertificateRepository) IncrementDownload(certID string) error {
	return r.DB.Model(&model.Certificate{}).Where("id = ?", certID).
		Update("download_count", gorm.Expr("download_count + 1")).Error
}

func (r *CertificateRepository) SetArtifactURL(certID, url string) error {
	return r.DB.Model(&model.Certificate{}).Where("id = ?", certID).
		Update("artifact_url", url).Error
}
