package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"edulearn_backend/internal/model"
	"edulearn_backend/internal/util"
	"edulearn_backend/pkg/logger"
	"edulearn_backend/pkg/monitoring"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 编号碰撞后的换号重试次数。编号取自 crypto/rand，碰撞概率可忽略，
// 存储层唯一索引兜底
const maxIdentityRetries = 3

// GradeForScore 分数到等级的唯一映射出处（固定阶梯，含下界）
func GradeForScore(score float64) model.CertificateGrade {
	switch {
	case score >= 95:
		return model.GradeAPlus
	case score >= 90:
		return model.GradeA
	case score >= 85:
		return model.GradeBPlus
	case score >= 80:
		return model.GradeB
	case score >= 75:
		return model.GradeCPlus
	case score >= 70:
		return model.GradeC
	default:
		return model.GradePass
	}
}

func randomHex(bytes int) string {
	b := make([]byte, bytes)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// 证书编号与验证码相互独立：知道其中一个推不出另一个
func newCertificateNo() string {
	return "EDU-" + strings.ToUpper(randomHex(8))
}

func newVerificationCode() string {
	return randomHex(16)
}

type CertificateService struct {
	Certificates CertificateStore
	Enrollments  EnrollmentStore
	Courses      CourseReader
	Users        UserReader
	Events       *EventBus
	Storage      *StorageService // 可选：证书制品落对象存储
}

func NewCertificateService(
	certificates CertificateStore,
	enrollments EnrollmentStore,
	courses CourseReader,
	users UserReader,
	events *EventBus,
	storage *StorageService,
) *CertificateService {
	return &CertificateService{
		Certificates: certificates,
		Enrollments:  enrollments,
		Courses:      courses,
		Users:        users,
		Events:       events,
		Storage:      storage,
	}
}

// Issue 签发结业证书，每个 (learner, course) 恰好一次。
// 前置条件不满足是调用方错误：未完成返回 ErrNotCompleted，
// 已签发返回 ErrCertificateExists（可区分于真正的签发故障）。
func (s *CertificateService) Issue(learnerID, courseID uint, progress *model.Progress) (*model.Certificate, error) {
	if progress == nil || !progress.IsCompleted {
		return nil, util.ErrNotCompleted
	}

	learner, err := s.Users.FindByID(learnerID)
	if err != nil {
		return nil, err
	}
	course, err := s.Courses.FindByID(courseID)
	if err != nil {
		return nil, err
	}

	// 无测验课程按满分结业
	score, ok := averageQuizScore(progress.CompletedLessons)
	if !ok {
		score = 100
	}

	completionDate := progress.BaseModel.CreatedAt
	if progress.CompletedAt != nil {
		completionDate = *progress.CompletedAt
	}

	// 技能标签在签发时快照，后续课程编辑不影响已发证书
	tags := make([]string, len(course.SkillTags))
	copy(tags, course.SkillTags)

	var cert *model.Certificate
	for attempt := 0; attempt < maxIdentityRetries; attempt++ {
		cert = &model.Certificate{
			CertificateNo:    newCertificateNo(),
			VerificationCode: newVerificationCode(),
			LearnerID:        learnerID,
			CourseID:         courseID,
			LearnerName:      learner.Name,
			CourseTitle:      course.Title,
			Grade:            GradeForScore(score),
			Score:            score,
			SkillTags:        tags,
			CompletionDate:   completionDate,
			IsValid:          true,
		}

		err = s.Certificates.Create(cert)
		if errors.Is(err, util.ErrIdentityConflict) {
			continue // 编号撞了，换一个再试
		}
		if err != nil {
			return nil, err
		}

		// 反范式标记，失败不影响证书本身
		if err := s.Enrollments.SetCertificateIssued(learnerID, courseID); err != nil {
			logger.Log.Warn("failed to flag enrollment as certified",
				zap.Uint("learnerId", learnerID), zap.Uint("courseId", courseID), zap.Error(err))
		}

		monitoring.CertificatesIssuedTotal.Inc()
		s.Events.Publish(Event{
			Type:          EventCertificateIssued,
			LearnerID:     learnerID,
			CourseID:      courseID,
			CourseTitle:   course.Title,
			CertificateNo: cert.CertificateNo,
		})

		if s.Storage != nil {
			go s.storeArtifact(cert)
		}
		return cert, nil
	}

	return nil, util.ErrIdentityConflict
}

// storeArtifact 渲染证书制品并上传到对象存储，成功后回填下载地址。
// 异步执行，失败只记日志，证书记录本身不受影响。
func (s *CertificateService) storeArtifact(cert *model.Certificate) {
	payload, err := json.MarshalIndent(cert, "", "  ")
	if err != nil {
		logger.Log.Warn("failed to render certificate artifact",
			zap.String("certificateNo", cert.CertificateNo), zap.Error(err))
		return
	}

	filename := "certificates/" + cert.CertificateNo + ".json"
	url, err := s.Storage.Upload(context.Background(), filename, bytes.NewReader(payload), int64(len(payload)), "application/json")
	if err != nil {
		logger.Log.Warn("failed to upload certificate artifact",
			zap.String("certificateNo", cert.CertificateNo), zap.Error(err))
		return
	}

	if err := s.Certificates.SetArtifactURL(cert.ID, url); err != nil {
		logger.Log.Warn("failed to record certificate artifact url",
			zap.String("certificateNo", cert.CertificateNo), zap.Error(err))
	}
}

// Verify 公开验证：编号与验证码必须精确配对且证书有效，
// 只披露最小字段，绝不返回验证码本身
func (s *CertificateService) Verify(certificateNo, verificationCode string) (*model.VerificationResult, error) {
	if certificateNo == "" || verificationCode == "" {
		return nil, util.ErrCertificateInvalid
	}

	cert, err := s.Certificates.FindByNoAndCode(certificateNo, verificationCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCertificateInvalid
		}
		return nil, err
	}
	if !cert.IsValid {
		return nil, util.ErrCertificateInvalid
	}

	return &model.VerificationResult{
		LearnerName:    cert.LearnerName,
		CourseTitle:    cert.CourseTitle,
		CompletionDate: cert.CompletionDate,
		Grade:          cert.Grade,
	}, nil
}

func (s *CertificateService) ListByLearner(learnerID uint) ([]model.Certificate, error) {
	return s.Certificates.ListByLearner(learnerID)
}

// Download 返回证书记录并累加下载计数（签发后唯一可变字段）
func (s *CertificateService) Download(learnerID, courseID uint) (*model.Certificate, error) {
	cert, err := s.Certificates.FindByLearnerAndCourse(learnerID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCertificateInvalid
		}
		return nil, err
	}

	if err := s.Certificates.IncrementDownload(cert.ID); err != nil {
		return nil, err
	}
	cert.DownloadCount++
	return cert, nil
}
