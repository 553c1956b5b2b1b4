package model

import "time"

type CertificateGrade string

const (
	GradeAPlus CertificateGrade = "A+"
	GradeA     CertificateGrade = "A"
	GradeBPlus CertificateGrade = "B+"
	GradeB     CertificateGrade = "B"
	GradeCPlus CertificateGrade = "C+"
	GradeC     CertificateGrade = "C"
	GradePass  CertificateGrade = "Pass"
)

// Certificate 结业证书：每个 (learner, course) 至多一张，签发后除下载计数外不可变。
// CertificateNo 与 VerificationCode 彼此独立生成，二者配对才能公开验证。
// swagger:model Certificate
type Certificate struct {
	UUIDBase
	CertificateNo    string           `gorm:"size:64;uniqueIndex;not null" json:"certificateNo"`
	VerificationCode string           `gorm:"size:64;uniqueIndex;not null" json:"-"` // 验证密钥，不随记录下发
	LearnerID        uint             `gorm:"uniqueIndex:idx_cert_learner_course;not null" json:"learnerId"`
	CourseID         uint             `gorm:"uniqueIndex:idx_cert_learner_course;not null" json:"courseId"`
	LearnerName      string           `gorm:"size:100;not null" json:"learnerName"` // 签发时快照
	CourseTitle      string           `gorm:"size:255;not null" json:"courseTitle"` // 签发时快照
	Grade            CertificateGrade `gorm:"size:8;not null" json:"grade"`
	Score            float64          `gorm:"not null" json:"score"`
	SkillTags        []string         `gorm:"type:json;serializer:json" json:"skillTags"`
	CompletionDate   time.Time        `gorm:"not null" json:"completionDate"`
	IsValid          bool             `gorm:"default:true" json:"isValid"`
	ArtifactURL      string           `gorm:"size:512" json:"artifactUrl,omitempty"`
	DownloadCount    int              `gorm:"default:0" json:"downloadCount"`
}

func (Certificate) TableName() string {
	return "certificates"
}

// VerificationResult 公开验证的最小披露字段
// swagger:model VerificationResult
type VerificationResult struct {
	LearnerName    string           `json:"learnerName"`
	CourseTitle    string           `json:"courseTitle"`
	CompletionDate time.Time        `json:"completionDate"`
	Grade          CertificateGrade `json:"grade"`
}
