package model

import "time"

// Enrollment 选课关系：同一 (learner, course) 至多一条，由唯一索引保证
// swagger:model Enrollment
type Enrollment struct {
	BaseModel
	LearnerID          uint      `gorm:"uniqueIndex:idx_learner_course;not null" json:"learnerId"`
	CourseID           uint      `gorm:"uniqueIndex:idx_learner_course;not null" json:"courseId"`
	EnrolledAt         time.Time `gorm:"not null" json:"enrolledAt"`
	CompletionPercent  int       `gorm:"default:0" json:"completionPercent"` // 反范式缓存，权威值在 Progress
	CertificateIssued  bool      `gorm:"default:false" json:"certificateIssued"`
	LastAccessedLesson uint      `gorm:"default:0" json:"lastAccessedLesson"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
