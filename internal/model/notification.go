package model

type NotificationType string

const (
	NotifyEnrolled          NotificationType = "enrolled"
	NotifyCourseCompleted   NotificationType = "course_completed"
	NotifyCertificateIssued NotificationType = "certificate_issued"
)

// swagger:model Notification
type Notification struct {
	BaseModel
	UserID  uint             `gorm:"index;not null" json:"userId"`
	Type    NotificationType `gorm:"size:32;not null" json:"type"`
	Title   string           `gorm:"size:255;not null" json:"title"`
	Message string           `gorm:"type:text" json:"message"`
	IsRead  bool             `gorm:"default:false" json:"isRead"`
}

func (Notification) TableName() string {
	return "notifications"
}
