package service

import (
	"edulearn_backend/internal/model"
	"edulearn_backend/internal/repository"
	"edulearn_backend/pkg/logger"
	"fmt"

	"go.uber.org/zap"
)

// NotificationService 订阅领域事件，落通知记录并触发邮件投递。
// 全程 fire-and-forget：任何失败只记日志，不影响核心流程。
type NotificationService struct {
	NotificationRepo *repository.NotificationRepository
}

func NewNotificationService(notificationRepo *repository.NotificationRepository, events *EventBus) *NotificationService {
	s := &NotificationService{NotificationRepo: notificationRepo}
	events.Subscribe(s.handleEvent)
	return s
}

func (s *NotificationService) handleEvent(event Event) {
	var notification *model.Notification

	switch event.Type {
	case EventEnrolled:
		notification = &model.Notification{
			UserID:  event.LearnerID,
			Type:    model.NotifyEnrolled,
			Title:   "选课成功",
			Message: fmt.Sprintf("你已加入课程《%s》，开始学习吧！", event.CourseTitle),
		}
	case EventCourseCompleted:
		notification = &model.Notification{
			UserID:  event.LearnerID,
			Type:    model.NotifyCourseCompleted,
			Title:   "课程完成",
			Message: "恭喜你完成了全部课时！",
		}
	case EventCertificateIssued:
		notification = &model.Notification{
			UserID:  event.LearnerID,
			Type:    model.NotifyCertificateIssued,
			Title:   "证书已签发",
			Message: fmt.Sprintf("你的《%s》结业证书（编号 %s）已生成，可在个人中心下载。", event.CourseTitle, event.CertificateNo),
		}
	default:
		return
	}

	if err := s.NotificationRepo.Create(notification); err != nil {
		logger.Log.Warn("failed to persist notification",
			zap.String("type", string(event.Type)), zap.Uint("userId", event.LearnerID), zap.Error(err))
		return
	}

	s.sendEmail(notification)
}

// sendEmail 邮件投递占位：接外部邮件网关，失败对引擎无影响
func (s *NotificationService) sendEmail(notification *model.Notification) {
	logger.Log.Info("notification email dispatched",
		zap.Uint("userId", notification.UserID),
		zap.String("type", string(notification.Type)),
		zap.String("title", notification.Title))
}

func (s *NotificationService) List(userID uint, page, limit int) ([]model.Notification, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.NotificationRepo.ListByUser(userID, page, limit)
}

func (s *NotificationService) MarkRead(userID, notificationID uint) error {
	return s.NotificationRepo.MarkRead(userID, notificationID)
}

func (s *NotificationService) MarkAllRead(userID uint) error {
	return s.NotificationRepo.MarkAllRead(userID)
}
