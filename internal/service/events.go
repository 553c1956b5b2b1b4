package service

import (
	"sync"
	"time"
)

type EventType string

const (
	EventEnrolled          EventType = "enrolled"
	EventCourseCompleted   EventType = "course_completed"
	EventCertificateIssued EventType = "certificate_issued"
)

// Event 核心流程落库后对外发布的领域事件
type Event struct {
	Type          EventType
	LearnerID     uint
	CourseID      uint
	CourseTitle   string
	CertificateNo string
	OccurredAt    time.Time
}

type EventHandler func(Event)

// EventBus 进程内事件分发器：核心引擎不直接触达邮件/通知等协作方，
// 事件在提交之后异步投递，处理失败不影响主流程
type EventBus struct {
	mu       sync.RWMutex
	handlers []EventHandler
}

func NewEventBus() *EventBus {
	return &EventBus{}
}

func (b *EventBus) Subscribe(handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

func (b *EventBus) Publish(event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	b.mu.RLock()
	handlers := make([]EventHandler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		go h(event)
	}
}
