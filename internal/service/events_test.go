package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewEventBus()

	var wg sync.WaitGroup
	wg.Add(2)
	var mu sync.Mutex
	var got []EventType

	handler := func(e Event) {
		mu.Lock()
		got = append(got, e.Type)
		mu.Unlock()
		wg.Done()
	}
	bus.Subscribe(handler)
	bus.Subscribe(handler)

	bus.Publish(Event{Type: EventCourseCompleted, LearnerID: 1, CourseID: 10})

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handlers not invoked")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []EventType{EventCourseCompleted, EventCourseCompleted}, got)
}

func TestEventBusStampsOccurredAt(t *testing.T) {
	bus := NewEventBus()
	received := make(chan Event, 1)
	bus.Subscribe(func(e Event) { received <- e })

	bus.Publish(Event{Type: EventCertificateIssued})

	select {
	case event := <-received:
		assert.False(t, event.OccurredAt.IsZero())
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus()
	assert.NotPanics(t, func() {
		bus.Publish(Event{Type: EventEnrolled})
	})
}
