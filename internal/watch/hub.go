package watch

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Event is one change notification pushed to live list views.
type Event struct {
	Topic   string
	Kind    string
	Payload interface{}
}

const (
	KindAssignmentCreated  = "assignment_created"
	KindSubmissionUpserted = "submission_upserted"
	KindSubmissionGraded   = "submission_graded"
)

func AssignmentsTopic(classID string) string {
	return fmt.Sprintf("assignments:%s", classID)
}

func SubmissionsTopic(assignmentID uuid.UUID) string {
	return fmt.Sprintf("submissions:%s", assignmentID)
}

// Hub fans out write notifications to per-topic subscribers. Delivery is
// best-effort: a subscriber that cannot keep up loses events instead of
// blocking the writer or its sibling subscribers.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]chan Event
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]chan Event)}
}

// Subscribe registers for events on a topic. The returned channel is closed
// when ctx is cancelled; the consumer owns cancellation and nothing else.
func (h *Hub) Subscribe(ctx context.Context, topic string) <-chan Event {
	ch := make(chan Event, 16)

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[int]chan Event)
	}
	h.subs[topic][id] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		if subs, ok := h.subs[topic]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(h.subs, topic)
			}
		}
		h.mu.Unlock()
		close(ch)
	}()

	return ch
}

func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs[event.Topic] {
		select {
		case ch <- event:
		default:
			// Slow consumer, drop.
		}
	}
}
