package entrance

import (
	"eduscan/internal/attendance"
	"eduscan/internal/notify"
)

// EventType names a controller change.
type EventType string

const (
	EventCheckedIn    EventType = "checked_in"
	EventComposed     EventType = "message_composed"
	EventMarkedAbsent EventType = "marked_absent"
	EventDayClosed    EventType = "day_closed"
	EventDayReset     EventType = "day_reset"
	EventEnrolled     EventType = "student_enrolled"
	EventRemoved      EventType = "student_removed"
)

// Event is broadcast to subscribers after a change has been applied.
type Event struct {
	Type         EventType            `json:"type"`
	Date         string               `json:"date,omitempty"`
	StudentID    string               `json:"studentId,omitempty"`
	Record       *attendance.Record   `json:"record,omitempty"`
	Notification *notify.Notification `json:"notification,omitempty"`
	Counts       *attendance.Counts   `json:"counts,omitempty"`
}

// Subscribe registers fn for every event and returns its cancel func.
// fn runs on the publishing goroutine and must not block.
func (c *Controller) Subscribe(fn func(Event)) func() {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.subsMu.Lock()
		defer c.subsMu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Controller) publish(e Event) {
	c.subsMu.Lock()
	fns := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subsMu.Unlock()
	for _, fn := range fns {
		fn(e)
	}
}
