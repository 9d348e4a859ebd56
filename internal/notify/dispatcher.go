package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"eduscan/internal/metrics"
	"eduscan/internal/queue"
)

// DefaultTimeout bounds a single generation call.
const DefaultTimeout = 8 * time.Second

// Dispatcher composes parent notifications and hands them to delivery.
type Dispatcher struct {
	gen     Generator
	timeout time.Duration
	policy  *TemplatePolicy
	out     queue.Queue
	now     func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTimeout sets the per-call generation deadline.
func WithTimeout(d time.Duration) Option {
	return func(x *Dispatcher) {
		if d > 0 {
			x.timeout = d
		}
	}
}

// WithPolicy enables exact-template enforcement.
func WithPolicy(p *TemplatePolicy) Option {
	return func(x *Dispatcher) { x.policy = p }
}

// WithQueue sets where delivery jobs are published.
func WithQueue(q queue.Queue) Option {
	return func(x *Dispatcher) { x.out = q }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(x *Dispatcher) { x.now = now }
}

// NewDispatcher creates a dispatcher. gen may be nil, in which case every
// message is the fallback.
func NewDispatcher(gen Generator, opts ...Option) *Dispatcher {
	d := &Dispatcher{gen: gen, timeout: DefaultTimeout, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Compose asks the generator for a message and falls back to the fixed text
// on any failure. It never returns an empty message.
func (d *Dispatcher) Compose(ctx context.Context, studentID string, req Request) Notification {
	start := time.Now()
	n := Notification{
		ID:        uuid.NewString(),
		StudentID: studentID,
		Kind:      req.Kind,
		CreatedAt: d.now(),
	}

	text, err := d.generate(ctx, req)
	if err != nil {
		log.Printf("notify: %s message for %s falls back: %v", req.Kind, studentID, err)
		n.Message, n.Source = Fallback(req), SourceFallback
	} else {
		n.Message, n.Source = text, SourceGenerated
	}

	metrics.ComposeSeconds.Observe(time.Since(start).Seconds())
	metrics.MessagesTotal.WithLabelValues(string(req.Kind), string(n.Source)).Inc()
	return n
}

type generated struct {
	text string
	err  error
}

// generate runs the generator under the dispatcher timeout. A generator that
// ignores its context is abandoned when the deadline passes.
func (d *Dispatcher) generate(ctx context.Context, req Request) (string, error) {
	if d.gen == nil {
		return "", errors.New("no text generator configured")
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan generated, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- generated{err: fmt.Errorf("generator panic: %v", r)}
			}
		}()
		text, err := d.gen.Generate(ctx, req)
		done <- generated{text: text, err: err}
	}()

	var res generated
	select {
	case res = <-done:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if res.err != nil {
		return "", res.err
	}
	text := strings.TrimSpace(res.text)
	if text == "" {
		return "", errors.New("empty response")
	}
	if !d.policy.Accept(req, text) {
		return "", ErrRejected
	}
	return text, nil
}

// Deliver normalizes the contact and publishes a delivery job without
// waiting for it to be sent. ErrNoContact means nothing was handed off.
// Publish failures are logged and reported on the Delivery, never returned.
func (d *Dispatcher) Deliver(ctx context.Context, studentID, contact, message string) (*Delivery, error) {
	phone := NormalizePhone(contact)
	if phone == "" {
		metrics.DeliveriesTotal.WithLabelValues("no_contact").Inc()
		return &Delivery{Warning: ErrNoContact.Error()}, ErrNoContact
	}

	del := &Delivery{Phone: phone, Link: WhatsAppLink(phone, message)}
	if d.out == nil {
		metrics.DeliveriesTotal.WithLabelValues("link_only").Inc()
		return del, nil
	}
	if err := d.out.Publish(ctx, queue.NewJob(studentID, phone, message)); err != nil {
		log.Printf("notify: publish delivery for %s failed: %v", studentID, err)
		del.Warning = "delivery queue unavailable"
		metrics.DeliveriesTotal.WithLabelValues("publish_failed").Inc()
		return del, nil
	}
	del.Queued = true
	metrics.DeliveriesTotal.WithLabelValues("queued").Inc()
	return del, nil
}
