package notify

import (
	"context"
	"errors"
	"time"
)

// Kind is the attendance transition a notification reports.
type Kind string

const (
	KindPresent Kind = "present"
	KindAbsent  Kind = "absent"
)

// Source tells whether a message came from the text generator.
type Source string

const (
	SourceGenerated Source = "generated"
	SourceFallback  Source = "fallback"
)

var (
	ErrNoContact = errors.New("no contact on file")
	ErrRejected  = errors.New("generated text rejected by template policy")
)

// Request is what the text generator receives.
type Request struct {
	StudentName  string `json:"studentName"`
	GuardianName string `json:"guardianName"`
	Kind         Kind   `json:"transitionKind"`
	Time         string `json:"time,omitempty"`
}

// Generator produces free text for a request or fails. It is not retried.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Notification is the outcome of composing (and possibly delivering) a message.
type Notification struct {
	ID        string    `json:"id"`
	StudentID string    `json:"studentId"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	Source    Source    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
	Delivery  *Delivery `json:"delivery,omitempty"`
}

// Delivery describes an outbound hand-off.
type Delivery struct {
	Phone   string `json:"phone,omitempty"`
	Link    string `json:"link,omitempty"`
	Queued  bool   `json:"queued"`
	Warning string `json:"warning,omitempty"`
}
