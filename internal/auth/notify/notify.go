// Package notify delivers outbound account emails.
package notify

import (
	"context"
	"errors"
)

// ErrNoRecipient is returned when a Message has no To address.
var ErrNoRecipient = errors.New("notify: message has no recipient")

// Message is a single email with a plain text body and an optional HTML
// alternative.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Notifier sends a Message. Implementations must not retry; the caller
// decides what a failure means.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, msg Message) error

func (f NotifierFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }
