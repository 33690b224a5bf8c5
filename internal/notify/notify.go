// Package notify delivers best-effort confirmations to task submitters.
package notify

import (
	"context"
	"errors"
)

// Message is a single outbound confirmation.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier delivers a Message. Implementations must be safe for concurrent
// use.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Nop discards every message.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, Message) error { return nil }

// multi fans a message out to several notifiers.
type multi []Notifier

// Multi returns a Notifier that delivers to each of ns in order and joins
// their errors. Nil entries are skipped.
func Multi(ns ...Notifier) Notifier {
	out := make(multi, 0, len(ns))
	for _, n := range ns {
		if n != nil {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return Nop{}
	}
	return out
}

func (m multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
