// Package mail sends booking notification emails.  Delivery failures are
// logged and returned but callers treat them as non-fatal: a reservation
// outcome never depends on the mail provider being up.
package mail

import "context"

// Message is one outbound email.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
