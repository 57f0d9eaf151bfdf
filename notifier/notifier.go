package notifier

import "context"

// Notifier delivers a human-readable message to an external channel.
// Delivery is best-effort: callers treat a returned error as log-only and
// never surface it to the end user.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}
