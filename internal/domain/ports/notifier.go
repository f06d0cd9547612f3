package ports

import "context"

// Notifier delivers messages to a user or a role. Delivery is fire-and-forget
// from the engine's perspective: a failure is reported but never retried here.
type Notifier interface {
	Notify(ctx context.Context, recipient, message string) error
}
