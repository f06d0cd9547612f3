package notify

import (
	"context"
	"log"

	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/ports"
)

// LogNotifier writes notifications to the process log. It stands in for the
// platform's messaging integration in development and test environments.
type LogNotifier struct{}

var _ ports.Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a new LogNotifier
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Notify logs the message for the recipient
func (n *LogNotifier) Notify(_ context.Context, recipient, message string) error {
	log.Printf("📨 Notify %s: %s", recipient, message)
	return nil
}
