// Package notify delivers out-of-band crew notifications (SMS, email,
// messenger). The relay only depends on the Notifier interface; delivery
// failures are always non-fatal for the caller.
package notify

import (
	"context"
	"log/slog"
)

// Recipient is an opaque delivery address: a phone number, an email, or
// a messenger chat handle, depending on the Notifier implementation.
type Recipient string

type Notifier interface {
	Notify(ctx context.Context, recipient Recipient, message string) error
}

// NotifyAll fans a message out to every recipient. Individual failures
// are logged and swallowed; it reports true when at least one delivery
// succeeded.
func NotifyAll(ctx context.Context, log *slog.Logger, notifier Notifier, recipients []Recipient, message string) bool {
	delivered := false
	for _, recipient := range recipients {
		if err := notifier.Notify(ctx, recipient, message); err != nil {
			log.Warn("notification delivery failed",
				"recipient", string(recipient),
				"error", err)
			continue
		}
		delivered = true
	}
	return delivered
}

// LogNotifier is the development fallback: notifications land in the log
// instead of anyone's pocket.
type LogNotifier struct {
	Log *slog.Logger
}

func (n LogNotifier) Notify(_ context.Context, recipient Recipient, message string) error {
	n.Log.Info("notification", "recipient", string(recipient), "message", message)
	return nil
}
