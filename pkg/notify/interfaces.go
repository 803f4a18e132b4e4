package notify

import "context"

// Notifier delivers run reports to a downstream sink (log, webhook,
// Telegram, queue).
type Notifier interface {
	ID() string
	Type() string
	Notify(ctx context.Context, report Report) error
}
