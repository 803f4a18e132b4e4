package notify

import "context"

// logNotifier writes run reports to the structured log.
type logNotifier struct {
	id  string
	log Logger
}

func newLogNotifier(_ context.Context, cfg SinkConfig, log Logger) (Notifier, error) {
	return &logNotifier{
		id:  cfg.ID,
		log: ensureLogger(log),
	}, nil
}

func (n *logNotifier) ID() string   { return n.id }
func (n *logNotifier) Type() string { return TypeLog }

// Notify emits the report as a structured log line.
func (n *logNotifier) Notify(_ context.Context, report Report) error {
	n.log.InfoObj("job report", "report", report)
	return nil
}
