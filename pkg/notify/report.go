package notify

import "time"

// Report is the run summary delivered to downstream sinks after each job.
type Report struct {
	Job        string    `json:"job"`
	DryRun     bool      `json:"dry_run"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Processed  int       `json:"processed"`
	Changed    int       `json:"changed"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	Notes      []string  `json:"notes,omitempty"`
}

// Duration returns how long the run took.
func (r Report) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
