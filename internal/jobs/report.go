package jobs

import (
	"fmt"
	"time"
)

// Summary aggregates what one job run did, or would have done in dry-run.
type Summary struct {
	Job        string
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time

	// Processed counts items examined, Changed items written (or reported
	// in dry-run), Skipped items passed over deliberately, Failed items
	// whose remote calls errored.
	Processed int
	Changed   int
	Skipped   int
	Failed    int

	Notes []string
}

func (s *Summary) note(format string, args ...any) {
	s.Notes = append(s.Notes, fmt.Sprintf(format, args...))
}
