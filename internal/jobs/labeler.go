package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tm-robinson/wallabag-tools/internal/domain"
	"github.com/tm-robinson/wallabag-tools/internal/logger"
	"github.com/tm-robinson/wallabag-tools/internal/triage"
	"github.com/tm-robinson/wallabag-tools/pkg/wallabag"
)

// Labeler classifies every saved entry and reconciles its quality and age
// labels. Re-running it against an unchanged collection produces no deltas.
type Labeler struct {
	client EntryClient
	policy triage.Policy
	dryRun bool
	log    logger.Logger
	now    func() time.Time
}

// LabelerConfig carries the knobs for a labeler run.
type LabelerConfig struct {
	Policy triage.Policy
	DryRun bool
}

// NewLabeler wires a labeler over the given entry client.
func NewLabeler(client EntryClient, cfg LabelerConfig, log logger.Logger) *Labeler {
	if log == nil {
		log = logger.NopLogger()
	}
	return &Labeler{
		client: client,
		policy: cfg.Policy,
		dryRun: cfg.DryRun,
		log:    log,
		now:    time.Now,
	}
}

// Name implements Job.
func (l *Labeler) Name() string { return NameLabeler }

// Run walks the whole collection once. Per-entry failures are counted and
// logged without aborting the pass.
func (l *Labeler) Run(ctx context.Context) (Summary, error) {
	sum := Summary{Job: NameLabeler, DryRun: l.dryRun, StartedAt: l.now()}

	entries, err := l.client.ListEntries(ctx, wallabag.ListOptions{})
	if err != nil {
		sum.FinishedAt = l.now()
		return sum, fmt.Errorf("list entries: %w", err)
	}

	now := l.now()
	for _, entry := range entries {
		sum.Processed++

		article, err := triage.Extract(entry)
		if err != nil {
			if errors.Is(err, triage.ErrMalformedRecord) {
				sum.Skipped++
				l.log.Warnw("skipping malformed entry", "entry_id", entry.ID, "error", err)
				continue
			}
			sum.Failed++
			l.log.Errorw("extract entry", "entry_id", entry.ID, "error", err)
			continue
		}

		delta := triage.Reconcile(article, l.policy.Classify(article, now))
		if delta.Empty() {
			continue
		}

		if l.dryRun {
			sum.Changed++
			l.log.Infow("would update tags",
				"entry_id", delta.ArticleID,
				"add", labelStrings(delta.Add),
				"remove", labelStrings(delta.Remove))
			continue
		}

		if err := l.apply(ctx, delta); err != nil {
			sum.Failed++
			l.log.Errorw("update tags", "entry_id", delta.ArticleID, "error", err)
			continue
		}
		sum.Changed++
		l.log.Debugw("updated tags",
			"entry_id", delta.ArticleID,
			"add", labelStrings(delta.Add),
			"remove", labelStrings(delta.Remove))
	}

	sum.FinishedAt = l.now()
	return sum, nil
}

// apply adds before removing so the old to very-old promotion never leaves
// the entry without an age label in between. A failed removal is retried by
// the next run, which reconciles the same delta again.
func (l *Labeler) apply(ctx context.Context, delta domain.TagDelta) error {
	if len(delta.Add) > 0 {
		if err := l.client.AddTags(ctx, delta.ArticleID, labelStrings(delta.Add)); err != nil {
			return fmt.Errorf("add tags: %w", err)
		}
	}
	for _, label := range delta.Remove {
		if err := l.client.RemoveTag(ctx, delta.ArticleID, string(label)); err != nil {
			return fmt.Errorf("remove tag %s: %w", label, err)
		}
	}
	return nil
}

func labelStrings(labels []domain.Label) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = string(l)
	}
	return out
}
