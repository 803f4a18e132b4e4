package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tm-robinson/wallabag-tools/internal/domain"
	"github.com/tm-robinson/wallabag-tools/internal/logger"
	"github.com/tm-robinson/wallabag-tools/internal/triage"
	"github.com/tm-robinson/wallabag-tools/pkg/wallabag"
)

// DefaultMaxReadingTime caps, in minutes, how long a paywalled article may
// be before the archiver leaves it alone. Short reads on paywalled hosts
// are usually truncated teasers worth replacing.
const DefaultMaxReadingTime = 2

// Archiver replaces short unread articles from paywalled hosts with
// archived copies, deleting the original only once the replacement is
// confirmed substantive.
type Archiver struct {
	client     EntryClient
	finder     SnapshotFinder
	hosts      []string
	maxMinutes int
	dryRun     bool
	log        logger.Logger
	now        func() time.Time
}

// ArchiverConfig carries the knobs for an archiver run.
type ArchiverConfig struct {
	PaywalledHosts []string
	MaxReadingTime int // minutes
	DryRun         bool
}

// NewArchiver wires an archiver over the given collaborators.
func NewArchiver(client EntryClient, finder SnapshotFinder, cfg ArchiverConfig, log logger.Logger) *Archiver {
	if log == nil {
		log = logger.NopLogger()
	}
	maxMinutes := cfg.MaxReadingTime
	if maxMinutes <= 0 {
		maxMinutes = DefaultMaxReadingTime
	}
	return &Archiver{
		client:     client,
		finder:     finder,
		hosts:      normalizeHosts(cfg.PaywalledHosts),
		maxMinutes: maxMinutes,
		dryRun:     cfg.DryRun,
		log:        log,
		now:        time.Now,
	}
}

// Name implements Job.
func (a *Archiver) Name() string { return NameArchiver }

// Run walks the unread entries once. Lookup and replacement failures are
// per-item; the delete step is always skipped unless the create confirmed
// a copy longer than the threshold.
func (a *Archiver) Run(ctx context.Context) (Summary, error) {
	sum := Summary{Job: NameArchiver, DryRun: a.dryRun, StartedAt: a.now()}

	if len(a.hosts) == 0 {
		sum.FinishedAt = a.now()
		return sum, fmt.Errorf("no paywalled hosts configured")
	}

	entries, err := a.client.ListEntries(ctx, wallabag.ListOptions{Unread: true})
	if err != nil {
		sum.FinishedAt = a.now()
		return sum, fmt.Errorf("list unread entries: %w", err)
	}

	for _, entry := range entries {
		sum.Processed++

		article, err := triage.Extract(entry)
		if err != nil {
			sum.Skipped++
			a.log.Warnw("skipping malformed entry", "entry_id", entry.ID, "error", err)
			continue
		}

		if !a.candidate(article) {
			continue
		}
		a.log.Debugw("paywalled candidate", "entry_id", article.ID, "url", article.URL)

		snapshot, found, err := a.finder.FindArchivedCopy(ctx, article.URL)
		if err != nil {
			sum.Failed++
			a.log.Errorw("archive lookup", "url", article.URL, "error", err)
			continue
		}
		if !found {
			sum.Skipped++
			a.log.Infow("no archived copy available", "url", article.URL)
			continue
		}

		if a.dryRun {
			sum.Changed++
			sum.note("would replace %s with %s", article.URL, snapshot)
			a.log.Infow("would replace entry", "entry_id", article.ID, "snapshot", snapshot)
			continue
		}

		if err := a.replace(ctx, article, snapshot, &sum); err != nil {
			sum.Failed++
			a.log.Errorw("replace entry", "entry_id", article.ID, "error", err)
		}
	}

	sum.FinishedAt = a.now()
	return sum, nil
}

// candidate keeps unread entries whose host is on the paywalled list and
// whose reading time is known and at most the threshold. An absent reading
// time is not treated as short.
func (a *Archiver) candidate(article domain.Article) bool {
	if article.ReadingTime == nil || *article.ReadingTime > a.maxMinutes {
		return false
	}
	return hostMatches(article.Host, a.hosts)
}

// replace creates the archived copy first and deletes the original only
// when the create response shows a reading time above the threshold. A
// thin copy keeps both entries, matching the conservative two-step rule.
func (a *Archiver) replace(ctx context.Context, article domain.Article, snapshot string, sum *Summary) error {
	created, err := a.client.CreateEntry(ctx, snapshot, []string{string(domain.LabelArchived)})
	if err != nil {
		return fmt.Errorf("create archived entry: %w", err)
	}

	if created == nil || created.ReadingTime == nil || *created.ReadingTime <= a.maxMinutes {
		sum.Skipped++
		sum.note("archived copy of %s is no longer than the original, keeping both", article.URL)
		a.log.Warnw("archived copy too thin, keeping original",
			"entry_id", article.ID, "snapshot", snapshot)
		return nil
	}

	if err := a.client.DeleteEntry(ctx, article.ID); err != nil {
		return fmt.Errorf("delete original entry: %w", err)
	}

	sum.Changed++
	sum.note("replaced %s with %s", article.URL, snapshot)
	a.log.Infow("replaced entry with archived copy", "entry_id", article.ID, "snapshot", snapshot)
	return nil
}

// hostMatches reports whether host equals a configured domain or is a
// subdomain of one. Plain suffix matching would also hit unrelated hosts
// like notwsj.com.
func hostMatches(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func normalizeHosts(hosts []string) []string {
	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		out = append(out, h)
	}
	return out
}
