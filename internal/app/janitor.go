package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tm-robinson/wallabag-tools/internal/config"
	"github.com/tm-robinson/wallabag-tools/internal/jobs"
	"github.com/tm-robinson/wallabag-tools/internal/logger"
	"github.com/tm-robinson/wallabag-tools/internal/storage"
	"github.com/tm-robinson/wallabag-tools/internal/triage"
	"github.com/tm-robinson/wallabag-tools/pkg/archive"
	"github.com/tm-robinson/wallabag-tools/pkg/feeds"
	"github.com/tm-robinson/wallabag-tools/pkg/httpclient"
	"github.com/tm-robinson/wallabag-tools/pkg/notify"
	"github.com/tm-robinson/wallabag-tools/pkg/wallabag"
)

// Janitor wires the wallabag client, the maintenance jobs, and the report
// fanout into one runtime. It builds only the collaborators the selected
// jobs need, so a labeler-only run does not require a feeds file or a
// storage backend.
type Janitor struct {
	cfg    *config.Config
	fanout *notify.Fanout
	store  storage.Store
	jobs   []jobs.Job
	log    logger.Logger
}

// Options narrow a janitor run. An empty job list means the jobs named in
// the configuration.
type Options struct {
	Jobs   []string
	DryRun bool
}

// NewJanitor builds the janitor runtime from config files.
func NewJanitor(ctx context.Context, cfg *config.Config, opts Options, log logger.Logger) (*Janitor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	names := opts.Jobs
	if len(names) == 0 {
		names = cfg.JobList
	}
	if err := validateJobNames(names); err != nil {
		return nil, err
	}

	client, err := wallabag.NewClient(wallabag.Config{
		BaseURL:      cfg.WallabagURL,
		ClientID:     cfg.WallabagClientID,
		ClientSecret: cfg.WallabagClientSecret,
		Username:     cfg.WallabagUsername,
		Password:     cfg.WallabagPassword,
		Timeout:      cfg.HTTPTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("init wallabag client: %w", err)
	}

	sinkReg, err := notify.LoadRegistry(cfg.NotifiersFile)
	if err != nil {
		return nil, fmt.Errorf("load notifiers registry: %w", err)
	}
	enabledSinks := sinkReg.Enabled()
	if len(enabledSinks) == 0 {
		return nil, fmt.Errorf("no notifiers configured")
	}
	notifiers, err := notify.BuildAll(ctx, notify.DefaultRegistry(), enabledSinks, objLogger{})
	if err != nil {
		return nil, fmt.Errorf("build notifiers: %w", err)
	}
	fanout := notify.NewFanout(notifiers)
	sinkSummaries := make([]map[string]string, 0, len(enabledSinks))
	for _, sinkCfg := range enabledSinks {
		sinkSummaries = append(sinkSummaries, map[string]string{
			"id":   sinkCfg.ID,
			"type": sinkCfg.Type,
		})
	}
	log.Infow("notifiers registry loaded", "count", len(sinkSummaries), "sinks", sinkSummaries)

	jan := &Janitor{cfg: cfg, fanout: fanout, log: log}

	for _, name := range names {
		job, err := jan.buildJob(name, client, opts.DryRun)
		if err != nil {
			jan.Close()
			return nil, err
		}
		jan.jobs = append(jan.jobs, job)
	}

	return jan, nil
}

// buildJob constructs one named job and whatever collaborators it needs.
func (j *Janitor) buildJob(name string, client *wallabag.Client, dryRun bool) (jobs.Job, error) {
	cfg := j.cfg
	switch name {
	case jobs.NameLabeler:
		policy := triage.Policy{
			MinHealthyBytes: cfg.MinHealthyBytes,
			OldAfter:        cfg.OldAfter,
			VeryOldAfter:    cfg.VeryOldAfter,
		}
		return jobs.NewLabeler(client, jobs.LabelerConfig{Policy: policy, DryRun: dryRun}, j.log), nil

	case jobs.NameImporter:
		feedList, err := feeds.Load(cfg.FeedsFile)
		if err != nil {
			return nil, fmt.Errorf("load feeds registry: %w", err)
		}
		if len(feedList) == 0 {
			return nil, fmt.Errorf("no feeds configured")
		}
		feedIDs := make([]string, 0, len(feedList))
		for _, f := range feedList {
			feedIDs = append(feedIDs, f.ID)
		}
		j.log.Infow("feeds registry loaded", "count", len(feedIDs), "ids", feedIDs)

		store, err := j.openStore()
		if err != nil {
			return nil, err
		}
		fetcher := feeds.NewFetcher(httpclient.NewRestyClient(cfg.HTTPTimeout))
		importerCfg := jobs.ImporterConfig{
			Feeds:  feedList,
			Window: cfg.ImportWindow,
			DryRun: dryRun,
		}
		return jobs.NewImporter(client, fetcher, store, importerCfg, j.log), nil

	case jobs.NameArchiver:
		finder := archive.NewFinder(archive.Config{
			BaseURL: cfg.ArchiveBaseURL,
			Timeout: cfg.HTTPTimeout,
		})
		archiverCfg := jobs.ArchiverConfig{
			PaywalledHosts: cfg.PaywalledHosts,
			MaxReadingTime: cfg.MaxReadingMinutes,
			DryRun:         dryRun,
		}
		return jobs.NewArchiver(client, snapshotLocator{finder: finder, log: j.log}, archiverCfg, j.log), nil
	}
	return nil, fmt.Errorf("unknown job %q", name)
}

// openStore initializes the storage backend on first use.
func (j *Janitor) openStore() (storage.Store, error) {
	if j.store != nil {
		return j.store, nil
	}
	cfg := j.cfg
	store, err := storage.NewStore(cfg.StorageType, cfg.StoragePath, storage.Options{
		URLTTL:          cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	j.log.Infow("storage initialized",
		"type", cfg.StorageType,
		"path", cfg.StoragePath,
		"url_ttl_seconds", int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds", int(cfg.StorageCleanupInterval.Seconds()))
	j.store = store
	return store, nil
}

// RunOnce executes the selected jobs in order and fans the report of every
// completed run out to the notifiers. A job failing outright is logged and
// counted, not allowed to stop the jobs after it.
func (j *Janitor) RunOnce(ctx context.Context) error {
	if j == nil || len(j.jobs) == 0 {
		return fmt.Errorf("janitor is not initialized")
	}

	var errs []error
	for _, job := range j.jobs {
		start := time.Now()
		j.log.Infow("job started", "job", job.Name())

		sum, err := job.Run(ctx)
		if err != nil {
			j.log.Errorw("job failed", "job", job.Name(), "error", err)
			errs = append(errs, fmt.Errorf("run %s: %w", job.Name(), err))
			continue
		}

		j.log.Infow("job completed",
			"job", job.Name(),
			"elapsed_ms", time.Since(start).Milliseconds(),
			"processed", sum.Processed,
			"changed", sum.Changed,
			"skipped", sum.Skipped,
			"failed", sum.Failed)

		if delivered, err := j.fanout.Notify(ctx, reportFrom(sum)); err != nil {
			j.log.Warnw("report delivery incomplete",
				"job", job.Name(),
				"delivered", delivered,
				"sinks", j.fanout.Size(),
				"error", err)
		}
	}
	return errors.Join(errs...)
}

// Close releases the storage backend, if one was opened.
func (j *Janitor) Close() {
	if j == nil || j.store == nil {
		return
	}
	if err := j.store.Close(); err != nil {
		j.log.Errorw("storage close failed", "error", err)
	}
	j.store = nil
}

func reportFrom(sum jobs.Summary) notify.Report {
	return notify.Report{
		Job:        sum.Job,
		DryRun:     sum.DryRun,
		StartedAt:  sum.StartedAt,
		FinishedAt: sum.FinishedAt,
		Processed:  sum.Processed,
		Changed:    sum.Changed,
		Skipped:    sum.Skipped,
		Failed:     sum.Failed,
		Notes:      sum.Notes,
	}
}

func validateJobNames(names []string) error {
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		switch name {
		case jobs.NameLabeler, jobs.NameImporter, jobs.NameArchiver:
		default:
			return fmt.Errorf("unknown job %q (known jobs: %s, %s, %s)",
				name, jobs.NameLabeler, jobs.NameImporter, jobs.NameArchiver)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate job %q", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// archiveFinder is the slice of the archive client the locator needs.
// *archive.Finder satisfies it.
type archiveFinder interface {
	FindSnapshot(ctx context.Context, pageURL string) (string, bool, error)
	Submit(ctx context.Context, pageURL string) (string, bool, error)
}

// snapshotLocator adapts the archive finder to the shape the archiver job
// wants. A page with no snapshot yet is submitted for capture and reported
// as not found, so a later run replaces the entry once the capture is done.
// Submitting avoids handing the job a work-in-progress URL that would save
// as a thin entry.
type snapshotLocator struct {
	finder archiveFinder
	log    logger.Logger
}

func (s snapshotLocator) FindArchivedCopy(ctx context.Context, pageURL string) (string, bool, error) {
	snapshot, ok, err := s.finder.FindSnapshot(ctx, pageURL)
	if err != nil || ok {
		return snapshot, ok, err
	}
	if _, _, err := s.finder.Submit(ctx, pageURL); err != nil {
		s.log.Warnw("archive submission failed", "url", pageURL, "error", err)
		return "", false, nil
	}
	s.log.Infow("submitted page for archiving", "url", pageURL)
	return "", false, nil
}

// objLogger adapts the package-level structured helpers to the notifier
// logging surface.
type objLogger struct{}

func (objLogger) InfoObj(msg, key string, obj interface{})  { logger.InfoObj(msg, key, obj) }
func (objLogger) DebugObj(msg, key string, obj interface{}) { logger.DebugObj(msg, key, obj) }
func (objLogger) WarnObj(msg, key string, obj interface{})  { logger.WarnObj(msg, key, obj) }
func (objLogger) ErrorObj(msg, key string, obj interface{}) { logger.ErrorObj(msg, key, obj) }
