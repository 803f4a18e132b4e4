package jobs

import "context"

// Names of the built-in jobs, as they appear in the jobs configuration.
const (
	NameLabeler  = "labeler"
	NameImporter = "importer"
	NameArchiver = "archiver"
)

// Job is one maintenance pass over the wallabag collection.
type Job interface {
	Name() string
	Run(ctx context.Context) (Summary, error)
}
