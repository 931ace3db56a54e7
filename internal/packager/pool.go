package packager

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/healthbridge/udd/internal/model"
)

// taskKind distinguishes a TableDownloadTask failure from a
// SurveyDownloadTask failure, so the Packager can route each into the
// right error log.
type taskKind string

const (
	kindData   taskKind = "data"
	kindSurvey taskKind = "survey"
)

// job is one unit of fan-out work: a table or survey ID plus the closure
// that actually runs its task.
type job struct {
	kind taskKind
	id   string
	run  func(ctx context.Context) ([]model.TaskFile, error)
}

// jobResult is what a job produced: either files, or an error attributed
// to its id and kind.
type jobResult struct {
	kind  taskKind
	id    string
	files []model.TaskFile
	err   error
}

// runPool executes every job concurrently, bounded by size, and returns
// one jobResult per job in the same order jobs were given. A job's own
// failure never cancels its siblings — every task runs to completion
// before the Packager decides the overall outcome.
func runPool(ctx context.Context, size int, jobs []job) []jobResult {
	results := make([]jobResult, len(jobs))

	g := &errgroup.Group{}
	if size > 0 {
		g.SetLimit(size)
	}

	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			files, err := j.run(ctx)
			results[i] = jobResult{kind: j.kind, id: j.id, files: files, err: err}
			return nil
		})
	}
	_ = g.Wait() // jobs never return an error here; failures are captured per-result

	return results
}
