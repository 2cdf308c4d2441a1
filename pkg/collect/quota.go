package collect

import (
	"context"
	"log/slog"

	"github.com/platform9/pcddebug/pkg/archive"
	pcderrors "github.com/platform9/pcddebug/pkg/errors"
	"github.com/platform9/pcddebug/pkg/runner"
)

// QuotaCollector captures project quota details. Projects reachable
// from several seeds in one run are collected once: unlike traversals,
// which are isolated per seed, the quota dedup is process-wide.
type QuotaCollector struct {
	Runner runner.Interface
	Writer *archive.Writer
	Logger *slog.Logger

	seen map[string]struct{}
}

// Collect fetches the quota for one project unless it was already
// collected during this run.
func (q *QuotaCollector) Collect(ctx context.Context, projectID string) error {
	if projectID == "" {
		return nil
	}
	if q.seen == nil {
		q.seen = make(map[string]struct{})
	}
	if _, ok := q.seen[projectID]; ok {
		return nil
	}
	q.seen[projectID] = struct{}{}

	log := q.Logger
	if log == nil {
		log = slog.Default()
	}
	log.Info("collecting project quota", slog.String("project", projectID))

	res := q.Runner.Run(ctx, "quota", "show", projectID)
	content := res.Stdout
	if res.Failed() && len(content) == 0 {
		content = []byte("ERROR: " + res.ErrorDetail())
	}
	if _, err := q.Writer.Write("quota", "project_"+projectID+"_quota", content, res.Command); err != nil {
		return err
	}
	// A failed command still leaves its ERROR artifact, but the caller
	// must see the failure so the run summary stays honest.
	if res.Failed() {
		return pcderrors.NewWithContext(pcderrors.ErrCodeExecutionFailed,
			"quota show failed",
			map[string]any{"project": projectID, "stderr": res.ErrorDetail()})
	}
	return nil
}
