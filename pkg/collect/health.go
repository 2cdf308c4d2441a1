package collect

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/platform9/pcddebug/pkg/archive"
	"github.com/platform9/pcddebug/pkg/runner"
)

// healthSubdir is where control-plane health artifacts land.
const healthSubdir = "health"

// healthChecks are the service-level listings collected before any
// seeded traversal. Each is independent and writes its own file.
var healthChecks = []struct {
	name string
	args []string
}{
	{"compute_services", []string{"compute", "service", "list", "--long", "--timing"}},
	{"resource_providers", []string{"resource", "provider", "list"}},
	{"network_agents", []string{"network", "agent", "list", "--long"}},
	{"hypervisors", []string{"hypervisor", "list", "--long"}},
	{"hypervisor_stats", []string{"hypervisor", "stats", "show"}},
	{"volume_services", []string{"volume", "service", "list", "--long"}},
	{"cinder_pools", []string{"volume", "backend", "pool", "list", "--long"}},
}

// HealthCollector captures general control-plane health listings.
type HealthCollector struct {
	Runner runner.Interface
	Writer *archive.Writer
	Logger *slog.Logger
}

// Collect fans the independent health commands out concurrently; they
// share no state and each writes a distinct artifact. A failed command
// still produces an artifact carrying its error output, and is counted
// in the returned failure total rather than aborting the pass.
func (h *HealthCollector) Collect(ctx context.Context) (failures int, err error) {
	log := h.Logger
	if log == nil {
		log = slog.Default()
	}
	log.Info("collecting control-plane health checks")

	results := make([]*runner.Result, len(healthChecks))
	g, gctx := errgroup.WithContext(ctx)
	for i, hc := range healthChecks {
		g.Go(func() error {
			results[i] = h.Runner.Run(gctx, hc.args...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	for i, hc := range healthChecks {
		res := results[i]
		content := res.Stdout
		if res.Failed() {
			failures++
			if len(content) == 0 {
				content = []byte("ERROR: " + res.ErrorDetail())
			}
		}
		if _, werr := h.Writer.Write(healthSubdir, hc.name, content, res.Command); werr != nil {
			failures++
			log.Warn("cannot persist health artifact",
				slog.String("name", hc.name),
				slog.String("error", werr.Error()))
		}
	}
	return failures, nil
}
