/*
Copyright © 2025 Platform9 Systems
SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"

	"github.com/platform9/pcddebug/pkg/archive"
	"github.com/platform9/pcddebug/pkg/collect"
	pcderrors "github.com/platform9/pcddebug/pkg/errors"
	"github.com/platform9/pcddebug/pkg/graph"
	k8sclient "github.com/platform9/pcddebug/pkg/k8s/client"
	"github.com/platform9/pcddebug/pkg/oci"
	"github.com/platform9/pcddebug/pkg/runner"
)

// seedFlags maps each resource flag to the kind it seeds. One id =
// one independent traversal, in this order.
var seedFlags = []struct {
	name  string
	usage string
	kind  graph.Kind
}{
	{"vm", "VM (server) id to collect", graph.KindVM},
	{"image", "image id to collect", graph.KindImage},
	{"network", "network id to collect", graph.KindNetwork},
	{"port", "port id to collect", graph.KindPort},
	{"volume", "volume id to collect", graph.KindVolume},
	{"stack", "Heat stack id to collect", graph.KindStack},
	{"user", "Keystone user id to collect", graph.KindUser},
}

// collectCmdOptions holds parsed and validated options for the collect
// command.
type collectCmdOptions struct {
	seeds       []graph.Ref
	outputDir   string
	zipOutput   bool
	insecure    bool
	rps         float64
	pushRef     string
	plainHTTP   bool
	insecureTLS bool

	mysqlDump   bool
	namespace   string
	dbPodLabel  string
	dbService   string
	kubeconfig  string
}

// parseCollectCmdOptions parses and validates command options. A
// validation failure here is the only fatal error class; everything
// past this point degrades to per-artifact failures.
func parseCollectCmdOptions(cmd *cli.Command) (*collectCmdOptions, error) {
	opts := &collectCmdOptions{
		outputDir:   cmd.String("output"),
		zipOutput:   cmd.Bool("zip"),
		insecure:    cmd.Bool("insecure"),
		rps:         cmd.Float64("rps"),
		pushRef:     cmd.String("push"),
		plainHTTP:   cmd.Bool("plain-http"),
		insecureTLS: cmd.Bool("insecure-tls"),
		mysqlDump:   cmd.Bool("mysql-dump"),
		namespace:   cmd.String("namespace"),
		dbPodLabel:  cmd.String("db-pod-label"),
		dbService:   cmd.String("db-service-name"),
		kubeconfig:  cmd.String("kubeconfig"),
	}

	for _, sf := range seedFlags {
		for _, id := range cmd.StringSlice(sf.name) {
			if id == "" {
				continue
			}
			opts.seeds = append(opts.seeds, graph.Ref{Kind: sf.kind, ID: id})
		}
	}

	if len(opts.seeds) == 0 && !opts.mysqlDump {
		return nil, pcderrors.New(pcderrors.ErrCodeInvalidRequest,
			"nothing to collect: pass at least one resource flag or --mysql-dump")
	}
	if opts.mysqlDump && opts.namespace == "" {
		return nil, pcderrors.New(pcderrors.ErrCodeInvalidRequest,
			"--mysql-dump requires --namespace")
	}
	if opts.rps < 0 {
		return nil, pcderrors.New(pcderrors.ErrCodeInvalidRequest,
			"--rps must not be negative")
	}

	if opts.outputDir == "" {
		opts.outputDir = name + "-" + time.Now().Format("20060102-150405")
	}
	return opts, nil
}

func collectCmd() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output directory for collected artifacts (default: pcddebug-<timestamp>)",
			Sources: cli.EnvVars("PCDDEBUG_OUTPUT"),
		},
		&cli.BoolFlag{
			Name:  "zip",
			Usage: "Write sha256 checksums and zip the output directory when done",
		},
		&cli.BoolFlag{
			Name:  "insecure",
			Usage: "Skip SSL verification on openstack client invocations",
		},
		&cli.Float64Flag{
			Name:  "rps",
			Usage: "Throttle openstack client invocations to this many per second (0 = no throttle)",
		},
		&cli.StringFlag{
			Name:  "push",
			Usage: "Push the output directory to this OCI reference (e.g. ghcr.io/org/debug:case-1234)",
		},
		&cli.BoolFlag{
			Name:  "plain-http",
			Usage: "Use HTTP instead of HTTPS for the OCI registry",
		},
		&cli.BoolFlag{
			Name:  "insecure-tls",
			Usage: "Skip TLS certificate verification for the OCI registry",
		},
		&cli.BoolFlag{
			Name:  "mysql-dump",
			Usage: "Dump all databases through the cluster DB proxy (requires --namespace)",
		},
		&cli.StringFlag{
			Name:    "namespace",
			Usage:   "Kubernetes namespace holding the control-plane pods",
			Sources: cli.EnvVars("PCDDEBUG_NAMESPACE"),
		},
		&cli.StringFlag{
			Name:  "db-pod-label",
			Usage: "Label selector for the DB proxy pod",
			Value: "app.kubernetes.io/component=haproxy",
		},
		&cli.StringFlag{
			Name:  "db-service-name",
			Usage: "Service name of the DB endpoint used by mysqldump",
			Value: "percona-db-pxc-db-haproxy",
		},
		&cli.StringFlag{
			Name:    "kubeconfig",
			Usage:   "Path to kubeconfig (default: $KUBECONFIG, then ~/.kube/config, then in-cluster)",
			Sources: cli.EnvVars("PCDDEBUG_KUBECONFIG"),
		},
	}
	for _, sf := range seedFlags {
		flags = append(flags, &cli.StringSliceFlag{Name: sf.name, Usage: sf.usage + " (can be repeated)"})
	}

	return &cli.Command{
		Name:                  "collect",
		EnableShellCompletion: true,
		Usage:                 "Collect diagnostics for control-plane resources",
		Description: `Collects diagnostic artifacts for the given resources and everything they
depend on. Each resource id seeds one dependency traversal: a VM pulls in its
ports, networks, subnets, security groups, attached volumes, image and flavor;
a port pulls in its network and security groups, and so on. Every resource is
fetched exactly once per traversal and saved under a per-service directory
(nova/, neutron/, cinder/, glance/, heat/, keystone/).

Control-plane health listings are captured before any traversal, and project
quotas are captured for every project encountered. Individual fetch failures
are recorded in the artifact and the final summary; they never abort the run.

Requires the openstack client on PATH and OS_AUTH_URL, OS_USERNAME and
OS_PROJECT_NAME in the environment.

# Examples

Collect a VM and everything it references:
  pcddebug collect --vm 4a1fe682-6481-42a6-9bd3-a129e11bf3cc

Collect two VMs and a volume, zip the result:
  pcddebug collect --vm <id1> --vm <id2> --volume <id3> --zip

Dump all databases from the management cluster:
  pcddebug collect --mysql-dump --namespace pcd

Collect and upload the bundle:
  pcddebug collect --vm <id> --zip --push ghcr.io/platform9/debug:case-1234`,
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts, err := parseCollectCmdOptions(cmd)
			if err != nil {
				return err
			}
			return runCollect(ctx, opts)
		},
	}
}

// runCollect executes one full collection run. It returns an error
// only for auth or context failures; per-artifact failures are
// summarized and still exit zero.
func runCollect(ctx context.Context, opts *collectCmdOptions) error {
	runID := uuid.NewString()
	log := slog.Default().With(slog.String("run_id", runID))

	if err := os.MkdirAll(opts.outputDir, 0o755); err != nil {
		return pcderrors.Wrap(pcderrors.ErrCodeWriteFailed, "cannot create output directory", err)
	}
	writer := archive.NewWriter(opts.outputDir)

	var limiter *rate.Limiter
	if opts.rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.rps), 1)
	}
	osRunner := &runner.OpenStack{Insecure: opts.insecure, Limiter: limiter}

	log.Info("starting collection",
		slog.String("output", opts.outputDir),
		slog.Int("seeds", len(opts.seeds)))

	var visited, artifacts, failures int

	if len(opts.seeds) > 0 {
		if err := collect.CheckAuth(ctx, osRunner); err != nil {
			return err
		}

		health := &collect.HealthCollector{Runner: osRunner, Writer: writer, Logger: log}
		n, err := health.Collect(ctx)
		if err != nil {
			return err
		}
		failures += n

		engine := &graph.Engine{Runner: osRunner, Writer: writer, Logger: log}
		quota := &collect.QuotaCollector{Runner: osRunner, Writer: writer, Logger: log}

		for _, seed := range opts.seeds {
			summary, err := engine.Traverse(ctx, seed)
			if err != nil {
				return err
			}
			visited += summary.Visited
			artifacts += summary.ArtifactsWritten
			failures += len(summary.Failures)
			for _, f := range summary.Failures {
				log.Warn("collection failure",
					slog.String("resource", f.Ref.String()),
					slog.String("label", f.Label),
					slog.String("detail", f.Detail))
			}
			for _, projectID := range summary.Projects {
				if qerr := quota.Collect(ctx, projectID); qerr != nil {
					failures++
					log.Warn("cannot collect project quota",
						slog.String("project", projectID),
						slog.String("error", qerr.Error()))
				}
			}
		}
	}

	if opts.mysqlDump {
		if err := runMySQLDump(ctx, opts, writer, log); err != nil {
			failures++
			log.Error("database dump failed", slog.String("error", err.Error()))
		}
	}

	if opts.zipOutput {
		if err := archive.GenerateChecksums(ctx, opts.outputDir); err != nil {
			failures++
			log.Error("cannot generate checksums", slog.String("error", err.Error()))
		}
		zipPath := opts.outputDir + ".zip"
		if err := archive.Zip(ctx, opts.outputDir, zipPath); err != nil {
			failures++
			log.Error("cannot create zip archive", slog.String("error", err.Error()))
		} else {
			log.Info("archive created", slog.String("path", zipPath))
		}
	}

	if opts.pushRef != "" {
		res, err := oci.Push(ctx, oci.PushOptions{
			SourceDir:   opts.outputDir,
			Reference:   opts.pushRef,
			PlainHTTP:   opts.plainHTTP,
			InsecureTLS: opts.insecureTLS,
		})
		if err != nil {
			failures++
			log.Error("cannot push bundle", slog.String("error", err.Error()))
		} else {
			log.Info("bundle pushed",
				slog.String("reference", res.Reference),
				slog.String("digest", res.Digest))
		}
	}

	log.Info("collection complete",
		slog.String("output", opts.outputDir),
		slog.Int("visited", visited),
		slog.Int("artifacts", artifacts),
		slog.Int("failures", failures))
	return nil
}

// runMySQLDump wires the Kubernetes client into the dump collector.
func runMySQLDump(ctx context.Context, opts *collectCmdOptions, writer *archive.Writer, log *slog.Logger) error {
	client, cfg, err := k8sclient.BuildKubeClient(opts.kubeconfig)
	if err != nil {
		return err
	}
	m := &collect.MySQLDumpCollector{
		Client:      client,
		Config:      cfg,
		Writer:      writer,
		Namespace:   opts.namespace,
		PodLabel:    opts.dbPodLabel,
		ServiceName: opts.dbService,
		Logger:      log,
	}
	return m.Collect(ctx)
}
