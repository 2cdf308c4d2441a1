package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/platform9/pcddebug/pkg/archive"
	pcderrors "github.com/platform9/pcddebug/pkg/errors"
	"github.com/platform9/pcddebug/pkg/runner"
)

// showArgs maps each kind to its client show subcommand.
var showArgs = map[Kind][]string{
	KindVM:            {"server", "show"},
	KindPort:          {"port", "show"},
	KindVolume:        {"volume", "show"},
	KindNetwork:       {"network", "show"},
	KindSubnet:        {"subnet", "show"},
	KindImage:         {"image", "show"},
	KindFlavor:        {"flavor", "show"},
	KindSecurityGroup: {"security", "group", "show"},
	KindStack:         {"stack", "show"},
	KindUser:          {"user", "show"},
}

// attachedVolumeID pulls volume ids out of the volumes_attached field,
// which the client renders either as id='...' lines or a python-ish
// list of dicts depending on version.
var attachedVolumeID = regexp.MustCompile(`id'?\s*[:=]\s*'([^']+)'`)

// Failure records one per-resource fetch or write failure. Failures
// never abort a traversal; they are surfaced in the final summary.
type Failure struct {
	Ref    Ref
	Label  string
	Detail string
}

// Summary is the aggregate result of one seeded traversal.
type Summary struct {
	Seed             Ref
	Visited          int
	ArtifactsWritten int
	Failures         []Failure
	// Projects lists project ids discovered along the way, in discovery
	// order, for flat quota collection by the caller.
	Projects []string
}

// Engine walks the dependency graph of a seed resource breadth-first,
// fetching each unvisited resource exactly once and persisting every
// result. Processing is single-threaded and synchronous so archive
// content and ordering are reproducible for a given input graph.
type Engine struct {
	Runner runner.Interface
	Writer *archive.Writer
	Logger *slog.Logger
}

// traversal is the state of one Traverse invocation. It is discarded
// when the frontier empties.
type traversal struct {
	e        *Engine
	visited  *VisitedSet
	frontier []Ref
	seedKind Kind
	summary  *Summary
	projects map[string]struct{}
}

// Traverse runs one dependency traversal from seed. Every ref that
// enters the frontier is marked visited before it is enqueued, so no
// resource is fetched twice even when discovered via multiple edges or
// a cyclic extraction result. The only error returns are an invalid
// seed and context cancellation; per-resource failures are recorded in
// the summary and traversal continues.
func (e *Engine) Traverse(ctx context.Context, seed Ref) (*Summary, error) {
	if !seed.Kind.Valid() {
		return nil, pcderrors.New(pcderrors.ErrCodeInvalidRequest,
			fmt.Sprintf("unknown resource kind %q", seed.Kind))
	}
	if seed.ID == "" {
		return nil, pcderrors.New(pcderrors.ErrCodeInvalidRequest, "missing seed identifier")
	}
	if e.Logger == nil {
		e.Logger = slog.Default()
	}

	start := time.Now()
	defer func() { traversalDuration.Observe(time.Since(start).Seconds()) }()

	t := &traversal{
		e:        e,
		visited:  NewVisitedSet(),
		seedKind: seed.Kind,
		summary:  &Summary{Seed: seed},
		projects: make(map[string]struct{}),
	}
	t.visited.MarkIfNew(seed)
	t.frontier = append(t.frontier, seed)

	e.Logger.Info("starting traversal", slog.String("seed", seed.String()))

	for len(t.frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return t.summary, err
		}

		ref := t.frontier[0]
		t.frontier = t.frontier[1:]
		t.summary.Visited++
		resourcesVisited.WithLabelValues(string(ref.Kind)).Inc()

		e.Logger.Info("collecting resource",
			slog.String("kind", string(ref.Kind)),
			slog.String("id", ref.ID))
		t.process(ctx, ref)
	}

	e.Logger.Info("traversal complete",
		slog.String("seed", seed.String()),
		slog.Int("visited", t.summary.Visited),
		slog.Int("artifacts", t.summary.ArtifactsWritten),
		slog.Int("failures", len(t.summary.Failures)))
	return t.summary, nil
}

func (t *traversal) process(ctx context.Context, ref Ref) {
	switch ref.Kind {
	case KindVM:
		t.processVM(ctx, ref)
	case KindVolume:
		t.processVolume(ctx, ref)
	case KindSecurityGroup:
		t.processSecurityGroup(ctx, ref)
	case KindStack:
		t.processStack(ctx, ref)
	case KindUser:
		t.processUser(ctx, ref)
	default:
		t.processShow(ctx, ref)
	}
}

// processShow handles kinds whose dependencies are all embedded in the
// show output: port, network, subnet, image, flavor.
func (t *traversal) processShow(ctx context.Context, ref Ref) {
	out, ok := t.fetch(ctx, ref, "", append(showArgs[ref.Kind], ref.ID)...)
	if !ok {
		return
	}
	t.discover(Extract(ref.Kind, out)...)
}

func (t *traversal) processVM(ctx context.Context, ref Ref) {
	out, ok := t.fetch(ctx, ref, "", "server", "show", ref.ID)
	if ok {
		t.discover(Extract(KindVM, out)...)
		t.recordProject(fieldValue(out, "project_id"))

		// The hosting hypervisor is not a graph resource but its detail
		// is part of a useful VM dossier.
		if hv := fieldValue(out, "OS-EXT-SRV-ATTR:hypervisor_hostname"); hv != "" {
			t.fetchNamed(ctx, ref, "nova", "hypervisor_"+hv, "hypervisor", "show", hv)
		}
	}

	t.fetch(ctx, ref, "events", "server", "event", "list", ref.ID)
	t.fetch(ctx, ref, "migrations", "server", "migration", "list", "--server", ref.ID)

	// Ports and volumes are owned relations, not embedded fields, so
	// they come from dedicated list-by-owner queries.
	t.fetchNamed(ctx, ref, "neutron", ref.ArtifactName("ports"), "port", "list", "--device-id", ref.ID)
	for _, id := range t.values(ctx, "port", "list", "--device-id", ref.ID, "-c", "ID", "-f", "value") {
		t.discover(Ref{Kind: KindPort, ID: id})
	}

	vols := t.e.Runner.Run(ctx, "server", "show", ref.ID, "-c", "volumes_attached", "-f", "value")
	if !vols.Failed() && vols.Output() != "" {
		t.fetchResult(ref, "cinder", ref.ArtifactName("volumes"), vols)
		for _, m := range attachedVolumeID.FindAllStringSubmatch(vols.Output(), -1) {
			t.discover(Ref{Kind: KindVolume, ID: m[1]})
		}
	}
}

func (t *traversal) processVolume(ctx context.Context, ref Ref) {
	t.fetch(ctx, ref, "", "volume", "show", ref.ID)

	// Attachments come from JSON output: the tabular rendering truncates
	// and cannot be parsed reliably.
	res := t.e.Runner.Run(ctx, "volume", "show", ref.ID, "-c", "attachments", "-f", "json")
	if res.Failed() || res.Output() == "" {
		return
	}

	var parsed struct {
		Attachments []struct {
			AttachmentID string `json:"attachment_id"`
			ServerID     string `json:"server_id"`
		} `json:"attachments"`
	}
	if err := json.Unmarshal(res.Stdout, &parsed); err != nil {
		t.e.Logger.Warn("cannot parse volume attachments",
			slog.String("volume", ref.ID),
			slog.String("error", err.Error()))
		return
	}

	for _, att := range parsed.Attachments {
		if att.AttachmentID != "" {
			t.fetch(ctx, ref, "attachment_"+att.AttachmentID,
				"volume", "attachment", "show", att.AttachmentID)
		}
		// Follow the volume->server back-edge only when the volume is
		// the seed; a VM-seeded run should not pull in sibling VMs that
		// happen to share a multi-attach volume.
		if att.ServerID != "" && t.seedKind == KindVolume {
			t.discover(Ref{Kind: KindVM, ID: att.ServerID})
		}
	}
}

func (t *traversal) processSecurityGroup(ctx context.Context, ref Ref) {
	t.fetch(ctx, ref, "", "security", "group", "show", ref.ID)
	t.fetch(ctx, ref, "rules", "security", "group", "rule", "list", ref.ID)
}

func (t *traversal) processStack(ctx context.Context, ref Ref) {
	out, ok := t.fetch(ctx, ref, "", "stack", "show", ref.ID)
	if ok {
		t.recordProject(fieldValue(out, "project"))
	}

	t.fetch(ctx, ref, "resources", "stack", "resource", "list", ref.ID)
	for _, name := range t.values(ctx, "stack", "resource", "list", ref.ID, "-c", "resource_name", "-f", "value") {
		t.fetch(ctx, ref, "resource_"+name, "stack", "resource", "show", ref.ID, name)
	}
}

func (t *traversal) processUser(ctx context.Context, ref Ref) {
	out, ok := t.fetch(ctx, ref, "", "user", "show", ref.ID)
	if ok {
		t.recordProject(fieldValue(out, "default_project_id"))
	}
	t.fetch(ctx, ref, "role_assignments", "role", "assignment", "list", "--user", ref.ID, "--names")
}

// fetch runs one command and persists the result as an artifact of ref
// under its kind's service directory.
func (t *traversal) fetch(ctx context.Context, ref Ref, suffix string, args ...string) (string, bool) {
	return t.fetchNamed(ctx, ref, ref.Kind.ServiceDir(), ref.ArtifactName(suffix), args...)
}

// fetchNamed runs one command and persists the result under an explicit
// subdirectory and name. The artifact is written regardless of command
// success; failures are recorded and traversal continues.
func (t *traversal) fetchNamed(ctx context.Context, ref Ref, subdir, name string, args ...string) (string, bool) {
	res := t.e.Runner.Run(ctx, args...)
	return t.fetchResult(ref, subdir, name, res)
}

// fetchResult persists an already-obtained command result.
func (t *traversal) fetchResult(ref Ref, subdir, name string, res *runner.Result) (string, bool) {
	content := res.Stdout
	if res.Failed() && len(content) == 0 {
		content = []byte("ERROR: " + res.ErrorDetail())
	}

	if _, err := t.e.Writer.Write(subdir, name, content, res.Command); err != nil {
		artifactWrites.WithLabelValues("error").Inc()
		t.fail(ref, name, err.Error())
		return "", false
	}
	t.summary.ArtifactsWritten++
	artifactWrites.WithLabelValues("success").Inc()

	if res.Failed() {
		t.fail(ref, name, res.ErrorDetail())
		return "", false
	}
	return res.Output(), true
}

// values runs a machine-format query (-f value) and returns its output
// lines. No artifact is written; a failed query yields no values and no
// recorded failure, matching the extraction-miss semantics.
func (t *traversal) values(ctx context.Context, args ...string) []string {
	res := t.e.Runner.Run(ctx, args...)
	if res.Failed() || res.Output() == "" {
		return nil
	}
	var out []string
	for _, line := range strings.Split(res.Output(), "\n") {
		if v := strings.TrimSpace(line); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// discover marks newly seen refs and appends them to the frontier.
func (t *traversal) discover(refs ...Ref) {
	for _, ref := range refs {
		if ref.ID == "" || !ref.Kind.Valid() {
			continue
		}
		if t.visited.MarkIfNew(ref) {
			t.frontier = append(t.frontier, ref)
		}
	}
}

func (t *traversal) recordProject(id string) {
	if id == "" {
		return
	}
	if _, ok := t.projects[id]; ok {
		return
	}
	t.projects[id] = struct{}{}
	t.summary.Projects = append(t.summary.Projects, id)
}

func (t *traversal) fail(ref Ref, label, detail string) {
	fetchFailures.Inc()
	t.summary.Failures = append(t.summary.Failures, Failure{Ref: ref, Label: label, Detail: detail})
	t.e.Logger.Warn("fetch failed",
		slog.String("resource", ref.String()),
		slog.String("artifact", label),
		slog.String("detail", detail))
}
