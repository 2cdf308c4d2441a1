/*
Copyright © 2025 Platform9 Systems
SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/platform9/pcddebug/pkg/graph"
)

// parseOpts runs the collect command with the given args, capturing
// the parsed options instead of executing a collection.
func parseOpts(t *testing.T, args ...string) (*collectCmdOptions, error) {
	t.Helper()

	var opts *collectCmdOptions
	var parseErr error
	cmd := collectCmd()
	cmd.Action = func(_ context.Context, c *cli.Command) error {
		opts, parseErr = parseCollectCmdOptions(c)
		return nil
	}

	require.NoError(t, cmd.Run(context.Background(), append([]string{"collect"}, args...)))
	return opts, parseErr
}

func TestParseCollectSeeds(t *testing.T) {
	opts, err := parseOpts(t, "--volume", "v-1", "--vm", "a", "--vm", "b", "--user", "u-1")
	require.NoError(t, err)

	assert.Equal(t, []graph.Ref{
		{Kind: graph.KindVM, ID: "a"},
		{Kind: graph.KindVM, ID: "b"},
		{Kind: graph.KindVolume, ID: "v-1"},
		{Kind: graph.KindUser, ID: "u-1"},
	}, opts.seeds)
}

func TestParseCollectRequiresWork(t *testing.T) {
	_, err := parseOpts(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to collect")
}

func TestParseCollectMySQLDumpNeedsNamespace(t *testing.T) {
	_, err := parseOpts(t, "--mysql-dump")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--namespace")

	opts, err := parseOpts(t, "--mysql-dump", "--namespace", "pcd")
	require.NoError(t, err)
	assert.True(t, opts.mysqlDump)
	assert.Equal(t, "pcd", opts.namespace)
}

func TestParseCollectDBDefaults(t *testing.T) {
	// The defaults must match what the product actually deploys, or an
	// out-of-the-box dump selects no pod.
	opts, err := parseOpts(t, "--mysql-dump", "--namespace", "pcd")
	require.NoError(t, err)
	assert.Equal(t, "app.kubernetes.io/component=haproxy", opts.dbPodLabel)
	assert.Equal(t, "percona-db-pxc-db-haproxy", opts.dbService)
}

func TestParseCollectNegativeRPS(t *testing.T) {
	_, err := parseOpts(t, "--vm", "a", "--rps", "-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--rps")
}

func TestParseCollectDefaultOutputDir(t *testing.T) {
	opts, err := parseOpts(t, "--vm", "a")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(opts.outputDir, "pcddebug-"), opts.outputDir)
}

func TestParseCollectExplicitOptions(t *testing.T) {
	opts, err := parseOpts(t, "--vm", "a",
		"--output", "out", "--zip", "--insecure", "--rps", "2.5",
		"--push", "ghcr.io/platform9/debug:x",
		"--db-pod-label", "app=db", "--db-service-name", "db-svc")
	require.NoError(t, err)

	assert.Equal(t, "out", opts.outputDir)
	assert.True(t, opts.zipOutput)
	assert.True(t, opts.insecure)
	assert.InDelta(t, 2.5, opts.rps, 0.001)
	assert.Equal(t, "ghcr.io/platform9/debug:x", opts.pushRef)
	assert.Equal(t, "app=db", opts.dbPodLabel)
	assert.Equal(t, "db-svc", opts.dbService)
}

func TestRunCollectDumpFailureIsNotFatal(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "out")
	opts := &collectCmdOptions{
		mysqlDump:  true,
		namespace:  "pcd",
		kubeconfig: filepath.Join(t.TempDir(), "missing-kubeconfig"),
		outputDir:  outputDir,
	}

	// The kube client cannot be built, so the dump fails; the run
	// still completes with the failure reported in the summary.
	require.NoError(t, runCollect(context.Background(), opts))
	assert.DirExists(t, outputDir)
}

func TestNewRootCommand(t *testing.T) {
	root := New()
	assert.Equal(t, "pcddebug", root.Name)
	assert.Contains(t, root.Version, version)

	names := make([]string, 0, len(root.Commands))
	for _, c := range root.Commands {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "collect")
}
