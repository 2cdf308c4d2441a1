// Package cli implements the command-line interface for the pcddebug tool.
//
// # Overview
//
// pcddebug gathers diagnostic archives from Platform9 cloud control planes
// for support and escalation work. Given one or more resource ids it walks
// the dependency graph of each resource through the openstack client,
// saving every show/list output into a per-service directory tree that can
// be zipped and attached to a case or pushed to an OCI registry.
//
// # Commands
//
// collect - Collect diagnostics for control-plane resources:
//
//	pcddebug collect --vm <id> [--volume <id>] [--zip] [--push REF]
//
// Seeds one dependency traversal per resource id, captures control-plane
// health listings and project quotas, and optionally dumps all databases
// from the management cluster with --mysql-dump.
//
// # Global Flags
//
//	--log-level    Logging verbosity: debug, info, warn, error (default: info)
//	--help, -h     Show command help
//	--version, -v  Show version information
//
// # Environment Variables
//
//	LOG_LEVEL            Logging verbosity override
//	OS_AUTH_URL          OpenStack auth endpoint (required for collection)
//	OS_USERNAME          OpenStack user (required for collection)
//	OS_PROJECT_NAME      OpenStack project (required for collection)
//	PCDDEBUG_OUTPUT      Default output directory
//	PCDDEBUG_NAMESPACE   Default namespace for --mysql-dump
//	PCDDEBUG_KUBECONFIG  Default kubeconfig path
//
// # Exit Codes
//
//	0  Run completed (individual fetch failures are reported, not fatal)
//	1  Invalid arguments, failed auth precheck, or canceled run
//
// # Architecture
//
// The CLI uses the urfave/cli/v3 framework and delegates to specialized
// packages:
//   - pkg/graph - dependency traversal engine
//   - pkg/collect - flat collections (health, quota, database dump)
//   - pkg/runner - openstack client invocation
//   - pkg/archive - artifact layout, zip and checksums
//   - pkg/oci - bundle upload
//   - pkg/logging - structured logging
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/platform9/pcddebug/pkg/cli.version=1.0.0'"
package cli
