// Package runner executes external diagnostic commands.
//
// The runner spawns exactly one subprocess per call and waits for it to
// complete. Command failure (non-zero exit, unreachable binary) is
// captured in the returned Result rather than raised as an error, so a
// broken service endpoint never aborts a collection run. Invocations of
// the openstack client automatically gain --insecure and --max-width
// flags where appropriate.
package runner
