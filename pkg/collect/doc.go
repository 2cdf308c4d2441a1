// Package collect implements flat diagnostic collections: fetches with
// no dependency edges, such as control-plane health checks, project
// quotas, and the database dump. Each collector persists its output
// through the archive writer and tolerates individual command failures
// the same way the traversal engine does.
package collect
