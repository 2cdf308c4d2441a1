// Package graph implements the dependency-traversal collection engine.
//
// # Overview
//
// Given a single seed resource (for example a virtual machine id), the
// engine discovers and fetches the graph of resources it depends on:
// ports, volumes, networks, subnets, images, flavors and security
// groups. Shared resources are fetched at most once per traversal, a
// visited set guards against cyclic extraction results, and the failure
// of any individual fetch never aborts the run.
//
// # Model
//
// Resources are identified by plain-value Refs, a (kind, id) pair. The
// dependency table is a static mapping from kind to extraction rules,
// each a pure function over the parent's raw show output. Two edges are
// special: a VM's ports and volumes are owned relations obtained via
// dedicated list-by-owner queries rather than scraped from show text.
//
// # Traversal
//
// The frontier is a FIFO queue, so siblings discovered from a resource
// are processed before their own descendants. Every ref is marked
// visited at or before enqueue time, giving an at-most-once fetch
// guarantee even for diamond-shaped sharing (two ports referencing the
// same network). Processing is deliberately single-threaded: archives
// must be deterministic and reproducible for triage, and the external
// process call is the only blocking point.
//
// Each traversal owns its VisitedSet. Independent seeds given in one
// run (e.g. --vm and --network) therefore fetch overlapping resources
// independently; only project quota collection dedups across seeds.
package graph
