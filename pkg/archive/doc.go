// Package archive persists collected diagnostic artifacts.
//
// The Writer maps each artifact to a deterministic path under the run's
// output root (<root>/<service_subdir>/<name>.txt) and prepends the
// command line that produced the content, so a human reading the
// archive can reproduce any fetch. The package also provides zip
// packaging and SHA256 checksum generation for the completed output
// directory.
//
// The output directory layout is a durable contract: other tooling and
// humans consuming the archive depend on it.
package archive
