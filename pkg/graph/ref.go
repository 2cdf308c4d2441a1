package graph

import "fmt"

// Kind identifies a category of control-plane resource.
type Kind string

const (
	KindVM            Kind = "vm"
	KindPort          Kind = "port"
	KindVolume        Kind = "volume"
	KindNetwork       Kind = "network"
	KindSubnet        Kind = "subnet"
	KindImage         Kind = "image"
	KindFlavor        Kind = "flavor"
	KindSecurityGroup Kind = "security_group"
	KindStack         Kind = "stack"
	KindUser          Kind = "user"
)

// serviceDirs maps each kind to the service subdirectory its artifacts
// land in. This layout is a durable contract with archive consumers.
var serviceDirs = map[Kind]string{
	KindVM:            "nova",
	KindFlavor:        "nova",
	KindPort:          "neutron",
	KindNetwork:       "neutron",
	KindSubnet:        "neutron",
	KindSecurityGroup: "neutron",
	KindVolume:        "cinder",
	KindImage:         "glance",
	KindStack:         "heat",
	KindUser:          "keystone",
}

// artifactPrefixes maps each kind to the file name prefix of its
// primary "show" artifact, e.g. (image, img-42) -> image_img-42.txt.
var artifactPrefixes = map[Kind]string{
	KindVM:            "server",
	KindPort:          "port",
	KindVolume:        "volume",
	KindNetwork:       "network",
	KindSubnet:        "subnet",
	KindImage:         "image",
	KindFlavor:        "flavor",
	KindSecurityGroup: "security_group",
	KindStack:         "stack",
	KindUser:          "user",
}

// Valid reports whether k is one of the known resource kinds.
func (k Kind) Valid() bool {
	_, ok := serviceDirs[k]
	return ok
}

// ServiceDir returns the archive subdirectory for artifacts of this kind.
func (k Kind) ServiceDir() string {
	return serviceDirs[k]
}

// Ref identifies one entity in the dependency graph. Equality is by
// (kind, id); refs are plain values, created on discovery and never
// mutated.
type Ref struct {
	Kind Kind
	ID   string
}

// String renders the ref for logs and failure reports.
func (r Ref) String() string {
	return fmt.Sprintf("%s/%s", r.Kind, r.ID)
}

// ArtifactName returns the file name stem for an artifact of this ref.
// The primary show artifact is <prefix>_<id>; auxiliary labels append
// a suffix, e.g. security_group_sg-1_rules.
func (r Ref) ArtifactName(suffix string) string {
	stem := artifactPrefixes[r.Kind] + "_" + r.ID
	if suffix != "" {
		stem += "_" + suffix
	}
	return stem
}
