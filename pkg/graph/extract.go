package graph

import (
	"regexp"
	"strings"
)

// parenID matches the "name (id)" rendering the client uses for image
// and flavor references in server show output.
var parenID = regexp.MustCompile(`\(([^)]+)\)`)

// quotedID matches the id entry of a dict-rendered flavor field, seen
// on deployments where the flavor has no name.
var quotedID = regexp.MustCompile(`'id':\s*'([^']+)'`)

// fieldValue locates a labeled field in tabular show output and returns
// its raw value, or "" when the field is absent. Rows look like:
//
//	| network_id | 1fba16dd-e4a4-4b0d-b02a-8a4c7d4b2a03 |
func fieldValue(output, field string) string {
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "|") {
			continue
		}
		cols := strings.Split(line, "|")
		if len(cols) < 3 {
			continue
		}
		if strings.TrimSpace(cols[1]) == field {
			return strings.TrimSpace(cols[2])
		}
	}
	return ""
}

// splitIDs breaks a list-valued field (subnets, security_group_ids)
// into individual identifiers. The client renders these as comma or
// newline separated values, sometimes bracketed or quoted.
func splitIDs(value string) []string {
	cleaned := strings.NewReplacer("[", " ", "]", " ", "'", " ", `"`, " ", ",", " ").Replace(value)
	var ids []string
	for _, tok := range strings.Fields(cleaned) {
		if tok == "" || tok == "None" {
			continue
		}
		ids = append(ids, tok)
	}
	return ids
}

// extractParenID pulls the "(id)" portion out of a field value.
func extractParenID(value string) []string {
	if m := parenID.FindStringSubmatch(value); m != nil {
		return []string{m[1]}
	}
	// Dict-rendered fallback for unnamed flavors.
	if m := quotedID.FindStringSubmatch(value); m != nil {
		return []string{m[1]}
	}
	return nil
}

// rule is one extraction edge: pull identifiers of a given kind out of
// a parent resource's raw show output. Rules are pure functions; a
// missing or malformed field yields no refs and no error, since many
// resources legitimately lack an optional reference.
type rule struct {
	kind    Kind
	extract func(output string) []string
}

// dependencyRules is the static dependency table. VM ports and volumes
// are not here: those edges come from dedicated list-by-owner commands
// in the engine because the owning relation is not embedded in show
// output. Volume's back-edge to its server comes from the attachment
// JSON, also handled in the engine.
var dependencyRules = map[Kind][]rule{
	KindVM: {
		{KindImage, func(out string) []string { return extractParenID(fieldValue(out, "image")) }},
		{KindFlavor, func(out string) []string { return extractParenID(fieldValue(out, "flavor")) }},
	},
	KindPort: {
		{KindNetwork, func(out string) []string {
			if v := fieldValue(out, "network_id"); v != "" {
				return []string{v}
			}
			return nil
		}},
		{KindSecurityGroup, func(out string) []string { return splitIDs(fieldValue(out, "security_group_ids")) }},
	},
	KindNetwork: {
		{KindSubnet, func(out string) []string { return splitIDs(fieldValue(out, "subnets")) }},
	},
	// Volume, Subnet, Image, Flavor, SecurityGroup, Stack and User are
	// terminal: no onward resource edges.
}

// Extract applies the dependency table to raw show output and returns
// the referenced resources, in rule order.
func Extract(kind Kind, output string) []Ref {
	var refs []Ref
	for _, r := range dependencyRules[kind] {
		for _, id := range r.extract(output) {
			refs = append(refs, Ref{Kind: r.kind, ID: id})
		}
	}
	return refs
}
