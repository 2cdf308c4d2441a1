package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const portShowOutput = `+-----------------------+--------------------------------------+
| Field                 | Value                                |
+-----------------------+--------------------------------------+
| id                    | p-1                                  |
| network_id            | 1fba16dd-e4a4-4b0d-b02a-8a4c7d4b2a03 |
| security_group_ids    | sg-1, sg-2                           |
| status                | ACTIVE                               |
+-----------------------+--------------------------------------+`

func TestExtractPort(t *testing.T) {
	refs := Extract(KindPort, portShowOutput)
	assert.Equal(t, []Ref{
		{Kind: KindNetwork, ID: "1fba16dd-e4a4-4b0d-b02a-8a4c7d4b2a03"},
		{Kind: KindSecurityGroup, ID: "sg-1"},
		{Kind: KindSecurityGroup, ID: "sg-2"},
	}, refs)
}

func TestExtractVM(t *testing.T) {
	out := table(
		[2]string{"image", "cirros-0.6 (img-42)"},
		[2]string{"flavor", "m1.small (fl-7)"},
	)
	refs := Extract(KindVM, out)
	assert.Equal(t, []Ref{
		{Kind: KindImage, ID: "img-42"},
		{Kind: KindFlavor, ID: "fl-7"},
	}, refs)
}

func TestExtractVMDictFlavor(t *testing.T) {
	out := table(
		[2]string{"flavor", "{'id': 'fl-9', 'vcpus': 2}"},
	)
	refs := Extract(KindVM, out)
	assert.Equal(t, []Ref{{Kind: KindFlavor, ID: "fl-9"}}, refs)
}

func TestExtractNetworkSubnets(t *testing.T) {
	out := table(
		[2]string{"subnets", "sub-1, sub-2"},
	)
	refs := Extract(KindNetwork, out)
	assert.Equal(t, []Ref{
		{Kind: KindSubnet, ID: "sub-1"},
		{Kind: KindSubnet, ID: "sub-2"},
	}, refs)
}

func TestExtractMissingFieldsYieldNothing(t *testing.T) {
	// A VM with no image (boot-from-volume) and no flavor field: the
	// edges are simply not followed, no error.
	assert.Empty(t, Extract(KindVM, table([2]string{"id", "vm-1"})))
	assert.Empty(t, Extract(KindPort, "not a table at all"))
	assert.Empty(t, Extract(KindNetwork, ""))
}

func TestExtractTerminalKinds(t *testing.T) {
	for _, k := range []Kind{KindVolume, KindSubnet, KindImage, KindFlavor, KindSecurityGroup, KindStack, KindUser} {
		assert.Empty(t, Extract(k, portShowOutput), string(k))
	}
}

func TestSplitIDs(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"sg-1, sg-2", []string{"sg-1", "sg-2"}},
		{"['sg-1', 'sg-2']", []string{"sg-1", "sg-2"}},
		{"sub-1", []string{"sub-1"}},
		{"", nil},
		{"None", nil},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, splitIDs(tc.input), tc.input)
	}
}

func TestFieldValueIgnoresMalformedRows(t *testing.T) {
	out := "| onlyonecol |\nplain text\n| network_id | net-1 |"
	assert.Equal(t, "net-1", fieldValue(out, "network_id"))
	assert.Equal(t, "", fieldValue(out, "missing"))
}
