package simtax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simtax-adapter/internal/model"
	"simtax-adapter/internal/msgtree"
)

func els(pairs ...string) []ExtraElement {
	out := make([]ExtraElement, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, ExtraElement{Name: pairs[i], Value: pairs[i+1]})
	}
	return out
}

func TestGrievanceGroupsStartNewGroupOnRepeatedField(t *testing.T) {
	b := newGrievanceGroups()

	b.Feed("codeGriefSoort", "A")
	b.Feed("toelichtingGrief", "te hoog")
	b.Feed("codeGriefSoort", "B")
	b.Feed("keuzeOmschrijvingGrief", "waarde")
	b.Feed("keuzeOmschrijvingGrief", "oppervlakte")

	assert.Equal(t, []map[string]string{
		{"codeGriefSoort": "A", "toelichtingGrief": "te hoog"},
		{"codeGriefSoort": "B", "keuzeOmschrijvingGrief": "waarde"},
		{"keuzeOmschrijvingGrief": "oppervlakte"},
	}, b.Groups())
}

func TestGroupBuilderInterface(t *testing.T) {
	var b GroupBuilder = newGrievanceGroups()
	b.Feed("codeGriefSoort", "A")
	assert.Len(t, b.(*grievanceGroups).Groups(), 1)
}

func TestGroupExtraElementsPositionalOwners(t *testing.T) {
	got := GroupExtraElements(els(
		"kenmerkNummerBesluit", "123456-2",
		"kenmerkVolgNummerBesluit", "2",
		"belastingplichtnummer", "42",
		"beschikkingSleutel", "BS-1",
		"codeGriefSoort", "WOZ",
		"keuzeOmschrijvingGrief", "Waarde te hoog",
		"toelichtingGrief", "Buurpand is goedkoper",
		"codeGriefSoort", "AFVAL",
		"toelichtingGrief", "Ik woon alleen",
		"onbekendVeld", "genegeerd",
	))

	require.NotNil(t, got.AssessmentNumber)
	assert.Equal(t, "123456", *got.AssessmentNumber, "sequence suffix is stripped")
	require.NotNil(t, got.AssessmentSequenceNumber)
	assert.Equal(t, "2", *got.AssessmentSequenceNumber)

	assert.Equal(t, []model.AssessmentLineObjection{{
		TaxpayerNumber: "0000000000042",
		Grievances:     []model.Grievance{{Kind: "WOZ", Explanation: "Waarde te hoog - Buurpand is goedkoper"}},
	}}, got.AssessmentLines)
	assert.Equal(t, []model.DecisionLineObjection{{
		DecisionLineKey: "BS-1",
		Grievances:      []model.Grievance{{Kind: "AFVAL", Explanation: "Ik woon alleen"}},
	}}, got.DecisionLines)
	assert.Empty(t, got.Dropped)
}

func TestGroupExtraElementsFirstSeenWins(t *testing.T) {
	got := GroupExtraElements(els(
		"kenmerkNummerBesluit", "111",
		"kenmerkNummerBesluit", "222",
		"kenmerkVolgNummerBesluit", "1",
		"kenmerkVolgNummerBesluit", "9",
	))

	assert.Equal(t, "111", *got.AssessmentNumber)
	assert.Equal(t, "1", *got.AssessmentSequenceNumber)
}

func TestGroupExtraElementsRoundTrip(t *testing.T) {
	elements := els(
		"belastingplichtnummer", "1",
		"belastingplichtnummer", "2",
		"beschikkingSleutel", "D1",
		"beschikkingSleutel", "D2",
		"beschikkingSleutel", "D3",
	)
	for _, kind := range []string{"G1", "G2", "G3", "G4", "G5"} {
		elements = append(elements, ExtraElement{Name: "codeGriefSoort", Value: kind})
	}

	got := GroupExtraElements(elements)

	require.Len(t, got.AssessmentLines, 2)
	require.Len(t, got.DecisionLines, 3)
	assert.Equal(t, "0000000000001", got.AssessmentLines[0].TaxpayerNumber)
	assert.Equal(t, "G1", got.AssessmentLines[0].Grievances[0].Kind)
	assert.Equal(t, "0000000000002", got.AssessmentLines[1].TaxpayerNumber)
	assert.Equal(t, "G2", got.AssessmentLines[1].Grievances[0].Kind)
	for i, key := range []string{"D1", "D2", "D3"} {
		assert.Equal(t, key, got.DecisionLines[i].DecisionLineKey)
		require.Len(t, got.DecisionLines[i].Grievances, 1)
	}
	assert.Equal(t, "G5", got.DecisionLines[2].Grievances[0].Kind)
}

func TestGroupExtraElementsAccumulatesRepeatedOwners(t *testing.T) {
	got := GroupExtraElements(els(
		"belastingplichtnummer", "77",
		"codeGriefSoort", "A",
		"belastingplichtnummer", "0000000000077",
		"codeGriefSoort", "B",
	))

	require.Len(t, got.AssessmentLines, 1)
	assert.Equal(t, "0000000000077", got.AssessmentLines[0].TaxpayerNumber)
	assert.Equal(t, []model.Grievance{{Kind: "A"}, {Kind: "B"}}, got.AssessmentLines[0].Grievances)
}

func TestGroupExtraElementsInterleavedOwnersStayPositional(t *testing.T) {
	// Owner declarations do not open a scope; the n-th grievance goes to the
	// n-th owner regardless of where the owner appeared in the list. See
	// DESIGN.md §4 on positional ownership.
	got := GroupExtraElements(els(
		"kenmerkNummerBesluit", "X",
		"belastingplichtnummer", "P1",
		"codeGriefSoort", "A",
		"codeGriefSoort", "B",
		"belastingplichtnummer", "P2",
		"codeGriefSoort", "C",
	))

	require.Len(t, got.AssessmentLines, 2)
	assert.Equal(t, PadTaxpayerNumber("P1"), got.AssessmentLines[0].TaxpayerNumber)
	assert.Equal(t, []model.Grievance{{Kind: "A"}}, got.AssessmentLines[0].Grievances)
	assert.Equal(t, PadTaxpayerNumber("P2"), got.AssessmentLines[1].TaxpayerNumber)
	assert.Equal(t, []model.Grievance{{Kind: "B"}}, got.AssessmentLines[1].Grievances)
	require.Len(t, got.Dropped, 1)
	assert.Equal(t, 2, got.Dropped[0].Index)
	assert.Equal(t, "X", *got.AssessmentNumber)
}

func TestGroupExtraElementsDropsGroupsWithoutKind(t *testing.T) {
	got := GroupExtraElements(els(
		"belastingplichtnummer", "1",
		"belastingplichtnummer", "2",
		"toelichtingGrief", "zonder soort",
		"toelichtingGrief", "tweede zonder soort",
		"codeGriefSoort", "A",
	))

	// Groups: {toelichting}, {toelichting, code A}. The first has no kind.
	require.Len(t, got.Dropped, 1)
	assert.Equal(t, 0, got.Dropped[0].Index)
	require.Len(t, got.AssessmentLines, 1)
	assert.Equal(t, "0000000000001", got.AssessmentLines[0].TaxpayerNumber)
	assert.Equal(t, model.Grievance{Kind: "A", Explanation: "tweede zonder soort"}, got.AssessmentLines[0].Grievances[0])
}

func TestGroupExtraElementsEmpty(t *testing.T) {
	got := GroupExtraElements(nil)

	assert.Nil(t, got.AssessmentNumber)
	assert.Nil(t, got.AssessmentSequenceNumber)
	assert.Empty(t, got.AssessmentLines)
	assert.Empty(t, got.DecisionLines)
	assert.Empty(t, got.Dropped)
}

func TestGroupExtraElementsIsDeterministic(t *testing.T) {
	input := els(
		"belastingplichtnummer", "5",
		"beschikkingSleutel", "K",
		"beschikkingSleutel", "K",
		"codeGriefSoort", "A",
		"codeGriefSoort", "B",
		"codeGriefSoort", "C",
	)
	first := GroupExtraElements(input)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, GroupExtraElements(input))
	}
	require.Len(t, first.DecisionLines, 1)
	assert.Len(t, first.DecisionLines[0].Grievances, 2)
}

func TestPadTaxpayerNumber(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"1", "0000000000001"},
		{"123456789", "0000123456789"},
		{"1234567890123", "1234567890123"},
		{"12345678901234", "12345678901234"},
		{"", "0000000000000"},
	}
	for _, tt := range tests {
		got := PadTaxpayerNumber(tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, got, PadTaxpayerNumber(got), "padding is idempotent")
	}
}

func TestJoinExplanation(t *testing.T) {
	assert.Equal(t, "a - b", joinExplanation("a", "b"))
	assert.Equal(t, "a", joinExplanation("a", ""))
	assert.Equal(t, "b", joinExplanation("", "b"))
	assert.Equal(t, "", joinExplanation("", ""))
}

func TestExtraElementsReadsNamedEntries(t *testing.T) {
	tree := msgtree.Tree{
		"ns1:extraElementen": map[string]any{
			"ns1:extraElement": []any{
				map[string]any{"@naam": "codeGriefSoort", "#": "WOZ"},
				"zonder naam",
				map[string]any{"@naam": "toelichtingGrief"},
				map[string]any{"@naam": "belastingplichtnummer", "#": " 42 "},
			},
		},
	}

	assert.Equal(t, []ExtraElement{
		{Name: "codeGriefSoort", Value: "WOZ"},
		{Name: "toelichtingGrief", Value: ""},
		{Name: "belastingplichtnummer", Value: "42"},
	}, ExtraElements(tree, pathExtraElements))
}
