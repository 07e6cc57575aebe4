package simtax

import (
	"strconv"
	"strings"

	"simtax-adapter/internal/model"
	"simtax-adapter/internal/msgtree"
)

// Extra element names carried by a Lk01-BGB notification.
const (
	extraAssessmentNumber   = "kenmerkNummerBesluit"
	extraAssessmentSequence = "kenmerkVolgNummerBesluit"
	extraTaxpayerNumber     = "belastingplichtnummer"
	extraDecisionKey        = "beschikkingSleutel"
	extraGrievanceKind      = "codeGriefSoort"
	extraGrievanceText      = "toelichtingGrief"
	extraGrievanceChoice    = "keuzeOmschrijvingGrief"
)

const (
	taxpayerNumberWidth  = 13
	explanationSeparator = " - "
)

// ExtraElement is one flat name/value pair. Order is significant.
type ExtraElement struct {
	Name  string
	Value string
}

// ExtraElements reads the extra element sequence at path. Entries without a
// name attribute cannot be routed and are skipped.
func ExtraElements(tree msgtree.Tree, path string) []ExtraElement {
	var out []ExtraElement
	for _, raw := range tree.List(path) {
		el, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		node := msgtree.Tree(el)
		name, ok := node.String(attrExtraName)
		if !ok {
			continue
		}
		value, _ := msgtree.Text(el)
		out = append(out, ExtraElement{Name: name, Value: value})
	}
	return out
}

// GroupBuilder accumulates grievance fields into groups. The flat element
// list has no group delimiters: a field that is already set on the open group
// starts the next group.
type GroupBuilder interface {
	Feed(field, value string)
}

// grievanceGroups is the GroupBuilder used by the grouping engine.
type grievanceGroups struct {
	groups []map[string]string
}

func newGrievanceGroups() *grievanceGroups {
	return &grievanceGroups{groups: []map[string]string{{}}}
}

func (g *grievanceGroups) Feed(field, value string) {
	open := g.groups[len(g.groups)-1]
	if _, set := open[field]; set {
		g.groups = append(g.groups, map[string]string{field: value})
		return
	}
	open[field] = value
}

// Groups returns the groups in feed order, including a trailing empty one.
func (g *grievanceGroups) Groups() []map[string]string {
	return g.groups
}

// DroppedGroup describes a grievance group the engine discarded.
type DroppedGroup struct {
	Index  int
	Reason string
}

// Grouping is the output of GroupExtraElements.
type Grouping struct {
	// AssessmentNumber and AssessmentSequenceNumber are nil when the element
	// list never named them.
	AssessmentNumber         *string
	AssessmentSequenceNumber *string
	AssessmentLines          []model.AssessmentLineObjection
	DecisionLines            []model.DecisionLineObjection
	Dropped                  []DroppedGroup
}

// GroupExtraElements rebuilds grievances from the flat extra element list in
// one pass and assigns them to owners by position: the first
// len(taxpayerNumbers) grievances belong to assessment lines, the next
// len(decisionKeys) to decision lines, anything after that has no owner.
func GroupExtraElements(elements []ExtraElement) Grouping {
	var (
		out             Grouping
		taxpayerNumbers []string
		decisionKeys    []string
		builder         = newGrievanceGroups()
	)

	for _, el := range elements {
		switch el.Name {
		case extraAssessmentNumber:
			if out.AssessmentNumber == nil {
				out.AssessmentNumber = stringPtr(el.Value)
			}
		case extraAssessmentSequence:
			if out.AssessmentSequenceNumber == nil {
				out.AssessmentSequenceNumber = stringPtr(el.Value)
			}
		case extraTaxpayerNumber:
			taxpayerNumbers = append(taxpayerNumbers, el.Value)
		case extraDecisionKey:
			decisionKeys = append(decisionKeys, el.Value)
		case extraGrievanceKind, extraGrievanceText, extraGrievanceChoice:
			builder.Feed(el.Name, el.Value)
		}
	}

	var grievances []model.Grievance
	for i, group := range builder.Groups() {
		kind, ok := group[extraGrievanceKind]
		if !ok {
			// The initial group stays empty when no grievance field was sent.
			if len(group) > 0 {
				out.Dropped = append(out.Dropped, DroppedGroup{Index: i, Reason: "grievance group has no " + extraGrievanceKind})
			}
			continue
		}
		grievances = append(grievances, model.Grievance{
			Kind:        kind,
			Explanation: joinExplanation(group[extraGrievanceChoice], group[extraGrievanceText]),
		})
	}

	assessmentIdx := map[string]int{}
	decisionIdx := map[string]int{}
	for i, grievance := range grievances {
		switch {
		case i < len(taxpayerNumbers):
			key := PadTaxpayerNumber(taxpayerNumbers[i])
			if at, ok := assessmentIdx[key]; ok {
				out.AssessmentLines[at].Grievances = append(out.AssessmentLines[at].Grievances, grievance)
				continue
			}
			assessmentIdx[key] = len(out.AssessmentLines)
			out.AssessmentLines = append(out.AssessmentLines, model.AssessmentLineObjection{
				TaxpayerNumber: key,
				Grievances:     []model.Grievance{grievance},
			})
		case i < len(taxpayerNumbers)+len(decisionKeys):
			key := decisionKeys[i-len(taxpayerNumbers)]
			if at, ok := decisionIdx[key]; ok {
				out.DecisionLines[at].Grievances = append(out.DecisionLines[at].Grievances, grievance)
				continue
			}
			decisionIdx[key] = len(out.DecisionLines)
			out.DecisionLines = append(out.DecisionLines, model.DecisionLineObjection{
				DecisionLineKey: key,
				Grievances:      []model.Grievance{grievance},
			})
		default:
			out.Dropped = append(out.Dropped, DroppedGroup{
				Index:  i,
				Reason: "grievance " + strconv.Itoa(i) + " (" + grievance.Kind + ") has no assessment line or decision line",
			})
		}
	}

	if out.AssessmentNumber != nil {
		number, _, _ := strings.Cut(*out.AssessmentNumber, "-")
		out.AssessmentNumber = &number
	}
	return out
}

// PadTaxpayerNumber left-pads a taxpayer number with zeros to 13 digits.
// Longer values are returned unchanged.
func PadTaxpayerNumber(n string) string {
	if len(n) >= taxpayerNumberWidth {
		return n
	}
	return strings.Repeat("0", taxpayerNumberWidth-len(n)) + n
}

func joinExplanation(choice, text string) string {
	switch {
	case choice != "" && text != "":
		return choice + explanationSeparator + text
	case choice != "":
		return choice
	default:
		return text
	}
}

func stringPtr(s string) *string {
	return &s
}
