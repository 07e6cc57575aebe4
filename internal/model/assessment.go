package model

// Assessment is a tax assessment (aanslagbiljet) as held in the read model.
type Assessment struct {
	ID                string           `json:"id"`
	CitizenID         string           `json:"citizenId"`
	AssessmentNumber  string           `json:"assessmentNumber"`
	SequenceNumber    string           `json:"assessmentSequenceNumber"`
	TaxYear           string           `json:"taxYear"`
	AssessmentDate    string           `json:"assessmentDate,omitempty"`
	DueDate           string           `json:"dueDate,omitempty"`
	TotalAmount       string           `json:"totalAmount,omitempty"`
	ObjectionPossible bool             `json:"objectionPossible"`
	Lines             []AssessmentLine `json:"lines,omitempty"`
}

// AssessmentLine is one levy on an assessment.
type AssessmentLine struct {
	TaxpayerNumber    string `json:"taxpayerNumber"`
	TaxType           string `json:"taxType,omitempty"`
	Description       string `json:"description,omitempty"`
	Amount            string `json:"amount,omitempty"`
	ObjectionPossible bool   `json:"objectionPossible"`
}

// CompositeKey identifies an assessment across systems as "<number>-<sequence>".
func CompositeKey(number, sequence string) string {
	return number + "-" + sequence
}

// AssessmentFilter narrows an assessment search.
// Years is an ordered set of four-digit years.
type AssessmentFilter struct {
	CitizenID        string   `json:"citizenId,omitempty"`
	AssessmentNumber string   `json:"assessmentNumber,omitempty"`
	SequenceNumber   string   `json:"assessmentSequenceNumber,omitempty"`
	Years            []string `json:"taxYears,omitempty"`
}

// AsMap renders the filter the way it is echoed back in diagnostics.
func (f AssessmentFilter) AsMap() map[string]any {
	m := map[string]any{}
	if f.CitizenID != "" {
		m["citizenId"] = f.CitizenID
	}
	if f.AssessmentNumber != "" {
		m["assessmentNumber"] = f.AssessmentNumber
	}
	if f.SequenceNumber != "" {
		m["assessmentSequenceNumber"] = f.SequenceNumber
	}
	if len(f.Years) > 0 {
		m["taxYears"] = append([]string(nil), f.Years...)
	}
	return m
}

// SearchResult is what a Search collaborator returns.
type SearchResult struct {
	Count   int          `json:"count"`
	Results []Assessment `json:"results"`
}
