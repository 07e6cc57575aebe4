package model

// Objection (bezwaar) is the record mapped from a Lk01-BGB notification.
// Pointer fields start nil and must all be set before the record is accepted.
type Objection struct {
	ApplicationNumber        *string                   `json:"applicationNumber" validate:"required"`
	ApplicationDate          *string                   `json:"applicationDate" validate:"required"`
	WantsToBeHeard           bool                      `json:"wantsToBeHeard"`
	Taxpayer                 *Taxpayer                 `json:"taxpayer" validate:"required"`
	AssessmentNumber         *string                   `json:"assessmentNumber" validate:"required"`
	AssessmentSequenceNumber *string                   `json:"assessmentSequenceNumber" validate:"required"`
	Attachments              []Attachment              `json:"attachments"`
	AssessmentLineObjections []AssessmentLineObjection `json:"assessmentLineObjections"`
	DecisionLineObjections   []DecisionLineObjection   `json:"decisionLineObjections"`
}

// NewObjection returns a record with every optional field at its default.
func NewObjection() *Objection {
	return &Objection{
		Attachments:              []Attachment{},
		AssessmentLineObjections: []AssessmentLineObjection{},
		DecisionLineObjections:   []DecisionLineObjection{},
	}
}

// Taxpayer is the person filing the objection.
type Taxpayer struct {
	CitizenID string `json:"citizenId"`
}

// Attachment is a document sent along with the objection.
type Attachment struct {
	FileName    string `json:"fileName"`
	FileType    string `json:"fileType"`
	FileContent string `json:"fileContent"`
}

// AssessmentLineObjection groups grievances about one taxpayer's assessment line.
type AssessmentLineObjection struct {
	TaxpayerNumber string      `json:"taxpayerNumber"`
	Grievances     []Grievance `json:"grievances"`
}

// DecisionLineObjection groups grievances about one decision line.
type DecisionLineObjection struct {
	DecisionLineKey string      `json:"decisionLineKey"`
	Grievances      []Grievance `json:"grievances"`
}

// Grievance is one point of objection.
type Grievance struct {
	Kind        string `json:"kind"`
	Explanation string `json:"explanation"`
}
