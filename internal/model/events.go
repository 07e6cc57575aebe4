package model

// Event types published on the objection topic.
const (
	EventObjectionCreated = "simtax.objection.created"
	EventSyncRequested    = "simtax.assessments.sync"
)

// ObjectionCreated is emitted after an objection has been persisted and linked
// to its assessment. The third-party synchronizer consumes it.
type ObjectionCreated struct {
	ObjectionID  string     `json:"objectionId"`
	CompositeKey string     `json:"compositeKey"`
	Reference    string     `json:"referentienummer"`
	Objection    *Objection `json:"objection"`
	Timestamp    string     `json:"timestamp"`
}

// SyncRequested asks the synchronizer to refresh a citizen's assessments.
type SyncRequested struct {
	CitizenID string `json:"citizenId"`
	Timestamp string `json:"timestamp"`
}

// AssessmentsSynced is consumed from the synchronizer and feeds the read model.
type AssessmentsSynced struct {
	CitizenID   string       `json:"citizenId"`
	Assessments []Assessment `json:"assessments"`
	Timestamp   string       `json:"timestamp"`
}
