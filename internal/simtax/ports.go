package simtax

import (
	"context"

	"simtax-adapter/internal/model"
	"simtax-adapter/internal/schemagate"
)

// Searcher runs an assessment search against the object store.
type Searcher interface {
	Search(ctx context.Context, ownerID string, filter model.AssessmentFilter, schemaRefs []string) (model.SearchResult, error)
}

// SingleLookup hydrates one assessment by id.
type SingleLookup interface {
	GetByID(ctx context.Context, id string) (*model.Assessment, error)
}

// SyncTrigger asks the third-party tax system to refresh a citizen's
// assessments before they are searched.
type SyncTrigger interface {
	FetchAndSync(ctx context.Context, citizenID string) error
}

// SyncLookup records which local object an upstream key is linked to.
// Claim is an atomic set-if-absent so two identical submissions cannot both
// pass the uniqueness check.
type SyncLookup interface {
	FindByCompositeKey(ctx context.Context, sourceRef, schemaRef, key string) (linkedObjectID string, found bool, err error)
	Claim(ctx context.Context, sourceRef, schemaRef, key string) (bool, error)
	Link(ctx context.Context, sourceRef, schemaRef, key, objectID string) error
	Release(ctx context.Context, sourceRef, schemaRef, key string) error
}

// CreateResult is what a Persister returns. Errors holds validation
// failures reported by the store.
type CreateResult struct {
	ID     string
	Errors map[string]any
}

// Persister hands a finished objection to the object store.
type Persister interface {
	Create(ctx context.Context, schemaRef string, record *model.Objection) (CreateResult, error)
}

// Notifier publishes a domain event. A returned payload carrying an "Error"
// key reports a downstream failure.
type Notifier interface {
	Publish(ctx context.Context, eventType string, payload map[string]any) (map[string]any, error)
}

// RejectionRecorder keeps a durable trail of rejected messages and dropped
// grievance groups.
type RejectionRecorder interface {
	Record(ctx context.Context, reference string, rejection schemagate.Rejection) error
}
