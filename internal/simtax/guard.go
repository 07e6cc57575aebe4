package simtax

import (
	"context"
	"fmt"
	"net/http"

	"simtax-adapter/internal/apperr"
	"simtax-adapter/internal/model"
)

// Guard enforces one objection per assessment composite key.
type Guard struct {
	links     SyncLookup
	sourceRef string
	schemaRef string
}

// NewGuard returns a guard over the objection links of sourceRef/schemaRef.
func NewGuard(links SyncLookup, sourceRef, schemaRef string) *Guard {
	return &Guard{links: links, sourceRef: sourceRef, schemaRef: schemaRef}
}

// Acquire checks that no objection is linked to the assessment yet and
// claims the key. The caller must Commit after persisting or Release on
// failure.
func (g *Guard) Acquire(ctx context.Context, number, sequence string) (string, error) {
	key := model.CompositeKey(number, sequence)

	linked, found, err := g.links.FindByCompositeKey(ctx, g.sourceRef, g.schemaRef, key)
	if err != nil {
		return "", apperr.Wrap(apperr.CodeInternal, http.StatusInternalServerError, "objection lookup failed", err)
	}
	if found {
		return "", duplicate(number, sequence).WithDetails(map[string]any{"linkedObjectId": linked})
	}

	// A second submission racing past the lookup loses here.
	claimed, err := g.links.Claim(ctx, g.sourceRef, g.schemaRef, key)
	if err != nil {
		return "", apperr.Wrap(apperr.CodeInternal, http.StatusInternalServerError, "objection claim failed", err)
	}
	if !claimed {
		return "", duplicate(number, sequence)
	}
	return key, nil
}

// Commit links the persisted objection to the claimed key.
func (g *Guard) Commit(ctx context.Context, key, objectID string) error {
	return g.links.Link(ctx, g.sourceRef, g.schemaRef, key, objectID)
}

// Release gives up a claim whose objection was never persisted.
func (g *Guard) Release(ctx context.Context, key string) error {
	return g.links.Release(ctx, g.sourceRef, g.schemaRef, key)
}

func duplicate(number, sequence string) *apperr.Error {
	return apperr.BadRequest(apperr.CodeDuplicateObjection,
		fmt.Sprintf("an objection for assessment %s with sequence number %s already exists", number, sequence))
}
