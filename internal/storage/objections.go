// Package storage persists accepted objections as an append-only archive.
package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"simtax-adapter/internal/model"
	"simtax-adapter/internal/simtax"
)

// ArchivedObjection is one line of the objection archive.
type ArchivedObjection struct {
	ID        string           `json:"id"`
	SchemaRef string           `json:"schemaRef"`
	CreatedAt string           `json:"createdAt"`
	Objection *model.Objection `json:"objection"`
}

// ObjectionStore writes objections to one JSONL file per day under
// <dataDir>/objections.
type ObjectionStore struct {
	dir   string
	now   func() time.Time
	newID func() string
	mu    sync.Mutex
}

func NewObjectionStore(dataDir string) *ObjectionStore {
	return &ObjectionStore{
		dir:   ObjectionDir(dataDir),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// ObjectionDir is where the archive for dataDir lives.
func ObjectionDir(dataDir string) string {
	return filepath.Join(dataDir, "objections")
}

// Create validates record and appends it. Validation failures come back in
// CreateResult.Errors with nothing written.
func (s *ObjectionStore) Create(_ context.Context, schemaRef string, record *model.Objection) (simtax.CreateResult, error) {
	if errs := validateAttachments(record.Attachments); len(errs) > 0 {
		return simtax.CreateResult{Errors: errs}, nil
	}

	now := s.now().UTC()
	// google/uuid: random v4 ids, the archive has no sequence of its own.
	entry := ArchivedObjection{
		ID:        s.newID(),
		SchemaRef: schemaRef,
		CreatedAt: now.Format(time.RFC3339Nano),
		Objection: record,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return simtax.CreateResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return simtax.CreateResult{}, err
	}
	fpath := filepath.Join(s.dir, fmt.Sprintf("objections_%s.jsonl", now.Format("2006-01-02")))
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return simtax.CreateResult{}, err
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return simtax.CreateResult{}, err
	}
	return simtax.CreateResult{ID: entry.ID}, nil
}

func validateAttachments(attachments []model.Attachment) map[string]any {
	errs := map[string]any{}
	for i, a := range attachments {
		field := fmt.Sprintf("attachments[%d]", i)
		if a.FileName == "" {
			errs[field+".fileName"] = "is required"
		}
		if _, err := base64.StdEncoding.DecodeString(a.FileContent); err != nil {
			errs[field+".fileContent"] = "is not valid base64"
		}
	}
	return errs
}
