package rejections

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"simtax-adapter/internal/schemagate"
)

// Store appends rejections to one JSONL file per day under dir.
type Store struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

// NewStore returns a store writing to <dataDir>/rejections.
func NewStore(dataDir string) *Store {
	return &Store{dir: filepath.Join(dataDir, "rejections"), now: time.Now}
}

// Record appends a rejection tagged with the message referentienummer.
func (s *Store) Record(_ context.Context, reference string, rejection schemagate.Rejection) error {
	now := s.now().UTC()
	record := map[string]any{
		"referentienummer": reference,
		"scope":            rejection.Scope,
		"code":             rejection.Code,
		"reason":           rejection.Reason,
		"timestamp":        now.Format(time.RFC3339Nano),
	}
	if rejection.Status != 0 {
		record["status"] = rejection.Status
	}
	if len(rejection.Detail) > 0 {
		record["detail"] = rejection.Detail
	}

	// goccy/go-json: drop-in encoding/json replacement, faster on map payloads.
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	fpath := filepath.Join(s.dir, fmt.Sprintf("rejections_%s.jsonl", now.Format("2006-01-02")))
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(append(data, '\n'))
	return err
}
