// Package jsonl reads the objection archive back for operators.
package jsonl

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/goccy/go-json"

	"simtax-adapter/internal/storage"
)

// maxLine bounds one archived objection, attachments included.
const maxLine = 16 << 20

// QueryService provides querying capabilities for the objection JSONL files.
type QueryService struct {
	dir string
}

// NewQueryService reads the archive that storage.ObjectionStore writes
// under dataDir.
func NewQueryService(dataDir string) *QueryService {
	return &QueryService{dir: storage.ObjectionDir(dataDir)}
}

// List returns archived objections, newest day first.
func (s *QueryService) List(ctx context.Context, limit, offset int) ([]storage.ArchivedObjection, error) {
	out := []storage.ArchivedObjection{}
	if limit <= 0 {
		return out, nil
	}
	skipped := 0
	err := s.scan(ctx, func(o storage.ArchivedObjection) bool {
		if skipped < offset {
			skipped++
			return true
		}
		out = append(out, o)
		return len(out) < limit
	})
	return out, err
}

// Get finds one archived objection. An unknown id yields nil, nil.
func (s *QueryService) Get(ctx context.Context, id string) (*storage.ArchivedObjection, error) {
	var found *storage.ArchivedObjection
	err := s.scan(ctx, func(o storage.ArchivedObjection) bool {
		if o.ID == id {
			found = &o
			return false
		}
		return true
	})
	return found, err
}

// scan feeds every decodable line to visit until it returns false.
// Lines that do not decode are skipped.
func (s *QueryService) scan(ctx context.Context, visit func(storage.ArchivedObjection) bool) error {
	files, err := filepath.Glob(filepath.Join(s.dir, "objections_*.jsonl"))
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}
	// The date in the file name sorts lexically.
	sort.Sort(sort.Reverse(sort.StringSlice(files)))

	for _, file := range files {
		more, err := scanFile(ctx, file, visit)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

func scanFile(ctx context.Context, file string, visit func(storage.ArchivedObjection) bool) (bool, error) {
	f, err := os.Open(file)
	if err != nil {
		return false, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64<<10), maxLine)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var o storage.ArchivedObjection
		if err := json.Unmarshal(line, &o); err != nil {
			continue
		}
		if !visit(o) {
			return false, nil
		}
	}
	return true, sc.Err()
}
