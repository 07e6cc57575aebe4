package simtax

import (
	"context"
	"sync"
	"time"

	"simtax-adapter/internal/model"
	"simtax-adapter/internal/schemagate"
)

var fixedNow = time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)

type fakeSearcher struct {
	result  model.SearchResult
	err     error
	filters []model.AssessmentFilter
	schemas [][]string
}

func (f *fakeSearcher) Search(_ context.Context, _ string, filter model.AssessmentFilter, schemaRefs []string) (model.SearchResult, error) {
	f.filters = append(f.filters, filter)
	f.schemas = append(f.schemas, schemaRefs)
	return f.result, f.err
}

type fakeLookup struct {
	byID map[string]*model.Assessment
	ids  []string
}

func (f *fakeLookup) GetByID(_ context.Context, id string) (*model.Assessment, error) {
	f.ids = append(f.ids, id)
	return f.byID[id], nil
}

type fakeSync struct {
	err      error
	citizens []string
}

func (f *fakeSync) FetchAndSync(_ context.Context, citizenID string) error {
	f.citizens = append(f.citizens, citizenID)
	return f.err
}

type fakeLinks struct {
	mu      sync.Mutex
	linked  map[string]string
	claimed map[string]bool
	err     error
}

func newFakeLinks() *fakeLinks {
	return &fakeLinks{linked: map[string]string{}, claimed: map[string]bool{}}
}

func (f *fakeLinks) FindByCompositeKey(_ context.Context, _, _, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", false, f.err
	}
	id, ok := f.linked[key]
	return id, ok, nil
}

func (f *fakeLinks) Claim(_ context.Context, _, _, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claimed[key] {
		return false, nil
	}
	f.claimed[key] = true
	return true, nil
}

func (f *fakeLinks) Link(_ context.Context, _, _, key, objectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.linked[key] = objectID
	return nil
}

func (f *fakeLinks) Release(_ context.Context, _, _, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.claimed, key)
	return nil
}

type fakeStore struct {
	mu      sync.Mutex
	result  CreateResult
	err     error
	records []*model.Objection
}

func (f *fakeStore) Create(_ context.Context, _ string, record *model.Objection) (CreateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
	return f.result, f.err
}

type fakeNotifier struct {
	mu       sync.Mutex
	reply    map[string]any
	err      error
	events   []string
	payloads []map[string]any
}

func (f *fakeNotifier) Publish(_ context.Context, eventType string, payload map[string]any) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, eventType)
	f.payloads = append(f.payloads, payload)
	return f.reply, f.err
}

type fakeRejections struct {
	mu      sync.Mutex
	entries []schemagate.Rejection
	refs    []string
}

func (f *fakeRejections) Record(_ context.Context, reference string, rejection schemagate.Rejection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refs = append(f.refs, reference)
	f.entries = append(f.entries, rejection)
	return nil
}

type harness struct {
	search     *fakeSearcher
	lookup     *fakeLookup
	sync       *fakeSync
	links      *fakeLinks
	store      *fakeStore
	events     *fakeNotifier
	rejections *fakeRejections
}

func newHarness() *harness {
	return &harness{
		search:     &fakeSearcher{},
		lookup:     &fakeLookup{byID: map[string]*model.Assessment{}},
		sync:       &fakeSync{},
		links:      newFakeLinks(),
		store:      &fakeStore{result: CreateResult{ID: "obj-1"}},
		events:     &fakeNotifier{},
		rejections: &fakeRejections{},
	}
}

func (h *harness) service(mod ...func(*Config)) *Service {
	cfg := Config{
		SourceRef:        "simtax",
		AssessmentSchema: "https://openbelasting.nl/schemas/openblasting.aanslagbiljet.schema.json",
		ObjectionSchema:  "https://openbelasting.nl/schemas/openblasting.bezwaaraanvraag.schema.json",
		Now:              func() time.Time { return fixedNow },
	}
	for _, m := range mod {
		m(&cfg)
	}
	return NewService(cfg, Deps{
		Search:     h.search,
		Lookup:     h.lookup,
		Sync:       h.sync,
		Links:      h.links,
		Store:      h.store,
		Events:     h.events,
		Rejections: h.rejections,
	})
}
