// Package simtax translates StUF tax messages into assessment searches and
// objection records.
package simtax

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"simtax-adapter/internal/apperr"
	"simtax-adapter/internal/logger"
	"simtax-adapter/internal/metrics"
	"simtax-adapter/internal/model"
	"simtax-adapter/internal/msgtree"
	"simtax-adapter/internal/schemagate"
)

// Config holds the object store references the service works against.
type Config struct {
	SourceRef        string
	AssessmentSchema string
	ObjectionSchema  string
	// SyncRequired fails list requests when the assessment sync fails.
	SyncRequired bool
	Now          func() time.Time
}

// Deps are the collaborators a Service calls. Lookup, Sync and Rejections
// are optional.
type Deps struct {
	Search     Searcher
	Lookup     SingleLookup
	Sync       SyncTrigger
	Links      SyncLookup
	Store      Persister
	Events     Notifier
	Rejections RejectionRecorder
	Logger     *logger.Logger
	Metrics    *metrics.Metrics
}

// Service handles decoded StUF messages.
type Service struct {
	cfg        Config
	search     Searcher
	lookup     SingleLookup
	sync       SyncTrigger
	guard      *Guard
	store      Persister
	events     Notifier
	rejections RejectionRecorder
	log        *logger.Logger
	metrics    *metrics.Metrics
}

// Result is the outcome of one message, ready for envelope encoding.
type Result struct {
	Content    map[string]any
	StatusCode int
	Operation  OperationKind
	Reference  string
}

func NewService(cfg Config, deps Deps) *Service {
	return &Service{
		cfg:        cfg,
		search:     deps.Search,
		lookup:     deps.Lookup,
		sync:       deps.Sync,
		guard:      NewGuard(deps.Links, cfg.SourceRef, cfg.ObjectionSchema),
		store:      deps.Store,
		events:     deps.Events,
		rejections: deps.Rejections,
		log:        logger.OrDiscard(deps.Logger),
		metrics:    deps.Metrics,
	}
}

func (s *Service) now() time.Time {
	if s.cfg.Now != nil {
		return s.cfg.Now()
	}
	return time.Now()
}

// Handle classifies a decoded message and runs its operation. Failures are
// returned as error content with the matching status; Handle never panics on
// malformed input.
func (s *Service) Handle(ctx context.Context, tree msgtree.Tree) Result {
	start := time.Now()

	res := Result{Operation: Unrecognized}
	msg, err := Locate(tree)
	if err == nil {
		res.Operation = msg.Operation
		res.Reference = msg.Header.Referentienummer
		res.Content, err = s.dispatch(ctx, msg)
	}

	if err != nil {
		s.fail(ctx, &res, err)
	} else {
		res.StatusCode = http.StatusOK
	}
	s.metrics.ObserveMessage(res.Operation.String(), res.StatusCode, time.Since(start))
	return res
}

func (s *Service) dispatch(ctx context.Context, msg *Message) (map[string]any, error) {
	log := s.log.WithRequestID(msg.Header.Referentienummer)
	log.Debug("message received",
		"berichtsoort", msg.Header.Berichtsoort,
		"entiteittype", msg.Header.Entiteittype,
		"operation", msg.Operation.String(),
	)

	switch msg.Operation {
	case ListAssessments:
		return s.listAssessments(ctx, msg)
	case GetAssessment:
		return s.getAssessment(ctx, msg)
	case CreateObjection:
		return s.createObjection(ctx, msg)
	default:
		return nil, apperr.BadRequest(apperr.CodeUnrecognized,
			"unknown berichtsoort & entiteittype combination "+msg.Header.Berichtsoort+"-"+msg.Header.Entiteittype)
	}
}

func (s *Service) fail(ctx context.Context, res *Result, err error) {
	e := apperr.From(err)
	res.StatusCode = e.Status
	res.Content = errorContent(e)

	log := s.log.WithRequestID(res.Reference)
	if e.Status >= http.StatusInternalServerError {
		log.Error("message failed", "operation", res.Operation.String(), "code", e.Code, "status", e.Status, "error", err)
	} else {
		log.Warn("message rejected", "operation", res.Operation.String(), "code", e.Code, "status", e.Status, "error", e.Message)
	}
	s.recordRejection(ctx, res.Reference, schemagate.FromError("message:"+res.Operation.String(), err))
}

func (s *Service) recordRejection(ctx context.Context, reference string, rej schemagate.Rejection) {
	if s.rejections == nil {
		return
	}
	if err := s.rejections.Record(ctx, reference, rej); err != nil {
		s.log.Error("failed to record rejection", "reference", reference, "scope", rej.Scope, "error", err)
	}
}

func (s *Service) createObjection(ctx context.Context, msg *Message) (map[string]any, error) {
	log := s.log.WithRequestID(msg.Header.Referentienummer)

	record, grouping, err := MapObjection(msg)
	s.reportDropped(ctx, msg.Header.Referentienummer, grouping.Dropped)
	if err != nil {
		return nil, err
	}

	key, err := s.guard.Acquire(ctx, *record.AssessmentNumber, *record.AssessmentSequenceNumber)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeDuplicateObjection) {
			s.metrics.IncrementDuplicates()
		}
		return nil, err
	}

	created, err := s.store.Create(ctx, s.cfg.ObjectionSchema, record)
	if err == nil && len(created.Errors) > 0 {
		err = apperr.BadRequest(apperr.CodeRejected, "objection rejected by the object store").
			WithDetails(map[string]any{"errors": created.Errors})
	}
	if err != nil {
		if relErr := s.guard.Release(ctx, key); relErr != nil {
			log.Error("failed to release objection claim", "key", key, "error", relErr)
		}
		if apperr.HasCode(err, apperr.CodeRejected) {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.CodeInternal, http.StatusInternalServerError, "failed to persist objection", err)
	}

	// The claim stays in place when linking fails, so duplicates are still refused.
	if err := s.guard.Commit(ctx, key, created.ID); err != nil {
		log.Error("failed to link objection", "key", key, "objection_id", created.ID, "error", err)
	}

	payload, err := toPayload(model.ObjectionCreated{
		ObjectionID:  created.ID,
		CompositeKey: key,
		Reference:    msg.Header.Referentienummer,
		Objection:    record,
		Timestamp:    s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, http.StatusInternalServerError, "failed to encode objection event", err)
	}
	reply, err := s.events.Publish(ctx, model.EventObjectionCreated, payload)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeDownstream, http.StatusInternalServerError, err.Error(), err)
	}
	if downstream, failed := reply["Error"]; failed {
		msgText, ok := msgtree.Text(downstream)
		if !ok {
			msgText = "downstream error"
		}
		return nil, apperr.Internal(apperr.CodeDownstream, msgText).WithDetails(reply)
	}

	log.Info("objection created", "objection_id", created.ID, "assessment", key,
		"assessment_lines", len(record.AssessmentLineObjections),
		"decision_lines", len(record.DecisionLineObjections),
	)
	return ackContent(msg.Header), nil
}

func (s *Service) reportDropped(ctx context.Context, reference string, dropped []DroppedGroup) {
	if len(dropped) == 0 {
		return
	}
	s.metrics.AddGroupsDropped(len(dropped))
	for _, d := range dropped {
		s.log.WithRequestID(reference).Warn("grievance group dropped", "index", d.Index, "reason", d.Reason)
		s.recordRejection(ctx, reference, schemagate.Rejection{
			Scope:  "grievance:" + strconv.Itoa(d.Index),
			Reason: d.Reason,
		})
	}
}

// toPayload flattens an event struct into the map a Notifier publishes.
func toPayload(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
