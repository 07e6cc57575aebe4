package simtax

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"simtax-adapter/internal/apperr"
	"simtax-adapter/internal/model"
	"simtax-adapter/internal/msgtree"
)

// yearBounds is what a Lv01-BLJ request says about the tax years it wants.
type yearBounds struct {
	min     string
	max     string
	entries int
}

func (b yearBounds) hasMin() bool {
	_, err := strconv.Atoi(b.min)
	return b.min != "" && err == nil
}

// yearRule is one row of the year filter decision table. The first rule whose
// applies reports true produces the filter years.
type yearRule struct {
	applies func(b yearBounds) bool
	years   func(b yearBounds, current int) []string
}

var yearRules = []yearRule{
	{applies: yearBounds.hasMin, years: rangeYears},
	{applies: func(yearBounds) bool { return true }, years: recentYears},
}

// rangeYears is the inclusive range min..max. A missing max, or a single entry
// whose max repeats its min, runs to the current year. min > max gives an
// empty set, which leaves the search unrestricted by year.
func rangeYears(b yearBounds, current int) []string {
	lo, _ := strconv.Atoi(b.min)
	hi, err := strconv.Atoi(b.max)
	if b.max == "" || err != nil || (b.max == b.min && b.entries == 1) {
		hi = current
	}
	years := []string{}
	for y := lo; y <= hi; y++ {
		years = append(years, strconv.Itoa(y))
	}
	return years
}

func recentYears(_ yearBounds, current int) []string {
	return []string{strconv.Itoa(current - 1), strconv.Itoa(current)}
}

func selectYears(b yearBounds, current int) []string {
	for _, rule := range yearRules {
		if rule.applies(b) {
			return rule.years(b, current)
		}
	}
	return nil
}

// ListFilter derives the search filter of a Lv01-BLJ request.
func ListFilter(env msgtree.Tree, now time.Time) (model.AssessmentFilter, error) {
	groups := env.Trees(pathAssessmentGroups)
	if len(groups) == 0 {
		return model.AssessmentFilter{}, apperr.BadRequest(apperr.CodeMissingAssessmentGroup, "no BLJ entries in request body")
	}

	var (
		citizenID   string
		sameCitizen = true
	)
	for _, g := range groups {
		id, ok := g.String(pathGroupCitizenID)
		switch {
		case !ok:
			sameCitizen = false
		case citizenID == "":
			citizenID = id
		case id != citizenID:
			sameCitizen = false
		}
	}
	if citizenID == "" {
		return model.AssessmentFilter{}, apperr.New(apperr.CodeMissingCitizenID, http.StatusNotImplemented, "no bsn-nummer in any BLJ entry")
	}

	bounds := yearBounds{entries: len(groups)}
	if sameCitizen {
		bounds.min = taxYear(groups[0])
		bounds.max = taxYear(groups[len(groups)-1])
	}

	return model.AssessmentFilter{
		CitizenID: citizenID,
		Years:     selectYears(bounds, now.Year()),
	}, nil
}

func taxYear(group msgtree.Tree) string {
	for _, el := range ExtraElements(group, pathExtraElements) {
		if el.Name == extraTaxYear && el.Value != "" {
			return el.Value
		}
	}
	return ""
}

// GetFilter derives the search filter of a Lv01-OPO request. A compound
// "<number>-<sequence>" assessment number takes precedence over the separate
// sequence field.
func GetFilter(env msgtree.Tree) (model.AssessmentFilter, error) {
	number := env.StringOr(pathAssessmentNumber, "")
	sequence := env.StringOr(pathAssessmentSequence, "")
	if n, seq, compound := strings.Cut(number, "-"); compound {
		number = n
		if seq != "" {
			sequence = seq
		}
	}
	if number == "" && sequence == "" {
		return model.AssessmentFilter{}, apperr.BadRequest(apperr.CodeMissingAssessmentNumber, "no aanslagBiljetNummer in request body")
	}
	return model.AssessmentFilter{AssessmentNumber: number, SequenceNumber: sequence}, nil
}

// applyObjectionOverride clears objectionPossible on an assessment when any of
// its lines does not allow an objection, whatever the upstream value says.
func applyObjectionOverride(a *model.Assessment) {
	for _, line := range a.Lines {
		if !line.ObjectionPossible {
			a.ObjectionPossible = false
			return
		}
	}
}

func (s *Service) listAssessments(ctx context.Context, msg *Message) (map[string]any, error) {
	filter, err := ListFilter(msg.Envelope, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.syncCitizen(ctx, filter.CitizenID); err != nil {
		return nil, err
	}

	res, err := s.search.Search(ctx, "", filter, []string{s.cfg.AssessmentSchema})
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeDownstream, http.StatusInternalServerError, "assessment search failed", err)
	}
	for i := range res.Results {
		applyObjectionOverride(&res.Results[i])
	}

	s.log.Debug("assessments listed", "citizen_id", filter.CitizenID, "years", filter.Years, "count", res.Count)
	return answerContent(msg.Header, res.Results), nil
}

func (s *Service) getAssessment(ctx context.Context, msg *Message) (map[string]any, error) {
	filter, err := GetFilter(msg.Envelope)
	if err != nil {
		return nil, err
	}

	res, err := s.search.Search(ctx, "", filter, []string{s.cfg.AssessmentSchema})
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeDownstream, http.StatusInternalServerError, "assessment search failed", err)
	}
	if res.Count > 1 {
		return nil, apperr.Internal(apperr.CodeAmbiguousAssessment, "more than one assessment matches "+model.CompositeKey(filter.AssessmentNumber, filter.SequenceNumber)).
			WithDetails(map[string]any{"filter": filter.AsMap()})
	}
	if res.Count == 0 || len(res.Results) == 0 {
		return answerContent(msg.Header, nil), nil
	}

	result := res.Results[0]
	if s.lookup != nil && result.ID != "" {
		full, err := s.lookup.GetByID(ctx, result.ID)
		if err != nil {
			return nil, apperr.Wrap(apperr.CodeDownstream, http.StatusInternalServerError, "assessment lookup failed", err)
		}
		if full != nil {
			result = *full
		}
	}
	applyObjectionOverride(&result)
	return answerContent(msg.Header, []model.Assessment{result}), nil
}

// syncCitizen asks the syncer to refresh a citizen before searching. A failure
// only fails the request when sync is required.
func (s *Service) syncCitizen(ctx context.Context, citizenID string) error {
	if s.sync == nil {
		return nil
	}
	err := s.sync.FetchAndSync(ctx, citizenID)
	if err == nil {
		return nil
	}
	s.metrics.IncrementSyncFailures()
	if s.cfg.SyncRequired {
		return apperr.Unavailable(apperr.CodeSyncFailed, "assessment sync failed", err)
	}
	s.log.Warn("assessment sync failed, searching possibly stale data", "citizen_id", citizenID, "error", err)
	return nil
}
