package assessments

import (
	"compress/gzip"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"simtax-adapter/internal/model"
)

// RegisterRoutes exposes the read model for operators.
// gorilla/mux: GET /api/assessments and GET /api/assessments/{id}.
func (s *Store) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/assessments").Subrouter()
	api.HandleFunc("", s.searchHandler).Methods(http.MethodGet)
	api.HandleFunc("/{id}", s.getHandler).Methods(http.MethodGet)
}

// searchHandler handles GET /api/assessments?bsn=&year=&number=&sequence=
func (s *Store) searchHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.AssessmentFilter{
		CitizenID:        q.Get("bsn"),
		AssessmentNumber: q.Get("number"),
		SequenceNumber:   q.Get("sequence"),
	}
	if year := q.Get("year"); year != "" {
		filter.Years = strings.Split(year, ",")
	}
	if filter.CitizenID == "" && filter.AssessmentNumber == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "bsn or number is required",
		})
		return
	}

	result, err := s.Search(r.Context(), "", filter, nil)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   result.Count,
		"data":    result.Results,
	})
}

// getHandler handles GET /api/assessments/{id}
func (s *Store) getHandler(w http.ResponseWriter, r *http.Request) {
	a, err := s.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	if a == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"error":   "assessment not found",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    a,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Encoding", "gzip")
	w.WriteHeader(status)
	gw := gzip.NewWriter(w)
	defer gw.Close()
	_ = json.NewEncoder(gw).Encode(body)
}
