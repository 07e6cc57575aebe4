package jsonl

import (
	"compress/gzip"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"simtax-adapter/internal/logger"
)

// RegisterRoutes registers the objection archive routes.
func (s *QueryService) RegisterRoutes(r *mux.Router, log *logger.Logger) {
	log = logger.OrDiscard(log)
	api := r.PathPrefix("/api/objections").Subrouter()

	api.HandleFunc("", s.listHandler(log)).Methods(http.MethodGet)
	api.HandleFunc("/{id}", s.getHandler(log)).Methods(http.MethodGet)
}

// listHandler handles GET /api/objections?limit=&offset=
func (s *QueryService) listHandler(log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 100
		if l := r.URL.Query().Get("limit"); l != "" {
			if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 1000 {
				limit = parsed
			}
		}

		offset := 0
		if o := r.URL.Query().Get("offset"); o != "" {
			if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
				offset = parsed
			}
		}

		objections, err := s.List(r.Context(), limit, offset)
		if err != nil {
			log.Error("list objections", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"success": false,
				"error":   err.Error(),
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    objections,
		})
	}
}

// getHandler handles GET /api/objections/{id}
func (s *QueryService) getHandler(log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, err := s.Get(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			log.Error("get objection", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"success": false,
				"error":   err.Error(),
			})
			return
		}
		if o == nil {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"success": false,
				"error":   "Objection not found",
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    o,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Encoding", "gzip")
	w.WriteHeader(status)
	gw := gzip.NewWriter(w)
	defer gw.Close()
	_ = json.NewEncoder(gw).Encode(body)
}
