// Package httpapi exposes the SOAP endpoint and process endpoints over HTTP.
package httpapi

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"simtax-adapter/internal/apperr"
	"simtax-adapter/internal/logger"
	"simtax-adapter/internal/msgtree"
	"simtax-adapter/internal/simtax"
	"simtax-adapter/internal/stuf"
)

// SOAPPath is where StUF messages are posted.
const SOAPPath = "/simtax/stuf"

// MessageHandler runs one decoded StUF message.
type MessageHandler interface {
	Handle(ctx context.Context, tree msgtree.Tree) simtax.Result
}

// API serves the SOAP endpoint.
type API struct {
	handler      MessageHandler
	log          *logger.Logger
	maxBodyBytes int64
	gatherer     prometheus.Gatherer
}

// New builds the API. A nil gatherer serves the default registry on /metrics.
func New(handler MessageHandler, log *logger.Logger, maxBodyBytes int64, gatherer prometheus.Gatherer) *API {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &API{
		handler:      handler,
		log:          logger.OrDiscard(log),
		maxBodyBytes: maxBodyBytes,
		gatherer:     gatherer,
	}
}

// RegisterRoutes wires HTTP routes.
// gorilla/mux: Router provides method-based routing and URL pattern matching.
func (a *API) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc(SOAPPath, a.soapHandler).Methods(http.MethodPost)
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// soapHandler decodes a SOAP envelope, runs it and answers with a SOAP
// envelope carrying the result, whatever the outcome.
func (a *API) soapHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var reader io.Reader = r.Body
	if a.maxBodyBytes > 0 {
		reader = http.MaxBytesReader(w, r.Body, a.maxBodyBytes)
	}
	if enc := r.Header.Get("Content-Encoding"); strings.EqualFold(enc, "gzip") {
		gr, err := gzip.NewReader(reader)
		if err != nil {
			a.reply(w, r, start, "", http.StatusBadRequest, errorBody(apperr.CodeMalformed, "failed to decompress gzip body"))
			return
		}
		defer gr.Close()
		reader = gr
	}

	raw, err := io.ReadAll(reader)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.reply(w, r, start, "", http.StatusRequestEntityTooLarge, errorBody(apperr.CodeMalformed, "request body too large"))
			return
		}
		a.reply(w, r, start, "", http.StatusBadRequest, errorBody(apperr.CodeMalformed, "failed to read body"))
		return
	}

	tree, err := stuf.Decode(raw)
	if err != nil {
		a.reply(w, r, start, "", http.StatusBadRequest, errorBody(apperr.CodeMalformed, "invalid XML body: "+err.Error()))
		return
	}

	res := a.handler.Handle(r.Context(), tree)
	a.reply(w, r, start, res.Reference, res.StatusCode, res.Content)
}

func (a *API) reply(w http.ResponseWriter, r *http.Request, start time.Time, reference string, status int, content map[string]any) {
	log := a.log.WithRequestID(reference)

	body, err := stuf.EncodeEnvelope(content)
	if err != nil {
		log.Error("encode response envelope", "error", err)
		status = http.StatusInternalServerError
		body, _ = stuf.EncodeEnvelope(errorBody(apperr.CodeInternal, "failed to encode response"))
	}

	w.Header().Set("Content-Type", stuf.ContentType+"; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)

	log.HTTPRequest(r.Method, r.URL.Path, status, float64(time.Since(start).Microseconds())/1000)
}

func errorBody(code, message string) map[string]any {
	return map[string]any{"Error": message, "code": code}
}
