package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/mkuznetsov/docuvision/internal/core/ports"
)

type Router struct {
	ingest    ports.DocumentIngestor
	query     ports.DocumentQueryService
	reader    ports.DocumentReader
	states    ports.StateStore
	supported func(filename string) bool
}

func NewRouter(
	ingest ports.DocumentIngestor,
	query ports.DocumentQueryService,
	reader ports.DocumentReader,
	states ports.StateStore,
	supported func(filename string) bool,
) *Router {
	return &Router{
		ingest:    ingest,
		query:     query,
		reader:    reader,
		states:    states,
		supported: supported,
	}
}

// Options tune the traffic-control middleware. Zero values disable the
// corresponding gate.
type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int
	QueueTimeout   time.Duration
}

func (rt *Router) Handler(opts Options) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.getDocument)
	mux.HandleFunc("/v1/rag/query", rt.queryRAG)

	var handler http.Handler = mux
	if opts.MaxInFlight > 0 {
		queueTimeout := opts.QueueTimeout
		if queueTimeout <= 0 {
			queueTimeout = 100 * time.Millisecond
		}
		handler = backpressureMiddleware(handler, opts.MaxInFlight, queueTimeout)
	}
	if opts.RateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, opts.RateLimitRPS, opts.RateLimitBurst)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	if rt.supported != nil && !rt.supported(fileHeader.Filename) {
		writeJSON(w, http.StatusUnsupportedMediaType, map[string]string{"error": "unsupported document format"})
		return
	}

	doc, err := rt.ingest.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

// getDocument serves both the registry record (/v1/documents/{id}) and
// the persisted structured state (/v1/documents/{id}/state).
func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	id, wantState := strings.CutSuffix(rest, "/state")
	id = strings.Trim(id, "/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	if wantState {
		state, err := rt.states.LoadState(r.Context(), id)
		if err != nil {
			writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, state)
		return
	}

	doc, err := rt.reader.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) queryRAG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Question string `json:"question"`
		Limit    int    `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	answer, err := rt.query.Answer(r.Context(), req.Question, req.Limit)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
