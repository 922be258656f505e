package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/oklog/ulid/v2"

	"github.com/aiquery/relay-service/internal/render"
	"github.com/aiquery/relay-service/internal/services"
)

type QueryHandler struct {
	queryService *services.QueryService
}

func NewQueryHandler(queryService *services.QueryService) *QueryHandler {
	return &QueryHandler{
		queryService: queryService,
	}
}

func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", h.handleIndex)
	mux.HandleFunc("/query", h.handleQuery)
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/healthz", h.handleHealthz)
	mux.HandleFunc("/logs", h.handleLogs)
}

func (h *QueryHandler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *QueryHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
		"model":  h.queryService.ModelName(),
	})
}

func (h *QueryHandler) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}

	var httpReq services.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&httpReq); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON", "input")
		return
	}

	if httpReq.ReqID == "" {
		httpReq.ReqID = ulid.Make().String()
	}
	if traceID := r.Header.Get("X-Trace-ID"); traceID != "" {
		httpReq.TraceID = traceID
	}

	response, err := h.queryService.ProcessQuery(r.Context(), httpReq, "http.query", "direct", "http-worker")

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(statusForError(err))
	}
	_ = json.NewEncoder(w).Encode(response)
}

// statusForError maps pipeline failures onto HTTP status codes: bad
// input is the caller's fault, upstream inference trouble is a bad
// gateway, rendering is ours.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrEmptyPrompt):
		return http.StatusBadRequest
	case errors.Is(err, render.ErrInputTooLarge):
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

func (h *QueryHandler) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}

	logs, err := h.queryService.GetQueryLogs(r.Context(), limit)
	if err != nil {
		http.Error(w, "Failed to get logs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(logs)
}

func writeJSONError(w http.ResponseWriter, status int, msg, kind string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":      msg,
		"error_kind": kind,
	})
}
