// Package api exposes the orchestrator over a small HTTP control
// surface consumed by the CLI and by agent clients.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mcp-pilot/pilot/internal/domain/catalog"
	"github.com/mcp-pilot/pilot/internal/gateway"
	"github.com/mcp-pilot/pilot/internal/orchestrator"
)

// GatewayInfo is the read-only slice of the gateway the API passes
// through without orchestrator involvement.
type GatewayInfo interface {
	CatalogServers(ctx context.Context) ([]gateway.CatalogEntry, error)
	ConfigRead(ctx context.Context) (gateway.Payload, error)
	SecretNames(ctx context.Context) ([]string, error)
}

// ControlServer handles management requests.
type ControlServer struct {
	mux    *http.ServeMux
	orch   *orchestrator.Orchestrator
	info   GatewayInfo
	logger *zap.Logger
}

// NewControlServer creates a new management server.
func NewControlServer(orch *orchestrator.Orchestrator, info GatewayInfo, logger *zap.Logger) *ControlServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ControlServer{
		mux:    http.NewServeMux(),
		orch:   orch,
		info:   info,
		logger: logger.Named("api"),
	}
	s.routes()
	return s
}

func (s *ControlServer) routes() {
	s.mux.HandleFunc("GET /api/catalog", s.handleGetCatalog)
	s.mux.HandleFunc("GET /api/catalog/available", s.handleGetAvailable)
	s.mux.HandleFunc("GET /api/servers/{name}", s.handleGetServer)
	s.mux.HandleFunc("POST /api/task", s.handleTask)
	s.mux.HandleFunc("POST /api/activate", s.handleActivate)
	s.mux.HandleFunc("POST /api/deactivate", s.handleDeactivate)
	s.mux.HandleFunc("GET /api/usage", s.handleGetUsage)
	s.mux.HandleFunc("GET /api/status", s.handleGetStatus)
	s.mux.HandleFunc("GET /api/profiles", s.handleGetProfiles)
	s.mux.HandleFunc("GET /api/gateway/config", s.handleGatewayConfig)
	s.mux.HandleFunc("GET /api/gateway/secrets", s.handleGatewaySecrets)
}

func (s *ControlServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Global CORS headers
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	s.mux.ServeHTTP(w, r)
}

func (s *ControlServer) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *ControlServer) writeError(w http.ResponseWriter, err error) {
	var notFound *orchestrator.NotFoundError
	if errors.As(err, &notFound) {
		s.writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error":     notFound.Error(),
			"available": notFound.Available,
		})
		return
	}
	s.logger.Warn("request failed", zap.Error(err))
	s.writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
}

// boolQuery parses a query flag, defaulting when absent.
func boolQuery(r *http.Request, key string, fallback bool) bool {
	switch r.URL.Query().Get(key) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return fallback
	}
}

func (s *ControlServer) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	filter := catalog.CatalogFilter{
		Category:        catalog.Category(r.URL.Query().Get("category")),
		IncludeInactive: boolQuery(r, "include_inactive", true),
	}

	records, err := s.orch.CatalogSummary(r.Context(), filter, boolQuery(r, "force", false))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"servers": records,
		"count":   len(records),
	})
}

func (s *ControlServer) handleGetAvailable(w http.ResponseWriter, r *http.Request) {
	entries, err := s.info.CatalogServers(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"servers": entries,
		"count":   len(entries),
	})
}

func (s *ControlServer) handleGetServer(w http.ResponseWriter, r *http.Request) {
	record, err := s.orch.ServerDetail(r.Context(), r.PathValue("name"), boolQuery(r, "force", false))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

func (s *ControlServer) handleTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text  string `json:"text"`
		Force bool   `json:"force"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}

	result, err := s.orch.HandleTask(r.Context(), req.Text, req.Force)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *ControlServer) handleActivate(w http.ResponseWriter, r *http.Request) {
	s.handleBatch(w, r, s.orch.Activate)
}

func (s *ControlServer) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	s.handleBatch(w, r, s.orch.Deactivate)
}

func (s *ControlServer) handleBatch(w http.ResponseWriter, r *http.Request, op func(context.Context, []string) (orchestrator.BatchResult, error)) {
	var req struct {
		Servers []string `json:"servers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Servers) == 0 {
		http.Error(w, "servers is required", http.StatusBadRequest)
		return
	}

	result, err := op(r.Context(), req.Servers)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *ControlServer) handleGetUsage(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"servers": s.orch.Usage(),
		"idle":    s.orch.IdleReport(),
	})
}

func (s *ControlServer) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.orch.Status())
}

func (s *ControlServer) handleGetProfiles(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"profiles": s.orch.Profiles(),
	})
}

func (s *ControlServer) handleGatewayConfig(w http.ResponseWriter, r *http.Request) {
	payload, err := s.info.ConfigRead(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	switch {
	case payload.Object != nil:
		s.writeJSON(w, http.StatusOK, payload.Object)
	case payload.Array != nil:
		s.writeJSON(w, http.StatusOK, payload.Array)
	default:
		s.writeJSON(w, http.StatusOK, map[string]string{"raw": payload.Raw})
	}
}

func (s *ControlServer) handleGatewaySecrets(w http.ResponseWriter, r *http.Request) {
	names, err := s.info.SecretNames(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"secrets": names})
}
