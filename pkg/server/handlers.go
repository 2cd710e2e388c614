package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/zen-systems/mediagate/pkg/adapter"
	"github.com/zen-systems/mediagate/pkg/router"
)

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	OK       bool   `json:"ok"`
	Provider string `json:"provider"`
	Message  string `json:"message"`
}

// ModelsResponse is returned by GET /api/models.
type ModelsResponse struct {
	Models []adapter.ModelSummary `json:"models"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	Retryable bool   `json:"retryable"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{OK: true, Message: readyMessage}
	if def := s.resolver.Default(); def != nil {
		resp.Provider = def.Name()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	a, ok := s.resolve(w, r)
	if !ok {
		return
	}
	models, err := a.ListModels(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if models == nil {
		models = []adapter.ModelSummary{}
	}
	writeJSON(w, http.StatusOK, ModelsResponse{Models: models})
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	var req adapter.TextRequest
	if !s.decode(w, r, &req) {
		return
	}
	a, ok := s.resolve(w, r)
	if !ok {
		return
	}
	resp, err := a.GenerateText(r.Context(), req)
	s.respond(w, r, resp, err)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	var req adapter.ImageRequest
	if !s.decode(w, r, &req) {
		return
	}
	a, ok := s.resolve(w, r)
	if !ok {
		return
	}
	resp, err := a.GenerateImage(r.Context(), req)
	s.respond(w, r, resp, err)
}

func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	var req adapter.VideoRequest
	if !s.decode(w, r, &req) {
		return
	}
	a, ok := s.resolve(w, r)
	if !ok {
		return
	}
	resp, err := a.GenerateVideo(r.Context(), req)
	if err == nil && resp != nil && resp.ID != "" {
		if auditErr := s.audit.RecordVideo(req.Prompt, resp.ID); auditErr != nil {
			s.logger.Warn("failed to record video job", zap.String("id", resp.ID), zap.Error(auditErr))
		}
	}
	s.respond(w, r, resp, err)
}

func (s *Server) handleVideoStatus(w http.ResponseWriter, r *http.Request) {
	a, ok := s.resolve(w, r)
	if !ok {
		return
	}
	resp, err := a.VideoStatus(r.Context(), r.PathValue("id"))
	s.respond(w, r, resp, err)
}

// OverrideFromRequest reads the provider override headers.
func OverrideFromRequest(r *http.Request) router.Override {
	return router.Override{
		Name:    strings.TrimSpace(r.Header.Get(HeaderProviderName)),
		APIKey:  strings.TrimSpace(r.Header.Get(HeaderProviderKey)),
		BaseURL: strings.TrimSpace(r.Header.Get(HeaderProviderURL)),
	}
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request) (adapter.Adapter, bool) {
	override := OverrideFromRequest(r)
	a, err := s.resolver.Resolve(override)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	if override.Active() {
		s.logger.Info("using per-request provider",
			zap.String("provider", a.Name()),
			zap.String("request_id", RequestIDFromContext(r.Context())),
		)
	}
	return a, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("request body is required")
		}
		s.writeError(w, r, adapter.NewError(adapter.KindValidation, "", "invalid request body: %v", err))
		return false
	}
	return true
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, resp *adapter.GenerationResponse, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if resp == nil {
		s.writeError(w, r, fmt.Errorf("provider returned no response"))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	body := ErrorResponse{
		Error:     err.Error(),
		Retryable: adapter.IsTransient(err),
	}
	if kind, ok := adapter.KindOf(err); ok {
		body.Kind = kind.String()
	}

	fields := []zap.Field{
		zap.String("request_id", RequestIDFromContext(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", fields...)
	} else {
		s.logger.Warn("request rejected", fields...)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
