package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"roomdesign/internal/domain"
	"roomdesign/internal/infra"
	"roomdesign/internal/session"
)

const defaultMaxUploadBytes = 10 << 20

type App struct {
	Sessions       *session.Registry
	Logger         *infra.Logger
	MaxUploadBytes int64
}

func NewApp(sessions *session.Registry, logger *infra.Logger, maxUploadBytes int64) *App {
	if logger == nil {
		logger = infra.NopLogger()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &App{Sessions: sessions, Logger: logger, MaxUploadBytes: maxUploadBytes}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]errorBody{"error": {Code: code, Message: message}})
}

// fail maps domain errors onto HTTP responses.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		a.error(w, http.StatusNotFound, "not_found", "session not found")
	case errors.Is(err, domain.ErrWorkflowBusy):
		a.error(w, http.StatusConflict, "busy", "another step is still running")
	case errors.Is(err, domain.ErrConfiguration):
		a.error(w, http.StatusServiceUnavailable, "not_configured", "the generation service is not configured: set GEMINI_API_KEY")
	case errors.Is(err, domain.ErrInvalidImage):
		a.error(w, http.StatusUnsupportedMediaType, "invalid_image", "upload a JPEG, PNG, WebP or HEIC image")
	case errors.Is(err, domain.ErrInvalidCategory):
		a.error(w, http.StatusBadRequest, "invalid_category", "unknown design category")
	case errors.Is(err, domain.ErrNoImage):
		a.error(w, http.StatusBadRequest, "no_image", "upload a room photo first")
	default:
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("handler failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
