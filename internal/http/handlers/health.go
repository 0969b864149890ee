package handlers

import (
	"net/http"

	"roomdesign/internal/domain"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"status": "ok", "sessions": a.Sessions.Len()})
}

type categoryResponse struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

func (a *App) Categories(w http.ResponseWriter, r *http.Request) {
	items := make([]categoryResponse, 0, len(domain.Categories()))
	for _, c := range domain.Categories() {
		items = append(items, categoryResponse{ID: string(c), Label: c.Label()})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items, "default": string(domain.DefaultCategory)})
}
