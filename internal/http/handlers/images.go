package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"roomdesign/internal/domain"
	"roomdesign/pkg/zip"
)

func (a *App) writeImage(w http.ResponseWriter, img domain.RoomImage, filename string) {
	w.Header().Set("Content-Type", img.MIMEType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}

// Image serves the original, cleaned or active image of a session.
func (a *App) Image(w http.ResponseWriter, r *http.Request) {
	entry, ok := a.entry(w, r)
	if !ok {
		return
	}
	kind := chi.URLParam(r, "kind")
	var (
		img   domain.RoomImage
		found bool
	)
	switch kind {
	case "original":
		img, found = entry.Controller.Original()
	case "cleaned":
		img, found = entry.Controller.Cleaned()
	case "active":
		img, found = entry.Controller.Active()
	default:
		a.error(w, http.StatusBadRequest, "bad_request", "kind must be original, cleaned or active")
		return
	}
	if !found {
		a.error(w, http.StatusNotFound, "not_found", kind+" image not available")
		return
	}
	a.writeImage(w, img, kind+"."+img.Extension())
}

func (a *App) Visualization(w http.ResponseWriter, r *http.Request) {
	entry, ok := a.entry(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "index must be a number")
		return
	}
	v, found := entry.Controller.Visualization(index)
	if !found {
		a.error(w, http.StatusNotFound, "not_found", "visualization not found")
		return
	}
	a.writeImage(w, v.Image, visualizationFilename(index, v))
}

// VisualizationsZip downloads the whole gallery.
func (a *App) VisualizationsZip(w http.ResponseWriter, r *http.Request) {
	entry, ok := a.entry(w, r)
	if !ok {
		return
	}
	visualizations := entry.Controller.Visualizations()
	if len(visualizations) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "no visualizations generated yet")
		return
	}
	assets := make([]zip.Asset, 0, len(visualizations))
	for i, v := range visualizations {
		assets = append(assets, zip.Asset{Filename: visualizationFilename(i, v), Data: v.Image.Data})
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=room-%s.zip", entry.ID))
	w.WriteHeader(http.StatusOK)
	if err := zip.Write(w, assets, time.Now()); err != nil {
		a.Logger.Error().Err(err).Str("session_id", entry.ID).Msg("write gallery zip")
	}
}

func visualizationFilename(index int, v domain.Visualization) string {
	return fmt.Sprintf("%02d-%s.%s", index+1, slug(v.Title), v.Image.Extension())
}

func slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "visualization"
	}
	return out
}
