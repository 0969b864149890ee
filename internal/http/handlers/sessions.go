package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"roomdesign/internal/domain"
	"roomdesign/internal/middleware"
	"roomdesign/internal/session"
	"roomdesign/internal/workflow"
)

// multipart framing allowance on top of the image limit
const multipartOverhead = 1 << 20

type visualizationResponse struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	MIME  string `json:"mime"`
	URL   string `json:"url"`
}

type snapshotResponse struct {
	ID              string                  `json:"id"`
	State           domain.WorkflowState    `json:"state"`
	Category        domain.DesignCategory   `json:"category"`
	CleanMode       bool                    `json:"clean_mode"`
	HasImage        bool                    `json:"has_image"`
	HasCleanedImage bool                    `json:"has_cleaned_image"`
	Advice          []domain.DesignAdvice   `json:"advice"`
	Visualizations  []visualizationResponse `json:"visualizations"`
	Error           string                  `json:"error,omitempty"`
}

func newSnapshotResponse(id string, snap workflow.Snapshot) snapshotResponse {
	resp := snapshotResponse{
		ID:              id,
		State:           snap.State,
		Category:        snap.Category,
		CleanMode:       snap.CleanMode,
		HasImage:        snap.HasImage,
		HasCleanedImage: snap.HasCleanedImage,
		Advice:          snap.Advice,
		Visualizations:  make([]visualizationResponse, 0, len(snap.Visualizations)),
		Error:           snap.Error,
	}
	if resp.Advice == nil {
		resp.Advice = []domain.DesignAdvice{}
	}
	for i, v := range snap.Visualizations {
		resp.Visualizations = append(resp.Visualizations, visualizationResponse{
			Index: i,
			Title: v.Title,
			MIME:  v.MIMEType,
			URL:   fmt.Sprintf("/v1/sessions/%s/visualizations/%d", id, i),
		})
	}
	return resp
}

func (a *App) snapshot(w http.ResponseWriter, code int, entry *session.Entry) {
	a.json(w, code, newSnapshotResponse(entry.ID, entry.Controller.Snapshot()))
}

func (a *App) entry(w http.ResponseWriter, r *http.Request) (*session.Entry, bool) {
	entry, err := a.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return nil, false
	}
	return entry, true
}

func (a *App) CreateSession(w http.ResponseWriter, r *http.Request) {
	entry := a.Sessions.Create()
	w.Header().Set("Location", "/v1/sessions/"+entry.ID)
	a.snapshot(w, http.StatusCreated, entry)
}

func (a *App) GetSession(w http.ResponseWriter, r *http.Request) {
	entry, ok := a.entry(w, r)
	if !ok {
		return
	}
	a.snapshot(w, http.StatusOK, entry)
}

func (a *App) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := a.Sessions.Delete(chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) UploadImage(w http.ResponseWriter, r *http.Request) {
	entry, ok := a.entry(w, r)
	if !ok {
		return
	}
	data, declared, err := a.readUpload(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "too_large", fmt.Sprintf("image exceeds %d bytes", a.MaxUploadBytes))
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", "could not read image upload")
		return
	}
	if int64(len(data)) > a.MaxUploadBytes {
		a.error(w, http.StatusRequestEntityTooLarge, "too_large", fmt.Sprintf("image exceeds %d bytes", a.MaxUploadBytes))
		return
	}
	img, err := domain.NewRoomImage(data, declared)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := entry.Controller.Upload(img); err != nil {
		a.fail(w, r, err)
		return
	}
	a.snapshot(w, http.StatusOK, entry)
}

// readUpload accepts a multipart form with an "image" field or the raw image
// as the request body.
func (a *App) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes+multipartOverhead)
		if err := r.ParseMultipartForm(a.MaxUploadBytes); err != nil {
			return nil, "", err
		}
		defer func() {
			_ = r.MultipartForm.RemoveAll()
		}()
		file, header, err := r.FormFile("image")
		if err != nil {
			return nil, "", err
		}
		defer func() {
			_ = file.Close()
		}()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, "", err
		}
		return data, header.Header.Get("Content-Type"), nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", err
	}
	return data, r.Header.Get("Content-Type"), nil
}

type cleanRequest struct {
	Enabled *bool `json:"enabled"`
}

func (a *App) SetCleanMode(w http.ResponseWriter, r *http.Request) {
	entry, ok := a.entry(w, r)
	if !ok {
		return
	}
	var req cleanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		a.error(w, http.StatusBadRequest, "bad_request", `expected {"enabled": true|false}`)
		return
	}
	if *req.Enabled {
		err := entry.Controller.EnableCleanMode(context.WithoutCancel(r.Context()))
		if err != nil {
			a.fail(w, r, err)
			return
		}
	} else if err := entry.Controller.DisableCleanMode(); err != nil {
		a.fail(w, r, err)
		return
	}
	a.snapshot(w, http.StatusOK, entry)
}

type categoryRequest struct {
	Category string `json:"category"`
}

func (a *App) SelectCategory(w http.ResponseWriter, r *http.Request) {
	entry, ok := a.entry(w, r)
	if !ok {
		return
	}
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	category, err := domain.ParseCategory(req.Category)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := entry.Controller.SelectCategory(category); err != nil {
		a.fail(w, r, err)
		return
	}
	a.snapshot(w, http.StatusOK, entry)
}

// Generate runs the analysis and visualization phases to completion, even if
// the client goes away mid-run.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	entry, ok := a.entry(w, r)
	if !ok {
		return
	}
	locale := middleware.LocaleFromContext(r.Context())
	if err := entry.Controller.Generate(context.WithoutCancel(r.Context()), locale); err != nil {
		a.fail(w, r, err)
		return
	}
	a.snapshot(w, http.StatusOK, entry)
}
