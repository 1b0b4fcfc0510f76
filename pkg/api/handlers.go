package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/igorvan/omniscan/pkg/camera"
	"github.com/igorvan/omniscan/pkg/entries"
	"github.com/igorvan/omniscan/pkg/export"
)

type errorResponse struct {
	Error string `json:"error"`
}

// CamerasResponse - camera selector contents
type CamerasResponse struct {
	Devices  []camera.Device `json:"devices"`
	Selected string          `json:"selected"`
}

// SelectRequest - camera switch request
type SelectRequest struct {
	ID string `json:"id"`
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	all, err := s.deps.Entries.ReadAll(r.Context())
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "cannot read scanned entries", err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

// clearEntries - the confirm=true parameter is the user's answer to the clear prompt
func (s *Server) clearEntries(w http.ResponseWriter, r *http.Request) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if !confirmed {
		writeJSON(w, http.StatusPreconditionRequired, errorResponse{Error: entries.ClearPrompt})
		return
	}
	if _, err := s.deps.Entries.Clear(r.Context(), entries.Always); err != nil {
		s.fail(w, http.StatusInternalServerError, "cannot clear scanned entries", err)
		return
	}
	s.refresh(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request) {
	dl := &responseDownloader{w: w}
	_, err := s.deps.Exporter.Export(r.Context(), dl)
	switch {
	case errors.Is(err, export.ErrEmptyCollection):
		writeJSON(w, http.StatusConflict, errorResponse{Error: export.EmptyMessage})
	case err != nil && !dl.written:
		s.fail(w, http.StatusInternalServerError, "cannot export scanned entries", err)
	case err != nil:
		s.log.Error(fmt.Sprintf("CSV download interrupted: %s", err))
	}
}

func (s *Server) listCameras(w http.ResponseWriter, _ *http.Request) {
	devices := s.deps.Cameras.Devices()
	writeJSON(w, http.StatusOK, CamerasResponse{Devices: devices, Selected: s.deps.Cameras.Selected()})
}

// initCameras - enumerates devices again and restarts capture, the way a page reload
// recovers after permissions were granted or a station came online
func (s *Server) initCameras(w http.ResponseWriter, r *http.Request) {
	err := s.deps.Cameras.Init(r.Context())
	var enumErr *camera.DeviceEnumerationError
	var startErr *camera.CaptureStartError
	switch {
	case errors.Is(err, camera.ErrNoDevices):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "No cameras found"})
		return
	case errors.As(err, &enumErr) && enumErr.PermissionDenied():
		writeJSON(w, http.StatusForbidden, errorResponse{Error: camera.PermissionMessage})
		return
	case errors.As(err, &enumErr):
		s.fail(w, http.StatusBadGateway, "Permissions denied or error", err)
		return
	case errors.As(err, &startErr):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "Camera failed to start"})
		return
	case err != nil:
		s.fail(w, http.StatusInternalServerError, "cannot initialize cameras", err)
		return
	}
	s.listCameras(w, r)
}

func (s *Server) selectCamera(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "camera id is required"})
		return
	}
	err := s.deps.Cameras.Select(r.Context(), req.ID)
	var startErr *camera.CaptureStartError
	switch {
	case errors.Is(err, camera.ErrNoDevices):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "No cameras detected"})
		return
	case errors.As(err, &startErr):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "Camera failed to start"})
		return
	case err != nil:
		s.fail(w, http.StatusInternalServerError, "cannot select camera", err)
		return
	}
	s.listCameras(w, r)
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Cameras.Status())
}

func (s *Server) refresh(ctx context.Context) {
	if s.deps.Refresher == nil {
		return
	}
	if err := s.deps.Refresher.Refresh(ctx); err != nil {
		s.log.Warn(fmt.Sprintf("cannot refresh scanned list: %s", err))
	}
}

func (s *Server) fail(w http.ResponseWriter, code int, msg string, err error) {
	s.log.Error(fmt.Sprintf("%s: %s", msg, err))
	writeJSON(w, code, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// responseDownloader - delivers the export as an attachment of the response
type responseDownloader struct {
	w       http.ResponseWriter
	written bool
}

func (d *responseDownloader) Download(_ context.Context, name, contentType string, data []byte) error {
	d.w.Header().Set("Content-Type", contentType)
	d.w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	d.w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	d.w.WriteHeader(http.StatusOK)
	d.written = true
	_, err := d.w.Write(data)
	return err
}
