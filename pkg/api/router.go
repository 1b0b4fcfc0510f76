package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/igorvan/omniscan/pkg/camera"
	"github.com/igorvan/omniscan/pkg/entries"
	"github.com/igorvan/omniscan/pkg/export"
	"github.com/igorvan/omniscan/pkg/logging"
	"github.com/igorvan/omniscan/pkg/scanning"
)

// Entries - stored scan collection
type Entries interface {
	ReadAll(ctx context.Context) ([]scanning.Entry, error)
	Clear(ctx context.Context, confirm entries.Confirmer) (bool, error)
}

// Exporter - CSV export of the collection
type Exporter interface {
	Export(ctx context.Context, dl export.Downloader) (string, error)
}

// Cameras - capture device selection
type Cameras interface {
	Init(ctx context.Context) error
	Devices() []camera.Device
	Selected() string
	Select(ctx context.Context, deviceID string) error
	Status() camera.StatusReport
}

// Refresher - re-renders the scanned list after it changed
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Deps - collaborators of the HTTP API, Refresher and Live are optional
type Deps struct {
	Entries   Entries
	Exporter  Exporter
	Cameras   Cameras
	Refresher Refresher
	Live      http.Handler
	Log       *slog.Logger
}

// Server - HTTP surface of the scanner
type Server struct {
	deps Deps
	log  *slog.Logger
}

// New - Server constructor
func New(deps Deps) (*Server, error) {
	if deps.Entries == nil || deps.Exporter == nil || deps.Cameras == nil {
		return nil, fmt.Errorf("cannot instantiate an API Server, entries, exporter and cameras are required")
	}
	return &Server{deps: deps, log: logging.OrDiscard(deps.Log)}, nil
}

// Router - routes of the scanner API
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintln(w, "OK")
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/entries", s.listEntries).Methods(http.MethodGet)
	api.HandleFunc("/entries", s.clearEntries).Methods(http.MethodDelete)
	api.HandleFunc("/export.csv", s.exportCSV).Methods(http.MethodGet)
	api.HandleFunc("/cameras", s.listCameras).Methods(http.MethodGet)
	api.HandleFunc("/cameras/init", s.initCameras).Methods(http.MethodPost)
	api.HandleFunc("/cameras/selected", s.selectCamera).Methods(http.MethodPut)
	api.HandleFunc("/status", s.status).Methods(http.MethodGet)

	if s.deps.Live != nil {
		r.Handle("/ws", s.deps.Live)
	}
	return r
}
