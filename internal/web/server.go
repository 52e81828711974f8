// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
// Package web exposes the scheduler's minimal HTTP surface: request
// status lookup, the administrative trigger endpoint, and the URL_CGI
// direct-streaming export sink.
package web

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/heliocore/drms-export/internal/store"
	"github.com/heliocore/drms-export/pkg/rlog"
)

// MaxCGIBytes is the hard size cap the TAR streamer enforces when the sink
// is a single HTTP response.
const MaxCGIBytes = 2 << 30

// StatusLookup looks up one export request row by id, for the status
// endpoint.
type StatusLookup interface {
	ExportRow(reqID string) (store.ExportRequest, bool, error)
}

// StreamExporter drives one export synchronously, writing its TAR stream
// to w and stopping at maxBytes, the URL_CGI direct-stream cap.
type StreamExporter interface {
	StreamExport(req store.ExportRequest, w io.Writer, maxBytes int64) error
}

// Trigger runs an out-of-band scheduler claim pass, for the
// administrative trigger endpoint.
type Trigger interface {
	TriggerClaimPass() error
}

// Config configures the HTTP surface.
type Config struct {
	Addr      string
	JWTSecret []byte // HMAC key protecting /admin/trigger; empty disables auth (dev only)
}

// Server wires StatusLookup, StreamExporter, and Trigger into a router.
type Server struct {
	cfg      Config
	status   StatusLookup
	exporter StreamExporter
	trigger  Trigger
	router   *mux.Router
}

// NewServer builds a Server. exporter may be nil if the URL_CGI sink is
// not offered by this deployment.
func NewServer(cfg Config, status StatusLookup, exporter StreamExporter, trigger Trigger) *Server {
	s := &Server{cfg: cfg, status: status, exporter: exporter, trigger: trigger}
	s.router = mux.NewRouter()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/status/{reqid}", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/export/{reqid}", s.handleExport).Methods(http.MethodGet)

	admin := s.router.PathPrefix("/admin").Subrouter()
	admin.Use(s.requireBearer)
	admin.HandleFunc("/trigger", s.handleTrigger).Methods(http.MethodPost)

	s.router.Use(handlers.CompressHandler)
	s.router.Use(handlers.RecoveryHandler(handlers.PrintRecoveryStack(true)))
	s.router.Use(handlers.CORS(
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost}),
		handlers.AllowedOrigins([]string{"*"}),
	))
}

// Handler returns the logging-wrapped router, ready to pass to
// http.Server.
func (s *Server) Handler() http.Handler {
	return handlers.CustomLoggingHandler(io.Discard, s.router, func(_ io.Writer, params handlers.LogFormatterParams) {
		rlog.Debugf("%s %s (%d, %.02fkb, %dms)",
			params.Request.Method, params.URL.RequestURI(), params.StatusCode,
			float32(params.Size)/1024, time.Since(params.TimeStamp).Milliseconds())
	})
}

func requestID(r *http.Request) string {
	return strings.TrimSpace(mux.Vars(r)["reqid"])
}
