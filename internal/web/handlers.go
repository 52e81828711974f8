// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package web

import (
	"encoding/json"
	"net/http"

	"github.com/heliocore/drms-export/pkg/rlog"
	"github.com/heliocore/drms-export/pkg/xerr"
)

type statusResponse struct {
	RequestID    string `json:"request_id"`
	User         string `json:"user"`
	Status       int    `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	SizeMB       int64  `json:"size_mb"`
}

func writeJSONError(rw http.ResponseWriter, code int, msg string) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)
	json.NewEncoder(rw).Encode(map[string]string{"error": msg})
}

func (s *Server) handleStatus(rw http.ResponseWriter, r *http.Request) {
	reqID := requestID(r)
	if reqID == "" {
		writeJSONError(rw, http.StatusBadRequest, "missing request id")
		return
	}

	req, ok, err := s.status.ExportRow(reqID)
	if err != nil {
		rlog.Errorf("web: status lookup for %q: %v", reqID, err)
		writeJSONError(rw, http.StatusInternalServerError, "lookup failed")
		return
	}
	if !ok {
		writeJSONError(rw, http.StatusNotFound, "no such request")
		return
	}

	rw.Header().Set("Content-Type", "application/json")
	json.NewEncoder(rw).Encode(statusResponse{
		RequestID:    req.RequestID,
		User:         req.User,
		Status:       int(req.Status),
		ErrorMessage: req.ErrorMessage,
		SizeMB:       req.SizeMB,
	})
}

// handleExport serves the URL_CGI sink: a request whose method field is
// "url_cgi" is streamed directly as the HTTP response body instead of
// going through the qsub/drmsrun scripts. Any other method is handled by
// the scheduler's own staging pipeline and is not servable here.
func (s *Server) handleExport(rw http.ResponseWriter, r *http.Request) {
	reqID := requestID(r)
	if reqID == "" {
		writeJSONError(rw, http.StatusBadRequest, "missing request id")
		return
	}
	if s.exporter == nil {
		writeJSONError(rw, http.StatusNotImplemented, "url_cgi export not configured")
		return
	}

	req, ok, err := s.status.ExportRow(reqID)
	if err != nil {
		rlog.Errorf("web: export lookup for %q: %v", reqID, err)
		writeJSONError(rw, http.StatusInternalServerError, "lookup failed")
		return
	}
	if !ok {
		writeJSONError(rw, http.StatusNotFound, "no such request")
		return
	}
	if req.Method != "url_cgi" {
		writeJSONError(rw, http.StatusConflict, "request is not a url_cgi export")
		return
	}

	rw.Header().Set("Content-Type", "application/x-tar")
	rw.Header().Set("Content-Disposition", "attachment; filename=\""+reqID+".tar\"")
	if err := s.exporter.StreamExport(req, rw, MaxCGIBytes); err != nil {
		if xerr.Recoverable(err) {
			rlog.Warnf("web: export %q interrupted: %v", reqID, err)
			return
		}
		rlog.Errorf("web: export %q failed: %v", reqID, err)
	}
}

func (s *Server) handleTrigger(rw http.ResponseWriter, r *http.Request) {
	if err := s.trigger.TriggerClaimPass(); err != nil {
		rlog.Errorf("web: triggered claim pass failed: %v", err)
		writeJSONError(rw, http.StatusInternalServerError, "claim pass failed")
		return
	}
	rw.WriteHeader(http.StatusAccepted)
}
