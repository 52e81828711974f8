// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/heliocore/drms-export/internal/store"
)

type fakeStatusLookup struct {
	rows map[string]store.ExportRequest
	err  error
}

func (f fakeStatusLookup) ExportRow(reqID string) (store.ExportRequest, bool, error) {
	if f.err != nil {
		return store.ExportRequest{}, false, f.err
	}
	req, ok := f.rows[reqID]
	return req, ok, nil
}

type fakeExporter struct {
	written []byte
	err     error
}

func (f *fakeExporter) StreamExport(req store.ExportRequest, w io.Writer, maxBytes int64) error {
	if f.err != nil {
		return f.err
	}
	_, err := w.Write([]byte("tar-bytes-for-" + req.RequestID))
	return err
}

type fakeTrigger struct {
	called bool
	err    error
}

func (f *fakeTrigger) TriggerClaimPass() error {
	f.called = true
	return f.err
}

func TestHandleStatusReturnsRow(t *testing.T) {
	lookup := fakeStatusLookup{rows: map[string]store.ExportRequest{
		"req1": {RequestID: "req1", User: "alice", Status: store.StatusQueued, SizeMB: 12},
	}}
	srv := NewServer(Config{}, lookup, nil, &fakeTrigger{})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status/req1", nil)
	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got statusResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Equal(t, "alice", got.User)
	require.Equal(t, int(store.StatusQueued), got.Status)
	require.Equal(t, int64(12), got.SizeMB)
}

func TestHandleStatusNotFound(t *testing.T) {
	srv := NewServer(Config{}, fakeStatusLookup{rows: map[string]store.ExportRequest{}}, nil, &fakeTrigger{})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status/nosuch", nil)
	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandleExportStreamsURLCGIRequest(t *testing.T) {
	lookup := fakeStatusLookup{rows: map[string]store.ExportRequest{
		"req1": {RequestID: "req1", Method: "url_cgi", Status: store.StatusQueued},
	}}
	exporter := &fakeExporter{}
	srv := NewServer(Config{}, lookup, exporter, &fakeTrigger{})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/export/req1", nil)
	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "tar-bytes-for-req1", rr.Body.String())
	require.Equal(t, "application/x-tar", rr.Header().Get("Content-Type"))
}

func TestHandleExportRejectsNonCGIMethod(t *testing.T) {
	lookup := fakeStatusLookup{rows: map[string]store.ExportRequest{
		"req1": {RequestID: "req1", Method: "staging"},
	}}
	srv := NewServer(Config{}, lookup, &fakeExporter{}, &fakeTrigger{})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/export/req1", nil)
	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestHandleExportWithoutExporterConfigured(t *testing.T) {
	srv := NewServer(Config{}, fakeStatusLookup{}, nil, &fakeTrigger{})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/export/req1", nil)
	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusNotImplemented, rr.Code)
}

func TestHandleTriggerWithoutSecretAllowsAnyRequest(t *testing.T) {
	trigger := &fakeTrigger{}
	srv := NewServer(Config{}, fakeStatusLookup{}, nil, trigger)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/trigger", nil)
	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusAccepted, rr.Code)
	require.True(t, trigger.called)
}

func TestHandleTriggerRejectsMissingBearerWhenSecretConfigured(t *testing.T) {
	trigger := &fakeTrigger{}
	srv := NewServer(Config{JWTSecret: []byte("s3cr3t")}, fakeStatusLookup{}, nil, trigger)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/trigger", nil)
	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.False(t, trigger.called)
}

func TestHandleTriggerAcceptsValidBearer(t *testing.T) {
	secret := []byte("s3cr3t")
	trigger := &fakeTrigger{}
	srv := NewServer(Config{JWTSecret: secret}, fakeStatusLookup{}, nil, trigger)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "operator",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(secret)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/trigger", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusAccepted, rr.Code)
	require.True(t, trigger.called)
}

func TestHandleTriggerRejectsWrongSigningMethod(t *testing.T) {
	srv := NewServer(Config{JWTSecret: []byte("s3cr3t")}, fakeStatusLookup{}, nil, &fakeTrigger{})

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": "operator"})
	signed, err := token.SignedString([]byte("s3cr3t"))
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/trigger", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHandleTriggerPropagatesError(t *testing.T) {
	trigger := &fakeTrigger{err: errors.New("claim pass boom")}
	srv := NewServer(Config{}, fakeStatusLookup{}, nil, trigger)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/trigger", nil)
	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
}
