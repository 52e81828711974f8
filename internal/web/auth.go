// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/heliocore/drms-export/pkg/rlog"
)

// requireBearer protects the administrative trigger endpoint with an
// HS256-signed bearer token. An empty JWTSecret disables
// auth entirely (intended for local/dev use only).
func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if len(s.cfg.JWTSecret) == 0 {
			next.ServeHTTP(rw, r)
			return
		}

		rawtoken := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if rawtoken == "" {
			writeJSONError(rw, http.StatusUnauthorized, "missing bearer token")
			return
		}

		token, err := jwt.Parse(rawtoken, func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
			}
			return s.cfg.JWTSecret, nil
		})
		if err != nil || !token.Valid {
			rlog.Warnf("web: rejected trigger request: %v", err)
			writeJSONError(rw, http.StatusUnauthorized, "invalid bearer token")
			return
		}

		next.ServeHTTP(rw, r)
	})
}
