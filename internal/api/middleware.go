package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ar1ocker/currencyledger/internal/database"
	"github.com/ar1ocker/currencyledger/internal/hmacauth"
	"github.com/ar1ocker/currencyledger/internal/ledgererr"
	"github.com/ar1ocker/currencyledger/internal/models"
	"github.com/ar1ocker/currencyledger/internal/permission"
)

type ctxKey int

const (
	ctxKeyService ctxKey = iota
	ctxKeyPermissions
)

// serviceFromContext returns the authenticated caller's name, set by
// authMiddleware.
func serviceFromContext(ctx context.Context) string {
	s, _ := ctx.Value(ctxKeyService).(string)
	return s
}

// permissionsFromContext returns the authenticated caller's parsed
// permission document, set by authMiddleware.
func permissionsFromContext(ctx context.Context) permission.Doc {
	d, _ := ctx.Value(ctxKeyPermissions).(permission.Doc)
	return d
}

// authMiddleware implements the HMAC Auth gate (spec.md §4.8), grounded on
// original_source's hmac_service_auth decorator: resolve the calling
// service by its header, check it's enabled, honor the global HMAC enable
// switch, then dispatch to the timestamp or Battlemetrics validator by
// ServiceAuth.IsBattlemetrics before letting the request through with the
// caller's name and parsed permission document attached to its context.
func authMiddleware(db *database.Store, cfg models.HMACConfig) func(http.Handler) http.Handler {
	timestampValidator := hmacauth.NewTimestampValidator(cfg.TimestampHeader, cfg.SignatureHeader, cfg.TimestampDeviation)
	battlemetricsValidator := hmacauth.NewBattlemetricsValidator(cfg.BattlemetricsHeader, cfg.TimestampDeviation)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			serviceName := r.Header.Get(cfg.ServiceHeader)
			if serviceName == "" {
				writeError(w, ledgererr.Auth("missing %s header", cfg.ServiceHeader))
				return
			}

			svc, err := db.GetServiceByName(r.Context(), serviceName)
			if err != nil {
				writeError(w, ledgererr.Auth("unknown service %q", serviceName))
				return
			}
			if !svc.Enabled {
				writeError(w, ledgererr.Auth("service %q is disabled", serviceName))
				return
			}

			if cfg.Enabled {
				auth, err := db.GetServiceAuth(r.Context(), svc.Id)
				if err != nil {
					writeError(w, ledgererr.Auth("service %q has no auth configured", serviceName))
					return
				}

				body, err := io.ReadAll(r.Body)
				if err != nil {
					writeError(w, ledgererr.Auth("could not read request body"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))

				headers := map[string]string{}
				for _, name := range []string{cfg.TimestampHeader, cfg.SignatureHeader, cfg.BattlemetricsHeader} {
					if v := r.Header.Get(name); v != "" {
						headers[name] = v
					}
				}

				validator := timestampValidator
				if auth.IsBattlemetrics {
					validator = battlemetricsValidator
				}

				if err := validator.Validate(auth.Key, headers, r.URL.Path, body, time.Now().UTC()); err != nil {
					writeError(w, err)
					return
				}
			}

			doc := permission.Parse(svc.Permissions)
			ctx := context.WithValue(r.Context(), ctxKeyService, svc.Name)
			ctx = context.WithValue(ctx, ctxKeyPermissions, doc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// loggingMiddleware records each request at info level, grounded on the
// teacher's zap-everywhere logging convention.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		zap.L().Info("request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}
