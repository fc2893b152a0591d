// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package httplogger provides a http.RoundTripper middleware that logs HTTP
// requests and responses.
package httplogger

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.astrophena.name/dingtalk/internal/logger"
)

// New returns a http.RoundTripper that logs every round trip made by t at
// [logger.LevelTrace]. Values of the query parameters named in redact are
// replaced with [logger.Expunged] in the logged URL.
func New(t http.RoundTripper, log *slog.Logger, redact ...string) http.RoundTripper {
	if t == nil {
		t = http.DefaultTransport
	}
	return &loggingTransport{transport: t, log: log, redact: redact}
}

type loggingTransport struct {
	transport http.RoundTripper
	log       *slog.Logger
	redact    []string
}

func (t *loggingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()
	start := time.Now()
	u := t.redactURL(r.URL)
	t.log.Log(ctx, logger.LevelTrace, "HTTP request", "method", r.Method, "url", u)

	resp, err := t.transport.RoundTrip(r)

	attrs := []any{"method", r.Method, "url", u, "duration", time.Since(start)}
	if err != nil {
		t.log.Log(ctx, logger.LevelTrace, "HTTP request failed", append(attrs, "err", err)...)
		return resp, err
	}
	t.log.Log(ctx, logger.LevelTrace, "HTTP response", append(attrs, "status", resp.StatusCode)...)
	return resp, nil
}

func (t *loggingTransport) redactURL(u *url.URL) string {
	if len(t.redact) == 0 || u.RawQuery == "" {
		return u.String()
	}
	q := u.Query()
	for _, key := range t.redact {
		if q.Has(key) {
			q.Set(key, logger.Expunged)
		}
	}
	redacted := *u
	redacted.RawQuery = q.Encode()
	return redacted.String()
}
