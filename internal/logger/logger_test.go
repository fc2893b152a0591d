// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package logger

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"go.astrophena.name/dingtalk/internal/testutil"
)

func TestLogfWriter(t *testing.T) {
	t.Parallel()

	var (
		logged  bool
		message string
	)
	logf := func(format string, args ...any) {
		logged = true
		message = fmt.Sprintf(format, args...)
	}
	Logf(logf).Write([]byte("hello"))
	testutil.AssertEqual(t, logged, true)
	testutil.AssertEqual(t, message, "hello")
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		"empty":        {in: "", want: slog.LevelInfo},
		"debug":        {in: "debug", want: slog.LevelDebug},
		"upper case":   {in: "WARN", want: slog.LevelWarn},
		"trace":        {in: "trace", want: slog.LevelDebug - 4},
		"offset":       {in: "info+2", want: slog.LevelInfo + 2},
		"negative":     {in: "error-1", want: slog.LevelError - 1},
		"unknown":      {in: "loud", wantErr: true},
		"invalid offs": {in: "info+x", wantErr: true},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := ParseLevel(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseLevel(%q): want error, got none", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			testutil.AssertEqual(t, got, tc.want)
		})
	}
}

func TestHandlerRedacts(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, Options{Redact: []string{"token"}}))
	log.Info("configured", "token", "very-secret", "endpoint", "https://example.com")

	out := buf.String()
	if strings.Contains(out, "very-secret") {
		t.Fatalf("output leaks redacted value: %q", out)
	}
	if !strings.Contains(out, Expunged) {
		t.Fatalf("output %q does not contain %q", out, Expunged)
	}
	if !strings.Contains(out, "https://example.com") {
		t.Fatalf("output %q lost a regular attribute", out)
	}
}

func TestHandlerLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, Options{Level: slog.LevelWarn}))
	log.Info("hidden")
	log.Warn("shown", "error", errors.New("boom"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info message logged at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "boom") {
		t.Fatalf("warn message missing: %q", out)
	}
}
