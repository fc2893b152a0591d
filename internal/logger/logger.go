// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package logger defines a type for writing to logs and a console
// [slog.Handler] used by command-line tools.
package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	sfmt "github.com/samber/slog-formatter"
)

// Logf is the basic logger type: a printf-like func. Like [log.Printf], the
// format need not end in a newline. Logf functions must be safe for concurrent
// use.
type Logf func(format string, args ...any)

// Write implements the [io.Writer] interface.
func (f Logf) Write(p []byte) (n int, err error) {
	f("%s", p)
	return len(p), nil
}

// Expunged replaces the values of redacted attributes.
const Expunged = "[EXPUNGED]"

// LevelTrace is one step below [slog.LevelDebug]. It is used for logging HTTP
// traffic.
const LevelTrace = slog.LevelDebug - 4

// Options configure a console handler.
type Options struct {
	// Level is the minimum level to log. Defaults to [slog.LevelInfo].
	Level slog.Leveler
	// Redact lists attribute keys whose values are replaced by [Expunged].
	Redact []string
	// NoColor disables colored output even on terminals.
	NoColor bool
}

// NewHandler returns a human-friendly [slog.Handler] that writes to w.
// Output is colored only when w is a terminal. Errors logged under the
// "err" or "error" keys are expanded to their message and type.
func NewHandler(w io.Writer, opts Options) slog.Handler {
	formatters := []sfmt.Formatter{
		sfmt.ErrorFormatter("err"),
		sfmt.ErrorFormatter("error"),
	}
	for _, key := range opts.Redact {
		formatters = append(formatters, sfmt.FormatByKey(key, func(slog.Value) slog.Value {
			return slog.StringValue(Expunged)
		}))
	}

	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}

	return sfmt.NewFormatterHandler(formatters...)(
		tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.StampMilli,
			NoColor:    opts.NoColor || !isTerminal(w),
		}),
	)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ParseLevel parses a level name such as "debug" or "warn", optionally
// followed by a numeric offset like "info+2". Matching is case-insensitive.
// "trace" is one step below debug.
func ParseLevel(s string) (level slog.Level, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("logger: level %q: %w", s, err)
		}
	}()

	name := s
	offset := 0
	if i := strings.IndexAny(s, "+-"); i >= 0 {
		name = s[:i]
		offset, err = strconv.Atoi(s[i:])
		if err != nil {
			return 0, err
		}
	}
	switch strings.ToUpper(name) {
	case "TRACE":
		level = LevelTrace
	case "DEBUG":
		level = slog.LevelDebug
	case "", "INFO":
		level = slog.LevelInfo
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		return 0, errors.New("unknown name")
	}
	return level + slog.Level(offset), nil
}
