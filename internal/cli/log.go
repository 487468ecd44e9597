package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger that writes to w at the given level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs completion of an operation with its elapsed time.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Saved 12 nodes (84ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// =============================================================================
// Observability Hooks
// =============================================================================

// logHooks turns observability events into debug log lines. It is
// registered for --verbose runs.
type logHooks struct {
	logger *log.Logger
}

func (h *logHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h *logHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("http response", "method", method, "path", path, "status", status,
		"duration", d.Round(time.Millisecond))
}

func (h *logHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("http error", "method", method, "host", host, "path", path, "err", err)
}

func (h *logHooks) OnLayoutStart(_ context.Context, part string, nodes int) {
	h.logger.Debug("layout", "part", part, "nodes", nodes)
}

func (h *logHooks) OnLayoutComplete(_ context.Context, part string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("layout failed", "part", part, "err", err)
		return
	}
	h.logger.Debug("layout done", "part", part, "duration", d.Round(time.Microsecond))
}

func (h *logHooks) OnStoreGet(_ context.Context, backend, name string, found bool) {
	h.logger.Debug("store get", "backend", backend, "name", name, "found", found)
}

func (h *logHooks) OnStorePut(_ context.Context, backend, name string, nodes int, err error) {
	if err != nil {
		h.logger.Warn("store put failed", "backend", backend, "name", name, "err", err)
		return
	}
	h.logger.Debug("store put", "backend", backend, "name", name, "nodes", nodes)
}
