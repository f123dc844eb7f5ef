// Package diag collects non-fatal diagnostics raised while processing
// course material.
package diag

import (
	"context"
	"log/slog"
	"sort"
	"sync"
)

// Severity classifies a diagnostic.
type Severity string

// Severities.
const (
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Diagnostic is a single advisory record.
type Diagnostic struct {
	Severity Severity          `json:"severity"`
	Message  string            `json:"message"`
	Context  map[string]string `json:"context,omitempty"`
}

type store struct {
	mu    sync.Mutex
	items []Diagnostic
}

// Collector accumulates diagnostics. A nil *Collector discards everything.
// It is safe for concurrent use.
type Collector struct {
	st   *store
	base map[string]string
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{st: &store{}}
}

// With returns a collector that shares storage with c and adds kv
// (alternating keys and values) to the context of every record.
func (c *Collector) With(kv ...string) *Collector {
	if c == nil {
		return nil
	}
	merged := make(map[string]string, len(c.base)+len(kv)/2)
	for k, v := range c.base {
		merged[k] = v
	}
	for k, v := range pairs(kv) {
		merged[k] = v
	}
	return &Collector{st: c.st, base: merged}
}

// Warn records a warning.
func (c *Collector) Warn(msg string, kv ...string) {
	c.add(SeverityWarning, msg, kv)
}

// Info records an informational message.
func (c *Collector) Info(msg string, kv ...string) {
	c.add(SeverityInfo, msg, kv)
}

func (c *Collector) add(sev Severity, msg string, kv []string) {
	if c == nil {
		return
	}
	var ctx map[string]string
	if len(c.base) > 0 || len(kv) >= 2 {
		ctx = make(map[string]string, len(c.base)+len(kv)/2)
		for k, v := range c.base {
			ctx[k] = v
		}
		for k, v := range pairs(kv) {
			ctx[k] = v
		}
	}
	c.st.mu.Lock()
	c.st.items = append(c.st.items, Diagnostic{Severity: sev, Message: msg, Context: ctx})
	c.st.mu.Unlock()
}

// Items returns a copy of the recorded diagnostics in arrival order.
func (c *Collector) Items() []Diagnostic {
	if c == nil {
		return nil
	}
	c.st.mu.Lock()
	defer c.st.mu.Unlock()
	out := make([]Diagnostic, len(c.st.items))
	copy(out, c.st.items)
	return out
}

// Len returns the number of recorded diagnostics.
func (c *Collector) Len() int {
	if c == nil {
		return 0
	}
	c.st.mu.Lock()
	defer c.st.mu.Unlock()
	return len(c.st.items)
}

// Log replays every diagnostic into logger.
func (c *Collector) Log(ctx context.Context, logger *slog.Logger) {
	for _, d := range c.Items() {
		level := slog.LevelWarn
		if d.Severity == SeverityInfo {
			level = slog.LevelInfo
		}
		keys := make([]string, 0, len(d.Context))
		for k := range d.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		attrs := make([]slog.Attr, 0, len(keys))
		for _, k := range keys {
			attrs = append(attrs, slog.String(k, d.Context[k]))
		}
		logger.LogAttrs(ctx, level, d.Message, attrs...)
	}
}

func pairs(kv []string) map[string]string {
	m := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return m
}
