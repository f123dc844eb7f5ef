package diag

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilCollectorDiscards(t *testing.T) {
	var c *Collector
	c.Warn("ignored", "tag", "x")
	assert.Nil(t, c.Items())
	assert.Equal(t, 0, c.Len())
	assert.Nil(t, c.With("path", "a.py"))
}

func TestWarnRecordsContext(t *testing.T) {
	c := NewCollector()
	c.Warn("unknown tag", "tag", "foo")
	c.Info("no context")

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, SeverityWarning, items[0].Severity)
	assert.Equal(t, "unknown tag", items[0].Message)
	assert.Equal(t, map[string]string{"tag": "foo"}, items[0].Context)
	assert.Equal(t, SeverityInfo, items[1].Severity)
	assert.Nil(t, items[1].Context)
}

func TestWithSharesStorage(t *testing.T) {
	c := NewCollector()
	scoped := c.With("path", "slides/nb_intro.py")
	scoped.Warn("unknown tag", "tag", "foo")

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "slides/nb_intro.py", items[0].Context["path"])
	assert.Equal(t, "foo", items[0].Context["tag"])
}

func TestConcurrentAppend(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.With("worker", "w").Warn("x")
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, c.Len())
}

func TestLogReplaysIntoLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c := NewCollector()
	c.Warn("unknown tag for code cell", "tag", "foo")
	c.Log(context.Background(), logger)

	out := buf.String()
	assert.True(t, strings.Contains(out, `"level":"WARN"`), out)
	assert.True(t, strings.Contains(out, `"tag":"foo"`), out)
}
