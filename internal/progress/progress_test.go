package progress

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLoggerSummarizes(t *testing.T) {
	t.Parallel()

	var out syncBuffer
	l := NewLogger(slog.New(slog.NewTextHandler(&out, nil)), 4096, 1000)
	l.Report(Event{Kind: SourceStarted, Source: "lib.jar"})
	for i := 0; i < 1500; i++ {
		l.Report(Event{Kind: UnitDone, Source: "lib.jar"})
	}
	l.Report(Event{Kind: UnitFailed, Source: "lib.jar", Unit: "Bad.class"})
	l.Report(Event{Kind: SourceDone, Source: "lib.jar", Units: 1501})
	l.Close()
	l.Close()

	got := out.String()
	assert.Contains(t, got, "msg=progress units=1,000")
	assert.Contains(t, got, "units=1,501")
	assert.Contains(t, got, "failed=1")
	assert.Contains(t, got, "sources=1")
	assert.Zero(t, l.Dropped())
}

func TestLoggerDropsWhenFull(t *testing.T) {
	t.Parallel()

	// A burst far larger than the buffer must not block the caller.
	var out syncBuffer
	l := NewLogger(slog.New(slog.NewTextHandler(&out, nil)), 1, 1)
	for i := 0; i < 10000; i++ {
		l.Report(Event{Kind: UnitDone})
	}
	l.Close()

	assert.True(t, strings.Contains(out.String(), "analysis finished"))
}

func TestNop(t *testing.T) {
	t.Parallel()

	var s Sink = Nop{}
	s.Report(Event{Kind: UnitDone})
}
