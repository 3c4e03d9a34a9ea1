// Package progress reports analysis progress without ever stalling the
// workers that produce it.
package progress

import (
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/atomic"
)

// EventKind says what happened.
type EventKind int

const (
	SourceStarted EventKind = iota + 1
	UnitDone
	UnitFailed
	SourceDone
)

// Event is one progress notification. Units is only set on SourceDone.
type Event struct {
	Kind   EventKind
	Source string
	Unit   string
	Units  int
	Err    error
}

// Sink receives events from many goroutines. Report must not block.
type Sink interface {
	Report(Event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Report(Event) {}

// DefaultEvery is the unit interval between progress lines.
const DefaultEvery = 1000

// Logger is a Sink that logs through slog from its own goroutine. Events are
// buffered and dropped when the buffer is full.
type Logger struct {
	logger *slog.Logger
	every  int
	events chan Event
	done   chan struct{}
	once   sync.Once

	dropped atomic.Int64
	start   time.Time
}

// NewLogger starts a Logger that emits a line every `every` units.
func NewLogger(logger *slog.Logger, buffer, every int) *Logger {
	if buffer <= 0 {
		buffer = 256
	}
	if every <= 0 {
		every = DefaultEvery
	}
	l := &Logger{
		logger: logger,
		every:  every,
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
		start:  time.Now(),
	}
	go l.loop()
	return l
}

// Report queues ev, dropping it if the buffer is full.
func (l *Logger) Report(ev Event) {
	select {
	case l.events <- ev:
	default:
		l.dropped.Inc()
	}
}

// Dropped returns the number of events discarded so far.
func (l *Logger) Dropped() int64 {
	return l.dropped.Load()
}

// Close drains queued events and logs a summary. Report must not be called
// after Close.
func (l *Logger) Close() {
	l.once.Do(func() {
		close(l.events)
		<-l.done
	})
}

func (l *Logger) loop() {
	defer close(l.done)
	var units, failed, sources uint64
	for ev := range l.events {
		switch ev.Kind {
		case SourceStarted:
			l.logger.Debug("analyzing source", "source", ev.Source)
		case UnitDone, UnitFailed:
			units++
			if ev.Kind == UnitFailed {
				failed++
				l.logger.Debug("unit failed", "source", ev.Source, "unit", ev.Unit, "error", ev.Err)
			}
			if units%uint64(l.every) == 0 {
				l.logger.Info("progress", "units", humanize.Comma(int64(units)), "failed", humanize.Comma(int64(failed)))
			}
		case SourceDone:
			sources++
			l.logger.Debug("source done", "source", ev.Source, "units", humanize.Comma(int64(ev.Units)), "error", ev.Err)
		}
	}
	l.logger.Info("analysis finished",
		"sources", humanize.Comma(int64(sources)),
		"units", humanize.Comma(int64(units)),
		"failed", humanize.Comma(int64(failed)),
		"dropped_events", humanize.Comma(l.dropped.Load()),
		"elapsed", humanize.RelTime(l.start, time.Now(), "", ""),
	)
}
