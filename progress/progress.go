// Package progress carries pipeline progress to whoever wants to observe it.
// Listeners never influence the pipeline.
package progress

import (
	"github.com/rs/zerolog"
)

// Event is emitted by the exporter before every page and once after every
// non-empty table, and by the stream importer once per imported row.
type Event struct {
	Table         string
	TableIndex    int
	TableCount    int
	RowsProcessed int64
	TotalRows     int64
}

// Done reports whether every row of the table was processed.
func (e Event) Done() bool {
	return e.TotalRows > 0 && e.RowsProcessed >= e.TotalRows
}

type Listener interface {
	OnProgress(event Event)
	OnStatus(message string)
}

// Nop discards everything.
type Nop struct{}

func (Nop) OnProgress(Event) {}
func (Nop) OnStatus(string) {}

// LogListener writes status lines at info level and progress events at
// debug level, every `every` rows and on table completion.
type LogListener struct {
	logger zerolog.Logger
	every  int64
	last   map[string]int64
}

func NewLogListener(logger zerolog.Logger, every int64) *LogListener {
	return &LogListener{logger: logger, every: every, last: make(map[string]int64)}
}

func (l *LogListener) OnProgress(event Event) {
	last := l.last[event.Table]
	if !event.Done() && l.every > 0 && event.RowsProcessed-last < l.every && event.RowsProcessed != 0 {
		return
	}
	l.last[event.Table] = event.RowsProcessed
	l.logger.Debug().
		Str("table", event.Table).
		Int("table_index", event.TableIndex).
		Int("table_count", event.TableCount).
		Int64("rows", event.RowsProcessed).
		Int64("total", event.TotalRows).
		Msg("progress")
}

func (l *LogListener) OnStatus(message string) {
	l.logger.Info().Msg(message)
}

// Recorder keeps every event and status line, mostly useful in tests.
type Recorder struct {
	Events   []Event
	Statuses []string
}

func (r *Recorder) OnProgress(event Event) {
	r.Events = append(r.Events, event)
}

func (r *Recorder) OnStatus(message string) {
	r.Statuses = append(r.Statuses, message)
}
