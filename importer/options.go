package importer

import (
	"github.com/rs/zerolog"

	"github.com/uyuni-project/dbjson/progress"
)

const (
	DefaultMaxPendingValues   = 200
	DefaultCommitEveryRows    = 100
	DefaultCommitEveryFlushes = 10
)

// Options tunes batching and the periodic commits. Every periodic commit
// makes the rows imported so far permanent, a failing import is therefore
// never rolled back as a whole.
type Options struct {
	// MaxPendingValues bounds the bind values held by the insert batch.
	MaxPendingValues int
	// CommitEveryRows and CommitEveryFlushes trigger a commit, whichever
	// is reached first.
	CommitEveryRows    int
	CommitEveryFlushes int
	// CountEntriesFirst makes the stream importer scan the document once
	// to size the progress events; MaxEntries is used otherwise.
	CountEntriesFirst bool
	MaxEntries        int64
}

func DefaultOptions() Options {
	return Options{
		MaxPendingValues:   DefaultMaxPendingValues,
		CommitEveryRows:    DefaultCommitEveryRows,
		CommitEveryFlushes: DefaultCommitEveryFlushes,
	}
}

func (o Options) withDefaults() Options {
	defaults := DefaultOptions()
	if o.MaxPendingValues <= 0 {
		o.MaxPendingValues = defaults.MaxPendingValues
	}
	if o.CommitEveryRows <= 0 {
		o.CommitEveryRows = defaults.CommitEveryRows
	}
	if o.CommitEveryFlushes <= 0 {
		o.CommitEveryFlushes = defaults.CommitEveryFlushes
	}
	return o
}

type Option func(*JSONImporter)

func WithOptions(options Options) Option {
	return func(i *JSONImporter) {
		i.options = options.withDefaults()
	}
}

func WithProgress(listener progress.Listener) Option {
	return func(i *JSONImporter) {
		if listener != nil {
			i.progress = listener
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(i *JSONImporter) {
		i.logger = logger
	}
}
