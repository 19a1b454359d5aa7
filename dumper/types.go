package dumper

import (
	"github.com/rs/zerolog"

	"github.com/uyuni-project/dbjson/progress"
)

const (
	DefaultChunkSize = 10000
	// DefaultKeysetFactor switches to keyset pagination for tables holding
	// more than factor times the chunk size.
	DefaultKeysetFactor = 10
)

type Option func(*Exporter)

func WithChunkSize(chunkSize int) Option {
	return func(e *Exporter) {
		if chunkSize > 0 {
			e.chunkSize = chunkSize
		}
	}
}

func WithKeysetFactor(factor int) Option {
	return func(e *Exporter) {
		if factor > 0 {
			e.keysetFactor = factor
		}
	}
}

func WithProgress(listener progress.Listener) Option {
	return func(e *Exporter) {
		if listener != nil {
			e.progress = listener
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Exporter) {
		e.logger = logger
	}
}
