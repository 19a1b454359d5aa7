// Package config reads the pipeline tuning file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/uyuni-project/dbjson/dumper"
	"github.com/uyuni-project/dbjson/importer"
	"github.com/uyuni-project/dbjson/storage"
)

// Options tunes the export and import pipelines. Zero values mean default.
type Options struct {
	ChunkSize          int    `yaml:"chunk_size"`
	KeysetFactor       int    `yaml:"keyset_factor"`
	MaxPendingValues   int    `yaml:"max_pending_values"`
	CommitEveryRows    int    `yaml:"commit_every_rows"`
	CommitEveryFlushes int    `yaml:"commit_every_flushes"`
	CountEntriesFirst  bool   `yaml:"count_entries_first"`
	MaxEntries         int64  `yaml:"max_entries"`
	Compression        string `yaml:"compression"`
	ProgressEvery      int64  `yaml:"progress_every"`
}

func Default() *Options {
	defaults := importer.DefaultOptions()
	return &Options{
		ChunkSize:          dumper.DefaultChunkSize,
		KeysetFactor:       dumper.DefaultKeysetFactor,
		MaxPendingValues:   defaults.MaxPendingValues,
		CommitEveryRows:    defaults.CommitEveryRows,
		CommitEveryFlushes: defaults.CommitEveryFlushes,
		Compression:        string(storage.None),
		ProgressEvery:      1000,
	}
}

// Load reads path over the defaults. Unknown keys are rejected.
func Load(path string) (*Options, error) {
	options := Default()
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(options); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := options.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options in %s: %w", path, err)
	}
	return options, nil
}

func (o *Options) Validate() error {
	if o.ChunkSize < 0 || o.KeysetFactor < 0 || o.MaxPendingValues < 0 ||
		o.CommitEveryRows < 0 || o.CommitEveryFlushes < 0 || o.MaxEntries < 0 {
		return fmt.Errorf("sizes and thresholds must not be negative")
	}
	_, err := storage.ParseCompression(o.Compression)
	return err
}

// Merge overrides o with the flags the user explicitly set. Keys are the
// yaml names of the fields.
func (o *Options) Merge(flags map[string]interface{}) error {
	for key, value := range flags {
		var ok bool
		switch key {
		case "chunk_size":
			o.ChunkSize, ok = value.(int)
		case "keyset_factor":
			o.KeysetFactor, ok = value.(int)
		case "max_pending_values":
			o.MaxPendingValues, ok = value.(int)
		case "commit_every_rows":
			o.CommitEveryRows, ok = value.(int)
		case "commit_every_flushes":
			o.CommitEveryFlushes, ok = value.(int)
		case "count_entries_first":
			o.CountEntriesFirst, ok = value.(bool)
		case "max_entries":
			o.MaxEntries, ok = value.(int64)
		case "compression":
			o.Compression, ok = value.(string)
		case "progress_every":
			o.ProgressEvery, ok = value.(int64)
		default:
			return fmt.Errorf("unknown option %s", key)
		}
		if !ok {
			return fmt.Errorf("invalid value %v (%T) for option %s", value, value, key)
		}
	}
	return o.Validate()
}

// ExportOptions returns the exporter settings.
func (o *Options) ExportOptions() []dumper.Option {
	return []dumper.Option{dumper.WithChunkSize(o.ChunkSize), dumper.WithKeysetFactor(o.KeysetFactor)}
}

// ImportOptions returns the importer settings.
func (o *Options) ImportOptions() importer.Options {
	return importer.Options{
		MaxPendingValues:   o.MaxPendingValues,
		CommitEveryRows:    o.CommitEveryRows,
		CommitEveryFlushes: o.CommitEveryFlushes,
		CountEntriesFirst:  o.CountEntriesFirst,
		MaxEntries:         o.MaxEntries,
	}
}
