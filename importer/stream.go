package importer

import (
	"github.com/uyuni-project/dbjson/jsonstream"
	"github.com/uyuni-project/dbjson/storage"
	"github.com/uyuni-project/dbjson/store"
)

// JSONStreamImporter imports documents of any size, the document is never
// held in memory.
type JSONStreamImporter struct {
	*JSONImporter
	CountEntriesFirst bool
	MaxEntries        int64
}

func NewJSONStreamImporter(s store.Store, opts ...Option) (*JSONStreamImporter, error) {
	importer, err := NewJSONImporter(s, opts...)
	if err != nil {
		return nil, err
	}
	return &JSONStreamImporter{
		JSONImporter:      importer,
		CountEntriesFirst: importer.options.CountEntriesFirst,
		MaxEntries:        importer.options.MaxEntries,
	}, nil
}

// Import optionally scans the document once to count its rows, then
// replays it.
func (i *JSONStreamImporter) Import(src storage.Source) error {
	maxEntries := i.MaxEntries
	tableCount := 0
	if i.CountEntriesFirst {
		i.progress.OnStatus("Scanning json file...")
		counter := &CountListener{}
		if err := jsonstream.Parse(src, counter); err != nil {
			return err
		}
		if err := src.Rewind(); err != nil {
			return err
		}
		i.progress.OnStatus("Scan OK! Starting import...")
		maxEntries = counter.EntryCount()
		tableCount = counter.TableCount()
	}

	listener := NewImportListener(i.JSONImporter, maxEntries, tableCount)
	return i.run(func() error {
		return jsonstream.Parse(src, listener)
	})
}

// ImportFile streams a local file or s3:// object.
func (i *JSONStreamImporter) ImportFile(path string) (err error) {
	source, err := storage.OpenSource(path, storage.CompressionFromPath(path))
	if err != nil {
		return err
	}
	defer closeSource(source, path, &err, i.logger)
	return i.Import(source)
}
