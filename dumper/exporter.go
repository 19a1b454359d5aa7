// SPDX-FileCopyrightText: 2024 SUSE LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package dumper writes the content of every table of a store as a single
// JSON document: {"table":[{"column":value,...},...],...}.
package dumper

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/uyuni-project/dbjson/progress"
	"github.com/uyuni-project/dbjson/schemareader"
	"github.com/uyuni-project/dbjson/store"
)

// Exporter streams tables page by page, keeping at most one page in memory.
type Exporter struct {
	store        store.Store
	chunkSize    int
	keysetFactor int
	progress     progress.Listener
	logger       zerolog.Logger
}

func NewExporter(s store.Store, opts ...Option) *Exporter {
	e := &Exporter{
		store:        s,
		chunkSize:    DefaultChunkSize,
		keysetFactor: DefaultKeysetFactor,
		progress:     progress.Nop{},
		logger:       log.Logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export writes the document to sink and returns the sum of the row counts
// taken before each table was read. A table changing during the export can
// make it differ from the number of rows written.
func (e *Exporter) Export(sink io.Writer) (int64, error) {
	tables, err := e.store.ListTables()
	if err != nil {
		return 0, err
	}

	writer := newJSONWriter(sink)
	writer.beginDocument()
	var total int64
	for i, table := range tables {
		count, err := e.exportTable(writer, table, i, len(tables))
		if err != nil {
			return total, err
		}
		total += count
	}
	writer.endDocument()
	if err := writer.flush(); err != nil {
		return total, fmt.Errorf("failed to write export: %w", err)
	}
	e.logger.Debug().Msgf("exported %d rows from %d tables", total, len(tables))
	return total, nil
}

// ExportToFile exports into a newly created file. The file is removed when the
// export fails. A failure to close the file is only reported when the export
// itself succeeded.
func (e *Exporter) ExportToFile(path string) (total int64, err error) {
	file, err := create(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		closeErr := file.Close()
		if err != nil {
			if removeErr := os.Remove(path); removeErr != nil {
				e.logger.Warn().Err(removeErr).Msgf("failed to remove incomplete %s", path)
			}
			return
		}
		err = closeErr
	}()
	return e.Export(file)
}

func (e *Exporter) exportTable(writer *jsonWriter, table schemareader.Table, index int, tableCount int) (int64, error) {
	count, err := e.store.CountRows(table.Name)
	if err != nil {
		return 0, err
	}

	page := store.Page{Size: e.chunkSize}
	key, singleKey := table.SinglePrimaryKey()
	if singleKey {
		page.KeyColumn = key
		page.Keyset = count > int64(e.keysetFactor)*int64(e.chunkSize)
	}
	e.logger.Debug().Msgf("exporting %d rows of %s (keyset: %t)", count, table.Name, page.Keyset)

	event := progress.Event{Table: table.Name, TableIndex: index, TableCount: tableCount, TotalRows: count}
	writer.beginTable(table.Name)
	var processed int64
	for processed < count {
		event.RowsProcessed = processed
		e.progress.OnProgress(event)

		rows, err := e.store.FetchPage(table.Name, page)
		if err != nil {
			return processed, err
		}
		for _, row := range rows {
			writer.writeRow(row.StripSentinel())
		}
		if writer.err != nil {
			return processed, fmt.Errorf("failed to write rows of %s: %w", table.Name, writer.err)
		}
		processed += int64(len(rows))

		// the table shrank under us, or this was the last page
		if len(rows) < page.Size {
			break
		}
		if page.Keyset {
			page.After, _ = rows[len(rows)-1].Get(page.KeyColumn)
		} else {
			page.Offset += int64(len(rows))
		}
	}
	writer.endTable()

	if processed != count {
		e.logger.Warn().Msgf("table %s changed during the export: %d rows counted, %d written", table.Name, count, processed)
	}
	if count > 0 {
		event.RowsProcessed = count
		e.progress.OnProgress(event)
	}
	return count, nil
}
