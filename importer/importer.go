// SPDX-FileCopyrightText: 2024 SUSE LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package importer replays an export document into a store as batched
// inserts. Rows are committed periodically: a failing import leaves
// everything committed before the failure in place.
package importer

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/uyuni-project/dbjson/jsonstream"
	"github.com/uyuni-project/dbjson/platform"
	"github.com/uyuni-project/dbjson/progress"
	"github.com/uyuni-project/dbjson/sqlUtil"
	"github.com/uyuni-project/dbjson/storage"
	"github.com/uyuni-project/dbjson/store"
)

// JSONImporter loads a whole document in memory before replaying it.
type JSONImporter struct {
	store    store.Store
	platform platform.Platform
	mapping  *TableNameMapping
	batch    *sqlUtil.MultipleInsert
	options  Options
	progress progress.Listener
	logger   zerolog.Logger

	rowsSinceCommit    int
	flushesSinceCommit int
	identityTables     map[string]bool
	suspended          bool
	warnings           []SchemaMismatchWarning
}

// NewJSONImporter reads the store table names once; they are used for the
// lifetime of the importer.
func NewJSONImporter(s store.Store, opts ...Option) (*JSONImporter, error) {
	tables, err := s.ListTables()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tables))
	for _, table := range tables {
		names = append(names, table.Name)
	}

	i := &JSONImporter{
		store:          s,
		platform:       s.Platform(),
		mapping:        NewTableNameMapping(names),
		batch:          sqlUtil.NewMultipleInsert(s, s.Platform()),
		options:        DefaultOptions(),
		progress:       progress.Nop{},
		logger:         log.Logger,
		identityTables: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Mapping returns the table name resolution used by the importer.
func (i *JSONImporter) Mapping() *TableNameMapping {
	return i.mapping
}

// Warnings returns the tables skipped by the last import.
func (i *JSONImporter) Warnings() []SchemaMismatchWarning {
	return i.warnings
}

// Import parses the whole document, then inserts it.
func (i *JSONImporter) Import(r io.Reader) error {
	builder := &documentBuilder{}
	if err := jsonstream.Parse(r, &documentListener{handler: builder}); err != nil {
		return err
	}

	return i.run(func() error {
		for index, data := range builder.tables {
			table, exists := i.mapping.Resolve(data.name)
			if !exists {
				i.skipTable(data.name)
				continue
			}
			i.progress.OnStatus("Executing queries for table " + table)
			event := progress.Event{Table: table, TableIndex: index, TableCount: len(builder.tables), TotalRows: int64(len(data.rows))}
			i.progress.OnProgress(event)

			if err := i.BeforeTable(table); err != nil {
				return err
			}
			for _, row := range data.rows {
				if err := i.Insert(table, row, nil); err != nil {
					return err
				}
				event.RowsProcessed++
				i.progress.OnProgress(event)
			}
			if err := i.AfterTable(table); err != nil {
				return err
			}
		}
		return nil
	})
}

// ImportFile imports a local file or s3:// object, compression is taken
// from the extension.
func (i *JSONImporter) ImportFile(path string) (err error) {
	source, err := storage.OpenSource(path, storage.CompressionFromPath(path))
	if err != nil {
		return err
	}
	defer closeSource(source, path, &err, i.logger)
	return i.Import(source)
}

func closeSource(source io.Closer, path string, err *error, logger zerolog.Logger) {
	closeErr := source.Close()
	if closeErr == nil {
		return
	}
	if *err == nil {
		*err = fmt.Errorf("failed to close %s: %w", path, closeErr)
		return
	}
	logger.Warn().Err(closeErr).Msgf("failed to close %s", path)
}

func (i *JSONImporter) skipTable(name string) {
	warning := SchemaMismatchWarning{Table: name}
	i.warnings = append(i.warnings, warning)
	i.logger.Warn().Msgf("Table %s does not exist! Skipping", name)
	i.progress.OnStatus(warning.Error())
}

// Insert queues one row, flushing the batch and committing as the
// thresholds require. Types may be nil.
func (i *JSONImporter) Insert(table string, row sqlUtil.Row, types map[string]sqlUtil.BindType) error {
	row = row.StripSentinel()
	if i.batch.Pending() > 0 && i.batch.PendingValues()+len(row) > i.options.MaxPendingValues {
		if err := i.Flush(); err != nil {
			return err
		}
	}
	i.batch.AddInsert(table, row, types)
	i.rowsSinceCommit++

	if i.rowsSinceCommit >= i.options.CommitEveryRows || i.flushesSinceCommit >= i.options.CommitEveryFlushes {
		return i.periodicCommit()
	}
	return nil
}

// Flush sends the queued rows to the store.
func (i *JSONImporter) Flush() error {
	if i.batch.Pending() == 0 {
		return nil
	}
	if err := i.batch.Execute(); err != nil {
		return err
	}
	i.flushesSinceCommit++
	return nil
}

func (i *JSONImporter) periodicCommit() error {
	if !i.store.InTransaction() {
		return nil
	}
	if err := i.Flush(); err != nil {
		return err
	}
	if err := i.store.Commit(); err != nil {
		return err
	}
	i.logger.Trace().Msgf("committed after %d rows and %d flushes", i.rowsSinceCommit, i.flushesSinceCommit)
	i.rowsSinceCommit = 0
	i.flushesSinceCommit = 0
	return i.store.BeginTransaction()
}

// BeforeTable flushes the batch and enables identity inserts for tables
// having an identity column, on the platforms needing it.
func (i *JSONImporter) BeforeTable(table string) error {
	if err := i.Flush(); err != nil {
		return err
	}
	if !i.platform.IdentityInsert {
		return nil
	}
	value, err := i.store.QueryScalar(i.platform.HasIdentityQuery, table)
	if err != nil {
		return err
	}
	if !truthy(value) {
		return nil
	}
	if err := i.store.ExecuteStatement(fmt.Sprintf(i.platform.IdentityInsertOn, i.platform.QuoteIdentifier(table))); err != nil {
		return err
	}
	i.identityTables[table] = true
	return nil
}

// AfterTable flushes the batch and disables what BeforeTable enabled.
func (i *JSONImporter) AfterTable(table string) error {
	if err := i.Flush(); err != nil {
		return err
	}
	if !i.identityTables[table] {
		return nil
	}
	delete(i.identityTables, table)
	return i.store.ExecuteStatement(fmt.Sprintf(i.platform.IdentityInsertOff, i.platform.QuoteIdentifier(table)))
}

func (i *JSONImporter) before() error {
	if !i.platform.HasForeignKeyHooks() {
		i.logger.Debug().Msgf("%s keeps foreign key checks during the import", i.platform.Name)
		return nil
	}
	i.suspended = true
	for _, statement := range i.platform.FKSuspendStatements {
		if err := i.store.ExecuteStatement(statement); err != nil {
			return err
		}
	}
	return nil
}

func (i *JSONImporter) after() error {
	for _, statement := range i.platform.FKResumeStatements {
		if err := i.store.ExecuteStatement(statement); err != nil {
			return err
		}
	}
	i.suspended = false
	return nil
}

// run brackets body with the platform hooks and the transaction.
func (i *JSONImporter) run(body func() error) error {
	i.rowsSinceCommit = 0
	i.flushesSinceCommit = 0
	i.warnings = nil

	err := i.runInTransaction(body)
	if err != nil {
		i.abort()
	}
	return err
}

func (i *JSONImporter) runInTransaction(body func() error) error {
	outside := i.platform.SuspendOutsideTransaction
	if outside {
		if err := i.before(); err != nil {
			return err
		}
	}
	if err := i.store.BeginTransaction(); err != nil {
		return err
	}
	if !outside {
		if err := i.before(); err != nil {
			return err
		}
	}
	if err := body(); err != nil {
		return err
	}
	if err := i.Flush(); err != nil {
		return err
	}
	if !outside {
		if err := i.after(); err != nil {
			return err
		}
	}
	if err := i.store.Commit(); err != nil {
		return err
	}
	if outside {
		return i.after()
	}
	return nil
}

// abort rolls back the open transaction and restores the session state as
// far as possible. Failures are logged, the original error is what counts.
func (i *JSONImporter) abort() {
	if pending := i.batch.Pending(); pending > 0 {
		i.logger.Debug().Msgf("discarding %d queued rows", pending)
		i.batch = sqlUtil.NewMultipleInsert(i.store, i.platform)
	}
	if i.store.InTransaction() {
		if err := i.store.Rollback(); err != nil {
			i.logger.Warn().Err(err).Msg("rollback failed")
		}
	}
	for table := range i.identityTables {
		delete(i.identityTables, table)
		if err := i.store.ExecuteStatement(fmt.Sprintf(i.platform.IdentityInsertOff, i.platform.QuoteIdentifier(table))); err != nil {
			i.logger.Warn().Err(err).Msgf("failed to disable identity insert on %s", table)
		}
	}
	if i.suspended {
		if err := i.after(); err != nil {
			i.logger.Warn().Err(err).Msg("failed to resume foreign key checks")
		}
		i.suspended = false
	}
	i.logger.Warn().Msg("import failed, rows committed before the failure are kept")
}

func truthy(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case int64:
		return v != 0
	case int32:
		return v != 0
	case int:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v != "" && v != "0"
	default:
		return true
	}
}
