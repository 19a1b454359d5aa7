// SPDX-FileCopyrightText: 2024 SUSE LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package platform describes the SQL dialect differences the import and
// export pipelines have to care about. Behaviour is selected from the
// descriptor fields, never from the concrete driver type.
package platform

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

type Name string

const (
	Generic  Name = "generic"
	Postgres Name = "postgres"
	MySQL    Name = "mysql"
	SQLite   Name = "sqlite"
	MSSQL    Name = "mssql"
)

// Platform is the capability descriptor of a relational store.
type Platform struct {
	Name Name
	// Drivers lists the database/sql driver names served by this platform.
	Drivers []string

	// IdentityInsert is set for surrogate-key platforms that refuse explicit
	// values in identity columns unless the table is switched over first.
	IdentityInsert    bool
	HasIdentityQuery  string
	IdentityInsertOn  string
	IdentityInsertOff string

	FKSuspendStatements []string
	FKResumeStatements  []string
	// SuspendOutsideTransaction moves the FK statements out of the import
	// transaction, for stores that ignore them inside one.
	SuspendOutsideTransaction bool

	// MultiStatementBinding is set when the driver binds positional
	// arguments across all statements of a single Exec call.
	MultiStatementBinding bool
	EmptyInsertFormat     string

	ListTablesQuery string
	PrimaryKeyQuery string
	// ColumnsQuery and ReferencesQuery take the table name and are only
	// needed to draw the schema.
	ColumnsQuery    string
	ReferencesQuery string

	QuoteIdentifier func(string) string
	// Placeholder returns the n-th (1 based) positional placeholder.
	Placeholder func(n int) string
	// PageQuery orders by orderKey when it is set, rows of an unordered
	// table may repeat or be missed between pages.
	PageQuery   func(table, orderKey string, limit int, offset int64) string
	KeysetQuery func(table, key string, limit int, first bool) string
}

// HasForeignKeyHooks reports whether referential checks need suspending.
func (p Platform) HasForeignKeyHooks() bool {
	return len(p.FKSuspendStatements) > 0 || len(p.FKResumeStatements) > 0
}

// EmptyInsert returns the default-values insert for an already quoted table.
func (p Platform) EmptyInsert(quotedTable string) string {
	return fmt.Sprintf(p.EmptyInsertFormat, quotedTable)
}

// Rebind rewrites "?" placeholders of a statement into the platform syntax.
// Quoted identifiers and string literals are left alone.
func (p Platform) Rebind(query string) string {
	if p.Placeholder == nil {
		return query
	}
	var b strings.Builder
	n := 0
	var quote byte
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			b.WriteByte(c)
		case c == '"' || c == '\'' || c == '`':
			quote = c
			b.WriteByte(c)
		case c == '[':
			quote = ']'
			b.WriteByte(c)
		case c == '?':
			n++
			b.WriteString(p.Placeholder(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

var (
	registryMu sync.RWMutex
	registry   = map[Name]Platform{}
)

// Register adds or replaces a platform descriptor.
func Register(p Platform) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[p.Name] = p
}

// Lookup returns the platform registered under name.
func Lookup(name Name) (Platform, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	p, ok := registry[name]
	if !ok {
		return Platform{}, fmt.Errorf("unknown platform: %s (available platforms: %v)", name, names())
	}
	return p, nil
}

// ForDriver resolves the platform serving a database/sql driver name.
func ForDriver(driver string) (Platform, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	for _, p := range registry {
		for _, d := range p.Drivers {
			if d == driver {
				return p, nil
			}
		}
	}
	return Platform{}, fmt.Errorf("no platform registered for driver %s", driver)
}

func names() []string {
	result := make([]string, 0, len(registry))
	for name := range registry {
		result = append(result, string(name))
	}
	sort.Strings(result)
	return result
}

func init() {
	Register(NewGeneric())
	Register(NewPostgres())
	Register(NewMySQL())
	Register(NewSQLite())
	Register(NewMSSQL())
}
