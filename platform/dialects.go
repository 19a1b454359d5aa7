// SPDX-FileCopyrightText: 2024 SUSE LLC
//
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

const (
	defaultValuesInsert = "INSERT INTO %s DEFAULT VALUES"
	emptyValuesInsert   = "INSERT INTO %s () VALUES ()"

	informationSchemaReferences = `SELECT DISTINCT ccu.table_name
		FROM information_schema.table_constraints AS tc
			JOIN information_schema.constraint_column_usage AS ccu ON ccu.constraint_name = tc.constraint_name
				AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_name = ?`
)

func quoteANSI(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteBacktick(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func quoteBracket(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func limitOffsetPage(quote func(string) string) func(string, string, int, int64) string {
	return func(table, orderKey string, limit int, offset int64) string {
		if orderKey == "" {
			return fmt.Sprintf("SELECT * FROM %s LIMIT %d OFFSET %d", quote(table), limit, offset)
		}
		return fmt.Sprintf("SELECT * FROM %s ORDER BY %s ASC LIMIT %d OFFSET %d", quote(table), quote(orderKey), limit, offset)
	}
}

func limitKeyset(quote func(string) string) func(string, string, int, bool) string {
	return func(table, key string, limit int, first bool) string {
		if first {
			return fmt.Sprintf("SELECT * FROM %s ORDER BY %s ASC LIMIT %d", quote(table), quote(key), limit)
		}
		return fmt.Sprintf("SELECT * FROM %s WHERE %s > ? ORDER BY %s ASC LIMIT %d",
			quote(table), quote(key), quote(key), limit)
	}
}

// NewGeneric returns the fallback descriptor: ANSI SQL, no hooks.
func NewGeneric() Platform {
	return Platform{
		Name:              Generic,
		EmptyInsertFormat: defaultValuesInsert,
		ListTablesQuery: `SELECT table_name
		FROM information_schema.tables
		WHERE table_type = 'BASE TABLE'
		ORDER BY table_name`,
		PrimaryKeyQuery: `SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON kcu.constraint_name = tc.constraint_name
			AND kcu.table_name = tc.table_name
		WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_name = ?
		ORDER BY kcu.ordinal_position`,
		ColumnsQuery: `SELECT column_name
		FROM information_schema.columns
		WHERE table_name = ?
		ORDER BY ordinal_position`,
		ReferencesQuery: informationSchemaReferences,
		QuoteIdentifier: quoteANSI,
		PageQuery:       limitOffsetPage(quoteANSI),
		KeysetQuery:     limitKeyset(quoteANSI),
	}
}

func NewPostgres() Platform {
	return Platform{
		Name:              Postgres,
		Drivers:           []string{"postgres", "pgx"},
		EmptyInsertFormat: defaultValuesInsert,
		ListTablesQuery: `SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = current_schema()
			AND table_type = 'BASE TABLE'
		ORDER BY table_name;`,
		PrimaryKeyQuery: `SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON kcu.constraint_name = tc.constraint_name
			AND kcu.table_schema = tc.table_schema
			AND kcu.table_name = tc.table_name
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = current_schema()
			AND tc.table_name = ?
		ORDER BY kcu.ordinal_position;`,
		ColumnsQuery: `SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = ?
		ORDER BY ordinal_position;`,
		ReferencesQuery: informationSchemaReferences,
		QuoteIdentifier: pq.QuoteIdentifier,
		Placeholder: func(n int) string {
			return fmt.Sprintf("$%d", n)
		},
		PageQuery:   limitOffsetPage(pq.QuoteIdentifier),
		KeysetQuery: limitKeyset(pq.QuoteIdentifier),
	}
}

func NewMySQL() Platform {
	return Platform{
		Name:                  MySQL,
		Drivers:               []string{"mysql"},
		FKSuspendStatements:   []string{"SET FOREIGN_KEY_CHECKS=0"},
		FKResumeStatements:    []string{"SET FOREIGN_KEY_CHECKS=1"},
		MultiStatementBinding: true,
		EmptyInsertFormat:     emptyValuesInsert,
		ListTablesQuery: `SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
			AND table_type = 'BASE TABLE'
		ORDER BY table_name`,
		PrimaryKeyQuery: `SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = DATABASE()
			AND table_name = ?
			AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position`,
		ColumnsQuery: `SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY ordinal_position`,
		ReferencesQuery: `SELECT DISTINCT referenced_table_name
		FROM information_schema.key_column_usage
		WHERE table_schema = DATABASE()
			AND table_name = ?
			AND referenced_table_name IS NOT NULL`,
		QuoteIdentifier: quoteBacktick,
		PageQuery:       limitOffsetPage(quoteBacktick),
		KeysetQuery:     limitKeyset(quoteBacktick),
	}
}

func NewSQLite() Platform {
	return Platform{
		Name:                      SQLite,
		Drivers:                   []string{"sqlite", "sqlite3"},
		FKSuspendStatements:       []string{"PRAGMA foreign_keys = OFF"},
		FKResumeStatements:        []string{"PRAGMA foreign_keys = ON"},
		SuspendOutsideTransaction: true,
		EmptyInsertFormat:         defaultValuesInsert,
		ListTablesQuery: `SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`,
		PrimaryKeyQuery: `SELECT name FROM pragma_table_info(?) WHERE pk > 0 ORDER BY pk`,
		ColumnsQuery:    `SELECT name FROM pragma_table_info(?) ORDER BY cid`,
		ReferencesQuery: `SELECT DISTINCT "table" FROM pragma_foreign_key_list(?)`,
		QuoteIdentifier: quoteANSI,
		PageQuery:       limitOffsetPage(quoteANSI),
		KeysetQuery:     limitKeyset(quoteANSI),
	}
}

// NewMSSQL pages through ROW_NUMBER(), which adds the doctrine_rownum
// pseudo column to every fetched row.
func NewMSSQL() Platform {
	return Platform{
		Name:                  MSSQL,
		Drivers:               []string{"sqlserver", "mssql"},
		IdentityInsert:        true,
		HasIdentityQuery:      "SELECT OBJECTPROPERTY(OBJECT_ID(?), 'TableHasIdentity')",
		IdentityInsertOn:      "SET IDENTITY_INSERT %s ON",
		IdentityInsertOff:     "SET IDENTITY_INSERT %s OFF",
		FKSuspendStatements:   []string{`EXEC sp_msforeachtable "ALTER TABLE ? NOCHECK CONSTRAINT all"`},
		FKResumeStatements:    []string{`EXEC sp_msforeachtable "ALTER TABLE ? WITH CHECK CHECK CONSTRAINT all"`},
		MultiStatementBinding: true,
		EmptyInsertFormat:     defaultValuesInsert,
		ListTablesQuery: `SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_TYPE = 'BASE TABLE' AND TABLE_SCHEMA = SCHEMA_NAME()
		ORDER BY TABLE_NAME`,
		PrimaryKeyQuery: `SELECT kcu.COLUMN_NAME
		FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
		JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
			ON kcu.CONSTRAINT_NAME = tc.CONSTRAINT_NAME
			AND kcu.TABLE_SCHEMA = tc.TABLE_SCHEMA
		WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY'
			AND tc.TABLE_SCHEMA = SCHEMA_NAME()
			AND tc.TABLE_NAME = ?
		ORDER BY kcu.ORDINAL_POSITION`,
		ColumnsQuery: `SELECT COLUMN_NAME
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = SCHEMA_NAME() AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`,
		ReferencesQuery: `SELECT DISTINCT OBJECT_NAME(referenced_object_id)
		FROM sys.foreign_keys
		WHERE parent_object_id = OBJECT_ID(?)`,
		QuoteIdentifier: quoteBracket,
		Placeholder: func(n int) string {
			return fmt.Sprintf("@p%d", n)
		},
		PageQuery: func(table, orderKey string, limit int, offset int64) string {
			order := "(SELECT 0)"
			if orderKey != "" {
				order = quoteBracket(orderKey)
			}
			return fmt.Sprintf(`SELECT * FROM (SELECT *, ROW_NUMBER() OVER (ORDER BY %s) AS doctrine_rownum FROM %s) AS doctrine_tbl
		WHERE doctrine_rownum BETWEEN %d AND %d ORDER BY doctrine_rownum`,
				order, quoteBracket(table), offset+1, offset+int64(limit))
		},
		KeysetQuery: func(table, key string, limit int, first bool) string {
			if first {
				return fmt.Sprintf("SELECT TOP (%d) * FROM %s ORDER BY %s ASC", limit, quoteBracket(table), quoteBracket(key))
			}
			return fmt.Sprintf("SELECT TOP (%d) * FROM %s WHERE %s > ? ORDER BY %s ASC",
				limit, quoteBracket(table), quoteBracket(key), quoteBracket(key))
		},
	}
}
