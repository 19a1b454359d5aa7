package schemareader

import (
	"fmt"

	"github.com/uyuni-project/dbjson/platform"
	"github.com/uyuni-project/dbjson/sqlUtil"
)

func readTableNames(db sqlUtil.Querier, p platform.Platform) ([]string, error) {
	result, err := sqlUtil.ExecuteStringColumn(db, p.Rebind(p.ListTablesQuery))
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return result, nil
}

func readPkColumnNames(db sqlUtil.Querier, p platform.Platform, tableName string) ([]string, error) {
	result, err := sqlUtil.ExecuteStringColumn(db, p.Rebind(p.PrimaryKeyQuery), tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to read primary key of %s: %w", tableName, err)
	}
	return result, nil
}

func readColumnNames(db sqlUtil.Querier, p platform.Platform, tableName string) ([]string, error) {
	result, err := sqlUtil.ExecuteStringColumn(db, p.Rebind(p.ColumnsQuery), tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", tableName, err)
	}
	return result, nil
}

func readReferencedTables(db sqlUtil.Querier, p platform.Platform, tableName string) ([]string, error) {
	result, err := sqlUtil.ExecuteStringColumn(db, p.Rebind(p.ReferencesQuery), tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to read references of %s: %w", tableName, err)
	}
	return result, nil
}

// ReadTables inspects the DB and returns its tables, in the order the store
// enumerates them, with their primary key columns.
func ReadTables(db sqlUtil.Querier, p platform.Platform) ([]Table, error) {
	tableNames, err := readTableNames(db, p)
	if err != nil {
		return nil, err
	}

	result := make([]Table, 0, len(tableNames))
	for _, tableName := range tableNames {
		pkColumns, err := readPkColumnNames(db, p, tableName)
		if err != nil {
			return nil, err
		}
		result = append(result, Table{Name: tableName, PKColumns: pkColumns})
	}
	return result, nil
}

// ReadSchema is ReadTables plus columns and referenced tables.
func ReadSchema(db sqlUtil.Querier, p platform.Platform) ([]Table, error) {
	tables, err := ReadTables(db, p)
	if err != nil {
		return nil, err
	}
	for i := range tables {
		if tables[i].Columns, err = readColumnNames(db, p, tables[i].Name); err != nil {
			return nil, err
		}
		if tables[i].References, err = readReferencedTables(db, p, tables[i].Name); err != nil {
			return nil, err
		}
	}
	return tables, nil
}
