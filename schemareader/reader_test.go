package schemareader

import (
	"database/sql/driver"
	"reflect"
	"strings"
	"testing"

	"github.com/uyuni-project/dbjson/platform"
	"github.com/uyuni-project/dbjson/tests"
)

const (
	TableName    = "TableName"
	PKColumnName = "PKColumnName"
	ColumnName   = "ColumnName"
	OtherTable   = "OtherTable"
)

func TestReadTables(t *testing.T) {
	// Arrange
	repo := tests.CreateDataRepository()
	p := platform.NewPostgres()
	repo.ExpectTable(p.ListTablesQuery, []string{"table_name"}, [][]driver.Value{{TableName}, {OtherTable}})
	repo.ExpectTable(p.Rebind(p.PrimaryKeyQuery), []string{"column_name"}, [][]driver.Value{{PKColumnName}}, TableName)
	repo.ExpectTable(p.Rebind(p.PrimaryKeyQuery), []string{"column_name"}, [][]driver.Value{{"a"}, {"b"}}, OtherTable)

	// Act
	tables, err := ReadTables(repo.DB, p)

	// Assert
	if err != nil {
		t.Fatal(err)
	}
	expected := []Table{
		{Name: TableName, PKColumns: []string{PKColumnName}},
		{Name: OtherTable, PKColumns: []string{"a", "b"}},
	}
	if !reflect.DeepEqual(tables, expected) {
		t.Errorf("unexpected tables: %#v", tables)
	}
	if key, ok := tables[0].SinglePrimaryKey(); !ok || key != PKColumnName {
		t.Errorf("expected a single primary key on %s", TableName)
	}
	if _, ok := tables[1].SinglePrimaryKey(); ok {
		t.Errorf("composite key reported as single")
	}
	if err := repo.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestReadSchema(t *testing.T) {
	repo := tests.CreateDataRepository()
	p := platform.NewSQLite()
	repo.ExpectTable(p.ListTablesQuery, []string{"name"}, [][]driver.Value{{TableName}})
	repo.ExpectTable(p.PrimaryKeyQuery, []string{"name"}, [][]driver.Value{{PKColumnName}}, TableName)
	repo.ExpectTable(p.ColumnsQuery, []string{"name"}, [][]driver.Value{{PKColumnName}, {ColumnName}}, TableName)
	repo.ExpectTable(p.ReferencesQuery, []string{"table"}, [][]driver.Value{{OtherTable}}, TableName)

	tables, err := ReadSchema(repo.DB, p)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(tables[0].Columns, []string{PKColumnName, ColumnName}) {
		t.Errorf("unexpected columns: %v", tables[0].Columns)
	}
	if !reflect.DeepEqual(tables[0].References, []string{OtherTable}) {
		t.Errorf("unexpected references: %v", tables[0].References)
	}
	if err := repo.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestDumpToGraphviz(t *testing.T) {
	repo := tests.CreateDataRepository()
	tables := []Table{{
		Name:       TableName,
		PKColumns:  []string{PKColumnName},
		Columns:    []string{PKColumnName, ColumnName},
		References: []string{OtherTable},
	}}

	if err := DumpToGraphviz(repo.Writer, tables); err != nil {
		t.Fatal(err)
	}

	out := repo.GetWriterContent()
	for _, expected := range []string{
		"graph schema {",
		`"TableName" [shape=box];`,
		`"TableName-PKColumnName" [label="" xlabel="PKColumnName" style=filled fillcolor="gainsboro"];`,
		`"TableName-ColumnName" [label="" xlabel="ColumnName" style=filled fillcolor="transparent"];`,
		`"TableName-OtherTable-0" -- "OtherTable" [style=dashed];`,
	} {
		if !strings.Contains(out, expected) {
			t.Errorf("missing %q in:\n%s", expected, out)
		}
	}
}
