package sqlUtil

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/uyuni-project/dbjson/platform"
	"github.com/uyuni-project/dbjson/tests"
)

type recordingExecutor struct {
	sql    []string
	values [][]interface{}
	types  [][]BindType
	err    error
}

func (r *recordingExecutor) ExecuteMultiInsert(sql string, values []interface{}, types []BindType) error {
	r.sql = append(r.sql, sql)
	r.values = append(r.values, values)
	r.types = append(r.types, types)
	return r.err
}

func TestExecuteQueryWithResults(t *testing.T) {
	// Arrange
	repo := tests.CreateDataRepository()
	repo.ExpectWithRecords("SELECT * FROM t WHERE id = ?",
		sqlmock.NewRows([]string{"id", "name", "note"}).
			AddRow(int64(1), []byte("alice"), nil),
		int64(1))

	// Act
	rows, err := ExecuteQueryWithResults(repo.DB, "SELECT * FROM t WHERE id = ?", int64(1))

	// Assert
	if err != nil {
		t.Fatal(err)
	}
	expected := []Row{{
		{ColumnName: "id", Value: int64(1)},
		{ColumnName: "name", Value: "alice"},
		{ColumnName: "note", Value: nil},
	}}
	if !reflect.DeepEqual(rows, expected) {
		t.Errorf("unexpected rows: %#v", rows)
	}
	if err := repo.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestExecuteQueryWithResultsError(t *testing.T) {
	repo := tests.CreateDataRepository()
	repo.Mock().ExpectQuery("SELECT 1").WillReturnError(errors.New("boom"))

	if _, err := ExecuteQueryWithResults(repo.DB, "SELECT 1"); err == nil {
		t.Errorf("expected the query error to be returned")
	}
}

func TestRowMarshalJSONKeepsOrder(t *testing.T) {
	row := Row{
		{ColumnName: "z", Value: int64(1)},
		{ColumnName: "a", Value: "x\"y"},
		{ColumnName: "m", Value: nil},
	}
	out, err := json.Marshal(row)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"z":1,"a":"x\"y","m":null}` {
		t.Errorf("unexpected encoding: %s", out)
	}
}

func TestRowWithoutSentinel(t *testing.T) {
	row := Row{
		{ColumnName: "id", Value: 1},
		{ColumnName: PaginationSentinel, Value: 1},
	}
	stripped := row.StripSentinel()
	if !reflect.DeepEqual(stripped.Columns(), []string{"id"}) {
		t.Errorf("sentinel not stripped: %v", stripped.Columns())
	}
	if len(row) != 2 {
		t.Errorf("receiver must not be modified")
	}
}

func TestBindTypeOf(t *testing.T) {
	cases := map[interface{}]BindType{
		nil:                 BindNull,
		true:                BindBool,
		int64(3):            BindInt,
		3.5:                 BindFloat,
		json.Number("12"):   BindInt,
		json.Number("1.5"):  BindFloat,
		json.Number("1e10"): BindFloat,
		"text":              BindString,
	}
	for value, expected := range cases {
		if got := BindTypeOf(value); got != expected {
			t.Errorf("BindTypeOf(%v) = %s; expected %s", value, got, expected)
		}
	}
}

func TestConvertValue(t *testing.T) {
	if got := ConvertValue(json.Number("42"), BindInt); got != int64(42) {
		t.Errorf("unexpected int conversion: %#v", got)
	}
	if got := ConvertValue(json.Number("2.5"), BindFloat); got != 2.5 {
		t.Errorf("unexpected float conversion: %#v", got)
	}
	if got := ConvertValue(json.Number("99999999999999999999"), BindInt); got != "99999999999999999999" {
		t.Errorf("overflowing number should stay literal: %#v", got)
	}
	if got := ConvertValue("x", BindString); got != "x" {
		t.Errorf("unexpected string conversion: %#v", got)
	}
}

func TestMultipleInsertExecute(t *testing.T) {
	// Arrange
	executor := &recordingExecutor{}
	m := NewMultipleInsert(executor, platform.NewSQLite())
	m.AddInsert("a", Row{{ColumnName: "id", Value: json.Number("1")}, {ColumnName: "name", Value: "x"}}, nil)
	m.AddInsert("b", Row{}, nil)
	m.AddInsert("a", Row{{ColumnName: "id", Value: nil}}, map[string]BindType{"id": BindInt})

	if m.Pending() != 3 || m.PendingValues() != 3 {
		t.Fatalf("unexpected pending counts: %d rows, %d values", m.Pending(), m.PendingValues())
	}

	// Act
	err := m.Execute()

	// Assert
	if err != nil {
		t.Fatal(err)
	}
	expectedSQL := "INSERT INTO \"a\" (\"id\", \"name\") VALUES (?, ?);\n" +
		"INSERT INTO \"b\" DEFAULT VALUES;\n" +
		"INSERT INTO \"a\" (\"id\") VALUES (?);\n"
	if len(executor.sql) != 1 || executor.sql[0] != expectedSQL {
		t.Errorf("unexpected sql: %q", executor.sql)
	}
	if !reflect.DeepEqual(executor.values[0], []interface{}{json.Number("1"), "x", nil}) {
		t.Errorf("unexpected values: %#v", executor.values[0])
	}
	if !reflect.DeepEqual(executor.types[0], []BindType{BindInt, BindString, BindInt}) {
		t.Errorf("unexpected types: %v", executor.types[0])
	}
	if m.Pending() != 0 || m.PendingValues() != 0 {
		t.Errorf("queue not cleared after execute")
	}
}

func TestMultipleInsertClearsOnFailure(t *testing.T) {
	executor := &recordingExecutor{err: errors.New("constraint violation")}
	m := NewMultipleInsert(executor, platform.NewMySQL())
	m.AddInsert("t", Row{}, nil)

	if err := m.Execute(); err == nil {
		t.Fatal("expected the executor error")
	}
	if executor.sql[0] != "INSERT INTO `t` () VALUES ();\n" {
		t.Errorf("unexpected sql: %q", executor.sql[0])
	}
	if m.Pending() != 0 {
		t.Errorf("queue must be cleared on failure")
	}
	// nothing queued: no round trip
	if err := m.Execute(); err != nil {
		t.Fatal(err)
	}
	if len(executor.sql) != 1 {
		t.Errorf("empty execute must not reach the store")
	}
}

func TestMultipleInsertSendsOnlyNewRowsAfterExecute(t *testing.T) {
	// Arrange
	executor := &recordingExecutor{err: errors.New("constraint violation")}
	m := NewMultipleInsert(executor, platform.NewMySQL())
	m.AddInsert("t", Row{{ColumnName: "id", Value: 1}, {ColumnName: "name", Value: "old"}}, nil)
	m.Execute()
	executor.err = nil
	m.AddInsert("t", Row{{ColumnName: "id", Value: 2}}, nil)
	if err := m.Execute(); err != nil {
		t.Fatal(err)
	}

	// Act
	m.AddInsert("u", Row{{ColumnName: "id", Value: 3}}, nil)
	err := m.Execute()

	// Assert
	if err != nil {
		t.Fatal(err)
	}
	expectedSQL := []string{
		"INSERT INTO `t` (`id`, `name`) VALUES (?, ?);\n",
		"INSERT INTO `t` (`id`) VALUES (?);\n",
		"INSERT INTO `u` (`id`) VALUES (?);\n",
	}
	if !reflect.DeepEqual(executor.sql, expectedSQL) {
		t.Errorf("unexpected sql: %q", executor.sql)
	}
	expectedValues := [][]interface{}{{1, "old"}, {2}, {3}}
	if !reflect.DeepEqual(executor.values, expectedValues) {
		t.Errorf("unexpected values: %#v", executor.values)
	}
	if !reflect.DeepEqual(executor.types[2], []BindType{BindInt}) {
		t.Errorf("unexpected types: %v", executor.types[2])
	}
}

func TestSplitStatements(t *testing.T) {
	blob := "INSERT INTO \"a;b\" (\"x\") VALUES (?);\nINSERT INTO t VALUES ('?;');\n"
	statements := SplitStatements(blob)
	expected := []string{
		"INSERT INTO \"a;b\" (\"x\") VALUES (?)",
		"INSERT INTO t VALUES ('?;')",
	}
	if !reflect.DeepEqual(statements, expected) {
		t.Errorf("unexpected statements: %q", statements)
	}
	if n := CountPlaceholders(statements[0]); n != 1 {
		t.Errorf("expected 1 placeholder, got %d", n)
	}
	if n := CountPlaceholders(statements[1]); n != 0 {
		t.Errorf("expected no placeholder, got %d", n)
	}
}
