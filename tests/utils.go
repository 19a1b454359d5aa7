package tests

import (
	"bufio"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/DATA-DOG/go-sqlmock"
)

// DataRepository encapsulates I/O operations.
type DataRepository struct {
	DB         *sql.DB
	mock       sqlmock.Sqlmock
	Writer     *bufio.Writer
	mockWriter *MockWriter
}

// CreateDataRepository factory method for the DataRepository
func CreateDataRepository() *DataRepository {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	checkErr(err)
	mock.MatchExpectationsInOrder(true)

	mockWriter := &MockWriter{}
	writerAdapter := bufio.NewWriter(mockWriter)
	return &DataRepository{DB: db, mock: mock, Writer: writerAdapter, mockWriter: mockWriter}
}

// Mock exposes the underlying sqlmock for expectations the helpers do not cover.
func (repo *DataRepository) Mock() sqlmock.Sqlmock {
	return repo.mock
}

// Expect adds numRecords generated (id, fk_id) rows, which can then be
// retrieved by the tested function.
func (repo *DataRepository) Expect(stm string, numRecords int, args ...driver.Value) {
	recs := sqlmock.NewRows([]string{"id", "fk_id"})
	for i := 0; i < numRecords; i++ {
		recs = recs.AddRow(fmt.Sprintf("%04d", i+1), fmt.Sprintf("%04d", 1))
	}
	repo.ExpectWithRecords(stm, recs, args...)
}

// ExpectWithRecords adds a query expectation returning the given rows.
func (repo *DataRepository) ExpectWithRecords(stm string, recs *sqlmock.Rows, args ...driver.Value) {
	expectation := repo.mock.ExpectQuery(stm)
	if len(args) > 0 {
		expectation = expectation.WithArgs(args...)
	}
	expectation.WillReturnRows(recs).RowsWillBeClosed()
}

// ExpectTable adds a query expectation returning rows of the given columns.
func (repo *DataRepository) ExpectTable(stm string, columns []string, rows [][]driver.Value, args ...driver.Value) {
	recs := sqlmock.NewRows(columns)
	for _, row := range rows {
		recs = recs.AddRow(row...)
	}
	repo.ExpectWithRecords(stm, recs, args...)
}

// ExpectExec adds a statement expectation affecting one row.
func (repo *DataRepository) ExpectExec(stm string, args ...driver.Value) {
	expectation := repo.mock.ExpectExec(stm)
	if len(args) > 0 {
		expectation = expectation.WithArgs(args...)
	}
	expectation.WillReturnResult(sqlmock.NewResult(0, 1))
}

// ExpectExecError adds a statement expectation failing with err.
func (repo *DataRepository) ExpectExecError(stm string, err error) {
	repo.mock.ExpectExec(stm).WillReturnError(err)
}

func (repo *DataRepository) ExpectBegin() {
	repo.mock.ExpectBegin()
}

func (repo *DataRepository) ExpectCommit() {
	repo.mock.ExpectCommit()
}

func (repo *DataRepository) ExpectRollback() {
	repo.mock.ExpectRollback()
}

// ExpectationsWereMet checks whether all queued expectations
// were met in order. If any of them was not met - an error is returned.
func (repo *DataRepository) ExpectationsWereMet() error {
	return repo.mock.ExpectationsWereMet()
}

func (repo *DataRepository) GetWriterBuffer() []string {
	err := repo.Writer.Flush()
	checkErr(err)
	return repo.mockWriter.data
}

// GetWriterContent returns everything written so far as one string.
func (repo *DataRepository) GetWriterContent() string {
	return strings.Join(repo.GetWriterBuffer(), "")
}

// MockWriter allows to create a mock bufferWriter object, as it implements the interface
type MockWriter struct {
	data []string
}

func (mr *MockWriter) Write(p []byte) (n int, err error) {
	mr.data = append(mr.data, string(p))
	return len(p), nil
}

func (mr *MockWriter) GetData() []string {
	return mr.data
}

func checkErr(err error) {
	if err != nil {
		panic(err)
	}
}
