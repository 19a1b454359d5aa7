package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"github.com/uyuni-project/dbjson/platform"
	"github.com/uyuni-project/dbjson/schemareader"
	"github.com/uyuni-project/dbjson/sqlUtil"
)

var errNoTransaction = errors.New("no active transaction")

// DBStore implements Store on top of database/sql. It pins a single
// connection so session settings survive transaction boundaries.
type DBStore struct {
	db       *sql.DB
	conn     *sql.Conn
	tx       *sql.Tx
	platform platform.Platform
	ownsDB   bool
}

// Open connects to the database and resolves the platform from the driver name.
func Open(driverName string, dsn string) (*DBStore, error) {
	p, err := platform.ForDriver(driverName)
	if err != nil {
		return nil, err
	}
	switch p.Name {
	case platform.MySQL:
		if dsn, err = mysqlDSN(dsn); err != nil {
			return nil, wrap("open", err)
		}
	case platform.MSSQL:
		// only the sqlserver flavour understands @pN placeholders
		driverName = "sqlserver"
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, wrap("open", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, wrap("open", err)
	}
	s, err := New(db, p)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.ownsDB = true
	log.Debug().Msgf("connected to %s database", p.Name)
	return s, nil
}

// mysqlDSN enables what batched inserts rely on.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	cfg.MultiStatements = true
	cfg.InterpolateParams = true
	return cfg.FormatDSN(), nil
}

// New wraps an already opened database. The caller keeps ownership of db.
func New(db *sql.DB, p platform.Platform) (*DBStore, error) {
	conn, err := db.Conn(context.Background())
	if err != nil {
		return nil, wrap("connect", err)
	}
	return &DBStore{db: db, conn: conn, platform: p}, nil
}

func (s *DBStore) Platform() platform.Platform {
	return s.platform
}

// Query satisfies sqlUtil.Querier, running inside the active transaction if any.
func (s *DBStore) Query(query string, args ...interface{}) (*sql.Rows, error) {
	query = s.platform.Rebind(query)
	if s.tx != nil {
		return s.tx.Query(query, args...)
	}
	return s.conn.QueryContext(context.Background(), query, args...)
}

func (s *DBStore) exec(query string, args ...interface{}) error {
	query = s.platform.Rebind(query)
	log.Trace().Msgf("executing %s", query)
	var err error
	if s.tx != nil {
		_, err = s.tx.Exec(query, args...)
	} else {
		_, err = s.conn.ExecContext(context.Background(), query, args...)
	}
	return err
}

func (s *DBStore) ListTables() ([]schemareader.Table, error) {
	tables, err := schemareader.ReadTables(s, s.platform)
	return tables, wrap("list tables", err)
}

func (s *DBStore) CountRows(table string) (int64, error) {
	value, err := s.QueryScalar(fmt.Sprintf("SELECT COUNT(*) FROM %s", s.platform.QuoteIdentifier(table)))
	if err != nil {
		return 0, err
	}
	count, err := toInt64(value)
	return count, wrap("count "+table, err)
}

func (s *DBStore) FetchPage(table string, page Page) ([]sqlUtil.Row, error) {
	var rows []sqlUtil.Row
	var err error
	if page.Keyset {
		first := page.After == nil
		query := s.platform.KeysetQuery(table, page.KeyColumn, page.Size, first)
		if first {
			rows, err = sqlUtil.ExecuteQueryWithResults(s, query)
		} else {
			rows, err = sqlUtil.ExecuteQueryWithResults(s, query, page.After)
		}
	} else {
		rows, err = sqlUtil.ExecuteQueryWithResults(s, s.platform.PageQuery(table, page.KeyColumn, page.Size, page.Offset))
	}
	return rows, wrap("fetch "+table, err)
}

// ExecuteMultiInsert runs the statement blob in one call when the driver binds
// across statements, statement by statement otherwise.
func (s *DBStore) ExecuteMultiInsert(sql string, values []interface{}, types []sqlUtil.BindType) error {
	if len(values) != len(types) {
		return wrap("multi insert", fmt.Errorf("%d values for %d bind types", len(values), len(types)))
	}
	args := make([]interface{}, len(values))
	for i, value := range values {
		args[i] = sqlUtil.ConvertValue(value, types[i])
	}

	if s.platform.MultiStatementBinding {
		return wrap("multi insert", s.exec(sql, args...))
	}

	statements := sqlUtil.SplitStatements(sql)
	counts := make([]int, len(statements))
	total := 0
	for i, statement := range statements {
		counts[i] = sqlUtil.CountPlaceholders(statement)
		total += counts[i]
	}
	if total != len(args) {
		return wrap("multi insert", fmt.Errorf("%d placeholders for %d values", total, len(args)))
	}
	offset := 0
	for i, statement := range statements {
		if err := s.exec(statement, args[offset:offset+counts[i]]...); err != nil {
			return wrap("multi insert", err)
		}
		offset += counts[i]
	}
	return nil
}

func (s *DBStore) BeginTransaction() error {
	if s.tx != nil {
		return wrap("begin", errors.New("a transaction is already active"))
	}
	tx, err := s.conn.BeginTx(context.Background(), nil)
	if err != nil {
		return wrap("begin", err)
	}
	s.tx = tx
	return nil
}

func (s *DBStore) Commit() error {
	if s.tx == nil {
		return wrap("commit", errNoTransaction)
	}
	tx := s.tx
	s.tx = nil
	return wrap("commit", tx.Commit())
}

func (s *DBStore) Rollback() error {
	if s.tx == nil {
		return wrap("rollback", errNoTransaction)
	}
	tx := s.tx
	s.tx = nil
	return wrap("rollback", tx.Rollback())
}

func (s *DBStore) InTransaction() bool {
	return s.tx != nil
}

func (s *DBStore) ExecuteStatement(sql string, args ...interface{}) error {
	return wrap("execute", s.exec(sql, args...))
}

func (s *DBStore) QueryScalar(sql string, args ...interface{}) (interface{}, error) {
	value, err := sqlUtil.ExecuteScalar(s, sql, args...)
	return value, wrap("query", err)
}

// Close rolls back a transaction left open and releases the connection.
func (s *DBStore) Close() error {
	var result error
	if s.tx != nil {
		if err := s.Rollback(); err != nil {
			result = err
		}
	}
	if err := s.conn.Close(); err != nil && result == nil {
		result = wrap("close", err)
	}
	if s.ownsDB {
		if err := s.db.Close(); err != nil && result == nil {
			result = wrap("close", err)
		}
	}
	return result
}

func toInt64(value interface{}) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected count value %v (%T)", value, value)
	}
}
