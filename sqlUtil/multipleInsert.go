package sqlUtil

import (
	"fmt"
	"strings"

	"github.com/uyuni-project/dbjson/platform"
)

// MultiInsertExecutor runs a blob of insert statements with positional values.
type MultiInsertExecutor interface {
	ExecuteMultiInsert(sql string, values []interface{}, types []BindType) error
}

type queuedInsert struct {
	table   string
	columns []string
}

// MultipleInsert accumulates row inserts and sends them to the store in a
// single round trip.
type MultipleInsert struct {
	executor MultiInsertExecutor
	platform platform.Platform

	inserts []queuedInsert
	values  []interface{}
	types   []BindType
}

func NewMultipleInsert(executor MultiInsertExecutor, p platform.Platform) *MultipleInsert {
	return &MultipleInsert{
		executor: executor,
		platform: p,
	}
}

// AddInsert queues one row. Types may be nil, or miss columns, in which case
// the bind type is inferred from the value.
func (m *MultipleInsert) AddInsert(table string, row Row, types map[string]BindType) {
	columns := make([]string, 0, len(row))
	for _, col := range row {
		columns = append(columns, col.ColumnName)
		bindType, ok := types[col.ColumnName]
		if !ok {
			bindType = BindTypeOf(col.Value)
		}
		m.values = append(m.values, col.Value)
		m.types = append(m.types, bindType)
	}
	m.inserts = append(m.inserts, queuedInsert{table: table, columns: columns})
}

// Pending returns the number of queued rows.
func (m *MultipleInsert) Pending() int {
	return len(m.inserts)
}

// PendingValues returns the number of queued bind values.
func (m *MultipleInsert) PendingValues() int {
	return len(m.values)
}

// Execute sends everything queued as one statement blob. The queue is
// cleared whatever the outcome.
func (m *MultipleInsert) Execute() error {
	if len(m.inserts) == 0 {
		return nil
	}
	defer m.reset()

	return m.executor.ExecuteMultiInsert(m.SQL(), m.values, m.types)
}

// SQL renders the queued inserts, one statement per line.
func (m *MultipleInsert) SQL() string {
	var b strings.Builder
	for _, insert := range m.inserts {
		table := m.quote(insert.table)
		if len(insert.columns) == 0 {
			b.WriteString(m.platform.EmptyInsert(table))
			b.WriteString(";\n")
			continue
		}
		quoted := make([]string, len(insert.columns))
		for i, column := range insert.columns {
			quoted[i] = m.quote(column)
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(insert.columns)), ", ")
		fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES (%s);\n", table, strings.Join(quoted, ", "), placeholders)
	}
	return b.String()
}

func (m *MultipleInsert) quote(identifier string) string {
	if m.platform.QuoteIdentifier == nil {
		return identifier
	}
	return m.platform.QuoteIdentifier(identifier)
}

func (m *MultipleInsert) reset() {
	m.inserts = nil
	m.values = nil
	m.types = nil
}
