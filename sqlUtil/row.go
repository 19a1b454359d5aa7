package sqlUtil

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PaginationSentinel is the pseudo column some platforms add while paging.
// It is never real row data.
const PaginationSentinel = "doctrine_rownum"

type RowDataStructure struct {
	ColumnName string
	Value      interface{}
}

// Row is an ordered mapping from column name to value.
type Row []RowDataStructure

func (r Row) Get(column string) (interface{}, bool) {
	for _, col := range r {
		if col.ColumnName == column {
			return col.Value, true
		}
	}
	return nil, false
}

// Set replaces the value of an existing column or appends a new one.
func (r Row) Set(column string, value interface{}) Row {
	for i, col := range r {
		if col.ColumnName == column {
			r[i].Value = value
			return r
		}
	}
	return append(r, RowDataStructure{ColumnName: column, Value: value})
}

// Without returns the row minus the given column. The receiver is not modified.
func (r Row) Without(column string) Row {
	if _, found := r.Get(column); !found {
		return r
	}
	result := make(Row, 0, len(r)-1)
	for _, col := range r {
		if col.ColumnName != column {
			result = append(result, col)
		}
	}
	return result
}

// StripSentinel removes the pagination pseudo column.
func (r Row) StripSentinel() Row {
	return r.Without(PaginationSentinel)
}

func (r Row) Columns() []string {
	result := make([]string, len(r))
	for i, col := range r {
		result[i] = col.ColumnName
	}
	return result
}

func (r Row) Values() []interface{} {
	result := make([]interface{}, len(r))
	for i, col := range r {
		result[i] = col.Value
	}
	return result
}

// MarshalJSON encodes the row as a JSON object keeping the column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col.ColumnName)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(col.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode column %s: %w", col.ColumnName, err)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
