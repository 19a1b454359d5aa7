package sqlUtil

import (
	"database/sql"
	"fmt"
)

// Querier is satisfied by *sql.DB, *sql.Tx and the store implementations.
type Querier interface {
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

// ExecuteQueryWithResults runs a query and returns every row in column order.
func ExecuteQueryWithResults(db Querier, sql string, scanParameters ...interface{}) ([]Row, error) {
	rows, err := db.Query(sql, scanParameters...)
	if err != nil {
		return nil, fmt.Errorf("error while executing '%s' with parameters %v: %w", sql, scanParameters, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	computedValues := make([]Row, 0)
	for rows.Next() {
		// initially holds pointers for Scan, dereferenced afterwards
		rowResult := make([]interface{}, len(columns))
		rowValues := make([]interface{}, len(columns))
		for i := range columns {
			rowResult[i] = &rowValues[i]
		}

		if err := rows.Scan(rowResult...); err != nil {
			return nil, fmt.Errorf("failed to scan row of '%s': %w", sql, err)
		}

		rowComputedValues := make(Row, 0, len(columns))
		for i, column := range columns {
			rowComputedValues = append(rowComputedValues, RowDataStructure{
				ColumnName: column,
				Value:      normalizeValue(rowValues[i]),
			})
		}
		computedValues = append(computedValues, rowComputedValues)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows of '%s': %w", sql, err)
	}

	return computedValues, nil
}

// ExecuteScalar returns the first column of the first row, or nil when the
// query returned nothing.
func ExecuteScalar(db Querier, sql string, scanParameters ...interface{}) (interface{}, error) {
	rows, err := ExecuteQueryWithResults(db, sql, scanParameters...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, nil
	}
	return rows[0][0].Value, nil
}

// ExecuteStringColumn collects the first column of every row as text.
func ExecuteStringColumn(db Querier, sql string, scanParameters ...interface{}) ([]string, error) {
	rows, err := ExecuteQueryWithResults(db, sql, scanParameters...)
	if err != nil {
		return nil, err
	}
	result := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 || row[0].Value == nil {
			continue
		}
		result = append(result, fmt.Sprintf("%v", row[0].Value))
	}
	return result, nil
}

// drivers speaking a text protocol hand out []byte for most column types
func normalizeValue(value interface{}) interface{} {
	if b, ok := value.([]byte); ok {
		return string(b)
	}
	return value
}
