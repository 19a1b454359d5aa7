package schemareader

// Table represents a DB table to dump
type Table struct {
	Name string
	// PKColumns holds the primary key columns in key order
	PKColumns []string
	// Columns and References are only filled by ReadSchema
	Columns    []string
	References []string
}

// SinglePrimaryKey returns the primary key column when the key is not composite.
func (t Table) SinglePrimaryKey() (string, bool) {
	if len(t.PKColumns) != 1 {
		return "", false
	}
	return t.PKColumns[0], true
}

func (t Table) isPrimaryKey(column string) bool {
	for _, pk := range t.PKColumns {
		if pk == column {
			return true
		}
	}
	return false
}
