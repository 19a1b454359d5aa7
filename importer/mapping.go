package importer

import "strings"

type resolution struct {
	name  string
	found bool
}

// TableNameMapping resolves document table names to the store spelling.
// The canonical names never change; lookups are memoized, misses included.
type TableNameMapping struct {
	names []string
	memo  map[string]resolution
}

func NewTableNameMapping(names []string) *TableNameMapping {
	canonical := make([]string, len(names))
	copy(canonical, names)
	return &TableNameMapping{names: canonical, memo: make(map[string]resolution)}
}

// Resolve returns the canonical name of table. An exact match wins over a
// case-insensitive one.
func (m *TableNameMapping) Resolve(table string) (string, bool) {
	if r, ok := m.memo[table]; ok {
		return r.name, r.found
	}
	r := resolution{}
	for _, name := range m.names {
		if name == table {
			r = resolution{name: name, found: true}
			break
		}
		if !r.found && strings.EqualFold(name, table) {
			r = resolution{name: name, found: true}
		}
	}
	m.memo[table] = r
	return r.name, r.found
}

func (m *TableNameMapping) Names() []string {
	result := make([]string, len(m.names))
	copy(result, m.names)
	return result
}

// Memoized returns the number of remembered lookups.
func (m *TableNameMapping) Memoized() int {
	return len(m.memo)
}
