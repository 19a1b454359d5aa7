package importer

import "fmt"

// SchemaMismatchWarning is recorded for a document table missing from the
// store. Its rows are skipped and the import goes on.
type SchemaMismatchWarning struct {
	Table string
}

func (w SchemaMismatchWarning) Error() string {
	return fmt.Sprintf("table %s does not exist, skipping", w.Table)
}
