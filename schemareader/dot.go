package schemareader

import (
	"bufio"
	"fmt"
	"io"
)

// DumpToGraphviz outputs a dot representation of a schema. Use:
// dbjson tables --dot | dot -Tx11
func DumpToGraphviz(w io.Writer, tables []Table) error {
	out := bufio.NewWriter(w)
	fmt.Fprintf(out, "graph schema {\n")
	fmt.Fprintf(out, "  layout=fdp;\n")
	fmt.Fprintf(out, "  K=0.15;\n")
	fmt.Fprintf(out, "  maxiter=1000;\n")
	fmt.Fprintf(out, "  start=0;\n\n")

	for _, table := range tables {
		fmt.Fprintf(out, "\"%s\" [shape=box];\n", table.Name)

		columns := table.Columns
		if len(columns) == 0 {
			columns = table.PKColumns
		}
		for _, column := range columns {
			color := "transparent"
			if table.isPrimaryKey(column) {
				color = "gainsboro"
			}
			fmt.Fprintf(out, "\"%s-%s\" [label=\"\" xlabel=\"%s\" style=filled fillcolor=\"%s\"];\n", table.Name, column, column, color)
			fmt.Fprintf(out, "\"%s\" -- \"%s-%s\";\n", table.Name, table.Name, column)
		}

		for i, reference := range table.References {
			fmt.Fprintf(out, "\"%s-%s-%d\" [label=\"\" shape=diamond];\n", table.Name, reference, i)
			fmt.Fprintf(out, "\"%s-%s-%d\" -- \"%s\";\n", table.Name, reference, i, table.Name)
			fmt.Fprintf(out, "\"%s-%s-%d\" -- \"%s\" [style=dashed];\n", table.Name, reference, i, reference)
		}
	}

	fmt.Fprintf(out, "}\n")
	return out.Flush()
}
