package dumper

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/uyuni-project/dbjson/sqlUtil"
)

// jsonWriter emits the export document incrementally. The first write error
// is kept and every later call becomes a no-op.
type jsonWriter struct {
	out    *bufio.Writer
	err    error
	tables int
	rows   int
}

func newJSONWriter(w io.Writer) *jsonWriter {
	return &jsonWriter{out: bufio.NewWriterSize(w, 64*1024)}
}

func (w *jsonWriter) writeString(s string) {
	if w.err != nil {
		return
	}
	_, w.err = w.out.WriteString(s)
}

func (w *jsonWriter) write(b []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.out.Write(b)
}

func (w *jsonWriter) beginDocument() {
	w.writeString("{")
}

func (w *jsonWriter) beginTable(name string) {
	if w.tables > 0 {
		w.writeString(",")
	}
	w.tables++
	w.rows = 0
	key, err := json.Marshal(name)
	if err != nil && w.err == nil {
		w.err = err
	}
	w.write(key)
	w.writeString(":[")
}

func (w *jsonWriter) writeRow(row sqlUtil.Row) {
	if w.err != nil {
		return
	}
	if w.rows > 0 {
		w.writeString(",")
	}
	w.rows++
	encoded, err := row.MarshalJSON()
	if err != nil {
		if w.err == nil {
			w.err = err
		}
		return
	}
	w.write(encoded)
}

func (w *jsonWriter) endTable() {
	w.writeString("]")
}

func (w *jsonWriter) endDocument() {
	w.writeString("}")
}

func (w *jsonWriter) flush() error {
	if w.err == nil {
		w.err = w.out.Flush()
	}
	return w.err
}
