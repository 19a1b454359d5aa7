package importer

import (
	"errors"
	"fmt"

	"github.com/uyuni-project/dbjson/jsonstream"
	"github.com/uyuni-project/dbjson/progress"
	"github.com/uyuni-project/dbjson/sqlUtil"
)

// State of the document listeners.
type State int

const (
	// Idle is the state outside of any table array
	Idle State = iota
	InTableArray
	InRow
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case InTableArray:
		return "in table array"
	case InRow:
		return "in row"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type documentHandler interface {
	startTable(name string) error
	row(row sqlUtil.Row) error
	endTables() error
}

func shapeError(format string, args ...interface{}) error {
	return &jsonstream.ParseError{Err: fmt.Errorf(format, args...)}
}

// documentListener enforces the object -> array -> object -> scalar shape of
// an export document and hands complete rows to its handler.
type documentListener struct {
	handler  documentHandler
	state    State
	opened   bool
	tableKey bool
	field    string
	current  sqlUtil.Row
}

func (l *documentListener) StartDocument() error {
	l.state = Idle
	l.opened = false
	l.tableKey = false
	l.current = nil
	return nil
}

func (l *documentListener) EndDocument() error {
	if l.state != Done {
		return shapeError("document ended in state %s", l.state)
	}
	return nil
}

func (l *documentListener) StartObject() error {
	switch l.state {
	case Idle:
		if l.opened {
			return shapeError("table values must be arrays")
		}
		l.opened = true
	case InTableArray:
		l.state = InRow
		l.current = make(sqlUtil.Row, 0, len(l.current))
	case InRow:
		return shapeError("nested object in a row")
	default:
		return shapeError("unexpected object after the document")
	}
	return nil
}

func (l *documentListener) EndObject() error {
	switch l.state {
	case InRow:
		l.state = InTableArray
		return l.handler.row(l.current)
	case Idle:
		l.state = Done
		return l.handler.endTables()
	}
	return nil
}

func (l *documentListener) StartArray() error {
	switch l.state {
	case Idle:
		if !l.opened {
			return shapeError("the document must be an object")
		}
		if !l.tableKey {
			return shapeError("array without a table name")
		}
		l.tableKey = false
		l.state = InTableArray
	case InTableArray:
		return shapeError("rows must be objects")
	default:
		return shapeError("nested array in a row")
	}
	return nil
}

func (l *documentListener) EndArray() error {
	if l.state == InTableArray {
		l.state = Idle
	}
	return nil
}

func (l *documentListener) Key(key string) error {
	switch l.state {
	case Idle:
		l.tableKey = true
		return l.handler.startTable(key)
	case InRow:
		l.field = key
	}
	return nil
}

func (l *documentListener) Value(value interface{}) error {
	switch l.state {
	case InRow:
		if l.field != sqlUtil.PaginationSentinel {
			// a repeated key keeps its last value
			l.current = l.current.Set(l.field, value)
		}
		return nil
	case InTableArray:
		return shapeError("rows must be objects")
	default:
		if !l.opened {
			return shapeError("the document must be an object")
		}
		return shapeError("table values must be arrays")
	}
}

// ImportListener replays a streamed document into the importer.
type ImportListener struct {
	documentListener
	importer *JSONImporter

	currentTable  string
	currentExists bool

	event progress.Event
}

// NewImportListener sizes progress events with the given entry and table
// counts, either may be zero when unknown.
func NewImportListener(importer *JSONImporter, maxEntries int64, tableCount int) *ImportListener {
	l := &ImportListener{
		importer: importer,
		event:    progress.Event{TableIndex: -1, TableCount: tableCount, TotalRows: maxEntries},
	}
	l.documentListener.handler = l
	return l
}

func (l *ImportListener) StartDocument() error {
	l.importer.progress.OnStatus("Starting import")
	return l.documentListener.StartDocument()
}

func (l *ImportListener) EndDocument() error {
	if err := l.documentListener.EndDocument(); err != nil {
		return err
	}
	l.importer.progress.OnStatus("Task is finished")
	return nil
}

func (l *ImportListener) startTable(name string) error {
	if err := l.finishTable(); err != nil {
		return err
	}
	l.event.Table = name
	l.event.TableIndex++

	table, exists := l.importer.mapping.Resolve(name)
	if !exists {
		l.importer.skipTable(name)
		return nil
	}
	l.importer.progress.OnStatus("Scanning table " + table)
	l.currentTable = table
	l.currentExists = true
	l.event.Table = table
	return l.importer.BeforeTable(table)
}

func (l *ImportListener) finishTable() error {
	if !l.currentExists {
		return nil
	}
	l.currentExists = false
	return l.importer.AfterTable(l.currentTable)
}

func (l *ImportListener) row(row sqlUtil.Row) error {
	if l.currentExists {
		if err := l.importer.Insert(l.currentTable, row, nil); err != nil {
			return err
		}
	}
	l.event.RowsProcessed++
	l.importer.progress.OnProgress(l.event)
	return nil
}

func (l *ImportListener) endTables() error {
	return l.finishTable()
}

// CountListener counts rows (objects at depth 2) and tables (keys at depth 1).
type CountListener struct {
	jsonstream.IdleListener
	depth   int
	entries int64
	tables  int
}

func (c *CountListener) StartDocument() error {
	c.depth = 0
	c.entries = 0
	c.tables = 0
	return nil
}

func (c *CountListener) StartObject() error {
	c.depth++
	if c.depth == 2 {
		c.entries++
	}
	return nil
}

func (c *CountListener) EndObject() error {
	c.depth--
	return nil
}

func (c *CountListener) Key(string) error {
	if c.depth == 1 {
		c.tables++
	}
	return nil
}

func (c *CountListener) EntryCount() int64 {
	return c.entries
}

func (c *CountListener) TableCount() int {
	return c.tables
}

type tableData struct {
	name string
	rows []sqlUtil.Row
}

// documentBuilder keeps a whole document in memory, in document order.
type documentBuilder struct {
	tables []tableData
}

func (b *documentBuilder) startTable(name string) error {
	b.tables = append(b.tables, tableData{name: name})
	return nil
}

func (b *documentBuilder) row(row sqlUtil.Row) error {
	if len(b.tables) == 0 {
		return errors.New("row outside of a table")
	}
	last := &b.tables[len(b.tables)-1]
	last.rows = append(last.rows, row)
	return nil
}

func (b *documentBuilder) endTables() error {
	return nil
}
