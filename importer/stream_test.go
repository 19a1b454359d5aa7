package importer

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/uyuni-project/dbjson/jsonstream"
	"github.com/uyuni-project/dbjson/platform"
	"github.com/uyuni-project/dbjson/progress"
	"github.com/uyuni-project/dbjson/storage"
)

func source(document string) storage.Source {
	return storage.NewSeekerSource(strings.NewReader(document))
}

func TestStreamImport(t *testing.T) {
	// Arrange
	s := newRecordingStore(platform.NewGeneric(), "a", "b")
	recorder := &progress.Recorder{}
	importer, err := NewJSONStreamImporter(s, WithProgress(recorder), WithOptions(Options{CountEntriesFirst: true}))
	if err != nil {
		t.Fatal(err)
	}
	document := `{"a":[{"id":1},{"id":2,"doctrine_rownum":2}],"gone":[{"id":3}],"B":[{}]}`

	// Act
	err = importer.Import(source(document))

	// Assert
	if err != nil {
		t.Fatal(err)
	}
	assertCalls(t, s, "list", "begin", "insert 2", "insert 1", "commit")
	if s.inserts[1] != "INSERT INTO \"b\" DEFAULT VALUES;\n" {
		t.Errorf("unexpected empty row insert %q", s.inserts[1])
	}
	if len(s.values[0]) != 2 {
		t.Errorf("the pagination column must not be inserted, got values %v", s.values[0])
	}

	expectedStatuses := []string{
		"Scanning json file...",
		"Scan OK! Starting import...",
		"Starting import",
		"Scanning table a",
		"table gone does not exist, skipping",
		"Scanning table b",
		"Task is finished",
	}
	if !reflect.DeepEqual(recorder.Statuses, expectedStatuses) {
		t.Errorf("unexpected statuses:\n%q\nexpected:\n%q", recorder.Statuses, expectedStatuses)
	}
	if len(recorder.Events) != 4 {
		t.Fatalf("expected one progress event per row, got %d", len(recorder.Events))
	}
	expectedLast := progress.Event{Table: "b", TableIndex: 2, TableCount: 3, RowsProcessed: 4, TotalRows: 4}
	if last := recorder.Events[3]; last != expectedLast {
		t.Errorf("unexpected last event %+v", last)
	}
	if skipped := recorder.Events[2]; skipped.Table != "gone" || skipped.TableIndex != 1 {
		t.Errorf("unexpected event for the skipped table %+v", skipped)
	}
	if warnings := importer.Warnings(); len(warnings) != 1 || warnings[0].Table != "gone" {
		t.Errorf("unexpected warnings %v", warnings)
	}
}

func TestStreamImportWithoutCounting(t *testing.T) {
	s := newRecordingStore(platform.NewSQLite(), "a")
	recorder := &progress.Recorder{}
	importer, err := NewJSONStreamImporter(s, WithProgress(recorder))
	if err != nil {
		t.Fatal(err)
	}
	importer.MaxEntries = 10

	if err := importer.Import(source(`{"a":[{"id":1}]}`)); err != nil {
		t.Fatal(err)
	}

	assertCalls(t, s, "list", "PRAGMA foreign_keys = OFF", "begin", "insert 1", "commit", "PRAGMA foreign_keys = ON")
	if recorder.Statuses[0] != "Starting import" {
		t.Errorf("no counting pass expected, got statuses %q", recorder.Statuses)
	}
	if event := recorder.Events[0]; event.TotalRows != 10 || event.TableCount != 0 {
		t.Errorf("unexpected event sizing %+v", event)
	}
}

func TestStreamImportRejectsUnexpectedShapes(t *testing.T) {
	testCases := []struct {
		name     string
		document string
	}{
		{"top level array", `[]`},
		{"scalar table", `{"a":1}`},
		{"object table", `{"a":{"id":1}}`},
		{"scalar row", `{"a":[1]}`},
		{"nested array", `{"a":[[]]}`},
		{"nested object", `{"a":[{"id":1},{"id":{"x":1}}]}`},
		{"nested array in row", `{"a":[{"id":[1]}]}`},
		{"truncated", `{"a":[{"id":1}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newRecordingStore(platform.NewGeneric(), "a")
			importer, err := NewJSONStreamImporter(s)
			if err != nil {
				t.Fatal(err)
			}

			err = importer.Import(source(tc.document))

			var parseErr *jsonstream.ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected a parse error, got %v", err)
			}
			// rows of a broken document are never sent
			for _, call := range s.calls {
				if strings.HasPrefix(call, "insert") {
					t.Errorf("unexpected insert for %s", tc.document)
				}
			}
			if s.calls[len(s.calls)-1] != "rollback" {
				t.Errorf("expected a rollback, got %q", s.calls)
			}
		})
	}
}

func TestCountListener(t *testing.T) {
	counter := &CountListener{}

	err := jsonstream.Parse(strings.NewReader(`{"a":[{"id":1,"x":"y"},{}],"b":[],"c":[{"id":2}]}`), counter)

	if err != nil {
		t.Fatal(err)
	}
	if counter.EntryCount() != 3 {
		t.Errorf("expected 3 entries, got %d", counter.EntryCount())
	}
	if counter.TableCount() != 3 {
		t.Errorf("expected 3 tables, got %d", counter.TableCount())
	}
}
