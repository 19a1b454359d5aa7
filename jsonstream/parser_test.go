package jsonstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

type recordingListener struct {
	events []string
	failOn string
}

func (r *recordingListener) record(event string) error {
	r.events = append(r.events, event)
	if event == r.failOn {
		return errors.New("listener failure")
	}
	return nil
}

func (r *recordingListener) StartDocument() error { return r.record("startDocument") }
func (r *recordingListener) EndDocument() error { return r.record("endDocument") }
func (r *recordingListener) StartObject() error { return r.record("{") }
func (r *recordingListener) EndObject() error { return r.record("}") }
func (r *recordingListener) StartArray() error { return r.record("[") }
func (r *recordingListener) EndArray() error { return r.record("]") }
func (r *recordingListener) Key(key string) error { return r.record("key:" + key) }
func (r *recordingListener) Value(value interface{}) error {
	return r.record(fmt.Sprintf("value:%T:%v", value, value))
}

func TestParseEvents(t *testing.T) {
	// Arrange
	document := `{"t":[{"id":1,"name":"x","ok":true,"none":null,"f":1.5}],"empty":[],"s":"v"}`
	listener := &recordingListener{}

	// Act
	err := Parse(strings.NewReader(document), listener)

	// Assert
	if err != nil {
		t.Fatal(err)
	}
	expected := []string{
		"startDocument",
		"{",
		"key:t", "[", "{",
		"key:id", "value:json.Number:1",
		"key:name", "value:string:x",
		"key:ok", "value:bool:true",
		"key:none", "value:<nil>:<nil>",
		"key:f", "value:json.Number:1.5",
		"}", "]",
		"key:empty", "[", "]",
		"key:s", "value:string:v",
		"}",
		"endDocument",
	}
	if !reflect.DeepEqual(listener.events, expected) {
		t.Errorf("unexpected events:\n%v\nexpected:\n%v", listener.events, expected)
	}
}

func TestParseStringValueInArrayIsNotAKey(t *testing.T) {
	listener := &recordingListener{}
	if err := Parse(strings.NewReader(`{"a":["x",{"b":"y"}]}`), listener); err != nil {
		t.Fatal(err)
	}
	expected := []string{"startDocument", "{", "key:a", "[", "value:string:x", "{", "key:b", "value:string:y", "}", "]", "}", "endDocument"}
	if !reflect.DeepEqual(listener.events, expected) {
		t.Errorf("unexpected events: %v", listener.events)
	}
}

func TestParseMalformedDocuments(t *testing.T) {
	for _, document := range []string{
		``,
		`{"t":[{"id":1}`,
		`{"t":[{"id":1,}]}`,
		`{"t":[]} {}`,
		`{"t" 1}`,
	} {
		err := Parse(strings.NewReader(document), &IdleListener{})
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Errorf("%q: expected a parse error, got %v", document, err)
		}
	}
}

func TestParseListenerErrors(t *testing.T) {
	listener := &recordingListener{failOn: "key:b"}
	err := Parse(strings.NewReader(`{"a":1,"b":2}`), listener)
	if err == nil || err.Error() != "listener failure" {
		t.Errorf("listener error must be returned unchanged, got %v", err)
	}
	if listener.events[len(listener.events)-1] != "key:b" {
		t.Errorf("parsing continued after the listener failure: %v", listener.events)
	}
}

type rejectingListener struct {
	IdleListener
}

func (rejectingListener) StartArray() error {
	return &ParseError{Err: errors.New("arrays are not allowed")}
}

func TestParseListenerParseErrorGetsOffset(t *testing.T) {
	err := Parse(strings.NewReader(`{"a": [1]}`), rejectingListener{})
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected a parse error, got %v", err)
	}
	if parseErr.Offset == 0 {
		t.Errorf("expected the offset to be filled in")
	}
}

func TestParseNumbersKeepPrecision(t *testing.T) {
	var value interface{}
	listener := &valueListener{value: &value}
	if err := Parse(strings.NewReader(`12345678901234567890`), listener); err != nil {
		t.Fatal(err)
	}
	if value != json.Number("12345678901234567890") {
		t.Errorf("unexpected value: %#v", value)
	}
}

type valueListener struct {
	IdleListener
	value *interface{}
}

func (v *valueListener) Value(value interface{}) error {
	*v.value = value
	return nil
}
