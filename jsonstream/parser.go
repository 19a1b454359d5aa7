// Package jsonstream is an event driven JSON parser. The document is never
// held in memory: every structural token is handed to a Listener as soon as
// it is read.
package jsonstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Listener receives the parse events. Returning an error stops the parse.
type Listener interface {
	StartDocument() error
	EndDocument() error
	StartObject() error
	EndObject() error
	StartArray() error
	EndArray() error
	Key(key string) error
	// Value receives nil, bool, string or json.Number.
	Value(value interface{}) error
}

// IdleListener ignores every event, embed it to implement only what matters.
type IdleListener struct{}

func (IdleListener) StartDocument() error { return nil }
func (IdleListener) EndDocument() error { return nil }
func (IdleListener) StartObject() error { return nil }
func (IdleListener) EndObject() error { return nil }
func (IdleListener) StartArray() error { return nil }
func (IdleListener) EndArray() error { return nil }
func (IdleListener) Key(string) error { return nil }
func (IdleListener) Value(interface{}) error { return nil }

// ParseError reports malformed input, or a document a listener rejected.
type ParseError struct {
	Offset int64
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type frame struct {
	object    bool
	expectKey bool
}

// Parse reads exactly one JSON value from r. Errors returned by the listener
// are passed through unchanged, except for a *ParseError without an offset
// which gets the current input offset.
func Parse(r io.Reader, l Listener) error {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	stack := make([]frame, 0, 8)
	started := false
	finished := false

	afterValue := func() {
		if len(stack) > 0 && stack[len(stack)-1].object {
			stack[len(stack)-1].expectKey = true
		}
	}
	fail := func(err error) error {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			if parseErr.Offset == 0 {
				parseErr.Offset = decoder.InputOffset()
			}
			return parseErr
		}
		return err
	}

	if err := l.StartDocument(); err != nil {
		return fail(err)
	}
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			if !started {
				return &ParseError{Offset: decoder.InputOffset(), Err: errors.New("empty document")}
			}
			if len(stack) > 0 {
				return &ParseError{Offset: decoder.InputOffset(), Err: io.ErrUnexpectedEOF}
			}
			break
		}
		if err != nil {
			return &ParseError{Offset: decoder.InputOffset(), Err: err}
		}
		if finished {
			return &ParseError{Offset: decoder.InputOffset(), Err: errors.New("unexpected data after the top-level value")}
		}
		started = true

		switch v := token.(type) {
		case json.Delim:
			switch v {
			case '{':
				err = l.StartObject()
				stack = append(stack, frame{object: true, expectKey: true})
			case '[':
				err = l.StartArray()
				stack = append(stack, frame{})
			case '}':
				stack = stack[:len(stack)-1]
				err = l.EndObject()
				afterValue()
			case ']':
				stack = stack[:len(stack)-1]
				err = l.EndArray()
				afterValue()
			}
		case string:
			if len(stack) > 0 && stack[len(stack)-1].expectKey {
				stack[len(stack)-1].expectKey = false
				err = l.Key(v)
			} else {
				err = l.Value(v)
				afterValue()
			}
		default:
			err = l.Value(v)
			afterValue()
		}
		if err != nil {
			return fail(err)
		}
		if len(stack) == 0 {
			finished = true
		}
	}
	return fail(l.EndDocument())
}
