// SPDX-FileCopyrightText: 2024 SUSE LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package store is the relational store the import and export pipelines
// talk to. All statements are written with "?" placeholders and rebound for
// the store platform.
package store

import (
	"fmt"

	"github.com/uyuni-project/dbjson/platform"
	"github.com/uyuni-project/dbjson/schemareader"
	"github.com/uyuni-project/dbjson/sqlUtil"
)

// Store is used by one pipeline at a time and keeps at most one transaction open.
type Store interface {
	sqlUtil.MultiInsertExecutor

	Platform() platform.Platform
	ListTables() ([]schemareader.Table, error)
	CountRows(table string) (int64, error)
	FetchPage(table string, page Page) ([]sqlUtil.Row, error)

	BeginTransaction() error
	Commit() error
	Rollback() error
	InTransaction() bool

	ExecuteStatement(sql string, args ...interface{}) error
	QueryScalar(sql string, args ...interface{}) (interface{}, error)
	Close() error
}

// Page selects a slice of a table. Offset pages use Size and Offset, ordered
// by KeyColumn when set. Keyset pages use Size, KeyColumn and After, the last
// key seen (nil on the first page).
type Page struct {
	Size      int
	Offset    int64
	Keyset    bool
	KeyColumn string
	After     interface{}
}

// Error is returned for every failure reported by the underlying database.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store %s: %s", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}
