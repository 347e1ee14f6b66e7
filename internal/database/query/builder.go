// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package query builds parameterised SQL fragments for the event store.
package query

import (
	"fmt"
	"strings"
	"time"
)

// WhereBuilder collects AND-ed conditions with their arguments.
//
//	wb := query.NewWhereBuilder().AddUser("u1").AddPlayedRange(&from, nil)
//	where, args := wb.BuildWithPrefix()
//	// WHERE user_id = ? AND played_at >= ?
type WhereBuilder struct {
	clauses []string
	args    []interface{}
}

// NewWhereBuilder returns an empty builder.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{}
}

// AddClause adds a raw condition. Empty clauses are ignored.
func (wb *WhereBuilder) AddClause(clause string, args ...interface{}) *WhereBuilder {
	if clause == "" {
		return wb
	}
	wb.clauses = append(wb.clauses, clause)
	wb.args = append(wb.args, args...)
	return wb
}

// AddUser restricts rows to one listening account.
func (wb *WhereBuilder) AddUser(userID string) *WhereBuilder {
	return wb.AddClause("user_id = ?", userID)
}

// AddPlayedRange restricts played_at to [from, to). Nil bounds are open.
func (wb *WhereBuilder) AddPlayedRange(from, to *time.Time) *WhereBuilder {
	if from != nil {
		wb.AddClause("played_at >= ?", from.UTC())
	}
	if to != nil {
		wb.AddClause("played_at < ?", to.UTC())
	}
	return wb
}

// Build returns the conditions joined by AND, without the WHERE keyword.
func (wb *WhereBuilder) Build() (string, []interface{}) {
	return strings.Join(wb.clauses, " AND "), wb.args
}

// BuildWithPrefix returns "WHERE ..." or "" when there are no conditions.
func (wb *WhereBuilder) BuildWithPrefix() (string, []interface{}) {
	clause, args := wb.Build()
	if clause == "" {
		return "", args
	}
	return "WHERE " + clause, args
}

// IsEmpty reports whether no condition was added.
func (wb *WhereBuilder) IsEmpty() bool {
	return len(wb.clauses) == 0
}

// InsertIgnore builds multi-row INSERT ... ON CONFLICT (...) DO NOTHING
// statements, split so that no statement exceeds a bind parameter cap.
type InsertIgnore struct {
	Table     string
	Columns   []string
	Conflict  []string
	MaxParams int
}

// Statement is one SQL text with its arguments.
type Statement struct {
	SQL  string
	Args []interface{}
	Rows int
}

// Build splits rows into statements. Every row must have len(Columns)
// values.
func (b InsertIgnore) Build(rows [][]interface{}) ([]Statement, error) {
	if len(b.Columns) == 0 {
		return nil, fmt.Errorf("insert into %s: no columns", b.Table)
	}
	perStmt := len(rows)
	if b.MaxParams > 0 {
		perStmt = b.MaxParams / len(b.Columns)
		if perStmt < 1 {
			perStmt = 1
		}
	}

	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(b.Columns)), ", ") + ")"
	head := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", b.Table, strings.Join(b.Columns, ", "))
	tail := " ON CONFLICT DO NOTHING"
	if len(b.Conflict) > 0 {
		tail = fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", strings.Join(b.Conflict, ", "))
	}

	var stmts []Statement
	for start := 0; start < len(rows); start += perStmt {
		end := start + perStmt
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		var sb strings.Builder
		sb.WriteString(head)
		args := make([]interface{}, 0, len(chunk)*len(b.Columns))
		for i, row := range chunk {
			if len(row) != len(b.Columns) {
				return nil, fmt.Errorf("insert into %s: row %d has %d values, want %d", b.Table, start+i, len(row), len(b.Columns))
			}
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(placeholder)
			args = append(args, row...)
		}
		sb.WriteString(tail)
		stmts = append(stmts, Statement{SQL: sb.String(), Args: args, Rows: len(chunk)})
	}
	return stmts, nil
}
