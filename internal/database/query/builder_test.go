// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package query

import (
	"strings"
	"testing"
	"time"
)

func TestWhereBuilder_Empty(t *testing.T) {
	wb := NewWhereBuilder()
	if !wb.IsEmpty() {
		t.Error("expected new builder to be empty")
	}
	clause, args := wb.BuildWithPrefix()
	if clause != "" || len(args) != 0 {
		t.Errorf("got %q %v, want empty", clause, args)
	}
}

func TestWhereBuilder_UserAndRange(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.FixedZone("CST", -6*3600))
	clause, args := NewWhereBuilder().AddUser("u1").AddPlayedRange(&from, nil).AddClause("").BuildWithPrefix()

	if clause != "WHERE user_id = ? AND played_at >= ?" {
		t.Errorf("clause = %q", clause)
	}
	if len(args) != 2 {
		t.Fatalf("args = %v", args)
	}
	if got := args[1].(time.Time); got.Location() != time.UTC || !got.Equal(from) {
		t.Errorf("range bound should be converted to UTC, got %v", got)
	}
}

func TestInsertIgnore_SingleStatement(t *testing.T) {
	b := InsertIgnore{Table: "t", Columns: []string{"a", "b"}, Conflict: []string{"a"}}
	stmts, err := b.Build([][]interface{}{{1, "x"}, {2, "y"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(stmts) != 1 {
		t.Fatalf("got %d statements, want 1", len(stmts))
	}
	want := "INSERT INTO t (a, b) VALUES (?, ?), (?, ?) ON CONFLICT (a) DO NOTHING"
	if stmts[0].SQL != want {
		t.Errorf("SQL = %q\nwant %q", stmts[0].SQL, want)
	}
	if len(stmts[0].Args) != 4 || stmts[0].Rows != 2 {
		t.Errorf("args=%v rows=%d", stmts[0].Args, stmts[0].Rows)
	}
}

func TestInsertIgnore_SplitsOnParamCap(t *testing.T) {
	b := InsertIgnore{Table: "t", Columns: []string{"a", "b", "c"}, MaxParams: 7}
	rows := make([][]interface{}, 5)
	for i := range rows {
		rows[i] = []interface{}{i, i, i}
	}
	stmts, err := b.Build(rows)
	if err != nil {
		t.Fatal(err)
	}
	// 7/3 = 2 rows per statement: 2 + 2 + 1.
	if len(stmts) != 3 {
		t.Fatalf("got %d statements, want 3", len(stmts))
	}
	if stmts[2].Rows != 1 || len(stmts[2].Args) != 3 {
		t.Errorf("last statement rows=%d args=%d", stmts[2].Rows, len(stmts[2].Args))
	}
	if !strings.HasSuffix(stmts[0].SQL, "ON CONFLICT DO NOTHING") {
		t.Errorf("missing conflict clause: %q", stmts[0].SQL)
	}
}

func TestInsertIgnore_RowWidthMismatch(t *testing.T) {
	b := InsertIgnore{Table: "t", Columns: []string{"a", "b"}}
	if _, err := b.Build([][]interface{}{{1}}); err == nil {
		t.Error("expected error for short row")
	}
}
