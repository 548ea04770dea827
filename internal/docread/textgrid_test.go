package docread

import (
	"reflect"
	"testing"
)

func TestDetectTablesFromAlignedColumns(t *testing.T) {
	text := `Register map for the meter.

Address    Name          Type
40001      Voltage L1    UINT16
40002      Voltage L2    UINT16

End of section.`

	tables := DetectTables(text)
	if len(tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(tables))
	}
	want := [][]string{
		{"Address", "Name", "Type"},
		{"40001", "Voltage L1", "UINT16"},
		{"40002", "Voltage L2", "UINT16"},
	}
	if !reflect.DeepEqual(tables[0].Rows, want) {
		t.Fatalf("got %v, want %v", tables[0].Rows, want)
	}
}

func TestDetectTablesPipeSeparated(t *testing.T) {
	text := "Address | Name | Access\n40001 | Frequency | R"
	tables := DetectTables(text)
	if len(tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(tables))
	}
	if !reflect.DeepEqual(tables[0].Rows[1], []string{"40001", "Frequency", "R"}) {
		t.Fatalf("unexpected row: %v", tables[0].Rows[1])
	}
}

func TestDetectTablesIgnoresLoneAlignedLine(t *testing.T) {
	text := "Chapter 4    Communications\n\nPlain prose follows here."
	if tables := DetectTables(text); len(tables) != 0 {
		t.Fatalf("expected no tables, got %v", tables)
	}
}

func TestDetectTablesMultipleRuns(t *testing.T) {
	text := "A    B\nC    D\n\nprose line\n\nE | F\nG | H"
	tables := DetectTables(text)
	if len(tables) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(tables))
	}
}

func TestSplitRow(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"a\tb\tc", []string{"a", "b", "c"}},
		{"a  b", []string{"a", "b"}},
		{"| a | b |", []string{"a", "b"}},
		{"single", nil},
		{"", nil},
		{"one two", nil}, // single spaces are words, not columns
	}
	for _, tt := range tests {
		if got := splitRow(tt.line); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitRow(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}
