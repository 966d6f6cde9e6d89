package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestTable(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	table := NewTable(&buf, []string{"TABLE", "ID", "ROWS"}, &TableOptions{NoColor: true})

	table.AddRow("Module", "0x00", "1")
	table.AddRow("TypeDef", "0x02", "14")
	table.AddRow("Field", "0x04", "230")

	table.Render()

	output := buf.String()

	// Check headers
	if !strings.Contains(output, "TABLE") {
		t.Errorf("Table output missing header 'TABLE'")
	}
	if !strings.Contains(output, "ROWS") {
		t.Errorf("Table output missing header 'ROWS'")
	}

	// Check rows
	if !strings.Contains(output, "Module") {
		t.Errorf("Table output missing row data 'Module'")
	}
	if !strings.Contains(output, "0x02") {
		t.Errorf("Table output missing row data '0x02'")
	}
	if !strings.Contains(output, "230") {
		t.Errorf("Table output missing row data '230'")
	}

	// Check separator
	if !strings.Contains(output, "-") {
		t.Errorf("Table output missing separator")
	}
}

func TestTableAlignment(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	table := NewTable(&buf, []string{"A", "B"}, &TableOptions{NoColor: true})
	table.AddRow("longvalue", "x")
	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}

	// Column width grows to the widest cell, so both headers start at the
	// same offset as the data below them.
	if !strings.HasPrefix(lines[2], "longvalue  x") {
		t.Errorf("expected padded row, got %q", lines[2])
	}
	if !strings.Contains(lines[0], "A          B") {
		t.Errorf("expected padded headers, got %q", lines[0])
	}
}

func TestTableEmpty(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	table := NewTable(&buf, []string{}, &TableOptions{NoColor: true})
	table.AddRow("ignored")
	table.Render()

	if buf.Len() != 0 {
		t.Errorf("expected no output for a headerless table, got %q", buf.String())
	}
}
