package main

import (
	"strings"
	"testing"
)

func TestSimpleTable(t *testing.T) {
	table := newSimpleTable("Dataset Summary", "Column", "Type")
	table.AddRow("amount", "fractional")

	styles := defaultTableStyles()
	view := table.View(styles)

	t.Logf("View:\n%q", view)

	if !strings.Contains(view, "Dataset Summary") {
		t.Error("View missing title")
	}
	if !strings.Contains(view, "amount") {
		t.Error("View missing cell content")
	}
	if !strings.Contains(view, "fractional") {
		t.Error("View missing cell content")
	}
}

func TestSimpleTableEmpty(t *testing.T) {
	table := newSimpleTable("Empty", "Col")
	if view := table.View(defaultTableStyles()); view != "" {
		t.Errorf("Expected empty view for table with no rows, got %q", view)
	}
}
