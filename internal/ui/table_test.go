package ui

import (
	"strings"
	"testing"
)

func TestTruncateCellCountsDisplayWidth(t *testing.T) {
	value := strings.Repeat("a", cellMaxWidth-1) + "é"

	got := TruncateCell(value)

	if got != value {
		t.Fatalf("expected value to remain untruncated, got %q", got)
	}
}

func TestTruncateCellShortensWideRunes(t *testing.T) {
	value := strings.Repeat("世", cellMaxWidth)

	got := TruncateCell(value)

	if width := displayWidth(got); width > cellMaxWidth {
		t.Fatalf("expected width at most %d, got %d", cellMaxWidth, width)
	}
	if !strings.HasSuffix(got, cellEllipsis) {
		t.Fatalf("expected ellipsis, got %q", got)
	}
}

func TestTruncateCellNormalizesLineBreaks(t *testing.T) {
	got := TruncateCell("Hello\nWorld\r\nAgain\tTab")

	if got != "Hello World Again Tab" {
		t.Fatalf("expected line breaks to normalize, got %q", got)
	}
}

func TestTruncateCellIgnoresANSICodes(t *testing.T) {
	value := "\x1b[1m\x1b[36m" + strings.Repeat("a", cellMaxWidth) + "\x1b[0m"

	got := TruncateCell(value)

	if got != value {
		t.Fatalf("expected value to remain untruncated, got %q", got)
	}
}

func TestFormatTableAlignsColumns(t *testing.T) {
	table := NewTable(2, "ID", "TITLE", "STATUS")
	table.AddRow("1", "Write docs", "TODO")
	table.AddRow("12", "世界", "DONE")

	got := table.String()

	expected := "" +
		"ID  TITLE       STATUS\n" +
		"1   Write docs  TODO\n" +
		"12  世界        DONE\n"
	if got != expected {
		t.Fatalf("expected aligned table, got %q", got)
	}
	if table.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", table.Len())
	}
}

func TestFormatTablePadsStyledCells(t *testing.T) {
	got := FormatTable([]string{"STATUS", "ID"}, [][]string{{colorize("done", "DONE"), "3"}})

	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if lines[0] != "STATUS  ID" || stripANSICodes(lines[1]) != "DONE    3" {
		t.Fatalf("expected styled row to align with header, got %q", got)
	}
}
