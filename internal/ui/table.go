package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const cellMaxWidth = 50
const cellEllipsis = "..."

// Table collects rows and renders them as aligned columns.
type Table struct {
	headers []string
	rows    [][]string
}

// NewTable returns a table with room for capacity rows.
func NewTable(capacity int, headers ...string) *Table {
	return &Table{headers: headers, rows: make([][]string, 0, capacity)}
}

// AddRow appends a row.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) String() string {
	return FormatTable(t.headers, t.rows)
}

// FormatTable renders headers and rows as columns separated by two spaces.
// Widths count terminal cells, so wide runes line up.
func FormatTable(headers []string, rows [][]string) string {
	normalizedHeaders := make([]string, len(headers))
	for i, header := range headers {
		normalizedHeaders[i] = normalizeCell(header)
	}
	normalizedRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		normalized := make([]string, len(row))
		for i, cell := range row {
			normalized[i] = normalizeCell(cell)
		}
		normalizedRows = append(normalizedRows, normalized)
	}

	widths := make([]int, len(normalizedHeaders))
	for i, header := range normalizedHeaders {
		widths[i] = displayWidth(header)
	}
	for _, row := range normalizedRows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			widths[i] = max(widths[i], displayWidth(cell))
		}
	}

	var builder strings.Builder
	writeRow := func(row []string) {
		for i, cell := range row {
			builder.WriteString(cell)
			if i == len(row)-1 {
				builder.WriteByte('\n')
				continue
			}
			padding := 0
			if i < len(widths) {
				padding = widths[i] - displayWidth(cell)
			}
			builder.WriteString(strings.Repeat(" ", padding+2))
		}
	}

	writeRow(normalizedHeaders)
	for _, row := range normalizedRows {
		writeRow(row)
	}
	return builder.String()
}

// TruncateCell limits a cell to a fixed display width, keeping ANSI styling
// out of the count.
func TruncateCell(value string) string {
	value = normalizeCell(value)
	if displayWidth(value) <= cellMaxWidth {
		return value
	}
	if stripANSICodes(value) != value {
		// Styled cells are short labels; drop the styling rather than cut a sequence.
		value = stripANSICodes(value)
	}
	return runewidth.Truncate(value, cellMaxWidth, cellEllipsis)
}

func displayWidth(value string) int {
	return runewidth.StringWidth(stripANSICodes(value))
}

func normalizeCell(value string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ").Replace(value)
}

func stripANSICodes(input string) string {
	var builder strings.Builder
	inEscape := false
	for i := 0; i < len(input); i++ {
		char := input[i]
		if inEscape {
			if char == 'm' {
				inEscape = false
			}
			continue
		}
		if char == '\x1b' {
			inEscape = true
			continue
		}
		builder.WriteByte(char)
	}
	return builder.String()
}
