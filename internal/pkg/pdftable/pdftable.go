// Package pdftable extracts fixed-position tables from PDF documents. It
// works on positioned text runs: runs on one line are clustered into cells
// by horizontal gaps, and a table is a maximal run of consecutive lines with
// at least two cells. Anything that does not match this shape is an error,
// never repaired.
package pdftable

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// cellGap is the minimum horizontal distance (in PDF points) between two
// text runs that separates table cells rather than words of one cell.
const cellGap = 18.0

// ExtractTable returns the cells of the table with the given zero-based
// index on the given one-based page.
func ExtractTable(data []byte, page, tableIndex int) (table [][]string, err error) {
	// the pdf reader panics on some malformed documents
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	if page < 1 || page > reader.NumPage() {
		return nil, fmt.Errorf("pdf has %d pages, want page %d", reader.NumPage(), page)
	}

	p := reader.Page(page)
	if p.V.IsNull() {
		return nil, fmt.Errorf("pdf page %d is empty", page)
	}

	rows, err := p.GetTextByRow()
	if err != nil {
		return nil, fmt.Errorf("read page %d text: %w", page, err)
	}

	tables := splitTables(rows)
	if tableIndex >= len(tables) {
		return nil, fmt.Errorf("page %d holds %d tables, want table %d", page, len(tables), tableIndex)
	}
	return tables[tableIndex], nil
}

// splitTables groups consecutive multi-cell lines into tables; single-cell
// lines (titles, running text) terminate the current table.
func splitTables(rows pdf.Rows) [][][]string {
	var tables [][][]string
	var current [][]string

	for _, row := range rows {
		cells := clusterCells(row.Content)
		if len(cells) < 2 {
			if len(current) > 0 {
				tables = append(tables, current)
				current = nil
			}
			continue
		}
		current = append(current, cells)
	}
	if len(current) > 0 {
		tables = append(tables, current)
	}
	return tables
}

// clusterCells merges the positioned text runs of one line into cells,
// starting a new cell wherever the horizontal gap exceeds cellGap.
func clusterCells(texts []pdf.Text) []string {
	if len(texts) == 0 {
		return nil
	}
	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var cells []string
	var cell strings.Builder
	prevEnd := sorted[0].X

	for i, t := range sorted {
		if i > 0 && t.X-prevEnd > cellGap {
			cells = append(cells, strings.TrimSpace(cell.String()))
			cell.Reset()
		}
		cell.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	cells = append(cells, strings.TrimSpace(cell.String()))

	out := cells[:0]
	for _, c := range cells {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}
