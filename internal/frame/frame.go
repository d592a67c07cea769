// Package frame holds the materialized input tables of a payout run.
//
// Cells are kept as strings in the form the sources deliver them: integers in
// base 10, bytes and addresses as 0x hex, lists as JSON arrays and null as the
// empty cell. Typed access goes through Reader.
package frame

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cowprotocol/solver-rewards/internal/apperror"
)

// Table is an in-memory table with named columns.
type Table struct {
	name    string
	columns []string
	index   map[string]int
	rows    [][]string
}

// New creates an empty table.
func New(name string, columns ...string) *Table {
	t := &Table{
		name:    name,
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		t.index[strings.TrimSpace(c)] = i
	}
	return t
}

// Name returns the table name used in error messages.
func (t *Table) Name() string { return t.name }

// Columns returns the column names in order.
func (t *Table) Columns() []string { return append([]string(nil), t.columns...) }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Has reports whether the table carries column.
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Append adds one row. The number of cells must match the columns.
func (t *Table) Append(cells ...string) error {
	if len(cells) != len(t.columns) {
		return fmt.Errorf("frame %s: row has %d cells, want %d", t.name, len(cells), len(t.columns))
	}
	t.rows = append(t.rows, append([]string(nil), cells...))
	return nil
}

// AppendMap adds one row from column values. Missing columns are null.
func (t *Table) AppendMap(values map[string]string) {
	row := make([]string, len(t.columns))
	for c, v := range values {
		if i, ok := t.index[c]; ok {
			row[i] = v
		}
	}
	t.rows = append(t.rows, row)
}

// Require fails with MissingColumn naming the first absent column.
func (t *Table) Require(columns ...string) error {
	for _, c := range columns {
		if !t.Has(c) {
			return apperror.New(apperror.CodeMissingColumn,
				apperror.WithComponent(apperror.ComponentOrchestrator),
				apperror.WithContext(fmt.Sprintf("table %s has no column %q", t.name, c)),
			)
		}
	}
	return nil
}

// Row returns a view of row i.
func (t *Table) Row(i int) Row {
	return Row{table: t, index: i}
}

// Row is one row of a Table.
type Row struct {
	table *Table
	index int
}

// Index returns the position of the row in its table.
func (r Row) Index() int { return r.index }

// Key identifies the row in error messages.
func (r Row) Key() string {
	return fmt.Sprintf("%s[%d]", r.table.name, r.index)
}

// Cell returns the raw cell and whether the column exists.
func (r Row) Cell(column string) (string, bool) {
	i, ok := r.table.index[column]
	if !ok {
		return "", false
	}
	return r.table.rows[r.index][i], true
}

// ReadCSV loads a table from CSV with a header line.
func ReadCSV(name string, r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("frame %s: empty input", name)
		}
		return nil, fmt.Errorf("frame %s: read header: %w", name, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	t := New(name, header...)
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("frame %s: line %d: %w", name, line, err)
		}
		if err := t.Append(record...); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	return t, nil
}

// WriteCSV writes the table with a header line.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.rows); err != nil {
		return err
	}
	return cw.Error()
}
