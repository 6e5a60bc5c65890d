// Package sheet appends candidate records to an xlsx workbook.
package sheet

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/bassamadnan/mailfilter/candidate"
)

// Header is the first row of a new sheet.
var Header = []string{"Name", "Phone", "Role"}

// Writer appends rows to one sheet of a workbook. The workbook is reopened
// and saved in full on every Append.
type Writer struct {
	path  string
	sheet string
}

func NewWriter(path, sheet string) *Writer {
	if sheet == "" {
		sheet = "Sheet1"
	}
	return &Writer{path: path, sheet: sheet}
}

func (w *Writer) Path() string { return w.path }

// Append writes rec on the row after the last used one, creating the
// workbook, the sheet and the header row when they are missing. A blank
// record is refused: trailing blank rows do not count as used, so the next
// append would overwrite it.
func (w *Writer) Append(rec candidate.Record) error {
	if rec.Empty() {
		return candidate.ErrEmptyRecord
	}

	f, err := w.open()
	if err != nil {
		return err
	}
	defer f.Close()

	if err := w.ensureSheet(f); err != nil {
		return err
	}

	rows, err := f.GetRows(w.sheet)
	if err != nil {
		return fmt.Errorf("reading rows of %s: %w", w.sheet, err)
	}
	next := len(rows) + 1
	if len(rows) == 0 {
		if err := f.SetSheetRow(w.sheet, "A1", &Header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
		next = 2
	}

	cell, err := excelize.CoordinatesToCellName(1, next)
	if err != nil {
		return err
	}
	row := rec.Row()
	if err := f.SetSheetRow(w.sheet, cell, &row); err != nil {
		return fmt.Errorf("writing row %d: %w", next, err)
	}

	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating spreadsheet directory: %w", err)
		}
	}
	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving %s: %w", w.path, err)
	}
	return nil
}

// Rows returns the data rows, header excluded. A missing workbook has none.
func (w *Writer) Rows() ([][]string, error) {
	f, err := excelize.OpenFile(w.path)
	if errors.Is(err, fs.ErrNotExist) {
		return [][]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", w.path, err)
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(w.sheet)
	if err != nil {
		return nil, err
	}
	if idx == -1 {
		return [][]string{}, nil
	}

	rows, err := f.GetRows(w.sheet)
	if err != nil {
		return nil, fmt.Errorf("reading rows of %s: %w", w.sheet, err)
	}
	if len(rows) <= 1 {
		return [][]string{}, nil
	}
	return rows[1:], nil
}

func (w *Writer) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(w.path)
	if errors.Is(err, fs.ErrNotExist) {
		return excelize.NewFile(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", w.path, err)
	}
	return f, nil
}

// ensureSheet creates the target sheet. A fresh workbook only holds the
// default "Sheet1", which is renamed instead so no empty sheet is left behind.
func (w *Writer) ensureSheet(f *excelize.File) error {
	idx, err := f.GetSheetIndex(w.sheet)
	if err != nil {
		return err
	}
	if idx != -1 {
		return nil
	}

	if list := f.GetSheetList(); len(list) == 1 && list[0] == "Sheet1" {
		rows, err := f.GetRows("Sheet1")
		if err == nil && len(rows) == 0 {
			return f.SetSheetName("Sheet1", w.sheet)
		}
	}
	if _, err := f.NewSheet(w.sheet); err != nil {
		return fmt.Errorf("creating sheet %s: %w", w.sheet, err)
	}
	return nil
}
