// Package xlsx adapts an .xlsx workbook to the report interfaces: excelize
// for row access to the raw data sheet, and direct package editing for the
// pivot tables.
package xlsx

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

type Workbook struct {
	file     *excelize.File
	filepath string
}

// OpenWorkbook opens an existing workbook file
func OpenWorkbook(filepath string) (*Workbook, error) {
	file, err := excelize.OpenFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %v", err)
	}
	return &Workbook{
		file:     file,
		filepath: filepath,
	}, nil
}

// Rows returns all rows of a sheet
func (w *Workbook) Rows(sheet string) ([][]string, error) {
	rows, err := w.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %v", err)
	}
	return rows, nil
}

// SheetNames returns all sheet names in the workbook
func (w *Workbook) SheetNames() []string {
	return w.file.GetSheetList()
}

// Close closes the workbook
func (w *Workbook) Close() error {
	return w.file.Close()
}

// DataSource reads the raw data sheet. Every Rows call reopens the file so
// a scheduled run always sees the rows the upload job wrote last.
type DataSource struct {
	path  string
	sheet string
}

func NewDataSource(path, sheet string) *DataSource {
	return &DataSource{path: path, sheet: sheet}
}

// Rows implements report.DataSource.
func (d *DataSource) Rows() ([][]string, error) {
	wb, err := OpenWorkbook(d.path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	rows, err := wb.Rows(d.sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %v", d.sheet, err)
	}
	return rows, nil
}
