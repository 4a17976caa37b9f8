// Package report defines the interfaces between the synchronization logic
// and whatever actually stores the data table and the pivot tables. The
// xlsx package provides the workbook-backed implementations; tests use
// in-memory fakes.
package report

// DataSource provides read-only access to the raw data table. Row 0 is the
// header row, the remaining rows are data rows.
type DataSource interface {
	Rows() ([][]string, error)
}

// ReportView enumerates the pivot tables placed on the report sheet.
type ReportView interface {
	Pivots() ([]Pivot, error)
}

// Pivot is a single pivot table with zero or more filter fields.
type Pivot interface {
	Name() string
	Filters() ([]Filter, error)
}

// Filter is one filter (page) field of a pivot table.
type Filter interface {
	// ColumnIndex is the zero-based index of the source column the filter
	// is bound to.
	ColumnIndex() int
	// ColumnName is the header name of the bound source column.
	ColumnName() string
	// ResetCriteria clears all criteria so every value is visible again.
	ResetCriteria() error
	// SetExactMatch restricts the filter to rows whose value equals the
	// given literal.
	SetExactMatch(value string) error
}
