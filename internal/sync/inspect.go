package sync

import (
	"fmt"

	"pivotsync/internal/logger"
)

// Diagnostics is the read-only snapshot produced by Inspect.
type Diagnostics struct {
	RowCount    int
	Header      []string
	LastRowRaw  string
	LastRowDate string
	Pivots      []PivotInfo
}

type PivotInfo struct {
	Name    string
	Filters []FilterInfo
}

type FilterInfo struct {
	ColumnIndex int
	ColumnName  string
	DateBound   bool
}

// Inspect reads both sides of the synchronizer and reports what a sync run
// would see, without mutating anything.
func (s *Synchronizer) Inspect() (*Diagnostics, error) {
	rows, err := s.source.Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to read data rows: %w", err)
	}

	diag := &Diagnostics{RowCount: len(rows)}
	if len(rows) > 0 {
		diag.Header = rows[0]
	}
	if len(rows) > 1 {
		last := rows[len(rows)-1]
		if s.dateColumn < len(last) {
			diag.LastRowRaw = last[s.dateColumn]
			if t, ok := ParseDate(last[s.dateColumn]); ok {
				diag.LastRowDate = FormatDate(t)
			}
		}
	}

	pivots, err := s.view.Pivots()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate pivot tables: %w", err)
	}

	for _, pivot := range pivots {
		info := PivotInfo{Name: pivot.Name()}
		filters, err := pivot.Filters()
		if err != nil {
			logger.Warn("Failed to list filters during inspection", "pivot", pivot.Name(), "error", err)
			diag.Pivots = append(diag.Pivots, info)
			continue
		}
		for _, filter := range filters {
			info.Filters = append(info.Filters, FilterInfo{
				ColumnIndex: filter.ColumnIndex(),
				ColumnName:  filter.ColumnName(),
				DateBound:   s.isDateBound(filter),
			})
		}
		diag.Pivots = append(diag.Pivots, info)
	}

	logger.Info("Inspection completed", "row_count", diag.RowCount, "pivot_count", len(diag.Pivots))
	return diag, nil
}
