// Package sync keeps the date filters of the report sheet's pivot tables
// aligned with the most recent date found in the raw data table.
package sync

import (
	"fmt"
	"strings"
	"time"

	"pivotsync/internal/logger"
	"pivotsync/internal/report"
)

// Synchronizer wires a data source and a report view together. It has no
// state of its own; every run re-reads both sides.
type Synchronizer struct {
	source     report.DataSource
	view       report.ReportView
	dateColumn int
}

// Result summarizes one synchronization run.
type Result struct {
	LatestDate     string
	RowCount       int
	PivotCount     int
	FiltersUpdated int
	FiltersFailed  int
	Skipped        bool
	Reason         string
}

func New(source report.DataSource, view report.ReportView, dateColumn int) *Synchronizer {
	return &Synchronizer{
		source:     source,
		view:       view,
		dateColumn: dateColumn,
	}
}

// SyncToLatest reads the data table, computes the most recent date in the
// date column and applies it as the exact-match criterion of every
// date-bound pivot filter. An empty or dateless table is a logged no-op,
// not an error.
func (s *Synchronizer) SyncToLatest() (*Result, error) {
	rows, err := s.source.Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to read data rows: %w", err)
	}

	if len(rows) < 2 {
		logger.Warn("Data table has no data rows, nothing to sync", "row_count", len(rows))
		return &Result{RowCount: len(rows), Skipped: true, Reason: "fewer than two rows"}, nil
	}

	latest, ok := LatestDate(rows[1:], s.dateColumn)
	if !ok {
		logger.Warn("No parseable date found in date column", "column", s.dateColumn, "row_count", len(rows))
		return &Result{RowCount: len(rows), Skipped: true, Reason: "no parseable dates"}, nil
	}

	dateStr := FormatDate(latest)
	logger.Info("Computed latest date from data table", "date", dateStr, "row_count", len(rows))

	result, err := s.apply(dateStr)
	if err != nil {
		return nil, err
	}
	result.RowCount = len(rows)
	return result, nil
}

// SyncToDate applies an explicit YYYY-MM-DD literal to every date-bound
// pivot filter, bypassing the data table entirely.
func (s *Synchronizer) SyncToDate(dateStr string) (*Result, error) {
	if _, err := time.Parse(DateLayout, dateStr); err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", dateStr, err)
	}
	logger.Info("Syncing filters to explicit date", "date", dateStr)
	return s.apply(dateStr)
}

// apply sets the exact-match criterion on every date-bound filter of every
// pivot. One filter failing never aborts the remaining ones.
func (s *Synchronizer) apply(dateStr string) (*Result, error) {
	pivots, err := s.view.Pivots()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate pivot tables: %w", err)
	}

	result := &Result{LatestDate: dateStr, PivotCount: len(pivots)}
	if len(pivots) == 0 {
		logger.Warn("Report view has no pivot tables")
		return result, nil
	}

	for _, pivot := range pivots {
		filters, err := pivot.Filters()
		if err != nil {
			logger.Error("Failed to list filters, skipping pivot", "pivot", pivot.Name(), "error", err)
			result.FiltersFailed++
			continue
		}

		// The fallback may update a filter before its own loop turn; track
		// updated filters so one criterion is never counted twice
		updated := make(map[report.Filter]bool)

		for _, filter := range filters {
			if !s.isDateBound(filter) || updated[filter] {
				continue
			}

			if err := applyCriterion(filter, dateStr); err != nil {
				logger.Warn("Filter update failed, retrying by header name",
					"pivot", pivot.Name(), "column", filter.ColumnName(), "error", err)

				target, retryErr := retryByHeaderName(filters, dateStr)
				if retryErr != nil {
					logger.Error("Filter update failed after retry, skipping",
						"pivot", pivot.Name(), "column", filter.ColumnName(), "error", retryErr)
					result.FiltersFailed++
					continue
				}

				updated[target] = true
				logger.Info("Filter updated", "pivot", pivot.Name(), "column", target.ColumnName(), "date", dateStr)
				result.FiltersUpdated++
				continue
			}

			updated[filter] = true
			logger.Info("Filter updated", "pivot", pivot.Name(), "column", filter.ColumnName(), "date", dateStr)
			result.FiltersUpdated++
		}
	}

	return result, nil
}

// isDateBound reports whether a filter targets the date column, either by
// index or by a header name containing "date" in any casing.
func (s *Synchronizer) isDateBound(filter report.Filter) bool {
	if filter.ColumnIndex() == s.dateColumn {
		return true
	}
	return strings.Contains(strings.ToLower(filter.ColumnName()), "date")
}

func applyCriterion(filter report.Filter, dateStr string) error {
	if err := filter.ResetCriteria(); err != nil {
		return err
	}
	return filter.SetExactMatch(dateStr)
}

// retryByHeaderName is the fallback strategy: re-resolve the filter purely
// by header-name equality to "date" and try once more. Returns the filter
// that received the criterion.
func retryByHeaderName(filters []report.Filter, dateStr string) (report.Filter, error) {
	for _, filter := range filters {
		if strings.EqualFold(filter.ColumnName(), "date") {
			if err := applyCriterion(filter, dateStr); err != nil {
				return nil, err
			}
			return filter, nil
		}
	}
	return nil, fmt.Errorf("no filter with header name \"date\"")
}
