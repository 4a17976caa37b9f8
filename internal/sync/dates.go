package sync

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical form filter criteria are written in.
const DateLayout = "2006-01-02"

// dateLayouts are the cell formats accepted when scanning the date column.
// Excelize returns formatted strings, so both ISO and the spreadsheet
// default short formats show up in practice.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"1-2-06",
}

// excelEpoch is day zero of the spreadsheet serial date system.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseDate parses a single cell value as a calendar date. Dates are civil
// dates: no timezone is attached during parsing or formatting.
func ParseDate(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return truncateToDate(t), true
		}
	}

	// Serial day number, for cells whose number format was stripped
	if serial, err := strconv.ParseFloat(trimmed, 64); err == nil {
		// Anything below 61 predates 1900-03-01 and is not a real report date
		if serial >= 61 && serial < 300000 {
			return excelEpoch.AddDate(0, 0, int(serial)), true
		}
	}

	return time.Time{}, false
}

// FormatDate renders a parsed date in the canonical zero-padded form.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// LatestDate returns the maximum parseable date in the given column of the
// data rows (header row excluded by the caller). The second return is false
// when no cell parsed.
func LatestDate(rows [][]string, column int) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, row := range rows {
		if column >= len(row) {
			continue
		}
		t, ok := ParseDate(row[column])
		if !ok {
			continue
		}
		if !found || t.After(latest) {
			latest = t
			found = true
		}
	}
	return latest, found
}
