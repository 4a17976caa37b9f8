package sync

import (
	"testing"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{"ISO date", "2025-01-03", "2025-01-03", true},
		{"ISO datetime", "2025-01-03 14:30:00", "2025-01-03", true},
		{"ISO T datetime", "2025-01-03T14:30:00", "2025-01-03", true},
		{"US slash", "01/03/2025", "2025-01-03", true},
		{"US slash short", "1/3/2025", "2025-01-03", true},
		{"Spreadsheet short", "01-03-25", "2025-01-03", true},
		{"Serial number", "45658", "2025-01-01", true},
		{"Serial lower bound", "61", "1900-03-01", true},
		{"Large serial", "150000", "2310-09-07", true},
		{"Serial above guard", "300000", "", false},
		{"Whitespace", "  2025-01-03  ", "2025-01-03", true},
		{"Empty", "", "", false},
		{"Text", "latest", "", false},
		{"Small number", "42", "", false},
		{"Huge number", "9999999", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseDate(%q) ok = %v; want %v", tt.input, ok, tt.ok)
			}
			if ok && FormatDate(got) != tt.expected {
				t.Errorf("ParseDate(%q) = %s; want %s", tt.input, FormatDate(got), tt.expected)
			}
		})
	}
}

func TestLatestDate(t *testing.T) {
	tests := []struct {
		name     string
		rows     [][]string
		column   int
		expected string
		ok       bool
	}{
		{
			name: "Unordered dates",
			rows: [][]string{
				{"2025-01-01", "10"},
				{"2025-01-03", "5"},
				{"2025-01-02", "7"},
			},
			expected: "2025-01-03",
			ok:       true,
		},
		{
			name: "Single row",
			rows: [][]string{
				{"2024-06-15", "1"},
			},
			expected: "2024-06-15",
			ok:       true,
		},
		{
			name: "Unparseable rows ignored",
			rows: [][]string{
				{"n/a", "1"},
				{"2025-02-01", "2"},
				{"", "3"},
			},
			expected: "2025-02-01",
			ok:       true,
		},
		{
			name: "No parseable dates",
			rows: [][]string{
				{"abc", "1"},
				{"", "2"},
			},
			ok: false,
		},
		{
			name: "Short rows skipped",
			rows: [][]string{
				{},
				{"2025-03-01"},
			},
			expected: "2025-03-01",
			ok:       true,
		},
		{
			name:   "Non-zero column",
			column: 1,
			rows: [][]string{
				{"x", "2025-04-01"},
				{"y", "2025-04-09"},
			},
			expected: "2025-04-09",
			ok:       true,
		},
		{
			name: "Empty",
			rows: nil,
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LatestDate(tt.rows, tt.column)
			if ok != tt.ok {
				t.Fatalf("LatestDate ok = %v; want %v", ok, tt.ok)
			}
			if ok && FormatDate(got) != tt.expected {
				t.Errorf("LatestDate = %s; want %s", FormatDate(got), tt.expected)
			}
		})
	}
}
