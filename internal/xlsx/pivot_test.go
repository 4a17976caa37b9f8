package xlsx

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testWorkbookXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<sheets>
<sheet name="RawData" sheetId="1" r:id="rId1"/>
<sheet name="Óránkénti jelentés" sheetId="2" r:id="rId2"/>
</sheets>
</workbook>`

const testWorkbookRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet1.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet2.xml"/>
</Relationships>`

const testSheetRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/pivotTable" Target="../pivotTables/pivotTable1.xml"/>
</Relationships>`

const testPivotTableXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<pivotTableDefinition xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" name="HourlyPivot" cacheId="1" dataCaption="Values">
<location ref="A3:B8" firstHeaderRow="1" firstDataRow="2" firstDataCol="1"/>
<pivotFields count="2">
<pivotField axis="axisPage" showAll="0">
<items count="4"><item x="0"/><item x="1"/><item x="2"/><item t="default"/></items>
</pivotField>
<pivotField dataField="1" showAll="0"/>
</pivotFields>
<pageFields count="1"><pageField fld="0" hier="-1"/></pageFields>
<dataFields count="1"><dataField name="Sum of Amount" fld="1" baseField="0" baseItem="0"/></dataFields>
</pivotTableDefinition>`

const testPivotTableRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/pivotCacheDefinition" Target="../pivotCache/pivotCacheDefinition1.xml"/>
</Relationships>`

const testPivotCacheXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<pivotCacheDefinition xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" recordCount="3">
<cacheFields count="2">
<cacheField name="Date" numFmtId="14">
<sharedItems containsSemiMixedTypes="0" containsNonDate="0" containsDate="1" containsString="0" count="3">
<d v="2025-01-01T00:00:00"/><d v="2025-01-02T00:00:00"/><d v="2025-01-03T00:00:00"/>
</sharedItems>
</cacheField>
<cacheField name="Amount" numFmtId="0">
<sharedItems containsSemiMixedTypes="0" containsString="0" containsNumber="1" count="2">
<n v="10"/><n v="5"/>
</sharedItems>
</cacheField>
</cacheFields>
</pivotCacheDefinition>`

const testSheetXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData/></worksheet>`

// writeTestWorkbook assembles a minimal package with one pivot table on the
// report sheet.
func writeTestWorkbook(t *testing.T) string {
	t.Helper()
	return writeWorkbookWithPivot(t, testPivotTableXML)
}

func writeWorkbookWithPivot(t *testing.T, pivotXML string) string {
	t.Helper()

	parts := map[string]string{
		"xl/workbook.xml":                           testWorkbookXML,
		"xl/_rels/workbook.xml.rels":                testWorkbookRels,
		"xl/worksheets/sheet1.xml":                  testSheetXML,
		"xl/worksheets/sheet2.xml":                  testSheetXML,
		"xl/worksheets/_rels/sheet2.xml.rels":       testSheetRels,
		"xl/pivotTables/pivotTable1.xml":            pivotXML,
		"xl/pivotTables/_rels/pivotTable1.xml.rels": testPivotTableRels,
		"xl/pivotCache/pivotCacheDefinition1.xml":   testPivotCacheXML,
	}

	path := filepath.Join(t.TempDir(), "report.xlsx")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test workbook: %v", err)
	}
	defer file.Close()

	writer := zip.NewWriter(file)
	for name, content := range parts {
		entry, err := writer.Create(name)
		if err != nil {
			t.Fatalf("failed to add part %s: %v", name, err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write part %s: %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to finalize test workbook: %v", err)
	}
	return path
}

func TestOpenReportView(t *testing.T) {
	path := writeTestWorkbook(t)

	view, err := OpenReportView(path, "Óránkénti jelentés")
	if err != nil {
		t.Fatalf("OpenReportView failed: %v", err)
	}

	pivots, err := view.Pivots()
	if err != nil {
		t.Fatalf("Pivots failed: %v", err)
	}
	if len(pivots) != 1 {
		t.Fatalf("pivot count = %d; want 1", len(pivots))
	}
	if pivots[0].Name() != "HourlyPivot" {
		t.Errorf("pivot name = %q; want %q", pivots[0].Name(), "HourlyPivot")
	}

	filters, err := pivots[0].Filters()
	if err != nil {
		t.Fatalf("Filters failed: %v", err)
	}
	if len(filters) != 1 {
		t.Fatalf("filter count = %d; want 1", len(filters))
	}
	if filters[0].ColumnIndex() != 0 {
		t.Errorf("ColumnIndex = %d; want 0", filters[0].ColumnIndex())
	}
	if filters[0].ColumnName() != "Date" {
		t.Errorf("ColumnName = %q; want %q", filters[0].ColumnName(), "Date")
	}
}

func TestOpenReportViewMissingSheet(t *testing.T) {
	path := writeTestWorkbook(t)
	if _, err := OpenReportView(path, "No Such Sheet"); err == nil {
		t.Error("OpenReportView accepted an unknown sheet name")
	}
}

func TestReportSheetWithoutPivots(t *testing.T) {
	path := writeTestWorkbook(t)

	// RawData has no pivot relationships
	view, err := OpenReportView(path, "RawData")
	if err != nil {
		t.Fatalf("OpenReportView failed: %v", err)
	}
	pivots, err := view.Pivots()
	if err != nil {
		t.Fatalf("Pivots failed: %v", err)
	}
	if len(pivots) != 0 {
		t.Errorf("pivot count = %d; want 0", len(pivots))
	}
}

func TestSetExactMatch(t *testing.T) {
	path := writeTestWorkbook(t)
	view, err := OpenReportView(path, "Óránkénti jelentés")
	if err != nil {
		t.Fatalf("OpenReportView failed: %v", err)
	}

	filter := firstFilter(t, view)
	if err := filter.ResetCriteria(); err != nil {
		t.Fatalf("ResetCriteria failed: %v", err)
	}
	if err := filter.SetExactMatch("2025-01-03"); err != nil {
		t.Fatalf("SetExactMatch failed: %v", err)
	}

	def := view.pivots[0].def
	page := def.PageFields.Fields[0]
	if page.Item == nil || *page.Item != 2 {
		t.Fatalf("page field item = %v; want 2", page.Item)
	}

	items := def.PivotFields.Fields[0].Items.Items
	for i, item := range items {
		if item.X == nil {
			if item.H != "" {
				t.Errorf("subtotal item %d was hidden", i)
			}
			continue
		}
		wantHidden := *item.X != 2
		if (item.H == "1") != wantHidden {
			t.Errorf("item x=%d hidden = %q; want hidden=%v", *item.X, item.H, wantHidden)
		}
	}
}

func TestSetExactMatchUnknownValue(t *testing.T) {
	path := writeTestWorkbook(t)
	view, err := OpenReportView(path, "Óránkénti jelentés")
	if err != nil {
		t.Fatalf("OpenReportView failed: %v", err)
	}

	filter := firstFilter(t, view)
	if err := filter.SetExactMatch("2030-12-31"); err == nil {
		t.Error("SetExactMatch accepted a value missing from the cache")
	}
}

func TestResetCriteria(t *testing.T) {
	path := writeTestWorkbook(t)
	view, err := OpenReportView(path, "Óránkénti jelentés")
	if err != nil {
		t.Fatalf("OpenReportView failed: %v", err)
	}

	filter := firstFilter(t, view)
	if err := filter.SetExactMatch("2025-01-02"); err != nil {
		t.Fatalf("SetExactMatch failed: %v", err)
	}
	if err := filter.ResetCriteria(); err != nil {
		t.Fatalf("ResetCriteria failed: %v", err)
	}

	def := view.pivots[0].def
	if def.PageFields.Fields[0].Item != nil {
		t.Error("page field selection survived a reset")
	}
	for i, item := range def.PivotFields.Fields[0].Items.Items {
		if item.H != "" {
			t.Errorf("item %d still hidden after reset", i)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := writeTestWorkbook(t)
	view, err := OpenReportView(path, "Óránkénti jelentés")
	if err != nil {
		t.Fatalf("OpenReportView failed: %v", err)
	}

	filter := firstFilter(t, view)
	if err := filter.ResetCriteria(); err != nil {
		t.Fatalf("ResetCriteria failed: %v", err)
	}
	if err := filter.SetExactMatch("2025-01-02"); err != nil {
		t.Fatalf("SetExactMatch failed: %v", err)
	}
	if err := view.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reopened, err := OpenReportView(path, "Óránkénti jelentés")
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}

	def := reopened.pivots[0].def
	if def.Name != "HourlyPivot" {
		t.Errorf("pivot name after round trip = %q", def.Name)
	}
	page := def.PageFields.Fields[0]
	if page.Item == nil || *page.Item != 1 {
		t.Fatalf("page field item after round trip = %v; want 1", page.Item)
	}
	for _, item := range def.PivotFields.Fields[0].Items.Items {
		if item.X == nil {
			continue
		}
		wantHidden := *item.X != 1
		if (item.H == "1") != wantHidden {
			t.Errorf("item x=%d hidden = %q after round trip; want hidden=%v", *item.X, item.H, wantHidden)
		}
	}

	// Untouched parts survive the rewrite byte for byte
	if string(reopened.parts["xl/worksheets/sheet2.xml"]) != testSheetXML {
		t.Error("unmodified part changed during save")
	}
}

// decoratedPivotTableXML carries the pivot features a report author adds on
// top of the plain definition: a style, conditional formats, and a manual
// value filter.
const decoratedPivotTableXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<pivotTableDefinition xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" name="HourlyPivot" cacheId="1" dataCaption="Values">
<location ref="A3:B8" firstHeaderRow="1" firstDataRow="2" firstDataCol="1"/>
<pivotFields count="2">
<pivotField axis="axisPage" showAll="0">
<items count="4"><item x="0"/><item x="1"/><item x="2"/><item t="default"/></items>
</pivotField>
<pivotField dataField="1" showAll="0"/>
</pivotFields>
<pageFields count="1"><pageField fld="0" hier="-1"/></pageFields>
<dataFields count="1"><dataField name="Sum of Amount" fld="1" baseField="0" baseItem="0"/></dataFields>
<conditionalFormats count="1"><conditionalFormat priority="1"><pivotAreas count="1"><pivotArea outline="0" fieldPosition="0"/></pivotAreas></conditionalFormat></conditionalFormats>
<chartFormats count="0"/>
<pivotTableStyleInfo name="PivotStyleLight16" showRowHeaders="1" showColHeaders="1" showRowStripes="0" showColStripes="0" showLastColumn="1"/>
<filters count="1"><filter fld="1" type="valueGreaterThan" evalOrder="-1" id="1" iMeasureFld="0"><autoFilter ref="A1"><filterColumn colId="0"><customFilters><customFilter operator="greaterThan" val="3"/></customFilters></filterColumn></autoFilter></filter></filters>
</pivotTableDefinition>`

func TestSavePreservesUnmodeledElements(t *testing.T) {
	path := writeWorkbookWithPivot(t, decoratedPivotTableXML)
	view, err := OpenReportView(path, "Óránkénti jelentés")
	if err != nil {
		t.Fatalf("OpenReportView failed: %v", err)
	}

	filter := firstFilter(t, view)
	if err := filter.ResetCriteria(); err != nil {
		t.Fatalf("ResetCriteria failed: %v", err)
	}
	if err := filter.SetExactMatch("2025-01-03"); err != nil {
		t.Fatalf("SetExactMatch failed: %v", err)
	}
	if err := view.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reopened, err := OpenReportView(path, "Óránkénti jelentés")
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}

	part := string(reopened.parts["xl/pivotTables/pivotTable1.xml"])
	for _, want := range []string{
		"<filters", "valueGreaterThan", "customFilter",
		"<conditionalFormats", "<chartFormats", "PivotStyleLight16",
	} {
		if !strings.Contains(part, want) {
			t.Errorf("rewritten pivot part lost %q", want)
		}
	}

	// The rewrite still applied the selection
	page := reopened.pivots[0].def.PageFields.Fields[0]
	if page.Item == nil || *page.Item != 2 {
		t.Errorf("page field item after rewrite = %v; want 2", page.Item)
	}
}

func TestSaveWithoutChangesIsNoOp(t *testing.T) {
	path := writeTestWorkbook(t)
	before, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	view, err := OpenReportView(path, "Óránkénti jelentés")
	if err != nil {
		t.Fatalf("OpenReportView failed: %v", err)
	}
	if err := view.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	after, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if !after.ModTime().Equal(before.ModTime()) || after.Size() != before.Size() {
		t.Error("Save without changes rewrote the workbook")
	}
}

func firstFilter(t *testing.T, view *ReportView) *pivotFilter {
	t.Helper()
	pivots, err := view.Pivots()
	if err != nil {
		t.Fatalf("Pivots failed: %v", err)
	}
	filters, err := pivots[0].Filters()
	if err != nil {
		t.Fatalf("Filters failed: %v", err)
	}
	if len(filters) == 0 {
		t.Fatal("pivot has no filters")
	}
	return filters[0].(*pivotFilter)
}
