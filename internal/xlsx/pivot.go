package xlsx

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"pivotsync/internal/logger"
	"pivotsync/internal/report"
)

const (
	workbookPartPath = "xl/workbook.xml"

	relTypeWorksheet  = "/worksheet"
	relTypePivotTable = "/pivotTable"
	relTypePivotCache = "/pivotCacheDefinition"
)

// ReportView opens the workbook package directly and exposes the pivot
// tables placed on one sheet. Excelize has no API for pivot filter
// criteria, so the pivot parts are edited at the SpreadsheetML level and
// written back into the package on Save.
type ReportView struct {
	path   string
	sheet  string
	order  []string
	parts  map[string][]byte
	pivots []*pivotTable
}

type pivotTable struct {
	view     *ReportView
	partPath string
	def      *pivotTableDefinition
	cache    *pivotCacheDefinition
	dirty    bool
}

type pivotFilter struct {
	pivot *pivotTable
	// index of the page field inside the pivot definition
	pageIndex int
}

// OpenReportView reads the workbook package and resolves every pivot table
// attached to the named sheet, following the worksheet's relationships.
func OpenReportView(workbookPath, sheetName string) (*ReportView, error) {
	view := &ReportView{
		path:  workbookPath,
		sheet: sheetName,
		parts: make(map[string][]byte),
	}

	reader, err := zip.OpenReader(workbookPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %v", workbookPath, err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to read part %s: %v", file.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read part %s: %v", file.Name, err)
		}
		view.order = append(view.order, file.Name)
		view.parts[file.Name] = data
	}

	sheetPart, err := view.resolveSheetPart(sheetName)
	if err != nil {
		return nil, err
	}

	if err := view.loadPivots(sheetPart); err != nil {
		return nil, err
	}

	logger.Debug("Opened report view", "workbook", workbookPath, "sheet", sheetName, "pivot_count", len(view.pivots))
	return view, nil
}

// resolveSheetPart maps the sheet name to its part path via the workbook
// part and its relationships.
func (v *ReportView) resolveSheetPart(sheetName string) (string, error) {
	data, ok := v.parts[workbookPartPath]
	if !ok {
		return "", fmt.Errorf("workbook part not found in package")
	}

	var wb workbookPart
	if err := xml.Unmarshal(data, &wb); err != nil {
		return "", fmt.Errorf("failed to parse workbook part: %v", err)
	}

	rid := ""
	for _, sheet := range wb.Sheets.Sheet {
		if sheet.Name == sheetName {
			rid = sheet.RID
			break
		}
	}
	if rid == "" {
		return "", fmt.Errorf("sheet %q not found in workbook", sheetName)
	}

	rels, err := v.readRels(workbookPartPath)
	if err != nil {
		return "", err
	}
	for _, rel := range rels.Rels {
		if rel.ID == rid && strings.HasSuffix(rel.Type, relTypeWorksheet) {
			return resolvePartPath(path.Dir(workbookPartPath), rel.Target), nil
		}
	}
	return "", fmt.Errorf("no worksheet relationship %s for sheet %q", rid, sheetName)
}

// loadPivots parses every pivot table the sheet's relationships point at,
// together with each table's cache definition.
func (v *ReportView) loadPivots(sheetPart string) error {
	rels, err := v.readRels(sheetPart)
	if err != nil {
		// A sheet without relationships has no pivots on it
		logger.Debug("Sheet has no relationships part", "sheet_part", sheetPart)
		return nil
	}

	baseDir := path.Dir(sheetPart)
	for _, rel := range rels.Rels {
		if !strings.HasSuffix(rel.Type, relTypePivotTable) {
			continue
		}

		partPath := resolvePartPath(baseDir, rel.Target)
		data, ok := v.parts[partPath]
		if !ok {
			return fmt.Errorf("pivot table part %s missing from package", partPath)
		}

		def := &pivotTableDefinition{}
		if err := xml.Unmarshal(data, def); err != nil {
			return fmt.Errorf("failed to parse pivot table %s: %v", partPath, err)
		}

		cache, err := v.loadCache(partPath)
		if err != nil {
			return err
		}

		v.pivots = append(v.pivots, &pivotTable{
			view:     v,
			partPath: partPath,
			def:      def,
			cache:    cache,
		})
	}
	return nil
}

func (v *ReportView) loadCache(pivotPart string) (*pivotCacheDefinition, error) {
	rels, err := v.readRels(pivotPart)
	if err != nil {
		return nil, fmt.Errorf("pivot table %s has no relationships: %v", pivotPart, err)
	}

	for _, rel := range rels.Rels {
		if !strings.HasSuffix(rel.Type, relTypePivotCache) {
			continue
		}
		partPath := resolvePartPath(path.Dir(pivotPart), rel.Target)
		data, ok := v.parts[partPath]
		if !ok {
			return nil, fmt.Errorf("pivot cache part %s missing from package", partPath)
		}
		cache := &pivotCacheDefinition{}
		if err := xml.Unmarshal(data, cache); err != nil {
			return nil, fmt.Errorf("failed to parse pivot cache %s: %v", partPath, err)
		}
		return cache, nil
	}
	return nil, fmt.Errorf("pivot table %s has no cache relationship", pivotPart)
}

func (v *ReportView) readRels(partPath string) (*relationships, error) {
	relsPath := path.Join(path.Dir(partPath), "_rels", path.Base(partPath)+".rels")
	data, ok := v.parts[relsPath]
	if !ok {
		return nil, fmt.Errorf("relationships part %s not found", relsPath)
	}
	rels := &relationships{}
	if err := xml.Unmarshal(data, rels); err != nil {
		return nil, fmt.Errorf("failed to parse relationships %s: %v", relsPath, err)
	}
	return rels, nil
}

// Pivots implements report.ReportView.
func (v *ReportView) Pivots() ([]report.Pivot, error) {
	pivots := make([]report.Pivot, len(v.pivots))
	for i, p := range v.pivots {
		pivots[i] = p
	}
	return pivots, nil
}

// Save writes the modified pivot parts back into the package, atomically
// replacing the workbook file. A view with no modifications is a no-op.
func (v *ReportView) Save() error {
	dirty := false
	for _, pivot := range v.pivots {
		if !pivot.dirty {
			continue
		}
		data, err := xml.Marshal(pivot.def)
		if err != nil {
			return fmt.Errorf("failed to serialize pivot table %s: %v", pivot.partPath, err)
		}
		v.parts[pivot.partPath] = append([]byte(xml.Header), data...)
		pivot.dirty = false
		dirty = true
	}
	if !dirty {
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(v.path), ".pivotsync-*.xlsx")
	if err != nil {
		return fmt.Errorf("failed to create temp workbook: %v", err)
	}
	tmpPath := tmp.Name()

	writer := zip.NewWriter(tmp)
	for _, name := range v.order {
		entry, err := writer.Create(name)
		if err == nil {
			_, err = entry.Write(v.parts[name])
		}
		if err != nil {
			writer.Close()
			tmp.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to write part %s: %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize workbook: %v", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp workbook: %v", err)
	}

	if err := os.Rename(tmpPath, v.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace workbook: %v", err)
	}

	logger.Info("Workbook saved", "path", v.path)
	return nil
}

func (p *pivotTable) Name() string {
	return p.def.Name
}

// Filters implements report.Pivot; every page field is one filter.
func (p *pivotTable) Filters() ([]report.Filter, error) {
	if p.def.PageFields == nil {
		return nil, nil
	}
	filters := make([]report.Filter, len(p.def.PageFields.Fields))
	for i := range p.def.PageFields.Fields {
		filters[i] = &pivotFilter{pivot: p, pageIndex: i}
	}
	return filters, nil
}

func (f *pivotFilter) pageField() *pageField {
	return &f.pivot.def.PageFields.Fields[f.pageIndex]
}

func (f *pivotFilter) ColumnIndex() int {
	return f.pageField().Fld
}

func (f *pivotFilter) ColumnName() string {
	fld := f.pageField().Fld
	fields := f.pivot.cache.CacheFields.CacheField
	if fld < 0 || fld >= len(fields) {
		return ""
	}
	return fields[fld].Name
}

// ResetCriteria clears the hidden flag on every item of the bound pivot
// field and drops the page field's single selection.
func (f *pivotFilter) ResetCriteria() error {
	field, err := f.pivotField()
	if err != nil {
		return err
	}
	if field.Items != nil {
		for i := range field.Items.Items {
			field.Items.Items[i].H = ""
		}
	}
	f.pageField().Item = nil
	f.pivot.dirty = true
	return nil
}

// SetExactMatch selects the single cache item equal to the given value and
// hides every other one. The value must already exist in the pivot cache;
// a value the cache has never seen cannot be selected.
func (f *pivotFilter) SetExactMatch(value string) error {
	field, err := f.pivotField()
	if err != nil {
		return err
	}
	if field.Items == nil || len(field.Items.Items) == 0 {
		return fmt.Errorf("pivot field %d has no item list", f.pageField().Fld)
	}

	sharedIdx := f.matchSharedItem(value)
	if sharedIdx < 0 {
		return fmt.Errorf("value %q not present in pivot cache for column %q", value, f.ColumnName())
	}

	selected := -1
	for i, item := range field.Items.Items {
		if item.X != nil && *item.X == sharedIdx {
			selected = i
			break
		}
	}
	if selected < 0 {
		return fmt.Errorf("pivot field %d has no item for cache entry %d", f.pageField().Fld, sharedIdx)
	}

	for i := range field.Items.Items {
		item := &field.Items.Items[i]
		if item.X == nil {
			// subtotal items carry no value and keep their state
			continue
		}
		if i == selected {
			item.H = ""
		} else {
			item.H = "1"
		}
	}

	f.pageField().Item = &selected
	f.pivot.dirty = true
	return nil
}

func (f *pivotFilter) pivotField() (*pivotField, error) {
	fld := f.pageField().Fld
	if f.pivot.def.PivotFields == nil || fld < 0 || fld >= len(f.pivot.def.PivotFields.Fields) {
		return nil, fmt.Errorf("pivot definition has no field %d", fld)
	}
	return &f.pivot.def.PivotFields.Fields[fld], nil
}

// matchSharedItem finds the cache item equal to the value. String items
// match by equality; date items are stored as ISO datetimes and match on
// the date part.
func (f *pivotFilter) matchSharedItem(value string) int {
	fld := f.pageField().Fld
	fields := f.pivot.cache.CacheFields.CacheField
	if fld < 0 || fld >= len(fields) {
		return -1
	}
	for i, item := range fields[fld].SharedItems.Items {
		switch item.XMLName.Local {
		case "s":
			if item.V == value {
				return i
			}
		case "d":
			if item.V == value || strings.HasPrefix(item.V, value+"T") {
				return i
			}
		}
	}
	return -1
}

// resolvePartPath resolves a relationship target against the directory of
// the part carrying the relationship.
func resolvePartPath(baseDir, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Clean(path.Join(baseDir, target))
}
