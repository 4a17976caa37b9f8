package xlsx

import "encoding/xml"

// The structs below model just enough of the SpreadsheetML pivot parts to
// read filter fields and rewrite their selection. Attributes we do not
// interpret are carried through ",any,attr" captures, and elements we never
// touch are carried verbatim through rawElement, so a rewritten part stays
// valid for the hosting application. pivotTableDefinition lists every child
// of CT_PivotTableDefinition in schema order; Extra catches anything beyond
// the schema so a rewrite never drops content it does not know.

// rawElement round-trips an element we do not interpret.
type rawElement struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Inner   string     `xml:",innerxml"`
}

// pivotTableDefinition is xl/pivotTables/pivotTableN.xml.
type pivotTableDefinition struct {
	XMLName     xml.Name    `xml:"pivotTableDefinition"`
	Name        string      `xml:"name,attr"`
	CacheID     int         `xml:"cacheId,attr"`
	Attrs       []xml.Attr  `xml:",any,attr"`
	Location    *rawElement `xml:"location"`
	PivotFields *struct {
		Count  int          `xml:"count,attr"`
		Fields []pivotField `xml:"pivotField"`
	} `xml:"pivotFields"`
	RowFields *rawElement `xml:"rowFields"`
	RowItems  *rawElement `xml:"rowItems"`
	ColFields *rawElement `xml:"colFields"`
	ColItems  *rawElement `xml:"colItems"`
	PageFields *struct {
		Count  int         `xml:"count,attr"`
		Fields []pageField `xml:"pageField"`
	} `xml:"pageFields"`
	DataFields          *rawElement  `xml:"dataFields"`
	Formats             *rawElement  `xml:"formats"`
	ConditionalFormats  *rawElement  `xml:"conditionalFormats"`
	ChartFormats        *rawElement  `xml:"chartFormats"`
	PivotHierarchies    *rawElement  `xml:"pivotHierarchies"`
	PivotTableStyleInfo *rawElement  `xml:"pivotTableStyleInfo"`
	Filters             *rawElement  `xml:"filters"`
	RowHierarchiesUsage *rawElement  `xml:"rowHierarchiesUsage"`
	ColHierarchiesUsage *rawElement  `xml:"colHierarchiesUsage"`
	Extra               []rawElement `xml:",any"`
	ExtLst              *rawElement  `xml:"extLst"`
}

type pivotField struct {
	Axis  string     `xml:"axis,attr,omitempty"`
	Attrs []xml.Attr `xml:",any,attr"`
	Items *struct {
		Count int         `xml:"count,attr"`
		Items []pivotItem `xml:"item"`
	} `xml:"items"`
}

// pivotItem is one entry of a pivot field's item list. X indexes into the
// cache field's shared items; items with a T kind (subtotals, "default")
// have no X. H carries the hidden flag, which is how a filter excludes a
// value.
type pivotItem struct {
	X     *int       `xml:"x,attr"`
	T     string     `xml:"t,attr,omitempty"`
	H     string     `xml:"h,attr,omitempty"`
	Attrs []xml.Attr `xml:",any,attr"`
}

// pageField is one filter field. Fld indexes into both the pivot fields and
// the cache fields. Item, when set, is the index of the single selected
// pivot item; absent means no single selection.
type pageField struct {
	Fld   int        `xml:"fld,attr"`
	Item  *int       `xml:"item,attr"`
	Attrs []xml.Attr `xml:",any,attr"`
}

// pivotCacheDefinition is xl/pivotCache/pivotCacheDefinitionN.xml. Read
// only, never rewritten.
type pivotCacheDefinition struct {
	XMLName     xml.Name `xml:"pivotCacheDefinition"`
	CacheFields struct {
		CacheField []cacheField `xml:"cacheField"`
	} `xml:"cacheFields"`
}

type cacheField struct {
	Name        string `xml:"name,attr"`
	SharedItems struct {
		Count int          `xml:"count,attr"`
		Items []sharedItem `xml:",any"`
	} `xml:"sharedItems"`
}

// sharedItem keeps the element kind so string ("s") and date ("d") values
// can be told apart while their order, and so their indices, is preserved.
type sharedItem struct {
	XMLName xml.Name
	V       string `xml:"v,attr"`
}

// workbookPart is the slice of xl/workbook.xml needed to map a sheet name
// to its relationship id.
type workbookPart struct {
	XMLName xml.Name `xml:"workbook"`
	Sheets  struct {
		Sheet []workbookSheet `xml:"sheet"`
	} `xml:"sheets"`
}

type workbookSheet struct {
	Name string `xml:"name,attr"`
	RID  string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
}

// relationships is any *.rels part.
type relationships struct {
	XMLName xml.Name       `xml:"Relationships"`
	Rels    []relationship `xml:"Relationship"`
}

type relationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}
