package model

// RawTable is a delimited-text table as read from a source: a header row and
// string cells. It is immutable once constructed.
type RawTable struct {
	name   string
	header []string
	index  map[string]int
	rows   [][]string
}

// nullTokens are cell values treated as missing, matching common CSV exports.
var nullTokens = map[string]struct{}{ //nolint:gochecknoglobals // read-only lookup table
	"":     {},
	"NA":   {},
	"N/A":  {},
	"n/a":  {},
	"#N/A": {},
	"NaN":  {},
	"nan":  {},
	"NULL": {},
	"null": {},
}

// IsNullToken reports whether a cell value counts as missing.
func IsNullToken(cell string) bool {
	_, ok := nullTokens[cell]
	return ok
}

// NewRawTable copies header and rows into a new table.
func NewRawTable(name string, header []string, rows [][]string) RawTable {
	t := RawTable{
		name:   name,
		header: append([]string(nil), header...),
		index:  make(map[string]int, len(header)),
		rows:   make([][]string, len(rows)),
	}
	for i, h := range t.header {
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}
	for i, r := range rows {
		t.rows[i] = append([]string(nil), r...)
	}
	return t
}

// Name returns the table name used in diagnostics.
func (t RawTable) Name() string { return t.name }

// Header returns a copy of the column names.
func (t RawTable) Header() []string { return append([]string(nil), t.header...) }

// Len returns the number of data rows.
func (t RawTable) Len() int { return len(t.rows) }

// Column returns the index of a column.
func (t RawTable) Column(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Cell returns the cell at row, col; missing trailing cells read as "".
func (t RawTable) Cell(row, col int) string {
	r := t.rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// IsNull reports whether the cell at row, col is missing.
func (t RawTable) IsNull(row, col int) bool {
	return IsNullToken(t.Cell(row, col))
}

// VehicleTable is the immutable, typed vehicle registry.
type VehicleTable struct {
	rows []Vehicle
	byID map[int64]int
}

// NewVehicleTable copies vehicles into a table indexed by id. The first row
// wins for a repeated id.
func NewVehicleTable(vehicles []Vehicle) VehicleTable {
	t := VehicleTable{
		rows: append([]Vehicle(nil), vehicles...),
		byID: make(map[int64]int, len(vehicles)),
	}
	for i, v := range t.rows {
		if _, dup := t.byID[v.ID]; !dup {
			t.byID[v.ID] = i
		}
	}
	return t
}

// Len returns the number of vehicles.
func (t VehicleTable) Len() int { return len(t.rows) }

// Row returns the i-th vehicle.
func (t VehicleTable) Row(i int) Vehicle { return t.rows[i] }

// Rows returns a copy of all vehicles.
func (t VehicleTable) Rows() []Vehicle { return append([]Vehicle(nil), t.rows...) }

// Lookup finds a vehicle by id.
func (t VehicleTable) Lookup(id int64) (Vehicle, bool) {
	i, ok := t.byID[id]
	if !ok {
		return Vehicle{}, false
	}
	return t.rows[i], true
}

// EventTable is the immutable, typed event table.
type EventTable struct {
	rows []MobilityEvent
}

// NewEventTable copies events into a table.
func NewEventTable(events []MobilityEvent) EventTable {
	return EventTable{rows: append([]MobilityEvent(nil), events...)}
}

// Len returns the number of events.
func (t EventTable) Len() int { return len(t.rows) }

// Row returns the i-th event.
func (t EventTable) Row(i int) MobilityEvent { return t.rows[i] }

// Rows returns a copy of all events.
func (t EventTable) Rows() []MobilityEvent { return append([]MobilityEvent(nil), t.rows...) }

// EnrichedTable is the immutable output of the cleaning stage. Consumers must
// not assume any row order.
type EnrichedTable struct {
	rows []EnrichedEvent
}

// NewEnrichedTable copies rows into a table.
func NewEnrichedTable(rows []EnrichedEvent) EnrichedTable {
	return EnrichedTable{rows: append([]EnrichedEvent(nil), rows...)}
}

// Len returns the number of rows.
func (t EnrichedTable) Len() int { return len(t.rows) }

// Row returns the i-th row.
func (t EnrichedTable) Row(i int) EnrichedEvent { return t.rows[i] }

// Rows returns a copy of all rows.
func (t EnrichedTable) Rows() []EnrichedEvent { return append([]EnrichedEvent(nil), t.rows...) }

// Each calls fn for every row without copying the table. fn must not retain
// the pointer.
func (t EnrichedTable) Each(fn func(i int, e *EnrichedEvent)) {
	for i := range t.rows {
		row := t.rows[i]
		fn(i, &row)
	}
}
