package cleaning

import "github.com/okian/fleetpulse/internal/domain/model"

// ColumnNulls is the null audit result for one column.
type ColumnNulls struct {
	Table   string `json:"table"`
	Column  string `json:"column"`
	Nulls   int    `json:"nulls"`
	HasNull bool   `json:"has_null"`
}

// AuditNulls counts missing cells per column of every table, in header order.
// It never modifies the tables.
func AuditNulls(tables ...model.RawTable) []ColumnNulls {
	var out []ColumnNulls
	for _, t := range tables {
		header := t.Header()
		counts := make([]int, len(header))
		for r := 0; r < t.Len(); r++ {
			for c := range header {
				if t.IsNull(r, c) {
					counts[c]++
				}
			}
		}
		for c, name := range header {
			out = append(out, ColumnNulls{
				Table:   t.Name(),
				Column:  name,
				Nulls:   counts[c],
				HasNull: counts[c] > 0,
			})
		}
	}
	return out
}
