package dataset

import (
	"math"
	"sort"
	"time"

	"cityscope/pkg/contracts/domain"
)

// Table holds one loaded dataset in columnar form. Numeric columns use
// NaN to mark missing cells so aggregate code can skip them without a
// parallel validity mask. Tables are immutable once built.
type Table struct {
	desc    Descriptor
	rows    int
	numbers map[string][]float64
	strings map[string][]string
	dates   map[string][]time.Time
	// raw preserves the original cell text for explorer output
	raw map[string][]string
}

// Desc returns the descriptor the table was loaded against
func (t *Table) Desc() Descriptor { return t.desc }

// NumRows returns the row count excluding the header
func (t *Table) NumRows() int { return t.rows }

// Numbers returns the numeric column values. Missing cells are NaN.
func (t *Table) Numbers(name string) []float64 { return t.numbers[name] }

// Strings returns the string column values
func (t *Table) Strings(name string) []string { return t.strings[name] }

// Dates returns the date column values. Missing cells are the zero time.
func (t *Table) Dates(name string) []time.Time { return t.dates[name] }

// Cell returns the original text of a cell as read from the file
func (t *Table) Cell(name string, row int) string {
	col, ok := t.raw[name]
	if !ok || row < 0 || row >= len(col) {
		return ""
	}
	return col[row]
}

// Page returns rows [offset, offset+limit) as explorer cells, with the
// typed value for numeric columns so clients keep numbers as numbers.
// Sort orders by the named column before slicing; an empty sort keeps
// file order.
func (t *Table) Page(offset, limit int, sortBy, order string) [][]interface{} {
	idx := t.sortIndex(sortBy, order)

	if offset < 0 {
		offset = 0
	}
	if offset >= t.rows {
		return [][]interface{}{}
	}
	end := offset + limit
	if limit <= 0 || end > t.rows {
		end = t.rows
	}

	out := make([][]interface{}, 0, end-offset)
	for _, r := range idx[offset:end] {
		row := make([]interface{}, len(t.desc.Fields))
		for i, f := range t.desc.Fields {
			switch f.Kind {
			case KindNumber:
				v := t.numbers[f.Name][r]
				if math.IsNaN(v) {
					row[i] = nil
				} else {
					row[i] = v
				}
			default:
				row[i] = t.Cell(f.Name, r)
			}
		}
		out = append(out, row)
	}
	return out
}

// sortIndex builds a row permutation ordered by the given column. Rows
// with missing values sort last regardless of direction.
func (t *Table) sortIndex(sortBy, order string) []int {
	idx := make([]int, t.rows)
	for i := range idx {
		idx[i] = i
	}
	if sortBy == "" {
		return idx
	}

	desc := order == "desc"
	field, ok := t.field(sortBy)
	if !ok {
		return idx
	}

	switch field.Kind {
	case KindNumber:
		col := t.numbers[sortBy]
		sort.SliceStable(idx, func(a, b int) bool {
			va, vb := col[idx[a]], col[idx[b]]
			if math.IsNaN(va) {
				return false
			}
			if math.IsNaN(vb) {
				return true
			}
			if desc {
				return va > vb
			}
			return va < vb
		})
	case KindDate:
		col := t.dates[sortBy]
		sort.SliceStable(idx, func(a, b int) bool {
			va, vb := col[idx[a]], col[idx[b]]
			if va.IsZero() {
				return false
			}
			if vb.IsZero() {
				return true
			}
			if desc {
				return va.After(vb)
			}
			return va.Before(vb)
		})
	default:
		col := t.strings[sortBy]
		sort.SliceStable(idx, func(a, b int) bool {
			if desc {
				return col[idx[a]] > col[idx[b]]
			}
			return col[idx[a]] < col[idx[b]]
		})
	}
	return idx
}

func (t *Table) field(name string) (Field, bool) {
	for _, f := range t.desc.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// HasColumn reports whether the named column exists
func (t *Table) HasColumn(name string) bool {
	_, ok := t.field(name)
	return ok
}

// Profiles summarizes every column for the data explorer: declared type,
// non-null count, and distinct value count.
func (t *Table) Profiles() []domain.ColumnProfile {
	profiles := make([]domain.ColumnProfile, 0, len(t.desc.Fields))
	for _, f := range t.desc.Fields {
		p := domain.ColumnProfile{Name: f.Name, Type: string(f.Kind)}
		switch f.Kind {
		case KindNumber:
			distinct := make(map[float64]struct{})
			for _, v := range t.numbers[f.Name] {
				if !math.IsNaN(v) {
					p.NonNull++
					distinct[v] = struct{}{}
				}
			}
			p.Distinct = len(distinct)
		case KindDate:
			distinct := make(map[time.Time]struct{})
			for _, v := range t.dates[f.Name] {
				if !v.IsZero() {
					p.NonNull++
					distinct[v] = struct{}{}
				}
			}
			p.Distinct = len(distinct)
		default:
			distinct := make(map[string]struct{})
			for _, v := range t.strings[f.Name] {
				if v != "" {
					p.NonNull++
					distinct[v] = struct{}{}
				}
			}
			p.Distinct = len(distinct)
		}
		profiles = append(profiles, p)
	}
	return profiles
}
