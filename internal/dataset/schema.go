package dataset

// Kind is the semantic type of a column
type Kind string

const (
	KindNumber Kind = "number"
	KindString Kind = "string"
	KindDate   Kind = "date"
)

// Field declares one column of a dataset schema
type Field struct {
	Name string
	Kind Kind
}

// Descriptor declares a dataset: its identifier, source file, and the
// fixed column schema the file must match.
type Descriptor struct {
	ID         string
	Title      string
	File       string
	Fields     []Field
	DateFormat string // layout for KindDate columns, defaults to 2006-01-02
}

// FieldNames returns the declared column names in order
func (d Descriptor) FieldNames() []string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}

// Dataset identifiers
const (
	Water          = "water"
	Environment    = "environment"
	Crimes         = "crimes"
	Infrastructure = "infrastructure"
	Employment     = "employment"
)

// Registry declares the five city datasets and their fixed schemas.
// File names follow the unified exports produced upstream.
var Registry = []Descriptor{
	{
		ID:    Water,
		Title: "Water & Sanitation",
		File:  "unified_water_sanitation.csv",
		Fields: []Field{
			{Name: "area", Kind: KindString},
			{Name: "households", Kind: KindNumber},
			{Name: "sewered_households", Kind: KindNumber},
			{Name: "toilet_households", Kind: KindNumber},
			{Name: "household_coverage_pct", Kind: KindNumber},
			{Name: "facility_count", Kind: KindNumber},
		},
	},
	{
		ID:    Environment,
		Title: "Environment",
		File:  "unified_environment.csv",
		Fields: []Field{
			{Name: "station", Kind: KindString},
			{Name: "pollutant", Kind: KindString},
			{Name: "reading_value", Kind: KindNumber},
			{Name: "date", Kind: KindDate},
		},
		DateFormat: "2006-01",
	},
	{
		ID:    Crimes,
		Title: "Crime Data",
		File:  "unified_crimes.csv",
		Fields: []Field{
			{Name: "year", Kind: KindNumber},
			{Name: "crime_type", Kind: KindString},
			{Name: "count", Kind: KindNumber},
			{Name: "area", Kind: KindString},
		},
	},
	{
		ID:    Infrastructure,
		Title: "Infrastructure",
		File:  "unified_intersections.csv",
		Fields: []Field{
			{Name: "location", Kind: KindString},
			{Name: "signal_type", Kind: KindString},
			{Name: "traffic_volume", Kind: KindNumber},
		},
	},
	{
		ID:    Employment,
		Title: "Employment",
		File:  "unified_employment.csv",
		Fields: []Field{
			{Name: "sector", Kind: KindString},
			{Name: "labour_force", Kind: KindNumber},
			{Name: "employed", Kind: KindNumber},
			{Name: "unemployment_rate", Kind: KindNumber},
		},
	},
}

// Lookup returns the descriptor for a dataset identifier
func Lookup(id string) (Descriptor, bool) {
	for _, d := range Registry {
		if d.ID == id {
			return d, true
		}
	}
	return Descriptor{}, false
}

// IDs returns the registered dataset identifiers in order
func IDs() []string {
	ids := make([]string, len(Registry))
	for i, d := range Registry {
		ids[i] = d.ID
	}
	return ids
}
