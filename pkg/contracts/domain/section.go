package domain

// Section identifies one topical dashboard view
type Section string

const (
	SectionOverview       Section = "overview"
	SectionWater          Section = "water"
	SectionEnvironment    Section = "environment"
	SectionCrime          Section = "crime"
	SectionInfrastructure Section = "infrastructure"
	SectionEmployment     Section = "employment"
)

// Sections lists the topical sections in sidebar order
var Sections = []Section{
	SectionWater,
	SectionEnvironment,
	SectionCrime,
	SectionInfrastructure,
	SectionEmployment,
}

// ValidSection reports whether s names a topical section
func ValidSection(s string) bool {
	for _, sec := range Sections {
		if string(sec) == s {
			return true
		}
	}
	return false
}

// SectionView is the render-ready payload for one dashboard section.
// A section whose dataset failed to load carries Available=false and a
// Placeholder message instead of metrics and charts.
type SectionView struct {
	Section     Section     `json:"section"`
	Title       string      `json:"title"`
	Available   bool        `json:"available"`
	Placeholder string      `json:"placeholder,omitempty"`
	Metrics     []Metric    `json:"metrics,omitempty"`
	Charts      []ChartSpec `json:"charts,omitempty"`
	Table       *TableData  `json:"table,omitempty"`
}

// Metric is a single headline value shown as a metric card
type Metric struct {
	Label string  `json:"label"`
	Value string  `json:"value"`
	Unit  string  `json:"unit,omitempty"`
	Raw   float64 `json:"raw"`
}

// ChartType enumerates the supported chart shapes
type ChartType string

const (
	ChartBar        ChartType = "bar"
	ChartLine       ChartType = "line"
	ChartPie        ChartType = "pie"
	ChartGroupedBar ChartType = "grouped_bar"
)

// ChartSpec is a declarative chart description for the frontend
type ChartSpec struct {
	Type   ChartType     `json:"type"`
	Title  string        `json:"title"`
	XLabel string        `json:"x_label,omitempty"`
	YLabel string        `json:"y_label,omitempty"`
	Series []ChartSeries `json:"series"`
}

// ChartSeries is one named data series within a chart
type ChartSeries struct {
	Name string       `json:"name"`
	Data []ChartPoint `json:"data"`
}

// ChartPoint is a single labelled data point
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// TableData is a render-ready table
type TableData struct {
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}
