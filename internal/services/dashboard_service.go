package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"cityscope/internal/analytics"
	"cityscope/internal/config"
	"cityscope/internal/dataset"
	"cityscope/pkg/contracts/domain"
)

// WHO air quality guideline annual means, µg/m³
const (
	whoGuidelinePM25 = 15.0
	whoGuidelinePM10 = 35.0
)

// CrimeFilter narrows the crime section to one year and/or crime type.
// Zero values keep all rows.
type CrimeFilter struct {
	Year      int
	CrimeType string
}

// DashboardService assembles render-ready section views from loaded
// datasets.
type DashboardService struct {
	loader      *dataset.Loader
	logger      *slog.Logger
	topN        int
	trendMonths int
}

// NewDashboardService creates a dashboard service
func NewDashboardService(loader *dataset.Loader, cfg config.Dashboard, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		loader:      loader,
		logger:      logger,
		topN:        cfg.TopN,
		trendMonths: cfg.TrendMonths,
	}
}

// Section builds the view for one topical section. An unavailable
// dataset yields Available=false with a placeholder, not an error.
func (s *DashboardService) Section(ctx context.Context, section domain.Section, filter CrimeFilter) (*domain.SectionView, error) {
	switch section {
	case domain.SectionWater:
		return s.sectionView(ctx, section, dataset.Water, func(t *dataset.Table) *domain.SectionView {
			return s.waterSection(t)
		})
	case domain.SectionEnvironment:
		return s.sectionView(ctx, section, dataset.Environment, func(t *dataset.Table) *domain.SectionView {
			return s.environmentSection(t)
		})
	case domain.SectionCrime:
		return s.sectionView(ctx, section, dataset.Crimes, func(t *dataset.Table) *domain.SectionView {
			return s.crimeSection(t, filter)
		})
	case domain.SectionInfrastructure:
		return s.sectionView(ctx, section, dataset.Infrastructure, func(t *dataset.Table) *domain.SectionView {
			return s.infrastructureSection(t)
		})
	case domain.SectionEmployment:
		return s.sectionView(ctx, section, dataset.Employment, func(t *dataset.Table) *domain.SectionView {
			return s.employmentSection(t)
		})
	case domain.SectionOverview:
		return s.Overview(ctx), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSection, section)
	}
}

func (s *DashboardService) sectionView(ctx context.Context, section domain.Section, id string, build func(*dataset.Table) *domain.SectionView) (*domain.SectionView, error) {
	desc, _ := dataset.Lookup(id)
	tbl, err := s.loader.Get(ctx, id)
	if err != nil {
		return &domain.SectionView{
			Section:     section,
			Title:       desc.Title,
			Available:   false,
			Placeholder: fmt.Sprintf("%s data is not available. Place %s in the data directory.", desc.Title, desc.File),
		}, nil
	}
	view := build(tbl)
	view.Section = section
	view.Title = desc.Title
	view.Available = true
	return view, nil
}

// Overview summarizes every section with one headline metric each
func (s *DashboardService) Overview(ctx context.Context) *domain.SectionView {
	view := &domain.SectionView{
		Section:   domain.SectionOverview,
		Title:     "City Overview",
		Available: true,
	}

	var available int
	if t, err := s.loader.Get(ctx, dataset.Water); err == nil {
		available++
		total := analytics.Sum(t.Numbers("households"))
		view.Metrics = append(view.Metrics, metric("Households Surveyed", analytics.FormatCount(total), "", total))
	}
	if t, err := s.loader.Get(ctx, dataset.Environment); err == nil {
		available++
		kinds := t.Strings("pollutant")
		pm25 := analytics.MeanWhere(t.Numbers("reading_value"), func(i int) bool { return kinds[i] == "PM2.5" })
		view.Metrics = append(view.Metrics, metric("Mean PM2.5", analytics.FormatFloat(pm25, 1), "µg/m³", pm25))
	}
	if t, err := s.loader.Get(ctx, dataset.Crimes); err == nil {
		available++
		total := analytics.Sum(t.Numbers("count"))
		view.Metrics = append(view.Metrics, metric("Recorded Incidents", analytics.FormatCount(total), "", total))
	}
	if t, err := s.loader.Get(ctx, dataset.Infrastructure); err == nil {
		available++
		view.Metrics = append(view.Metrics, metric("Intersections Mapped", analytics.FormatInt(int64(t.NumRows())), "", float64(t.NumRows())))
	}
	if t, err := s.loader.Get(ctx, dataset.Employment); err == nil {
		available++
		total := analytics.Sum(t.Numbers("labour_force"))
		rate := analytics.Mean(t.Numbers("unemployment_rate"))
		view.Metrics = append(view.Metrics,
			metric("Labour Force", analytics.FormatCount(total), "", total),
			metric("Mean Unemployment Rate", analytics.FormatPercent(rate), "", rate))
	}

	view.Metrics = append([]domain.Metric{
		metric("Datasets Available", fmt.Sprintf("%d of %d", available, len(dataset.Registry)), "", float64(available)),
	}, view.Metrics...)
	view.Table = s.datasetStatusTable(ctx)
	if available == 0 {
		view.Placeholder = "No datasets are loaded yet. Place the unified CSV exports in the data directory."
	}
	return view
}

// datasetStatusTable summarizes every registered dataset for the
// overview page.
func (s *DashboardService) datasetStatusTable(ctx context.Context) *domain.TableData {
	rows := make([][]string, 0, len(dataset.Registry))
	for _, desc := range dataset.Registry {
		status := "missing"
		rowCount := "-"
		if t, err := s.loader.Get(ctx, desc.ID); err == nil {
			status = "loaded"
			rowCount = analytics.FormatInt(int64(t.NumRows()))
		}
		rows = append(rows, []string{desc.ID, desc.Title, rowCount, status})
	}
	return &domain.TableData{
		Title:   "Dataset status",
		Columns: []string{"Dataset", "Title", "Rows", "Status"},
		Rows:    rows,
	}
}

func (s *DashboardService) waterSection(t *dataset.Table) *domain.SectionView {
	households := analytics.Sum(t.Numbers("households"))
	sewered := analytics.Sum(t.Numbers("sewered_households"))
	toilets := analytics.Sum(t.Numbers("toilet_households"))
	coverage := analytics.Mean(t.Numbers("household_coverage_pct"))
	facilities := analytics.Sum(t.Numbers("facility_count"))

	view := &domain.SectionView{
		Metrics: []domain.Metric{
			metric("Total Households", analytics.FormatCount(households), "", households),
			metric("Sewered Households", analytics.FormatPercent(analytics.Percent(sewered, households)), "", sewered),
			metric("Households With Toilets", analytics.FormatPercent(analytics.Percent(toilets, households)), "", toilets),
			metric("Mean Coverage", analytics.FormatPercent(coverage), "", coverage),
			metric("Sanitation Facilities", analytics.FormatCount(facilities), "", facilities),
		},
	}

	areas := t.Strings("area")
	byArea := analytics.TopN(analytics.GroupBySum(areas, t.Numbers("households")), s.topN)
	top := make(map[string]bool, len(byArea))
	for _, g := range byArea {
		top[g.Label] = true
	}
	seweredByArea := filterGroups(analytics.GroupBySum(areas, t.Numbers("sewered_households")), top)
	toiletByArea := filterGroups(analytics.GroupBySum(areas, t.Numbers("toilet_households")), top)

	view.Charts = []domain.ChartSpec{
		{
			Type:   domain.ChartGroupedBar,
			Title:  "Sewerage and toilet coverage by area",
			XLabel: "Area",
			YLabel: "Households",
			Series: []domain.ChartSeries{
				{Name: "Sewered", Data: points(seweredByArea)},
				{Name: "With Toilets", Data: points(toiletByArea)},
			},
		},
		chart(domain.ChartBar, "Households by area", "Area", "Households", byArea),
		chart(domain.ChartBar, "Sanitation facilities by area", "Area", "Facilities",
			analytics.TopN(analytics.GroupBySum(areas, t.Numbers("facility_count")), s.topN)),
	}

	view.Table = groupTable("Top areas by households", "Area", "Households", byArea)
	return view
}

func (s *DashboardService) environmentSection(t *dataset.Table) *domain.SectionView {
	kinds := t.Strings("pollutant")
	readings := t.Numbers("reading_value")

	pm25 := analytics.MeanWhere(readings, func(i int) bool { return kinds[i] == "PM2.5" })
	pm10 := analytics.MeanWhere(readings, func(i int) bool { return kinds[i] == "PM10" })

	view := &domain.SectionView{
		Metrics: []domain.Metric{
			metric("Mean PM2.5", analytics.FormatFloat(pm25, 1), "µg/m³", pm25),
			metric("PM2.5 vs WHO Guideline", analytics.FormatPercent(analytics.Percent(pm25, whoGuidelinePM25)), "", analytics.Percent(pm25, whoGuidelinePM25)),
			metric("Mean PM10", analytics.FormatFloat(pm10, 1), "µg/m³", pm10),
			metric("PM10 vs WHO Guideline", analytics.FormatPercent(analytics.Percent(pm10, whoGuidelinePM10)), "", analytics.Percent(pm10, whoGuidelinePM10)),
		},
	}

	byPollutant := analytics.GroupByMean(kinds, readings)
	view.Charts = append(view.Charts,
		chart(domain.ChartBar, "Mean reading by pollutant", "Pollutant", "µg/m³", byPollutant),
		domain.ChartSpec{
			Type:   domain.ChartGroupedBar,
			Title:  "Particulates against WHO guidelines",
			XLabel: "Pollutant",
			YLabel: "µg/m³",
			Series: []domain.ChartSeries{
				{Name: "Measured", Data: []domain.ChartPoint{
					{Label: "PM2.5", Value: zeroNaN(pm25)},
					{Label: "PM10", Value: zeroNaN(pm10)},
				}},
				{Name: "WHO Guideline", Data: []domain.ChartPoint{
					{Label: "PM2.5", Value: whoGuidelinePM25},
					{Label: "PM10", Value: whoGuidelinePM10},
				}},
			},
		})

	dates := t.Dates("date")
	trendChart := domain.ChartSpec{
		Type:   domain.ChartLine,
		Title:  "Particulate monthly trend",
		XLabel: "Month",
		YLabel: "µg/m³",
	}
	for _, pollutant := range []string{"PM2.5", "PM10"} {
		only := make([]float64, len(readings))
		for i, v := range readings {
			if kinds[i] == pollutant {
				only[i] = v
			} else {
				only[i] = math.NaN()
			}
		}
		trend := analytics.MonthlyMean(dates, only, s.trendMonths)
		if len(trend) > 0 {
			trendChart.Series = append(trendChart.Series, domain.ChartSeries{Name: pollutant, Data: points(trend)})
		}
	}
	if len(trendChart.Series) > 0 {
		view.Charts = append(view.Charts, trendChart)
	}

	stations := t.Strings("station")
	byStation := analytics.TopN(analytics.GroupByMean(stations, readings), s.topN)
	view.Charts = append(view.Charts, chart(domain.ChartBar, "Mean reading by station", "Station", "µg/m³", byStation))

	view.Table = groupTable("Pollutant means", "Pollutant", "Mean µg/m³", byPollutant)
	return view
}

func (s *DashboardService) crimeSection(t *dataset.Table, filter CrimeFilter) *domain.SectionView {
	years := t.Numbers("year")
	types := t.Strings("crime_type")
	counts := t.Numbers("count")
	areas := t.Strings("area")

	keep := func(i int) bool {
		if filter.Year != 0 && (math.IsNaN(years[i]) || int(years[i]) != filter.Year) {
			return false
		}
		if filter.CrimeType != "" && types[i] != filter.CrimeType {
			return false
		}
		return true
	}

	n := t.NumRows()
	fYears := make([]string, 0, n)
	fTypes := make([]string, 0, n)
	fCounts := make([]float64, 0, n)
	fAreas := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if !keep(i) {
			continue
		}
		label := ""
		if !math.IsNaN(years[i]) {
			label = strconv.Itoa(int(years[i]))
		}
		fYears = append(fYears, label)
		fTypes = append(fTypes, types[i])
		fCounts = append(fCounts, counts[i])
		fAreas = append(fAreas, areas[i])
	}

	total := analytics.Sum(fCounts)
	byYear := analytics.SortByLabel(analytics.GroupBySum(fYears, fCounts))
	byType := analytics.TopN(analytics.GroupBySum(fTypes, fCounts), s.topN)
	byArea := analytics.TopN(analytics.GroupBySum(fAreas, fCounts), s.topN)

	view := &domain.SectionView{
		Metrics: []domain.Metric{
			metric("Recorded Incidents", analytics.FormatCount(total), "", total),
		},
	}
	if len(byYear) > 0 {
		latest := byYear[len(byYear)-1]
		perYear := total / float64(len(byYear))
		view.Metrics = append(view.Metrics,
			metric("Latest Year", latest.Label, "", latest.Value),
			metric("Incidents in Latest Year", analytics.FormatCount(latest.Value), "", latest.Value),
			metric("Average per Year", analytics.FormatCount(perYear), "", perYear))
	}
	if len(byType) > 0 {
		view.Metrics = append(view.Metrics, metric("Most Common Crime", byType[0].Label, "", byType[0].Value))
	}

	view.Charts = []domain.ChartSpec{
		chart(domain.ChartLine, "Incidents by year", "Year", "Incidents", byYear),
		chart(domain.ChartBar, "Incidents by crime type", "Crime type", "Incidents", byType),
		chart(domain.ChartPie, "Incidents by area", "", "", byArea),
	}
	view.Table = groupTable("Incidents by crime type", "Crime type", "Incidents", byType)
	return view
}

func (s *DashboardService) infrastructureSection(t *dataset.Table) *domain.SectionView {
	signalTypes := t.Strings("signal_type")
	volumes := t.Numbers("traffic_volume")

	total := t.NumRows()
	signalized := analytics.CountWhere(total, func(i int) bool { return signalTypes[i] == "signalized" })
	meanVolume := analytics.Mean(volumes)

	view := &domain.SectionView{
		Metrics: []domain.Metric{
			metric("Intersections Mapped", analytics.FormatInt(int64(total)), "", float64(total)),
			metric("Signalized", analytics.FormatInt(int64(signalized)), "", float64(signalized)),
			metric("Signalized Share", analytics.FormatPercent(analytics.Percent(float64(signalized), float64(total))), "", analytics.Percent(float64(signalized), float64(total))),
			metric("Mean Traffic Volume", analytics.FormatCount(meanVolume), "vehicles/day", meanVolume),
		},
	}

	byType := analytics.GroupByCount(signalTypes)
	byLocation := analytics.TopN(analytics.GroupBySum(t.Strings("location"), volumes), s.topN)

	view.Charts = []domain.ChartSpec{
		chart(domain.ChartPie, "Intersections by signal type", "", "", byType),
		chart(domain.ChartBar, "Busiest intersections", "Location", "Traffic volume", byLocation),
	}
	view.Table = groupTable("Busiest intersections", "Location", "Traffic volume", byLocation)
	return view
}

func (s *DashboardService) employmentSection(t *dataset.Table) *domain.SectionView {
	labour := analytics.Sum(t.Numbers("labour_force"))
	employed := analytics.Sum(t.Numbers("employed"))
	unemployed := labour - employed
	meanUnemployment := analytics.Mean(t.Numbers("unemployment_rate"))
	employmentRate := analytics.Percent(employed, labour)

	view := &domain.SectionView{
		Metrics: []domain.Metric{
			metric("Labour Force", analytics.FormatCount(labour), "", labour),
			metric("Employed", analytics.FormatCount(employed), "", employed),
			metric("Unemployed", analytics.FormatCount(unemployed), "", unemployed),
			metric("Employment Rate", analytics.FormatPercent(employmentRate), "", employmentRate),
			metric("Mean Unemployment Rate", analytics.FormatPercent(meanUnemployment), "", meanUnemployment),
		},
	}

	sectors := t.Strings("sector")
	bySector := analytics.TopN(analytics.GroupBySum(sectors, t.Numbers("labour_force")), s.topN)
	employedBySector := analytics.TopN(analytics.GroupBySum(sectors, t.Numbers("employed")), s.topN)
	rateBySector := analytics.GroupByMean(sectors, t.Numbers("unemployment_rate"))

	view.Charts = []domain.ChartSpec{
		{
			Type:  domain.ChartPie,
			Title: "Employed vs unemployed",
			Series: []domain.ChartSeries{{Name: "Employed vs unemployed", Data: []domain.ChartPoint{
				{Label: "Employed", Value: zeroNaN(employed)},
				{Label: "Unemployed", Value: zeroNaN(unemployed)},
			}}},
		},
		chart(domain.ChartBar, "Labour force by sector", "Sector", "People", bySector),
		chart(domain.ChartBar, "Unemployment rate by sector", "Sector", "%", rateBySector),
	}
	view.Table = groupTable("Employment by sector", "Sector", "Employed", employedBySector)
	return view
}

func zeroNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

func metric(label, value, unit string, raw float64) domain.Metric {
	if math.IsNaN(raw) {
		raw = 0
	}
	return domain.Metric{Label: label, Value: value, Unit: unit, Raw: raw}
}

func points(groups []analytics.Group) []domain.ChartPoint {
	data := make([]domain.ChartPoint, 0, len(groups))
	for _, g := range groups {
		v := g.Value
		if math.IsNaN(v) {
			v = 0
		}
		data = append(data, domain.ChartPoint{Label: g.Label, Value: v})
	}
	return data
}

func chart(kind domain.ChartType, title, xLabel, yLabel string, groups []analytics.Group) domain.ChartSpec {
	return domain.ChartSpec{
		Type:   kind,
		Title:  title,
		XLabel: xLabel,
		YLabel: yLabel,
		Series: []domain.ChartSeries{{Name: title, Data: points(groups)}},
	}
}

func groupTable(title, keyCol, valueCol string, groups []analytics.Group) *domain.TableData {
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []string{g.Label, analytics.FormatCount(g.Value)})
	}
	return &domain.TableData{Title: title, Columns: []string{keyCol, valueCol}, Rows: rows}
}

// filterGroups keeps groups whose label is in the allow set, preserving
// order.
func filterGroups(groups []analytics.Group, allow map[string]bool) []analytics.Group {
	out := make([]analytics.Group, 0, len(groups))
	for _, g := range groups {
		if allow[g.Label] {
			out = append(out, g)
		}
	}
	return out
}
