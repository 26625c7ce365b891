package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cityscope/internal/config"
	"cityscope/internal/dataset"
	"cityscope/pkg/contracts/domain"
)

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func fixtureDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFixture(t, dir, "unified_water_sanitation.csv", `area,households,sewered_households,toilet_households,household_coverage_pct,facility_count
North,1000,600,900,90,12
South,2000,800,1500,75,8
East,500,100,300,60,3
`)
	writeFixture(t, dir, "unified_environment.csv", `station,pollutant,reading_value,date
Central,PM2.5,40,2023-01
Central,PM2.5,60,2023-02
Central,PM10,90,2023-01
Airport,NO2,30,2023-01
`)
	writeFixture(t, dir, "unified_crimes.csv", `year,crime_type,count,area
2021,theft,120,North
2021,assault,45,North
2022,theft,150,South
2022,burglary,30,South
`)
	writeFixture(t, dir, "unified_intersections.csv", `location,signal_type,traffic_volume
Main & 1st,signalized,12000
Oak & 5th,unsignalized,3000
Elm & 2nd,signalized,9000
Pine & 9th,roundabout,4000
`)
	writeFixture(t, dir, "unified_employment.csv", `sector,labour_force,employed,unemployment_rate
manufacturing,1000,900,10.0
services,2000,1900,5.0
retail,1000,800,20.0
`)
	return dir
}

func newDashboard(t *testing.T, dir string) *DashboardService {
	t.Helper()
	cfg := config.Default().Dashboard
	return NewDashboardService(dataset.NewLoader(dir, nil, nil), cfg, nil)
}

func TestDashboardOverview(t *testing.T) {
	svc := newDashboard(t, fixtureDir(t))
	view := svc.Overview(context.Background())

	assert.Equal(t, domain.SectionOverview, view.Section)
	assert.True(t, view.Available)
	require.NotEmpty(t, view.Metrics)
	assert.Equal(t, "Datasets Available", view.Metrics[0].Label)
	assert.Equal(t, "5 of 5", view.Metrics[0].Value)

	require.NotNil(t, view.Table)
	require.Len(t, view.Table.Rows, 5)
	assert.Equal(t, []string{"water", "Water & Sanitation", "3", "loaded"}, view.Table.Rows[0])
}

func TestDashboardSectionIdempotent(t *testing.T) {
	svc := newDashboard(t, fixtureDir(t))
	ctx := context.Background()

	first, err := svc.Section(ctx, domain.SectionCrime, CrimeFilter{})
	require.NoError(t, err)
	second, err := svc.Section(ctx, domain.SectionCrime, CrimeFilter{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDashboardRenderDoesNotMutateCache(t *testing.T) {
	dir := fixtureDir(t)
	loader := dataset.NewLoader(dir, nil, nil)
	svc := NewDashboardService(loader, config.Default().Dashboard, nil)
	ctx := context.Background()

	tbl, err := loader.Get(ctx, dataset.Crimes)
	require.NoError(t, err)
	before := append([]float64(nil), tbl.Numbers("count")...)

	for _, section := range domain.Sections {
		_, err := svc.Section(ctx, section, CrimeFilter{Year: 2022, CrimeType: "theft"})
		require.NoError(t, err)
	}

	assert.Equal(t, before, tbl.Numbers("count"))
}

func TestDashboardOverviewNoData(t *testing.T) {
	svc := newDashboard(t, t.TempDir())
	view := svc.Overview(context.Background())

	assert.Equal(t, "0 of 5", view.Metrics[0].Value)
	assert.NotEmpty(t, view.Placeholder)
}

func TestDashboardWaterSection(t *testing.T) {
	svc := newDashboard(t, fixtureDir(t))
	view, err := svc.Section(context.Background(), domain.SectionWater, CrimeFilter{})
	require.NoError(t, err)

	assert.True(t, view.Available)
	assert.Equal(t, "Water & Sanitation", view.Title)

	byLabel := metricsByLabel(view.Metrics)
	assert.Equal(t, "3,500", byLabel["Total Households"].Value)
	// 1500 of 3500 sewered
	assert.Equal(t, "42.9%", byLabel["Sewered Households"].Value)
	assert.Equal(t, "75.0%", byLabel["Mean Coverage"].Value)

	require.Len(t, view.Charts, 3)
	assert.Equal(t, domain.ChartGroupedBar, view.Charts[0].Type)
	require.Len(t, view.Charts[0].Series, 2)
	assert.Equal(t, "Sanitation facilities by area", view.Charts[2].Title)
	require.NotNil(t, view.Table)
}

func TestDashboardEnvironmentSection(t *testing.T) {
	svc := newDashboard(t, fixtureDir(t))
	view, err := svc.Section(context.Background(), domain.SectionEnvironment, CrimeFilter{})
	require.NoError(t, err)

	byLabel := metricsByLabel(view.Metrics)
	assert.Equal(t, "50.0", byLabel["Mean PM2.5"].Value)
	assert.Equal(t, "µg/m³", byLabel["Mean PM2.5"].Unit)
	// 50 against a guideline of 15
	assert.Equal(t, "333.3%", byLabel["PM2.5 vs WHO Guideline"].Value)

	var trend *domain.ChartSpec
	for i := range view.Charts {
		if view.Charts[i].Type == domain.ChartLine {
			trend = &view.Charts[i]
		}
	}
	require.NotNil(t, trend)
	require.Len(t, trend.Series[0].Data, 2)
	assert.Equal(t, "2023-01", trend.Series[0].Data[0].Label)
	assert.Equal(t, 40.0, trend.Series[0].Data[0].Value)
}

func TestDashboardCrimeSection(t *testing.T) {
	svc := newDashboard(t, fixtureDir(t))
	view, err := svc.Section(context.Background(), domain.SectionCrime, CrimeFilter{})
	require.NoError(t, err)

	byLabel := metricsByLabel(view.Metrics)
	assert.Equal(t, "345", byLabel["Recorded Incidents"].Value)
	assert.Equal(t, "2022", byLabel["Latest Year"].Value)
	assert.Equal(t, "180", byLabel["Incidents in Latest Year"].Value)
	assert.Equal(t, "173", byLabel["Average per Year"].Value)
	assert.Equal(t, "theft", byLabel["Most Common Crime"].Value)

	// year axis comes back chronological
	require.NotEmpty(t, view.Charts)
	yearSeries := view.Charts[0].Series[0].Data
	require.Len(t, yearSeries, 2)
	assert.Equal(t, "2021", yearSeries[0].Label)
	assert.Equal(t, 165.0, yearSeries[0].Value)
}

func TestDashboardCrimeSectionFiltered(t *testing.T) {
	svc := newDashboard(t, fixtureDir(t))

	view, err := svc.Section(context.Background(), domain.SectionCrime, CrimeFilter{Year: 2022})
	require.NoError(t, err)
	assert.Equal(t, "180", metricsByLabel(view.Metrics)["Recorded Incidents"].Value)

	view, err = svc.Section(context.Background(), domain.SectionCrime, CrimeFilter{CrimeType: "theft"})
	require.NoError(t, err)
	assert.Equal(t, "270", metricsByLabel(view.Metrics)["Recorded Incidents"].Value)

	view, err = svc.Section(context.Background(), domain.SectionCrime, CrimeFilter{Year: 2021, CrimeType: "theft"})
	require.NoError(t, err)
	assert.Equal(t, "120", metricsByLabel(view.Metrics)["Recorded Incidents"].Value)
}

func TestDashboardInfrastructureSection(t *testing.T) {
	svc := newDashboard(t, fixtureDir(t))
	view, err := svc.Section(context.Background(), domain.SectionInfrastructure, CrimeFilter{})
	require.NoError(t, err)

	byLabel := metricsByLabel(view.Metrics)
	assert.Equal(t, "4", byLabel["Intersections Mapped"].Value)
	assert.Equal(t, "2", byLabel["Signalized"].Value)
	assert.Equal(t, "50.0%", byLabel["Signalized Share"].Value)
	assert.Equal(t, "7,000", byLabel["Mean Traffic Volume"].Value)
}

func TestDashboardEmploymentSection(t *testing.T) {
	svc := newDashboard(t, fixtureDir(t))
	view, err := svc.Section(context.Background(), domain.SectionEmployment, CrimeFilter{})
	require.NoError(t, err)

	byLabel := metricsByLabel(view.Metrics)
	assert.Equal(t, "4,000", byLabel["Labour Force"].Value)
	assert.Equal(t, "400", byLabel["Unemployed"].Value)
	assert.Equal(t, "90.0%", byLabel["Employment Rate"].Value)
	// mean of 10, 5, 20
	assert.Equal(t, "11.7%", byLabel["Mean Unemployment Rate"].Value)

	require.NotEmpty(t, view.Charts)
	assert.Equal(t, domain.ChartPie, view.Charts[0].Type)
	assert.Equal(t, 3600.0, view.Charts[0].Series[0].Data[0].Value)
}

func TestDashboardSectionUnavailable(t *testing.T) {
	svc := newDashboard(t, t.TempDir())
	view, err := svc.Section(context.Background(), domain.SectionWater, CrimeFilter{})
	require.NoError(t, err)

	assert.False(t, view.Available)
	assert.Contains(t, view.Placeholder, "unified_water_sanitation.csv")
	assert.Empty(t, view.Metrics)
	assert.Empty(t, view.Charts)
}

func TestDashboardSectionUnknown(t *testing.T) {
	svc := newDashboard(t, t.TempDir())
	_, err := svc.Section(context.Background(), domain.Section("transport"), CrimeFilter{})
	assert.ErrorIs(t, err, ErrUnknownSection)
}

func metricsByLabel(metrics []domain.Metric) map[string]domain.Metric {
	byLabel := make(map[string]domain.Metric, len(metrics))
	for _, m := range metrics {
		byLabel[m.Label] = m
	}
	return byLabel
}
