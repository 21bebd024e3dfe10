package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"oee-backend/internal/storage"
)

func TestBuildPareto_TwoCauses(t *testing.T) {
	// Датчик 120 минут, ремень 80 минут — классические 60/40
	entries := []CauseEntry{
		{Cause: "sensor fault", Date: "2024-01-01", Value: 120},
		{Cause: "belt jam", Date: "2024-01-01", Value: 80},
	}

	rows := BuildPareto(entries, ParetoOptions{})

	assert.Len(t, rows, 2)
	assert.Equal(t, "sensor fault", rows[0].Cause)
	assert.InDelta(t, 60.0, rows[0].Percentage, 0.001)
	assert.InDelta(t, 60.0, rows[0].Cumulative, 0.001)
	assert.Equal(t, "belt jam", rows[1].Cause)
	assert.InDelta(t, 40.0, rows[1].Percentage, 0.001)
	assert.InDelta(t, 100.0, rows[1].Cumulative, 0.001)
}

func TestBuildPareto_LastCumulativeIs100(t *testing.T) {
	entries := []CauseEntry{
		{Cause: "a", Value: 33},
		{Cause: "b", Value: 19},
		{Cause: "c", Value: 7},
		{Cause: "d", Value: 7},
		{Cause: "e", Value: 0.5},
	}

	rows := BuildPareto(entries, ParetoOptions{})

	assert.InDelta(t, 100.0, rows[len(rows)-1].Cumulative, 1e-9)

	// Порядок строго по убыванию
	for i := 1; i < len(rows); i++ {
		assert.GreaterOrEqual(t, rows[i-1].Total, rows[i].Total)
	}
}

func TestBuildPareto_RawStringGrouping(t *testing.T) {
	// Без нормализации разный регистр и пробелы — разные причины
	entries := []CauseEntry{
		{Cause: "Датчик", Value: 10},
		{Cause: "датчик", Value: 10},
		{Cause: "датчик ", Value: 10},
	}

	rows := BuildPareto(entries, ParetoOptions{})
	assert.Len(t, rows, 3)

	// С нормализацией сливаются в одну
	rows = BuildPareto(entries, ParetoOptions{NormalizeCauses: true})
	assert.Len(t, rows, 1)
	assert.Equal(t, "датчик", rows[0].Cause)
	assert.Equal(t, 30.0, rows[0].Total)
	assert.InDelta(t, 100.0, rows[0].Cumulative, 1e-9)
}

func TestBuildPareto_ZeroTotal(t *testing.T) {
	entries := []CauseEntry{
		{Cause: "a", Value: 0},
	}

	rows := BuildPareto(entries, ParetoOptions{})

	// Итог ноль — проценты не считаем, NaN не выпускаем
	assert.Len(t, rows, 1)
	assert.Equal(t, 0.0, rows[0].Percentage)
	assert.Equal(t, 0.0, rows[0].Cumulative)
}

func TestBuildCauseTrends_TopFiveZeroFilled(t *testing.T) {
	// 1. Шесть причин, в тренды должны попасть пять крупнейших
	entries := []CauseEntry{
		{Cause: "c1", Date: "2024-01-01", Value: 60},
		{Cause: "c2", Date: "2024-01-01", Value: 50},
		{Cause: "c3", Date: "2024-01-02", Value: 40},
		{Cause: "c4", Date: "2024-01-02", Value: 30},
		{Cause: "c5", Date: "2024-01-03", Value: 20},
		{Cause: "c6", Date: "2024-01-03", Value: 10},
		{Cause: "c1", Date: "2024-01-03", Value: 90},
	}

	trends := BuildCauseTrends(entries, ts("2024-01-01 00:00"), ts("2024-01-03 00:00"), ParetoOptions{})

	assert.Len(t, trends, 5)
	causes := make([]string, 0, len(trends))
	for _, tr := range trends {
		causes = append(causes, tr.Cause)
		// История выровнена по всем дням диапазона
		assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03"}, tr.Dates)
		assert.Len(t, tr.History, 3)
	}
	assert.NotContains(t, causes, "c6")

	// 2. Крупнейшая причина: 60 в первый день, 90 в последний → тренд +50%
	assert.Equal(t, "c1", trends[0].Cause)
	assert.Equal(t, []float64{60, 0, 90}, trends[0].History)
	assert.InDelta(t, 50.0, trends[0].TrendPct, 0.001)

	// 3. Причина, затихшая к концу диапазона: тренд -100%
	assert.Equal(t, "c2", trends[1].Cause)
	assert.InDelta(t, -100.0, trends[1].TrendPct, 0.001)

	// 4. Причина без событий в первый день: первая точка ноль → тренд 0
	assert.Equal(t, "c3", trends[2].Cause)
	assert.Equal(t, 0.0, trends[2].TrendPct)
}

func TestTrendPercent(t *testing.T) {
	cases := []struct {
		name    string
		history []float64
		want    float64
	}{
		{"меньше двух точек", []float64{5}, 0},
		{"пустая история", nil, 0},
		{"нулевая первая точка", []float64{0, 10}, 0},
		{"рост", []float64{10, 0, 15}, 50},
		{"падение", []float64{20, 5}, -75},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, trendPercent(tc.history), 1e-9)
		})
	}
}

func TestStopEntries_OpenStopClosedOnNow(t *testing.T) {
	stops := []*storage.StopEvent{
		newStop("2024-01-01 10:00", nil, storage.FailureBreakdown, "датчик"),
		newStop("2024-01-01 12:00", tsPtr("2024-01-01 12:20"), storage.FailureQuality, "брак профиля"),
		nil,
	}

	entries := StopEntries(stops, ts("2024-01-01 10:30"))

	assert.Len(t, entries, 2)
	assert.Equal(t, 30.0, entries[0].Value)
	assert.Equal(t, 20.0, entries[1].Value)
}

func TestQualityEntries_SkipsMalformed(t *testing.T) {
	issues := []*storage.QualityIssue{
		{Cause: "царапина", Quantity: 12, Date: ts("2024-01-01 00:00")},
		{Cause: "скол", Quantity: -1, Date: ts("2024-01-01 00:00")},
		nil,
	}

	entries := QualityEntries(issues)

	assert.Len(t, entries, 1)
	assert.Equal(t, "царапина", entries[0].Cause)
	assert.Equal(t, 12.0, entries[0].Value)
}
