package report

import (
	"sort"
	"strings"
	"time"

	"oee-backend/internal/storage"
)

const trendTopCauses = 5

// CauseEntry — одно событие, приведенное к виду причина/дата/величина.
// Для остановок величина — минуты, для брака — штуки.
type CauseEntry struct {
	Cause string
	Date  string
	Value float64
}

type ParetoRow struct {
	Cause      string  `json:"cause"`
	Total      float64 `json:"total"`
	Percentage float64 `json:"percentage"`
	Cumulative float64 `json:"cumulative"`
}

// CauseTrend — история топ-причины по дням диапазона
type CauseTrend struct {
	Cause    string    `json:"cause"`
	Total    float64   `json:"total"`
	Dates    []string  `json:"dates"`
	History  []float64 `json:"history"`
	TrendPct float64   `json:"trend_pct"`
}

// ParetoOptions — политика группировки причин.
// По умолчанию причины группируются по сырой строке, как их ввел оператор:
// "Датчик" и "датчик " — разные причины. Нормализация меняет итоги
// таблицы, поэтому включается только явно.
type ParetoOptions struct {
	NormalizeCauses bool
}

func (o ParetoOptions) key(cause string) string {
	if o.NormalizeCauses {
		return strings.ToLower(strings.TrimSpace(cause))
	}
	return cause
}

// StopEntries переводит остановки в записи причин.
// Открытые остановки закрываем на "сейчас", как и в корзинах.
func StopEntries(stops []*storage.StopEvent, now time.Time) []CauseEntry {
	var entries []CauseEntry

	for _, stop := range stops {
		if stop == nil || stop.Start.IsZero() {
			continue
		}

		entries = append(entries, CauseEntry{
			Cause: stop.Cause,
			Date:  stop.Start.Format(dateLayout),
			Value: durationMinutes(stop.Start, stop.End, now),
		})
	}

	return entries
}

func QualityEntries(issues []*storage.QualityIssue) []CauseEntry {
	var entries []CauseEntry

	for _, issue := range issues {
		if issue == nil || issue.Date.IsZero() || issue.Quantity < 0 {
			continue
		}

		entries = append(entries, CauseEntry{
			Cause: issue.Cause,
			Date:  issue.Date.Format(dateLayout),
			Value: issue.Quantity,
		})
	}

	return entries
}

// BuildPareto строит классическую таблицу 80/20: причины по убыванию
// величины, накопленный процент по отсортированному порядку.
// У последней строки накопленный процент равен 100, если итог больше нуля.
func BuildPareto(entries []CauseEntry, opts ParetoOptions) []ParetoRow {
	totals := make(map[string]float64)
	var grandTotal float64

	for _, e := range entries {
		key := opts.key(e.Cause)
		totals[key] += e.Value
		grandTotal += e.Value
	}

	rows := make([]ParetoRow, 0, len(totals))
	for cause, total := range totals {
		rows = append(rows, ParetoRow{Cause: cause, Total: total})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		// Стабильный порядок при равных величинах
		return rows[i].Cause < rows[j].Cause
	})

	if grandTotal <= 0 {
		return rows
	}

	var cumulative float64
	for i := range rows {
		rows[i].Percentage = rows[i].Total / grandTotal * 100
		cumulative += rows[i].Percentage
		rows[i].Cumulative = cumulative
	}

	return rows
}

// BuildCauseTrends строит истории по дням для пяти крупнейших причин.
// Истории заполнены нулями по всему диапазону, чтобы графики
// разных причин были выровнены по датам.
func BuildCauseTrends(entries []CauseEntry, from, to time.Time, opts ParetoOptions) []CauseTrend {
	rows := BuildPareto(entries, opts)
	if len(rows) > trendTopCauses {
		rows = rows[:trendTopCauses]
	}

	dates := DateKeys(from, to)
	index := make(map[string]int, len(dates))
	for i, d := range dates {
		index[d] = i
	}

	perCause := make(map[string][]float64, len(rows))
	for _, row := range rows {
		perCause[row.Cause] = make([]float64, len(dates))
	}

	for _, e := range entries {
		key := opts.key(e.Cause)
		history, ok := perCause[key]
		if !ok {
			continue
		}
		if i, ok := index[e.Date]; ok {
			history[i] += e.Value
		}
	}

	trends := make([]CauseTrend, 0, len(rows))
	for _, row := range rows {
		history := perCause[row.Cause]
		trends = append(trends, CauseTrend{
			Cause:    row.Cause,
			Total:    row.Total,
			Dates:    dates,
			History:  history,
			TrendPct: trendPercent(history),
		})
	}

	return trends
}

// trendPercent — изменение последней точки истории относительно первой.
// Меньше двух точек или нулевая первая точка — тренда нет, возвращаем 0.
func trendPercent(history []float64) float64 {
	if len(history) < 2 {
		return 0
	}

	first := history[0]
	last := history[len(history)-1]
	if first == 0 {
		return 0
	}

	return (last - first) / first * 100
}
