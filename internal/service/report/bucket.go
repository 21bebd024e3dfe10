package report

import (
	"time"

	"oee-backend/internal/storage"
)

const dateLayout = "2006-01-02"

// DayBucket — сырые суммы за один календарный день до расчета метрик
type DayBucket struct {
	Date string

	PlannedTime    float64 // минуты, покрытые партиями
	PlannedStops   float64 // минуты плановых остановок
	UnplannedStops float64 // минуты внеплановых остановок

	NetTimeSec  float64 // сумма ok_parts * cycle_time_sec
	OkParts     float64
	ScrapParts  float64
	ReworkParts float64 // переделки, в OEE не участвуют

	StopsByType map[storage.FailureType]float64
}

func newDayBucket(date string) *DayBucket {
	return &DayBucket{
		Date:        date,
		StopsByType: make(map[storage.FailureType]float64),
	}
}

// DateKeys возвращает все календарные даты диапазона [from, to] по порядку.
// Дни без записей тоже нужны, иначе серии сравнения разъедутся по позициям.
func DateKeys(from, to time.Time) []string {
	var keys []string

	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	last := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location())

	for !day.After(last) {
		keys = append(keys, day.Format(dateLayout))
		day = day.AddDate(0, 0, 1)
	}

	return keys
}

// durationMinutes считает длительность интервала в минутах.
// Открытый интервал (end == nil) закрываем на "сейчас" только здесь,
// обратно в запись ничего не пишем.
func durationMinutes(start time.Time, end *time.Time, now time.Time) float64 {
	stop := now
	if end != nil {
		stop = *end
	}

	d := stop.Sub(start).Minutes()
	if d < 0 {
		return 0
	}

	return d
}

// BuildDayBuckets сворачивает три потока записей в корзины по дням.
// Каждая запись попадает ровно в одну корзину по дате своего начала,
// между днями ничего не делим. Битые записи пропускаем по одной,
// весь диапазон из-за них не роняем.
func BuildDayBuckets(lots []*storage.Lot, stops []*storage.StopEvent, issues []*storage.QualityIssue, from, to, now time.Time) map[string]*DayBucket {
	buckets := make(map[string]*DayBucket)
	for _, key := range DateKeys(from, to) {
		buckets[key] = newDayBucket(key)
	}

	for _, lot := range lots {
		if lot == nil || lot.Start.IsZero() || lot.CycleTimeSec < 0 || lot.OkParts < 0 {
			continue
		}

		b, ok := buckets[lot.Start.Format(dateLayout)]
		if !ok {
			continue
		}

		b.PlannedTime += durationMinutes(lot.Start, lot.End, now)
		b.NetTimeSec += lot.OkParts * lot.CycleTimeSec
		b.OkParts += lot.OkParts
	}

	for _, stop := range stops {
		if stop == nil || stop.Start.IsZero() {
			continue
		}

		b, ok := buckets[stop.Start.Format(dateLayout)]
		if !ok {
			continue
		}

		d := durationMinutes(stop.Start, stop.End, now)
		if stop.FailureType == storage.FailurePlanned {
			b.PlannedStops += d
		} else {
			b.UnplannedStops += d
		}
		b.StopsByType[stop.FailureType] += d
	}

	for _, issue := range issues {
		if issue == nil || issue.Date.IsZero() || issue.Quantity < 0 {
			continue
		}

		b, ok := buckets[issue.Date.Format(dateLayout)]
		if !ok {
			continue
		}

		if issue.Category == storage.QualityScrap {
			b.ScrapParts += issue.Quantity
		} else {
			b.ReworkParts += issue.Quantity
		}
	}

	return buckets
}
