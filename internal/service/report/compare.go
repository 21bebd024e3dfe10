package report

import "sort"

// ComparePoint — одна дата объединенной серии: текущие значения
// и значения сравниваемого периода (машины) в *_prev полях
type ComparePoint struct {
	Date             string  `json:"date"`
	Availability     float64 `json:"availability"`
	Performance      float64 `json:"performance"`
	Quality          float64 `json:"quality"`
	OEE              float64 `json:"oee"`
	AvailabilityPrev float64 `json:"availability_prev"`
	PerformancePrev  float64 `json:"performance_prev"`
	QualityPrev      float64 `json:"quality_prev"`
	OEEPrev          float64 `json:"oee_prev"`
}

// MergeSeries объединяет две дневные серии по ключу даты.
// Берется объединение дат обеих серий, отсутствующая сторона
// заполняется нулями, результат отсортирован по дате.
// Склейка именно по дате, не по позиции: серии разной длины и
// непересекающихся диапазонов тоже объединяются корректно.
func MergeSeries(current, previous []DayPoint) []ComparePoint {
	merged := make(map[string]*ComparePoint)

	point := func(date string) *ComparePoint {
		p, ok := merged[date]
		if !ok {
			p = &ComparePoint{Date: date}
			merged[date] = p
		}
		return p
	}

	for _, cur := range current {
		p := point(cur.Date)
		p.Availability = cur.Availability
		p.Performance = cur.Performance
		p.Quality = cur.Quality
		p.OEE = cur.OEE
	}

	for _, prev := range previous {
		p := point(prev.Date)
		p.AvailabilityPrev = prev.Availability
		p.PerformancePrev = prev.Performance
		p.QualityPrev = prev.Quality
		p.OEEPrev = prev.OEE
	}

	result := make([]ComparePoint, 0, len(merged))
	for _, p := range merged {
		result = append(result, *p)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date < result[j].Date
	})

	return result
}
