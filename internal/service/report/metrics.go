package report

// DayMetrics — проценты 0..100 за один день
type DayMetrics struct {
	Availability float64 `json:"availability"`
	Performance  float64 `json:"performance"`
	Quality      float64 `json:"quality"`
	OEE          float64 `json:"oee"`
}

// DayPoint — точка дневной серии для графиков
type DayPoint struct {
	Date         string  `json:"date"`
	Availability float64 `json:"availability"`
	Performance  float64 `json:"performance"`
	Quality      float64 `json:"quality"`
	OEE          float64 `json:"oee"`
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// CalculateMetrics считает метрики одного дня из корзины.
// Деления на ноль закрыты явными значениями по умолчанию,
// NaN наружу не выходит никогда.
func CalculateMetrics(b *DayBucket) DayMetrics {
	var m DayMetrics

	runTime := b.PlannedTime - (b.PlannedStops + b.UnplannedStops)
	if runTime < 0 {
		runTime = 0
	}

	plannedProduction := b.PlannedTime - b.PlannedStops
	if plannedProduction < 0 {
		plannedProduction = 0
	}

	if plannedProduction > 0 {
		m.Availability = clampPercent(runTime / plannedProduction * 100)
	}

	// Брак считаем по среднему циклу годных деталей, отдельного
	// замера времени на брак в записях нет
	netSec := b.NetTimeSec
	if b.OkParts > 0 && b.ScrapParts > 0 {
		avgCycle := b.NetTimeSec / b.OkParts
		netSec += avgCycle * b.ScrapParts
	}

	if runTime > 0 {
		m.Performance = clampPercent(netSec / 60 / runTime * 100)
	}

	total := b.OkParts + b.ScrapParts
	if total > 0 {
		m.Quality = clampPercent(b.OkParts / total * 100)
	} else {
		// День без деталей — качество 100, а не неопределенность
		m.Quality = 100
	}

	// Единая формула OEE: A, P, Q уже проценты
	m.OEE = clampPercent(m.Availability * m.Performance * m.Quality / 10000)

	return m
}

// HasParts — день участвует в средних по диапазону.
// Пустые дни остаются в серии нулями, но знаменатель средних не раздувают.
func (b *DayBucket) HasParts() bool {
	return b.OkParts+b.ScrapParts > 0
}
