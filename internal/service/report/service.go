package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"oee-backend/internal/storage"
)

type ReportStorage interface {
	GetLots(ctx context.Context, projectID int64, from, to time.Time, filter storage.RecordFilter) ([]*storage.Lot, error)
	GetStops(ctx context.Context, projectID int64, from, to time.Time, filter storage.RecordFilter) ([]*storage.StopEvent, error)
	GetQualityIssues(ctx context.Context, projectID int64, from, to time.Time, filter storage.RecordFilter) ([]*storage.QualityIssue, error)
}

type ReportService struct {
	storage ReportStorage
	now     func() time.Time
}

func NewReportService(storage ReportStorage) *ReportService {
	return &ReportService{
		storage: storage,
		now:     time.Now,
	}
}

// Window — один запрос агрегации: проект, диапазон дат и фильтры
type Window struct {
	ProjectID int64
	From      time.Time
	To        time.Time
	Filter    storage.RecordFilter
}

// Источник для таблицы Парето
const (
	SourceStops   = "stops"
	SourceQuality = "quality"
)

// Summary — карточки шапки дашборда за диапазон
type Summary struct {
	From         string `json:"from"`
	To           string `json:"to"`
	DaysWithData int    `json:"days_with_data"`

	AvgAvailability float64 `json:"avg_availability"`
	AvgPerformance  float64 `json:"avg_performance"`
	AvgQuality      float64 `json:"avg_quality"`
	AvgOEE          float64 `json:"avg_oee"`

	TotalOkParts     float64 `json:"total_ok_parts"`
	TotalScrapParts  float64 `json:"total_scrap_parts"`
	TotalReworkParts float64 `json:"total_rework_parts"`

	TotalPlannedStops   float64            `json:"total_planned_stops"`
	TotalUnplannedStops float64            `json:"total_unplanned_stops"`
	DowntimeByType      map[string]float64 `json:"downtime_by_type"`
}

// fetchWindow забирает все три потока записей окна параллельно.
// Потоки независимы, сливаются только после завершения всех трех.
// Любая ошибка выборки — ошибка всего запроса, частичные данные не отдаем.
func (s *ReportService) fetchWindow(ctx context.Context, w Window) ([]*storage.Lot, []*storage.StopEvent, []*storage.QualityIssue, error) {
	var (
		lots   []*storage.Lot
		stops  []*storage.StopEvent
		issues []*storage.QualityIssue
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lots, err = s.storage.GetLots(gCtx, w.ProjectID, w.From, w.To, w.Filter)
		if err != nil {
			return fmt.Errorf("lots: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		stops, err = s.storage.GetStops(gCtx, w.ProjectID, w.From, w.To, w.Filter)
		if err != nil {
			return fmt.Errorf("stops: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		issues, err = s.storage.GetQualityIssues(gCtx, w.ProjectID, w.From, w.To, w.Filter)
		if err != nil {
			return fmt.Errorf("quality issues: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}

	return lots, stops, issues, nil
}

func (s *ReportService) buildBuckets(ctx context.Context, w Window) (map[string]*DayBucket, error) {
	lots, stops, issues, err := s.fetchWindow(ctx, w)
	if err != nil {
		return nil, err
	}

	return BuildDayBuckets(lots, stops, issues, w.From, w.To, s.now()), nil
}

// SeriesFromBuckets разворачивает корзины в дневную серию по порядку дат.
// День без деталей остается в серии нулевой точкой, метрики для него
// не считаем, чтобы качество 100 пустого дня не попало на график.
func SeriesFromBuckets(buckets map[string]*DayBucket) []DayPoint {
	dates := make([]string, 0, len(buckets))
	for date := range buckets {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	series := make([]DayPoint, 0, len(dates))
	for _, date := range dates {
		b := buckets[date]
		point := DayPoint{Date: date}

		if b.HasParts() {
			m := CalculateMetrics(b)
			point.Availability = m.Availability
			point.Performance = m.Performance
			point.Quality = m.Quality
			point.OEE = m.OEE
		}

		series = append(series, point)
	}

	return series
}

// DaySeries — дневная серия OEE для графиков
func (s *ReportService) DaySeries(ctx context.Context, w Window) ([]DayPoint, error) {
	const op = "service.report.DaySeries"

	buckets, err := s.buildBuckets(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return SeriesFromBuckets(buckets), nil
}

// Summary — средние метрики и разбивка простоев за диапазон.
// Средние считаются только по дням с деталями.
func (s *ReportService) Summary(ctx context.Context, w Window) (*Summary, error) {
	const op = "service.report.Summary"

	buckets, err := s.buildBuckets(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sum := &Summary{
		From:           w.From.Format(dateLayout),
		To:             w.To.Format(dateLayout),
		DowntimeByType: make(map[string]float64),
	}

	for _, b := range buckets {
		sum.TotalOkParts += b.OkParts
		sum.TotalScrapParts += b.ScrapParts
		sum.TotalReworkParts += b.ReworkParts
		sum.TotalPlannedStops += b.PlannedStops
		sum.TotalUnplannedStops += b.UnplannedStops
		for ft, minutes := range b.StopsByType {
			sum.DowntimeByType[string(ft)] += minutes
		}

		if !b.HasParts() {
			continue
		}

		m := CalculateMetrics(b)
		sum.DaysWithData++
		sum.AvgAvailability += m.Availability
		sum.AvgPerformance += m.Performance
		sum.AvgQuality += m.Quality
		sum.AvgOEE += m.OEE
	}

	if sum.DaysWithData > 0 {
		n := float64(sum.DaysWithData)
		sum.AvgAvailability /= n
		sum.AvgPerformance /= n
		sum.AvgQuality /= n
		sum.AvgOEE /= n
	}

	return sum, nil
}

// CausePareto — таблица Парето и тренды топ-5 причин по одному
// из потоков: остановки или брак
func (s *ReportService) CausePareto(ctx context.Context, w Window, source string, opts ParetoOptions) ([]ParetoRow, []CauseTrend, error) {
	const op = "service.report.CausePareto"

	var entries []CauseEntry

	switch source {
	case SourceStops:
		stops, err := s.storage.GetStops(ctx, w.ProjectID, w.From, w.To, w.Filter)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: stops: %w", op, err)
		}
		entries = StopEntries(stops, s.now())
	case SourceQuality:
		issues, err := s.storage.GetQualityIssues(ctx, w.ProjectID, w.From, w.To, w.Filter)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: quality issues: %w", op, err)
		}
		entries = QualityEntries(issues)
	default:
		return nil, nil, fmt.Errorf("%s: неизвестный источник %q", op, source)
	}

	return BuildPareto(entries, opts), BuildCauseTrends(entries, w.From, w.To, opts), nil
}

// Comparison считает обе серии независимо и склеивает их по датам:
// период против периода или машина против машины
func (s *ReportService) Comparison(ctx context.Context, current, previous Window) ([]ComparePoint, error) {
	const op = "service.report.Comparison"

	var curSeries, prevSeries []DayPoint

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		buckets, err := s.buildBuckets(gCtx, current)
		if err != nil {
			return fmt.Errorf("current: %w", err)
		}
		curSeries = SeriesFromBuckets(buckets)
		return nil
	})
	g.Go(func() error {
		buckets, err := s.buildBuckets(gCtx, previous)
		if err != nil {
			return fmt.Errorf("previous: %w", err)
		}
		prevSeries = SeriesFromBuckets(buckets)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return MergeSeries(curSeries, prevSeries), nil
}
