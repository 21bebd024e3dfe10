package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"oee-backend/internal/service/report"
)

type MockReportEngine struct {
	mock.Mock
}

func (m *MockReportEngine) DaySeries(ctx context.Context, w report.Window) ([]report.DayPoint, error) {
	args := m.Called(ctx, w)

	series := []report.DayPoint{}
	if args.Get(0) != nil {
		series = args.Get(0).([]report.DayPoint)
	}

	return series, args.Error(1)
}

func (m *MockReportEngine) Summary(ctx context.Context, w report.Window) (*report.Summary, error) {
	args := m.Called(ctx, w)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*report.Summary), args.Error(1)
}

func (m *MockReportEngine) CausePareto(ctx context.Context, w report.Window, source string, opts report.ParetoOptions) ([]report.ParetoRow, []report.CauseTrend, error) {
	args := m.Called(ctx, w, source, opts)

	rows := []report.ParetoRow{}
	if args.Get(0) != nil {
		rows = args.Get(0).([]report.ParetoRow)
	}

	trends := []report.CauseTrend{}
	if args.Get(1) != nil {
		trends = args.Get(1).([]report.CauseTrend)
	}

	return rows, trends, args.Error(2)
}

func (m *MockReportEngine) Comparison(ctx context.Context, current, previous report.Window) ([]report.ComparePoint, error) {
	args := m.Called(ctx, current, previous)

	series := []report.ComparePoint{}
	if args.Get(0) != nil {
		series = args.Get(0).([]report.ComparePoint)
	}

	return series, args.Error(1)
}

func TestOEESeries_Success(t *testing.T) {
	// 1. Создаём мок движка
	mockEngine := new(MockReportEngine)

	// 2. Настраиваем мок на успешный ответ
	series := []report.DayPoint{
		{Date: "2024-01-01", Availability: 93.75, Performance: 88.89, Quality: 100, OEE: 83.33},
		{Date: "2024-01-02"},
	}
	mockEngine.On("DaySeries", mock.Anything, mock.MatchedBy(func(w report.Window) bool {
		return w.ProjectID == 1 &&
			w.From.Format("2006-01-02") == "2024-01-01" &&
			w.To.Format("2006-01-02") == "2024-01-02" &&
			w.Filter.MachineID == 10
	})).Return(series, nil)

	// 3. Создаём хендлер
	handler := OEESeries(slog.Default(), mockEngine)

	// 4. Фейковый запрос с параметрами окна
	req := httptest.NewRequest(http.MethodGet, "/api/report/oee?project=1&from=2024-01-01&to=2024-01-02&machine=10", nil)
	rr := httptest.NewRecorder()

	// 5. Вызываем хендлер
	handler.ServeHTTP(rr, req)

	// 6. Проверяем статус и тело ответа
	assert.Equal(t, http.StatusOK, rr.Code, "ожидался статус 200")

	var resp ResponseSeries
	err := render.DecodeJSON(strings.NewReader(rr.Body.String()), &resp)
	assert.NoError(t, err, "ошибка декодирования JSON ответа")

	assert.Len(t, resp.Series, 2, "ожидалось 2 точки")
	assert.Equal(t, "2024-01-01", resp.Series[0].Date)
	assert.Equal(t, 83.33, resp.Series[0].OEE)

	mockEngine.AssertExpectations(t)
}

func TestOEESeries_BadParams(t *testing.T) {
	mockEngine := new(MockReportEngine)
	handler := OEESeries(slog.Default(), mockEngine)

	cases := []struct {
		name string
		url  string
	}{
		{"нет project", "/api/report/oee?from=2024-01-01"},
		{"кривой project", "/api/report/oee?project=abc"},
		{"кривая дата from", "/api/report/oee?project=1&from=01.01.2024"},
		{"to раньше from", "/api/report/oee?project=1&from=2024-01-05&to=2024-01-01"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}

	// Движок ни разу не дернули
	mockEngine.AssertNotCalled(t, "DaySeries", mock.Anything, mock.Anything)
}

func TestOEESeries_EngineError(t *testing.T) {
	mockEngine := new(MockReportEngine)
	mockEngine.On("DaySeries", mock.Anything, mock.Anything).Return(nil, errors.New("db gone"))

	handler := OEESeries(slog.Default(), mockEngine)

	req := httptest.NewRequest(http.MethodGet, "/api/report/oee?project=1&from=2024-01-01&to=2024-01-02", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	var resp ResponseSeries
	err := render.DecodeJSON(strings.NewReader(rr.Body.String()), &resp)
	assert.NoError(t, err)
	assert.NotEmpty(t, resp.Error)
}

func TestCausePareto_SourceAndNormalize(t *testing.T) {
	// 1. Мок на quality-источник с нормализацией
	mockEngine := new(MockReportEngine)

	rows := []report.ParetoRow{
		{Cause: "царапина", Total: 120, Percentage: 60, Cumulative: 60},
		{Cause: "скол", Total: 80, Percentage: 40, Cumulative: 100},
	}
	mockEngine.On("CausePareto", mock.Anything, mock.Anything, report.SourceQuality,
		report.ParetoOptions{NormalizeCauses: true}).Return(rows, []report.CauseTrend{}, nil)

	handler := CausePareto(slog.Default(), mockEngine)

	// 2. Запрос с source=quality и normalize=1
	req := httptest.NewRequest(http.MethodGet, "/api/report/pareto?project=1&from=2024-01-01&to=2024-01-31&source=quality&normalize=1", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp ResponsePareto
	err := render.DecodeJSON(strings.NewReader(rr.Body.String()), &resp)
	assert.NoError(t, err)
	assert.Len(t, resp.Pareto, 2)
	assert.Equal(t, 100.0, resp.Pareto[1].Cumulative)

	mockEngine.AssertExpectations(t)
}

func TestCausePareto_BadSource(t *testing.T) {
	mockEngine := new(MockReportEngine)
	handler := CausePareto(slog.Default(), mockEngine)

	req := httptest.NewRequest(http.MethodGet, "/api/report/pareto?project=1&source=lots", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	mockEngine.AssertNotCalled(t, "CausePareto", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCompareSeries_PrevWindowOverrides(t *testing.T) {
	// 1. Мок проверяет, что второе окно унаследовало проект
	// и переопределило даты и машину
	mockEngine := new(MockReportEngine)

	merged := []report.ComparePoint{
		{Date: "2024-01-01", OEE: 83.33, OEEPrev: 79.1},
	}
	mockEngine.On("Comparison", mock.Anything,
		mock.MatchedBy(func(w report.Window) bool {
			return w.ProjectID == 1 && w.Filter.MachineID == 10
		}),
		mock.MatchedBy(func(w report.Window) bool {
			return w.ProjectID == 1 &&
				w.Filter.MachineID == 11 &&
				w.From.Format("2006-01-02") == "2023-12-01"
		}),
	).Return(merged, nil)

	handler := CompareSeries(slog.Default(), mockEngine)

	// 2. Запрос: текущее окно и prev_* переопределения
	url := "/api/report/compare?project=1&from=2024-01-01&to=2024-01-31&machine=10" +
		"&prev_from=2023-12-01&prev_to=2023-12-31&prev_machine=11"
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp ResponseCompare
	err := render.DecodeJSON(strings.NewReader(rr.Body.String()), &resp)
	assert.NoError(t, err)
	assert.Len(t, resp.Series, 1)
	assert.Equal(t, 83.33, resp.Series[0].OEE)
	assert.Equal(t, 79.1, resp.Series[0].OEEPrev)

	mockEngine.AssertExpectations(t)
}

func TestReportSummary_Success(t *testing.T) {
	mockEngine := new(MockReportEngine)

	summary := &report.Summary{
		From:         "2024-01-01",
		To:           "2024-01-31",
		DaysWithData: 20,
		AvgOEE:       74.2,
		DowntimeByType: map[string]float64{
			"breakdown": 320,
			"planned":   600,
		},
	}
	mockEngine.On("Summary", mock.Anything, mock.Anything).Return(summary, nil)

	handler := ReportSummary(slog.Default(), mockEngine)

	req := httptest.NewRequest(http.MethodGet, "/api/report/summary?project=1&from=2024-01-01&to=2024-01-31", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp report.Summary
	err := render.DecodeJSON(strings.NewReader(rr.Body.String()), &resp)
	assert.NoError(t, err)
	assert.Equal(t, 20, resp.DaysWithData)
	assert.Equal(t, 74.2, resp.AvgOEE)
	assert.Equal(t, 320.0, resp.DowntimeByType["breakdown"])
}
