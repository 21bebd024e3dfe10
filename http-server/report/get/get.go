package get

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"oee-backend/internal/service/report"
	"oee-backend/internal/storage"
)

type ReportEngine interface {
	DaySeries(ctx context.Context, w report.Window) ([]report.DayPoint, error)
	Summary(ctx context.Context, w report.Window) (*report.Summary, error)
	CausePareto(ctx context.Context, w report.Window, source string, opts report.ParetoOptions) ([]report.ParetoRow, []report.CauseTrend, error)
	Comparison(ctx context.Context, current, previous report.Window) ([]report.ComparePoint, error)
}

type ResponseSeries struct {
	Series []report.DayPoint `json:"series"`
	Status string            `json:"status"`
	Error  string            `json:"error"`
}

type ResponsePareto struct {
	Pareto []report.ParetoRow  `json:"pareto"`
	Trends []report.CauseTrend `json:"trends"`
	Status string              `json:"status"`
	Error  string              `json:"error"`
}

type ResponseCompare struct {
	Series []report.ComparePoint `json:"series"`
	Status string                `json:"status"`
	Error  string                `json:"error"`
}

// parseWindow читает project, from, to и фильтры из query-параметров.
// По умолчанию берем текущий месяц, как и на остальных экранах отчетов.
func parseWindow(r *http.Request) (report.Window, string) {
	q := r.URL.Query()

	projectID, err := strconv.ParseInt(q.Get("project"), 10, 64)
	if err != nil || projectID <= 0 {
		return report.Window{}, "Некорректный project"
	}

	now := time.Now()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	parseDate := func(dateStr string, defaultTime time.Time) (time.Time, error) {
		if dateStr == "" {
			return defaultTime, nil
		}
		return time.Parse("2006-01-02", dateStr)
	}

	from, err := parseDate(q.Get("from"), startOfMonth)
	if err != nil {
		return report.Window{}, "Неверный формат даты 'from'"
	}

	to, err := parseDate(q.Get("to"), now)
	if err != nil {
		return report.Window{}, "Неверный формат даты 'to'"
	}

	if to.Before(from) {
		return report.Window{}, "Дата 'to' раньше даты 'from'"
	}

	// Необязательные фильтры, пустые значения пропускаем
	parseID := func(key string) int64 {
		id, err := strconv.ParseInt(q.Get(key), 10, 64)
		if err != nil {
			return 0
		}
		return id
	}

	return report.Window{
		ProjectID: projectID,
		From:      from,
		To:        to,
		Filter: storage.RecordFilter{
			MachineID: parseID("machine"),
			ProductID: parseID("product"),
			TeamID:    parseID("team"),
		},
	}, ""
}

// OEESeries — дневная серия метрик для основного графика дашборда
func OEESeries(log *slog.Logger, engine ReportEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.report.get.OEESeries"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		window, badParam := parseWindow(r)
		if badParam != "" {
			http.Error(w, badParam, http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		series, err := engine.DaySeries(ctx, window)
		if err != nil {
			log.With(slog.String("error", err.Error())).Error("Ошибка при расчете дневной серии OEE")
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, ResponseSeries{Error: "Не удалось построить отчет"})
			return
		}

		render.JSON(w, r, ResponseSeries{
			Series: series,
			Status: strconv.Itoa(http.StatusOK),
		})
	}
}

// ReportSummary — карточки шапки: средние метрики и разбивка простоев
func ReportSummary(log *slog.Logger, engine ReportEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.report.get.ReportSummary"

		window, badParam := parseWindow(r)
		if badParam != "" {
			http.Error(w, badParam, http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		summary, err := engine.Summary(ctx, window)
		if err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Ошибка при расчете сводки")
			http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, summary)
	}
}

// CausePareto — таблица Парето и тренды топ-5 причин.
// source=stops|quality, normalize=1 включает нормализацию строк причин
func CausePareto(log *slog.Logger, engine ReportEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.report.get.CausePareto"

		window, badParam := parseWindow(r)
		if badParam != "" {
			http.Error(w, badParam, http.StatusBadRequest)
			return
		}

		source := r.URL.Query().Get("source")
		if source == "" {
			source = report.SourceStops
		}
		if source != report.SourceStops && source != report.SourceQuality {
			http.Error(w, "Некорректный source", http.StatusBadRequest)
			return
		}

		opts := report.ParetoOptions{
			NormalizeCauses: r.URL.Query().Get("normalize") == "1",
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		pareto, trends, err := engine.CausePareto(ctx, window, source, opts)
		if err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Ошибка при построении Парето")
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, ResponsePareto{Error: "Не удалось построить отчет"})
			return
		}

		render.JSON(w, r, ResponsePareto{
			Pareto: pareto,
			Trends: trends,
			Status: strconv.Itoa(http.StatusOK),
		})
	}
}

// CompareSeries — объединенная серия двух окон: период против периода
// или машина против машины. Параметры второго окна с префиксом prev_,
// незаданные берутся из первого окна.
func CompareSeries(log *slog.Logger, engine ReportEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.report.get.CompareSeries"

		current, badParam := parseWindow(r)
		if badParam != "" {
			http.Error(w, badParam, http.StatusBadRequest)
			return
		}

		// Второе окно наследует параметры первого, prev_* переопределяют
		q := r.URL.Query()
		previous := current

		if v := q.Get("prev_project"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil || id <= 0 {
				http.Error(w, "Некорректный prev_project", http.StatusBadRequest)
				return
			}
			previous.ProjectID = id
		}
		if v := q.Get("prev_from"); v != "" {
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				http.Error(w, "Неверный формат даты 'prev_from'", http.StatusBadRequest)
				return
			}
			previous.From = t
		}
		if v := q.Get("prev_to"); v != "" {
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				http.Error(w, "Неверный формат даты 'prev_to'", http.StatusBadRequest)
				return
			}
			previous.To = t
		}
		if v := q.Get("prev_machine"); v != "" {
			id, _ := strconv.ParseInt(v, 10, 64)
			previous.Filter.MachineID = id
		}
		if v := q.Get("prev_product"); v != "" {
			id, _ := strconv.ParseInt(v, 10, 64)
			previous.Filter.ProductID = id
		}
		if v := q.Get("prev_team"); v != "" {
			id, _ := strconv.ParseInt(v, 10, 64)
			previous.Filter.TeamID = id
		}

		if previous.To.Before(previous.From) {
			http.Error(w, "Дата 'prev_to' раньше даты 'prev_from'", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		series, err := engine.Comparison(ctx, current, previous)
		if err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Ошибка при построении сравнения")
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, ResponseCompare{Error: "Не удалось построить отчет"})
			return
		}

		render.JSON(w, r, ResponseCompare{
			Series: series,
			Status: strconv.Itoa(http.StatusOK),
		})
	}
}
