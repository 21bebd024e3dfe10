package get

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/render"

	"oee-backend/internal/storage"
)

// Сырые записи для админских экранов, фильтры те же, что и в отчетах
type RawStorage interface {
	GetLots(ctx context.Context, projectID int64, from, to time.Time, filter storage.RecordFilter) ([]*storage.Lot, error)
	GetStops(ctx context.Context, projectID int64, from, to time.Time, filter storage.RecordFilter) ([]*storage.StopEvent, error)
	GetQualityIssues(ctx context.Context, projectID int64, from, to time.Time, filter storage.RecordFilter) ([]*storage.QualityIssue, error)
}

func parseParams(r *http.Request) (int64, time.Time, time.Time, storage.RecordFilter, string) {
	q := r.URL.Query()

	projectID, err := strconv.ParseInt(q.Get("project"), 10, 64)
	if err != nil || projectID <= 0 {
		return 0, time.Time{}, time.Time{}, storage.RecordFilter{}, "Некорректный project"
	}

	now := time.Now()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	from, to := startOfMonth, now
	if v := q.Get("from"); v != "" {
		from, err = time.Parse("2006-01-02", v)
		if err != nil {
			return 0, time.Time{}, time.Time{}, storage.RecordFilter{}, "Неверный формат даты 'from'"
		}
	}
	if v := q.Get("to"); v != "" {
		to, err = time.Parse("2006-01-02", v)
		if err != nil {
			return 0, time.Time{}, time.Time{}, storage.RecordFilter{}, "Неверный формат даты 'to'"
		}
	}

	machineID, _ := strconv.ParseInt(q.Get("machine"), 10, 64)

	return projectID, from, to, storage.RecordFilter{MachineID: machineID}, ""
}

func GetLotsAdmin(log *slog.Logger, store RawStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.raw.get.GetLotsAdmin"

		projectID, from, to, filter, badParam := parseParams(r)
		if badParam != "" {
			http.Error(w, badParam, http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		lots, err := store.GetLots(ctx, projectID, from, to, filter)
		if err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Ошибка при получении партий")
			http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, lots)
	}
}

func GetStopsAdmin(log *slog.Logger, store RawStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.raw.get.GetStopsAdmin"

		projectID, from, to, filter, badParam := parseParams(r)
		if badParam != "" {
			http.Error(w, badParam, http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		stops, err := store.GetStops(ctx, projectID, from, to, filter)
		if err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Ошибка при получении остановок")
			http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, stops)
	}
}

func GetQualityIssuesAdmin(log *slog.Logger, store RawStorage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.raw.get.GetQualityIssuesAdmin"

		projectID, from, to, filter, badParam := parseParams(r)
		if badParam != "" {
			http.Error(w, badParam, http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		issues, err := store.GetQualityIssues(ctx, projectID, from, to, filter)
		if err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Ошибка при получении записей брака")
			http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, issues)
	}
}
