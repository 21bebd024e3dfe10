package export

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"oee-backend/internal/service/report"
	"oee-backend/internal/storage"
)

type GenerateExcelHandler interface {
	GenerateExcel(ctx context.Context, w report.Window) ([]byte, error)
}

func GenerateReportExcel(log *slog.Logger, gen GenerateExcelHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.report.export.GenerateReportExcel"

		q := r.URL.Query()

		projectID, err := strconv.ParseInt(q.Get("project"), 10, 64)
		if err != nil || projectID <= 0 {
			http.Error(w, "Некорректный project", http.StatusBadRequest)
			return
		}

		now := time.Now()
		startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

		fromStr := q.Get("from")
		fDate, err := time.Parse("2006-01-02", fromStr)
		if err != nil && fromStr != "" {
			http.Error(w, "invalid from date", http.StatusBadRequest)
			return
		}
		if fromStr == "" {
			fDate = startOfMonth
		}

		toStr := q.Get("to")
		tDate, err := time.Parse("2006-01-02", toStr)
		if err != nil && toStr != "" {
			http.Error(w, "invalid to date", http.StatusBadRequest)
			return
		}
		if toStr == "" {
			tDate = now
		}

		machineID, _ := strconv.ParseInt(q.Get("machine"), 10, 64)

		window := report.Window{
			ProjectID: projectID,
			From:      fDate,
			To:        tDate,
			Filter:    storage.RecordFilter{MachineID: machineID},
		}

		// На Excel можно побольше времени
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		excelBytes, err := gen.GenerateExcel(ctx, window)
		if err != nil {
			log.Error("failed to generate excel", "op", op, "err", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}

		fileName := fmt.Sprintf("OEE_Report_%s.xlsx", time.Now().Format("2006-01-02_150405"))

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", "attachment; filename="+fileName)
		w.Write(excelBytes)
	}
}
