package main

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	rawget "oee-backend/http-server/raw/get"
	exporthandler "oee-backend/http-server/report/export"
	reportget "oee-backend/http-server/report/get"
	"oee-backend/internal/config"
	"oee-backend/internal/middleware/auth"
	"oee-backend/internal/service/export"
	"oee-backend/internal/service/report"
	"oee-backend/internal/storage/mysql"
)

func routes(cfg config.Config, log *slog.Logger, storage *mysql.Storage, reportService *report.ReportService, excelService *export.ExcelService) *chi.Mux {
	router := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:8081", "http://localhost:5173"}, // фронтенд дашборда
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	router.Use(corsHandler.Handler)

	router.Use(middleware.RequestID)
	//ip пользователя
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// Дневная серия OEE для основного графика
	router.Get("/api/report/oee", reportget.OEESeries(log, reportService))

	// Сводка за период: средние метрики и разбивка простоев
	router.Get("/api/report/summary", reportget.ReportSummary(log, reportService))

	// Парето по причинам остановок или брака + тренды топ-5
	router.Get("/api/report/pareto", reportget.CausePareto(log, reportService))

	// Сравнение периодов или машин
	router.Get("/api/report/compare", reportget.CompareSeries(log, reportService))

	// Выгрузка отчета в excel
	router.Get("/api/report/excel", exporthandler.GenerateReportExcel(log, excelService))

	// Сырые записи для админских экранов
	adminRouter := chi.NewRouter()
	adminRouter.Use(auth.BasicAuth(cfg.AdminLogin, cfg.AdminPass))

	adminRouter.Get("/raw/lots", rawget.GetLotsAdmin(log, storage))
	adminRouter.Get("/raw/stops", rawget.GetStopsAdmin(log, storage))
	adminRouter.Get("/raw/quality", rawget.GetQualityIssuesAdmin(log, storage))

	router.Mount("/api/admin", adminRouter)

	// Статика, vue
	frontendDir := "./frontend-dist"
	if _, err := os.Stat(frontendDir); os.IsNotExist(err) {
		// Бэкенд без фронтенда тоже рабочий вариант, просто без статики
		log.Warn("Папка фронтенда не найдена", "path", frontendDir)
		return router
	}

	// Отдаём статические файлы: assets/, js/, css/, img/ и т.д.
	fileServer := http.StripPrefix("/", http.FileServer(http.Dir(frontendDir)))

	router.Handle("/assets/*", fileServer)
	router.Handle("/js/*", fileServer)
	router.Handle("/css/*", fileServer)
	router.Handle("/img/*", fileServer)

	router.With(auth.BasicAuth(cfg.AdminLogin, cfg.AdminPass)).Handle("/admin/*",
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, filepath.Join(frontendDir, "index.html"))
		}),
	)

	//SPA fallback: любой другой путь → index.html
	router.HandleFunc("/*", func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(frontendDir, r.URL.Path)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			http.ServeFile(w, r, path)
			return
		}
		http.ServeFile(w, r, filepath.Join(frontendDir, "index.html"))
	})

	return router
}
