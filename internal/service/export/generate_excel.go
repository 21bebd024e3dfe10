package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"oee-backend/internal/service/report"
)

type ReportEngine interface {
	DaySeries(ctx context.Context, w report.Window) ([]report.DayPoint, error)
	CausePareto(ctx context.Context, w report.Window, source string, opts report.ParetoOptions) ([]report.ParetoRow, []report.CauseTrend, error)
}

type ExcelService struct {
	engine ReportEngine
}

func NewExcelService(engine ReportEngine) *ExcelService {
	return &ExcelService{engine: engine}
}

// GenerateExcel собирает книгу отчета: лист с дневной серией OEE
// и лист Парето по остановкам
func (g *ExcelService) GenerateExcel(ctx context.Context, w report.Window) ([]byte, error) {
	series, err := g.engine.DaySeries(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("day series: %w", err)
	}

	pareto, _, err := g.engine.CausePareto(ctx, w, report.SourceStops, report.ParetoOptions{})
	if err != nil {
		return nil, fmt.Errorf("pareto: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	oeeSheet := "OEE по дням"
	f.SetSheetName("Sheet1", oeeSheet)

	// Жирный шрифт для шапки
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})

	// 1. Шапка дневной серии
	oeeHeaders := []string{"Дата", "Доступность %", "Производительность %", "Качество %", "OEE %"}
	for i, name := range oeeHeaders {
		f.SetCellValue(oeeSheet, cellName(i+1, 1), name)
	}
	f.SetCellStyle(oeeSheet, "A1", cellName(len(oeeHeaders), 1), headerStyle)

	// 2. Данные серии
	for rowIdx, p := range series {
		rowNum := rowIdx + 2
		f.SetCellValue(oeeSheet, cellName(1, rowNum), p.Date)
		f.SetCellValue(oeeSheet, cellName(2, rowNum), p.Availability)
		f.SetCellValue(oeeSheet, cellName(3, rowNum), p.Performance)
		f.SetCellValue(oeeSheet, cellName(4, rowNum), p.Quality)
		f.SetCellValue(oeeSheet, cellName(5, rowNum), p.OEE)
	}

	// 3. Лист Парето по остановкам
	paretoSheet := "Парето остановок"
	if _, err := f.NewSheet(paretoSheet); err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}

	paretoHeaders := []string{"Причина", "Минуты", "Доля %", "Накопленно %"}
	for i, name := range paretoHeaders {
		f.SetCellValue(paretoSheet, cellName(i+1, 1), name)
	}
	f.SetCellStyle(paretoSheet, "A1", cellName(len(paretoHeaders), 1), headerStyle)

	for rowIdx, row := range pareto {
		rowNum := rowIdx + 2
		f.SetCellValue(paretoSheet, cellName(1, rowNum), row.Cause)
		f.SetCellValue(paretoSheet, cellName(2, rowNum), row.Total)
		f.SetCellValue(paretoSheet, cellName(3, rowNum), row.Percentage)
		f.SetCellValue(paretoSheet, cellName(4, rowNum), row.Cumulative)
	}

	// Закрепляем первую строку на обоих листах
	for _, sheet := range []string{oeeSheet, paretoSheet} {
		f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			Split:       false,
			XSplit:      0,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "",
			Selection:   nil,
		})
	}

	f.SetColWidth(oeeSheet, "A", "E", 18)
	f.SetColWidth(paretoSheet, "A", "A", 35)
	f.SetColWidth(paretoSheet, "B", "D", 15)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
