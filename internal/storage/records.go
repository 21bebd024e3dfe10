package storage

import "time"

// Типы остановок из справочника производства
type FailureType string

const (
	FailurePlanned      FailureType = "planned"
	FailureBreakdown    FailureType = "breakdown"
	FailureOrganized    FailureType = "organized"
	FailureQuality      FailureType = "quality"
	FailureSeriesChange FailureType = "series_change"
)

type QualityCategory string

const (
	QualityScrap          QualityCategory = "scrap"
	QualityReworkStation  QualityCategory = "rework_station"
	QualityReworkExternal QualityCategory = "rework_external"
)

// Lot — производственная партия. Для отчетов только чтение,
// статусы партий меняет экран ввода, не движок.
type Lot struct {
	ID           int64      `json:"id"`
	MachineID    int64      `json:"machine_id"`
	MachineName  string     `json:"machine_name"`
	ProductID    int64      `json:"product_id"`
	ProductName  string     `json:"product_name"`
	CycleTimeSec float64    `json:"cycle_time_sec"`
	Start        time.Time  `json:"start_time"`
	End          *time.Time `json:"end_time"` // nil — партия еще открыта
	TargetCount  float64    `json:"target_count"`
	OkParts      float64    `json:"ok_parts"`
	Completed    bool       `json:"completed"`
}

type StopEvent struct {
	ID          int64       `json:"id"`
	MachineID   int64       `json:"machine_id"`
	FailureType FailureType `json:"failure_type"`
	Cause       string      `json:"cause"`
	Start       time.Time   `json:"start_time"`
	End         *time.Time  `json:"end_time"` // nil — остановка еще идет
}

type QualityIssue struct {
	ID        int64           `json:"id"`
	MachineID int64           `json:"machine_id"`
	Category  QualityCategory `json:"category"`
	Cause     string          `json:"cause"`
	Quantity  float64         `json:"quantity"`
	Date      time.Time       `json:"date"`
}

// RecordFilter — необязательные фильтры выборки, id уже разрешены фронтом
type RecordFilter struct {
	MachineID int64
	ProductID int64
	TeamID    int64
}
