package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"oee-backend/internal/storage"
)

// filterClause добавляет необязательные фильтры к запросу.
// id машин/изделий/бригад уже разрешены фронтом, имена здесь не ищем.
func filterClause(filter storage.RecordFilter, withProduct bool) (string, []interface{}) {
	var clause string
	var args []interface{}

	if filter.MachineID > 0 {
		clause += " AND r.machine_id = ?"
		args = append(args, filter.MachineID)
	}
	if withProduct && filter.ProductID > 0 {
		clause += " AND r.product_id = ?"
		args = append(args, filter.ProductID)
	}
	if filter.TeamID > 0 {
		clause += " AND m.team_id = ?"
		args = append(args, filter.TeamID)
	}

	return clause, args
}

// rangeEnd — конец выборки, правая граница диапазона включительно по дню
func rangeEnd(to time.Time) time.Time {
	return time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location()).AddDate(0, 0, 1)
}

func (s *Storage) GetLots(ctx context.Context, projectID int64, from, to time.Time, filter storage.RecordFilter) ([]*storage.Lot, error) {
	const op = "storage.mysql.GetLots.sql"

	stmt := `
		SELECT r.id, r.machine_id, m.name, r.product_id, p.name, p.cycle_time_sec,
		       r.start_time, r.end_time, r.target_count, r.ok_parts, r.completed
		FROM lots r
		JOIN machines m ON m.id = r.machine_id
		JOIN products p ON p.id = r.product_id
		WHERE r.project_id = ?
		  AND r.start_time >= ?
		  AND r.start_time < ?
	`
	args := []interface{}{projectID, from, rangeEnd(to)}

	clause, clauseArgs := filterClause(filter, true)
	stmt += clause
	args = append(args, clauseArgs...)

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка получения партий %w", op, err)
	}
	defer rows.Close()

	var lots []*storage.Lot
	for rows.Next() {
		var lot storage.Lot
		var end sql.NullTime

		err := rows.Scan(&lot.ID, &lot.MachineID, &lot.MachineName, &lot.ProductID, &lot.ProductName,
			&lot.CycleTimeSec, &lot.Start, &end, &lot.TargetCount, &lot.OkParts, &lot.Completed)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if end.Valid {
			t := end.Time
			lot.End = &t
		}

		lots = append(lots, &lot)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: ошибка сканирования строк %w", op, err)
	}

	return lots, nil
}

func (s *Storage) GetStops(ctx context.Context, projectID int64, from, to time.Time, filter storage.RecordFilter) ([]*storage.StopEvent, error) {
	const op = "storage.mysql.GetStops.sql"

	stmt := `
		SELECT r.id, r.machine_id, r.failure_type, r.cause, r.start_time, r.end_time
		FROM stop_events r
		JOIN machines m ON m.id = r.machine_id
		WHERE r.project_id = ?
		  AND r.start_time >= ?
		  AND r.start_time < ?
	`
	args := []interface{}{projectID, from, rangeEnd(to)}

	clause, clauseArgs := filterClause(filter, false)
	stmt += clause
	args = append(args, clauseArgs...)

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка получения остановок %w", op, err)
	}
	defer rows.Close()

	var stops []*storage.StopEvent
	for rows.Next() {
		var stop storage.StopEvent
		var failureType string
		var cause sql.NullString
		var end sql.NullTime

		err := rows.Scan(&stop.ID, &stop.MachineID, &failureType, &cause, &stop.Start, &end)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		stop.FailureType = storage.FailureType(failureType)
		if cause.Valid {
			stop.Cause = cause.String
		}
		if end.Valid {
			t := end.Time
			stop.End = &t
		}

		stops = append(stops, &stop)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: ошибка сканирования строк %w", op, err)
	}

	return stops, nil
}

func (s *Storage) GetQualityIssues(ctx context.Context, projectID int64, from, to time.Time, filter storage.RecordFilter) ([]*storage.QualityIssue, error) {
	const op = "storage.mysql.GetQualityIssues.sql"

	stmt := `
		SELECT r.id, r.machine_id, r.category, r.cause, r.quantity, r.issue_date
		FROM quality_issues r
		JOIN machines m ON m.id = r.machine_id
		WHERE r.project_id = ?
		  AND r.issue_date >= ?
		  AND r.issue_date < ?
	`
	args := []interface{}{projectID, from, rangeEnd(to)}

	clause, clauseArgs := filterClause(filter, false)
	stmt += clause
	args = append(args, clauseArgs...)

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка получения записей брака %w", op, err)
	}
	defer rows.Close()

	var issues []*storage.QualityIssue
	for rows.Next() {
		var issue storage.QualityIssue
		var category string
		var cause sql.NullString

		err := rows.Scan(&issue.ID, &issue.MachineID, &category, &cause, &issue.Quantity, &issue.Date)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		issue.Category = storage.QualityCategory(category)
		if cause.Valid {
			issue.Cause = cause.String
		}

		issues = append(issues, &issue)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: ошибка сканирования строк %w", op, err)
	}

	return issues, nil
}
