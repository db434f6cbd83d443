package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gelateria_backend/internal/models"
)

// HaccpFilters narrows listing of HACCP records.
type HaccpFilters struct {
	StartDate     *time.Time
	EndDate       *time.Time
	IncludeVoided bool
}

// HaccpRepository defines the interface for HACCP compliance log database
// operations. Records are never deleted: the only mutation is voiding, which
// flips status from recorded to voided and stores a mandatory reason.
type HaccpRepository interface {
	CreateTemperatureLog(executor SQLExecutor, log *models.HaccpTemperatureLog) (int64, error)
	GetTemperatureLogs(filters HaccpFilters, page, pageSize int) ([]models.HaccpTemperatureLog, int, error)
	VoidTemperatureLog(executor SQLExecutor, id int64, reason string) error
	CreateCleaningLog(executor SQLExecutor, log *models.HaccpCleaningLog) (int64, error)
	GetCleaningLogs(filters HaccpFilters, page, pageSize int) ([]models.HaccpCleaningLog, int, error)
	VoidCleaningLog(executor SQLExecutor, id int64, reason string) error
	// CountTemperatureLogsOnDay reports how many non-voided readings exist for
	// a piece of equipment on a reference day. Used by the register auto-fill
	// to avoid duplicating entries.
	CountTemperatureLogsOnDay(equipment string, day time.Time) (int, error)
	CountCleaningLogsOnDay(area, task string, day time.Time) (int, error)
}

type haccpRepository struct {
	db *sql.DB
}

// NewHaccpRepository creates a new instance of HaccpRepository.
func NewHaccpRepository(db *sql.DB) HaccpRepository {
	return &haccpRepository{db: db}
}

func (r *haccpRepository) CreateTemperatureLog(executor SQLExecutor, log *models.HaccpTemperatureLog) (int64, error) {
	query := `INSERT INTO haccp_temperature_logs
	          (equipment, temperature, limit_min, limit_max, shift, operator,
	           non_conformity, corrective_action, status, reference_date, recorded_at, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          RETURNING id`
	currentTime := time.Now()
	if log.RecordedAt.IsZero() {
		log.RecordedAt = currentTime
	}
	log.Status = models.HaccpStatusRecorded
	err := executor.QueryRow(query,
		log.Equipment, log.Temperature, log.LimitMin, log.LimitMax, log.Shift, log.Operator,
		log.NonConformity, log.CorrectiveAction, log.Status, log.ReferenceDate, log.RecordedAt, currentTime,
	).Scan(&log.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating temperature log: %v", ErrDatabaseError, err)
	}
	return log.ID, nil
}

func (r *haccpRepository) GetTemperatureLogs(filters HaccpFilters, page, pageSize int) ([]models.HaccpTemperatureLog, int, error) {
	logs := []models.HaccpTemperatureLog{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT id, equipment, temperature, limit_min, limit_max, shift, operator,
	    non_conformity, corrective_action, status, void_reason, reference_date, recorded_at, created_at,
	    COUNT(*) OVER() AS total_count
	  FROM haccp_temperature_logs`)

	conditions, args, argCount := buildHaccpConditions(filters)
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY recorded_at DESC, id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting temperature logs: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var log models.HaccpTemperatureLog
		if err := rows.Scan(
			&log.ID, &log.Equipment, &log.Temperature, &log.LimitMin, &log.LimitMax, &log.Shift, &log.Operator,
			&log.NonConformity, &log.CorrectiveAction, &log.Status, &log.VoidReason, &log.ReferenceDate,
			&log.RecordedAt, &log.CreatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning temperature log: %v", ErrDatabaseError, err)
		}
		logs = append(logs, log)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating temperature logs: %v", ErrDatabaseError, err)
	}
	return logs, totalCount, nil
}

func (r *haccpRepository) VoidTemperatureLog(executor SQLExecutor, id int64, reason string) error {
	return r.voidLog(executor, "haccp_temperature_logs", id, reason)
}

func (r *haccpRepository) CreateCleaningLog(executor SQLExecutor, log *models.HaccpCleaningLog) (int64, error) {
	query := `INSERT INTO haccp_cleaning_logs
	          (area, task, frequency, done, shift, operator, notes, status, reference_date, recorded_at, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING id`
	currentTime := time.Now()
	if log.RecordedAt.IsZero() {
		log.RecordedAt = currentTime
	}
	log.Status = models.HaccpStatusRecorded
	err := executor.QueryRow(query,
		log.Area, log.Task, log.Frequency, log.Done, log.Shift, log.Operator,
		log.Notes, log.Status, log.ReferenceDate, log.RecordedAt, currentTime,
	).Scan(&log.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating cleaning log: %v", ErrDatabaseError, err)
	}
	return log.ID, nil
}

func (r *haccpRepository) GetCleaningLogs(filters HaccpFilters, page, pageSize int) ([]models.HaccpCleaningLog, int, error) {
	logs := []models.HaccpCleaningLog{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT id, area, task, frequency, done, shift, operator, notes,
	    status, void_reason, reference_date, recorded_at, created_at,
	    COUNT(*) OVER() AS total_count
	  FROM haccp_cleaning_logs`)

	conditions, args, argCount := buildHaccpConditions(filters)
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY recorded_at DESC, id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting cleaning logs: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var log models.HaccpCleaningLog
		if err := rows.Scan(
			&log.ID, &log.Area, &log.Task, &log.Frequency, &log.Done, &log.Shift, &log.Operator, &log.Notes,
			&log.Status, &log.VoidReason, &log.ReferenceDate, &log.RecordedAt, &log.CreatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning cleaning log: %v", ErrDatabaseError, err)
		}
		logs = append(logs, log)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating cleaning logs: %v", ErrDatabaseError, err)
	}
	return logs, totalCount, nil
}

func (r *haccpRepository) VoidCleaningLog(executor SQLExecutor, id int64, reason string) error {
	return r.voidLog(executor, "haccp_cleaning_logs", id, reason)
}

// voidLog only touches rows still in recorded status, which makes voiding a
// voided record a no-op error rather than a silent overwrite of the reason.
// When the UPDATE hits nothing, the row's status tells a missing record apart
// from one that was already voided.
func (r *haccpRepository) voidLog(executor SQLExecutor, table string, id int64, reason string) error {
	query := fmt.Sprintf(`UPDATE %s SET status = $2, void_reason = $3 WHERE id = $1 AND status = $4`, table)
	result, err := executor.Exec(query, id, models.HaccpStatusVoided, reason, models.HaccpStatusRecorded)
	if err != nil {
		return fmt.Errorf("%w: voiding record ID %d in %s: %v", ErrDatabaseError, id, table, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		var status string
		err := executor.QueryRow(fmt.Sprintf(`SELECT status FROM %s WHERE id = $1`, table), id).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("%w: checking record ID %d in %s: %v", ErrDatabaseError, id, table, err)
		}
		return ErrVoided
	}
	return nil
}

func (r *haccpRepository) CountTemperatureLogsOnDay(equipment string, day time.Time) (int, error) {
	dayStart, dayEnd := dayBounds(day)
	var count int
	query := `SELECT COUNT(*) FROM haccp_temperature_logs
	          WHERE equipment = $1 AND status = $2
	            AND COALESCE(reference_date, recorded_at) >= $3
	            AND COALESCE(reference_date, recorded_at) < $4`
	err := r.db.QueryRow(query, equipment, models.HaccpStatusRecorded, dayStart, dayEnd).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting temperature logs for %s: %v", ErrDatabaseError, equipment, err)
	}
	return count, nil
}

func (r *haccpRepository) CountCleaningLogsOnDay(area, task string, day time.Time) (int, error) {
	dayStart, dayEnd := dayBounds(day)
	var count int
	query := `SELECT COUNT(*) FROM haccp_cleaning_logs
	          WHERE area = $1 AND task = $2 AND status = $3
	            AND COALESCE(reference_date, recorded_at) >= $4
	            AND COALESCE(reference_date, recorded_at) < $5`
	err := r.db.QueryRow(query, area, task, models.HaccpStatusRecorded, dayStart, dayEnd).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting cleaning logs for %s/%s: %v", ErrDatabaseError, area, task, err)
	}
	return count, nil
}

func buildHaccpConditions(filters HaccpFilters) ([]string, []interface{}, int) {
	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("recorded_at >= $%d", argCount))
		args = append(args, *filters.StartDate)
		argCount++
	}
	if filters.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("recorded_at <= $%d", argCount))
		args = append(args, *filters.EndDate)
		argCount++
	}
	if !filters.IncludeVoided {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCount))
		args = append(args, models.HaccpStatusRecorded)
		argCount++
	}
	return conditions, args, argCount
}

func dayBounds(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return start, start.AddDate(0, 0, 1)
}
