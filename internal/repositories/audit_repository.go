package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"gelateria_backend/internal/models"
)

// AuditFilters narrows listing of the audit trail.
type AuditFilters struct {
	UserID    *int64
	Action    *string
	TableName *string
	StartDate *time.Time
	EndDate   *time.Time
}

// AuditRepository defines the interface for the append-only audit trail.
type AuditRepository interface {
	CreateEntry(executor SQLExecutor, entry *models.AuditLogEntry) (int64, error)
	GetEntries(filters AuditFilters, page, pageSize int) ([]models.AuditLogEntry, int, error)
}

type auditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new instance of AuditRepository.
func NewAuditRepository(db *sql.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) CreateEntry(executor SQLExecutor, entry *models.AuditLogEntry) (int64, error) {
	query := `INSERT INTO audit_log (user_id, user_name, action, table_name, record_id, details, occurred_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now()
	}
	err := executor.QueryRow(query,
		entry.UserID, entry.UserName, entry.Action, entry.TableName, entry.RecordID, entry.Details, entry.OccurredAt,
	).Scan(&entry.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating audit entry: %v", ErrDatabaseError, err)
	}
	return entry.ID, nil
}

func (r *auditRepository) GetEntries(filters AuditFilters, page, pageSize int) ([]models.AuditLogEntry, int, error) {
	entries := []models.AuditLogEntry{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT id, user_id, user_name, action, table_name, record_id, details, occurred_at,
	    COUNT(*) OVER() AS total_count
	  FROM audit_log`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argCount))
		args = append(args, *filters.UserID)
		argCount++
	}
	if filters.Action != nil && *filters.Action != "" {
		conditions = append(conditions, fmt.Sprintf("action = $%d", argCount))
		args = append(args, *filters.Action)
		argCount++
	}
	if filters.TableName != nil && *filters.TableName != "" {
		conditions = append(conditions, fmt.Sprintf("table_name = $%d", argCount))
		args = append(args, *filters.TableName)
		argCount++
	}
	if filters.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("occurred_at >= $%d", argCount))
		args = append(args, *filters.StartDate)
		argCount++
	}
	if filters.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("occurred_at <= $%d", argCount))
		args = append(args, *filters.EndDate)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY occurred_at DESC, id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting audit entries: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry models.AuditLogEntry
		if err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.UserName, &entry.Action, &entry.TableName,
			&entry.RecordID, &entry.Details, &entry.OccurredAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning audit entry: %v", ErrDatabaseError, err)
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating audit entries: %v", ErrDatabaseError, err)
	}
	return entries, totalCount, nil
}
