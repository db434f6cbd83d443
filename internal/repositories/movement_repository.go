package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"gelateria_backend/internal/models"
)

// MovementFilters narrows listing of the inventory ledger.
type MovementFilters struct {
	IngredientID *int64
	LotID        *int64
	Direction    *string
	StartDate    *time.Time
	EndDate      *time.Time
}

// MovementRepository defines the interface for the append-only inventory ledger.
// Movements are never updated or deleted; corrections are counter-movements.
type MovementRepository interface {
	CreateMovement(executor SQLExecutor, movement *models.InventoryMovement) (int64, error)
	GetMovements(filters MovementFilters, page, pageSize int) ([]models.InventoryMovement, int, error)
}

type movementRepository struct {
	db *sql.DB
}

// NewMovementRepository creates a new instance of MovementRepository.
func NewMovementRepository(db *sql.DB) MovementRepository {
	return &movementRepository{db: db}
}

func (r *movementRepository) CreateMovement(executor SQLExecutor, movement *models.InventoryMovement) (int64, error) {
	query := `INSERT INTO inventory_movements
	          (ingredient_id, lot_id, direction, quantity, unit, cause, movement_date, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	currentTime := time.Now()
	if movement.MovementDate.IsZero() {
		movement.MovementDate = currentTime
	}
	err := executor.QueryRow(query,
		movement.IngredientID, movement.LotID, movement.Direction, movement.Quantity,
		movement.Unit, movement.Cause, movement.MovementDate, currentTime,
	).Scan(&movement.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating inventory movement: %v", ErrDatabaseError, err)
	}
	return movement.ID, nil
}

func (r *movementRepository) GetMovements(filters MovementFilters, page, pageSize int) ([]models.InventoryMovement, int, error) {
	movements := []models.InventoryMovement{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    m.id, m.ingredient_id, m.lot_id, m.direction, m.quantity, m.unit, m.cause,
	    m.movement_date, m.created_at,
	    i.name AS ingredient_name,
	    l.lot_code,
	    COUNT(*) OVER() AS total_count
	  FROM inventory_movements m
	  JOIN ingredients i ON m.ingredient_id = i.id
	  LEFT JOIN ingredient_lots l ON m.lot_id = l.id`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.IngredientID != nil {
		conditions = append(conditions, fmt.Sprintf("m.ingredient_id = $%d", argCount))
		args = append(args, *filters.IngredientID)
		argCount++
	}
	if filters.LotID != nil {
		conditions = append(conditions, fmt.Sprintf("m.lot_id = $%d", argCount))
		args = append(args, *filters.LotID)
		argCount++
	}
	if filters.Direction != nil && *filters.Direction != "" {
		conditions = append(conditions, fmt.Sprintf("m.direction = $%d", argCount))
		args = append(args, *filters.Direction)
		argCount++
	}
	if filters.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("m.movement_date >= $%d", argCount))
		args = append(args, *filters.StartDate)
		argCount++
	}
	if filters.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("m.movement_date <= $%d", argCount))
		args = append(args, *filters.EndDate)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY m.movement_date DESC, m.id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting inventory movements: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var mv models.InventoryMovement
		var ingredientName string
		var lotCode sql.NullString

		if err := rows.Scan(
			&mv.ID, &mv.IngredientID, &mv.LotID, &mv.Direction, &mv.Quantity, &mv.Unit, &mv.Cause,
			&mv.MovementDate, &mv.CreatedAt,
			&ingredientName,
			&lotCode,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning inventory movement: %v", ErrDatabaseError, err)
		}

		mv.Ingredient = &models.Ingredient{ID: mv.IngredientID, Name: ingredientName}
		if mv.LotID != nil && lotCode.Valid {
			mv.Lot = &models.IngredientLot{ID: *mv.LotID, LotCode: lotCode.String}
		}
		movements = append(movements, mv)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating inventory movements: %v", ErrDatabaseError, err)
	}
	return movements, totalCount, nil
}
