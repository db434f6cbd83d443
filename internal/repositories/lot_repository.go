package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gelateria_backend/internal/models"
)

// LotRepository defines the interface for ingredient lot database operations.
type LotRepository interface {
	CreateLot(executor SQLExecutor, lot *models.IngredientLot) (int64, error)
	GetLotByID(id int64) (*models.IngredientLot, error)
	GetLots(ingredientID *int64, onlyAvailable bool, page, pageSize int) ([]models.IngredientLot, int, error)
	GetAvailableLotsFEFO(ingredientID int64) ([]models.IngredientLot, error)
	UpdateLot(executor SQLExecutor, lot *models.IngredientLot) error
	DeleteLot(executor SQLExecutor, id int64) error
	// AdjustQuantity applies a signed delta to current_quantity as a single
	// conditional UPDATE: the row is only changed when the resulting quantity
	// stays within [0, initial_quantity]. A negative delta that would drive
	// the lot below zero affects no rows and yields ErrInsufficientStock, so
	// concurrent deductions cannot both succeed on the same remaining stock.
	AdjustQuantity(executor SQLExecutor, lotID int64, delta float64) (*models.IngredientLot, error)
}

type lotRepository struct {
	db *sql.DB
}

// NewLotRepository creates a new instance of LotRepository.
func NewLotRepository(db *sql.DB) LotRepository {
	return &lotRepository{db: db}
}

const lotColumns = `l.id, l.ingredient_id, l.lot_code, l.supplier, l.delivery_date, l.expiry_date,
	l.initial_quantity, l.current_quantity, l.unit, l.storage_mode, l.label_photo_url, l.notes,
	l.created_at, l.updated_at`

func (r *lotRepository) CreateLot(executor SQLExecutor, lot *models.IngredientLot) (int64, error) {
	query := `INSERT INTO ingredient_lots
	          (ingredient_id, lot_code, supplier, delivery_date, expiry_date, initial_quantity, current_quantity,
	           unit, storage_mode, label_photo_url, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRow(query,
		lot.IngredientID, lot.LotCode, lot.Supplier, lot.DeliveryDate, lot.ExpiryDate,
		lot.InitialQuantity, lot.CurrentQuantity, lot.Unit, lot.StorageMode,
		lot.LabelPhotoURL, lot.Notes, currentTime, currentTime,
	).Scan(&lot.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating ingredient lot: %v", ErrDatabaseError, err)
	}
	return lot.ID, nil
}

func (r *lotRepository) GetLotByID(id int64) (*models.IngredientLot, error) {
	lot := &models.IngredientLot{}
	var ingName, ingUnit string
	query := `SELECT ` + lotColumns + `, i.name, i.unit
	          FROM ingredient_lots l
	          JOIN ingredients i ON l.ingredient_id = i.id
	          WHERE l.id = $1`
	err := r.db.QueryRow(query, id).Scan(
		&lot.ID, &lot.IngredientID, &lot.LotCode, &lot.Supplier, &lot.DeliveryDate, &lot.ExpiryDate,
		&lot.InitialQuantity, &lot.CurrentQuantity, &lot.Unit, &lot.StorageMode, &lot.LabelPhotoURL, &lot.Notes,
		&lot.CreatedAt, &lot.UpdatedAt, &ingName, &ingUnit,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting lot by ID %d: %v", ErrDatabaseError, id, err)
	}
	lot.Ingredient = &models.Ingredient{ID: lot.IngredientID, Name: ingName, Unit: ingUnit}
	return lot, nil
}

func (r *lotRepository) GetLots(ingredientID *int64, onlyAvailable bool, page, pageSize int) ([]models.IngredientLot, int, error) {
	lots := []models.IngredientLot{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + lotColumns + `, i.name, i.unit, COUNT(*) OVER() AS total_count
	  FROM ingredient_lots l
	  JOIN ingredients i ON l.ingredient_id = i.id`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if ingredientID != nil {
		conditions = append(conditions, fmt.Sprintf("l.ingredient_id = $%d", argCount))
		args = append(args, *ingredientID)
		argCount++
	}
	if onlyAvailable {
		conditions = append(conditions, "l.current_quantity > 0")
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY l.expiry_date ASC NULLS LAST, l.id")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting lots: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var lot models.IngredientLot
		var ingName, ingUnit string
		if err := rows.Scan(
			&lot.ID, &lot.IngredientID, &lot.LotCode, &lot.Supplier, &lot.DeliveryDate, &lot.ExpiryDate,
			&lot.InitialQuantity, &lot.CurrentQuantity, &lot.Unit, &lot.StorageMode, &lot.LabelPhotoURL, &lot.Notes,
			&lot.CreatedAt, &lot.UpdatedAt, &ingName, &ingUnit,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning lot: %v", ErrDatabaseError, err)
		}
		lot.Ingredient = &models.Ingredient{ID: lot.IngredientID, Name: ingName, Unit: ingUnit}
		lots = append(lots, lot)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating lots: %v", ErrDatabaseError, err)
	}
	return lots, totalCount, nil
}

// GetAvailableLotsFEFO returns an ingredient's lots with stock remaining,
// earliest expiry first. Used to propose a lot to the operator; the choice is
// never applied silently.
func (r *lotRepository) GetAvailableLotsFEFO(ingredientID int64) ([]models.IngredientLot, error) {
	query := `SELECT ` + lotColumns + `
	          FROM ingredient_lots l
	          WHERE l.ingredient_id = $1 AND l.current_quantity > 0
	          ORDER BY l.expiry_date ASC NULLS LAST, l.id`
	rows, err := r.db.Query(query, ingredientID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting available lots for ingredient %d: %v", ErrDatabaseError, ingredientID, err)
	}
	defer rows.Close()

	lots := []models.IngredientLot{}
	for rows.Next() {
		var lot models.IngredientLot
		if err := rows.Scan(
			&lot.ID, &lot.IngredientID, &lot.LotCode, &lot.Supplier, &lot.DeliveryDate, &lot.ExpiryDate,
			&lot.InitialQuantity, &lot.CurrentQuantity, &lot.Unit, &lot.StorageMode, &lot.LabelPhotoURL, &lot.Notes,
			&lot.CreatedAt, &lot.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning available lot: %v", ErrDatabaseError, err)
		}
		lots = append(lots, lot)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating available lots: %v", ErrDatabaseError, err)
	}
	return lots, nil
}

// UpdateLot updates descriptive lot fields. Quantity changes go through
// AdjustQuantity only, so they always carry a paired movement.
func (r *lotRepository) UpdateLot(executor SQLExecutor, lot *models.IngredientLot) error {
	query := `UPDATE ingredient_lots SET
	            lot_code = $1, supplier = $2, delivery_date = $3, expiry_date = $4,
	            unit = $5, storage_mode = $6, label_photo_url = $7, notes = $8, updated_at = $9
	          WHERE id = $10`
	result, err := executor.Exec(query,
		lot.LotCode, lot.Supplier, lot.DeliveryDate, lot.ExpiryDate,
		lot.Unit, lot.StorageMode, lot.LabelPhotoURL, lot.Notes, time.Now(), lot.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating lot ID %d: %v", ErrDatabaseError, lot.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *lotRepository) DeleteLot(executor SQLExecutor, id int64) error {
	var count int
	checkQuery := `SELECT COUNT(*) FROM production_batch_details WHERE lot_id = $1`
	if err := r.db.QueryRow(checkQuery, id).Scan(&count); err != nil {
		return fmt.Errorf("%w: checking lot references for ID %d: %v", ErrDatabaseError, id, err)
	}
	if count > 0 {
		return fmt.Errorf("%w: lot is referenced by production batches", ErrDuplicateKey)
	}

	result, err := executor.Exec(`DELETE FROM ingredient_lots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting lot ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *lotRepository) AdjustQuantity(executor SQLExecutor, lotID int64, delta float64) (*models.IngredientLot, error) {
	lot := &models.IngredientLot{}
	query := `UPDATE ingredient_lots
	          SET current_quantity = current_quantity + $2, updated_at = $3
	          WHERE id = $1
	            AND current_quantity + $2 >= 0
	            AND current_quantity + $2 <= initial_quantity
	          RETURNING id, ingredient_id, lot_code, supplier, delivery_date, expiry_date,
	                    initial_quantity, current_quantity, unit, storage_mode, label_photo_url, notes,
	                    created_at, updated_at`
	err := executor.QueryRow(query, lotID, delta, time.Now()).Scan(
		&lot.ID, &lot.IngredientID, &lot.LotCode, &lot.Supplier, &lot.DeliveryDate, &lot.ExpiryDate,
		&lot.InitialQuantity, &lot.CurrentQuantity, &lot.Unit, &lot.StorageMode, &lot.LabelPhotoURL, &lot.Notes,
		&lot.CreatedAt, &lot.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// The guard predicate rejected the update: distinguish a missing
			// lot from an out-of-range quantity.
			var exists bool
			if checkErr := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM ingredient_lots WHERE id = $1)`, lotID).Scan(&exists); checkErr != nil {
				return nil, fmt.Errorf("%w: checking lot existence for ID %d: %v", ErrDatabaseError, lotID, checkErr)
			}
			if !exists {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("%w: lot ID %d, delta %.3f", ErrInsufficientStock, lotID, delta)
		}
		return nil, fmt.Errorf("%w: adjusting quantity for lot ID %d: %v", ErrDatabaseError, lotID, err)
	}
	return lot, nil
}
