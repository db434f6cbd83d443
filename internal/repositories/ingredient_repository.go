package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gelateria_backend/internal/models"
)

// IngredientRepository defines the interface for ingredient catalog database operations.
type IngredientRepository interface {
	CreateIngredient(executor SQLExecutor, ing *models.Ingredient) (int64, error)
	GetIngredientByID(id int64) (*models.Ingredient, error)
	GetIngredients(category *string, search *string, page, pageSize int) ([]models.Ingredient, int, error)
	UpdateIngredient(executor SQLExecutor, ing *models.Ingredient) error
	DeleteIngredient(executor SQLExecutor, id int64) error
	GetStockLevels() ([]models.StockLevel, error)
}

type ingredientRepository struct {
	db *sql.DB
}

// NewIngredientRepository creates a new instance of IngredientRepository.
func NewIngredientRepository(db *sql.DB) IngredientRepository {
	return &ingredientRepository{db: db}
}

const ingredientColumns = `id, name, category, default_supplier, unit, storage_mode,
	allergens, min_stock_threshold, photo_url, notes, created_at, updated_at`

func scanIngredient(row interface{ Scan(...interface{}) error }, ing *models.Ingredient) error {
	return row.Scan(
		&ing.ID, &ing.Name, &ing.Category, &ing.DefaultSupplier, &ing.Unit, &ing.StorageMode,
		&ing.Allergens, &ing.MinStockThreshold, &ing.PhotoURL, &ing.Notes, &ing.CreatedAt, &ing.UpdatedAt,
	)
}

func (r *ingredientRepository) CreateIngredient(executor SQLExecutor, ing *models.Ingredient) (int64, error) {
	query := `INSERT INTO ingredients
	          (name, category, default_supplier, unit, storage_mode, allergens, min_stock_threshold, photo_url, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING id`
	currentTime := time.Now()
	if ing.StorageMode == "" {
		ing.StorageMode = models.StorageAmbient
	}
	err := executor.QueryRow(query,
		ing.Name, ing.Category, ing.DefaultSupplier, ing.Unit, ing.StorageMode,
		ing.Allergens, ing.MinStockThreshold, ing.PhotoURL, ing.Notes, currentTime, currentTime,
	).Scan(&ing.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating ingredient: %v", ErrDatabaseError, err)
	}
	return ing.ID, nil
}

func (r *ingredientRepository) GetIngredientByID(id int64) (*models.Ingredient, error) {
	ing := &models.Ingredient{}
	query := `SELECT ` + ingredientColumns + ` FROM ingredients WHERE id = $1`
	err := scanIngredient(r.db.QueryRow(query, id), ing)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting ingredient by ID %d: %v", ErrDatabaseError, id, err)
	}
	return ing, nil
}

func (r *ingredientRepository) GetIngredients(category *string, search *string, page, pageSize int) ([]models.Ingredient, int, error) {
	ingredients := []models.Ingredient{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + ingredientColumns + `, COUNT(*) OVER() AS total_count FROM ingredients`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if category != nil && *category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argCount))
		args = append(args, *category)
		argCount++
	}
	if search != nil && *search != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argCount))
		args = append(args, "%"+*search+"%")
		argCount++
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY name")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting ingredients: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var ing models.Ingredient
		if err := rows.Scan(
			&ing.ID, &ing.Name, &ing.Category, &ing.DefaultSupplier, &ing.Unit, &ing.StorageMode,
			&ing.Allergens, &ing.MinStockThreshold, &ing.PhotoURL, &ing.Notes, &ing.CreatedAt, &ing.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning ingredient: %v", ErrDatabaseError, err)
		}
		ingredients = append(ingredients, ing)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating ingredients: %v", ErrDatabaseError, err)
	}
	return ingredients, totalCount, nil
}

func (r *ingredientRepository) UpdateIngredient(executor SQLExecutor, ing *models.Ingredient) error {
	query := `UPDATE ingredients SET
	            name = $1, category = $2, default_supplier = $3, unit = $4, storage_mode = $5,
	            allergens = $6, min_stock_threshold = $7, photo_url = $8, notes = $9, updated_at = $10
	          WHERE id = $11`
	result, err := executor.Exec(query,
		ing.Name, ing.Category, ing.DefaultSupplier, ing.Unit, ing.StorageMode,
		ing.Allergens, ing.MinStockThreshold, ing.PhotoURL, ing.Notes, time.Now(), ing.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating ingredient ID %d: %v", ErrDatabaseError, ing.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ingredientRepository) DeleteIngredient(executor SQLExecutor, id int64) error {
	// Refuse deletion while recipes or lots still reference the ingredient.
	var count int
	checkQuery := `SELECT (SELECT COUNT(*) FROM recipe_ingredients WHERE ingredient_id = $1)
	             + (SELECT COUNT(*) FROM ingredient_lots WHERE ingredient_id = $1)`
	if err := r.db.QueryRow(checkQuery, id).Scan(&count); err != nil {
		return fmt.Errorf("%w: checking ingredient references for ID %d: %v", ErrDatabaseError, id, err)
	}
	if count > 0 {
		return fmt.Errorf("%w: ingredient is referenced by recipes or lots", ErrDuplicateKey)
	}

	result, err := executor.Exec(`DELETE FROM ingredients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting ingredient ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetStockLevels computes on-hand quantities as the signed sum of each
// ingredient's inventory movements.
func (r *ingredientRepository) GetStockLevels() ([]models.StockLevel, error) {
	query := `SELECT i.id, i.name, i.unit, i.min_stock_threshold,
	            COALESCE(SUM(CASE WHEN m.direction = 'inbound' THEN m.quantity
	                              WHEN m.direction = 'outbound' THEN -m.quantity
	                              ELSE 0 END), 0) AS on_hand
	          FROM ingredients i
	          LEFT JOIN inventory_movements m ON m.ingredient_id = i.id
	          GROUP BY i.id, i.name, i.unit, i.min_stock_threshold
	          ORDER BY i.name`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: getting stock levels: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	levels := []models.StockLevel{}
	for rows.Next() {
		var lvl models.StockLevel
		if err := rows.Scan(&lvl.IngredientID, &lvl.IngredientName, &lvl.Unit, &lvl.MinStockThreshold, &lvl.OnHand); err != nil {
			return nil, fmt.Errorf("%w: scanning stock level: %v", ErrDatabaseError, err)
		}
		lvl.BelowThreshold = lvl.MinStockThreshold != nil && lvl.OnHand < *lvl.MinStockThreshold
		levels = append(levels, lvl)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating stock levels: %v", ErrDatabaseError, err)
	}
	return levels, nil
}
