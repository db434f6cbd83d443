package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gelateria_backend/internal/models"
)

// RecipeRepository defines the interface for recipe database operations.
type RecipeRepository interface {
	CreateRecipe(executor SQLExecutor, recipe *models.Recipe) (int64, error)
	GetRecipeByID(id int64) (*models.Recipe, error)
	GetRecipeByProduct(productID int64) (*models.Recipe, error)
	GetRecipes(page, pageSize int) ([]models.Recipe, int, error)
	UpdateRecipe(executor SQLExecutor, recipe *models.Recipe) error
	DeleteRecipe(executor SQLExecutor, id int64) error
	GetRecipeIngredients(recipeID int64) ([]models.RecipeIngredient, error)
	// ReplaceIngredients swaps the full ingredient line set of a recipe.
	// Callers wrap this in a transaction so readers never observe the
	// transient empty-line window between delete and re-insert.
	ReplaceIngredients(executor SQLExecutor, recipeID int64, lines []models.RecipeIngredient) error
}

type recipeRepository struct {
	db *sql.DB
}

// NewRecipeRepository creates a new instance of RecipeRepository.
func NewRecipeRepository(db *sql.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func (r *recipeRepository) CreateRecipe(executor SQLExecutor, recipe *models.Recipe) (int64, error) {
	query := `INSERT INTO recipes (product_id, nominal_yield, yield_unit, overhead_percent, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRow(query,
		recipe.ProductID, recipe.NominalYield, recipe.YieldUnit, recipe.OverheadPercent, recipe.Notes,
		currentTime, currentTime,
	).Scan(&recipe.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating recipe: %v", ErrDatabaseError, err)
	}
	return recipe.ID, nil
}

func (r *recipeRepository) scanRecipeRow(row interface{ Scan(...interface{}) error }) (*models.Recipe, error) {
	recipe := &models.Recipe{}
	var productName, saleUnit string
	err := row.Scan(
		&recipe.ID, &recipe.ProductID, &recipe.NominalYield, &recipe.YieldUnit,
		&recipe.OverheadPercent, &recipe.Notes, &recipe.CreatedAt, &recipe.UpdatedAt,
		&productName, &saleUnit,
	)
	if err != nil {
		return nil, err
	}
	recipe.Product = &models.Product{ID: recipe.ProductID, Name: productName, SaleUnit: saleUnit}
	return recipe, nil
}

const recipeSelect = `SELECT r.id, r.product_id, r.nominal_yield, r.yield_unit,
	    r.overhead_percent, r.notes, r.created_at, r.updated_at,
	    p.name, p.sale_unit
	  FROM recipes r
	  JOIN products p ON r.product_id = p.id`

func (r *recipeRepository) GetRecipeByID(id int64) (*models.Recipe, error) {
	recipe, err := r.scanRecipeRow(r.db.QueryRow(recipeSelect+` WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting recipe by ID %d: %v", ErrDatabaseError, id, err)
	}

	lines, err := r.GetRecipeIngredients(id)
	if err != nil {
		return nil, err
	}
	recipe.Ingredients = lines
	return recipe, nil
}

func (r *recipeRepository) GetRecipeByProduct(productID int64) (*models.Recipe, error) {
	recipe, err := r.scanRecipeRow(r.db.QueryRow(recipeSelect+` WHERE r.product_id = $1 ORDER BY r.id LIMIT 1`, productID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting recipe for product %d: %v", ErrDatabaseError, productID, err)
	}

	lines, err := r.GetRecipeIngredients(recipe.ID)
	if err != nil {
		return nil, err
	}
	recipe.Ingredients = lines
	return recipe, nil
}

func (r *recipeRepository) GetRecipes(page, pageSize int) ([]models.Recipe, int, error) {
	recipes := []models.Recipe{}
	totalCount := 0
	query := `SELECT r.id, r.product_id, r.nominal_yield, r.yield_unit,
	            r.overhead_percent, r.notes, r.created_at, r.updated_at,
	            p.name, p.sale_unit,
	            COUNT(*) OVER() AS total_count
	          FROM recipes r
	          JOIN products p ON r.product_id = p.id
	          ORDER BY p.name
	          LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting recipes: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var recipe models.Recipe
		var productName, saleUnit string
		if err := rows.Scan(
			&recipe.ID, &recipe.ProductID, &recipe.NominalYield, &recipe.YieldUnit,
			&recipe.OverheadPercent, &recipe.Notes, &recipe.CreatedAt, &recipe.UpdatedAt,
			&productName, &saleUnit,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning recipe: %v", ErrDatabaseError, err)
		}
		recipe.Product = &models.Product{ID: recipe.ProductID, Name: productName, SaleUnit: saleUnit}
		recipes = append(recipes, recipe)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating recipes: %v", ErrDatabaseError, err)
	}
	return recipes, totalCount, nil
}

func (r *recipeRepository) UpdateRecipe(executor SQLExecutor, recipe *models.Recipe) error {
	query := `UPDATE recipes SET product_id = $1, nominal_yield = $2, yield_unit = $3,
	            overhead_percent = $4, notes = $5, updated_at = $6
	          WHERE id = $7`
	result, err := executor.Exec(query,
		recipe.ProductID, recipe.NominalYield, recipe.YieldUnit,
		recipe.OverheadPercent, recipe.Notes, time.Now(), recipe.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating recipe ID %d: %v", ErrDatabaseError, recipe.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *recipeRepository) DeleteRecipe(executor SQLExecutor, id int64) error {
	var count int
	checkQuery := `SELECT COUNT(*) FROM production_batches WHERE recipe_id = $1`
	if err := r.db.QueryRow(checkQuery, id).Scan(&count); err != nil {
		return fmt.Errorf("%w: checking recipe references for ID %d: %v", ErrDatabaseError, id, err)
	}
	if count > 0 {
		return fmt.Errorf("%w: recipe is referenced by production batches", ErrDuplicateKey)
	}

	if _, err := executor.Exec(`DELETE FROM recipe_ingredients WHERE recipe_id = $1`, id); err != nil {
		return fmt.Errorf("%w: deleting recipe ingredients for recipe ID %d: %v", ErrDatabaseError, id, err)
	}
	result, err := executor.Exec(`DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting recipe ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *recipeRepository) GetRecipeIngredients(recipeID int64) ([]models.RecipeIngredient, error) {
	query := `SELECT ri.id, ri.recipe_id, ri.ingredient_id, ri.quantity, ri.unit,
	            i.name, i.unit
	          FROM recipe_ingredients ri
	          JOIN ingredients i ON ri.ingredient_id = i.id
	          WHERE ri.recipe_id = $1
	          ORDER BY ri.id`
	rows, err := r.db.Query(query, recipeID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting recipe ingredients for recipe %d: %v", ErrDatabaseError, recipeID, err)
	}
	defer rows.Close()

	lines := []models.RecipeIngredient{}
	for rows.Next() {
		var line models.RecipeIngredient
		var ingName, ingUnit string
		if err := rows.Scan(&line.ID, &line.RecipeID, &line.IngredientID, &line.Quantity, &line.Unit, &ingName, &ingUnit); err != nil {
			return nil, fmt.Errorf("%w: scanning recipe ingredient: %v", ErrDatabaseError, err)
		}
		line.Ingredient = &models.Ingredient{ID: line.IngredientID, Name: ingName, Unit: ingUnit}
		lines = append(lines, line)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating recipe ingredients: %v", ErrDatabaseError, err)
	}
	return lines, nil
}

func (r *recipeRepository) ReplaceIngredients(executor SQLExecutor, recipeID int64, lines []models.RecipeIngredient) error {
	if _, err := executor.Exec(`DELETE FROM recipe_ingredients WHERE recipe_id = $1`, recipeID); err != nil {
		return fmt.Errorf("%w: clearing recipe ingredients for recipe %d: %v", ErrDatabaseError, recipeID, err)
	}
	insertQuery := `INSERT INTO recipe_ingredients (recipe_id, ingredient_id, quantity, unit)
	                VALUES ($1, $2, $3, $4)`
	for _, line := range lines {
		if _, err := executor.Exec(insertQuery, recipeID, line.IngredientID, line.Quantity, line.Unit); err != nil {
			return fmt.Errorf("%w: inserting recipe ingredient (ingredient %d): %v", ErrDatabaseError, line.IngredientID, err)
		}
	}
	return nil
}
