package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gelateria_backend/internal/models"
)

// TemplateRepository defines the interface for production template database operations.
type TemplateRepository interface {
	CreateTemplate(executor SQLExecutor, tpl *models.ProductionTemplate) (int64, error)
	GetTemplateByID(id int64) (*models.ProductionTemplate, error)
	GetTemplates(page, pageSize int) ([]models.ProductionTemplate, int, error)
	UpdateTemplate(executor SQLExecutor, tpl *models.ProductionTemplate) error
	DeleteTemplate(executor SQLExecutor, id int64) error
	// ReplaceLines swaps a template's full line set, including per-line
	// ingredient lot selections. Wrapped in a transaction by callers.
	ReplaceLines(executor SQLExecutor, templateID int64, lines []models.TemplateLine) error
	GetTemplateLines(templateID int64) ([]models.TemplateLine, error)
}

type templateRepository struct {
	db *sql.DB
}

// NewTemplateRepository creates a new instance of TemplateRepository.
func NewTemplateRepository(db *sql.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) CreateTemplate(executor SQLExecutor, tpl *models.ProductionTemplate) (int64, error) {
	query := `INSERT INTO production_templates (name, description, created_at, updated_at)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRow(query, tpl.Name, tpl.Description, currentTime, currentTime).Scan(&tpl.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating production template: %v", ErrDatabaseError, err)
	}
	return tpl.ID, nil
}

func (r *templateRepository) GetTemplateByID(id int64) (*models.ProductionTemplate, error) {
	tpl := &models.ProductionTemplate{}
	query := `SELECT id, name, description, created_at, updated_at
	          FROM production_templates WHERE id = $1`
	err := r.db.QueryRow(query, id).Scan(&tpl.ID, &tpl.Name, &tpl.Description, &tpl.CreatedAt, &tpl.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting template by ID %d: %v", ErrDatabaseError, id, err)
	}

	lines, err := r.GetTemplateLines(id)
	if err != nil {
		return nil, err
	}
	tpl.Lines = lines
	return tpl, nil
}

func (r *templateRepository) GetTemplates(page, pageSize int) ([]models.ProductionTemplate, int, error) {
	templates := []models.ProductionTemplate{}
	totalCount := 0
	query := `SELECT id, name, description, created_at, updated_at,
	            COUNT(*) OVER() AS total_count
	          FROM production_templates
	          ORDER BY name
	          LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting templates: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var tpl models.ProductionTemplate
		if err := rows.Scan(&tpl.ID, &tpl.Name, &tpl.Description, &tpl.CreatedAt, &tpl.UpdatedAt, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning template: %v", ErrDatabaseError, err)
		}
		templates = append(templates, tpl)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating templates: %v", ErrDatabaseError, err)
	}
	return templates, totalCount, nil
}

func (r *templateRepository) UpdateTemplate(executor SQLExecutor, tpl *models.ProductionTemplate) error {
	query := `UPDATE production_templates SET name = $1, description = $2, updated_at = $3 WHERE id = $4`
	result, err := executor.Exec(query, tpl.Name, tpl.Description, time.Now(), tpl.ID)
	if err != nil {
		return fmt.Errorf("%w: updating template ID %d: %v", ErrDatabaseError, tpl.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTemplate removes a template and its lines. Batches generated from the
// template keep their generated_from_template reference as a historical fact;
// the column is not a foreign key for that reason.
func (r *templateRepository) DeleteTemplate(executor SQLExecutor, id int64) error {
	if _, err := executor.Exec(
		`DELETE FROM template_line_ingredients
		 WHERE template_line_id IN (SELECT id FROM template_lines WHERE template_id = $1)`, id); err != nil {
		return fmt.Errorf("%w: deleting template line ingredients for template ID %d: %v", ErrDatabaseError, id, err)
	}
	if _, err := executor.Exec(`DELETE FROM template_lines WHERE template_id = $1`, id); err != nil {
		return fmt.Errorf("%w: deleting template lines for template ID %d: %v", ErrDatabaseError, id, err)
	}
	result, err := executor.Exec(`DELETE FROM production_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting template ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *templateRepository) ReplaceLines(executor SQLExecutor, templateID int64, lines []models.TemplateLine) error {
	if _, err := executor.Exec(
		`DELETE FROM template_line_ingredients
		 WHERE template_line_id IN (SELECT id FROM template_lines WHERE template_id = $1)`, templateID); err != nil {
		return fmt.Errorf("%w: clearing template line ingredients for template %d: %v", ErrDatabaseError, templateID, err)
	}
	if _, err := executor.Exec(`DELETE FROM template_lines WHERE template_id = $1`, templateID); err != nil {
		return fmt.Errorf("%w: clearing template lines for template %d: %v", ErrDatabaseError, templateID, err)
	}

	lineQuery := `INSERT INTO template_lines (template_id, product_id, recipe_id, planned_quantity, unit, notes, created_at)
	              VALUES ($1, $2, $3, $4, $5, $6, $7)
	              RETURNING id`
	ingredientQuery := `INSERT INTO template_line_ingredients (template_line_id, ingredient_id, lot_id, planned_quantity)
	                    VALUES ($1, $2, $3, $4)`
	currentTime := time.Now()
	for _, line := range lines {
		var lineID int64
		err := executor.QueryRow(lineQuery,
			templateID, line.ProductID, line.RecipeID, line.PlannedQuantity, line.Unit, line.Notes, currentTime,
		).Scan(&lineID)
		if err != nil {
			return fmt.Errorf("%w: inserting template line (product %d): %v", ErrDatabaseError, line.ProductID, err)
		}
		for _, ing := range line.Ingredients {
			if _, err := executor.Exec(ingredientQuery, lineID, ing.IngredientID, ing.LotID, ing.PlannedQuantity); err != nil {
				return fmt.Errorf("%w: inserting template line ingredient (ingredient %d): %v", ErrDatabaseError, ing.IngredientID, err)
			}
		}
	}
	return nil
}

func (r *templateRepository) GetTemplateLines(templateID int64) ([]models.TemplateLine, error) {
	query := `SELECT tl.id, tl.template_id, tl.product_id, tl.recipe_id, tl.planned_quantity, tl.unit, tl.notes, tl.created_at,
	            p.name, p.sale_unit
	          FROM template_lines tl
	          JOIN products p ON tl.product_id = p.id
	          WHERE tl.template_id = $1
	          ORDER BY tl.id`
	rows, err := r.db.Query(query, templateID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting template lines for template %d: %v", ErrDatabaseError, templateID, err)
	}
	defer rows.Close()

	lines := []models.TemplateLine{}
	for rows.Next() {
		var line models.TemplateLine
		var productName, saleUnit string
		if err := rows.Scan(
			&line.ID, &line.TemplateID, &line.ProductID, &line.RecipeID, &line.PlannedQuantity,
			&line.Unit, &line.Notes, &line.CreatedAt,
			&productName, &saleUnit,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning template line: %v", ErrDatabaseError, err)
		}
		line.Product = &models.Product{ID: line.ProductID, Name: productName, SaleUnit: saleUnit}
		lines = append(lines, line)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating template lines: %v", ErrDatabaseError, err)
	}

	for i := range lines {
		ingredients, err := r.getLineIngredients(lines[i].ID)
		if err != nil {
			return nil, err
		}
		lines[i].Ingredients = ingredients
	}
	return lines, nil
}

func (r *templateRepository) getLineIngredients(lineID int64) ([]models.TemplateLineIngredient, error) {
	query := `SELECT id, template_line_id, ingredient_id, lot_id, planned_quantity
	          FROM template_line_ingredients
	          WHERE template_line_id = $1
	          ORDER BY id`
	rows, err := r.db.Query(query, lineID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting template line ingredients for line %d: %v", ErrDatabaseError, lineID, err)
	}
	defer rows.Close()

	ingredients := []models.TemplateLineIngredient{}
	for rows.Next() {
		var ing models.TemplateLineIngredient
		if err := rows.Scan(&ing.ID, &ing.TemplateLineID, &ing.IngredientID, &ing.LotID, &ing.PlannedQuantity); err != nil {
			return nil, fmt.Errorf("%w: scanning template line ingredient: %v", ErrDatabaseError, err)
		}
		ingredients = append(ingredients, ing)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating template line ingredients: %v", ErrDatabaseError, err)
	}
	return ingredients, nil
}
