package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gelateria_backend/internal/models"

	"github.com/shopspring/decimal"
)

// BatchFilters narrows listing of production batches.
type BatchFilters struct {
	ProductID  *int64
	TemplateID *int64
	StartDate  *time.Time
	EndDate    *time.Time
}

// ProductionRepository defines the interface for production batch database operations.
type ProductionRepository interface {
	CreateBatch(executor SQLExecutor, batch *models.ProductionBatch) (int64, error)
	GetBatchByID(id int64) (*models.ProductionBatch, error)
	GetBatches(filters BatchFilters, page, pageSize int) ([]models.ProductionBatch, int, error)
	// FreezeBatchCosts writes the computed totals exactly once. The guard on
	// cost_frozen keeps an already-frozen batch immutable even if the call is
	// repeated.
	FreezeBatchCosts(executor SQLExecutor, batchID int64, total, unitCost decimal.Decimal) error
	DeleteBatch(executor SQLExecutor, id int64) error
	CreateBatchDetail(executor SQLExecutor, detail *models.ProductionBatchDetail) (int64, error)
	GetBatchDetails(batchID int64) ([]models.ProductionBatchDetail, error)
	// CountBatchesForTemplateOnDay reports how many batches a template has
	// already generated with a production timestamp inside the given calendar
	// day. This is the template idempotency key.
	CountBatchesForTemplateOnDay(templateID int64, day time.Time) (int, error)
	GetIncompleteBatches() ([]models.ProductionBatch, error)
}

type productionRepository struct {
	db *sql.DB
}

// NewProductionRepository creates a new instance of ProductionRepository.
func NewProductionRepository(db *sql.DB) ProductionRepository {
	return &productionRepository{db: db}
}

func (r *productionRepository) CreateBatch(executor SQLExecutor, batch *models.ProductionBatch) (int64, error) {
	query := `INSERT INTO production_batches
	          (product_id, recipe_id, production_date, produced_quantity, yield_unit,
	           total_cost, unit_cost, cost_frozen, generated_from_template, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, 0, 0, FALSE, $6, $7, $8, $9)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRow(query,
		batch.ProductID, batch.RecipeID, batch.ProductionDate, batch.ProducedQuantity, batch.YieldUnit,
		batch.GeneratedFromTemplate, batch.Notes, currentTime, currentTime,
	).Scan(&batch.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating production batch: %v", ErrDatabaseError, err)
	}
	batch.TotalCost = decimal.Zero
	batch.UnitCost = decimal.Zero
	batch.CostFrozen = false
	return batch.ID, nil
}

const batchSelect = `SELECT b.id, b.product_id, b.recipe_id, b.production_date, b.produced_quantity,
	    b.yield_unit, b.total_cost, b.unit_cost, b.cost_frozen, b.generated_from_template,
	    b.notes, b.created_at, b.updated_at,
	    p.name, p.sale_unit
	  FROM production_batches b
	  JOIN products p ON b.product_id = p.id`

func (r *productionRepository) GetBatchByID(id int64) (*models.ProductionBatch, error) {
	batch := &models.ProductionBatch{}
	var productName, saleUnit string
	err := r.db.QueryRow(batchSelect+` WHERE b.id = $1`, id).Scan(
		&batch.ID, &batch.ProductID, &batch.RecipeID, &batch.ProductionDate, &batch.ProducedQuantity,
		&batch.YieldUnit, &batch.TotalCost, &batch.UnitCost, &batch.CostFrozen, &batch.GeneratedFromTemplate,
		&batch.Notes, &batch.CreatedAt, &batch.UpdatedAt,
		&productName, &saleUnit,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting production batch by ID %d: %v", ErrDatabaseError, id, err)
	}
	batch.Product = &models.Product{ID: batch.ProductID, Name: productName, SaleUnit: saleUnit}
	return batch, nil
}

func (r *productionRepository) GetBatches(filters BatchFilters, page, pageSize int) ([]models.ProductionBatch, int, error) {
	batches := []models.ProductionBatch{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT b.id, b.product_id, b.recipe_id, b.production_date, b.produced_quantity,
	    b.yield_unit, b.total_cost, b.unit_cost, b.cost_frozen, b.generated_from_template,
	    b.notes, b.created_at, b.updated_at,
	    p.name, p.sale_unit,
	    COUNT(*) OVER() AS total_count
	  FROM production_batches b
	  JOIN products p ON b.product_id = p.id`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.ProductID != nil {
		conditions = append(conditions, fmt.Sprintf("b.product_id = $%d", argCount))
		args = append(args, *filters.ProductID)
		argCount++
	}
	if filters.TemplateID != nil {
		conditions = append(conditions, fmt.Sprintf("b.generated_from_template = $%d", argCount))
		args = append(args, *filters.TemplateID)
		argCount++
	}
	if filters.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("b.production_date >= $%d", argCount))
		args = append(args, *filters.StartDate)
		argCount++
	}
	if filters.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("b.production_date <= $%d", argCount))
		args = append(args, *filters.EndDate)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY b.production_date DESC, b.id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting production batches: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var batch models.ProductionBatch
		var productName, saleUnit string
		if err := rows.Scan(
			&batch.ID, &batch.ProductID, &batch.RecipeID, &batch.ProductionDate, &batch.ProducedQuantity,
			&batch.YieldUnit, &batch.TotalCost, &batch.UnitCost, &batch.CostFrozen, &batch.GeneratedFromTemplate,
			&batch.Notes, &batch.CreatedAt, &batch.UpdatedAt,
			&productName, &saleUnit,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning production batch: %v", ErrDatabaseError, err)
		}
		batch.Product = &models.Product{ID: batch.ProductID, Name: productName, SaleUnit: saleUnit}
		batches = append(batches, batch)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating production batches: %v", ErrDatabaseError, err)
	}
	return batches, totalCount, nil
}

func (r *productionRepository) FreezeBatchCosts(executor SQLExecutor, batchID int64, total, unitCost decimal.Decimal) error {
	query := `UPDATE production_batches
	          SET total_cost = $2, unit_cost = $3, cost_frozen = TRUE, updated_at = $4
	          WHERE id = $1 AND cost_frozen = FALSE`
	result, err := executor.Exec(query, batchID, total, unitCost, time.Now())
	if err != nil {
		return fmt.Errorf("%w: freezing costs for batch ID %d: %v", ErrDatabaseError, batchID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productionRepository) DeleteBatch(executor SQLExecutor, id int64) error {
	if _, err := executor.Exec(`DELETE FROM production_batch_details WHERE batch_id = $1`, id); err != nil {
		return fmt.Errorf("%w: deleting details for batch ID %d: %v", ErrDatabaseError, id, err)
	}
	result, err := executor.Exec(`DELETE FROM production_batches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting production batch ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productionRepository) CreateBatchDetail(executor SQLExecutor, detail *models.ProductionBatchDetail) (int64, error) {
	query := `INSERT INTO production_batch_details
	          (batch_id, ingredient_id, lot_id, quantity_used, unit, frozen_price, price_known, line_cost, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	err := executor.QueryRow(query,
		detail.BatchID, detail.IngredientID, detail.LotID, detail.QuantityUsed, detail.Unit,
		detail.FrozenPrice, detail.PriceKnown, detail.LineCost, time.Now(),
	).Scan(&detail.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating batch detail: %v", ErrDatabaseError, err)
	}
	return detail.ID, nil
}

func (r *productionRepository) GetBatchDetails(batchID int64) ([]models.ProductionBatchDetail, error) {
	query := `SELECT d.id, d.batch_id, d.ingredient_id, d.lot_id, d.quantity_used, d.unit,
	            d.frozen_price, d.price_known, d.line_cost, d.created_at,
	            i.name, l.lot_code
	          FROM production_batch_details d
	          JOIN ingredients i ON d.ingredient_id = i.id
	          LEFT JOIN ingredient_lots l ON d.lot_id = l.id
	          WHERE d.batch_id = $1
	          ORDER BY d.id`
	rows, err := r.db.Query(query, batchID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting details for batch %d: %v", ErrDatabaseError, batchID, err)
	}
	defer rows.Close()

	details := []models.ProductionBatchDetail{}
	for rows.Next() {
		var d models.ProductionBatchDetail
		var ingName string
		var lotCode sql.NullString
		if err := rows.Scan(
			&d.ID, &d.BatchID, &d.IngredientID, &d.LotID, &d.QuantityUsed, &d.Unit,
			&d.FrozenPrice, &d.PriceKnown, &d.LineCost, &d.CreatedAt,
			&ingName, &lotCode,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning batch detail: %v", ErrDatabaseError, err)
		}
		d.Ingredient = &models.Ingredient{ID: d.IngredientID, Name: ingName}
		if d.LotID != nil && lotCode.Valid {
			d.Lot = &models.IngredientLot{ID: *d.LotID, LotCode: lotCode.String}
		}
		details = append(details, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating batch details: %v", ErrDatabaseError, err)
	}
	return details, nil
}

func (r *productionRepository) CountBatchesForTemplateOnDay(templateID int64, day time.Time) (int, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var count int
	query := `SELECT COUNT(*) FROM production_batches
	          WHERE generated_from_template = $1
	            AND production_date >= $2 AND production_date < $3`
	err := r.db.QueryRow(query, templateID, dayStart, dayEnd).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting batches for template %d on %s: %v", ErrDatabaseError, templateID, day.Format("2006-01-02"), err)
	}
	return count, nil
}

// GetIncompleteBatches lists batches whose line processing started but whose
// costs were never frozen. These need manual reconciliation.
func (r *productionRepository) GetIncompleteBatches() ([]models.ProductionBatch, error) {
	rows, err := r.db.Query(batchSelect + ` WHERE b.cost_frozen = FALSE ORDER BY b.production_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: getting incomplete batches: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	batches := []models.ProductionBatch{}
	for rows.Next() {
		var batch models.ProductionBatch
		var productName, saleUnit string
		if err := rows.Scan(
			&batch.ID, &batch.ProductID, &batch.RecipeID, &batch.ProductionDate, &batch.ProducedQuantity,
			&batch.YieldUnit, &batch.TotalCost, &batch.UnitCost, &batch.CostFrozen, &batch.GeneratedFromTemplate,
			&batch.Notes, &batch.CreatedAt, &batch.UpdatedAt,
			&productName, &saleUnit,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning incomplete batch: %v", ErrDatabaseError, err)
		}
		batch.Product = &models.Product{ID: batch.ProductID, Name: productName, SaleUnit: saleUnit}
		batches = append(batches, batch)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating incomplete batches: %v", ErrDatabaseError, err)
	}
	return batches, nil
}
