package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductionBatch is one recorded production run. TotalCost and UnitCost are
// computed once while the batch is created and then frozen: later price
// changes never alter them. CostFrozen distinguishes a completed batch from
// one whose line processing was interrupted (the detectable incomplete state).
type ProductionBatch struct {
	ID                    int64                   `json:"id" db:"id"`
	ProductID             int64                   `json:"product_id" db:"product_id"`
	RecipeID              int64                   `json:"recipe_id" db:"recipe_id"`
	ProductionDate        time.Time               `json:"production_date" db:"production_date"`
	ProducedQuantity      float64                 `json:"produced_quantity" db:"produced_quantity"`
	YieldUnit             string                  `json:"yield_unit" db:"yield_unit"`
	TotalCost             decimal.Decimal         `json:"total_cost" db:"total_cost"`
	UnitCost              decimal.Decimal         `json:"unit_cost" db:"unit_cost"`
	CostFrozen            bool                    `json:"cost_frozen" db:"cost_frozen"`
	GeneratedFromTemplate *int64                  `json:"generated_from_template,omitempty" db:"generated_from_template"`
	Notes                 *string                 `json:"notes,omitempty" db:"notes"`
	CreatedAt             time.Time               `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time               `json:"updated_at" db:"updated_at"`
	Product               *Product                `json:"product,omitempty"`
	Details               []ProductionBatchDetail `json:"details,omitempty"`
}

// ProductionBatchDetail is one ingredient line of a batch, written once with
// the price frozen at production time. Never updated.
type ProductionBatchDetail struct {
	ID           int64           `json:"id" db:"id"`
	BatchID      int64           `json:"batch_id" db:"batch_id"`
	IngredientID int64           `json:"ingredient_id" db:"ingredient_id"`
	LotID        *int64          `json:"lot_id,omitempty" db:"lot_id"`
	QuantityUsed float64         `json:"quantity_used" db:"quantity_used"`
	Unit         string          `json:"unit" db:"unit"`
	FrozenPrice  decimal.Decimal `json:"frozen_price" db:"frozen_price"`
	PriceKnown   bool            `json:"price_known" db:"price_known"`
	LineCost     decimal.Decimal `json:"line_cost" db:"line_cost"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	Ingredient   *Ingredient     `json:"ingredient,omitempty"`
	Lot          *IngredientLot  `json:"lot,omitempty"`
}

// ProductionTemplate is a reusable blueprint of planned production lines.
// Pure configuration: it carries no cost fields of its own.
type ProductionTemplate struct {
	ID          int64          `json:"id" db:"id"`
	Name        string         `json:"name" db:"name" binding:"required"`
	Description *string        `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
	Lines       []TemplateLine `json:"lines,omitempty"`
}

// TemplateLine plans one product/recipe/quantity triple within a template.
type TemplateLine struct {
	ID              int64                    `json:"id" db:"id"`
	TemplateID      int64                    `json:"template_id" db:"template_id"`
	ProductID       int64                    `json:"product_id" db:"product_id" binding:"required"`
	RecipeID        int64                    `json:"recipe_id" db:"recipe_id" binding:"required"`
	PlannedQuantity float64                  `json:"planned_quantity" db:"planned_quantity" binding:"required,gt=0"`
	Unit            string                   `json:"unit" db:"unit" binding:"required"`
	Notes           *string                  `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time                `json:"created_at" db:"created_at"`
	Product         *Product                 `json:"product,omitempty"`
	Ingredients     []TemplateLineIngredient `json:"ingredients,omitempty"`
}

// TemplateLineIngredient optionally pre-selects the lot to draw an ingredient
// from when the template is applied.
type TemplateLineIngredient struct {
	ID              int64   `json:"id" db:"id"`
	TemplateLineID  int64   `json:"template_line_id" db:"template_line_id"`
	IngredientID    int64   `json:"ingredient_id" db:"ingredient_id" binding:"required"`
	LotID           *int64  `json:"lot_id,omitempty" db:"lot_id"`
	PlannedQuantity float64 `json:"planned_quantity" db:"planned_quantity"`
}
