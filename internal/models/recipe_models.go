package models

import "time"

// Recipe links a product to its ingredient lines and the nominal batch yield
// the line quantities refer to.
type Recipe struct {
	ID              int64              `json:"id" db:"id"`
	ProductID       int64              `json:"product_id" db:"product_id" binding:"required"`
	NominalYield    float64            `json:"nominal_yield" db:"nominal_yield" binding:"required,gt=0"`
	YieldUnit       string             `json:"yield_unit" db:"yield_unit" binding:"required"`
	OverheadPercent *float64           `json:"overhead_percent,omitempty" db:"overhead_percent"`
	Notes           *string            `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" db:"updated_at"`
	Product         *Product           `json:"product,omitempty"`
	Ingredients     []RecipeIngredient `json:"ingredients,omitempty"`
}

// RecipeIngredient is one ingredient line of a recipe. Quantity refers to the
// recipe's nominal yield and is scaled linearly at production time.
type RecipeIngredient struct {
	ID           int64       `json:"id" db:"id"`
	RecipeID     int64       `json:"recipe_id" db:"recipe_id"`
	IngredientID int64       `json:"ingredient_id" db:"ingredient_id" binding:"required"`
	Quantity     float64     `json:"quantity" db:"quantity" binding:"required,gt=0"`
	Unit         string      `json:"unit" db:"unit" binding:"required"`
	Ingredient   *Ingredient `json:"ingredient,omitempty"`
}
