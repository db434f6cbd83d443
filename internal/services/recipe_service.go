package services

import (
	"database/sql"
	"errors"
	"fmt"

	"gelateria_backend/internal/models"
	"gelateria_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// RecipeCostEstimate prices a recipe at today's prices for a hypothetical
// produced quantity. Purely informational: nothing is frozen or deducted.
type RecipeCostEstimate struct {
	RecipeID         int64              `json:"recipe_id"`
	ProducedQuantity float64            `json:"produced_quantity"`
	Lines            []CostEstimateLine `json:"lines"`
	TotalCost        decimal.Decimal    `json:"total_cost"`
	UnitCost         decimal.Decimal    `json:"unit_cost"`
	UnpricedCount    int                `json:"unpriced_count"`
}

// CostEstimateLine is one ingredient line of a cost estimate.
type CostEstimateLine struct {
	IngredientID   int64           `json:"ingredient_id"`
	IngredientName string          `json:"ingredient_name"`
	Quantity       float64         `json:"quantity"`
	Unit           string          `json:"unit"`
	PricePerUnit   decimal.Decimal `json:"price_per_unit"`
	PriceKnown     bool            `json:"price_known"`
	LineCost       decimal.Decimal `json:"line_cost"`
}

// RecipeService manages recipes and answers what a batch would cost today.
type RecipeService interface {
	CreateRecipe(actor models.Actor, recipe *models.Recipe) (*models.Recipe, error)
	GetRecipe(id int64) (*models.Recipe, error)
	GetRecipeByProduct(productID int64) (*models.Recipe, error)
	GetRecipes(page, pageSize int) ([]models.Recipe, int, error)
	UpdateRecipe(actor models.Actor, recipe *models.Recipe) (*models.Recipe, error)
	DeleteRecipe(actor models.Actor, id int64) error
	EstimateCost(recipeID int64, producedQuantity float64) (*RecipeCostEstimate, error)
}

type recipeService struct {
	recipeRepo  repositories.RecipeRepository
	productRepo repositories.ProductRepository
	pricingSvc  PricingService
	auditSvc    AuditService
	db          *sql.DB
}

// NewRecipeService creates a new instance of RecipeService.
func NewRecipeService(recipeRepo repositories.RecipeRepository, productRepo repositories.ProductRepository, pricingSvc PricingService, auditSvc AuditService, db *sql.DB) RecipeService {
	return &recipeService{recipeRepo: recipeRepo, productRepo: productRepo, pricingSvc: pricingSvc, auditSvc: auditSvc, db: db}
}

func (s *recipeService) validateRecipe(recipe *models.Recipe) error {
	if recipe.NominalYield <= 0 {
		return fmt.Errorf("%w: nominal yield must be positive", ErrValidation)
	}
	if recipe.YieldUnit == "" {
		return fmt.Errorf("%w: yield unit is required", ErrValidation)
	}
	if len(recipe.Ingredients) == 0 {
		return fmt.Errorf("%w: a recipe needs at least one ingredient line", ErrValidation)
	}
	for _, line := range recipe.Ingredients {
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive (ingredient %d)", ErrValidation, line.IngredientID)
		}
	}
	return nil
}

func (s *recipeService) CreateRecipe(actor models.Actor, recipe *models.Recipe) (*models.Recipe, error) {
	if err := s.validateRecipe(recipe); err != nil {
		return nil, err
	}
	if _, err := s.productRepo.GetProductByID(recipe.ProductID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("%w: beginning transaction: %v", repositories.ErrDatabaseError, err)
	}
	defer tx.Rollback()

	if _, err := s.recipeRepo.CreateRecipe(tx, recipe); err != nil {
		return nil, err
	}
	if err := s.recipeRepo.ReplaceIngredients(tx, recipe.ID, recipe.Ingredients); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: committing recipe creation: %v", repositories.ErrDatabaseError, err)
	}

	s.auditSvc.Record(actor, models.AuditActionCreate, "recipes", fmt.Sprintf("%d", recipe.ID), recipe)
	return s.recipeRepo.GetRecipeByID(recipe.ID)
}

func (s *recipeService) GetRecipe(id int64) (*models.Recipe, error) {
	recipe, err := s.recipeRepo.GetRecipeByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	return recipe, nil
}

func (s *recipeService) GetRecipeByProduct(productID int64) (*models.Recipe, error) {
	recipe, err := s.recipeRepo.GetRecipeByProduct(productID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	return recipe, nil
}

func (s *recipeService) GetRecipes(page, pageSize int) ([]models.Recipe, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return s.recipeRepo.GetRecipes(page, pageSize)
}

// UpdateRecipe replaces the recipe head and its full line set in one
// transaction. Past batches keep their frozen details regardless.
func (s *recipeService) UpdateRecipe(actor models.Actor, recipe *models.Recipe) (*models.Recipe, error) {
	if err := s.validateRecipe(recipe); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("%w: beginning transaction: %v", repositories.ErrDatabaseError, err)
	}
	defer tx.Rollback()

	if err := s.recipeRepo.UpdateRecipe(tx, recipe); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	if err := s.recipeRepo.ReplaceIngredients(tx, recipe.ID, recipe.Ingredients); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: committing recipe update: %v", repositories.ErrDatabaseError, err)
	}

	s.auditSvc.Record(actor, models.AuditActionUpdate, "recipes", fmt.Sprintf("%d", recipe.ID), recipe)
	return s.recipeRepo.GetRecipeByID(recipe.ID)
}

func (s *recipeService) DeleteRecipe(actor models.Actor, id int64) error {
	err := s.recipeRepo.DeleteRecipe(s.db, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrRecipeNotFound
		}
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return fmt.Errorf("%w: recipe appears in production batches", ErrInUse)
		}
		return err
	}
	s.auditSvc.Record(actor, models.AuditActionDelete, "recipes", fmt.Sprintf("%d", id), nil)
	return nil
}

func (s *recipeService) EstimateCost(recipeID int64, producedQuantity float64) (*RecipeCostEstimate, error) {
	if producedQuantity <= 0 {
		return nil, fmt.Errorf("%w: produced quantity must be positive", ErrValidation)
	}
	recipe, err := s.GetRecipe(recipeID)
	if err != nil {
		return nil, err
	}
	if recipe.NominalYield <= 0 {
		return nil, fmt.Errorf("%w: recipe %d has a non-positive nominal yield", ErrValidation, recipeID)
	}

	estimate := &RecipeCostEstimate{
		RecipeID:         recipeID,
		ProducedQuantity: producedQuantity,
	}
	lineCosts := make([]decimal.Decimal, 0, len(recipe.Ingredients))
	for _, line := range recipe.Ingredients {
		quantity := ScaledQuantity(line.Quantity, recipe.NominalYield, producedQuantity)
		price, priceKnown, err := s.pricingSvc.CurrentPrice(line.IngredientID)
		if err != nil {
			return nil, err
		}
		cost := LineCost(quantity, price, priceKnown)
		if !priceKnown {
			estimate.UnpricedCount++
		}
		name := ""
		if line.Ingredient != nil {
			name = line.Ingredient.Name
		}
		estimate.Lines = append(estimate.Lines, CostEstimateLine{
			IngredientID:   line.IngredientID,
			IngredientName: name,
			Quantity:       quantity,
			Unit:           line.Unit,
			PricePerUnit:   price,
			PriceKnown:     priceKnown,
			LineCost:       cost,
		})
		lineCosts = append(lineCosts, cost)
	}
	estimate.TotalCost, estimate.UnitCost = BatchTotals(lineCosts, recipe.OverheadPercent, producedQuantity)
	return estimate, nil
}
