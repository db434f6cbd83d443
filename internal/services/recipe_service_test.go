package services_test

import (
	"errors"
	"testing"

	"gelateria_backend/internal/models"
	"gelateria_backend/internal/services"

	"github.com/shopspring/decimal"
)

func newRecipeFixture() (*fakePricing, services.RecipeService) {
	recipes := &fakeRecipeRepo{recipes: map[int64]*models.Recipe{
		1: {
			ID:           1,
			ProductID:    10,
			NominalYield: 10,
			YieldUnit:    "kg",
			Ingredients: []models.RecipeIngredient{
				{ID: 1, RecipeID: 1, IngredientID: 1, Quantity: 5, Unit: "kg", Ingredient: &models.Ingredient{ID: 1, Name: "whole milk"}},
				{ID: 2, RecipeID: 1, IngredientID: 2, Quantity: 2, Unit: "kg", Ingredient: &models.Ingredient{ID: 2, Name: "sugar"}},
			},
		},
	}}
	pricing := &fakePricing{prices: map[int64]decimal.Decimal{
		1: decimal.RequireFromString("3.00"),
		2: decimal.RequireFromString("10.00"),
	}}
	products := &fakeProductRepo{products: map[int64]*models.Product{
		10: {ID: 10, Name: "fior di latte", SaleUnit: "kg"},
	}}
	svc := services.NewRecipeService(recipes, products, pricing, &fakeAudit{}, nil)
	return pricing, svc
}

func TestEstimateCost(t *testing.T) {
	t.Run("prices the scaled lines at current prices", func(t *testing.T) {
		_, svc := newRecipeFixture()
		estimate, err := svc.EstimateCost(1, 5)
		if err != nil {
			t.Fatalf("EstimateCost failed: %v", err)
		}
		if !estimate.TotalCost.Equal(decimal.RequireFromString("17.5")) {
			t.Errorf("total cost = %s, want 17.5", estimate.TotalCost)
		}
		if !estimate.UnitCost.Equal(decimal.RequireFromString("3.5")) {
			t.Errorf("unit cost = %s, want 3.5", estimate.UnitCost)
		}
		if estimate.UnpricedCount != 0 {
			t.Errorf("unpriced count = %d, want 0", estimate.UnpricedCount)
		}
		if len(estimate.Lines) != 2 {
			t.Fatalf("got %d lines, want 2", len(estimate.Lines))
		}
		if estimate.Lines[0].Quantity != 2.5 {
			t.Errorf("first line quantity = %v, want 2.5", estimate.Lines[0].Quantity)
		}
		if estimate.Lines[0].IngredientName != "whole milk" {
			t.Errorf("first line name = %q, want whole milk", estimate.Lines[0].IngredientName)
		}
	})

	t.Run("counts unpriced lines", func(t *testing.T) {
		pricing, svc := newRecipeFixture()
		delete(pricing.prices, 2)
		estimate, err := svc.EstimateCost(1, 5)
		if err != nil {
			t.Fatalf("EstimateCost failed: %v", err)
		}
		if estimate.UnpricedCount != 1 {
			t.Errorf("unpriced count = %d, want 1", estimate.UnpricedCount)
		}
		if !estimate.TotalCost.Equal(decimal.RequireFromString("7.5")) {
			t.Errorf("total cost = %s, want 7.5", estimate.TotalCost)
		}
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		_, svc := newRecipeFixture()
		if _, err := svc.EstimateCost(1, 0); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("err = %v, want ErrValidation", err)
		}
	})

	t.Run("unknown recipe", func(t *testing.T) {
		_, svc := newRecipeFixture()
		if _, err := svc.EstimateCost(99, 5); !errors.Is(err, services.ErrRecipeNotFound) {
			t.Fatalf("err = %v, want ErrRecipeNotFound", err)
		}
	})
}
