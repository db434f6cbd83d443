package services_test

import (
	"errors"
	"testing"

	"gelateria_backend/internal/models"
	"gelateria_backend/internal/services"

	"github.com/shopspring/decimal"
)

type productionFixture struct {
	repo    *fakeProductionRepo
	recipes *fakeRecipeRepo
	pricing *fakePricing
	lots    *fakeLotService
	audit   *fakeAudit
	svc     services.ProductionService
}

// newProductionFixture wires a production service around one product (ID 10)
// whose recipe yields 10 kg from 5 kg of ingredient 1 and 2 kg of ingredient 2.
func newProductionFixture() *productionFixture {
	recipes := &fakeRecipeRepo{recipes: map[int64]*models.Recipe{
		1: {
			ID:           1,
			ProductID:    10,
			NominalYield: 10,
			YieldUnit:    "kg",
			Ingredients: []models.RecipeIngredient{
				{ID: 1, RecipeID: 1, IngredientID: 1, Quantity: 5, Unit: "kg"},
				{ID: 2, RecipeID: 1, IngredientID: 2, Quantity: 2, Unit: "kg"},
			},
		},
	}}
	pricing := &fakePricing{prices: map[int64]decimal.Decimal{
		1: decimal.RequireFromString("3.00"),
		2: decimal.RequireFromString("10.00"),
	}}
	lots := &fakeLotService{lots: map[int64]*models.IngredientLot{
		100: {ID: 100, IngredientID: 1, LotCode: "MILK-01", InitialQuantity: 50, CurrentQuantity: 50, Unit: "kg"},
		200: {ID: 200, IngredientID: 2, LotCode: "SUGAR-01", InitialQuantity: 20, CurrentQuantity: 20, Unit: "kg"},
	}}
	f := &productionFixture{
		repo:    newFakeProductionRepo(),
		recipes: recipes,
		pricing: pricing,
		lots:    lots,
		audit:   &fakeAudit{},
	}
	f.svc = services.NewProductionService(
		f.repo, f.recipes, &fakeProductRepo{products: map[int64]*models.Product{}},
		f.pricing, f.lots, f.audit, nil,
	)
	return f
}

func lotID(id int64) *int64 { return &id }

func TestCreateBatch(t *testing.T) {
	actor := models.Actor{UserID: 1, Username: "tester"}

	t.Run("freezes scaled line costs", func(t *testing.T) {
		f := newProductionFixture()
		result, err := f.svc.CreateBatch(actor, services.CreateBatchRequest{
			ProductID:        10,
			ProducedQuantity: 5,
			LotSelections: []services.BatchLineSelection{
				{IngredientID: 1, LotID: lotID(100)},
				{IngredientID: 2, LotID: lotID(200)},
			},
		})
		if err != nil {
			t.Fatalf("CreateBatch failed: %v", err)
		}
		batch := result.Batch
		if !batch.CostFrozen {
			t.Error("batch costs were not frozen")
		}
		// Half the nominal yield: 2.5 kg at 3.00 plus 1 kg at 10.00.
		if !batch.TotalCost.Equal(decimal.RequireFromString("17.5")) {
			t.Errorf("total cost = %s, want 17.5", batch.TotalCost)
		}
		if !batch.UnitCost.Equal(decimal.RequireFromString("3.5")) {
			t.Errorf("unit cost = %s, want 3.5", batch.UnitCost)
		}
		if len(result.Warnings) != 0 {
			t.Errorf("unexpected warnings: %v", result.Warnings)
		}
		if len(batch.Details) != 2 {
			t.Fatalf("got %d details, want 2", len(batch.Details))
		}
		if batch.Details[0].QuantityUsed != 2.5 || batch.Details[1].QuantityUsed != 1 {
			t.Errorf("scaled quantities = %v / %v, want 2.5 / 1", batch.Details[0].QuantityUsed, batch.Details[1].QuantityUsed)
		}
		for _, d := range batch.Details {
			if d.LotID == nil {
				t.Errorf("detail for ingredient %d has no lot recorded", d.IngredientID)
			}
			if !d.PriceKnown {
				t.Errorf("detail for ingredient %d lost its price", d.IngredientID)
			}
		}
	})

	t.Run("deducts the selected lots", func(t *testing.T) {
		f := newProductionFixture()
		if _, err := f.svc.CreateBatch(actor, services.CreateBatchRequest{
			ProductID:        10,
			ProducedQuantity: 5,
			LotSelections: []services.BatchLineSelection{
				{IngredientID: 1, LotID: lotID(100)},
				{IngredientID: 2, LotID: lotID(200)},
			},
		}); err != nil {
			t.Fatalf("CreateBatch failed: %v", err)
		}
		if len(f.lots.deductions) != 2 {
			t.Fatalf("got %d deductions, want 2", len(f.lots.deductions))
		}
		if f.lots.deductions[0].Cause != "production batch 1" {
			t.Errorf("deduction cause = %q, want %q", f.lots.deductions[0].Cause, "production batch 1")
		}
		if got := f.lots.lots[100].CurrentQuantity; got != 47.5 {
			t.Errorf("lot 100 quantity = %v, want 47.5", got)
		}
		if got := f.lots.lots[200].CurrentQuantity; got != 19 {
			t.Errorf("lot 200 quantity = %v, want 19", got)
		}
	})

	t.Run("unpriced ingredient costs zero with a warning", func(t *testing.T) {
		f := newProductionFixture()
		delete(f.pricing.prices, 2)
		result, err := f.svc.CreateBatch(actor, services.CreateBatchRequest{
			ProductID:        10,
			ProducedQuantity: 5,
			LotSelections: []services.BatchLineSelection{
				{IngredientID: 1, LotID: lotID(100)},
				{IngredientID: 2, LotID: lotID(200)},
			},
		})
		if err != nil {
			t.Fatalf("CreateBatch failed: %v", err)
		}
		if len(result.Warnings) != 1 {
			t.Fatalf("got %d warnings, want 1: %v", len(result.Warnings), result.Warnings)
		}
		if !result.Batch.TotalCost.Equal(decimal.RequireFromString("7.5")) {
			t.Errorf("total cost = %s, want 7.5 (unpriced line counted as zero)", result.Batch.TotalCost)
		}
		unpriced := result.Batch.Details[1]
		if unpriced.PriceKnown || !unpriced.LineCost.IsZero() {
			t.Errorf("unpriced detail = known=%v cost=%s, want unknown at zero", unpriced.PriceKnown, unpriced.LineCost)
		}
	})

	t.Run("manual batch stops on a short lot", func(t *testing.T) {
		f := newProductionFixture()
		f.lots.lots[200].CurrentQuantity = 0.5
		_, err := f.svc.CreateBatch(actor, services.CreateBatchRequest{
			ProductID:        10,
			ProducedQuantity: 5,
			LotSelections: []services.BatchLineSelection{
				{IngredientID: 1, LotID: lotID(100)},
				{IngredientID: 2, LotID: lotID(200)},
			},
		})
		if !errors.Is(err, services.ErrInsufficientStock) {
			t.Fatalf("err = %v, want ErrInsufficientStock", err)
		}
		if got := f.lots.lots[200].CurrentQuantity; got != 0.5 {
			t.Errorf("short lot was drawn down to %v", got)
		}
		// The first line was already deducted: the header stays behind with
		// unfrozen costs so the partial run is visible, not papered over.
		if got := f.lots.lots[100].CurrentQuantity; got != 47.5 {
			t.Errorf("lot 100 quantity = %v, want 47.5", got)
		}
		incomplete, err := f.svc.GetIncompleteBatches()
		if err != nil {
			t.Fatalf("GetIncompleteBatches failed: %v", err)
		}
		if len(incomplete) != 1 {
			t.Errorf("got %d incomplete batches, want 1", len(incomplete))
		}
	})

	t.Run("template batch turns a short lot into a warning", func(t *testing.T) {
		f := newProductionFixture()
		f.lots.lots[200].CurrentQuantity = 0.5
		templateID := int64(7)
		result, err := f.svc.CreateBatch(actor, services.CreateBatchRequest{
			ProductID:        10,
			ProducedQuantity: 5,
			TemplateID:       &templateID,
			LotSelections: []services.BatchLineSelection{
				{IngredientID: 1, LotID: lotID(100)},
				{IngredientID: 2, LotID: lotID(200)},
			},
		})
		if err != nil {
			t.Fatalf("CreateBatch failed: %v", err)
		}
		if len(result.Warnings) != 1 {
			t.Fatalf("got %d warnings, want 1: %v", len(result.Warnings), result.Warnings)
		}
		if result.Batch.Details[1].LotID != nil {
			t.Error("short lot must not be recorded on the detail")
		}
		if got := f.lots.lots[200].CurrentQuantity; got != 0.5 {
			t.Errorf("short lot was drawn down to %v", got)
		}
		// Costing is independent of lot availability.
		if !result.Batch.TotalCost.Equal(decimal.RequireFromString("17.5")) {
			t.Errorf("total cost = %s, want 17.5", result.Batch.TotalCost)
		}
	})

	t.Run("template batch proceeds without a lot selection", func(t *testing.T) {
		f := newProductionFixture()
		templateID := int64(7)
		result, err := f.svc.CreateBatch(actor, services.CreateBatchRequest{
			ProductID:        10,
			ProducedQuantity: 5,
			TemplateID:       &templateID,
			LotSelections: []services.BatchLineSelection{
				{IngredientID: 1, LotID: lotID(100)},
			},
		})
		if err != nil {
			t.Fatalf("CreateBatch failed: %v", err)
		}
		if len(result.Warnings) != 1 {
			t.Errorf("got %d warnings, want 1: %v", len(result.Warnings), result.Warnings)
		}
		if len(f.lots.deductions) != 1 {
			t.Errorf("got %d deductions, want 1", len(f.lots.deductions))
		}
	})

	t.Run("manual batch requires a lot for every ingredient", func(t *testing.T) {
		f := newProductionFixture()
		_, err := f.svc.CreateBatch(actor, services.CreateBatchRequest{
			ProductID:        10,
			ProducedQuantity: 5,
			LotSelections: []services.BatchLineSelection{
				{IngredientID: 1, LotID: lotID(100)},
			},
		})
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("err = %v, want ErrValidation", err)
		}
		if len(f.repo.batches) != 0 {
			t.Error("batch was created despite the rejected request")
		}
		if len(f.lots.deductions) != 0 {
			t.Error("lots were deducted despite the rejected request")
		}
	})

	t.Run("product without recipe", func(t *testing.T) {
		f := newProductionFixture()
		_, err := f.svc.CreateBatch(actor, services.CreateBatchRequest{ProductID: 99, ProducedQuantity: 5})
		if !errors.Is(err, services.ErrRecipeNotFound) {
			t.Fatalf("err = %v, want ErrRecipeNotFound", err)
		}
	})

	t.Run("template batches audit as apply_template", func(t *testing.T) {
		f := newProductionFixture()
		templateID := int64(7)
		result, err := f.svc.CreateBatch(actor, services.CreateBatchRequest{
			ProductID:        10,
			ProducedQuantity: 10,
			TemplateID:       &templateID,
		})
		if err != nil {
			t.Fatalf("CreateBatch failed: %v", err)
		}
		if result.Batch.GeneratedFromTemplate == nil || *result.Batch.GeneratedFromTemplate != 7 {
			t.Error("batch did not record its source template")
		}
		last := f.audit.entries[len(f.audit.entries)-1]
		if last.Action != models.AuditActionApplyTemplate {
			t.Errorf("audit action = %q, want %q", last.Action, models.AuditActionApplyTemplate)
		}
	})
}

func TestCancelBatch(t *testing.T) {
	actor := models.Actor{UserID: 1, Username: "tester"}
	f := newProductionFixture()

	result, err := f.svc.CreateBatch(actor, services.CreateBatchRequest{
		ProductID:        10,
		ProducedQuantity: 5,
		LotSelections: []services.BatchLineSelection{
			{IngredientID: 1, LotID: lotID(100)},
			{IngredientID: 2, LotID: lotID(200)},
		},
	})
	if err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}
	batchID := result.Batch.ID

	if err := f.svc.CancelBatch(actor, batchID); err != nil {
		t.Fatalf("CancelBatch failed: %v", err)
	}
	if got := f.lots.lots[100].CurrentQuantity; got != 50 {
		t.Errorf("lot 100 quantity after cancel = %v, want 50", got)
	}
	if got := f.lots.lots[200].CurrentQuantity; got != 20 {
		t.Errorf("lot 200 quantity after cancel = %v, want 20", got)
	}
	if len(f.lots.restocks) != 2 {
		t.Errorf("got %d restocks, want 2", len(f.lots.restocks))
	}
	if _, err := f.svc.GetBatch(batchID); !errors.Is(err, services.ErrBatchNotFound) {
		t.Errorf("GetBatch after cancel = %v, want ErrBatchNotFound", err)
	}
}

func TestGetIncompleteBatches(t *testing.T) {
	actor := models.Actor{UserID: 1, Username: "tester"}
	f := newProductionFixture()

	if _, err := f.svc.CreateBatch(actor, services.CreateBatchRequest{
		ProductID:        10,
		ProducedQuantity: 5,
		LotSelections: []services.BatchLineSelection{
			{IngredientID: 1, LotID: lotID(100)},
			{IngredientID: 2, LotID: lotID(200)},
		},
	}); err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}
	// Simulate a run that died before freezing its costs.
	if _, err := f.repo.CreateBatch(nil, &models.ProductionBatch{ProductID: 10, RecipeID: 1, ProducedQuantity: 3}); err != nil {
		t.Fatalf("seeding interrupted batch: %v", err)
	}

	incomplete, err := f.svc.GetIncompleteBatches()
	if err != nil {
		t.Fatalf("GetIncompleteBatches failed: %v", err)
	}
	if len(incomplete) != 1 {
		t.Fatalf("got %d incomplete batches, want 1", len(incomplete))
	}
	if incomplete[0].CostFrozen {
		t.Error("incomplete batch reported as frozen")
	}
}
