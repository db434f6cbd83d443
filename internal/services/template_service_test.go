package services_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"gelateria_backend/internal/models"
	"gelateria_backend/internal/services"
)

type templateFixture struct {
	*productionFixture
	templates *fakeTemplateRepo
	lotRepo   *fakeLotRepo
	svc       services.TemplateService
}

// newTemplateFixture extends the production fixture with template 1, which
// plans 5 kg of product 10 per day with lots pre-selected for both
// ingredients.
func newTemplateFixture() *templateFixture {
	pf := newProductionFixture()
	templates := &fakeTemplateRepo{templates: map[int64]*models.ProductionTemplate{
		1: {
			ID:   1,
			Name: "daily classics",
			Lines: []models.TemplateLine{
				{
					ID: 1, TemplateID: 1, ProductID: 10, RecipeID: 1,
					PlannedQuantity: 5, Unit: "kg",
					Ingredients: []models.TemplateLineIngredient{
						{ID: 1, TemplateLineID: 1, IngredientID: 1, LotID: lotID(100)},
						{ID: 2, TemplateLineID: 1, IngredientID: 2, LotID: lotID(200)},
					},
				},
			},
		},
	}}
	lotRepo := &fakeLotRepo{lots: pf.lots.lots}
	f := &templateFixture{productionFixture: pf, templates: templates, lotRepo: lotRepo}
	f.svc = services.NewTemplateService(templates, pf.repo, pf.recipes, lotRepo, pf.svc, pf.audit, nil)
	return f
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func boolPtr(v bool) *bool { return &v }

func TestApplyTemplate(t *testing.T) {
	actor := models.Actor{UserID: 1, Username: "tester"}

	t.Run("creates one batch per line per day", func(t *testing.T) {
		f := newTemplateFixture()
		result, err := f.svc.Apply(actor, 1, services.ApplyTemplateRequest{
			StartDate: day(2026, 3, 1),
			EndDate:   day(2026, 3, 3),
		})
		if err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		if result.CreatedBatches != 3 {
			t.Errorf("created batches = %d, want 3", result.CreatedBatches)
		}
		if result.SkippedDays != 0 {
			t.Errorf("skipped days = %d, want 0", result.SkippedDays)
		}
		if len(f.lots.deductions) != 6 {
			t.Errorf("got %d lot deductions, want 6", len(f.lots.deductions))
		}
		for _, batch := range f.repo.batches {
			if batch.GeneratedFromTemplate == nil || *batch.GeneratedFromTemplate != 1 {
				t.Error("generated batch is not linked to its template")
			}
			if !batch.CostFrozen {
				t.Errorf("batch %d was not cost-frozen", batch.ID)
			}
		}
	})

	t.Run("reapplying the same range skips every day", func(t *testing.T) {
		f := newTemplateFixture()
		req := services.ApplyTemplateRequest{StartDate: day(2026, 3, 1), EndDate: day(2026, 3, 3)}
		if _, err := f.svc.Apply(actor, 1, req); err != nil {
			t.Fatalf("first Apply failed: %v", err)
		}
		result, err := f.svc.Apply(actor, 1, req)
		if err != nil {
			t.Fatalf("second Apply failed: %v", err)
		}
		if result.CreatedBatches != 0 {
			t.Errorf("second run created %d batches, want 0", result.CreatedBatches)
		}
		if result.SkippedDays != 3 {
			t.Errorf("second run skipped %d days, want 3", result.SkippedDays)
		}
	})

	t.Run("disabling skip_existing duplicates applied days", func(t *testing.T) {
		f := newTemplateFixture()
		req := services.ApplyTemplateRequest{StartDate: day(2026, 3, 1), EndDate: day(2026, 3, 2)}
		if _, err := f.svc.Apply(actor, 1, req); err != nil {
			t.Fatalf("first Apply failed: %v", err)
		}
		req.SkipExisting = boolPtr(false)
		result, err := f.svc.Apply(actor, 1, req)
		if err != nil {
			t.Fatalf("second Apply failed: %v", err)
		}
		if result.CreatedBatches != 2 {
			t.Errorf("second run created %d batches, want 2", result.CreatedBatches)
		}
		if result.SkippedDays != 0 {
			t.Errorf("second run skipped %d days, want 0", result.SkippedDays)
		}
		if len(f.repo.batches) != 4 {
			t.Errorf("got %d batches in total, want 4", len(f.repo.batches))
		}
	})

	t.Run("partially applied range fills only the missing days", func(t *testing.T) {
		f := newTemplateFixture()
		if _, err := f.svc.Apply(actor, 1, services.ApplyTemplateRequest{
			StartDate: day(2026, 3, 2),
			EndDate:   day(2026, 3, 2),
		}); err != nil {
			t.Fatalf("seeding Apply failed: %v", err)
		}
		result, err := f.svc.Apply(actor, 1, services.ApplyTemplateRequest{
			StartDate: day(2026, 3, 1),
			EndDate:   day(2026, 3, 3),
		})
		if err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		if result.CreatedBatches != 2 || result.SkippedDays != 1 {
			t.Errorf("created/skipped = %d/%d, want 2/1", result.CreatedBatches, result.SkippedDays)
		}
	})

	t.Run("inverted range", func(t *testing.T) {
		f := newTemplateFixture()
		_, err := f.svc.Apply(actor, 1, services.ApplyTemplateRequest{
			StartDate: day(2026, 3, 3),
			EndDate:   day(2026, 3, 1),
		})
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("err = %v, want ErrValidation", err)
		}
	})

	t.Run("missing recipe aborts the apply", func(t *testing.T) {
		f := newTemplateFixture()
		delete(f.recipes.recipes, 1)
		_, err := f.svc.Apply(actor, 1, services.ApplyTemplateRequest{
			StartDate: day(2026, 3, 1),
			EndDate:   day(2026, 3, 1),
		})
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("err = %v, want ErrValidation", err)
		}
		if len(f.repo.batches) != 0 {
			t.Error("batches were created despite the failed validation")
		}
	})

	t.Run("unknown template", func(t *testing.T) {
		f := newTemplateFixture()
		_, err := f.svc.Apply(actor, 99, services.ApplyTemplateRequest{
			StartDate: day(2026, 3, 1),
			EndDate:   day(2026, 3, 1),
		})
		if !errors.Is(err, services.ErrTemplateNotFound) {
			t.Fatalf("err = %v, want ErrTemplateNotFound", err)
		}
	})
}

func TestValidateTemplate(t *testing.T) {
	t.Run("clean template has no findings", func(t *testing.T) {
		f := newTemplateFixture()
		findings, err := f.svc.Validate(1)
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if len(findings) != 0 {
			t.Errorf("unexpected findings: %v", findings)
		}
	})

	t.Run("missing recipe is an error", func(t *testing.T) {
		f := newTemplateFixture()
		delete(f.recipes.recipes, 1)
		findings, err := f.svc.Validate(1)
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if len(findings) != 1 || findings[0].Severity != services.SeverityError {
			t.Fatalf("findings = %v, want one error", findings)
		}
	})

	t.Run("expired lot is a warning", func(t *testing.T) {
		f := newTemplateFixture()
		past := time.Now().AddDate(0, 0, -1)
		f.lotRepo.lots[100].ExpiryDate = &past
		findings, err := f.svc.Validate(1)
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if len(findings) != 1 || findings[0].Severity != services.SeverityWarning {
			t.Fatalf("findings = %v, want one warning", findings)
		}
		if !strings.Contains(findings[0].Message, "expired") {
			t.Errorf("finding message = %q, want an expiry warning", findings[0].Message)
		}
	})

	t.Run("short lot is a warning", func(t *testing.T) {
		f := newTemplateFixture()
		// The line needs 2.5 kg of ingredient 1 for its planned 5 kg.
		f.lotRepo.lots[100].CurrentQuantity = 1
		findings, err := f.svc.Validate(1)
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if len(findings) != 1 || findings[0].Severity != services.SeverityWarning {
			t.Fatalf("findings = %v, want one warning", findings)
		}
	})

	t.Run("vanished lot is a warning", func(t *testing.T) {
		f := newTemplateFixture()
		delete(f.lotRepo.lots, 200)
		delete(f.lots.lots, 200)
		findings, err := f.svc.Validate(1)
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if len(findings) != 1 || !strings.Contains(findings[0].Message, "no longer exists") {
			t.Fatalf("findings = %v, want one vanished-lot warning", findings)
		}
	})
}
