package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gelateria_backend/internal/models"
	"gelateria_backend/internal/repositories"
	"gelateria_backend/pkg/utils"
)

// Finding severities for template validation.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ValidationFinding is one problem discovered while checking a template
// against current catalog, price, and warehouse state.
type ValidationFinding struct {
	Severity  string `json:"severity"`
	LineID    int64  `json:"line_id,omitempty"`
	ProductID int64  `json:"product_id,omitempty"`
	Message   string `json:"message"`
}

// ApplyTemplateRequest applies a template across an inclusive date range.
// SkipExisting controls the per-day idempotency check; leaving it unset means
// true, so a plain re-run never duplicates production.
type ApplyTemplateRequest struct {
	StartDate    time.Time `json:"start_date" binding:"required"`
	EndDate      time.Time `json:"end_date" binding:"required"`
	SkipExisting *bool     `json:"skip_existing"`
}

// ApplyTemplateResult summarizes one apply run.
type ApplyTemplateResult struct {
	CreatedBatches int      `json:"created_batches"`
	SkippedDays    int      `json:"skipped_days"`
	Warnings       []string `json:"warnings,omitempty"`
}

// TemplateService manages production templates and turns them into batches.
// Applying a template is idempotent per calendar day: a day that already has
// batches generated from the template is skipped, so re-running an apply over
// the same range never duplicates production.
type TemplateService interface {
	CreateTemplate(actor models.Actor, tpl *models.ProductionTemplate) (*models.ProductionTemplate, error)
	GetTemplate(id int64) (*models.ProductionTemplate, error)
	GetTemplates(page, pageSize int) ([]models.ProductionTemplate, int, error)
	UpdateTemplate(actor models.Actor, tpl *models.ProductionTemplate) (*models.ProductionTemplate, error)
	DeleteTemplate(actor models.Actor, id int64) error
	// Validate checks a template against current data without writing anything.
	// A missing recipe is an error; a missing or expired or short lot is a
	// warning, because applying still proceeds for those lines.
	Validate(id int64) ([]ValidationFinding, error)
	Apply(actor models.Actor, id int64, req ApplyTemplateRequest) (*ApplyTemplateResult, error)
}

type templateService struct {
	templateRepo   repositories.TemplateRepository
	productionRepo repositories.ProductionRepository
	recipeRepo     repositories.RecipeRepository
	lotRepo        repositories.LotRepository
	productionSvc  ProductionService
	auditSvc       AuditService
	db             *sql.DB
}

// NewTemplateService creates a new instance of TemplateService.
func NewTemplateService(
	templateRepo repositories.TemplateRepository,
	productionRepo repositories.ProductionRepository,
	recipeRepo repositories.RecipeRepository,
	lotRepo repositories.LotRepository,
	productionSvc ProductionService,
	auditSvc AuditService,
	db *sql.DB,
) TemplateService {
	return &templateService{
		templateRepo:   templateRepo,
		productionRepo: productionRepo,
		recipeRepo:     recipeRepo,
		lotRepo:        lotRepo,
		productionSvc:  productionSvc,
		auditSvc:       auditSvc,
		db:             db,
	}
}

func (s *templateService) CreateTemplate(actor models.Actor, tpl *models.ProductionTemplate) (*models.ProductionTemplate, error) {
	if tpl.Name == "" {
		return nil, fmt.Errorf("%w: template name is required", ErrValidation)
	}
	for _, line := range tpl.Lines {
		if line.PlannedQuantity <= 0 {
			return nil, fmt.Errorf("%w: planned quantity must be positive (product %d)", ErrValidation, line.ProductID)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("%w: beginning transaction: %v", repositories.ErrDatabaseError, err)
	}
	defer tx.Rollback()

	if _, err := s.templateRepo.CreateTemplate(tx, tpl); err != nil {
		return nil, err
	}
	if err := s.templateRepo.ReplaceLines(tx, tpl.ID, tpl.Lines); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: committing template creation: %v", repositories.ErrDatabaseError, err)
	}

	s.auditSvc.Record(actor, models.AuditActionCreate, "production_templates", fmt.Sprintf("%d", tpl.ID), tpl)
	return s.templateRepo.GetTemplateByID(tpl.ID)
}

func (s *templateService) GetTemplate(id int64) (*models.ProductionTemplate, error) {
	tpl, err := s.templateRepo.GetTemplateByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return tpl, nil
}

func (s *templateService) GetTemplates(page, pageSize int) ([]models.ProductionTemplate, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return s.templateRepo.GetTemplates(page, pageSize)
}

func (s *templateService) UpdateTemplate(actor models.Actor, tpl *models.ProductionTemplate) (*models.ProductionTemplate, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("%w: beginning transaction: %v", repositories.ErrDatabaseError, err)
	}
	defer tx.Rollback()

	if err := s.templateRepo.UpdateTemplate(tx, tpl); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	if err := s.templateRepo.ReplaceLines(tx, tpl.ID, tpl.Lines); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: committing template update: %v", repositories.ErrDatabaseError, err)
	}

	s.auditSvc.Record(actor, models.AuditActionUpdate, "production_templates", fmt.Sprintf("%d", tpl.ID), tpl)
	return s.templateRepo.GetTemplateByID(tpl.ID)
}

func (s *templateService) DeleteTemplate(actor models.Actor, id int64) error {
	if err := s.templateRepo.DeleteTemplate(s.db, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrTemplateNotFound
		}
		return err
	}
	s.auditSvc.Record(actor, models.AuditActionDelete, "production_templates", fmt.Sprintf("%d", id), nil)
	return nil
}

func (s *templateService) Validate(id int64) ([]ValidationFinding, error) {
	tpl, err := s.GetTemplate(id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	findings := []ValidationFinding{}
	for _, line := range tpl.Lines {
		recipe, err := s.recipeRepo.GetRecipeByID(line.RecipeID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				findings = append(findings, ValidationFinding{
					Severity:  SeverityError,
					LineID:    line.ID,
					ProductID: line.ProductID,
					Message:   fmt.Sprintf("recipe %d no longer exists", line.RecipeID),
				})
				continue
			}
			return nil, err
		}
		if recipe.NominalYield <= 0 {
			findings = append(findings, ValidationFinding{
				Severity:  SeverityError,
				LineID:    line.ID,
				ProductID: line.ProductID,
				Message:   fmt.Sprintf("recipe %d has a non-positive nominal yield", recipe.ID),
			})
			continue
		}

		recipeLine := make(map[int64]models.RecipeIngredient, len(recipe.Ingredients))
		for _, ri := range recipe.Ingredients {
			recipeLine[ri.IngredientID] = ri
		}

		for _, sel := range line.Ingredients {
			ri, inRecipe := recipeLine[sel.IngredientID]
			if !inRecipe {
				findings = append(findings, ValidationFinding{
					Severity:  SeverityWarning,
					LineID:    line.ID,
					ProductID: line.ProductID,
					Message:   fmt.Sprintf("ingredient %d is no longer part of recipe %d", sel.IngredientID, recipe.ID),
				})
				continue
			}
			if sel.LotID == nil {
				continue
			}

			lot, err := s.lotRepo.GetLotByID(*sel.LotID)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					findings = append(findings, ValidationFinding{
						Severity:  SeverityWarning,
						LineID:    line.ID,
						ProductID: line.ProductID,
						Message:   fmt.Sprintf("selected lot %d for ingredient %d no longer exists", *sel.LotID, sel.IngredientID),
					})
					continue
				}
				return nil, err
			}
			if lot.Expired(now) {
				findings = append(findings, ValidationFinding{
					Severity:  SeverityWarning,
					LineID:    line.ID,
					ProductID: line.ProductID,
					Message:   fmt.Sprintf("lot %s expired on %s", lot.LotCode, lot.ExpiryDate.Format("2006-01-02")),
				})
			}
			needed := ScaledQuantity(ri.Quantity, recipe.NominalYield, line.PlannedQuantity)
			if lot.CurrentQuantity < needed {
				findings = append(findings, ValidationFinding{
					Severity:  SeverityWarning,
					LineID:    line.ID,
					ProductID: line.ProductID,
					Message:   fmt.Sprintf("lot %s holds %.3f of ingredient %d but %.3f is needed", lot.LotCode, lot.CurrentQuantity, sel.IngredientID, needed),
				})
			}
		}
	}
	return findings, nil
}

// Apply walks every calendar day in the inclusive range. Days on which this
// template has already generated batches are skipped, unless the request
// turns skip_existing off to force duplicates. For the rest, every
// template line is recorded as a batch through the regular production path,
// so scaling, price freezing, and lot deduction behave exactly as for a
// manually recorded batch.
func (s *templateService) Apply(actor models.Actor, id int64, req ApplyTemplateRequest) (*ApplyTemplateResult, error) {
	if req.EndDate.Before(req.StartDate) {
		return nil, fmt.Errorf("%w: end date precedes start date", ErrValidation)
	}

	tpl, err := s.GetTemplate(id)
	if err != nil {
		return nil, err
	}
	if len(tpl.Lines) == 0 {
		return nil, fmt.Errorf("%w: template %d has no lines", ErrValidation, id)
	}

	findings, err := s.Validate(id)
	if err != nil {
		return nil, err
	}
	for _, f := range findings {
		if f.Severity == SeverityError {
			return nil, fmt.Errorf("%w: %s", ErrValidation, f.Message)
		}
	}

	result := &ApplyTemplateResult{}
	for _, f := range findings {
		result.Warnings = append(result.Warnings, f.Message)
	}

	skipExisting := req.SkipExisting == nil || *req.SkipExisting

	start := truncateToDay(req.StartDate)
	end := truncateToDay(req.EndDate)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if skipExisting {
			existing, err := s.productionRepo.CountBatchesForTemplateOnDay(id, day)
			if err != nil {
				return nil, err
			}
			if existing > 0 {
				result.SkippedDays++
				continue
			}
		}

		for _, line := range tpl.Lines {
			selections := make([]BatchLineSelection, 0, len(line.Ingredients))
			for _, ing := range line.Ingredients {
				selections = append(selections, BatchLineSelection{IngredientID: ing.IngredientID, LotID: ing.LotID})
			}
			productionDate := day.Add(12 * time.Hour)
			batchReq := CreateBatchRequest{
				ProductID:        line.ProductID,
				ProducedQuantity: line.PlannedQuantity,
				ProductionDate:   &productionDate,
				LotSelections:    selections,
				TemplateID:       &id,
				Notes:            line.Notes,
			}
			batchResult, err := s.productionSvc.CreateBatch(actor, batchReq)
			if err != nil {
				return nil, fmt.Errorf("applying template %d on %s: %w", id, day.Format("2006-01-02"), err)
			}
			result.CreatedBatches++
			result.Warnings = append(result.Warnings, batchResult.Warnings...)
		}
	}

	s.auditSvc.Record(actor, models.AuditActionApplyTemplate, "production_templates", fmt.Sprintf("%d", id), map[string]interface{}{
		"start_date":      start.Format("2006-01-02"),
		"end_date":        end.Format("2006-01-02"),
		"created_batches": result.CreatedBatches,
		"skipped_days":    result.SkippedDays,
	})
	utils.LogInfo(fmt.Sprintf("template %d applied: %d batches created, %d days skipped", id, result.CreatedBatches, result.SkippedDays))
	return result, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
