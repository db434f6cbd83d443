package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gelateria_backend/internal/models"
	"gelateria_backend/internal/repositories"
	"gelateria_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// BatchLineSelection binds one recipe ingredient to the lot it should be
// drawn from. A nil LotID means the ingredient is consumed without lot
// tracking for this batch.
type BatchLineSelection struct {
	IngredientID int64  `json:"ingredient_id" binding:"required"`
	LotID        *int64 `json:"lot_id"`
}

// CreateBatchRequest is the input for recording a production run. Manual
// requests must select a lot for every recipe ingredient; only batches
// generated from a template (TemplateID set) may record untracked consumption,
// because template lot choices are a plan that can have gone stale.
type CreateBatchRequest struct {
	ProductID        int64                `json:"product_id" binding:"required"`
	ProducedQuantity float64              `json:"produced_quantity" binding:"required,gt=0"`
	ProductionDate   *time.Time           `json:"production_date"`
	LotSelections    []BatchLineSelection `json:"lot_selections"`
	TemplateID       *int64               `json:"-"`
	Notes            *string              `json:"notes"`
}

// BatchResult carries the created batch plus the non-fatal problems hit while
// processing its lines.
type BatchResult struct {
	Batch    *models.ProductionBatch `json:"batch"`
	Warnings []string                `json:"warnings,omitempty"`
}

// ProductionService records production batches. Creating a batch freezes the
// cost of every ingredient line at the price current on that day and deducts
// the consumed quantities from the selected lots, so recorded history never
// shifts when prices or recipes change later.
type ProductionService interface {
	CreateBatch(actor models.Actor, req CreateBatchRequest) (*BatchResult, error)
	GetBatch(id int64) (*models.ProductionBatch, error)
	GetBatches(filters repositories.BatchFilters, page, pageSize int) ([]models.ProductionBatch, int, error)
	// CancelBatch returns the deducted quantities to their lots with inbound
	// movements, then removes the batch and its details.
	CancelBatch(actor models.Actor, id int64) error
	// GetIncompleteBatches lists batches whose costs were never frozen, the
	// footprint of a run interrupted mid-processing.
	GetIncompleteBatches() ([]models.ProductionBatch, error)
}

type productionService struct {
	productionRepo repositories.ProductionRepository
	recipeRepo     repositories.RecipeRepository
	productRepo    repositories.ProductRepository
	pricingSvc     PricingService
	lotSvc         LotService
	auditSvc       AuditService
	db             *sql.DB
}

// NewProductionService creates a new instance of ProductionService.
func NewProductionService(
	productionRepo repositories.ProductionRepository,
	recipeRepo repositories.RecipeRepository,
	productRepo repositories.ProductRepository,
	pricingSvc PricingService,
	lotSvc LotService,
	auditSvc AuditService,
	db *sql.DB,
) ProductionService {
	return &productionService{
		productionRepo: productionRepo,
		recipeRepo:     recipeRepo,
		productRepo:    productRepo,
		pricingSvc:     pricingSvc,
		lotSvc:         lotSvc,
		auditSvc:       auditSvc,
		db:             db,
	}
}

// CreateBatch processes lines sequentially without a wrapping transaction: a
// crash mid-way leaves a batch with cost_frozen = FALSE and fewer detail rows
// than recipe lines, which GetIncompleteBatches surfaces for reconciliation.
// Lot deductions themselves are individually safe against concurrent writers.
func (s *productionService) CreateBatch(actor models.Actor, req CreateBatchRequest) (*BatchResult, error) {
	if req.ProducedQuantity <= 0 {
		return nil, fmt.Errorf("%w: produced quantity must be positive", ErrValidation)
	}

	recipe, err := s.recipeRepo.GetRecipeByProduct(req.ProductID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %d has no recipe", ErrRecipeNotFound, req.ProductID)
		}
		return nil, err
	}
	if recipe.NominalYield <= 0 {
		return nil, fmt.Errorf("%w: recipe %d has a non-positive nominal yield", ErrValidation, recipe.ID)
	}

	fromTemplate := req.TemplateID != nil

	selectedLot := make(map[int64]*int64, len(req.LotSelections))
	for _, sel := range req.LotSelections {
		selectedLot[sel.IngredientID] = sel.LotID
	}
	if !fromTemplate {
		for _, line := range recipe.Ingredients {
			if lotID, ok := selectedLot[line.IngredientID]; !ok || lotID == nil {
				return nil, fmt.Errorf("%w: no lot selected for ingredient %d", ErrValidation, line.IngredientID)
			}
		}
	}

	productionDate := time.Now()
	if req.ProductionDate != nil {
		productionDate = *req.ProductionDate
	}

	batch := &models.ProductionBatch{
		ProductID:             req.ProductID,
		RecipeID:              recipe.ID,
		ProductionDate:        productionDate,
		ProducedQuantity:      req.ProducedQuantity,
		YieldUnit:             recipe.YieldUnit,
		GeneratedFromTemplate: req.TemplateID,
		Notes:                 req.Notes,
	}
	if _, err := s.productionRepo.CreateBatch(s.db, batch); err != nil {
		return nil, err
	}

	var warnings []string
	lineCosts := make([]decimal.Decimal, 0, len(recipe.Ingredients))
	details := make([]models.ProductionBatchDetail, 0, len(recipe.Ingredients))

	for _, line := range recipe.Ingredients {
		quantity := ScaledQuantity(line.Quantity, recipe.NominalYield, req.ProducedQuantity)

		price, priceKnown, err := s.pricingSvc.CurrentPrice(line.IngredientID)
		if err != nil {
			return nil, err
		}
		if !priceKnown {
			warnings = append(warnings, fmt.Sprintf("ingredient %d has no recorded price; line costed at zero", line.IngredientID))
		}

		detail := models.ProductionBatchDetail{
			BatchID:      batch.ID,
			IngredientID: line.IngredientID,
			QuantityUsed: quantity,
			Unit:         line.Unit,
			FrozenPrice:  price,
			PriceKnown:   priceKnown,
			LineCost:     LineCost(quantity, price, priceKnown),
		}

		if lotID := selectedLot[line.IngredientID]; lotID != nil {
			cause := fmt.Sprintf("production batch %d", batch.ID)
			if _, err := s.lotSvc.Deduct(s.db, *lotID, quantity, cause); err != nil {
				// A manual batch stops on a lot problem: the header and any
				// earlier deductions stay as a visible incomplete batch
				// instead of pretending the lot covered the line. Template
				// batches carry on, since their lot choices are only a plan.
				switch {
				case errors.Is(err, ErrInsufficientStock):
					if !fromTemplate {
						return nil, fmt.Errorf("deducting lot %d for ingredient %d: %w", *lotID, line.IngredientID, err)
					}
					warnings = append(warnings, fmt.Sprintf("lot %d cannot cover %.3f of ingredient %d; consumption recorded without lot deduction", *lotID, quantity, line.IngredientID))
				case errors.Is(err, ErrLotNotFound):
					if !fromTemplate {
						return nil, fmt.Errorf("deducting lot %d for ingredient %d: %w", *lotID, line.IngredientID, err)
					}
					warnings = append(warnings, fmt.Sprintf("lot %d no longer exists; consumption recorded without lot deduction", *lotID))
				default:
					return nil, err
				}
			} else {
				detail.LotID = lotID
			}
		} else {
			warnings = append(warnings, fmt.Sprintf("ingredient %d consumed without lot tracking", line.IngredientID))
		}

		if _, err := s.productionRepo.CreateBatchDetail(s.db, &detail); err != nil {
			return nil, err
		}
		details = append(details, detail)
		lineCosts = append(lineCosts, detail.LineCost)
	}

	total, unitCost := BatchTotals(lineCosts, recipe.OverheadPercent, req.ProducedQuantity)
	if err := s.productionRepo.FreezeBatchCosts(s.db, batch.ID, total, unitCost); err != nil {
		return nil, err
	}
	batch.TotalCost = total
	batch.UnitCost = unitCost
	batch.CostFrozen = true
	batch.Details = details

	action := models.AuditActionCreate
	if req.TemplateID != nil {
		action = models.AuditActionApplyTemplate
	}
	s.auditSvc.Record(actor, action, "production_batches", fmt.Sprintf("%d", batch.ID), map[string]interface{}{
		"product_id":        batch.ProductID,
		"produced_quantity": batch.ProducedQuantity,
		"total_cost":        total,
	})

	utils.LogInfo(fmt.Sprintf("batch %d recorded: product %d, qty %.3f, total cost %s", batch.ID, batch.ProductID, batch.ProducedQuantity, total.String()))
	return &BatchResult{Batch: batch, Warnings: warnings}, nil
}

func (s *productionService) GetBatch(id int64) (*models.ProductionBatch, error) {
	batch, err := s.productionRepo.GetBatchByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, err
	}
	details, err := s.productionRepo.GetBatchDetails(id)
	if err != nil {
		return nil, err
	}
	batch.Details = details
	return batch, nil
}

func (s *productionService) GetBatches(filters repositories.BatchFilters, page, pageSize int) ([]models.ProductionBatch, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return s.productionRepo.GetBatches(filters, page, pageSize)
}

func (s *productionService) CancelBatch(actor models.Actor, id int64) error {
	details, err := s.productionRepo.GetBatchDetails(id)
	if err != nil {
		return err
	}
	if _, err := s.productionRepo.GetBatchByID(id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrBatchNotFound
		}
		return err
	}

	cause := fmt.Sprintf("cancellation of production batch %d", id)
	for _, detail := range details {
		if detail.LotID == nil {
			continue
		}
		if _, err := s.lotSvc.Restock(s.db, *detail.LotID, detail.QuantityUsed, cause); err != nil {
			// A lot that has since been consumed further may not accept the
			// full return; surface the problem rather than half-cancel.
			return fmt.Errorf("restoring lot %d for batch %d: %w", *detail.LotID, id, err)
		}
	}

	if err := s.productionRepo.DeleteBatch(s.db, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrBatchNotFound
		}
		return err
	}
	s.auditSvc.Record(actor, models.AuditActionCancel, "production_batches", fmt.Sprintf("%d", id), nil)
	return nil
}

func (s *productionService) GetIncompleteBatches() ([]models.ProductionBatch, error) {
	return s.productionRepo.GetIncompleteBatches()
}
