package services

import (
	"errors"
	"fmt"

	"gelateria_backend/internal/models"
	"gelateria_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// PricingService resolves ingredient prices from the append-only purchase
// history. The current price of an ingredient is always the most recent record
// by purchase date; an ingredient with no records is "unpriced", which is a
// reportable condition, not an error.
type PricingService interface {
	CurrentPrice(ingredientID int64) (decimal.Decimal, bool, error)
	AddPriceRecord(actor models.Actor, rec *models.PriceRecord) (*models.PriceRecord, error)
	GetPriceHistory(ingredientID int64, page, pageSize int) ([]models.PriceRecord, int, error)
	DeletePriceRecord(actor models.Actor, id int64) error
}

type pricingService struct {
	priceRepo      repositories.PriceRepository
	ingredientRepo repositories.IngredientRepository
	auditSvc       AuditService
	db             repositories.SQLExecutor
}

// NewPricingService creates a new instance of PricingService.
func NewPricingService(priceRepo repositories.PriceRepository, ingredientRepo repositories.IngredientRepository, auditSvc AuditService, db repositories.SQLExecutor) PricingService {
	return &pricingService{priceRepo: priceRepo, ingredientRepo: ingredientRepo, auditSvc: auditSvc, db: db}
}

func (s *pricingService) CurrentPrice(ingredientID int64) (decimal.Decimal, bool, error) {
	return s.priceRepo.GetLatestPrice(ingredientID)
}

func (s *pricingService) AddPriceRecord(actor models.Actor, rec *models.PriceRecord) (*models.PriceRecord, error) {
	if rec.PricePerUnit.IsNegative() {
		return nil, fmt.Errorf("%w: price per unit cannot be negative", ErrValidation)
	}
	if _, err := s.ingredientRepo.GetIngredientByID(rec.IngredientID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrIngredientNotFound
		}
		return nil, err
	}

	if _, err := s.priceRepo.CreatePriceRecord(s.db, rec); err != nil {
		return nil, err
	}
	s.auditSvc.Record(actor, models.AuditActionCreate, "price_records", fmt.Sprintf("%d", rec.ID), rec)
	return rec, nil
}

func (s *pricingService) GetPriceHistory(ingredientID int64, page, pageSize int) ([]models.PriceRecord, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return s.priceRepo.GetPriceRecordsByIngredient(ingredientID, page, pageSize)
}

func (s *pricingService) DeletePriceRecord(actor models.Actor, id int64) error {
	err := s.priceRepo.DeletePriceRecord(s.db, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrRecordNotFound
		}
		return err
	}
	s.auditSvc.Record(actor, models.AuditActionDelete, "price_records", fmt.Sprintf("%d", id), nil)
	return nil
}
