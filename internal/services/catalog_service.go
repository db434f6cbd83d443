package services

import (
	"errors"
	"fmt"

	"gelateria_backend/internal/models"
	"gelateria_backend/internal/repositories"
)

// CatalogService manages the ingredient and product catalogs and the derived
// stock level view.
type CatalogService interface {
	CreateIngredient(actor models.Actor, ing *models.Ingredient) (*models.Ingredient, error)
	GetIngredient(id int64) (*models.Ingredient, error)
	GetIngredients(category, search *string, page, pageSize int) ([]models.Ingredient, int, error)
	UpdateIngredient(actor models.Actor, ing *models.Ingredient) (*models.Ingredient, error)
	DeleteIngredient(actor models.Actor, id int64) error
	GetStockLevels() ([]models.StockLevel, error)

	CreateProduct(actor models.Actor, p *models.Product) (*models.Product, error)
	GetProduct(id int64) (*models.Product, error)
	GetProducts(page, pageSize int) ([]models.Product, int, error)
	UpdateProduct(actor models.Actor, p *models.Product) (*models.Product, error)
	DeleteProduct(actor models.Actor, id int64) error
}

type catalogService struct {
	ingredientRepo repositories.IngredientRepository
	productRepo    repositories.ProductRepository
	auditSvc       AuditService
	db             repositories.SQLExecutor
}

// NewCatalogService creates a new instance of CatalogService.
func NewCatalogService(ingredientRepo repositories.IngredientRepository, productRepo repositories.ProductRepository, auditSvc AuditService, db repositories.SQLExecutor) CatalogService {
	return &catalogService{ingredientRepo: ingredientRepo, productRepo: productRepo, auditSvc: auditSvc, db: db}
}

func validStorageMode(mode string) bool {
	switch mode {
	case models.StorageAmbient, models.StorageRefrigerated, models.StorageFrozen:
		return true
	}
	return false
}

func (s *catalogService) CreateIngredient(actor models.Actor, ing *models.Ingredient) (*models.Ingredient, error) {
	if ing.Name == "" || ing.Unit == "" {
		return nil, fmt.Errorf("%w: name and unit are required", ErrValidation)
	}
	if ing.StorageMode == "" {
		ing.StorageMode = models.StorageAmbient
	}
	if !validStorageMode(ing.StorageMode) {
		return nil, fmt.Errorf("%w: unknown storage mode %q", ErrValidation, ing.StorageMode)
	}

	if _, err := s.ingredientRepo.CreateIngredient(s.db, ing); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: ingredient %q already exists", ErrValidation, ing.Name)
		}
		return nil, err
	}
	s.auditSvc.Record(actor, models.AuditActionCreate, "ingredients", fmt.Sprintf("%d", ing.ID), ing)
	return ing, nil
}

func (s *catalogService) GetIngredient(id int64) (*models.Ingredient, error) {
	ing, err := s.ingredientRepo.GetIngredientByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrIngredientNotFound
		}
		return nil, err
	}
	return ing, nil
}

func (s *catalogService) GetIngredients(category, search *string, page, pageSize int) ([]models.Ingredient, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return s.ingredientRepo.GetIngredients(category, search, page, pageSize)
}

func (s *catalogService) UpdateIngredient(actor models.Actor, ing *models.Ingredient) (*models.Ingredient, error) {
	if ing.StorageMode != "" && !validStorageMode(ing.StorageMode) {
		return nil, fmt.Errorf("%w: unknown storage mode %q", ErrValidation, ing.StorageMode)
	}
	if err := s.ingredientRepo.UpdateIngredient(s.db, ing); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrIngredientNotFound
		}
		return nil, err
	}
	s.auditSvc.Record(actor, models.AuditActionUpdate, "ingredients", fmt.Sprintf("%d", ing.ID), ing)
	return s.ingredientRepo.GetIngredientByID(ing.ID)
}

func (s *catalogService) DeleteIngredient(actor models.Actor, id int64) error {
	err := s.ingredientRepo.DeleteIngredient(s.db, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrIngredientNotFound
		}
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return fmt.Errorf("%w: ingredient appears in recipes or lots", ErrInUse)
		}
		return err
	}
	s.auditSvc.Record(actor, models.AuditActionDelete, "ingredients", fmt.Sprintf("%d", id), nil)
	return nil
}

func (s *catalogService) GetStockLevels() ([]models.StockLevel, error) {
	return s.ingredientRepo.GetStockLevels()
}

func (s *catalogService) CreateProduct(actor models.Actor, p *models.Product) (*models.Product, error) {
	if p.Name == "" || p.SaleUnit == "" {
		return nil, fmt.Errorf("%w: name and sale unit are required", ErrValidation)
	}
	if _, err := s.productRepo.CreateProduct(s.db, p); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: product %q already exists", ErrValidation, p.Name)
		}
		return nil, err
	}
	s.auditSvc.Record(actor, models.AuditActionCreate, "products", fmt.Sprintf("%d", p.ID), p)
	return p, nil
}

func (s *catalogService) GetProduct(id int64) (*models.Product, error) {
	p, err := s.productRepo.GetProductByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *catalogService) GetProducts(page, pageSize int) ([]models.Product, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return s.productRepo.GetProducts(page, pageSize)
}

func (s *catalogService) UpdateProduct(actor models.Actor, p *models.Product) (*models.Product, error) {
	if err := s.productRepo.UpdateProduct(s.db, p); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	s.auditSvc.Record(actor, models.AuditActionUpdate, "products", fmt.Sprintf("%d", p.ID), p)
	return s.productRepo.GetProductByID(p.ID)
}

func (s *catalogService) DeleteProduct(actor models.Actor, id int64) error {
	err := s.productRepo.DeleteProduct(s.db, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrProductNotFound
		}
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return fmt.Errorf("%w: product appears in recipes or production batches", ErrInUse)
		}
		return err
	}
	s.auditSvc.Record(actor, models.AuditActionDelete, "products", fmt.Sprintf("%d", id), nil)
	return nil
}
