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

// LotService owns ingredient lots and the inventory ledger. Every quantity
// change flows through it so a lot adjustment and its movement row are always
// written together.
type LotService interface {
	CreateLot(actor models.Actor, lot *models.IngredientLot) (*models.IngredientLot, error)
	GetLot(id int64) (*models.IngredientLot, error)
	GetLots(ingredientID *int64, onlyAvailable bool, page, pageSize int) ([]models.IngredientLot, int, error)
	// AvailableLots lists an ingredient's non-exhausted lots, earliest expiry
	// first, as a suggestion for the operator. Nothing is picked automatically.
	AvailableLots(ingredientID int64) ([]models.IngredientLot, error)
	UpdateLot(actor models.Actor, lot *models.IngredientLot) (*models.IngredientLot, error)
	DeleteLot(actor models.Actor, id int64) error
	// Deduct draws quantity from a lot and writes the paired outbound movement.
	// Fails with ErrInsufficientStock when the lot cannot cover the quantity;
	// the lot is left untouched in that case.
	Deduct(executor repositories.SQLExecutor, lotID int64, quantity float64, cause string) (*models.IngredientLot, error)
	// Restock returns quantity to a lot with a paired inbound movement, used
	// for corrections and batch cancellations.
	Restock(executor repositories.SQLExecutor, lotID int64, quantity float64, cause string) (*models.IngredientLot, error)
	GetMovements(filters repositories.MovementFilters, page, pageSize int) ([]models.InventoryMovement, int, error)
}

type lotService struct {
	lotRepo        repositories.LotRepository
	movementRepo   repositories.MovementRepository
	ingredientRepo repositories.IngredientRepository
	auditSvc       AuditService
	db             *sql.DB
}

// NewLotService creates a new instance of LotService.
func NewLotService(
	lotRepo repositories.LotRepository,
	movementRepo repositories.MovementRepository,
	ingredientRepo repositories.IngredientRepository,
	auditSvc AuditService,
	db *sql.DB,
) LotService {
	return &lotService{
		lotRepo:        lotRepo,
		movementRepo:   movementRepo,
		ingredientRepo: ingredientRepo,
		auditSvc:       auditSvc,
		db:             db,
	}
}

func (s *lotService) CreateLot(actor models.Actor, lot *models.IngredientLot) (*models.IngredientLot, error) {
	if lot.InitialQuantity <= 0 {
		return nil, fmt.Errorf("%w: initial quantity must be positive", ErrValidation)
	}
	ingredient, err := s.ingredientRepo.GetIngredientByID(lot.IngredientID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrIngredientNotFound
		}
		return nil, err
	}
	if lot.Unit == "" {
		lot.Unit = ingredient.Unit
	}
	lot.CurrentQuantity = lot.InitialQuantity

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("%w: beginning transaction: %v", repositories.ErrDatabaseError, err)
	}
	defer tx.Rollback()

	if _, err := s.lotRepo.CreateLot(tx, lot); err != nil {
		return nil, err
	}
	movement := &models.InventoryMovement{
		IngredientID: lot.IngredientID,
		LotID:        &lot.ID,
		Direction:    models.MovementInbound,
		Quantity:     lot.InitialQuantity,
		Unit:         lot.Unit,
		Cause:        utils.NewNullString("lot delivery " + lot.LotCode),
		MovementDate: time.Now(),
	}
	if _, err := s.movementRepo.CreateMovement(tx, movement); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: committing lot creation: %v", repositories.ErrDatabaseError, err)
	}

	s.auditSvc.Record(actor, models.AuditActionCreate, "ingredient_lots", utils.Int64ToStr(lot.ID), lot)
	lot.Ingredient = ingredient
	return lot, nil
}

func (s *lotService) GetLot(id int64) (*models.IngredientLot, error) {
	lot, err := s.lotRepo.GetLotByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrLotNotFound
		}
		return nil, err
	}
	return lot, nil
}

func (s *lotService) GetLots(ingredientID *int64, onlyAvailable bool, page, pageSize int) ([]models.IngredientLot, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return s.lotRepo.GetLots(ingredientID, onlyAvailable, page, pageSize)
}

func (s *lotService) AvailableLots(ingredientID int64) ([]models.IngredientLot, error) {
	return s.lotRepo.GetAvailableLotsFEFO(ingredientID)
}

func (s *lotService) UpdateLot(actor models.Actor, lot *models.IngredientLot) (*models.IngredientLot, error) {
	if err := s.lotRepo.UpdateLot(s.db, lot); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrLotNotFound
		}
		return nil, err
	}
	s.auditSvc.Record(actor, models.AuditActionUpdate, "ingredient_lots", utils.Int64ToStr(lot.ID), lot)
	return s.lotRepo.GetLotByID(lot.ID)
}

func (s *lotService) DeleteLot(actor models.Actor, id int64) error {
	err := s.lotRepo.DeleteLot(s.db, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrLotNotFound
		}
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return fmt.Errorf("%w: lot appears in production batch details", ErrInUse)
		}
		return err
	}
	s.auditSvc.Record(actor, models.AuditActionDelete, "ingredient_lots", utils.Int64ToStr(id), nil)
	return nil
}

func (s *lotService) Deduct(executor repositories.SQLExecutor, lotID int64, quantity float64, cause string) (*models.IngredientLot, error) {
	if executor == nil {
		executor = s.db
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: deduction quantity must be positive", ErrValidation)
	}
	lot, err := s.lotRepo.AdjustQuantity(executor, lotID, -quantity)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrLotNotFound
		}
		if errors.Is(err, repositories.ErrInsufficientStock) {
			return nil, fmt.Errorf("%w: lot %d cannot cover %.3f", ErrInsufficientStock, lotID, quantity)
		}
		return nil, err
	}

	movement := &models.InventoryMovement{
		IngredientID: lot.IngredientID,
		LotID:        &lot.ID,
		Direction:    models.MovementOutbound,
		Quantity:     quantity,
		Unit:         lot.Unit,
		Cause:        utils.NewNullString(cause),
		MovementDate: time.Now(),
	}
	if _, err := s.movementRepo.CreateMovement(executor, movement); err != nil {
		return nil, err
	}
	return lot, nil
}

func (s *lotService) Restock(executor repositories.SQLExecutor, lotID int64, quantity float64, cause string) (*models.IngredientLot, error) {
	if executor == nil {
		executor = s.db
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: restock quantity must be positive", ErrValidation)
	}
	lot, err := s.lotRepo.AdjustQuantity(executor, lotID, quantity)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrLotNotFound
		}
		if errors.Is(err, repositories.ErrInsufficientStock) {
			return nil, fmt.Errorf("%w: restock would exceed the lot's initial quantity", ErrValidation)
		}
		return nil, err
	}

	movement := &models.InventoryMovement{
		IngredientID: lot.IngredientID,
		LotID:        &lot.ID,
		Direction:    models.MovementInbound,
		Quantity:     quantity,
		Unit:         lot.Unit,
		Cause:        utils.NewNullString(cause),
		MovementDate: time.Now(),
	}
	if _, err := s.movementRepo.CreateMovement(executor, movement); err != nil {
		return nil, err
	}
	return lot, nil
}

func (s *lotService) GetMovements(filters repositories.MovementFilters, page, pageSize int) ([]models.InventoryMovement, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return s.movementRepo.GetMovements(filters, page, pageSize)
}
