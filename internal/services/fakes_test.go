package services_test

import (
	"fmt"
	"time"

	"gelateria_backend/internal/models"
	"gelateria_backend/internal/repositories"
	"gelateria_backend/internal/services"

	"github.com/shopspring/decimal"
)

// In-memory stand-ins for the repository and service interfaces. They ignore
// the executor argument, which the real implementations use for transactions.

type fakeAudit struct {
	entries []models.AuditLogEntry
}

func (f *fakeAudit) Record(actor models.Actor, action, tableName, recordID string, details interface{}) {
	entry := models.AuditLogEntry{Action: action, TableName: tableName, RecordID: recordID, OccurredAt: time.Now()}
	if actor.UserID != 0 {
		entry.UserID = &actor.UserID
	}
	f.entries = append(f.entries, entry)
}

func (f *fakeAudit) GetEntries(filters repositories.AuditFilters, page, pageSize int) ([]models.AuditLogEntry, int, error) {
	return f.entries, len(f.entries), nil
}

type fakePricing struct {
	prices map[int64]decimal.Decimal
}

func (f *fakePricing) CurrentPrice(ingredientID int64) (decimal.Decimal, bool, error) {
	price, ok := f.prices[ingredientID]
	if !ok {
		return decimal.Zero, false, nil
	}
	return price, true, nil
}

func (f *fakePricing) AddPriceRecord(actor models.Actor, rec *models.PriceRecord) (*models.PriceRecord, error) {
	f.prices[rec.IngredientID] = rec.PricePerUnit
	return rec, nil
}

func (f *fakePricing) GetPriceHistory(ingredientID int64, page, pageSize int) ([]models.PriceRecord, int, error) {
	return nil, 0, nil
}

func (f *fakePricing) DeletePriceRecord(actor models.Actor, id int64) error { return nil }

type deduction struct {
	LotID    int64
	Quantity float64
	Cause    string
}

type fakeLotService struct {
	lots       map[int64]*models.IngredientLot
	deductions []deduction
	restocks   []deduction
}

func (f *fakeLotService) CreateLot(actor models.Actor, lot *models.IngredientLot) (*models.IngredientLot, error) {
	f.lots[lot.ID] = lot
	return lot, nil
}

func (f *fakeLotService) GetLot(id int64) (*models.IngredientLot, error) {
	lot, ok := f.lots[id]
	if !ok {
		return nil, services.ErrLotNotFound
	}
	return lot, nil
}

func (f *fakeLotService) GetLots(ingredientID *int64, onlyAvailable bool, page, pageSize int) ([]models.IngredientLot, int, error) {
	return nil, 0, nil
}

func (f *fakeLotService) AvailableLots(ingredientID int64) ([]models.IngredientLot, error) {
	return nil, nil
}

func (f *fakeLotService) UpdateLot(actor models.Actor, lot *models.IngredientLot) (*models.IngredientLot, error) {
	return lot, nil
}

func (f *fakeLotService) DeleteLot(actor models.Actor, id int64) error { return nil }

func (f *fakeLotService) Deduct(executor repositories.SQLExecutor, lotID int64, quantity float64, cause string) (*models.IngredientLot, error) {
	lot, ok := f.lots[lotID]
	if !ok {
		return nil, services.ErrLotNotFound
	}
	if lot.CurrentQuantity < quantity {
		return nil, fmt.Errorf("%w: lot %d", services.ErrInsufficientStock, lotID)
	}
	lot.CurrentQuantity -= quantity
	f.deductions = append(f.deductions, deduction{LotID: lotID, Quantity: quantity, Cause: cause})
	return lot, nil
}

func (f *fakeLotService) Restock(executor repositories.SQLExecutor, lotID int64, quantity float64, cause string) (*models.IngredientLot, error) {
	lot, ok := f.lots[lotID]
	if !ok {
		return nil, services.ErrLotNotFound
	}
	if lot.CurrentQuantity+quantity > lot.InitialQuantity {
		return nil, services.ErrValidation
	}
	lot.CurrentQuantity += quantity
	f.restocks = append(f.restocks, deduction{LotID: lotID, Quantity: quantity, Cause: cause})
	return lot, nil
}

func (f *fakeLotService) GetMovements(filters repositories.MovementFilters, page, pageSize int) ([]models.InventoryMovement, int, error) {
	return nil, 0, nil
}

type fakeProductionRepo struct {
	nextBatchID  int64
	nextDetailID int64
	batches      map[int64]*models.ProductionBatch
	details      map[int64][]models.ProductionBatchDetail
}

func newFakeProductionRepo() *fakeProductionRepo {
	return &fakeProductionRepo{
		batches: map[int64]*models.ProductionBatch{},
		details: map[int64][]models.ProductionBatchDetail{},
	}
}

func (f *fakeProductionRepo) CreateBatch(executor repositories.SQLExecutor, batch *models.ProductionBatch) (int64, error) {
	f.nextBatchID++
	batch.ID = f.nextBatchID
	copied := *batch
	f.batches[batch.ID] = &copied
	return batch.ID, nil
}

func (f *fakeProductionRepo) GetBatchByID(id int64) (*models.ProductionBatch, error) {
	batch, ok := f.batches[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *batch
	return &copied, nil
}

func (f *fakeProductionRepo) GetBatches(filters repositories.BatchFilters, page, pageSize int) ([]models.ProductionBatch, int, error) {
	out := []models.ProductionBatch{}
	for _, b := range f.batches {
		out = append(out, *b)
	}
	return out, len(out), nil
}

func (f *fakeProductionRepo) FreezeBatchCosts(executor repositories.SQLExecutor, batchID int64, total, unitCost decimal.Decimal) error {
	batch, ok := f.batches[batchID]
	if !ok || batch.CostFrozen {
		return repositories.ErrNotFound
	}
	batch.TotalCost = total
	batch.UnitCost = unitCost
	batch.CostFrozen = true
	return nil
}

func (f *fakeProductionRepo) DeleteBatch(executor repositories.SQLExecutor, id int64) error {
	if _, ok := f.batches[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.batches, id)
	delete(f.details, id)
	return nil
}

func (f *fakeProductionRepo) CreateBatchDetail(executor repositories.SQLExecutor, detail *models.ProductionBatchDetail) (int64, error) {
	f.nextDetailID++
	detail.ID = f.nextDetailID
	f.details[detail.BatchID] = append(f.details[detail.BatchID], *detail)
	return detail.ID, nil
}

func (f *fakeProductionRepo) GetBatchDetails(batchID int64) ([]models.ProductionBatchDetail, error) {
	return f.details[batchID], nil
}

func (f *fakeProductionRepo) CountBatchesForTemplateOnDay(templateID int64, day time.Time) (int, error) {
	count := 0
	dayKey := day.Format("2006-01-02")
	for _, b := range f.batches {
		if b.GeneratedFromTemplate != nil && *b.GeneratedFromTemplate == templateID &&
			b.ProductionDate.Format("2006-01-02") == dayKey {
			count++
		}
	}
	return count, nil
}

func (f *fakeProductionRepo) GetIncompleteBatches() ([]models.ProductionBatch, error) {
	out := []models.ProductionBatch{}
	for _, b := range f.batches {
		if !b.CostFrozen {
			out = append(out, *b)
		}
	}
	return out, nil
}

type fakeRecipeRepo struct {
	recipes map[int64]*models.Recipe
}

func (f *fakeRecipeRepo) CreateRecipe(executor repositories.SQLExecutor, recipe *models.Recipe) (int64, error) {
	f.recipes[recipe.ID] = recipe
	return recipe.ID, nil
}

func (f *fakeRecipeRepo) GetRecipeByID(id int64) (*models.Recipe, error) {
	recipe, ok := f.recipes[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return recipe, nil
}

func (f *fakeRecipeRepo) GetRecipeByProduct(productID int64) (*models.Recipe, error) {
	for _, recipe := range f.recipes {
		if recipe.ProductID == productID {
			return recipe, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeRecipeRepo) GetRecipes(page, pageSize int) ([]models.Recipe, int, error) {
	return nil, 0, nil
}

func (f *fakeRecipeRepo) UpdateRecipe(executor repositories.SQLExecutor, recipe *models.Recipe) error {
	f.recipes[recipe.ID] = recipe
	return nil
}

func (f *fakeRecipeRepo) DeleteRecipe(executor repositories.SQLExecutor, id int64) error {
	delete(f.recipes, id)
	return nil
}

func (f *fakeRecipeRepo) GetRecipeIngredients(recipeID int64) ([]models.RecipeIngredient, error) {
	recipe, ok := f.recipes[recipeID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return recipe.Ingredients, nil
}

func (f *fakeRecipeRepo) ReplaceIngredients(executor repositories.SQLExecutor, recipeID int64, lines []models.RecipeIngredient) error {
	if recipe, ok := f.recipes[recipeID]; ok {
		recipe.Ingredients = lines
	}
	return nil
}

type fakeProductRepo struct {
	products map[int64]*models.Product
}

func (f *fakeProductRepo) CreateProduct(executor repositories.SQLExecutor, p *models.Product) (int64, error) {
	f.products[p.ID] = p
	return p.ID, nil
}

func (f *fakeProductRepo) GetProductByID(id int64) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) GetProducts(page, pageSize int) ([]models.Product, int, error) {
	return nil, 0, nil
}

func (f *fakeProductRepo) UpdateProduct(executor repositories.SQLExecutor, p *models.Product) error {
	f.products[p.ID] = p
	return nil
}

func (f *fakeProductRepo) DeleteProduct(executor repositories.SQLExecutor, id int64) error {
	delete(f.products, id)
	return nil
}

type fakeLotRepo struct {
	lots map[int64]*models.IngredientLot
}

func (f *fakeLotRepo) CreateLot(executor repositories.SQLExecutor, lot *models.IngredientLot) (int64, error) {
	f.lots[lot.ID] = lot
	return lot.ID, nil
}

func (f *fakeLotRepo) GetLotByID(id int64) (*models.IngredientLot, error) {
	lot, ok := f.lots[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *lot
	return &copied, nil
}

func (f *fakeLotRepo) GetLots(ingredientID *int64, onlyAvailable bool, page, pageSize int) ([]models.IngredientLot, int, error) {
	return nil, 0, nil
}

func (f *fakeLotRepo) GetAvailableLotsFEFO(ingredientID int64) ([]models.IngredientLot, error) {
	out := []models.IngredientLot{}
	for _, lot := range f.lots {
		if lot.IngredientID == ingredientID && lot.CurrentQuantity > 0 {
			out = append(out, *lot)
		}
	}
	return out, nil
}

func (f *fakeLotRepo) UpdateLot(executor repositories.SQLExecutor, lot *models.IngredientLot) error {
	if _, ok := f.lots[lot.ID]; !ok {
		return repositories.ErrNotFound
	}
	f.lots[lot.ID] = lot
	return nil
}

func (f *fakeLotRepo) DeleteLot(executor repositories.SQLExecutor, id int64) error {
	if _, ok := f.lots[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.lots, id)
	return nil
}

func (f *fakeLotRepo) AdjustQuantity(executor repositories.SQLExecutor, lotID int64, delta float64) (*models.IngredientLot, error) {
	lot, ok := f.lots[lotID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	next := lot.CurrentQuantity + delta
	if next < 0 || next > lot.InitialQuantity {
		return nil, fmt.Errorf("%w: lot ID %d, delta %.3f", repositories.ErrInsufficientStock, lotID, delta)
	}
	lot.CurrentQuantity = next
	copied := *lot
	return &copied, nil
}

type fakeMovementRepo struct {
	movements []models.InventoryMovement
}

func (f *fakeMovementRepo) CreateMovement(executor repositories.SQLExecutor, movement *models.InventoryMovement) (int64, error) {
	movement.ID = int64(len(f.movements) + 1)
	f.movements = append(f.movements, *movement)
	return movement.ID, nil
}

func (f *fakeMovementRepo) GetMovements(filters repositories.MovementFilters, page, pageSize int) ([]models.InventoryMovement, int, error) {
	return f.movements, len(f.movements), nil
}

type fakeIngredientRepo struct {
	ingredients map[int64]*models.Ingredient
}

func (f *fakeIngredientRepo) CreateIngredient(executor repositories.SQLExecutor, ing *models.Ingredient) (int64, error) {
	f.ingredients[ing.ID] = ing
	return ing.ID, nil
}

func (f *fakeIngredientRepo) GetIngredientByID(id int64) (*models.Ingredient, error) {
	ing, ok := f.ingredients[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return ing, nil
}

func (f *fakeIngredientRepo) GetIngredients(category *string, search *string, page, pageSize int) ([]models.Ingredient, int, error) {
	return nil, 0, nil
}

func (f *fakeIngredientRepo) UpdateIngredient(executor repositories.SQLExecutor, ing *models.Ingredient) error {
	f.ingredients[ing.ID] = ing
	return nil
}

func (f *fakeIngredientRepo) DeleteIngredient(executor repositories.SQLExecutor, id int64) error {
	delete(f.ingredients, id)
	return nil
}

func (f *fakeIngredientRepo) GetStockLevels() ([]models.StockLevel, error) {
	return nil, nil
}

type fakeTemplateRepo struct {
	templates map[int64]*models.ProductionTemplate
}

func (f *fakeTemplateRepo) CreateTemplate(executor repositories.SQLExecutor, tpl *models.ProductionTemplate) (int64, error) {
	f.templates[tpl.ID] = tpl
	return tpl.ID, nil
}

func (f *fakeTemplateRepo) GetTemplateByID(id int64) (*models.ProductionTemplate, error) {
	tpl, ok := f.templates[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return tpl, nil
}

func (f *fakeTemplateRepo) GetTemplates(page, pageSize int) ([]models.ProductionTemplate, int, error) {
	return nil, 0, nil
}

func (f *fakeTemplateRepo) UpdateTemplate(executor repositories.SQLExecutor, tpl *models.ProductionTemplate) error {
	if _, ok := f.templates[tpl.ID]; !ok {
		return repositories.ErrNotFound
	}
	f.templates[tpl.ID] = tpl
	return nil
}

func (f *fakeTemplateRepo) DeleteTemplate(executor repositories.SQLExecutor, id int64) error {
	if _, ok := f.templates[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.templates, id)
	return nil
}

func (f *fakeTemplateRepo) ReplaceLines(executor repositories.SQLExecutor, templateID int64, lines []models.TemplateLine) error {
	if tpl, ok := f.templates[templateID]; ok {
		tpl.Lines = lines
	}
	return nil
}

func (f *fakeTemplateRepo) GetTemplateLines(templateID int64) ([]models.TemplateLine, error) {
	tpl, ok := f.templates[templateID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return tpl.Lines, nil
}

type fakeHaccpRepo struct {
	nextID       int64
	tempLogs     map[int64]*models.HaccpTemperatureLog
	cleaningLogs map[int64]*models.HaccpCleaningLog
}

func newFakeHaccpRepo() *fakeHaccpRepo {
	return &fakeHaccpRepo{
		tempLogs:     map[int64]*models.HaccpTemperatureLog{},
		cleaningLogs: map[int64]*models.HaccpCleaningLog{},
	}
}

func (f *fakeHaccpRepo) CreateTemperatureLog(executor repositories.SQLExecutor, log *models.HaccpTemperatureLog) (int64, error) {
	f.nextID++
	log.ID = f.nextID
	log.Status = models.HaccpStatusRecorded
	if log.RecordedAt.IsZero() {
		log.RecordedAt = time.Now()
	}
	copied := *log
	f.tempLogs[log.ID] = &copied
	return log.ID, nil
}

func (f *fakeHaccpRepo) GetTemperatureLogs(filters repositories.HaccpFilters, page, pageSize int) ([]models.HaccpTemperatureLog, int, error) {
	out := []models.HaccpTemperatureLog{}
	for _, log := range f.tempLogs {
		if !filters.IncludeVoided && log.Status != models.HaccpStatusRecorded {
			continue
		}
		out = append(out, *log)
	}
	return out, len(out), nil
}

func (f *fakeHaccpRepo) VoidTemperatureLog(executor repositories.SQLExecutor, id int64, reason string) error {
	log, ok := f.tempLogs[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if log.Status != models.HaccpStatusRecorded {
		return repositories.ErrVoided
	}
	log.Status = models.HaccpStatusVoided
	log.VoidReason = &reason
	return nil
}

func (f *fakeHaccpRepo) CreateCleaningLog(executor repositories.SQLExecutor, log *models.HaccpCleaningLog) (int64, error) {
	f.nextID++
	log.ID = f.nextID
	log.Status = models.HaccpStatusRecorded
	if log.RecordedAt.IsZero() {
		log.RecordedAt = time.Now()
	}
	copied := *log
	f.cleaningLogs[log.ID] = &copied
	return log.ID, nil
}

func (f *fakeHaccpRepo) GetCleaningLogs(filters repositories.HaccpFilters, page, pageSize int) ([]models.HaccpCleaningLog, int, error) {
	out := []models.HaccpCleaningLog{}
	for _, log := range f.cleaningLogs {
		if !filters.IncludeVoided && log.Status != models.HaccpStatusRecorded {
			continue
		}
		out = append(out, *log)
	}
	return out, len(out), nil
}

func (f *fakeHaccpRepo) VoidCleaningLog(executor repositories.SQLExecutor, id int64, reason string) error {
	log, ok := f.cleaningLogs[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if log.Status != models.HaccpStatusRecorded {
		return repositories.ErrVoided
	}
	log.Status = models.HaccpStatusVoided
	log.VoidReason = &reason
	return nil
}

func (f *fakeHaccpRepo) CountTemperatureLogsOnDay(equipment string, day time.Time) (int, error) {
	count := 0
	dayKey := day.Format("2006-01-02")
	for _, log := range f.tempLogs {
		if log.Status != models.HaccpStatusRecorded || log.Equipment != equipment {
			continue
		}
		at := log.RecordedAt
		if log.ReferenceDate != nil {
			at = *log.ReferenceDate
		}
		if at.Format("2006-01-02") == dayKey {
			count++
		}
	}
	return count, nil
}

func (f *fakeHaccpRepo) CountCleaningLogsOnDay(area, task string, day time.Time) (int, error) {
	count := 0
	dayKey := day.Format("2006-01-02")
	for _, log := range f.cleaningLogs {
		if log.Status != models.HaccpStatusRecorded || log.Area != area || log.Task != task {
			continue
		}
		at := log.RecordedAt
		if log.ReferenceDate != nil {
			at = *log.ReferenceDate
		}
		if at.Format("2006-01-02") == dayKey {
			count++
		}
	}
	return count, nil
}
