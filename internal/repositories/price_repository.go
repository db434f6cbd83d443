package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gelateria_backend/internal/models"

	"github.com/shopspring/decimal"
)

// PriceRepository defines the interface for the append-only purchase price history.
// There is deliberately no update method: a price is superseded by inserting a
// newer record, never by mutating an existing one.
type PriceRepository interface {
	CreatePriceRecord(executor SQLExecutor, rec *models.PriceRecord) (int64, error)
	GetPriceRecordByID(id int64) (*models.PriceRecord, error)
	GetPriceRecordsByIngredient(ingredientID int64, page, pageSize int) ([]models.PriceRecord, int, error)
	GetLatestPrice(ingredientID int64) (decimal.Decimal, bool, error)
	DeletePriceRecord(executor SQLExecutor, id int64) error
}

type priceRepository struct {
	db *sql.DB
}

// NewPriceRepository creates a new instance of PriceRepository.
func NewPriceRepository(db *sql.DB) PriceRepository {
	return &priceRepository{db: db}
}

func (r *priceRepository) CreatePriceRecord(executor SQLExecutor, rec *models.PriceRecord) (int64, error) {
	query := `INSERT INTO price_records
	          (ingredient_id, purchase_date, supplier, price_per_unit, document_reference, document_photo_url, notes, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	if rec.PurchaseDate.IsZero() {
		rec.PurchaseDate = time.Now()
	}
	err := executor.QueryRow(query,
		rec.IngredientID, rec.PurchaseDate, rec.Supplier, rec.PricePerUnit,
		rec.DocumentReference, rec.DocumentPhotoURL, rec.Notes, time.Now(),
	).Scan(&rec.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating price record: %v", ErrDatabaseError, err)
	}
	return rec.ID, nil
}

func (r *priceRepository) GetPriceRecordByID(id int64) (*models.PriceRecord, error) {
	rec := &models.PriceRecord{}
	query := `SELECT id, ingredient_id, purchase_date, supplier, price_per_unit,
	            document_reference, document_photo_url, notes, created_at
	          FROM price_records WHERE id = $1`
	err := r.db.QueryRow(query, id).Scan(
		&rec.ID, &rec.IngredientID, &rec.PurchaseDate, &rec.Supplier, &rec.PricePerUnit,
		&rec.DocumentReference, &rec.DocumentPhotoURL, &rec.Notes, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting price record by ID %d: %v", ErrDatabaseError, id, err)
	}
	return rec, nil
}

func (r *priceRepository) GetPriceRecordsByIngredient(ingredientID int64, page, pageSize int) ([]models.PriceRecord, int, error) {
	records := []models.PriceRecord{}
	totalCount := 0
	query := `SELECT id, ingredient_id, purchase_date, supplier, price_per_unit,
	            document_reference, document_photo_url, notes, created_at,
	            COUNT(*) OVER() AS total_count
	          FROM price_records
	          WHERE ingredient_id = $1
	          ORDER BY purchase_date DESC
	          LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(query, ingredientID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting price records: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec models.PriceRecord
		if err := rows.Scan(
			&rec.ID, &rec.IngredientID, &rec.PurchaseDate, &rec.Supplier, &rec.PricePerUnit,
			&rec.DocumentReference, &rec.DocumentPhotoURL, &rec.Notes, &rec.CreatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning price record: %v", ErrDatabaseError, err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating price records: %v", ErrDatabaseError, err)
	}
	return records, totalCount, nil
}

// GetLatestPrice returns the most recent price per unit for an ingredient and
// whether any price record exists. No record is not an error: callers treat
// the (zero, false) result as "unpriced".
func (r *priceRepository) GetLatestPrice(ingredientID int64) (decimal.Decimal, bool, error) {
	var price decimal.Decimal
	query := `SELECT price_per_unit FROM price_records
	          WHERE ingredient_id = $1
	          ORDER BY purchase_date DESC
	          LIMIT 1`
	err := r.db.QueryRow(query, ingredientID).Scan(&price)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("%w: getting latest price for ingredient %d: %v", ErrDatabaseError, ingredientID, err)
	}
	return price, true, nil
}

func (r *priceRepository) DeletePriceRecord(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM price_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting price record ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
