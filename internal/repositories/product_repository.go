package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gelateria_backend/internal/models"
)

// ProductRepository defines the interface for finished-product database operations.
type ProductRepository interface {
	CreateProduct(executor SQLExecutor, p *models.Product) (int64, error)
	GetProductByID(id int64) (*models.Product, error)
	GetProducts(page, pageSize int) ([]models.Product, int, error)
	UpdateProduct(executor SQLExecutor, p *models.Product) error
	DeleteProduct(executor SQLExecutor, id int64) error
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository.
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) CreateProduct(executor SQLExecutor, p *models.Product) (int64, error) {
	query := `INSERT INTO products (name, product_type, sale_unit, sale_price, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRow(query,
		p.Name, p.ProductType, p.SaleUnit, p.SalePrice, p.Notes, currentTime, currentTime,
	).Scan(&p.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating product: %v", ErrDatabaseError, err)
	}
	return p.ID, nil
}

func (r *productRepository) GetProductByID(id int64) (*models.Product, error) {
	p := &models.Product{}
	query := `SELECT id, name, product_type, sale_unit, sale_price, notes, created_at, updated_at
	          FROM products WHERE id = $1`
	err := r.db.QueryRow(query, id).Scan(
		&p.ID, &p.Name, &p.ProductType, &p.SaleUnit, &p.SalePrice, &p.Notes, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting product by ID %d: %v", ErrDatabaseError, id, err)
	}
	return p, nil
}

func (r *productRepository) GetProducts(page, pageSize int) ([]models.Product, int, error) {
	products := []models.Product{}
	totalCount := 0
	query := `SELECT id, name, product_type, sale_unit, sale_price, notes, created_at, updated_at,
	            COUNT(*) OVER() AS total_count
	          FROM products
	          ORDER BY name
	          LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.ProductType, &p.SaleUnit, &p.SalePrice, &p.Notes, &p.CreatedAt, &p.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating products: %v", ErrDatabaseError, err)
	}
	return products, totalCount, nil
}

func (r *productRepository) UpdateProduct(executor SQLExecutor, p *models.Product) error {
	query := `UPDATE products SET name = $1, product_type = $2, sale_unit = $3, sale_price = $4, notes = $5, updated_at = $6
	          WHERE id = $7`
	result, err := executor.Exec(query, p.Name, p.ProductType, p.SaleUnit, p.SalePrice, p.Notes, time.Now(), p.ID)
	if err != nil {
		return fmt.Errorf("%w: updating product ID %d: %v", ErrDatabaseError, p.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) DeleteProduct(executor SQLExecutor, id int64) error {
	var count int
	checkQuery := `SELECT (SELECT COUNT(*) FROM recipes WHERE product_id = $1)
	             + (SELECT COUNT(*) FROM production_batches WHERE product_id = $1)`
	if err := r.db.QueryRow(checkQuery, id).Scan(&count); err != nil {
		return fmt.Errorf("%w: checking product references for ID %d: %v", ErrDatabaseError, id, err)
	}
	if count > 0 {
		return fmt.Errorf("%w: product is referenced by recipes or production batches", ErrDuplicateKey)
	}

	result, err := executor.Exec(`DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting product ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
