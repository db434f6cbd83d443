package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Storage modes for ingredients and lots.
const (
	StorageAmbient      = "ambient"
	StorageRefrigerated = "refrigerated"
	StorageFrozen       = "frozen"
)

// Ingredient represents a raw material in the catalog.
type Ingredient struct {
	ID                int64     `json:"id" db:"id"`
	Name              string    `json:"name" db:"name" binding:"required"`
	Category          *string   `json:"category,omitempty" db:"category"`
	DefaultSupplier   *string   `json:"default_supplier,omitempty" db:"default_supplier"`
	Unit              string    `json:"unit" db:"unit" binding:"required"`
	StorageMode       string    `json:"storage_mode" db:"storage_mode"`
	Allergens         *string   `json:"allergens,omitempty" db:"allergens"`
	MinStockThreshold *float64  `json:"min_stock_threshold,omitempty" db:"min_stock_threshold"`
	PhotoURL          *string   `json:"photo_url,omitempty" db:"photo_url"`
	Notes             *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// Product represents a finished good that can be produced and sold.
type Product struct {
	ID          int64            `json:"id" db:"id"`
	Name        string           `json:"name" db:"name" binding:"required"`
	ProductType *string          `json:"product_type,omitempty" db:"product_type"`
	SaleUnit    string           `json:"sale_unit" db:"sale_unit" binding:"required"`
	SalePrice   *decimal.Decimal `json:"sale_price,omitempty" db:"sale_price"`
	Notes       *string          `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" db:"updated_at"`
}

// PriceRecord is one purchase price observation for an ingredient.
// Rows are append-only: the current price of an ingredient is the most
// recent record by purchase date, and records are never mutated.
type PriceRecord struct {
	ID                int64           `json:"id" db:"id"`
	IngredientID      int64           `json:"ingredient_id" db:"ingredient_id" binding:"required"`
	PurchaseDate      time.Time       `json:"purchase_date" db:"purchase_date"`
	Supplier          *string         `json:"supplier,omitempty" db:"supplier"`
	PricePerUnit      decimal.Decimal `json:"price_per_unit" db:"price_per_unit"`
	DocumentReference *string         `json:"document_reference,omitempty" db:"document_reference"`
	DocumentPhotoURL  *string         `json:"document_photo_url,omitempty" db:"document_photo_url"`
	Notes             *string         `json:"notes,omitempty" db:"notes"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	Ingredient        *Ingredient     `json:"ingredient,omitempty"` // For joining with Ingredient
}

// StockLevel is a read view of an ingredient's on-hand quantity, computed
// as the signed sum of its inventory movements.
type StockLevel struct {
	IngredientID      int64    `json:"ingredient_id"`
	IngredientName    string   `json:"ingredient_name"`
	Unit              string   `json:"unit"`
	OnHand            float64  `json:"on_hand"`
	MinStockThreshold *float64 `json:"min_stock_threshold,omitempty"`
	BelowThreshold    bool     `json:"below_threshold"`
}
