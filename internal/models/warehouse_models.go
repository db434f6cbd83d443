package models

import "time"

// Movement directions for the inventory ledger.
const (
	MovementInbound  = "inbound"
	MovementOutbound = "outbound"
)

// IngredientLot is a specific delivered batch of one ingredient, tracked
// separately for expiry and traceability. CurrentQuantity is the only mutable
// field and must stay within [0, InitialQuantity]; all writers go through the
// lot allocator so every change is paired with a movement row.
type IngredientLot struct {
	ID              int64       `json:"id" db:"id"`
	IngredientID    int64       `json:"ingredient_id" db:"ingredient_id" binding:"required"`
	LotCode         string      `json:"lot_code" db:"lot_code" binding:"required"`
	Supplier        *string     `json:"supplier,omitempty" db:"supplier"`
	DeliveryDate    *time.Time  `json:"delivery_date,omitempty" db:"delivery_date"`
	ExpiryDate      *time.Time  `json:"expiry_date,omitempty" db:"expiry_date"`
	InitialQuantity float64     `json:"initial_quantity" db:"initial_quantity" binding:"required,gt=0"`
	CurrentQuantity float64     `json:"current_quantity" db:"current_quantity"`
	Unit            string      `json:"unit" db:"unit" binding:"required"`
	StorageMode     *string     `json:"storage_mode,omitempty" db:"storage_mode"`
	LabelPhotoURL   *string     `json:"label_photo_url,omitempty" db:"label_photo_url"`
	Notes           *string     `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
	Ingredient      *Ingredient `json:"ingredient,omitempty"` // For joining with Ingredient
}

// Exhausted reports whether the lot has been fully drawn down.
// Exhausted lots are retained for traceability, never deleted.
func (l *IngredientLot) Exhausted() bool {
	return l.CurrentQuantity <= 0
}

// Expired reports whether the lot is past its expiry date at the given time.
func (l *IngredientLot) Expired(now time.Time) bool {
	return l.ExpiryDate != nil && l.ExpiryDate.Before(now)
}

// InventoryMovement is one row of the append-only stock ledger. An
// ingredient's on-hand quantity is the signed sum of its movements.
type InventoryMovement struct {
	ID           int64          `json:"id" db:"id"`
	IngredientID int64          `json:"ingredient_id" db:"ingredient_id" binding:"required"`
	LotID        *int64         `json:"lot_id,omitempty" db:"lot_id"`
	Direction    string         `json:"direction" db:"direction" binding:"required,oneof=inbound outbound"`
	Quantity     float64        `json:"quantity" db:"quantity" binding:"required,gt=0"`
	Unit         string         `json:"unit" db:"unit" binding:"required"`
	Cause        *string        `json:"cause,omitempty" db:"cause"`
	MovementDate time.Time      `json:"movement_date" db:"movement_date"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	Ingredient   *Ingredient    `json:"ingredient,omitempty"`
	Lot          *IngredientLot `json:"lot,omitempty"`
}
