package services_test

import (
	"testing"

	"gelateria_backend/internal/services"

	"github.com/shopspring/decimal"
)

func TestScaledQuantity(t *testing.T) {
	tests := []struct {
		name         string
		lineQuantity float64
		nominalYield float64
		produced     float64
		want         float64
	}{
		{"same as nominal", 2.5, 10, 10, 2.5},
		{"half batch", 2.5, 10, 5, 1.25},
		{"double batch", 0.3, 6, 12, 0.6},
		{"zero nominal yield", 2.5, 0, 10, 0},
		{"negative nominal yield", 2.5, -4, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := services.ScaledQuantity(tt.lineQuantity, tt.nominalYield, tt.produced)
			if got != tt.want {
				t.Errorf("ScaledQuantity(%v, %v, %v) = %v, want %v", tt.lineQuantity, tt.nominalYield, tt.produced, got, tt.want)
			}
		})
	}
}

func TestScaledQuantity_Linearity(t *testing.T) {
	// Doubling the produced quantity must double every line quantity.
	base := services.ScaledQuantity(1.2, 8, 4)
	doubled := services.ScaledQuantity(1.2, 8, 8)
	if doubled != base*2 {
		t.Errorf("scaling is not linear: %v vs %v", doubled, base*2)
	}
}

func TestLineCost(t *testing.T) {
	price := decimal.RequireFromString("4.50")

	got := services.LineCost(2, price, true)
	if !got.Equal(decimal.RequireFromString("9")) {
		t.Errorf("LineCost(2, 4.50, known) = %s, want 9", got)
	}

	// An unknown price contributes zero instead of blocking the batch.
	got = services.LineCost(2, decimal.Zero, false)
	if !got.IsZero() {
		t.Errorf("LineCost with unknown price = %s, want 0", got)
	}
}

func TestBatchTotals(t *testing.T) {
	lineCosts := []decimal.Decimal{
		decimal.RequireFromString("10.00"),
		decimal.RequireFromString("5.00"),
		decimal.RequireFromString("3.00"),
	}

	t.Run("no overhead", func(t *testing.T) {
		total, unit := services.BatchTotals(lineCosts, nil, 5)
		if !total.Equal(decimal.RequireFromString("18")) {
			t.Errorf("total = %s, want 18", total)
		}
		if !unit.Equal(decimal.RequireFromString("3.6")) {
			t.Errorf("unit cost = %s, want 3.6", unit)
		}
	})

	t.Run("with overhead", func(t *testing.T) {
		overhead := 10.0
		total, unit := services.BatchTotals(lineCosts, &overhead, 5)
		if !total.Equal(decimal.RequireFromString("19.8")) {
			t.Errorf("total with 10%% overhead = %s, want 19.8", total)
		}
		if !unit.Equal(decimal.RequireFromString("3.96")) {
			t.Errorf("unit cost = %s, want 3.96", unit)
		}
	})

	t.Run("zero produced quantity", func(t *testing.T) {
		total, unit := services.BatchTotals(lineCosts, nil, 0)
		if !total.Equal(decimal.RequireFromString("18")) {
			t.Errorf("total = %s, want 18", total)
		}
		if !unit.IsZero() {
			t.Errorf("unit cost with zero produced quantity = %s, want 0", unit)
		}
	})

	t.Run("empty lines", func(t *testing.T) {
		total, unit := services.BatchTotals(nil, nil, 5)
		if !total.IsZero() || !unit.IsZero() {
			t.Errorf("empty batch totals = %s / %s, want 0 / 0", total, unit)
		}
	})
}
