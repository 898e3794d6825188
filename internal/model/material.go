package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Material is a raw filament type identified by the (color, brand,
// composition) tuple. UnitCost is the weighted average over the purchase
// history; it is a cache maintained by the ledger, never edited directly.
type Material struct {
	ID          uuid.UUID
	Color       string
	Brand       string
	Composition string

	// UnitCost is money per kilogram. Before the first purchase it holds the
	// planning estimate and Tracked is false.
	UnitCost            decimal.Decimal
	OnHandKg            decimal.Decimal
	LowStockThresholdKg *decimal.Decimal
	Tracked             bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// LowStock reports whether on-hand quantity is at or below the threshold.
func (m *Material) LowStock() bool {
	if m.LowStockThresholdKg == nil {
		return false
	}
	return m.OnHandKg.LessThanOrEqual(*m.LowStockThresholdKg)
}

// PurchaseEvent is an immutable acquisition record. Corrections are new
// events or explicit deletions replayed by the ledger, never in-place edits.
type PurchaseEvent struct {
	ID         uuid.UUID
	MaterialID uuid.UUID
	QuantityKg decimal.Decimal
	PricePerKg decimal.Decimal
	AcquiredAt time.Time
	Channel    string
	Notes      string
	CreatedAt  time.Time
}

type PurchaseParams struct {
	QuantityKg decimal.Decimal
	PricePerKg decimal.Decimal
	AcquiredAt time.Time
	Channel    string
	Notes      string
}

type CreateMaterialParams struct {
	Color               string
	Brand               string
	Composition         string
	EstimatedCostPerKg  decimal.Decimal
	LowStockThresholdKg *decimal.Decimal

	// Purchase, when set, records the first stock atomically with the
	// material row.
	Purchase *PurchaseParams
}

// Advisory warnings returned inline from create/update calls.
const (
	WarningNoTrackedInventory = "no tracked inventory"
	WarningLowStock           = "low stock"
)

// CreateMaterialResult distinguishes "created" from "already exists" without
// using an error: an identical identity tuple is expected control flow and
// callers may want to reuse the existing row.
type CreateMaterialResult struct {
	Material      *Material
	AlreadyExists bool
	Warnings      []string
}

// StockDelta is an on-hand adjustment for one material. QuantityKg is a
// positive magnitude; the ledger operation decides the direction.
type StockDelta struct {
	MaterialID uuid.UUID
	QuantityKg decimal.Decimal
}
