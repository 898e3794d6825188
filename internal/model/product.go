package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BOMLine is one bill-of-materials entry: how much of a material one product
// unit consumes.
type BOMLine struct {
	MaterialID uuid.UUID
	QuantityKg decimal.Decimal
	Position   int
}

type Product struct {
	ID                  uuid.UUID
	SKU                 string
	Name                string
	BOM                 []BOMLine
	AdditionalPartsCost decimal.Decimal
	TimeToProduce       time.Duration

	CreatedAt time.Time
	UpdatedAt time.Time
}

type CreateProductParams struct {
	SKU                 string
	Name                string
	BOM                 []BOMLine
	AdditionalPartsCost decimal.Decimal
	TimeToProduce       time.Duration
}

// ProductCost is a product together with its cost of production derived from
// the current material unit costs. COP is computed on read, never stored.
type ProductCost struct {
	Product *Product
	COP     decimal.Decimal
}
