package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PrinterProfile describes one printer model for depreciation purposes. The
// engine never mutates it.
type PrinterProfile struct {
	ID                    uuid.UUID
	Name                  string
	PurchasePrice         decimal.Decimal
	ExpectedLifetimeHours decimal.Decimal
	CreatedAt             time.Time
}

// HourlyDepreciation is purchase price spread over the expected lifetime.
func (p *PrinterProfile) HourlyDepreciation() decimal.Decimal {
	if p.ExpectedLifetimeHours.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return p.PurchasePrice.Div(p.ExpectedLifetimeHours)
}

type CreatePrinterParams struct {
	Name                  string
	PurchasePrice         decimal.Decimal
	ExpectedLifetimeHours decimal.Decimal
}
