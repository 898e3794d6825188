package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type JobStatus string

const (
	StatusPending    JobStatus = "PENDING"
	StatusInProgress JobStatus = "IN_PROGRESS"
	StatusCompleted  JobStatus = "COMPLETED"
	StatusCancelled  JobStatus = "CANCELLED"
)

// Terminal reports whether no further transitions are allowed.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type JobProduct struct {
	ProductID uuid.UUID
	Quantity  int64
}

type JobPrinter struct {
	PrinterProfileID uuid.UUID
	HoursUsed        decimal.Decimal
	Units            int64
}

// Deduction is one material quantity a job has claimed from the ledger. The
// persisted deduction set is the single source of truth for restoration: a
// cancel/delete replays exactly these rows, never the current BOM.
type Deduction struct {
	MaterialID uuid.UUID
	QuantityKg decimal.Decimal
}

type PrintJob struct {
	ID            uuid.UUID
	Status        JobStatus
	Products      []JobProduct
	Printers      []JobPrinter
	PackagingCost decimal.Decimal

	// COGS is a snapshot taken at create/update time; Complete never
	// recomputes it.
	COGS decimal.Decimal

	// Deducted marks that Deductions are currently claimed against the
	// ledger and have not been restored.
	Deducted   bool
	Deductions []Deduction

	CreatedAt time.Time
	UpdatedAt time.Time
}

type CreateJobParams struct {
	Products      []JobProduct
	Printers      []JobPrinter
	PackagingCost decimal.Decimal
}

// UpdateJobParams carries the full new composition; the coordinator turns it
// into a per-material delta against the job's current deduction set.
type UpdateJobParams struct {
	Products      []JobProduct
	Printers      []JobPrinter
	PackagingCost decimal.Decimal
}

type CreateJobResult struct {
	ID   uuid.UUID
	COGS decimal.Decimal

	// LowStockMaterials lists materials the creation pushed to or below
	// their threshold. Advisory only.
	LowStockMaterials []uuid.UUID
}
