package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LowStockEvent is published when a ledger mutation takes a material to or
// below its threshold.
type LowStockEvent struct {
	EventID     uuid.UUID
	MaterialID  uuid.UUID
	Color       string
	Brand       string
	Composition string
	OnHandKg    decimal.Decimal
	ThresholdKg decimal.Decimal
	OccurredAt  time.Time
}

// JobFinishedEvent is consumed from printer agents; it drives the
// pending/in-progress -> completed transition.
type JobFinishedEvent struct {
	EventID    uuid.UUID
	JobID      uuid.UUID
	FinishedAt time.Time
}
