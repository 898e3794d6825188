package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrValidation        = errors.New("validation error")              // 400
	ErrMaterialNotFound  = errors.New("material not found")            // 404
	ErrPurchaseNotFound  = errors.New("purchase event not found")      // 404
	ErrProductNotFound   = errors.New("product not found")             // 404
	ErrPrinterNotFound   = errors.New("printer profile not found")     // 404
	ErrJobNotFound       = errors.New("print job not found")           // 404
	ErrJobConflict       = errors.New("job status conflict")           // 409
	ErrMaterialInUse     = errors.New("material is referenced")        // 409
	ErrProductExists     = errors.New("product sku already exists")    // 409
	ErrProductInUse      = errors.New("product is referenced")         // 409
	ErrInsufficientStock = errors.New("insufficient stock")            // 422
	ErrDanglingReference = errors.New("referenced entity missing")     // 422
	ErrUnknownStatus     = errors.New("unknown status")                // 500
	ErrDuplicateRace     = errors.New("duplicate creation unresolved") // 503
)

// Shortfall names one material a stock check failed on.
type Shortfall struct {
	MaterialID uuid.UUID
	Name       string
	RequiredKg decimal.Decimal
	OnHandKg   decimal.Decimal
}

func (s Shortfall) ShortKg() decimal.Decimal {
	return s.RequiredKg.Sub(s.OnHandKg)
}

// InsufficientStockError carries every offending material so the caller can
// report all shortfalls at once instead of failing on the first.
type InsufficientStockError struct {
	Shortfalls []Shortfall
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("%s: need %s kg, have %s kg",
			s.Name, s.RequiredKg.StringFixed(3), s.OnHandKg.StringFixed(3)))
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// ValidationError reports the offending field alongside the sentinel.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
