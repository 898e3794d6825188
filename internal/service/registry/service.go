package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"github.com/jnardiello/printfarmhq-sub002/internal/model"
	"github.com/jnardiello/printfarmhq-sub002/internal/repository/pg"
	"github.com/jnardiello/printfarmhq-sub002/platform/logger"
)

const (
	maxIdentityRunes = 100

	createRetryAttempts = 3
	createRetryBackoff  = 50 * time.Millisecond
)

type MaterialRepository interface {
	Insert(ctx context.Context, q pg.Querier, m *model.Material) (uuid.UUID, error)
	ByID(ctx context.Context, q pg.Querier, id uuid.UUID) (*model.Material, error)
	ByIdentity(ctx context.Context, q pg.Querier, color, brand, composition string) (*model.Material, error)
	List(ctx context.Context, q pg.Querier) ([]model.Material, error)
	Delete(ctx context.Context, q pg.Querier, id uuid.UUID) error
}

type Ledger interface {
	PostPurchaseTx(ctx context.Context, q pg.Querier, m *model.Material, params model.PurchaseParams) error
	PostPurchase(ctx context.Context, materialID uuid.UUID, params model.PurchaseParams) (*model.Material, error)
	DeletePurchase(ctx context.Context, eventID uuid.UUID) (*model.Material, error)
	Purchases(ctx context.Context, materialID uuid.UUID) ([]model.PurchaseEvent, error)
}

type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, q pg.Querier) error) error
	Q() pg.Querier
}

// service is the material registry: identity, creation, and deletion of
// material rows. All cost and quantity movement is delegated to the ledger.
type service struct {
	repo   MaterialRepository
	ledger Ledger
	txm    TxManager
}

func NewRegistryService(repo MaterialRepository, ledger Ledger, txm TxManager) *service {
	return &service{repo: repo, ledger: ledger, txm: txm}
}

// CreateMaterial registers a material, optionally with its first purchase in
// the same transaction. An existing identity tuple is reported as a value,
// not an error: the caller gets the existing row back untouched.
func (svc *service) CreateMaterial(ctx context.Context, params model.CreateMaterialParams) (*model.CreateMaterialResult, error) {
	const op = "registry.service.CreateMaterial"
	log := logger.With(
		logger.String("color", params.Color),
		logger.String("brand", params.Brand),
		logger.String("composition", params.Composition),
	)

	if err := validateCreate(params); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	existing, err := svc.repo.ByIdentity(ctx, svc.txm.Q(), params.Color, params.Brand, params.Composition)
	if err != nil && !errors.Is(err, model.ErrMaterialNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if existing != nil {
		return &model.CreateMaterialResult{
			Material:      existing,
			AlreadyExists: true,
			Warnings:      warningsFor(existing),
		}, nil
	}

	// Two concurrent creates of the same tuple race past the lookup above;
	// the partial unique index breaks the tie. The loser re-reads the row
	// the winner committed and reports AlreadyExists.
	var result *model.CreateMaterialResult
	backoff := retry.WithMaxRetries(createRetryAttempts, retry.NewConstant(createRetryBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		created, insertErr := svc.insertOnce(ctx, params)
		if insertErr == nil {
			result = created
			return nil
		}

		if !pg.IsUniqueViolation(insertErr) {
			return insertErr
		}

		winner, lookupErr := svc.repo.ByIdentity(ctx, svc.txm.Q(), params.Color, params.Brand, params.Composition)
		if lookupErr == nil {
			result = &model.CreateMaterialResult{
				Material:      winner,
				AlreadyExists: true,
				Warnings:      warningsFor(winner),
			}
			return nil
		}
		if errors.Is(lookupErr, model.ErrMaterialNotFound) {
			// Winner rolled back between our insert and the re-read.
			return retry.RetryableError(model.ErrDuplicateRace)
		}
		return lookupErr
	})
	if err != nil {
		log.Error(ctx, "create material", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info(ctx, "material created",
		logger.String("material_id", result.Material.ID.String()),
		logger.Bool("already_exists", result.AlreadyExists),
	)

	return result, nil
}

func (svc *service) insertOnce(ctx context.Context, params model.CreateMaterialParams) (*model.CreateMaterialResult, error) {
	m := &model.Material{
		Color:               params.Color,
		Brand:               params.Brand,
		Composition:         params.Composition,
		UnitCost:            params.EstimatedCostPerKg,
		OnHandKg:            decimal.Zero,
		LowStockThresholdKg: params.LowStockThresholdKg,
		Tracked:             false,
	}

	err := svc.txm.WithTx(ctx, func(ctx context.Context, q pg.Querier) error {
		id, err := svc.repo.Insert(ctx, q, m)
		if err != nil {
			return err
		}
		m.ID = id

		if params.Purchase != nil {
			return svc.ledger.PostPurchaseTx(ctx, q, m, *params.Purchase)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &model.CreateMaterialResult{
		Material: m,
		Warnings: warningsFor(m),
	}, nil
}

// RecordPurchase posts an acquisition against an existing material.
func (svc *service) RecordPurchase(ctx context.Context, materialID uuid.UUID, params model.PurchaseParams) (*model.Material, error) {
	return svc.ledger.PostPurchase(ctx, materialID, params)
}

// DeletePurchase removes an acquisition event and replays the history.
func (svc *service) DeletePurchase(ctx context.Context, eventID uuid.UUID) (*model.Material, error) {
	return svc.ledger.DeletePurchase(ctx, eventID)
}

func (svc *service) Purchases(ctx context.Context, materialID uuid.UUID) ([]model.PurchaseEvent, error) {
	return svc.ledger.Purchases(ctx, materialID)
}

func (svc *service) Material(ctx context.Context, id uuid.UUID) (*model.Material, error) {
	const op = "registry.service.Material"

	m, err := svc.repo.ByID(ctx, svc.txm.Q(), id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return m, nil
}

func (svc *service) Materials(ctx context.Context) ([]model.Material, error) {
	const op = "registry.service.Materials"

	list, err := svc.repo.List(ctx, svc.txm.Q())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return list, nil
}

// DeleteMaterial removes a material. The database rejects the delete while
// any product BOM or job deduction set still references it.
func (svc *service) DeleteMaterial(ctx context.Context, id uuid.UUID) error {
	const op = "registry.service.DeleteMaterial"

	if err := svc.repo.Delete(ctx, svc.txm.Q(), id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Info(ctx, "material deleted", logger.String("material_id", id.String()))
	return nil
}

func validateCreate(params model.CreateMaterialParams) error {
	for _, f := range []struct {
		name, value string
	}{
		{"color", params.Color},
		{"brand", params.Brand},
		{"composition", params.Composition},
	} {
		if strings.TrimSpace(f.value) == "" {
			return &model.ValidationError{Field: f.name, Reason: "must not be empty"}
		}
		if utf8.RuneCountInString(f.value) > maxIdentityRunes {
			return &model.ValidationError{Field: f.name, Reason: "too long"}
		}
		if strings.ContainsFunc(f.value, unicode.IsControl) {
			return &model.ValidationError{Field: f.name, Reason: "must not contain control characters"}
		}
	}

	if params.EstimatedCostPerKg.LessThanOrEqual(decimal.Zero) {
		return &model.ValidationError{Field: "estimated_cost_per_kg", Reason: "must be positive"}
	}
	if params.LowStockThresholdKg != nil && params.LowStockThresholdKg.IsNegative() {
		return &model.ValidationError{Field: "low_stock_threshold_kg", Reason: "must not be negative"}
	}

	if params.Purchase != nil {
		if params.Purchase.QuantityKg.LessThanOrEqual(decimal.Zero) {
			return &model.ValidationError{Field: "quantity_kg", Reason: "must be positive"}
		}
		if params.Purchase.PricePerKg.LessThanOrEqual(decimal.Zero) {
			return &model.ValidationError{Field: "price_per_kg", Reason: "must be positive"}
		}
	}

	return nil
}

func warningsFor(m *model.Material) []string {
	var warnings []string
	if !m.Tracked {
		warnings = append(warnings, model.WarningNoTrackedInventory)
	}
	if m.LowStock() {
		warnings = append(warnings, model.WarningLowStock)
	}
	return warnings
}
