package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jnardiello/printfarmhq-sub002/internal/costing"
	"github.com/jnardiello/printfarmhq-sub002/internal/model"
	"github.com/jnardiello/printfarmhq-sub002/internal/repository/pg"
	"github.com/jnardiello/printfarmhq-sub002/platform/logger"
)

type MaterialRepository interface {
	LockForUpdate(ctx context.Context, q pg.Querier, ids []uuid.UUID) ([]model.Material, error)
	UpdateStockAndCost(ctx context.Context, q pg.Querier, id uuid.UUID, onHandKg, unitCost decimal.Decimal, tracked bool) error
	AdjustOnHand(ctx context.Context, q pg.Querier, id uuid.UUID, deltaKg decimal.Decimal) error
	InsertPurchase(ctx context.Context, q pg.Querier, e *model.PurchaseEvent) (uuid.UUID, error)
	PurchaseByID(ctx context.Context, q pg.Querier, id uuid.UUID) (*model.PurchaseEvent, error)
	DeletePurchase(ctx context.Context, q pg.Querier, id uuid.UUID) error
	PurchasesByMaterial(ctx context.Context, q pg.Querier, materialID uuid.UUID) ([]model.PurchaseEvent, error)
}

type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, q pg.Querier) error) error
	Q() pg.Querier
}

type LowStockNotifier interface {
	NotifyLowStock(ctx context.Context, event model.LowStockEvent) error
}

// service is the material ledger: the single source of truth for on-hand
// quantity and weighted-average unit cost. Purchases are the only operations
// that move the cost; consumption and restoration move quantity only.
type service struct {
	repo     MaterialRepository
	txm      TxManager
	notifier LowStockNotifier
}

func NewLedgerService(repo MaterialRepository, txm TxManager, notifier LowStockNotifier) *service {
	return &service{repo: repo, txm: txm, notifier: notifier}
}

// PostPurchase records an acquisition and folds its price into the weighted
// average. First purchase on an untracked material discards the planning
// estimate.
func (svc *service) PostPurchase(ctx context.Context, materialID uuid.UUID, params model.PurchaseParams) (*model.Material, error) {
	const op = "ledger.service.PostPurchase"
	log := logger.With(
		logger.String("material_id", materialID.String()),
		logger.String("quantity_kg", params.QuantityKg.String()),
	)

	if params.QuantityKg.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%s: %w", op, &model.ValidationError{Field: "quantity_kg", Reason: "must be positive"})
	}
	if params.PricePerKg.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%s: %w", op, &model.ValidationError{Field: "price_per_kg", Reason: "must be positive"})
	}

	var updated *model.Material
	err := svc.txm.WithTx(ctx, func(ctx context.Context, q pg.Querier) error {
		m, err := svc.lockOne(ctx, q, materialID)
		if err != nil {
			return err
		}

		if _, err := svc.repo.InsertPurchase(ctx, q, &model.PurchaseEvent{
			MaterialID: materialID,
			QuantityKg: params.QuantityKg,
			PricePerKg: params.PricePerKg,
			AcquiredAt: params.AcquiredAt,
			Channel:    params.Channel,
			Notes:      params.Notes,
		}); err != nil {
			return err
		}

		newCost := costing.RoundUnitCost(
			costing.WeightedUnitCost(m.OnHandKg, m.UnitCost, params.QuantityKg, params.PricePerKg),
		)
		newOnHand := m.OnHandKg.Add(params.QuantityKg)

		if err := svc.repo.UpdateStockAndCost(ctx, q, materialID, newOnHand, newCost, true); err != nil {
			return err
		}

		m.OnHandKg = newOnHand
		m.UnitCost = newCost
		m.Tracked = true
		updated = m
		return nil
	})
	if err != nil {
		log.Error(ctx, "post purchase", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	svc.notifyIfLow(ctx, updated)

	return updated, nil
}

// DeletePurchase removes an event and recomputes the unit cost by replaying
// the remaining history oldest-first. A weighted average cannot be reversed
// by subtraction once later purchases landed at other prices.
func (svc *service) DeletePurchase(ctx context.Context, eventID uuid.UUID) (*model.Material, error) {
	const op = "ledger.service.DeletePurchase"
	log := logger.With(logger.String("purchase_id", eventID.String()))

	var updated *model.Material
	err := svc.txm.WithTx(ctx, func(ctx context.Context, q pg.Querier) error {
		event, err := svc.repo.PurchaseByID(ctx, q, eventID)
		if err != nil {
			return err
		}

		m, err := svc.lockOne(ctx, q, event.MaterialID)
		if err != nil {
			return err
		}

		newOnHand := m.OnHandKg.Sub(event.QuantityKg)
		if newOnHand.IsNegative() {
			return &model.ValidationError{
				Field:  "quantity_kg",
				Reason: "already consumed stock cannot be un-purchased",
			}
		}

		if err := svc.repo.DeletePurchase(ctx, q, eventID); err != nil {
			return err
		}

		remaining, err := svc.repo.PurchasesByMaterial(ctx, q, event.MaterialID)
		if err != nil {
			return err
		}

		// An emptied history falls back to the last known cost as a
		// planning estimate, untracked again.
		newCost := m.UnitCost
		tracked := false
		if len(remaining) > 0 {
			_, replayed := costing.ReplayUnitCost(remaining)
			newCost = costing.RoundUnitCost(replayed)
			tracked = true
		}

		if err := svc.repo.UpdateStockAndCost(ctx, q, event.MaterialID, newOnHand, newCost, tracked); err != nil {
			return err
		}

		m.OnHandKg = newOnHand
		m.UnitCost = newCost
		m.Tracked = tracked
		updated = m
		return nil
	})
	if err != nil {
		log.Error(ctx, "delete purchase", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}

// ConsumeTx deducts quantities inside the caller's transaction. Rows are
// locked in id order; unless allowNegative is set, every shortfall is
// collected and the whole batch is rejected.
func (svc *service) ConsumeTx(ctx context.Context, q pg.Querier, quantities []model.StockDelta, allowNegative bool) ([]model.Material, error) {
	const op = "ledger.service.ConsumeTx"

	if err := validateDeltas(quantities); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	locked, err := svc.lockAll(ctx, q, quantities)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !allowNegative {
		var shortfalls []model.Shortfall
		for _, d := range quantities {
			m := locked[d.MaterialID]
			if m.OnHandKg.LessThan(d.QuantityKg) {
				shortfalls = append(shortfalls, model.Shortfall{
					MaterialID: m.ID,
					Name:       materialName(m),
					RequiredKg: d.QuantityKg,
					OnHandKg:   m.OnHandKg,
				})
			}
		}
		if len(shortfalls) > 0 {
			return nil, fmt.Errorf("%s: %w", op, &model.InsufficientStockError{Shortfalls: shortfalls})
		}
	}

	out := make([]model.Material, 0, len(quantities))
	for _, d := range quantities {
		if err := svc.repo.AdjustOnHand(ctx, q, d.MaterialID, d.QuantityKg.Neg()); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		m := locked[d.MaterialID]
		m.OnHandKg = m.OnHandKg.Sub(d.QuantityKg)
		out = append(out, *m)
	}

	return out, nil
}

// RestoreTx returns quantities to stock inside the caller's transaction.
// Restoration never implies a purchase: unit cost is untouched.
func (svc *service) RestoreTx(ctx context.Context, q pg.Querier, quantities []model.StockDelta) ([]model.Material, error) {
	const op = "ledger.service.RestoreTx"

	if err := validateDeltas(quantities); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	locked, err := svc.lockAll(ctx, q, quantities)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]model.Material, 0, len(quantities))
	for _, d := range quantities {
		if err := svc.repo.AdjustOnHand(ctx, q, d.MaterialID, d.QuantityKg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		m := locked[d.MaterialID]
		m.OnHandKg = m.OnHandKg.Add(d.QuantityKg)
		out = append(out, *m)
	}

	return out, nil
}

// PostPurchaseTx folds a purchase into an already-locked material inside the
// caller's transaction. Used by the registry's create-with-first-stock path.
func (svc *service) PostPurchaseTx(ctx context.Context, q pg.Querier, m *model.Material, params model.PurchaseParams) error {
	const op = "ledger.service.PostPurchaseTx"

	if params.QuantityKg.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%s: %w", op, &model.ValidationError{Field: "quantity_kg", Reason: "must be positive"})
	}
	if params.PricePerKg.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%s: %w", op, &model.ValidationError{Field: "price_per_kg", Reason: "must be positive"})
	}

	if _, err := svc.repo.InsertPurchase(ctx, q, &model.PurchaseEvent{
		MaterialID: m.ID,
		QuantityKg: params.QuantityKg,
		PricePerKg: params.PricePerKg,
		AcquiredAt: params.AcquiredAt,
		Channel:    params.Channel,
		Notes:      params.Notes,
	}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	newCost := costing.RoundUnitCost(
		costing.WeightedUnitCost(m.OnHandKg, m.UnitCost, params.QuantityKg, params.PricePerKg),
	)
	newOnHand := m.OnHandKg.Add(params.QuantityKg)

	if err := svc.repo.UpdateStockAndCost(ctx, q, m.ID, newOnHand, newCost, true); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	m.OnHandKg = newOnHand
	m.UnitCost = newCost
	m.Tracked = true
	return nil
}

func (svc *service) Purchases(ctx context.Context, materialID uuid.UUID) ([]model.PurchaseEvent, error) {
	const op = "ledger.service.Purchases"

	events, err := svc.repo.PurchasesByMaterial(ctx, svc.txm.Q(), materialID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return events, nil
}

// validateDeltas rejects non-positive quantities and duplicate material ids.
// The sufficiency check in ConsumeTx reads each row's on-hand once, so a
// duplicated id would be validated against un-decremented stock.
func validateDeltas(quantities []model.StockDelta) error {
	seen := make(map[uuid.UUID]struct{}, len(quantities))
	for _, d := range quantities {
		if d.QuantityKg.LessThanOrEqual(decimal.Zero) {
			return &model.ValidationError{Field: "quantity_kg", Reason: "must be positive"}
		}
		if _, dup := seen[d.MaterialID]; dup {
			return &model.ValidationError{Field: "material_id", Reason: "duplicate material"}
		}
		seen[d.MaterialID] = struct{}{}
	}
	return nil
}

func (svc *service) lockOne(ctx context.Context, q pg.Querier, id uuid.UUID) (*model.Material, error) {
	locked, err := svc.repo.LockForUpdate(ctx, q, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(locked) == 0 {
		return nil, model.ErrMaterialNotFound
	}

	m := locked[0]
	return &m, nil
}

func (svc *service) lockAll(ctx context.Context, q pg.Querier, quantities []model.StockDelta) (map[uuid.UUID]*model.Material, error) {
	ids := make([]uuid.UUID, 0, len(quantities))
	for _, d := range quantities {
		ids = append(ids, d.MaterialID)
	}

	locked, err := svc.repo.LockForUpdate(ctx, q, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*model.Material, len(locked))
	for i := range locked {
		byID[locked[i].ID] = &locked[i]
	}

	for _, d := range quantities {
		if _, ok := byID[d.MaterialID]; !ok {
			return nil, model.ErrMaterialNotFound
		}
	}

	return byID, nil
}

func (svc *service) notifyIfLow(ctx context.Context, m *model.Material) {
	if svc.notifier == nil || m == nil || !m.LowStock() {
		return
	}

	event := model.LowStockEvent{
		EventID:     uuid.New(),
		MaterialID:  m.ID,
		Color:       m.Color,
		Brand:       m.Brand,
		Composition: m.Composition,
		OnHandKg:    m.OnHandKg,
		ThresholdKg: *m.LowStockThresholdKg,
		OccurredAt:  time.Now(),
	}

	// Advisory only: a publish failure must not fail the ledger operation.
	if err := svc.notifier.NotifyLowStock(ctx, event); err != nil {
		logger.Warn(ctx, "low stock notify failed",
			logger.String("material_id", m.ID.String()),
			logger.ErrorF(err),
		)
	}
}

func materialName(m *model.Material) string {
	return m.Brand + " " + m.Color + " " + m.Composition
}
