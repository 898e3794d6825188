package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jnardiello/printfarmhq-sub002/internal/costing"
	"github.com/jnardiello/printfarmhq-sub002/internal/model"
	"github.com/jnardiello/printfarmhq-sub002/internal/repository/pg"
	"github.com/jnardiello/printfarmhq-sub002/platform/logger"
)

type JobRepository interface {
	Insert(ctx context.Context, q pg.Querier, job *model.PrintJob) (uuid.UUID, error)
	ByID(ctx context.Context, q pg.Querier, id uuid.UUID) (*model.PrintJob, error)
	LockByID(ctx context.Context, q pg.Querier, id uuid.UUID) (*model.PrintJob, error)
	UpdateStatus(ctx context.Context, q pg.Querier, id uuid.UUID, status model.JobStatus) error
	UpdateCost(ctx context.Context, q pg.Querier, id uuid.UUID, job *model.PrintJob) error
	SetReleased(ctx context.Context, q pg.Querier, id uuid.UUID, status model.JobStatus) error
	ReplaceComposition(ctx context.Context, q pg.Querier, id uuid.UUID, job *model.PrintJob) error
	Delete(ctx context.Context, q pg.Querier, id uuid.UUID) error
}

type ProductRepository interface {
	ByIDs(ctx context.Context, q pg.Querier, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error)
}

type PrinterRepository interface {
	ByIDs(ctx context.Context, q pg.Querier, ids []uuid.UUID) (map[uuid.UUID]*model.PrinterProfile, error)
}

// Ledger is the stock side of the coordinator: all quantity movement for jobs
// goes through it, inside the job's own transaction.
type Ledger interface {
	ConsumeTx(ctx context.Context, q pg.Querier, quantities []model.StockDelta, allowNegative bool) ([]model.Material, error)
	RestoreTx(ctx context.Context, q pg.Querier, quantities []model.StockDelta) ([]model.Material, error)
}

type MaterialRepository interface {
	UnitCosts(ctx context.Context, q pg.Querier, ids []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
}

type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, q pg.Querier) error) error
	Q() pg.Querier
}

type LowStockNotifier interface {
	NotifyLowStock(ctx context.Context, event model.LowStockEvent) error
}

// service coordinates print jobs: stock validation, deduction, COGS snapshot
// and the status state machine. It is the only caller that moves ledger
// quantities on behalf of a job, and it does stock and job writes in one
// transaction so a failure leaves both untouched.
type service struct {
	jobs      JobRepository
	products  ProductRepository
	printers  PrinterRepository
	materials MaterialRepository
	ledger    Ledger
	txm       TxManager
	notifier  LowStockNotifier
}

func NewPrintJobService(
	jobs JobRepository,
	products ProductRepository,
	printers PrinterRepository,
	materials MaterialRepository,
	ledger Ledger,
	txm TxManager,
	notifier LowStockNotifier,
) *service {
	return &service{
		jobs:      jobs,
		products:  products,
		printers:  printers,
		materials: materials,
		ledger:    ledger,
		txm:       txm,
		notifier:  notifier,
	}
}

// Create validates the composition, deducts the required material atomically
// and snapshots COGS. On any failure nothing is deducted and no job exists.
func (svc *service) Create(ctx context.Context, params model.CreateJobParams) (*model.CreateJobResult, error) {
	const op = "printjob.service.Create"

	if err := validateComposition(params.Products, params.Printers, params.PackagingCost); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var (
		result   model.CreateJobResult
		consumed []model.Material
	)
	err := svc.txm.WithTx(ctx, func(ctx context.Context, q pg.Querier) error {
		prods, printers, err := svc.loadComposition(ctx, q, params.Products, params.Printers)
		if err != nil {
			return err
		}

		required := requiredMaterial(params.Products, prods)

		consumed, err = svc.ledger.ConsumeTx(ctx, q, required, false)
		if err != nil {
			return err
		}

		cogs, err := svc.snapshotCOGS(ctx, q, params.Products, params.Printers, params.PackagingCost, prods, printers)
		if err != nil {
			return err
		}

		job := &model.PrintJob{
			Status:        model.StatusPending,
			Products:      params.Products,
			Printers:      params.Printers,
			PackagingCost: params.PackagingCost,
			COGS:          cogs,
			Deducted:      true,
			Deductions:    toDeductions(required),
		}

		id, err := svc.jobs.Insert(ctx, q, job)
		if err != nil {
			return err
		}

		result.ID = id
		result.COGS = cogs
		return nil
	})
	if err != nil {
		logger.Error(ctx, "create job", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result.LowStockMaterials = svc.notifyLow(ctx, consumed)

	logger.Info(ctx, "job created",
		logger.String("job_id", result.ID.String()),
		logger.String("cogs", result.COGS.StringFixed(costing.MoneyScale)),
	)

	return &result, nil
}

// Update replaces the composition of a live job. The stock movement is the
// per-material net delta against the persisted deduction set: only increases
// are validated, decreases are restored, and a material that merely moved
// between products is not touched at all.
func (svc *service) Update(ctx context.Context, id uuid.UUID, params model.UpdateJobParams) (*model.PrintJob, error) {
	const op = "printjob.service.Update"
	log := logger.With(logger.String("job_id", id.String()))

	if err := validateComposition(params.Products, params.Printers, params.PackagingCost); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var (
		updated  *model.PrintJob
		consumed []model.Material
	)
	err := svc.txm.WithTx(ctx, func(ctx context.Context, q pg.Querier) error {
		job, err := svc.jobs.LockByID(ctx, q, id)
		if err != nil {
			return err
		}
		if job.Status.Terminal() || !job.Deducted {
			return fmt.Errorf("status %s: %w", job.Status, model.ErrJobConflict)
		}

		prods, printers, err := svc.loadComposition(ctx, q, params.Products, params.Printers)
		if err != nil {
			return err
		}

		required := requiredMaterial(params.Products, prods)
		increases, decreases := deductionDelta(job.Deductions, required)

		if len(increases) > 0 {
			consumed, err = svc.ledger.ConsumeTx(ctx, q, increases, false)
			if err != nil {
				return err
			}
		}
		if len(decreases) > 0 {
			if _, err := svc.ledger.RestoreTx(ctx, q, decreases); err != nil {
				return err
			}
		}

		cogs, err := svc.snapshotCOGS(ctx, q, params.Products, params.Printers, params.PackagingCost, prods, printers)
		if err != nil {
			return err
		}

		job.Products = params.Products
		job.Printers = params.Printers
		job.PackagingCost = params.PackagingCost
		job.COGS = cogs
		job.Deductions = toDeductions(required)

		if err := svc.jobs.ReplaceComposition(ctx, q, id, job); err != nil {
			return err
		}
		if err := svc.jobs.UpdateCost(ctx, q, id, job); err != nil {
			return err
		}

		updated = job
		return nil
	})
	if err != nil {
		log.Error(ctx, "update job", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	svc.notifyLow(ctx, consumed)

	log.Info(ctx, "job updated", logger.String("cogs", updated.COGS.StringFixed(costing.MoneyScale)))
	return updated, nil
}

// Start moves a pending job to in-progress.
func (svc *service) Start(ctx context.Context, id uuid.UUID) error {
	const op = "printjob.service.Start"

	err := svc.transition(ctx, id, model.StatusInProgress, func(s model.JobStatus) bool {
		return s == model.StatusPending
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Complete marks a job done. Stock was already deducted at creation and the
// COGS snapshot stands; this is a pure status transition.
func (svc *service) Complete(ctx context.Context, id uuid.UUID) error {
	const op = "printjob.service.Complete"

	err := svc.transition(ctx, id, model.StatusCompleted, func(s model.JobStatus) bool {
		return s == model.StatusPending || s == model.StatusInProgress
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Cancel restores the persisted deduction set and zeroes the COGS snapshot.
// The Deducted flag makes this idempotent under races: only the transaction
// that observes it set performs the restore.
func (svc *service) Cancel(ctx context.Context, id uuid.UUID) error {
	const op = "printjob.service.Cancel"
	log := logger.With(logger.String("job_id", id.String()))

	err := svc.txm.WithTx(ctx, func(ctx context.Context, q pg.Querier) error {
		job, err := svc.jobs.LockByID(ctx, q, id)
		if err != nil {
			return err
		}
		if job.Status.Terminal() {
			return fmt.Errorf("status %s: %w", job.Status, model.ErrJobConflict)
		}

		if job.Deducted {
			if _, err := svc.ledger.RestoreTx(ctx, q, toDeltas(job.Deductions)); err != nil {
				return err
			}
		}

		return svc.jobs.SetReleased(ctx, q, id, model.StatusCancelled)
	})
	if err != nil {
		log.Error(ctx, "cancel job", logger.ErrorF(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info(ctx, "job cancelled")
	return nil
}

// Delete removes the job in any status, restoring stock first if it still
// holds a claim.
func (svc *service) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "printjob.service.Delete"
	log := logger.With(logger.String("job_id", id.String()))

	err := svc.txm.WithTx(ctx, func(ctx context.Context, q pg.Querier) error {
		job, err := svc.jobs.LockByID(ctx, q, id)
		if err != nil {
			return err
		}

		if job.Deducted {
			if _, err := svc.ledger.RestoreTx(ctx, q, toDeltas(job.Deductions)); err != nil {
				return err
			}
		}

		return svc.jobs.Delete(ctx, q, id)
	})
	if err != nil {
		log.Error(ctx, "delete job", logger.ErrorF(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info(ctx, "job deleted")
	return nil
}

func (svc *service) Job(ctx context.Context, id uuid.UUID) (*model.PrintJob, error) {
	const op = "printjob.service.Job"

	job, err := svc.jobs.ByID(ctx, svc.txm.Q(), id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return job, nil
}

func (svc *service) transition(ctx context.Context, id uuid.UUID, to model.JobStatus, allowed func(model.JobStatus) bool) error {
	return svc.txm.WithTx(ctx, func(ctx context.Context, q pg.Querier) error {
		job, err := svc.jobs.LockByID(ctx, q, id)
		if err != nil {
			return err
		}
		if !allowed(job.Status) {
			return fmt.Errorf("status %s: %w", job.Status, model.ErrJobConflict)
		}

		return svc.jobs.UpdateStatus(ctx, q, id, to)
	})
}

// loadComposition resolves products and printers, treating any missing id as
// a dangling reference.
func (svc *service) loadComposition(
	ctx context.Context,
	q pg.Querier,
	products []model.JobProduct,
	printers []model.JobPrinter,
) (map[uuid.UUID]*model.Product, map[uuid.UUID]*model.PrinterProfile, error) {
	productIDs := make([]uuid.UUID, 0, len(products))
	for _, p := range products {
		productIDs = append(productIDs, p.ProductID)
	}

	prods, err := svc.products.ByIDs(ctx, q, productIDs)
	if err != nil {
		return nil, nil, err
	}
	for _, p := range products {
		if _, ok := prods[p.ProductID]; !ok {
			return nil, nil, fmt.Errorf("product %s: %w", p.ProductID, model.ErrDanglingReference)
		}
	}

	printerIDs := make([]uuid.UUID, 0, len(printers))
	for _, p := range printers {
		printerIDs = append(printerIDs, p.PrinterProfileID)
	}

	profiles, err := svc.printers.ByIDs(ctx, q, printerIDs)
	if err != nil {
		return nil, nil, err
	}
	for _, p := range printers {
		if _, ok := profiles[p.PrinterProfileID]; !ok {
			return nil, nil, fmt.Errorf("printer %s: %w", p.PrinterProfileID, model.ErrDanglingReference)
		}
	}

	return prods, profiles, nil
}

// snapshotCOGS prices the composition against unit costs read in the same
// transaction the deduction ran in, so the snapshot matches the stock state
// the job actually claimed.
func (svc *service) snapshotCOGS(
	ctx context.Context,
	q pg.Querier,
	products []model.JobProduct,
	printers []model.JobPrinter,
	packagingCost decimal.Decimal,
	prods map[uuid.UUID]*model.Product,
	profiles map[uuid.UUID]*model.PrinterProfile,
) (decimal.Decimal, error) {
	idSet := make(map[uuid.UUID]struct{})
	for _, jp := range products {
		for _, l := range prods[jp.ProductID].BOM {
			idSet[l.MaterialID] = struct{}{}
		}
	}
	ids := make([]uuid.UUID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	costs, err := svc.materials.UnitCosts(ctx, q, ids)
	if err != nil {
		return decimal.Zero, err
	}

	cogsProducts := make([]costing.COGSProduct, 0, len(products))
	for _, jp := range products {
		p := prods[jp.ProductID]
		lines := make([]costing.COPLine, 0, len(p.BOM))
		for _, l := range p.BOM {
			cost, ok := costs[l.MaterialID]
			if !ok {
				return decimal.Zero, fmt.Errorf("material %s: %w", l.MaterialID, model.ErrDanglingReference)
			}
			lines = append(lines, costing.COPLine{UnitCost: cost, QuantityKg: l.QuantityKg})
		}
		cogsProducts = append(cogsProducts, costing.COGSProduct{
			COP:      costing.ProductCOP(lines, p.AdditionalPartsCost),
			Quantity: jp.Quantity,
		})
	}

	cogsPrinters := make([]costing.COGSPrinter, 0, len(printers))
	for _, jp := range printers {
		profile := profiles[jp.PrinterProfileID]
		cogsPrinters = append(cogsPrinters, costing.COGSPrinter{
			PurchasePrice: profile.PurchasePrice,
			LifetimeHours: profile.ExpectedLifetimeHours,
			HoursUsed:     jp.HoursUsed,
			Units:         jp.Units,
		})
	}

	return costing.RoundMoney(costing.JobCOGS(cogsProducts, cogsPrinters, packagingCost)), nil
}

// notifyLow publishes advisory events for materials at or below threshold and
// returns their ids.
func (svc *service) notifyLow(ctx context.Context, materials []model.Material) []uuid.UUID {
	var low []uuid.UUID
	for i := range materials {
		m := &materials[i]
		if !m.LowStock() {
			continue
		}
		low = append(low, m.ID)

		if svc.notifier == nil {
			continue
		}
		event := model.LowStockEvent{
			EventID:     uuid.New(),
			MaterialID:  m.ID,
			Color:       m.Color,
			Brand:       m.Brand,
			Composition: m.Composition,
			OnHandKg:    m.OnHandKg,
			ThresholdKg: *m.LowStockThresholdKg,
		}
		if err := svc.notifier.NotifyLowStock(ctx, event); err != nil {
			logger.Warn(ctx, "low stock notify failed",
				logger.String("material_id", m.ID.String()),
				logger.ErrorF(err),
			)
		}
	}
	return low
}

// requiredMaterial expands the job's products through their BOMs and
// aggregates per material, rounded to gram precision.
func requiredMaterial(products []model.JobProduct, prods map[uuid.UUID]*model.Product) []model.StockDelta {
	totals := make(map[uuid.UUID]decimal.Decimal)
	for _, jp := range products {
		p := prods[jp.ProductID]
		qty := decimal.NewFromInt(jp.Quantity)
		for _, l := range p.BOM {
			totals[l.MaterialID] = totals[l.MaterialID].Add(l.QuantityKg.Mul(qty))
		}
	}

	out := make([]model.StockDelta, 0, len(totals))
	for id, qty := range totals {
		out = append(out, model.StockDelta{MaterialID: id, QuantityKg: costing.RoundQuantity(qty)})
	}
	sortDeltas(out)
	return out
}

// deductionDelta computes per-material consume/restore lists between the old
// deduction set and the new requirement.
func deductionDelta(old []model.Deduction, required []model.StockDelta) (increases, decreases []model.StockDelta) {
	oldByID := make(map[uuid.UUID]decimal.Decimal, len(old))
	for _, d := range old {
		oldByID[d.MaterialID] = d.QuantityKg
	}

	seen := make(map[uuid.UUID]struct{}, len(required))
	for _, r := range required {
		seen[r.MaterialID] = struct{}{}
		diff := r.QuantityKg.Sub(oldByID[r.MaterialID])
		switch {
		case diff.IsPositive():
			increases = append(increases, model.StockDelta{MaterialID: r.MaterialID, QuantityKg: diff})
		case diff.IsNegative():
			decreases = append(decreases, model.StockDelta{MaterialID: r.MaterialID, QuantityKg: diff.Neg()})
		}
	}

	// Materials dropped from the composition entirely.
	for _, d := range old {
		if _, ok := seen[d.MaterialID]; !ok {
			decreases = append(decreases, model.StockDelta{MaterialID: d.MaterialID, QuantityKg: d.QuantityKg})
		}
	}

	sortDeltas(increases)
	sortDeltas(decreases)
	return increases, decreases
}

func toDeductions(deltas []model.StockDelta) []model.Deduction {
	out := make([]model.Deduction, 0, len(deltas))
	for _, d := range deltas {
		out = append(out, model.Deduction{MaterialID: d.MaterialID, QuantityKg: d.QuantityKg})
	}
	return out
}

func toDeltas(deductions []model.Deduction) []model.StockDelta {
	out := make([]model.StockDelta, 0, len(deductions))
	for _, d := range deductions {
		out = append(out, model.StockDelta{MaterialID: d.MaterialID, QuantityKg: d.QuantityKg})
	}
	return out
}

func sortDeltas(deltas []model.StockDelta) {
	sort.Slice(deltas, func(i, j int) bool {
		return deltas[i].MaterialID.String() < deltas[j].MaterialID.String()
	})
}

func validateComposition(products []model.JobProduct, printers []model.JobPrinter, packagingCost decimal.Decimal) error {
	if len(products) == 0 {
		return &model.ValidationError{Field: "products", Reason: "at least one product required"}
	}
	if packagingCost.IsNegative() {
		return &model.ValidationError{Field: "packaging_cost", Reason: "must not be negative"}
	}

	seenProducts := make(map[uuid.UUID]struct{}, len(products))
	for _, p := range products {
		if p.Quantity <= 0 {
			return &model.ValidationError{Field: "products.quantity", Reason: "must be positive"}
		}
		if _, dup := seenProducts[p.ProductID]; dup {
			return &model.ValidationError{Field: "products.product_id", Reason: "duplicate product"}
		}
		seenProducts[p.ProductID] = struct{}{}
	}

	seenPrinters := make(map[uuid.UUID]struct{}, len(printers))
	for _, p := range printers {
		if p.HoursUsed.IsNegative() {
			return &model.ValidationError{Field: "printers.hours_used", Reason: "must not be negative"}
		}
		if p.Units <= 0 {
			return &model.ValidationError{Field: "printers.units", Reason: "must be positive"}
		}
		if _, dup := seenPrinters[p.PrinterProfileID]; dup {
			return &model.ValidationError{Field: "printers.printer_profile_id", Reason: "duplicate printer"}
		}
		seenPrinters[p.PrinterProfileID] = struct{}{}
	}

	return nil
}
