package repository

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jnardiello/printfarmhq-sub002/internal/model"
	"github.com/jnardiello/printfarmhq-sub002/internal/repository/pg"
)

const (
	materialsTable = "materials"
	purchasesTable = "purchase_events"
)

var materialColumns = []string{
	"id", "color", "brand", "composition",
	"unit_cost", "on_hand_kg", "low_stock_threshold_kg", "tracked",
	"created_at", "updated_at",
}

var purchaseColumns = []string{
	"id", "material_id", "quantity_kg", "price_per_kg",
	"acquired_at", "channel", "notes", "created_at",
}

// repository persists materials and their purchase events. Methods take an
// explicit querier so multi-row invariants (stock checks, cost recomputation)
// can share one transaction with their callers.
type repository struct {
	sb sq.StatementBuilderType
}

func NewMaterialRepository() *repository {
	return &repository{
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *repository) Insert(ctx context.Context, q pg.Querier, m *model.Material) (uuid.UUID, error) {
	qry := r.sb.
		Insert(materialsTable).
		Columns("color", "brand", "composition", "unit_cost", "on_hand_kg", "low_stock_threshold_kg", "tracked").
		Values(m.Color, m.Brand, m.Composition, m.UnitCost, m.OnHandKg, thresholdValue(m.LowStockThresholdKg), m.Tracked).
		Suffix("RETURNING id")

	sqlStr, args, err := qry.ToSql()
	if err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	if err := q.QueryRow(ctx, sqlStr, args...).Scan(&id); err != nil {
		return uuid.Nil, err
	}

	return id, nil
}

func (r *repository) ByID(ctx context.Context, q pg.Querier, id uuid.UUID) (*model.Material, error) {
	qry := r.sb.
		Select(materialColumns...).
		From(materialsTable).
		Where(sq.Eq{"id": id})

	sqlStr, args, err := qry.ToSql()
	if err != nil {
		return nil, err
	}

	return scanMaterial(q.QueryRow(ctx, sqlStr, args...))
}

// ByIdentity looks a material up by its identity tuple: case-insensitive on
// color and brand, exact on composition.
func (r *repository) ByIdentity(ctx context.Context, q pg.Querier, color, brand, composition string) (*model.Material, error) {
	qry := r.sb.
		Select(materialColumns...).
		From(materialsTable).
		Where(sq.Expr("lower(color) = lower(?)", color)).
		Where(sq.Expr("lower(brand) = lower(?)", brand)).
		Where(sq.Eq{"composition": composition})

	sqlStr, args, err := qry.ToSql()
	if err != nil {
		return nil, err
	}

	return scanMaterial(q.QueryRow(ctx, sqlStr, args...))
}

func (r *repository) List(ctx context.Context, q pg.Querier) ([]model.Material, error) {
	qry := r.sb.
		Select(materialColumns...).
		From(materialsTable).
		OrderBy("brand", "color")

	sqlStr, args, err := qry.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}

	return out, rows.Err()
}

// LockForUpdate loads the given materials with FOR UPDATE row locks, in id
// order so concurrent batches cannot deadlock against each other.
func (r *repository) LockForUpdate(ctx context.Context, q pg.Querier, ids []uuid.UUID) ([]model.Material, error) {
	qry := r.sb.
		Select(materialColumns...).
		From(materialsTable).
		Where(sq.Expr("id = ANY(?::uuid[])", uuidStrings(ids))).
		OrderBy("id").
		Suffix("FOR UPDATE")

	sqlStr, args, err := qry.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}

	return out, rows.Err()
}

// UpdateStockAndCost rewrites the ledger-maintained columns. Callers must
// hold the row lock.
func (r *repository) UpdateStockAndCost(ctx context.Context, q pg.Querier, id uuid.UUID, onHandKg, unitCost decimal.Decimal, tracked bool) error {
	qry := r.sb.
		Update(materialsTable).
		Set("on_hand_kg", onHandKg).
		Set("unit_cost", unitCost).
		Set("tracked", tracked).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id})

	sqlStr, args, err := qry.ToSql()
	if err != nil {
		return err
	}

	ct, err := q.Exec(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return model.ErrMaterialNotFound
	}

	return nil
}

// AdjustOnHand applies a signed delta to one material's on-hand quantity.
// Unit cost is untouched: consumption and restoration never change cost.
func (r *repository) AdjustOnHand(ctx context.Context, q pg.Querier, id uuid.UUID, deltaKg decimal.Decimal) error {
	qry := r.sb.
		Update(materialsTable).
		Set("on_hand_kg", sq.Expr("on_hand_kg + ?", deltaKg)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id})

	sqlStr, args, err := qry.ToSql()
	if err != nil {
		return err
	}

	ct, err := q.Exec(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return model.ErrMaterialNotFound
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, q pg.Querier, id uuid.UUID) error {
	qry := r.sb.
		Delete(materialsTable).
		Where(sq.Eq{"id": id})

	sqlStr, args, err := qry.ToSql()
	if err != nil {
		return err
	}

	ct, err := q.Exec(ctx, sqlStr, args...)
	if err != nil {
		if pg.IsForeignKeyViolation(err) {
			return model.ErrMaterialInUse
		}
		return err
	}
	if ct.RowsAffected() == 0 {
		return model.ErrMaterialNotFound
	}

	return nil
}

func (r *repository) InsertPurchase(ctx context.Context, q pg.Querier, e *model.PurchaseEvent) (uuid.UUID, error) {
	qry := r.sb.
		Insert(purchasesTable).
		Columns("material_id", "quantity_kg", "price_per_kg", "acquired_at", "channel", "notes").
		Values(e.MaterialID, e.QuantityKg, e.PricePerKg, e.AcquiredAt, e.Channel, e.Notes).
		Suffix("RETURNING id")

	sqlStr, args, err := qry.ToSql()
	if err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	if err := q.QueryRow(ctx, sqlStr, args...).Scan(&id); err != nil {
		return uuid.Nil, err
	}

	return id, nil
}

func (r *repository) PurchaseByID(ctx context.Context, q pg.Querier, id uuid.UUID) (*model.PurchaseEvent, error) {
	qry := r.sb.
		Select(purchaseColumns...).
		From(purchasesTable).
		Where(sq.Eq{"id": id})

	sqlStr, args, err := qry.ToSql()
	if err != nil {
		return nil, err
	}

	return scanPurchase(q.QueryRow(ctx, sqlStr, args...))
}

func (r *repository) DeletePurchase(ctx context.Context, q pg.Querier, id uuid.UUID) error {
	qry := r.sb.
		Delete(purchasesTable).
		Where(sq.Eq{"id": id})

	sqlStr, args, err := qry.ToSql()
	if err != nil {
		return err
	}

	ct, err := q.Exec(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return model.ErrPurchaseNotFound
	}

	return nil
}

// PurchasesByMaterial returns the full purchase history oldest-first, which
// is the order the weighted-average replay folds in.
func (r *repository) PurchasesByMaterial(ctx context.Context, q pg.Querier, materialID uuid.UUID) ([]model.PurchaseEvent, error) {
	qry := r.sb.
		Select(purchaseColumns...).
		From(purchasesTable).
		Where(sq.Eq{"material_id": materialID}).
		OrderBy("created_at", "id")

	sqlStr, args, err := qry.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PurchaseEvent
	for rows.Next() {
		e, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}

	return out, rows.Err()
}

// UnitCosts reads current unit costs for a set of materials in one statement,
// giving a single-point-in-time snapshot for cost computation.
func (r *repository) UnitCosts(ctx context.Context, q pg.Querier, ids []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	qry := r.sb.
		Select("id", "unit_cost").
		From(materialsTable).
		Where(sq.Expr("id = ANY(?::uuid[])", uuidStrings(ids)))

	sqlStr, args, err := qry.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]decimal.Decimal, len(ids))
	for rows.Next() {
		var (
			id   uuid.UUID
			cost decimal.Decimal
		)
		if err := rows.Scan(&id, &cost); err != nil {
			return nil, err
		}
		out[id] = cost
	}

	return out, rows.Err()
}

func scanMaterial(row pgx.Row) (*model.Material, error) {
	var (
		m         model.Material
		threshold decimal.NullDecimal
	)
	err := row.Scan(
		&m.ID,
		&m.Color,
		&m.Brand,
		&m.Composition,
		&m.UnitCost,
		&m.OnHandKg,
		&threshold,
		&m.Tracked,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrMaterialNotFound
		}
		return nil, err
	}

	if threshold.Valid {
		m.LowStockThresholdKg = &threshold.Decimal
	}

	return &m, nil
}

func scanPurchase(row pgx.Row) (*model.PurchaseEvent, error) {
	var e model.PurchaseEvent
	err := row.Scan(
		&e.ID,
		&e.MaterialID,
		&e.QuantityKg,
		&e.PricePerKg,
		&e.AcquiredAt,
		&e.Channel,
		&e.Notes,
		&e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPurchaseNotFound
		}
		return nil, err
	}

	return &e, nil
}

func thresholdValue(t *decimal.Decimal) decimal.NullDecimal {
	if t == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *t, Valid: true}
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
