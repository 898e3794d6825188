package repository

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jnardiello/printfarmhq-sub002/internal/model"
	"github.com/jnardiello/printfarmhq-sub002/internal/repository/pg"
)

const (
	productsTable = "products"
	bomTable      = "product_materials"
)

type repository struct {
	sb sq.StatementBuilderType
}

func NewProductRepository() *repository {
	return &repository{
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Insert writes the product row and its BOM lines. Callers run it inside a
// transaction so a failing line rolls the product back too.
func (r *repository) Insert(ctx context.Context, q pg.Querier, p *model.Product) (uuid.UUID, error) {
	qry := r.sb.
		Insert(productsTable).
		Columns("sku", "name", "additional_parts_cost", "time_to_produce_min").
		Values(p.SKU, p.Name, p.AdditionalPartsCost, int(p.TimeToProduce.Minutes())).
		Suffix("RETURNING id")

	sqlStr, args, err := qry.ToSql()
	if err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	if err := q.QueryRow(ctx, sqlStr, args...).Scan(&id); err != nil {
		if pg.IsUniqueViolation(err) {
			return uuid.Nil, model.ErrProductExists
		}
		return uuid.Nil, err
	}

	for _, line := range p.BOM {
		ins := r.sb.
			Insert(bomTable).
			Columns("product_id", "material_id", "quantity_kg", "position").
			Values(id, line.MaterialID, line.QuantityKg, line.Position)

		sqlStr, args, err := ins.ToSql()
		if err != nil {
			return uuid.Nil, err
		}
		if _, err := q.Exec(ctx, sqlStr, args...); err != nil {
			if pg.IsForeignKeyViolation(err) {
				return uuid.Nil, model.ErrDanglingReference
			}
			return uuid.Nil, err
		}
	}

	return id, nil
}

func (r *repository) ByID(ctx context.Context, q pg.Querier, id uuid.UUID) (*model.Product, error) {
	p, err := r.productRow(ctx, q, sq.Eq{"id": id})
	if err != nil {
		return nil, err
	}

	boms, err := r.bomLines(ctx, q, []uuid.UUID{p.ID})
	if err != nil {
		return nil, err
	}
	p.BOM = boms[p.ID]

	return p, nil
}

func (r *repository) BySKU(ctx context.Context, q pg.Querier, sku string) (*model.Product, error) {
	p, err := r.productRow(ctx, q, sq.Eq{"sku": sku})
	if err != nil {
		return nil, err
	}

	boms, err := r.bomLines(ctx, q, []uuid.UUID{p.ID})
	if err != nil {
		return nil, err
	}
	p.BOM = boms[p.ID]

	return p, nil
}

// ByIDs loads several products with their BOMs. Missing ids are simply
// absent from the result; callers decide whether that is a dangling
// reference.
func (r *repository) ByIDs(ctx context.Context, q pg.Querier, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error) {
	qry := r.sb.
		Select("id", "sku", "name", "additional_parts_cost", "time_to_produce_min", "created_at", "updated_at").
		From(productsTable).
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

	out := make(map[uuid.UUID]*model.Product, len(ids))
	var loaded []uuid.UUID
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
		loaded = append(loaded, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(loaded) == 0 {
		return out, nil
	}

	boms, err := r.bomLines(ctx, q, loaded)
	if err != nil {
		return nil, err
	}
	for id, p := range out {
		p.BOM = boms[id]
	}

	return out, nil
}

func (r *repository) List(ctx context.Context, q pg.Querier) ([]model.Product, error) {
	qry := r.sb.
		Select("id", "sku", "name", "additional_parts_cost", "time_to_produce_min", "created_at", "updated_at").
		From(productsTable).
		OrderBy("sku")

	sqlStr, args, err := qry.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		out []model.Product
		ids []uuid.UUID
	)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return out, nil
	}

	boms, err := r.bomLines(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].BOM = boms[out[i].ID]
	}

	return out, nil
}

// Delete removes a product and its BOM lines. Jobs referencing the product
// keep their composition rows, so the delete fails while any job uses it.
func (r *repository) Delete(ctx context.Context, q pg.Querier, id uuid.UUID) error {
	qry := r.sb.
		Delete(productsTable).
		Where(sq.Eq{"id": id})

	sqlStr, args, err := qry.ToSql()
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, sqlStr, args...)
	if err != nil {
		if pg.IsForeignKeyViolation(err) {
			return model.ErrProductInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}

	return nil
}

func (r *repository) productRow(ctx context.Context, q pg.Querier, where sq.Eq) (*model.Product, error) {
	qry := r.sb.
		Select("id", "sku", "name", "additional_parts_cost", "time_to_produce_min", "created_at", "updated_at").
		From(productsTable).
		Where(where)

	sqlStr, args, err := qry.ToSql()
	if err != nil {
		return nil, err
	}

	p, err := scanProduct(q.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		return nil, err
	}

	return p, nil
}

func (r *repository) bomLines(ctx context.Context, q pg.Querier, productIDs []uuid.UUID) (map[uuid.UUID][]model.BOMLine, error) {
	qry := r.sb.
		Select("product_id", "material_id", "quantity_kg", "position").
		From(bomTable).
		Where(sq.Expr("product_id = ANY(?::uuid[])", uuidStrings(productIDs))).
		OrderBy("product_id", "position")

	sqlStr, args, err := qry.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]model.BOMLine, len(productIDs))
	for rows.Next() {
		var (
			productID uuid.UUID
			line      model.BOMLine
		)
		if err := rows.Scan(&productID, &line.MaterialID, &line.QuantityKg, &line.Position); err != nil {
			return nil, err
		}
		out[productID] = append(out[productID], line)
	}

	return out, rows.Err()
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var (
		p       model.Product
		minutes int
	)
	err := row.Scan(
		&p.ID,
		&p.SKU,
		&p.Name,
		&p.AdditionalPartsCost,
		&minutes,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrProductNotFound
		}
		return nil, err
	}

	p.TimeToProduce = time.Duration(minutes) * time.Minute

	return &p, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
