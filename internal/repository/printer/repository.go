package repository

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jnardiello/printfarmhq-sub002/internal/model"
	"github.com/jnardiello/printfarmhq-sub002/internal/repository/pg"
)

const printersTable = "printer_profiles"

type repository struct {
	sb sq.StatementBuilderType
}

func NewPrinterRepository() *repository {
	return &repository{
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *repository) Insert(ctx context.Context, q pg.Querier, p *model.PrinterProfile) (uuid.UUID, error) {
	qry := r.sb.
		Insert(printersTable).
		Columns("name", "purchase_price", "expected_lifetime_hours").
		Values(p.Name, p.PurchasePrice, p.ExpectedLifetimeHours).
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

func (r *repository) ByID(ctx context.Context, q pg.Querier, id uuid.UUID) (*model.PrinterProfile, error) {
	qry := r.sb.
		Select("id", "name", "purchase_price", "expected_lifetime_hours", "created_at").
		From(printersTable).
		Where(sq.Eq{"id": id})

	sqlStr, args, err := qry.ToSql()
	if err != nil {
		return nil, err
	}

	return scanPrinter(q.QueryRow(ctx, sqlStr, args...))
}

func (r *repository) ByIDs(ctx context.Context, q pg.Querier, ids []uuid.UUID) (map[uuid.UUID]*model.PrinterProfile, error) {
	qry := r.sb.
		Select("id", "name", "purchase_price", "expected_lifetime_hours", "created_at").
		From(printersTable).
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

	out := make(map[uuid.UUID]*model.PrinterProfile, len(ids))
	for rows.Next() {
		p, err := scanPrinter(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}

	return out, rows.Err()
}

func (r *repository) List(ctx context.Context, q pg.Querier) ([]model.PrinterProfile, error) {
	qry := r.sb.
		Select("id", "name", "purchase_price", "expected_lifetime_hours", "created_at").
		From(printersTable).
		OrderBy("name")

	sqlStr, args, err := qry.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PrinterProfile
	for rows.Next() {
		p, err := scanPrinter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}

	return out, rows.Err()
}

func scanPrinter(row pgx.Row) (*model.PrinterProfile, error) {
	var p model.PrinterProfile
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.PurchasePrice,
		&p.ExpectedLifetimeHours,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPrinterNotFound
		}
		return nil, err
	}

	return &p, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
