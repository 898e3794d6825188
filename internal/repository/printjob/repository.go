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

const (
	jobsTable          = "print_jobs"
	jobProductsTable   = "print_job_products"
	jobPrintersTable   = "print_job_printers"
	jobDeductionsTable = "print_job_deductions"
)

type repository struct {
	sb sq.StatementBuilderType
}

func NewPrintJobRepository() *repository {
	return &repository{
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Insert persists the job header, its composition and its deduction set.
// Runs in the caller's transaction: the same one that deducted the stock.
func (r *repository) Insert(ctx context.Context, q pg.Querier, job *model.PrintJob) (uuid.UUID, error) {
	qry := r.sb.
		Insert(jobsTable).
		Columns("status", "packaging_cost", "cogs", "deducted").
		Values(job.Status, job.PackagingCost, job.COGS, job.Deducted).
		Suffix("RETURNING id")

	sqlStr, args, err := qry.ToSql()
	if err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	if err := q.QueryRow(ctx, sqlStr, args...).Scan(&id); err != nil {
		return uuid.Nil, err
	}

	if err := r.insertComposition(ctx, q, id, job.Products, job.Printers); err != nil {
		return uuid.Nil, err
	}
	if err := r.insertDeductions(ctx, q, id, job.Deductions); err != nil {
		return uuid.Nil, err
	}

	return id, nil
}

func (r *repository) ByID(ctx context.Context, q pg.Querier, id uuid.UUID) (*model.PrintJob, error) {
	qry := r.sb.
		Select("id", "status", "packaging_cost", "cogs", "deducted", "created_at", "updated_at").
		From(jobsTable).
		Where(sq.Eq{"id": id})

	sqlStr, args, err := qry.ToSql()
	if err != nil {
		return nil, err
	}

	var job model.PrintJob
	err = q.QueryRow(ctx, sqlStr, args...).Scan(
		&job.ID,
		&job.Status,
		&job.PackagingCost,
		&job.COGS,
		&job.Deducted,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrJobNotFound
		}
		return nil, err
	}

	if job.Products, err = r.jobProducts(ctx, q, id); err != nil {
		return nil, err
	}
	if job.Printers, err = r.jobPrinters(ctx, q, id); err != nil {
		return nil, err
	}
	if job.Deductions, err = r.jobDeductions(ctx, q, id); err != nil {
		return nil, err
	}

	return &job, nil
}

// LockByID loads the job header FOR UPDATE so concurrent mutations of the
// same job serialize.
func (r *repository) LockByID(ctx context.Context, q pg.Querier, id uuid.UUID) (*model.PrintJob, error) {
	qry := r.sb.
		Select("id", "status", "packaging_cost", "cogs", "deducted", "created_at", "updated_at").
		From(jobsTable).
		Where(sq.Eq{"id": id}).
		Suffix("FOR UPDATE")

	sqlStr, args, err := qry.ToSql()
	if err != nil {
		return nil, err
	}

	var job model.PrintJob
	err = q.QueryRow(ctx, sqlStr, args...).Scan(
		&job.ID,
		&job.Status,
		&job.PackagingCost,
		&job.COGS,
		&job.Deducted,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrJobNotFound
		}
		return nil, err
	}

	if job.Deductions, err = r.jobDeductions(ctx, q, id); err != nil {
		return nil, err
	}

	return &job, nil
}

func (r *repository) UpdateStatus(ctx context.Context, q pg.Querier, id uuid.UUID, status model.JobStatus) error {
	qry := r.sb.
		Update(jobsTable).
		Set("status", status).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id})

	return r.exec(ctx, q, qry)
}

// UpdateCost rewrites the COGS snapshot and packaging cost.
func (r *repository) UpdateCost(ctx context.Context, q pg.Querier, id uuid.UUID, job *model.PrintJob) error {
	qry := r.sb.
		Update(jobsTable).
		Set("packaging_cost", job.PackagingCost).
		Set("cogs", job.COGS).
		Set("deducted", job.Deducted).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id})

	return r.exec(ctx, q, qry)
}

// SetReleased clears the COGS snapshot and marks the deduction set restored.
// The deduction rows are removed: there is nothing left to restore.
func (r *repository) SetReleased(ctx context.Context, q pg.Querier, id uuid.UUID, status model.JobStatus) error {
	qry := r.sb.
		Update(jobsTable).
		Set("status", status).
		Set("cogs", sq.Expr("0")).
		Set("deducted", false).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id})

	if err := r.exec(ctx, q, qry); err != nil {
		return err
	}

	return r.deleteChildren(ctx, q, id, jobDeductionsTable)
}

// ReplaceComposition rewrites products, printers and deductions for a job
// update. Runs in the caller's transaction together with the stock delta.
func (r *repository) ReplaceComposition(ctx context.Context, q pg.Querier, id uuid.UUID, job *model.PrintJob) error {
	for _, table := range []string{jobProductsTable, jobPrintersTable, jobDeductionsTable} {
		if err := r.deleteChildren(ctx, q, id, table); err != nil {
			return err
		}
	}

	if err := r.insertComposition(ctx, q, id, job.Products, job.Printers); err != nil {
		return err
	}

	return r.insertDeductions(ctx, q, id, job.Deductions)
}

func (r *repository) Delete(ctx context.Context, q pg.Querier, id uuid.UUID) error {
	qry := r.sb.
		Delete(jobsTable).
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
		return model.ErrJobNotFound
	}

	return nil
}

func (r *repository) insertComposition(ctx context.Context, q pg.Querier, id uuid.UUID, products []model.JobProduct, printers []model.JobPrinter) error {
	for _, p := range products {
		ins := r.sb.
			Insert(jobProductsTable).
			Columns("job_id", "product_id", "quantity").
			Values(id, p.ProductID, p.Quantity)

		if err := r.execInsert(ctx, q, ins); err != nil {
			return err
		}
	}

	for _, p := range printers {
		ins := r.sb.
			Insert(jobPrintersTable).
			Columns("job_id", "printer_profile_id", "hours_used", "units").
			Values(id, p.PrinterProfileID, p.HoursUsed, p.Units)

		if err := r.execInsert(ctx, q, ins); err != nil {
			return err
		}
	}

	return nil
}

func (r *repository) insertDeductions(ctx context.Context, q pg.Querier, id uuid.UUID, deductions []model.Deduction) error {
	for _, d := range deductions {
		ins := r.sb.
			Insert(jobDeductionsTable).
			Columns("job_id", "material_id", "quantity_kg").
			Values(id, d.MaterialID, d.QuantityKg)

		if err := r.execInsert(ctx, q, ins); err != nil {
			return err
		}
	}

	return nil
}

func (r *repository) jobProducts(ctx context.Context, q pg.Querier, id uuid.UUID) ([]model.JobProduct, error) {
	qry := r.sb.
		Select("product_id", "quantity").
		From(jobProductsTable).
		Where(sq.Eq{"job_id": id})

	sqlStr, args, err := qry.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.JobProduct
	for rows.Next() {
		var p model.JobProduct
		if err := rows.Scan(&p.ProductID, &p.Quantity); err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	return out, rows.Err()
}

func (r *repository) jobPrinters(ctx context.Context, q pg.Querier, id uuid.UUID) ([]model.JobPrinter, error) {
	qry := r.sb.
		Select("printer_profile_id", "hours_used", "units").
		From(jobPrintersTable).
		Where(sq.Eq{"job_id": id})

	sqlStr, args, err := qry.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.JobPrinter
	for rows.Next() {
		var p model.JobPrinter
		if err := rows.Scan(&p.PrinterProfileID, &p.HoursUsed, &p.Units); err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	return out, rows.Err()
}

func (r *repository) jobDeductions(ctx context.Context, q pg.Querier, id uuid.UUID) ([]model.Deduction, error) {
	qry := r.sb.
		Select("material_id", "quantity_kg").
		From(jobDeductionsTable).
		Where(sq.Eq{"job_id": id}).
		OrderBy("material_id")

	sqlStr, args, err := qry.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Deduction
	for rows.Next() {
		var d model.Deduction
		if err := rows.Scan(&d.MaterialID, &d.QuantityKg); err != nil {
			return nil, err
		}
		out = append(out, d)
	}

	return out, rows.Err()
}

func (r *repository) deleteChildren(ctx context.Context, q pg.Querier, id uuid.UUID, table string) error {
	del := r.sb.
		Delete(table).
		Where(sq.Eq{"job_id": id})

	sqlStr, args, err := del.ToSql()
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, sqlStr, args...)
	return err
}

func (r *repository) exec(ctx context.Context, q pg.Querier, qry sq.UpdateBuilder) error {
	sqlStr, args, err := qry.ToSql()
	if err != nil {
		return err
	}

	ct, err := q.Exec(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return model.ErrJobNotFound
	}

	return nil
}

func (r *repository) execInsert(ctx context.Context, q pg.Querier, qry sq.InsertBuilder) error {
	sqlStr, args, err := qry.ToSql()
	if err != nil {
		return err
	}

	if _, err := q.Exec(ctx, sqlStr, args...); err != nil {
		if pg.IsForeignKeyViolation(err) {
			return model.ErrDanglingReference
		}
		return err
	}

	return nil
}
