package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jnardiello/printfarmhq-sub002/internal/model"
	"github.com/jnardiello/printfarmhq-sub002/internal/repository/pg"
	"github.com/jnardiello/printfarmhq-sub002/platform/logger"
)

type PrinterRepository interface {
	Insert(ctx context.Context, q pg.Querier, p *model.PrinterProfile) (uuid.UUID, error)
	ByID(ctx context.Context, q pg.Querier, id uuid.UUID) (*model.PrinterProfile, error)
	List(ctx context.Context, q pg.Querier) ([]model.PrinterProfile, error)
}

type TxManager interface {
	Q() pg.Querier
}

type service struct {
	repo PrinterRepository
	txm  TxManager
}

func NewPrinterService(repo PrinterRepository, txm TxManager) *service {
	return &service{repo: repo, txm: txm}
}

func (svc *service) CreatePrinter(ctx context.Context, params model.CreatePrinterParams) (*model.PrinterProfile, error) {
	const op = "printer.service.CreatePrinter"

	if strings.TrimSpace(params.Name) == "" {
		return nil, fmt.Errorf("%s: %w", op, &model.ValidationError{Field: "name", Reason: "must not be empty"})
	}
	if params.PurchasePrice.IsNegative() {
		return nil, fmt.Errorf("%s: %w", op, &model.ValidationError{Field: "purchase_price", Reason: "must not be negative"})
	}
	if params.ExpectedLifetimeHours.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%s: %w", op, &model.ValidationError{Field: "expected_lifetime_hours", Reason: "must be positive"})
	}

	p := &model.PrinterProfile{
		Name:                  params.Name,
		PurchasePrice:         params.PurchasePrice,
		ExpectedLifetimeHours: params.ExpectedLifetimeHours,
	}

	id, err := svc.repo.Insert(ctx, svc.txm.Q(), p)
	if err != nil {
		logger.Error(ctx, "create printer", logger.String("name", params.Name), logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p.ID = id

	logger.Info(ctx, "printer profile created", logger.String("printer_id", id.String()))
	return p, nil
}

func (svc *service) Printer(ctx context.Context, id uuid.UUID) (*model.PrinterProfile, error) {
	const op = "printer.service.Printer"

	p, err := svc.repo.ByID(ctx, svc.txm.Q(), id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

func (svc *service) Printers(ctx context.Context) ([]model.PrinterProfile, error) {
	const op = "printer.service.Printers"

	list, err := svc.repo.List(ctx, svc.txm.Q())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return list, nil
}
