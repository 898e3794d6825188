package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jnardiello/printfarmhq-sub002/internal/costing"
	"github.com/jnardiello/printfarmhq-sub002/internal/model"
	"github.com/jnardiello/printfarmhq-sub002/internal/repository/pg"
	"github.com/jnardiello/printfarmhq-sub002/platform/logger"
)

type ProductRepository interface {
	Insert(ctx context.Context, q pg.Querier, p *model.Product) (uuid.UUID, error)
	ByID(ctx context.Context, q pg.Querier, id uuid.UUID) (*model.Product, error)
	BySKU(ctx context.Context, q pg.Querier, sku string) (*model.Product, error)
	List(ctx context.Context, q pg.Querier) ([]model.Product, error)
	Delete(ctx context.Context, q pg.Querier, id uuid.UUID) error
}

type MaterialRepository interface {
	UnitCosts(ctx context.Context, q pg.Querier, ids []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
}

type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, q pg.Querier) error) error
	Q() pg.Querier
}

// service manages product definitions and derives their cost of production.
// COP is never stored: it is recomputed on read from the current ledger unit
// costs so a purchase is immediately reflected everywhere.
type service struct {
	products  ProductRepository
	materials MaterialRepository
	txm       TxManager
}

func NewProductService(products ProductRepository, materials MaterialRepository, txm TxManager) *service {
	return &service{products: products, materials: materials, txm: txm}
}

func (svc *service) CreateProduct(ctx context.Context, params model.CreateProductParams) (*model.Product, error) {
	const op = "product.service.CreateProduct"
	log := logger.With(logger.String("sku", params.SKU))

	if err := validateCreate(params); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p := &model.Product{
		SKU:                 params.SKU,
		Name:                params.Name,
		BOM:                 normalizeBOM(params.BOM),
		AdditionalPartsCost: params.AdditionalPartsCost,
		TimeToProduce:       params.TimeToProduce,
	}

	err := svc.txm.WithTx(ctx, func(ctx context.Context, q pg.Querier) error {
		id, err := svc.products.Insert(ctx, q, p)
		if err != nil {
			return err
		}
		p.ID = id
		return nil
	})
	if err != nil {
		log.Error(ctx, "create product", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info(ctx, "product created", logger.String("product_id", p.ID.String()))
	return p, nil
}

// ProductCost loads a product and prices its BOM against a single consistent
// snapshot of unit costs.
func (svc *service) ProductCost(ctx context.Context, id uuid.UUID) (*model.ProductCost, error) {
	const op = "product.service.ProductCost"

	p, err := svc.products.ByID(ctx, svc.txm.Q(), id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cop, err := svc.cop(ctx, svc.txm.Q(), p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &model.ProductCost{Product: p, COP: cop}, nil
}

func (svc *service) ProductCostBySKU(ctx context.Context, sku string) (*model.ProductCost, error) {
	const op = "product.service.ProductCostBySKU"

	p, err := svc.products.BySKU(ctx, svc.txm.Q(), sku)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cop, err := svc.cop(ctx, svc.txm.Q(), p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &model.ProductCost{Product: p, COP: cop}, nil
}

// Products lists all products with COP priced against one unit-cost snapshot,
// so the list is internally consistent even while purchases land.
func (svc *service) Products(ctx context.Context) ([]model.ProductCost, error) {
	const op = "product.service.Products"

	list, err := svc.products.List(ctx, svc.txm.Q())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	idSet := make(map[uuid.UUID]struct{})
	for _, p := range list {
		for _, l := range p.BOM {
			idSet[l.MaterialID] = struct{}{}
		}
	}
	ids := make([]uuid.UUID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	costs, err := svc.materials.UnitCosts(ctx, svc.txm.Q(), ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]model.ProductCost, 0, len(list))
	for i := range list {
		cop, err := priceBOM(&list[i], costs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, model.ProductCost{Product: &list[i], COP: cop})
	}

	return out, nil
}

func (svc *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	const op = "product.service.DeleteProduct"

	if err := svc.products.Delete(ctx, svc.txm.Q(), id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Info(ctx, "product deleted", logger.String("product_id", id.String()))
	return nil
}

func (svc *service) cop(ctx context.Context, q pg.Querier, p *model.Product) (decimal.Decimal, error) {
	ids := make([]uuid.UUID, 0, len(p.BOM))
	for _, l := range p.BOM {
		ids = append(ids, l.MaterialID)
	}

	costs, err := svc.materials.UnitCosts(ctx, q, ids)
	if err != nil {
		return decimal.Zero, err
	}

	return priceBOM(p, costs)
}

func priceBOM(p *model.Product, costs map[uuid.UUID]decimal.Decimal) (decimal.Decimal, error) {
	lines := make([]costing.COPLine, 0, len(p.BOM))
	for _, l := range p.BOM {
		cost, ok := costs[l.MaterialID]
		if !ok {
			return decimal.Zero, fmt.Errorf("material %s: %w", l.MaterialID, model.ErrDanglingReference)
		}
		lines = append(lines, costing.COPLine{UnitCost: cost, QuantityKg: l.QuantityKg})
	}
	return costing.RoundMoney(costing.ProductCOP(lines, p.AdditionalPartsCost)), nil
}

func validateCreate(params model.CreateProductParams) error {
	if strings.TrimSpace(params.SKU) == "" {
		return &model.ValidationError{Field: "sku", Reason: "must not be empty"}
	}
	if strings.TrimSpace(params.Name) == "" {
		return &model.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if params.AdditionalPartsCost.IsNegative() {
		return &model.ValidationError{Field: "additional_parts_cost", Reason: "must not be negative"}
	}
	if params.TimeToProduce < 0 {
		return &model.ValidationError{Field: "time_to_produce_min", Reason: "must not be negative"}
	}

	seen := make(map[uuid.UUID]struct{}, len(params.BOM))
	for _, l := range params.BOM {
		if l.QuantityKg.LessThanOrEqual(decimal.Zero) {
			return &model.ValidationError{Field: "bom.quantity_kg", Reason: "must be positive"}
		}
		if _, dup := seen[l.MaterialID]; dup {
			return &model.ValidationError{Field: "bom.material_id", Reason: "duplicate material"}
		}
		seen[l.MaterialID] = struct{}{}
	}

	return nil
}

// normalizeBOM assigns stable positions so the stored line order matches the
// request order.
func normalizeBOM(bom []model.BOMLine) []model.BOMLine {
	out := make([]model.BOMLine, len(bom))
	copy(out, bom)
	for i := range out {
		out[i].Position = i
	}
	return out
}
