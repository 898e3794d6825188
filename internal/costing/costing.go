// Package costing holds the pure cost arithmetic of the engine: weighted
// average unit cost, purchase history replay, COP and COGS. Everything here
// is side-effect free and operates on decimals so repeated averaging does not
// accumulate binary float drift.
package costing

import (
	"github.com/shopspring/decimal"

	"github.com/jnardiello/printfarmhq-sub002/internal/model"
)

// Money and quantity scales used at persistence/egress boundaries.
const (
	MoneyScale    = 2
	UnitCostScale = 4
	QuantityScale = 3
)

// WeightedUnitCost returns the new weighted-average unit cost after acquiring
// qty at price on top of oldQty held at oldCost.
//
//	new = (oldQty*oldCost + qty*price) / (oldQty + qty)
//
// With nothing on hand the first purchase sets the cost outright, discarding
// any planning estimate.
func WeightedUnitCost(oldQty, oldCost, qty, price decimal.Decimal) decimal.Decimal {
	if oldQty.LessThanOrEqual(decimal.Zero) {
		return price
	}
	total := oldQty.Add(qty)
	if total.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return oldQty.Mul(oldCost).Add(qty.Mul(price)).Div(total)
}

// ReplayUnitCost folds a purchase history oldest-first and returns the total
// quantity acquired and the resulting weighted-average unit cost. It is the
// deterministic ground truth the ledger falls back to when an event is
// deleted: a weighted average is not reversible by subtraction once
// intervening purchases landed at different prices.
func ReplayUnitCost(events []model.PurchaseEvent) (totalQty, unitCost decimal.Decimal) {
	totalQty = decimal.Zero
	unitCost = decimal.Zero
	for _, e := range events {
		unitCost = WeightedUnitCost(totalQty, unitCost, e.QuantityKg, e.PricePerKg)
		totalQty = totalQty.Add(e.QuantityKg)
	}
	return totalQty, unitCost
}

// COPLine pairs a material's current unit cost with the quantity one product
// unit consumes.
type COPLine struct {
	UnitCost   decimal.Decimal
	QuantityKg decimal.Decimal
}

// ProductCOP is the cost of producing one unit: material costs plus the fixed
// additional-parts cost.
func ProductCOP(lines []COPLine, additionalPartsCost decimal.Decimal) decimal.Decimal {
	cop := additionalPartsCost
	for _, l := range lines {
		cop = cop.Add(l.UnitCost.Mul(l.QuantityKg))
	}
	return cop
}

// PrinterDepreciation spreads a printer's purchase price over its expected
// lifetime and charges the hours a job occupies it, per printer unit.
func PrinterDepreciation(purchasePrice, lifetimeHours, hoursUsed decimal.Decimal, units int64) decimal.Decimal {
	if lifetimeHours.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return purchasePrice.Div(lifetimeHours).
		Mul(hoursUsed).
		Mul(decimal.NewFromInt(units))
}

// COGSProduct is one product line of a job for COGS purposes.
type COGSProduct struct {
	COP      decimal.Decimal
	Quantity int64
}

// COGSPrinter is one printer line of a job for COGS purposes.
type COGSPrinter struct {
	PurchasePrice decimal.Decimal
	LifetimeHours decimal.Decimal
	HoursUsed     decimal.Decimal
	Units         int64
}

// JobCOGS is the full cost of goods sold for a job: per-unit COP times
// quantity, machine depreciation, and packaging.
func JobCOGS(products []COGSProduct, printers []COGSPrinter, packagingCost decimal.Decimal) decimal.Decimal {
	cogs := packagingCost
	for _, p := range products {
		cogs = cogs.Add(p.COP.Mul(decimal.NewFromInt(p.Quantity)))
	}
	for _, pr := range printers {
		cogs = cogs.Add(PrinterDepreciation(pr.PurchasePrice, pr.LifetimeHours, pr.HoursUsed, pr.Units))
	}
	return cogs
}

// RoundMoney normalizes a monetary amount to cents for egress.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// RoundUnitCost normalizes a per-kg cost to its storage scale.
func RoundUnitCost(d decimal.Decimal) decimal.Decimal {
	return d.Round(UnitCostScale)
}

// RoundQuantity normalizes a kilogram quantity to gram precision.
func RoundQuantity(d decimal.Decimal) decimal.Decimal {
	return d.Round(QuantityScale)
}
