package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jnardiello/printfarmhq-sub002/internal/model"
	"github.com/jnardiello/printfarmhq-sub002/internal/repository/pg"
	"github.com/jnardiello/printfarmhq-sub002/internal/service/mocks"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type deps struct {
	jobs      *mocks.MockJobRepository
	products  *mocks.MockProductRepository
	printers  *mocks.MockPrinterRepository
	materials *mocks.MockMaterialRepository
	ledger    *mocks.MockLedger
	txm       *mocks.MockTxManager
	notifier  *mocks.MockLowStockNotifier
}

func newDeps(t *testing.T) deps {
	return deps{
		jobs:      mocks.NewMockJobRepository(t),
		products:  mocks.NewMockProductRepository(t),
		printers:  mocks.NewMockPrinterRepository(t),
		materials: mocks.NewMockMaterialRepository(t),
		ledger:    mocks.NewMockLedger(t),
		txm:       mocks.NewMockTxManager(t),
		notifier:  mocks.NewMockLowStockNotifier(t),
	}
}

func newSvc(d deps) *service {
	return NewPrintJobService(d.jobs, d.products, d.printers, d.materials, d.ledger, d.txm, d.notifier)
}

func passthroughTx(d deps) {
	d.txm.
		On("WithTx", mock.Anything, mock.Anything).
		Return(func(ctx context.Context, fn func(context.Context, pg.Querier) error) error {
			return fn(ctx, nil)
		})
}

func TestServiceCreate(t *testing.T) {
	t.Parallel()

	jobID := uuid.New()
	productID := uuid.New()
	printerID := uuid.New()
	materialID := uuid.New()

	product := func() *model.Product {
		return &model.Product{
			ID:  productID,
			SKU: "benchy-v2",
			BOM: []model.BOMLine{
				{MaterialID: materialID, QuantityKg: dec("0.050")},
			},
			AdditionalPartsCost: dec("0.50"),
		}
	}

	printer := func() *model.PrinterProfile {
		return &model.PrinterProfile{
			ID:                    printerID,
			Name:                  "Prusa MK4",
			PurchasePrice:         dec("900.00"),
			ExpectedLifetimeHours: dec("9000"),
		}
	}

	validParams := func() model.CreateJobParams {
		return model.CreateJobParams{
			Products: []model.JobProduct{{ProductID: productID, Quantity: 2}},
			Printers: []model.JobPrinter{{PrinterProfileID: printerID, HoursUsed: dec("3"), Units: 1}},
			PackagingCost: dec("1.00"),
		}
	}

	type testCase struct {
		name   string
		params model.CreateJobParams
		setup  func(d deps)
		assert func(t *testing.T, res *model.CreateJobResult, err error, d deps)
	}

	tests := []testCase{
		{
			name:   "validation error: no products",
			params: model.CreateJobParams{},
			setup: func(d deps) {
				// No calls expected.
			},
			assert: func(t *testing.T, res *model.CreateJobResult, err error, d deps) {
				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrValidation)
				assert.Nil(t, res)
			},
		},
		{
			name: "validation error: non-positive product quantity",
			params: func() model.CreateJobParams {
				p := validParams()
				p.Products[0].Quantity = 0
				return p
			}(),
			setup: func(d deps) {
				// No calls expected.
			},
			assert: func(t *testing.T, res *model.CreateJobResult, err error, d deps) {
				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrValidation)
			},
		},
		{
			name:   "unknown product is a dangling reference",
			params: validParams(),
			setup: func(d deps) {
				passthroughTx(d)
				d.products.
					On("ByIDs", mock.Anything, mock.Anything, []uuid.UUID{productID}).
					Return(map[uuid.UUID]*model.Product{}, nil).
					Once()
			},
			assert: func(t *testing.T, res *model.CreateJobResult, err error, d deps) {
				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrDanglingReference)

				d.ledger.AssertNotCalled(t, "ConsumeTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			},
		},
		{
			name:   "insufficient stock aborts before the job exists",
			params: validParams(),
			setup: func(d deps) {
				passthroughTx(d)
				d.products.
					On("ByIDs", mock.Anything, mock.Anything, []uuid.UUID{productID}).
					Return(map[uuid.UUID]*model.Product{productID: product()}, nil).
					Once()
				d.printers.
					On("ByIDs", mock.Anything, mock.Anything, []uuid.UUID{printerID}).
					Return(map[uuid.UUID]*model.PrinterProfile{printerID: printer()}, nil).
					Once()
				d.ledger.
					On("ConsumeTx", mock.Anything, mock.Anything, mock.Anything, false).
					Return(nil, &model.InsufficientStockError{Shortfalls: []model.Shortfall{
						{MaterialID: materialID, RequiredKg: dec("0.100"), OnHandKg: dec("0.020")},
					}}).
					Once()
			},
			assert: func(t *testing.T, res *model.CreateJobResult, err error, d deps) {
				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrInsufficientStock)
				assert.Nil(t, res)

				d.jobs.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
			},
		},
		{
			name:   "deducts stock and snapshots COGS in one transaction",
			params: validParams(),
			setup: func(d deps) {
				passthroughTx(d)
				d.products.
					On("ByIDs", mock.Anything, mock.Anything, []uuid.UUID{productID}).
					Return(map[uuid.UUID]*model.Product{productID: product()}, nil).
					Once()
				d.printers.
					On("ByIDs", mock.Anything, mock.Anything, []uuid.UUID{printerID}).
					Return(map[uuid.UUID]*model.PrinterProfile{printerID: printer()}, nil).
					Once()
				// 2 units of 0.050 kg each.
				d.ledger.
					On("ConsumeTx", mock.Anything, mock.Anything, mock.MatchedBy(func(q []model.StockDelta) bool {
						return len(q) == 1 && q[0].MaterialID == materialID && q[0].QuantityKg.Equal(dec("0.1"))
					}), false).
					Return([]model.Material{{ID: materialID, OnHandKg: dec("4.9")}}, nil).
					Once()
				d.materials.
					On("UnitCosts", mock.Anything, mock.Anything, []uuid.UUID{materialID}).
					Return(map[uuid.UUID]decimal.Decimal{materialID: dec("20.0000")}, nil).
					Once()
				// COP = 0.050*20 + 0.50 = 1.50; products = 3.00
				// printer = 900/9000 * 3h * 1 = 0.30; packaging = 1.00
				d.jobs.
					On("Insert", mock.Anything, mock.Anything, mock.MatchedBy(func(job *model.PrintJob) bool {
						return job.Status == model.StatusPending &&
							job.Deducted &&
							len(job.Deductions) == 1 &&
							job.Deductions[0].QuantityKg.Equal(dec("0.1")) &&
							job.COGS.Equal(dec("4.30"))
					})).
					Return(jobID, nil).
					Once()
			},
			assert: func(t *testing.T, res *model.CreateJobResult, err error, d deps) {
				require.NoError(t, err)
				require.NotNil(t, res)
				assert.Equal(t, jobID, res.ID)
				assert.True(t, res.COGS.Equal(dec("4.30")))
				assert.Empty(t, res.LowStockMaterials)
			},
		},
		{
			name:   "reports materials pushed below threshold",
			params: validParams(),
			setup: func(d deps) {
				threshold := dec("1.000")

				passthroughTx(d)
				d.products.
					On("ByIDs", mock.Anything, mock.Anything, []uuid.UUID{productID}).
					Return(map[uuid.UUID]*model.Product{productID: product()}, nil).
					Once()
				d.printers.
					On("ByIDs", mock.Anything, mock.Anything, []uuid.UUID{printerID}).
					Return(map[uuid.UUID]*model.PrinterProfile{printerID: printer()}, nil).
					Once()
				d.ledger.
					On("ConsumeTx", mock.Anything, mock.Anything, mock.Anything, false).
					Return([]model.Material{{
						ID:                  materialID,
						OnHandKg:            dec("0.9"),
						LowStockThresholdKg: &threshold,
					}}, nil).
					Once()
				d.materials.
					On("UnitCosts", mock.Anything, mock.Anything, mock.Anything).
					Return(map[uuid.UUID]decimal.Decimal{materialID: dec("20.0000")}, nil).
					Once()
				d.jobs.
					On("Insert", mock.Anything, mock.Anything, mock.Anything).
					Return(jobID, nil).
					Once()
				d.notifier.
					On("NotifyLowStock", mock.Anything, mock.MatchedBy(func(e model.LowStockEvent) bool {
						return e.MaterialID == materialID
					})).
					Return(nil).
					Once()
			},
			assert: func(t *testing.T, res *model.CreateJobResult, err error, d deps) {
				require.NoError(t, err)
				require.NotNil(t, res)
				assert.Equal(t, []uuid.UUID{materialID}, res.LowStockMaterials)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			d := newDeps(t)
			tc.setup(d)

			res, err := newSvc(d).Create(context.Background(), tc.params)
			tc.assert(t, res, err, d)
		})
	}
}

func TestServiceUpdate(t *testing.T) {
	t.Parallel()

	jobID := uuid.New()
	productID := uuid.New()
	materialA := uuid.New()
	materialB := uuid.New()

	product := func() *model.Product {
		return &model.Product{
			ID: productID,
			BOM: []model.BOMLine{
				{MaterialID: materialA, QuantityKg: dec("0.100")},
			},
		}
	}

	liveJob := func() *model.PrintJob {
		return &model.PrintJob{
			ID:       jobID,
			Status:   model.StatusPending,
			Deducted: true,
			Deductions: []model.Deduction{
				{MaterialID: materialA, QuantityKg: dec("0.100")},
				{MaterialID: materialB, QuantityKg: dec("0.200")},
			},
		}
	}

	params := model.UpdateJobParams{
		Products: []model.JobProduct{{ProductID: productID, Quantity: 3}},
	}

	type testCase struct {
		name   string
		setup  func(d deps)
		assert func(t *testing.T, job *model.PrintJob, err error, d deps)
	}

	tests := []testCase{
		{
			name: "terminal job rejects updates",
			setup: func(d deps) {
				job := liveJob()
				job.Status = model.StatusCompleted

				passthroughTx(d)
				d.jobs.
					On("LockByID", mock.Anything, mock.Anything, jobID).
					Return(job, nil).
					Once()
			},
			assert: func(t *testing.T, job *model.PrintJob, err error, d deps) {
				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrJobConflict)
				assert.Nil(t, job)
			},
		},
		{
			name: "applies the net delta only",
			setup: func(d deps) {
				passthroughTx(d)
				d.jobs.
					On("LockByID", mock.Anything, mock.Anything, jobID).
					Return(liveJob(), nil).
					Once()
				d.products.
					On("ByIDs", mock.Anything, mock.Anything, []uuid.UUID{productID}).
					Return(map[uuid.UUID]*model.Product{productID: product()}, nil).
					Once()
				d.printers.
					On("ByIDs", mock.Anything, mock.Anything, []uuid.UUID{}).
					Return(map[uuid.UUID]*model.PrinterProfile{}, nil).
					Once()
				// New requirement is 0.300 of A: consume the extra 0.200,
				// restore all of dropped B. A's base claim is untouched.
				d.ledger.
					On("ConsumeTx", mock.Anything, mock.Anything, mock.MatchedBy(func(q []model.StockDelta) bool {
						return len(q) == 1 && q[0].MaterialID == materialA && q[0].QuantityKg.Equal(dec("0.2"))
					}), false).
					Return([]model.Material{{ID: materialA, OnHandKg: dec("2")}}, nil).
					Once()
				d.ledger.
					On("RestoreTx", mock.Anything, mock.Anything, mock.MatchedBy(func(q []model.StockDelta) bool {
						return len(q) == 1 && q[0].MaterialID == materialB && q[0].QuantityKg.Equal(dec("0.2"))
					})).
					Return([]model.Material{{ID: materialB, OnHandKg: dec("1")}}, nil).
					Once()
				d.materials.
					On("UnitCosts", mock.Anything, mock.Anything, []uuid.UUID{materialA}).
					Return(map[uuid.UUID]decimal.Decimal{materialA: dec("10.0000")}, nil).
					Once()
				d.jobs.
					On("ReplaceComposition", mock.Anything, mock.Anything, jobID, mock.Anything).
					Return(nil).
					Once()
				d.jobs.
					On("UpdateCost", mock.Anything, mock.Anything, jobID, mock.MatchedBy(func(job *model.PrintJob) bool {
						// 3 * (0.100*10) = 3.00
						return job.COGS.Equal(dec("3"))
					})).
					Return(nil).
					Once()
			},
			assert: func(t *testing.T, job *model.PrintJob, err error, d deps) {
				require.NoError(t, err)
				require.NotNil(t, job)
				require.Len(t, job.Deductions, 1)
				assert.Equal(t, materialA, job.Deductions[0].MaterialID)
				assert.True(t, job.Deductions[0].QuantityKg.Equal(dec("0.3")))
			},
		},
		{
			name: "shortfall on the increase rolls everything back",
			setup: func(d deps) {
				passthroughTx(d)
				d.jobs.
					On("LockByID", mock.Anything, mock.Anything, jobID).
					Return(liveJob(), nil).
					Once()
				d.products.
					On("ByIDs", mock.Anything, mock.Anything, []uuid.UUID{productID}).
					Return(map[uuid.UUID]*model.Product{productID: product()}, nil).
					Once()
				d.printers.
					On("ByIDs", mock.Anything, mock.Anything, []uuid.UUID{}).
					Return(map[uuid.UUID]*model.PrinterProfile{}, nil).
					Once()
				d.ledger.
					On("ConsumeTx", mock.Anything, mock.Anything, mock.Anything, false).
					Return(nil, &model.InsufficientStockError{Shortfalls: []model.Shortfall{
						{MaterialID: materialA, RequiredKg: dec("0.200"), OnHandKg: dec("0.050")},
					}}).
					Once()
			},
			assert: func(t *testing.T, job *model.PrintJob, err error, d deps) {
				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrInsufficientStock)

				d.ledger.AssertNotCalled(t, "RestoreTx", mock.Anything, mock.Anything, mock.Anything)
				d.jobs.AssertNotCalled(t, "ReplaceComposition", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			d := newDeps(t)
			tc.setup(d)

			job, err := newSvc(d).Update(context.Background(), jobID, params)
			tc.assert(t, job, err, d)
		})
	}
}

func TestServiceTransitions(t *testing.T) {
	t.Parallel()

	jobID := uuid.New()

	type testCase struct {
		name    string
		from    model.JobStatus
		run     func(svc *service) error
		to      model.JobStatus
		wantErr error
	}

	tests := []testCase{
		{
			name: "start a pending job",
			from: model.StatusPending,
			run:  func(svc *service) error { return svc.Start(context.Background(), jobID) },
			to:   model.StatusInProgress,
		},
		{
			name:    "start an in-progress job conflicts",
			from:    model.StatusInProgress,
			run:     func(svc *service) error { return svc.Start(context.Background(), jobID) },
			wantErr: model.ErrJobConflict,
		},
		{
			name: "complete straight from pending",
			from: model.StatusPending,
			run:  func(svc *service) error { return svc.Complete(context.Background(), jobID) },
			to:   model.StatusCompleted,
		},
		{
			name: "complete an in-progress job",
			from: model.StatusInProgress,
			run:  func(svc *service) error { return svc.Complete(context.Background(), jobID) },
			to:   model.StatusCompleted,
		},
		{
			name:    "complete a cancelled job conflicts",
			from:    model.StatusCancelled,
			run:     func(svc *service) error { return svc.Complete(context.Background(), jobID) },
			wantErr: model.ErrJobConflict,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			d := newDeps(t)
			passthroughTx(d)
			d.jobs.
				On("LockByID", mock.Anything, mock.Anything, jobID).
				Return(&model.PrintJob{ID: jobID, Status: tc.from, Deducted: true}, nil).
				Once()
			if tc.wantErr == nil {
				d.jobs.
					On("UpdateStatus", mock.Anything, mock.Anything, jobID, tc.to).
					Return(nil).
					Once()
			}

			err := tc.run(newSvc(d))
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestServiceCancel(t *testing.T) {
	t.Parallel()

	jobID := uuid.New()
	materialID := uuid.New()

	type testCase struct {
		name   string
		job    *model.PrintJob
		setup  func(d deps)
		assert func(t *testing.T, err error, d deps)
	}

	tests := []testCase{
		{
			name: "restores the persisted deduction set",
			job: &model.PrintJob{
				ID:       jobID,
				Status:   model.StatusInProgress,
				Deducted: true,
				Deductions: []model.Deduction{
					{MaterialID: materialID, QuantityKg: dec("0.250")},
				},
			},
			setup: func(d deps) {
				d.ledger.
					On("RestoreTx", mock.Anything, mock.Anything, []model.StockDelta{
						{MaterialID: materialID, QuantityKg: dec("0.250")},
					}).
					Return([]model.Material{{ID: materialID, OnHandKg: dec("1")}}, nil).
					Once()
				d.jobs.
					On("SetReleased", mock.Anything, mock.Anything, jobID, model.StatusCancelled).
					Return(nil).
					Once()
			},
			assert: func(t *testing.T, err error, d deps) {
				require.NoError(t, err)
			},
		},
		{
			name: "already released claim is not restored twice",
			job: &model.PrintJob{
				ID:       jobID,
				Status:   model.StatusPending,
				Deducted: false,
			},
			setup: func(d deps) {
				d.jobs.
					On("SetReleased", mock.Anything, mock.Anything, jobID, model.StatusCancelled).
					Return(nil).
					Once()
			},
			assert: func(t *testing.T, err error, d deps) {
				require.NoError(t, err)
				d.ledger.AssertNotCalled(t, "RestoreTx", mock.Anything, mock.Anything, mock.Anything)
			},
		},
		{
			name: "cancelling a terminal job conflicts",
			job: &model.PrintJob{
				ID:     jobID,
				Status: model.StatusCancelled,
			},
			setup: func(d deps) {
				// No further calls expected.
			},
			assert: func(t *testing.T, err error, d deps) {
				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrJobConflict)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			d := newDeps(t)
			passthroughTx(d)
			d.jobs.
				On("LockByID", mock.Anything, mock.Anything, jobID).
				Return(tc.job, nil).
				Once()
			tc.setup(d)

			err := newSvc(d).Cancel(context.Background(), jobID)
			tc.assert(t, err, d)
		})
	}
}

func TestServiceDelete(t *testing.T) {
	t.Parallel()

	jobID := uuid.New()
	materialID := uuid.New()

	t.Run("completed job is deleted without touching stock", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)
		passthroughTx(d)
		d.jobs.
			On("LockByID", mock.Anything, mock.Anything, jobID).
			Return(&model.PrintJob{ID: jobID, Status: model.StatusCompleted, Deducted: true,
				Deductions: []model.Deduction{{MaterialID: materialID, QuantityKg: dec("0.100")}},
			}, nil).
			Once()
		d.ledger.
			On("RestoreTx", mock.Anything, mock.Anything, mock.Anything).
			Return([]model.Material{{ID: materialID}}, nil).
			Once()
		d.jobs.
			On("Delete", mock.Anything, mock.Anything, jobID).
			Return(nil).
			Once()

		require.NoError(t, newSvc(d).Delete(context.Background(), jobID))
	})

	t.Run("cancelled job has nothing to restore", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)
		passthroughTx(d)
		d.jobs.
			On("LockByID", mock.Anything, mock.Anything, jobID).
			Return(&model.PrintJob{ID: jobID, Status: model.StatusCancelled, Deducted: false}, nil).
			Once()
		d.jobs.
			On("Delete", mock.Anything, mock.Anything, jobID).
			Return(nil).
			Once()

		require.NoError(t, newSvc(d).Delete(context.Background(), jobID))
		d.ledger.AssertNotCalled(t, "RestoreTx", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDeductionDelta(t *testing.T) {
	t.Parallel()

	materialA := uuid.New()
	materialB := uuid.New()
	materialC := uuid.New()

	old := []model.Deduction{
		{MaterialID: materialA, QuantityKg: dec("0.100")},
		{MaterialID: materialB, QuantityKg: dec("0.200")},
	}
	required := []model.StockDelta{
		{MaterialID: materialA, QuantityKg: dec("0.300")},
		{MaterialID: materialC, QuantityKg: dec("0.050")},
	}

	increases, decreases := deductionDelta(old, required)

	require.Len(t, increases, 2)
	require.Len(t, decreases, 1)

	byID := func(deltas []model.StockDelta, id uuid.UUID) decimal.Decimal {
		for _, d := range deltas {
			if d.MaterialID == id {
				return d.QuantityKg
			}
		}
		t.Fatalf("material %s not in delta", id)
		return decimal.Zero
	}

	assert.True(t, byID(increases, materialA).Equal(dec("0.2")))
	assert.True(t, byID(increases, materialC).Equal(dec("0.05")))
	assert.True(t, byID(decreases, materialB).Equal(dec("0.2")))
}

// Completing a job must never move stock or recompute its cost snapshot.
func TestCompleteKeepsSnapshot(t *testing.T) {
	t.Parallel()

	jobID := uuid.New()

	d := newDeps(t)
	passthroughTx(d)
	d.jobs.
		On("LockByID", mock.Anything, mock.Anything, jobID).
		Return(&model.PrintJob{ID: jobID, Status: model.StatusInProgress, Deducted: true, COGS: dec("12.34")}, nil).
		Once()
	d.jobs.
		On("UpdateStatus", mock.Anything, mock.Anything, jobID, model.StatusCompleted).
		Return(nil).
		Once()

	require.NoError(t, newSvc(d).Complete(context.Background(), jobID))

	d.ledger.AssertNotCalled(t, "ConsumeTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	d.ledger.AssertNotCalled(t, "RestoreTx", mock.Anything, mock.Anything, mock.Anything)
	d.jobs.AssertNotCalled(t, "UpdateCost", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
