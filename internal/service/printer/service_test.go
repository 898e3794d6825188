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
	"github.com/jnardiello/printfarmhq-sub002/internal/service/mocks"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestServiceCreatePrinter(t *testing.T) {
	t.Parallel()

	type deps struct {
		repo *mocks.MockPrinterRepository
		txm  *mocks.MockTxManager
	}

	printerID := uuid.New()

	validParams := func() model.CreatePrinterParams {
		return model.CreatePrinterParams{
			Name:                  "Prusa MK4",
			PurchasePrice:         dec("899.00"),
			ExpectedLifetimeHours: dec("9000"),
		}
	}

	type testCase struct {
		name   string
		params model.CreatePrinterParams
		setup  func(d deps)
		assert func(t *testing.T, p *model.PrinterProfile, err error, d deps)
	}

	tests := []testCase{
		{
			name: "validation error: empty name",
			params: func() model.CreatePrinterParams {
				p := validParams()
				p.Name = " "
				return p
			}(),
			setup: func(d deps) {
				// No calls expected.
			},
			assert: func(t *testing.T, p *model.PrinterProfile, err error, d deps) {
				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrValidation)
				assert.Nil(t, p)
			},
		},
		{
			name: "validation error: negative purchase price",
			params: func() model.CreatePrinterParams {
				p := validParams()
				p.PurchasePrice = dec("-1")
				return p
			}(),
			setup: func(d deps) {
				// No calls expected.
			},
			assert: func(t *testing.T, p *model.PrinterProfile, err error, d deps) {
				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrValidation)
			},
		},
		{
			name: "validation error: non-positive lifetime",
			params: func() model.CreatePrinterParams {
				p := validParams()
				p.ExpectedLifetimeHours = decimal.Zero
				return p
			}(),
			setup: func(d deps) {
				// No calls expected.
			},
			assert: func(t *testing.T, p *model.PrinterProfile, err error, d deps) {
				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrValidation)
			},
		},
		{
			name:   "success",
			params: validParams(),
			setup: func(d deps) {
				d.txm.On("Q").Return(nil)
				d.repo.
					On("Insert", mock.Anything, mock.Anything, mock.MatchedBy(func(p *model.PrinterProfile) bool {
						return p.Name == "Prusa MK4"
					})).
					Return(printerID, nil).
					Once()
			},
			assert: func(t *testing.T, p *model.PrinterProfile, err error, d deps) {
				require.NoError(t, err)
				require.NotNil(t, p)
				assert.Equal(t, printerID, p.ID)
				assert.True(t, p.HourlyDepreciation().Equal(dec("899").Div(dec("9000"))))
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			d := deps{
				repo: mocks.NewMockPrinterRepository(t),
				txm:  mocks.NewMockTxManager(t),
			}
			tc.setup(d)

			p, err := NewPrinterService(d.repo, d.txm).CreatePrinter(context.Background(), tc.params)
			tc.assert(t, p, err, d)
		})
	}
}

func TestServicePrinter(t *testing.T) {
	t.Parallel()

	repo := mocks.NewMockPrinterRepository(t)
	txm := mocks.NewMockTxManager(t)
	svc := NewPrinterService(repo, txm)

	id := uuid.New()
	txm.On("Q").Return(nil)
	repo.
		On("ByID", mock.Anything, mock.Anything, id).
		Return(nil, model.ErrPrinterNotFound).
		Once()

	p, err := svc.Printer(context.Background(), id)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrPrinterNotFound)
	assert.Nil(t, p)
}
