package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jnardiello/printfarmhq-sub002/internal/model"
	"github.com/jnardiello/printfarmhq-sub002/internal/transport/http/respond"
)

type PrinterService interface {
	CreatePrinter(ctx context.Context, params model.CreatePrinterParams) (*model.PrinterProfile, error)
	Printer(ctx context.Context, id uuid.UUID) (*model.PrinterProfile, error)
	Printers(ctx context.Context) ([]model.PrinterProfile, error)
}

type handler struct {
	svc PrinterService
}

func NewPrinterHandler(service PrinterService) *handler {
	return &handler{svc: service}
}

func (h *handler) Register(r chi.Router) {
	r.Route("/printers", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
}

type createPrinterRequest struct {
	Name                  string          `json:"name"`
	PurchasePrice         decimal.Decimal `json:"purchase_price"`
	ExpectedLifetimeHours decimal.Decimal `json:"expected_lifetime_hours"`
}

type printerResponse struct {
	ID                    string          `json:"id"`
	Name                  string          `json:"name"`
	PurchasePrice         decimal.Decimal `json:"purchase_price"`
	ExpectedLifetimeHours decimal.Decimal `json:"expected_lifetime_hours"`
	CreatedAt             time.Time       `json:"created_at"`
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	var req createPrinterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	p, err := h.svc.CreatePrinter(r.Context(), model.CreatePrinterParams{
		Name:                  req.Name,
		PurchasePrice:         req.PurchasePrice,
		ExpectedLifetimeHours: req.ExpectedLifetimeHours,
	})
	if err != nil {
		mapError(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusCreated, toPrinterResponse(p))
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	printers, err := h.svc.Printers(r.Context())
	if err != nil {
		mapError(w, r, err)
		return
	}

	out := make([]printerResponse, 0, len(printers))
	for i := range printers {
		out = append(out, toPrinterResponse(&printers[i]))
	}
	respond.JSON(w, r, http.StatusOK, out)
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, errors.New("invalid id"))
		return
	}

	p, err := h.svc.Printer(r.Context(), id)
	if err != nil {
		mapError(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, toPrinterResponse(p))
}

func toPrinterResponse(p *model.PrinterProfile) printerResponse {
	return printerResponse{
		ID:                    p.ID.String(),
		Name:                  p.Name,
		PurchasePrice:         p.PurchasePrice,
		ExpectedLifetimeHours: p.ExpectedLifetimeHours,
		CreatedAt:             p.CreatedAt,
	}
}

func mapError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		respond.Error(w, r, http.StatusBadRequest, err) // 400
	case errors.Is(err, model.ErrPrinterNotFound):
		respond.Error(w, r, http.StatusNotFound, err) // 404
	default:
		respond.Error(w, r, http.StatusInternalServerError, err) // 500
	}
}
