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

type PrintJobService interface {
	Create(ctx context.Context, params model.CreateJobParams) (*model.CreateJobResult, error)
	Update(ctx context.Context, id uuid.UUID, params model.UpdateJobParams) (*model.PrintJob, error)
	Job(ctx context.Context, id uuid.UUID) (*model.PrintJob, error)
	Start(ctx context.Context, id uuid.UUID) error
	Complete(ctx context.Context, id uuid.UUID) error
	Cancel(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type handler struct {
	svc PrintJobService
}

func NewPrintJobHandler(service PrintJobService) *handler {
	return &handler{svc: service}
}

func (h *handler) Register(r chi.Router) {
	r.Route("/jobs", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/start", h.start)
		r.Post("/{id}/complete", h.complete)
		r.Post("/{id}/cancel", h.cancel)
	})
}

type jobProductRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

type jobPrinterRequest struct {
	PrinterProfileID string          `json:"printer_profile_id"`
	HoursUsed        decimal.Decimal `json:"hours_used"`
	Units            int64           `json:"units"`
}

type jobRequest struct {
	Products      []jobProductRequest `json:"products"`
	Printers      []jobPrinterRequest `json:"printers,omitempty"`
	PackagingCost decimal.Decimal     `json:"packaging_cost"`
}

type createJobResponse struct {
	ID                string          `json:"id"`
	COGS              decimal.Decimal `json:"cogs"`
	LowStockMaterials []string        `json:"low_stock_materials,omitempty"`
}

type deductionResponse struct {
	MaterialID string          `json:"material_id"`
	QuantityKg decimal.Decimal `json:"quantity_kg"`
}

type jobResponse struct {
	ID            string              `json:"id"`
	Status        string              `json:"status"`
	Products      []jobProductRequest `json:"products"`
	Printers      []jobPrinterRequest `json:"printers,omitempty"`
	PackagingCost decimal.Decimal     `json:"packaging_cost"`
	COGS          decimal.Decimal     `json:"cogs"`
	Deducted      bool                `json:"deducted"`
	Deductions    []deductionResponse `json:"deductions,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

type shortfallDetail struct {
	MaterialID string          `json:"material_id"`
	Name       string          `json:"name"`
	RequiredKg decimal.Decimal `json:"required_kg"`
	OnHandKg   decimal.Decimal `json:"on_hand_kg"`
	ShortKg    decimal.Decimal `json:"short_kg"`
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	var req jobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	products, printers, ok := decodeComposition(w, r, req)
	if !ok {
		return
	}

	res, err := h.svc.Create(r.Context(), model.CreateJobParams{
		Products:      products,
		Printers:      printers,
		PackagingCost: req.PackagingCost,
	})
	if err != nil {
		mapError(w, r, err)
		return
	}

	low := make([]string, 0, len(res.LowStockMaterials))
	for _, id := range res.LowStockMaterials {
		low = append(low, id.String())
	}
	respond.JSON(w, r, http.StatusCreated, createJobResponse{
		ID:                res.ID.String(),
		COGS:              res.COGS,
		LowStockMaterials: low,
	})
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	job, err := h.svc.Job(r.Context(), id)
	if err != nil {
		mapError(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, toJobResponse(job))
}

func (h *handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req jobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	products, printers, decoded := decodeComposition(w, r, req)
	if !decoded {
		return
	}

	job, err := h.svc.Update(r.Context(), id, model.UpdateJobParams{
		Products:      products,
		Printers:      printers,
		PackagingCost: req.PackagingCost,
	})
	if err != nil {
		mapError(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, toJobResponse(job))
}

func (h *handler) delete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Delete)
}

func (h *handler) start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Start)
}

func (h *handler) complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Complete)
}

func (h *handler) cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Cancel)
}

func (h *handler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, uuid.UUID) error) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := op(r.Context(), id); err != nil {
		mapError(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusNoContent, nil)
}

func decodeComposition(w http.ResponseWriter, r *http.Request, req jobRequest) ([]model.JobProduct, []model.JobPrinter, bool) {
	products := make([]model.JobProduct, 0, len(req.Products))
	for _, p := range req.Products {
		productID, err := uuid.Parse(p.ProductID)
		if err != nil {
			respond.Error(w, r, http.StatusBadRequest, errors.New("invalid product_id"))
			return nil, nil, false
		}
		products = append(products, model.JobProduct{ProductID: productID, Quantity: p.Quantity})
	}

	printers := make([]model.JobPrinter, 0, len(req.Printers))
	for _, p := range req.Printers {
		printerID, err := uuid.Parse(p.PrinterProfileID)
		if err != nil {
			respond.Error(w, r, http.StatusBadRequest, errors.New("invalid printer_profile_id"))
			return nil, nil, false
		}
		printers = append(printers, model.JobPrinter{
			PrinterProfileID: printerID,
			HoursUsed:        p.HoursUsed,
			Units:            p.Units,
		})
	}

	return products, printers, true
}

func toJobResponse(job *model.PrintJob) jobResponse {
	products := make([]jobProductRequest, 0, len(job.Products))
	for _, p := range job.Products {
		products = append(products, jobProductRequest{ProductID: p.ProductID.String(), Quantity: p.Quantity})
	}

	printers := make([]jobPrinterRequest, 0, len(job.Printers))
	for _, p := range job.Printers {
		printers = append(printers, jobPrinterRequest{
			PrinterProfileID: p.PrinterProfileID.String(),
			HoursUsed:        p.HoursUsed,
			Units:            p.Units,
		})
	}

	deductions := make([]deductionResponse, 0, len(job.Deductions))
	for _, d := range job.Deductions {
		deductions = append(deductions, deductionResponse{
			MaterialID: d.MaterialID.String(),
			QuantityKg: d.QuantityKg,
		})
	}

	return jobResponse{
		ID:            job.ID.String(),
		Status:        string(job.Status),
		Products:      products,
		Printers:      printers,
		PackagingCost: job.PackagingCost,
		COGS:          job.COGS,
		Deducted:      job.Deducted,
		Deductions:    deductions,
		CreatedAt:     job.CreatedAt,
		UpdatedAt:     job.UpdatedAt,
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, errors.New("invalid id"))
		return uuid.Nil, false
	}
	return id, true
}

func mapError(w http.ResponseWriter, r *http.Request, err error) {
	var insufficient *model.InsufficientStockError

	switch {
	case errors.Is(err, model.ErrValidation):
		respond.Error(w, r, http.StatusBadRequest, err) // 400
	case errors.Is(err, model.ErrJobNotFound):
		respond.Error(w, r, http.StatusNotFound, err) // 404
	case errors.Is(err, model.ErrJobConflict):
		respond.Error(w, r, http.StatusConflict, err) // 409
	case errors.As(err, &insufficient):
		respond.ErrorDetails(w, r, http.StatusUnprocessableEntity, err, shortfallDetails(insufficient)) // 422
	case errors.Is(err, model.ErrInsufficientStock), errors.Is(err, model.ErrDanglingReference):
		respond.Error(w, r, http.StatusUnprocessableEntity, err) // 422
	case errors.Is(err, model.ErrMaterialNotFound):
		// A missing ledger row behind a valid BOM is a dangling reference
		// from the job's point of view.
		respond.Error(w, r, http.StatusUnprocessableEntity, err) // 422
	default:
		respond.Error(w, r, http.StatusInternalServerError, err) // 500
	}
}

func shortfallDetails(e *model.InsufficientStockError) []shortfallDetail {
	out := make([]shortfallDetail, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		out = append(out, shortfallDetail{
			MaterialID: s.MaterialID.String(),
			Name:       s.Name,
			RequiredKg: s.RequiredKg,
			OnHandKg:   s.OnHandKg,
			ShortKg:    s.ShortKg(),
		})
	}
	return out
}
