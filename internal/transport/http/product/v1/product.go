package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/jnardiello/printfarmhq-sub002/internal/model"
	"github.com/jnardiello/printfarmhq-sub002/internal/transport/http/respond"
)

type ProductService interface {
	CreateProduct(ctx context.Context, params model.CreateProductParams) (*model.Product, error)
	ProductCost(ctx context.Context, id uuid.UUID) (*model.ProductCost, error)
	Products(ctx context.Context) ([]model.ProductCost, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type handler struct {
	svc ProductService
}

func NewProductHandler(service ProductService) *handler {
	return &handler{svc: service}
}

func (h *handler) Register(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Delete("/{id}", h.delete)
	})
}

type bomLineRequest struct {
	MaterialID string          `json:"material_id"`
	QuantityKg decimal.Decimal `json:"quantity_kg"`
}

type createProductRequest struct {
	SKU                 string           `json:"sku"`
	Name                string           `json:"name"`
	BOM                 []bomLineRequest `json:"bom"`
	AdditionalPartsCost decimal.Decimal  `json:"additional_parts_cost"`
	TimeToProduceMin    int64            `json:"time_to_produce_min"`
}

type bomLineResponse struct {
	MaterialID string          `json:"material_id"`
	QuantityKg decimal.Decimal `json:"quantity_kg"`
}

type productResponse struct {
	ID                  string            `json:"id"`
	SKU                 string            `json:"sku"`
	Name                string            `json:"name"`
	BOM                 []bomLineResponse `json:"bom"`
	AdditionalPartsCost decimal.Decimal   `json:"additional_parts_cost"`
	TimeToProduceMin    int64             `json:"time_to_produce_min"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`

	// COP is present on reads; it is derived from current unit costs,
	// never stored.
	COP *decimal.Decimal `json:"cost_of_production,omitempty"`
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	bom := make([]model.BOMLine, 0, len(req.BOM))
	for _, l := range req.BOM {
		materialID, err := uuid.Parse(l.MaterialID)
		if err != nil {
			respond.Error(w, r, http.StatusBadRequest, errors.New("invalid bom material_id"))
			return
		}
		bom = append(bom, model.BOMLine{MaterialID: materialID, QuantityKg: l.QuantityKg})
	}

	p, err := h.svc.CreateProduct(r.Context(), model.CreateProductParams{
		SKU:                 req.SKU,
		Name:                req.Name,
		BOM:                 bom,
		AdditionalPartsCost: req.AdditionalPartsCost,
		TimeToProduce:       time.Duration(req.TimeToProduceMin) * time.Minute,
	})
	if err != nil {
		mapError(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusCreated, toProductResponse(p, nil))
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.Products(r.Context())
	if err != nil {
		mapError(w, r, err)
		return
	}

	out := make([]productResponse, 0, len(products))
	for _, pc := range products {
		out = append(out, toProductResponse(pc.Product, lo.ToPtr(pc.COP)))
	}
	respond.JSON(w, r, http.StatusOK, out)
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, errors.New("invalid id"))
		return
	}

	pc, err := h.svc.ProductCost(r.Context(), id)
	if err != nil {
		mapError(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, toProductResponse(pc.Product, lo.ToPtr(pc.COP)))
}

func (h *handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, errors.New("invalid id"))
		return
	}

	if err := h.svc.DeleteProduct(r.Context(), id); err != nil {
		mapError(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusNoContent, nil)
}

func toProductResponse(p *model.Product, cop *decimal.Decimal) productResponse {
	bom := make([]bomLineResponse, 0, len(p.BOM))
	for _, l := range p.BOM {
		bom = append(bom, bomLineResponse{
			MaterialID: l.MaterialID.String(),
			QuantityKg: l.QuantityKg,
		})
	}

	return productResponse{
		ID:                  p.ID.String(),
		SKU:                 p.SKU,
		Name:                p.Name,
		BOM:                 bom,
		AdditionalPartsCost: p.AdditionalPartsCost,
		TimeToProduceMin:    int64(p.TimeToProduce.Minutes()),
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
		COP:                 cop,
	}
}

func mapError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		respond.Error(w, r, http.StatusBadRequest, err) // 400
	case errors.Is(err, model.ErrProductNotFound):
		respond.Error(w, r, http.StatusNotFound, err) // 404
	case errors.Is(err, model.ErrProductExists), errors.Is(err, model.ErrProductInUse):
		respond.Error(w, r, http.StatusConflict, err) // 409
	case errors.Is(err, model.ErrDanglingReference):
		respond.Error(w, r, http.StatusUnprocessableEntity, err) // 422
	default:
		respond.Error(w, r, http.StatusInternalServerError, err) // 500
	}
}
