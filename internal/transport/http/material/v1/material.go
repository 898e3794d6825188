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

type RegistryService interface {
	CreateMaterial(ctx context.Context, params model.CreateMaterialParams) (*model.CreateMaterialResult, error)
	Material(ctx context.Context, id uuid.UUID) (*model.Material, error)
	Materials(ctx context.Context) ([]model.Material, error)
	DeleteMaterial(ctx context.Context, id uuid.UUID) error
	RecordPurchase(ctx context.Context, materialID uuid.UUID, params model.PurchaseParams) (*model.Material, error)
	DeletePurchase(ctx context.Context, eventID uuid.UUID) (*model.Material, error)
	Purchases(ctx context.Context, materialID uuid.UUID) ([]model.PurchaseEvent, error)
}

type handler struct {
	svc RegistryService
}

func NewMaterialHandler(service RegistryService) *handler {
	return &handler{svc: service}
}

func (h *handler) Register(r chi.Router) {
	r.Route("/materials", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/purchases", h.createPurchase)
		r.Get("/{id}/purchases", h.listPurchases)
	})
	r.Delete("/purchases/{id}", h.deletePurchase)
}

type purchaseRequest struct {
	QuantityKg decimal.Decimal `json:"quantity_kg"`
	PricePerKg decimal.Decimal `json:"price_per_kg"`
	AcquiredAt *time.Time      `json:"acquired_at,omitempty"`
	Channel    string          `json:"channel,omitempty"`
	Notes      string          `json:"notes,omitempty"`
}

type createMaterialRequest struct {
	Color               string           `json:"color"`
	Brand               string           `json:"brand"`
	Composition         string           `json:"composition"`
	EstimatedCostPerKg  decimal.Decimal  `json:"estimated_cost_per_kg"`
	LowStockThresholdKg *decimal.Decimal `json:"low_stock_threshold_kg,omitempty"`
	Purchase            *purchaseRequest `json:"purchase,omitempty"`
}

type materialResponse struct {
	ID                  string           `json:"id"`
	Color               string           `json:"color"`
	Brand               string           `json:"brand"`
	Composition         string           `json:"composition"`
	UnitCostPerKg       decimal.Decimal  `json:"unit_cost_per_kg"`
	OnHandKg            decimal.Decimal  `json:"on_hand_kg"`
	LowStockThresholdKg *decimal.Decimal `json:"low_stock_threshold_kg,omitempty"`
	Tracked             bool             `json:"tracked"`
	LowStock            bool             `json:"low_stock"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

type createMaterialResponse struct {
	Material      materialResponse `json:"material"`
	AlreadyExists bool             `json:"already_exists"`
	Warnings      []string         `json:"warnings,omitempty"`
}

type purchaseResponse struct {
	ID         string          `json:"id"`
	MaterialID string          `json:"material_id"`
	QuantityKg decimal.Decimal `json:"quantity_kg"`
	PricePerKg decimal.Decimal `json:"price_per_kg"`
	AcquiredAt time.Time       `json:"acquired_at"`
	Channel    string          `json:"channel,omitempty"`
	Notes      string          `json:"notes,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	var req createMaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	params := model.CreateMaterialParams{
		Color:               req.Color,
		Brand:               req.Brand,
		Composition:         req.Composition,
		EstimatedCostPerKg:  req.EstimatedCostPerKg,
		LowStockThresholdKg: req.LowStockThresholdKg,
	}
	if req.Purchase != nil {
		p := purchaseParams(*req.Purchase)
		params.Purchase = &p
	}

	res, err := h.svc.CreateMaterial(r.Context(), params)
	if err != nil {
		mapError(w, r, err)
		return
	}

	// An existing identity tuple answers 200 with the existing row; a fresh
	// creation answers 201.
	status := http.StatusCreated
	if res.AlreadyExists {
		status = http.StatusOK
	}
	respond.JSON(w, r, status, createMaterialResponse{
		Material:      toMaterialResponse(res.Material),
		AlreadyExists: res.AlreadyExists,
		Warnings:      res.Warnings,
	})
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	materials, err := h.svc.Materials(r.Context())
	if err != nil {
		mapError(w, r, err)
		return
	}

	out := make([]materialResponse, 0, len(materials))
	for i := range materials {
		out = append(out, toMaterialResponse(&materials[i]))
	}
	respond.JSON(w, r, http.StatusOK, out)
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	m, err := h.svc.Material(r.Context(), id)
	if err != nil {
		mapError(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, toMaterialResponse(m))
}

func (h *handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteMaterial(r.Context(), id); err != nil {
		mapError(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusNoContent, nil)
}

func (h *handler) createPurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	m, err := h.svc.RecordPurchase(r.Context(), id, purchaseParams(req))
	if err != nil {
		mapError(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusCreated, toMaterialResponse(m))
}

func (h *handler) listPurchases(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	events, err := h.svc.Purchases(r.Context(), id)
	if err != nil {
		mapError(w, r, err)
		return
	}

	out := make([]purchaseResponse, 0, len(events))
	for _, e := range events {
		out = append(out, purchaseResponse{
			ID:         e.ID.String(),
			MaterialID: e.MaterialID.String(),
			QuantityKg: e.QuantityKg,
			PricePerKg: e.PricePerKg,
			AcquiredAt: e.AcquiredAt,
			Channel:    e.Channel,
			Notes:      e.Notes,
			CreatedAt:  e.CreatedAt,
		})
	}
	respond.JSON(w, r, http.StatusOK, out)
}

func (h *handler) deletePurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	m, err := h.svc.DeletePurchase(r.Context(), id)
	if err != nil {
		mapError(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, toMaterialResponse(m))
}

func purchaseParams(req purchaseRequest) model.PurchaseParams {
	params := model.PurchaseParams{
		QuantityKg: req.QuantityKg,
		PricePerKg: req.PricePerKg,
		Channel:    req.Channel,
		Notes:      req.Notes,
	}
	if req.AcquiredAt != nil {
		params.AcquiredAt = *req.AcquiredAt
	} else {
		params.AcquiredAt = time.Now()
	}
	return params
}

func toMaterialResponse(m *model.Material) materialResponse {
	return materialResponse{
		ID:                  m.ID.String(),
		Color:               m.Color,
		Brand:               m.Brand,
		Composition:         m.Composition,
		UnitCostPerKg:       m.UnitCost,
		OnHandKg:            m.OnHandKg,
		LowStockThresholdKg: m.LowStockThresholdKg,
		Tracked:             m.Tracked,
		LowStock:            m.LowStock(),
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
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
	switch {
	case errors.Is(err, model.ErrValidation):
		respond.Error(w, r, http.StatusBadRequest, err) // 400
	case errors.Is(err, model.ErrMaterialNotFound), errors.Is(err, model.ErrPurchaseNotFound):
		respond.Error(w, r, http.StatusNotFound, err) // 404
	case errors.Is(err, model.ErrMaterialInUse):
		respond.Error(w, r, http.StatusConflict, err) // 409
	case errors.Is(err, model.ErrDuplicateRace):
		respond.Error(w, r, http.StatusServiceUnavailable, err) // 503
	default:
		respond.Error(w, r, http.StatusInternalServerError, err) // 500
	}
}
