package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/rcliao/expiry-tracker/internal/dates"
	"github.com/rcliao/expiry-tracker/internal/expiry"
	"github.com/rcliao/expiry-tracker/internal/model"
	"github.com/rcliao/expiry-tracker/internal/store"
)

type Handler struct {
	products Products
	checker  Checker
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewHandler creates a Handler. checker may be nil, in which case manual
// checks answer 503.
func NewHandler(products Products, checker Checker, logger *slog.Logger) *Handler {
	return &Handler{
		products: products,
		checker:  checker,
		validate: model.NewValidator(),
		logger:   logger.With("component", "api"),
		now:      time.Now,
	}
}

// RegisterRoutes registers the HTTP routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetProduct)
				r.Patch("/", h.UpdateProduct)
				r.Delete("/", h.DeleteProduct)
			})
		})
		r.Post("/dates/extract", h.ExtractDates)
		r.Post("/dates/normalize", h.NormalizeDate)
		r.Get("/status", h.Status)
		r.Post("/notifications/check", h.CheckNotifications)
	})

	r.Get("/healthz", h.HealthCheck)
}

// productView is a product with its current classification.
type productView struct {
	model.Product
	Status expiry.Status `json:"status"`
}

func (h *Handler) view(p model.Product) productView {
	return productView{Product: p, Status: expiry.Classify(p.ExpirationDate, h.now())}
}

type createProductRequest struct {
	Name           string `json:"name" validate:"required"`
	Category       string `json:"category"`
	ExpirationDate string `json:"expiration_date" validate:"required"`
	PurchaseDate   string `json:"purchase_date"`
	Barcode        string `json:"barcode"`
	Brand          string `json:"brand"`
	Notes          string `json:"notes"`
	ImageURL       string `json:"image_url"`
}

type updateProductRequest struct {
	Name           *string `json:"name"`
	Category       *string `json:"category"`
	ExpirationDate *string `json:"expiration_date"`
	// An empty string clears the purchase date.
	PurchaseDate *string `json:"purchase_date"`
	Barcode      *string `json:"barcode"`
	Brand        *string `json:"brand"`
	Notes        *string `json:"notes"`
	ImageURL     *string `json:"image_url"`
}

func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	return h.logger.With("request_id", middleware.GetReqID(r.Context()))
}

// ListProducts lists products with their status. Query parameters:
// category, order_by, limit, q (substring search).
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, mLogger, http.StatusBadRequest, fmt.Sprintf("Invalid limit: %s", raw))
			return
		}
		limit = n
	}

	var list []model.Product
	var err error
	if search := q.Get("q"); search != "" {
		list, err = h.products.Search(r.Context(), search, limit)
	} else {
		list, err = h.products.List(r.Context(), store.ListParams{
			Category: q.Get("category"),
			OrderBy:  q.Get("order_by"),
			Limit:    limit,
		})
	}
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving product list", "error", err)
		respondError(w, mLogger, http.StatusBadRequest, err.Error())
		return
	}

	views := make([]productView, 0, len(list))
	for _, p := range list {
		views = append(views, h.view(p))
	}
	respondJSON(w, mLogger, http.StatusOK, views)
}

// CreateProduct stores a new product.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		respondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		if respondValidation(w, mLogger, err) {
			return
		}
		respondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}

	exp, err := dates.ParseDate(req.ExpirationDate, time.Local)
	if err != nil {
		respondJSON(w, mLogger, http.StatusBadRequest, map[string]any{
			"validation_errors": map[string]string{"ExpirationDate": err.Error()},
		})
		return
	}
	params := store.AddParams{
		Name:           req.Name,
		Category:       req.Category,
		ExpirationDate: exp,
		Barcode:        req.Barcode,
		Brand:          req.Brand,
		Notes:          req.Notes,
		ImageURL:       req.ImageURL,
	}
	if req.PurchaseDate != "" {
		d, err := dates.ParseDate(req.PurchaseDate, time.Local)
		if err != nil {
			respondJSON(w, mLogger, http.StatusBadRequest, map[string]any{
				"validation_errors": map[string]string{"PurchaseDate": err.Error()},
			})
			return
		}
		params.PurchaseDate = &d
	}

	p, err := h.products.Add(r.Context(), params)
	if err != nil {
		if respondValidation(w, mLogger, err) {
			return
		}
		mLogger.ErrorContext(r.Context(), "Error creating product", "error", err)
		respondError(w, mLogger, http.StatusInternalServerError, "Failed to create product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product created successfully", "ID", p.ID, "Name", p.Name)
	respondJSON(w, mLogger, http.StatusCreated, h.view(*p))
}

// GetProduct retrieves a product by id.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := parseID(w, r, mLogger)
	if !ok {
		return
	}

	p, err := h.products.Get(r.Context(), id)
	if err != nil {
		h.storeError(w, r, mLogger, id, err)
		return
	}
	respondJSON(w, mLogger, http.StatusOK, h.view(*p))
}

// UpdateProduct applies a partial update.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := parseID(w, r, mLogger)
	if !ok {
		return
	}

	var req updateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}

	params := store.UpdateParams{
		Name:     req.Name,
		Category: req.Category,
		Barcode:  req.Barcode,
		Brand:    req.Brand,
		Notes:    req.Notes,
		ImageURL: req.ImageURL,
	}
	if req.ExpirationDate != nil {
		d, err := dates.ParseDate(*req.ExpirationDate, time.Local)
		if err != nil {
			respondJSON(w, mLogger, http.StatusBadRequest, map[string]any{
				"validation_errors": map[string]string{"ExpirationDate": err.Error()},
			})
			return
		}
		params.ExpirationDate = &d
	}
	if req.PurchaseDate != nil {
		if *req.PurchaseDate == "" {
			params.ClearPurchaseDate = true
		} else {
			d, err := dates.ParseDate(*req.PurchaseDate, time.Local)
			if err != nil {
				respondJSON(w, mLogger, http.StatusBadRequest, map[string]any{
					"validation_errors": map[string]string{"PurchaseDate": err.Error()},
				})
				return
			}
			params.PurchaseDate = &d
		}
	}

	p, err := h.products.Update(r.Context(), id, params)
	if err != nil {
		if respondValidation(w, mLogger, err) {
			return
		}
		h.storeError(w, r, mLogger, id, err)
		return
	}
	respondJSON(w, mLogger, http.StatusOK, h.view(*p))
}

// DeleteProduct removes a product.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := parseID(w, r, mLogger)
	if !ok {
		return
	}
	if err := h.products.Delete(r.Context(), id); err != nil {
		h.storeError(w, r, mLogger, id, err)
		return
	}
	mLogger.InfoContext(r.Context(), "Product deleted", "ID", id)
	respondJSON(w, mLogger, http.StatusNoContent, nil)
}

func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, id int64, err error) {
	if errors.Is(err, store.ErrNotFound) {
		logger.WarnContext(r.Context(), "Product not found", "ID", id)
		respondError(w, logger, http.StatusNotFound, fmt.Sprintf("Product with ID %d not found", id))
		return
	}
	logger.ErrorContext(r.Context(), "Store error", "ID", id, "error", err)
	respondError(w, logger, http.StatusInternalServerError, "Failed to access product")
}

// ExtractDates returns the date candidates found in {"text": ...}.
func (h *Handler) ExtractDates(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	respondJSON(w, mLogger, http.StatusOK, map[string]any{
		"candidates": dates.ExtractCandidates(req.Text),
	})
}

// NormalizeDate converts {"raw": ...} to a canonical date, answering 422
// with the raw text when it cannot be parsed.
func (h *Handler) NormalizeDate(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var req struct {
		Raw string `json:"raw"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	d, err := dates.Normalize(req.Raw)
	if err != nil {
		respondJSON(w, mLogger, http.StatusUnprocessableEntity, map[string]string{
			"error": "could not parse",
			"raw":   req.Raw,
		})
		return
	}
	respondJSON(w, mLogger, http.StatusOK, map[string]string{"date": d})
}

// Status classifies ?expires=... against the current time.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	raw := r.URL.Query().Get("expires")
	exp, err := dates.ParseDate(raw, time.Local)
	if err != nil {
		respondError(w, mLogger, http.StatusBadRequest, fmt.Sprintf("Invalid expires: %q", raw))
		return
	}
	respondJSON(w, mLogger, http.StatusOK, expiry.Classify(exp, h.now()))
}

// CheckNotifications runs a notification pass now.
func (h *Handler) CheckNotifications(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	if h.checker == nil {
		respondError(w, mLogger, http.StatusServiceUnavailable, "Notifications are not configured")
		return
	}
	report := h.checker.CheckAndNotify(r.Context())
	respondJSON(w, mLogger, http.StatusOK, report)
}

// HealthCheck answers liveness probes.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ok"})
}
