// Package httpapi exposes the order pipeline over HTTP: the customer
// submission and tracking surfaces, the staff management surface, the
// estimator, and the advisory AI endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/printgenie/orderflow/internal/errs"
	"github.com/printgenie/orderflow/internal/live"
	"github.com/printgenie/orderflow/internal/models"
	"github.com/printgenie/orderflow/internal/orders"
	"github.com/printgenie/orderflow/internal/precheck"
	"github.com/printgenie/orderflow/internal/pricing"
	"github.com/printgenie/orderflow/internal/refid"
	"github.com/printgenie/orderflow/internal/store"
	"github.com/printgenie/orderflow/internal/upload"
)

// maxUploadBytes caps customer uploads at 50MB, matching the submission
// form's advertised limit.
const maxUploadBytes = 50 << 20

// Assistant is the stateless answer collaborator behind the chat widget.
type Assistant interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Handlers carries every dependency the HTTP surface needs.
type Handlers struct {
	Orders    *orders.Service
	Store     store.OrderStore
	Config    store.ConfigStore
	Blobs     upload.BlobStore
	Gate      *precheck.Gate
	Assistant Assistant
	Hub       *live.Hub
	Log       *slog.Logger
}

// CreateOrderResponse is returned to the submission form on success.
type CreateOrderResponse struct {
	Order *models.Order `json:"order"`
}

// CreateOrder accepts the multipart submission form: client fields plus the
// print file. The file is streamed to blob storage first; the order record
// is only created after the upload completes, so a record never carries a
// dangling file reference. Disconnecting mid-upload cancels the transfer
// and leaves no record behind.
func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(4 << 20); err != nil {
		h.writeError(w, errs.NewValidationErrorWithCause("form", err))
		return
	}

	name := r.FormValue("clientName")
	email := r.FormValue("clientEmail")
	notes := r.FormValue("notes")
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, errs.NewValidationErrorWithCause("file", err))
		return
	}
	defer file.Close()

	if name == "" {
		h.writeError(w, errs.NewValidationError("clientName"))
		return
	}
	if email == "" {
		h.writeError(w, errs.NewValidationError("clientEmail"))
		return
	}

	ref := refid.Generate()
	object := fmt.Sprintf("orders/%s_%s", ref, header.Filename)
	contentType := header.Header.Get("Content-Type")

	task := upload.NewTask(h.Blobs, object, contentType, file, header.Size)
	go task.Run(r.Context())

	var fileURL string
	for ev := range task.Events() {
		switch ev.State {
		case upload.StateCompleted:
			fileURL = ev.URL
		case upload.StateFailed:
			h.writeError(w, ev.Err)
			return
		case upload.StateCanceled:
			// The customer went away; there is nothing to respond to and
			// no order record to clean up because none was created.
			h.Log.Info("upload canceled before order creation", "reference", ref)
			return
		}
	}

	order, err := h.Orders.Create(r.Context(), orders.CreateRequest{
		ClientName:      name,
		ClientEmail:     email,
		Notes:           notes,
		FileURL:         fileURL,
		FileName:        header.Filename,
		ReferenceNumber: ref,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, CreateOrderResponse{Order: order})
}

// ListOrders returns the staff view: every order, newest first.
func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Store.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	h.writeJSON(w, http.StatusOK, orders)
}

// GetOrderByReference resolves the tracking-page reference code. Unknown
// codes surface as 404 so the page renders its "not found" view.
func (h *Handlers) GetOrderByReference(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")
	order, err := h.Orders.GetByReference(r.Context(), ref)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

type setStatusRequest struct {
	OrderStatus models.OrderStatus `json:"orderStatus"`
}

// SetStatus overwrites an order's status with whichever of the four states
// staff selected.
func (h *Handlers) SetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errs.NewValidationErrorWithCause("orderStatus", err))
		return
	}
	if err := h.Orders.SetStatus(r.Context(), id, req.OrderStatus); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteOrder removes an order irreversibly.
func (h *Handlers) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Orders.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type summaryResponse struct {
	Summary string `json:"summary"`
}

// Summarize condenses an order's notes on demand. The persist query flag
// writes the summary back to the record; by default it is returned only.
func (h *Handlers) Summarize(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	persist := r.URL.Query().Get("persist") == "true"
	summary, err := h.Orders.Summarize(r.Context(), id, persist)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, summaryResponse{Summary: summary})
}

// Precheck runs the advisory pre-upload quality gate on a candidate file.
// It always answers 200: a collaborator failure simply produces no warning.
func (h *Handlers) Precheck(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(4 << 20); err != nil {
		h.writeError(w, errs.NewValidationErrorWithCause("form", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, errs.NewValidationErrorWithCause("file", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, errs.NewValidationErrorWithCause("file", err))
		return
	}
	res := h.Gate.Check(r.Context(), header.Filename, header.Header.Get("Content-Type"), data)
	h.writeJSON(w, http.StatusOK, res)
}

type estimateRequest struct {
	ProductID string `json:"productId"`
	FinishID  string `json:"finishId"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
}

type estimateResponse struct {
	Total    string `json:"total"`
	Currency string `json:"currency"`
}

// Estimate computes the advisory price quote from the live catalog. The
// quote is never stored; catalog changes do not alter past orders.
func (h *Handlers) Estimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errs.NewValidationErrorWithCause("estimate", err))
		return
	}
	if req.Quantity < 1 {
		h.writeError(w, errs.NewValidationError("quantity"))
		return
	}

	cfg, err := h.Config.Load(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	total := pricing.Estimate(cfg, req.ProductID, req.FinishID, req.Quantity, pricing.Size(req.Size))
	h.writeJSON(w, http.StatusOK, estimateResponse{
		Total:    total.StringFixed(2),
		Currency: cfg.Currency,
	})
}

// GetConfig returns the normalized shop configuration for customer pages.
func (h *Handlers) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Config.Load(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, cfg)
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

// Ask forwards a customer question to the stateless answer collaborator.
func (h *Handlers) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		h.writeError(w, errs.NewValidationError("question"))
		return
	}
	answer, err := h.Assistant.Answer(r.Context(), req.Question)
	if err != nil {
		h.writeError(w, errs.NewAdvisoryServiceError("assistant", err))
		return
	}
	h.writeJSON(w, http.StatusOK, askResponse{Answer: answer})
}

// StaffFeed attaches the caller to the live staff order feed.
func (h *Handlers) StaffFeed(w http.ResponseWriter, r *http.Request) {
	live.ServeStaffWS(h.Hub, w, r)
}

// OrderFeed streams one order's snapshots to a customer tracking page.
// The path carries the reference code; it resolves to the store id once,
// then the watch follows the document.
func (h *Handlers) OrderFeed(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")
	order, err := h.Orders.GetByReference(r.Context(), ref)
	if err != nil {
		h.writeError(w, err)
		return
	}
	live.ServeOrderWS(h.Store, order.ID, w, r)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, errs.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrTransfer):
		status = http.StatusBadGateway
	case errors.Is(err, errs.ErrAdvisoryService):
		status = http.StatusBadGateway
	case errors.Is(err, errs.ErrSubscription):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		h.Log.Error("request failed", "status", status, "error", err)
	}
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Log.Error("failed to write response", "error", err)
	}
}
