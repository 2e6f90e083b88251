// Package orders owns the canonical status field of an order record and the
// operations that move a submission through its fulfillment lifecycle.
package orders

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/printgenie/orderflow/internal/errs"
	"github.com/printgenie/orderflow/internal/models"
	"github.com/printgenie/orderflow/internal/refid"
	"github.com/printgenie/orderflow/internal/store"
)

// Summarizer condenses a customer's free-form notes. It may fail; failures
// are advisory and never block a status transition.
type Summarizer interface {
	Summarize(ctx context.Context, notes string) (string, error)
}

// CreateRequest carries the validated inputs of one submission.
// FileURL/FileName come from a completed upload: an order is never created
// with a dangling or missing file reference.
type CreateRequest struct {
	ClientName  string
	ClientEmail string
	Notes       string
	FileURL     string
	FileName    string
	// ReferenceNumber is usually the code already used to namespace the
	// uploaded blob. Left empty, a fresh code is generated.
	ReferenceNumber string
}

// Service implements the order lifecycle on top of the document store.
type Service struct {
	store      store.OrderStore
	summarizer Summarizer
	log        *slog.Logger
}

func NewService(st store.OrderStore, summarizer Summarizer, log *slog.Logger) *Service {
	return &Service{store: st, summarizer: summarizer, log: log}
}

// Create persists a new order in the Received state with a reference code
// and a server-assigned timestamp. Nothing else is written.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Order, error) {
	switch {
	case req.ClientName == "":
		return nil, errs.NewValidationError("clientName")
	case req.ClientEmail == "":
		return nil, errs.NewValidationError("clientEmail")
	case req.FileURL == "":
		return nil, errs.NewValidationError("fileUrl")
	case req.FileName == "":
		return nil, errs.NewValidationError("fileName")
	}

	ref := req.ReferenceNumber
	if ref == "" {
		ref = refid.Generate()
	}

	o := &models.Order{
		ReferenceNumber: ref,
		ClientName:      req.ClientName,
		ClientEmail:     req.ClientEmail,
		Notes:           req.Notes,
		FileURL:         req.FileURL,
		FileName:        req.FileName,
		Status:          models.StatusReceived,
	}
	id, err := s.store.Create(ctx, o)
	if err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}
	o.ID = id
	s.log.Info("order created", "orderId", id, "reference", ref)
	return o, nil
}

// SetStatus unconditionally overwrites the order's status. Any of the four
// states may be selected at any time; the store's last-write-wins semantics
// resolve concurrent staff writes.
func (s *Service) SetStatus(ctx context.Context, id string, st models.OrderStatus) error {
	if !st.Valid() {
		return errs.NewValidationError("orderStatus")
	}
	if err := s.store.SetStatus(ctx, id, st); err != nil {
		return err
	}
	s.log.Info("order status updated", "orderId", id, "status", string(st))
	return nil
}

// Delete removes the order irreversibly. There is no soft delete.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("order deleted", "orderId", id)
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Order, error) {
	return s.store.Get(ctx, id)
}

// GetByReference resolves the customer-facing reference code from the
// tracking page URL.
func (s *Service) GetByReference(ctx context.Context, ref string) (*models.Order, error) {
	return s.store.GetByReference(ctx, ref)
}

// Summarize asks the summarization collaborator to condense the order's
// notes. The result is returned to the caller and, only when persist is
// set, written back to the record; by default nothing is stored.
func (s *Service) Summarize(ctx context.Context, id string, persist bool) (string, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if o.Notes == "" {
		return "", nil
	}

	summary, err := s.summarizer.Summarize(ctx, o.Notes)
	if err != nil {
		return "", errs.NewAdvisoryServiceError("summarizer", err)
	}
	if persist {
		if err := s.store.SetSummary(ctx, id, summary); err != nil {
			return "", err
		}
	}
	return summary, nil
}
