package orders

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printgenie/orderflow/internal/errs"
	"github.com/printgenie/orderflow/internal/models"
	"github.com/printgenie/orderflow/internal/refid"
	"github.com/printgenie/orderflow/internal/store"
)

type fakeSummarizer struct {
	summary string
	err     error
	got     string
}

func (f *fakeSummarizer) Summarize(ctx context.Context, notes string) (string, error) {
	f.got = notes
	return f.summary, f.err
}

func newTestService(sum Summarizer) (*Service, *store.Memory) {
	mem := store.NewMemory()
	return NewService(mem, sum, slog.Default()), mem
}

func validRequest() CreateRequest {
	return CreateRequest{
		ClientName:  "Jane Doe",
		ClientEmail: "jane@example.com",
		Notes:       "500 matte flyers, A4",
		FileURL:     "https://storage.googleapis.com/print-orders/orders/AB12CD3_flyer.pdf",
		FileName:    "flyer.pdf",
	}
}

func TestCreate(t *testing.T) {
	svc, mem := newTestService(&fakeSummarizer{})

	o, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, models.StatusReceived, o.Status)
	assert.Len(t, o.ReferenceNumber, refid.Length)
	assert.NotEmpty(t, o.FileURL)

	stored, err := mem.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReceived, stored.Status)
	assert.NotEmpty(t, stored.FileURL, "order is never persisted without its file")
	assert.False(t, stored.OrderDate.IsZero())
}

func TestCreateKeepsCallerReference(t *testing.T) {
	svc, _ := newTestService(&fakeSummarizer{})

	req := validRequest()
	req.ReferenceNumber = "AB12CD3"
	o, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "AB12CD3", o.ReferenceNumber)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(&fakeSummarizer{})

	tests := []struct {
		name   string
		mutate func(*CreateRequest)
	}{
		{"missing name", func(r *CreateRequest) { r.ClientName = "" }},
		{"missing email", func(r *CreateRequest) { r.ClientEmail = "" }},
		{"missing file url", func(r *CreateRequest) { r.FileURL = "" }},
		{"missing file name", func(r *CreateRequest) { r.FileName = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, err := svc.Create(context.Background(), req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errs.ErrValidation))
		})
	}
}

func TestCreateAllowsEmptyNotes(t *testing.T) {
	svc, _ := newTestService(&fakeSummarizer{})

	req := validRequest()
	req.Notes = ""
	_, err := svc.Create(context.Background(), req)
	assert.NoError(t, err)
}

func TestSetStatusIdempotent(t *testing.T) {
	svc, mem := newTestService(&fakeSummarizer{})
	o, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	require.NoError(t, svc.SetStatus(context.Background(), o.ID, models.StatusPrinting))
	once, err := mem.Get(context.Background(), o.ID)
	require.NoError(t, err)

	require.NoError(t, svc.SetStatus(context.Background(), o.ID, models.StatusPrinting))
	twice, err := mem.Get(context.Background(), o.ID)
	require.NoError(t, err)

	assert.Equal(t, once, twice, "repeating a transition leaves the record identical")
}

func TestSetStatusPermitsAnyTransition(t *testing.T) {
	svc, _ := newTestService(&fakeSummarizer{})
	o, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	ctx := context.Background()
	// Skips and backward moves are staff choices, not errors.
	require.NoError(t, svc.SetStatus(ctx, o.ID, models.StatusReady))
	require.NoError(t, svc.SetStatus(ctx, o.ID, models.StatusReceived))
	require.NoError(t, svc.SetStatus(ctx, o.ID, models.StatusInReview))
}

func TestSetStatusRejectsUnknownState(t *testing.T) {
	svc, _ := newTestService(&fakeSummarizer{})
	o, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	err = svc.SetStatus(context.Background(), o.ID, models.OrderStatus("Shipped"))
	assert.True(t, errors.Is(err, errs.ErrValidation))
}

func TestSetStatusMissingOrder(t *testing.T) {
	svc, _ := newTestService(&fakeSummarizer{})
	err := svc.SetStatus(context.Background(), "gone", models.StatusPrinting)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestDeleteMissingOrder(t *testing.T) {
	svc, _ := newTestService(&fakeSummarizer{})
	err := svc.Delete(context.Background(), "gone")
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestSummarize(t *testing.T) {
	sum := &fakeSummarizer{summary: "500 matte A4 flyers."}
	svc, mem := newTestService(sum)
	o, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	got, err := svc.Summarize(context.Background(), o.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "500 matte A4 flyers.", got)
	assert.Equal(t, "500 matte flyers, A4", sum.got)

	// Not persisted by default.
	stored, err := mem.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.AISummary)
}

func TestSummarizePersist(t *testing.T) {
	svc, mem := newTestService(&fakeSummarizer{summary: "short"})
	o, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	_, err = svc.Summarize(context.Background(), o.ID, true)
	require.NoError(t, err)

	stored, err := mem.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, "short", stored.AISummary)
}

func TestSummarizeFailureIsAdvisory(t *testing.T) {
	svc, _ := newTestService(&fakeSummarizer{err: errors.New("model unavailable")})
	o, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	_, err = svc.Summarize(context.Background(), o.ID, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrAdvisoryService))
}

func TestSummarizeEmptyNotes(t *testing.T) {
	sum := &fakeSummarizer{summary: "should not be called"}
	svc, _ := newTestService(sum)

	req := validRequest()
	req.Notes = ""
	o, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	got, err := svc.Summarize(context.Background(), o.ID, false)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, sum.got)
}
