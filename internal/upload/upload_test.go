package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/printgenie/orderflow/internal/errs"
)

// fakeBlobStore collects written bytes in memory and can be told to fail or
// stall so cancellation paths are reachable.
type fakeBlobStore struct {
	buf      bytes.Buffer
	failAt   int64 // fail once this many bytes have been written; 0 = never
	blockOn  chan struct{}
	writeErr error
}

func (f *fakeBlobStore) NewWriter(ctx context.Context, object, contentType string) io.WriteCloser {
	return &fakeWriter{store: f, ctx: ctx}
}

func (f *fakeBlobStore) PublicURL(object string) string {
	return "https://blobs.test/" + object
}

type fakeWriter struct {
	store   *fakeBlobStore
	ctx     context.Context
	written int64
}

func (w *fakeWriter) Write(p []byte) (int, error) {
	if w.store.blockOn != nil {
		select {
		case <-w.store.blockOn:
		case <-w.ctx.Done():
			return 0, w.ctx.Err()
		}
	}
	if err := w.ctx.Err(); err != nil {
		return 0, err
	}
	w.written += int64(len(p))
	if w.store.failAt > 0 && w.written >= w.store.failAt {
		if w.store.writeErr != nil {
			return 0, w.store.writeErr
		}
		return 0, errors.New("connection reset")
	}
	w.store.buf.Write(p)
	return len(p), nil
}

func (w *fakeWriter) Close() error { return nil }

func drain(t *testing.T, task *Task) []Event {
	t.Helper()
	var events []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-task.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("timed out draining task events")
		}
	}
}

func TestRunCompletes(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 10<<20) // 10MB
	store := &fakeBlobStore{}
	task := NewTask(store, "orders/A1B2C3D_poster.png", "image/png", bytes.NewReader(payload), int64(len(payload)))

	go task.Run(context.Background())
	events := drain(t, task)

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, StateCompleted, last.State)
	assert.Equal(t, 100, last.Progress)
	assert.Equal(t, "https://blobs.test/orders/A1B2C3D_poster.png", last.URL)
	assert.Equal(t, StateCompleted, task.State())
	assert.Equal(t, len(payload), store.buf.Len())

	// Progress must be non-decreasing and reach exactly 100 before completed.
	prev := 0
	for _, ev := range events[:len(events)-1] {
		assert.Equal(t, StateTransferring, ev.State)
		assert.GreaterOrEqual(t, ev.Progress, prev)
		prev = ev.Progress
	}
	assert.Equal(t, 100, events[len(events)-2].Progress)
}

func TestRunFailureYieldsTransferError(t *testing.T) {
	payload := bytes.Repeat([]byte("y"), 1<<20)
	store := &fakeBlobStore{failAt: 256 << 10}
	task := NewTask(store, "orders/REF_doc.pdf", "application/pdf", bytes.NewReader(payload), int64(len(payload)))

	go task.Run(context.Background())
	events := drain(t, task)

	last := events[len(events)-1]
	require.Equal(t, StateFailed, last.State)
	require.Error(t, last.Err)
	assert.True(t, errors.Is(last.Err, errs.ErrTransfer))

	var terr *errs.TransferError
	require.True(t, errors.As(last.Err, &terr))
	assert.Equal(t, errs.TransferNetwork, terr.Kind)
	assert.Equal(t, StateFailed, task.State())
}

func TestCancelWhileTransferring(t *testing.T) {
	payload := bytes.Repeat([]byte("z"), 1<<20)
	store := &fakeBlobStore{blockOn: make(chan struct{})}
	task := NewTask(store, "orders/REF_banner.jpg", "image/jpeg", bytes.NewReader(payload), int64(len(payload)))

	go task.Run(context.Background())

	// First event confirms the task reached transferring before we cancel.
	ev := <-task.Events()
	require.Equal(t, StateTransferring, ev.State)
	task.Cancel()

	events := drain(t, task)
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, StateCanceled, last.State)
	assert.Empty(t, last.URL)
	assert.Equal(t, StateCanceled, task.State())
}

func TestCancelAfterTerminalIsNoop(t *testing.T) {
	payload := []byte("tiny")
	store := &fakeBlobStore{}
	task := NewTask(store, "orders/REF_card.png", "image/png", bytes.NewReader(payload), int64(len(payload)))

	go task.Run(context.Background())
	events := drain(t, task)
	require.Equal(t, StateCompleted, events[len(events)-1].State)

	task.Cancel() // must not panic or change state
	assert.Equal(t, StateCompleted, task.State())
}

func TestExactlyOneTerminalEvent(t *testing.T) {
	payload := bytes.Repeat([]byte("q"), 64<<10)
	store := &fakeBlobStore{}
	task := NewTask(store, "orders/REF_flyer.png", "image/png", bytes.NewReader(payload), int64(len(payload)))

	go task.Run(context.Background())
	events := drain(t, task)

	terminal := 0
	for _, ev := range events {
		if ev.State.Terminal() {
			terminal++
		}
	}
	assert.Equal(t, 1, terminal)
}

func TestProgressSamplesFor10MBUpload(t *testing.T) {
	// Regression for the quoted scenario: a 10MB upload must report
	// non-decreasing samples that end at exactly 100 before completed.
	payload := bytes.Repeat([]byte("p"), 10<<20)
	store := &fakeBlobStore{}
	task := NewTask(store, "orders/REF_big.png", "image/png", bytes.NewReader(payload), int64(len(payload)))

	go task.Run(context.Background())
	events := drain(t, task)

	var samples []int
	for _, ev := range events {
		if ev.State == StateTransferring {
			samples = append(samples, ev.Progress)
		}
	}
	require.NotEmpty(t, samples)
	for i := 1; i < len(samples); i++ {
		assert.GreaterOrEqual(t, samples[i], samples[i-1], "sample %d decreased", i)
	}
	assert.Equal(t, 100, samples[len(samples)-1])
	assert.Equal(t, StateCompleted, events[len(events)-1].State)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		code int
		want errs.TransferKind
	}{
		{401, errs.TransferPermission},
		{403, errs.TransferPermission},
		{429, errs.TransferQuota},
		{500, errs.TransferNetwork},
	}
	for _, tt := range tests {
		err := fmt.Errorf("finalize upload: %w", &googleapi.Error{Code: tt.code})
		assert.Equal(t, tt.want, classify(err), "HTTP %d", tt.code)
	}
	assert.Equal(t, errs.TransferNetwork, classify(errors.New("dial tcp: timeout")))
}
