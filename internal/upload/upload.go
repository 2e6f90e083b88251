// Package upload manages the transfer of exactly one file to blob storage,
// reporting progress until a terminal state is reached.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"google.golang.org/api/googleapi"

	"github.com/printgenie/orderflow/internal/errs"
)

// State is the lifecycle of one transfer.
// pending -> transferring -> {completed | failed | canceled}
type State string

const (
	StatePending      State = "pending"
	StateTransferring State = "transferring"
	StateCompleted    State = "completed"
	StateFailed       State = "failed"
	StateCanceled     State = "canceled"
)

// Terminal reports whether s ends the transfer.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCanceled
}

// Event is one progress sample or the terminal outcome of a task.
type Event struct {
	State State
	// Progress is a monotonically non-decreasing percentage in [0,100].
	// Duplicate samples at the same percentage are allowed.
	Progress int
	// URL is the durable, publicly resolvable download locator.
	// Set only on completed.
	URL string
	// Err is set only on failed and unwraps to errs.ErrTransfer.
	Err error
}

// BlobStore is the object-store write path the task depends on.
type BlobStore interface {
	// NewWriter opens a writer for the given destination object. Bytes are
	// not considered durable until Close returns nil.
	NewWriter(ctx context.Context, object, contentType string) io.WriteCloser
	// PublicURL returns the download locator for a finalized object.
	PublicURL(object string) string
}

// Task transfers one file to blob storage. A task is single-use: a failed
// or canceled transfer is retried by creating a fresh task. Destination
// objects must not be considered valid until the completed event fires;
// partial bytes left behind by a failure are acceptable garbage.
type Task struct {
	blobs       BlobStore
	object      string
	contentType string
	src         io.Reader
	size        int64

	events chan Event

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
}

// Progress emits at most once per whole percentage point, so a generous
// buffer lets the transfer run ahead of slow consumers without dropping
// events.
const eventBuffer = 128

// NewTask prepares a transfer of size bytes from src to the destination
// object. The object path is caller-chosen and must embed a namespacing
// token such as the order reference id.
func NewTask(blobs BlobStore, object, contentType string, src io.Reader, size int64) *Task {
	return &Task{
		blobs:       blobs,
		object:      object,
		contentType: contentType,
		src:         src,
		size:        size,
		events:      make(chan Event, eventBuffer),
		state:       StatePending,
	}
}

// Events returns the progress stream. It is closed after exactly one
// terminal event (completed, failed or canceled).
func (t *Task) Events() <-chan Event { return t.events }

// State returns the task's current lifecycle state.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Cancel requests cooperative cancellation. A task canceled while
// transferring stops sending further bytes; bytes already sent are not
// reverted. Cancel is a no-op once a terminal state is reached.
func (t *Task) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil && !t.state.Terminal() {
		t.cancel()
	}
}

// Run performs the transfer, emitting events until the terminal state, then
// closes the event stream. It blocks; callers stream progress by running it
// in a goroutine and ranging over Events.
func (t *Task) Run(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	t.mu.Lock()
	t.cancel = cancel
	t.state = StateTransferring
	t.mu.Unlock()

	defer close(t.events)
	t.events <- Event{State: StateTransferring, Progress: 0}

	w := t.blobs.NewWriter(runCtx, t.object, t.contentType)
	pr := &progressReader{src: t.src, total: t.size, emit: t.emitProgress}
	_, copyErr := io.Copy(w, pr)
	closeErr := w.Close()

	err := copyErr
	if err == nil {
		err = closeErr
	}

	switch {
	case runCtx.Err() != nil:
		t.finish(Event{State: StateCanceled, Progress: pr.lastPct})
	case err != nil:
		terr := errs.NewTransferError(t.object, classify(err), err)
		t.finish(Event{State: StateFailed, Progress: pr.lastPct, Err: terr})
	default:
		// The final sample must read exactly 100 before completed fires.
		t.emitProgress(100)
		t.finish(Event{
			State:    StateCompleted,
			Progress: 100,
			URL:      t.blobs.PublicURL(t.object),
		})
	}
}

func (t *Task) finish(ev Event) {
	t.mu.Lock()
	t.state = ev.State
	t.mu.Unlock()
	t.events <- ev
}

func (t *Task) emitProgress(pct int) {
	t.events <- Event{State: StateTransferring, Progress: pct}
}

// classify maps a storage error to the transfer taxonomy.
func classify(err error) errs.TransferKind {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case 401, 403:
			return errs.TransferPermission
		case 429:
			return errs.TransferQuota
		}
	}
	return errs.TransferNetwork
}

// progressReader counts bytes flowing to the blob writer and reports whole
// percentage points, never decreasing and never exceeding 100 before the
// terminal event.
type progressReader struct {
	src     io.Reader
	total   int64
	sent    int64
	lastPct int
	emit    func(pct int)
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.src.Read(p)
	if n > 0 {
		r.sent += int64(n)
		pct := r.lastPct
		if r.total > 0 {
			pct = int(r.sent * 100 / r.total)
		}
		if pct > 100 {
			pct = 100
		}
		if pct > r.lastPct {
			r.lastPct = pct
			r.emit(pct)
		}
	}
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("read source: %w", err)
	}
	return n, err
}
