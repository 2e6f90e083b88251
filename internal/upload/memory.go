package upload

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// MemoryBlobStore keeps uploaded objects in process memory. It backs local
// development when no bucket is configured.
type MemoryBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{objects: make(map[string][]byte)}
}

func (s *MemoryBlobStore) NewWriter(ctx context.Context, object, contentType string) io.WriteCloser {
	return &memoryWriter{store: s, object: object}
}

func (s *MemoryBlobStore) PublicURL(object string) string {
	return "memory://" + object
}

// Object returns a stored object's bytes, if present.
func (s *MemoryBlobStore) Object(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[name]
	return b, ok
}

type memoryWriter struct {
	buf    bytes.Buffer
	store  *MemoryBlobStore
	object string
}

func (w *memoryWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *memoryWriter) Close() error {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	w.store.objects[w.object] = w.buf.Bytes()
	return nil
}
