package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/bryanwahyu/partner-review/internal/domain/submissions"
)

type blob struct {
	data        []byte
	contentType string
}

// BlobStore is an in-process blob store.
type BlobStore struct {
	mu    sync.RWMutex
	blobs map[string]blob
}

func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: make(map[string]blob)}
}

func (b *BlobStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs[key] = blob{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

func (b *BlobStore) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.blobs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrBlobNotFound, key)
	}
	return append([]byte(nil), v.data...), nil
}

// ContentType returns the stored content type of key.
func (b *BlobStore) ContentType(key string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.blobs[key].contentType
}

// Keys lists every stored key.
func (b *BlobStore) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.blobs))
	for k := range b.blobs {
		out = append(out, k)
	}
	return out
}
