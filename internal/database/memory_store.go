package database

import (
	"context"
	"sort"
	"sync"

	"github.com/nfrund/mintari/internal/domain"
)

// MemoryMintStore keeps mint history in process. It backs the service when
// no SurrealDB URL is configured.
type MemoryMintStore struct {
	mu      sync.RWMutex
	records map[string]domain.MintRecord
}

var _ domain.MintRepository = (*MemoryMintStore)(nil)

func NewMemoryMintStore() *MemoryMintStore {
	return &MemoryMintStore{records: map[string]domain.MintRecord{}}
}

func (s *MemoryMintStore) Save(ctx context.Context, rec *domain.MintRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.TransactionID] = *rec
	return nil
}

func (s *MemoryMintStore) FindByTransaction(ctx context.Context, txID string) (*domain.MintRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[txID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

func (s *MemoryMintStore) ListByRecipient(ctx context.Context, recipient string, limit int) ([]*domain.MintRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.MintRecord, 0)
	for _, rec := range s.records {
		if rec.Recipient == recipient {
			r := rec
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MintedAt.After(out[j].MintedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
