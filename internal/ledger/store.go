package ledger

import (
	"context"
	"sync"

	"github.com/quizpot/quizpot/internal/domain"
)

// MemoryStore keeps the global transaction log in memory. It is the default
// store and the one the tests run against.
type MemoryStore struct {
	mu  sync.Mutex
	log []domain.Transaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Append(_ context.Context, tx domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.log = append(m.log, tx)
	return nil
}

// All returns a copy of the full log in append order.
func (m *MemoryStore) All() []domain.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	log := make([]domain.Transaction, len(m.log))
	copy(log, m.log)
	return log
}
