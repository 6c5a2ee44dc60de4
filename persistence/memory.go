// persistence/memory.go
package persistence

import (
	"context"
	"fmt"
	"sync"

	"github.com/wfunc/partycards/models"
)

// MemoryStore keeps snapshots in a map. State is lost on restart.
type MemoryStore struct {
	games map[string]*models.GameSession
	mutex sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games: make(map[string]*models.GameSession),
	}
}

// Load 返回快照副本，调用方修改不会影响存储
func (m *MemoryStore) Load(ctx context.Context, gameID string) (*models.GameSession, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	g, exists := m.games[gameID]
	if !exists {
		return nil, fmt.Errorf("%w: game %s", ErrRecordNotFound, gameID)
	}
	return g.Clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, g *models.GameSession) error {
	if g == nil || g.GameID == "" {
		return fmt.Errorf("save game session: missing game id")
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.games[g.GameID] = g.Clone()
	return nil
}

// Count returns the number of stored sessions.
func (m *MemoryStore) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.games)
}

func (m *MemoryStore) Close() error {
	return nil
}
