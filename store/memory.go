package store

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/belassiter/mantid/game"
)

type memoryEntry struct {
	data    []byte
	version uint64
}

// MemoryGameStore keeps game documents in process memory with a
// version counter per room. Update uses compare-and-swap on the
// version so concurrent writers serialize the same way they would
// against the Redis store.
type MemoryGameStore struct {
	mu        sync.RWMutex
	games     map[string]*memoryEntry
	publisher Publisher
}

func NewMemoryGameStore(publisher Publisher) *MemoryGameStore {
	return &MemoryGameStore{
		games:     make(map[string]*memoryEntry),
		publisher: publisher,
	}
}

func (m *MemoryGameStore) Create(ctx context.Context, g *game.Game) error {
	data, err := marshalGame(g)
	if err != nil {
		return errors.Wrap(err, "encoding game document")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.games[g.RoomCode]; exists {
		return errors.Errorf("room code [%s] already in use", g.RoomCode)
	}
	m.games[g.RoomCode] = &memoryEntry{data: data, version: 1}
	return nil
}

func (m *MemoryGameStore) Load(ctx context.Context, roomCode string) (*game.Game, error) {
	m.mu.RLock()
	entry, ok := m.games[roomCode]
	var data []byte
	if ok {
		data = entry.data
	}
	m.mu.RUnlock()
	if !ok {
		return nil, game.GameNotFoundError{RoomCode: roomCode}
	}
	return unmarshalGame(data)
}

func (m *MemoryGameStore) Update(ctx context.Context, roomCode string, mutate func(*game.Game) error) (*game.Game, error) {
	m.mu.RLock()
	entry, ok := m.games[roomCode]
	var data []byte
	var readVersion uint64
	if ok {
		data = entry.data
		readVersion = entry.version
	}
	m.mu.RUnlock()
	if !ok {
		return nil, game.GameNotFoundError{RoomCode: roomCode}
	}

	g, err := unmarshalGame(data)
	if err != nil {
		return nil, errors.Wrap(err, "decoding game document")
	}
	if err := mutate(g); err != nil {
		return nil, err
	}
	updated, err := marshalGame(g)
	if err != nil {
		return nil, errors.Wrap(err, "encoding game document")
	}

	m.mu.Lock()
	entry, ok = m.games[roomCode]
	if !ok {
		m.mu.Unlock()
		return nil, game.GameNotFoundError{RoomCode: roomCode}
	}
	if entry.version != readVersion {
		m.mu.Unlock()
		return nil, game.ErrVersionConflict
	}
	entry.data = updated
	entry.version++
	m.mu.Unlock()

	if m.publisher != nil {
		m.publisher.PublishSnapshot(g)
	}
	return g, nil
}

// Remove drops a finished game's document.
func (m *MemoryGameStore) Remove(ctx context.Context, roomCode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.games, roomCode)
	return nil
}
