// Package caches holds the in-process read caches fronting the game
// store.
package caches

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/belassiter/mantid/game"
)

const snapshotCacheSize = 100000

// SnapshotCache keeps the latest committed snapshot per room for the
// read path. It is refreshed on every store write through the
// store.Publisher hook, so reads served from it are at most one
// in-flight transaction behind.
type SnapshotCache struct {
	snapshots *lru.Cache
}

func NewSnapshotCache() (*SnapshotCache, error) {
	snapshots, err := lru.New(snapshotCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to initialize snapshot cache")
	}
	return &SnapshotCache{snapshots: snapshots}, nil
}

// PublishSnapshot implements store.Publisher.
func (c *SnapshotCache) PublishSnapshot(g *game.Game) {
	c.snapshots.Add(g.RoomCode, g.Clone())
}

// Get returns a copy of the cached snapshot for the room, if present.
func (c *SnapshotCache) Get(roomCode string) (*game.Game, bool) {
	v, exists := c.snapshots.Get(roomCode)
	if !exists {
		return nil, false
	}
	return v.(*game.Game).Clone(), true
}

// Remove evicts a room, e.g. after its game document is deleted.
func (c *SnapshotCache) Remove(roomCode string) {
	c.snapshots.Remove(roomCode)
}
