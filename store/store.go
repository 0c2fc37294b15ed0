// Package store provides the transactional game-document stores behind
// the engine's game.GameStore contract, plus the change-feed hook every
// successful write flows through.
package store

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/belassiter/mantid/game"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Publisher receives the authoritative snapshot after every committed
// write. Implementations must not mutate the snapshot.
type Publisher interface {
	PublishSnapshot(g *game.Game)
}

// MultiPublisher fans a snapshot out to several publishers, e.g. the
// NATS feed plus the read cache.
type MultiPublisher []Publisher

func (m MultiPublisher) PublishSnapshot(g *game.Game) {
	for _, p := range m {
		p.PublishSnapshot(g)
	}
}

func marshalGame(g *game.Game) ([]byte, error) {
	return json.Marshal(g)
}

func unmarshalGame(data []byte) (*game.Game, error) {
	g := &game.Game{}
	if err := json.Unmarshal(data, g); err != nil {
		return nil, err
	}
	return g, nil
}
