// Package nats is the real-time feed: every committed game mutation is
// broadcast as a full snapshot on the room's subject, and clients
// subscribe per room code. Animation hints ride inside the snapshot;
// they are descriptive only and never authoritative.
package nats

import (
	jsoniter "github.com/json-iterator/go"
	natsgo "github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/belassiter/mantid/game"
	"github.com/belassiter/mantid/logging"
)

var natsLogger = log.With().Str("logger_name", "nats::broadcaster").Logger()

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Broadcaster publishes snapshots to all subscribers of a room. It
// implements store.Publisher.
type Broadcaster struct {
	natsConn *natsgo.Conn
}

func NewBroadcaster(natsURL string) (*Broadcaster, error) {
	nc, err := natsgo.Connect(natsURL)
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to NATS at %s", natsURL)
	}
	return &Broadcaster{natsConn: nc}, nil
}

func (b *Broadcaster) PublishSnapshot(g *game.Game) {
	data, err := json.Marshal(g)
	if err != nil {
		natsLogger.Error().
			Str(logging.RoomCodeKey, g.RoomCode).
			Msgf("Unable to encode snapshot: %v", err)
		return
	}
	subject := GetGameSnapshotSubject(g.RoomCode)
	if err := b.natsConn.Publish(subject, data); err != nil {
		// The store already committed; a dropped broadcast only delays
		// subscribers until the next snapshot.
		natsLogger.Error().
			Str(logging.RoomCodeKey, g.RoomCode).
			Msgf("Unable to publish snapshot to %s: %v", subject, err)
	}
}

// Subscribe delivers decoded snapshots for one room until the returned
// cancel function is called. Undecodable payloads are dropped with a
// diagnostic.
func (b *Broadcaster) Subscribe(roomCode string) (<-chan *game.Game, func(), error) {
	ch := make(chan *game.Game, 16)
	sub, err := b.natsConn.Subscribe(GetGameSnapshotSubject(roomCode), func(msg *natsgo.Msg) {
		g := &game.Game{}
		if err := json.Unmarshal(msg.Data, g); err != nil {
			natsLogger.Error().
				Str(logging.RoomCodeKey, roomCode).
				Msgf("Dropping undecodable snapshot: %v", err)
			return
		}
		select {
		case ch <- g:
		default:
			natsLogger.Warn().
				Str(logging.RoomCodeKey, roomCode).
				Msg("Subscriber not keeping up, dropping snapshot")
		}
	})
	if err != nil {
		return nil, nil, errors.Wrapf(err, "subscribing to room %s", roomCode)
	}
	cancel := func() {
		if err := sub.Unsubscribe(); err != nil {
			natsLogger.Warn().Str(logging.RoomCodeKey, roomCode).Msgf("Unsubscribe failed: %v", err)
		}
		close(ch)
	}
	return ch, cancel, nil
}

// Close drains the connection.
func (b *Broadcaster) Close() {
	b.natsConn.Close()
}
