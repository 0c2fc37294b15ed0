package store

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/belassiter/mantid/game"
)

// RedisGameStore keeps game documents in Redis, one key per room.
// Update runs under WATCH so a concurrent write between the read and
// the pipelined SET fails the transaction instead of clobbering it.
type RedisGameStore struct {
	rdclient  *redis.Client
	publisher Publisher
}

func NewRedisGameStore(redisURL string, redisPW string, redisDB int, publisher Publisher) *RedisGameStore {
	rdclient := redis.NewClient(&redis.Options{
		Addr:     redisURL,
		Password: redisPW,
		DB:       redisDB,
	})
	return &RedisGameStore{
		rdclient:  rdclient,
		publisher: publisher,
	}
}

func gameKey(roomCode string) string {
	return fmt.Sprintf("mantid:game:%s", roomCode)
}

func (r *RedisGameStore) Create(ctx context.Context, g *game.Game) error {
	data, err := marshalGame(g)
	if err != nil {
		return errors.Wrap(err, "encoding game document")
	}
	ok, err := r.rdclient.SetNX(ctx, gameKey(g.RoomCode), data, 0).Result()
	if err != nil {
		return errors.Wrap(err, "writing game document")
	}
	if !ok {
		return errors.Errorf("room code [%s] already in use", g.RoomCode)
	}
	return nil
}

func (r *RedisGameStore) Load(ctx context.Context, roomCode string) (*game.Game, error) {
	data, err := r.rdclient.Get(ctx, gameKey(roomCode)).Bytes()
	if err == redis.Nil {
		return nil, game.GameNotFoundError{RoomCode: roomCode}
	} else if err != nil {
		return nil, errors.Wrap(err, "reading game document")
	}
	return unmarshalGame(data)
}

func (r *RedisGameStore) Update(ctx context.Context, roomCode string, mutate func(*game.Game) error) (*game.Game, error) {
	key := gameKey(roomCode)
	var updated *game.Game
	err := r.rdclient.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return game.GameNotFoundError{RoomCode: roomCode}
		} else if err != nil {
			return errors.Wrap(err, "reading game document")
		}
		g, err := unmarshalGame(data)
		if err != nil {
			return errors.Wrap(err, "decoding game document")
		}
		if err := mutate(g); err != nil {
			return err
		}
		out, err := marshalGame(g)
		if err != nil {
			return errors.Wrap(err, "encoding game document")
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		if err != nil {
			return err
		}
		updated = g
		return nil
	}, key)
	if err == redis.TxFailedErr {
		return nil, game.ErrVersionConflict
	}
	if err != nil {
		return nil, err
	}

	if r.publisher != nil {
		r.publisher.PublishSnapshot(updated)
	}
	return updated, nil
}

// Remove drops a finished game's document.
func (r *RedisGameStore) Remove(ctx context.Context, roomCode string) error {
	return r.rdclient.Del(ctx, gameKey(roomCode)).Err()
}
