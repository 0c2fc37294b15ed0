package game

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/belassiter/mantid/logging"
)

var engineLogger = log.With().Str("logger_name", "game::engine").Logger()

// GameStore is the transactional document store the engine mutates
// through. Update runs the mutate function against the current
// document and writes the result only if the document is unchanged
// since the read; otherwise it fails with ErrVersionConflict and the
// engine retries. A mutate error aborts the write entirely.
type GameStore interface {
	Create(ctx context.Context, g *Game) error
	Load(ctx context.Context, roomCode string) (*Game, error)
	Update(ctx context.Context, roomCode string, mutate func(*Game) error) (*Game, error)
}

// BotDecider picks the staged action for the bot at botIndex. Wired in
// by the caller so the rules engine does not depend on any strategy
// implementation.
type BotDecider func(g *Game, botIndex int, rng *rand.Rand) (ActionType, string)

// DefaultBotActionTTL bounds how stale a staged bot action may get
// before the presentation layer has to let the engine recompute it.
const DefaultBotActionTTL = 30 * time.Second

const maxConflictRetries = 5

// Seat describes one player slot at game creation.
type Seat struct {
	Name          string
	IsBot         bool
	BotDifficulty BotDifficulty
}

// Engine validates and executes all game mutations. Every public
// method is one atomic transaction against the store.
type Engine struct {
	store        GameStore
	policy       Policy
	decider      BotDecider
	rng          *rand.Rand
	now          func() time.Time
	botActionTTL time.Duration
}

func NewEngine(store GameStore, policy Policy, decider BotDecider) *Engine {
	return &Engine{
		store:        store,
		policy:       policy,
		decider:      decider,
		rng:          rand.New(newSeed()),
		now:          time.Now,
		botActionTTL: DefaultBotActionTTL,
	}
}

// SetClock replaces the wall clock. Used by tests.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// SetRand replaces the random source for shuffling and bot decisions.
func (e *Engine) SetRand(rng *rand.Rand) { e.rng = rng }

// CreateGame builds a new waiting game with the given seats and a
// fresh room code.
func (e *Engine) CreateGame(ctx context.Context, seats []Seat) (*Game, error) {
	if len(seats) < MinPlayers || len(seats) > MaxPlayers {
		return nil, InvalidStateError{Msg: "need between 2 and 6 players"}
	}
	now := e.now().UnixMilli()
	g := &Game{
		RoomCode:  NewRoomCode(e.rng),
		Status:    GameStatusWaiting,
		Players:   make([]*Player, len(seats)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i, s := range seats {
		g.Players[i] = &Player{
			ID:            uuid.NewString(),
			Name:          s.Name,
			Tank:          []Card{},
			IsBot:         s.IsBot,
			BotDifficulty: s.BotDifficulty,
		}
	}
	if err := e.store.Create(ctx, g); err != nil {
		return nil, errors.Wrap(err, "creating game document")
	}
	engineLogger.Info().
		Str(logging.RoomCodeKey, g.RoomCode).
		Int("players", len(g.Players)).
		Msg("Game created")
	return g, nil
}

// StartGame deals four cards to every tank, stacks the rest as the
// draw pile, and moves the game to playing with the first seat to act.
func (e *Engine) StartGame(ctx context.Context, roomCode string) (*Game, error) {
	return e.update(ctx, roomCode, func(g *Game) error {
		if g.Status != GameStatusWaiting {
			return InvalidStateError{Msg: "game already started"}
		}
		deck := ShuffledDeck(rand.NewSource(e.rng.Int63()))
		for _, p := range g.Players {
			p.Tank = append(p.Tank, deck[len(deck)-CardsDealtPerPlayer:]...)
			deck = deck[:len(deck)-CardsDealtPerPlayer]
		}
		g.DrawPile = deck
		g.Status = GameStatusPlaying
		g.CurrentPlayerIndex = 0
		g.UpdatedAt = e.now().UnixMilli()
		e.stageBotAction(g)
		return nil
	})
}

// Score executes a score action for the given seat.
func (e *Engine) Score(ctx context.Context, roomCode, sessionID, actorID string) (*Game, *AnimationHint, error) {
	var hint *AnimationHint
	g, err := e.update(ctx, roomCode, func(g *Game) error {
		actorIdx, err := e.validateAction(g, sessionID, actorID)
		if err != nil {
			return err
		}
		hint, err = ApplyScore(g, actorIdx, e.now().UnixMilli())
		if err != nil {
			return err
		}
		e.stageBotAction(g)
		return g.Validate()
	})
	if err != nil {
		return nil, nil, err
	}
	return g, hint, nil
}

// Steal executes a steal action against the target's tank.
func (e *Engine) Steal(ctx context.Context, roomCode, sessionID, actorID, targetID string) (*Game, *AnimationHint, error) {
	var hint *AnimationHint
	g, err := e.update(ctx, roomCode, func(g *Game) error {
		actorIdx, err := e.validateAction(g, sessionID, actorID)
		if err != nil {
			return err
		}
		_, targetIdx := g.PlayerByID(targetID)
		if targetIdx < 0 {
			return InvalidTargetError{TargetPlayerID: targetID, Reason: "no such player"}
		}
		hint, err = ApplySteal(g, actorIdx, targetIdx, e.now().UnixMilli())
		if err != nil {
			return err
		}
		e.stageBotAction(g)
		return g.Validate()
	})
	if err != nil {
		return nil, nil, err
	}
	return g, hint, nil
}

// ExecuteBotAction presents a previously staged bot action. The action
// id, expiry, and consumed flag gate replays and stale executions; the
// staged decision is applied without recomputation.
func (e *Engine) ExecuteBotAction(ctx context.Context, roomCode, sessionID, actionID string) (*Game, *AnimationHint, error) {
	var hint *AnimationHint
	g, err := e.update(ctx, roomCode, func(g *Game) error {
		if sessionID == "" {
			return ErrAuthenticationRequired
		}
		if g.Status == GameStatusFinished {
			return ErrGameFinished
		}
		if g.Status != GameStatusPlaying {
			return ErrGameNotStarted
		}
		bp := g.BotPendingAction
		if bp == nil || bp.ActionID != actionID {
			return ErrBotActionMismatch
		}
		if bp.Consumed {
			return ErrBotActionConsumed
		}
		now := e.now().UnixMilli()
		if now > bp.ExpiresAt {
			return ErrBotActionExpired
		}
		bot, botIdx := g.PlayerByID(bp.BotPlayerID)
		if bot == nil || botIdx != g.CurrentPlayerIndex {
			return ErrBotActionMismatch
		}
		bp.Consumed = true

		var err error
		if bp.Action == ActionSteal {
			_, targetIdx := g.PlayerByID(bp.TargetPlayerID)
			hint, err = ApplySteal(g, botIdx, targetIdx, now)
		} else {
			hint, err = ApplyScore(g, botIdx, now)
		}
		if err != nil {
			return err
		}
		e.stageBotAction(g)
		return g.Validate()
	})
	if err != nil {
		return nil, nil, err
	}
	return g, hint, nil
}

func (e *Engine) validateAction(g *Game, sessionID, actorID string) (int, error) {
	if sessionID == "" {
		return -1, ErrAuthenticationRequired
	}
	if g.Status == GameStatusFinished {
		return -1, ErrGameFinished
	}
	if g.Status != GameStatusPlaying {
		return -1, ErrGameNotStarted
	}
	actor, actorIdx := g.PlayerByID(actorID)
	if actor == nil {
		return -1, TurnViolationError{PlayerID: actorID}
	}
	if err := e.policy.Authorize(g, sessionID, actorID); err != nil {
		return -1, err
	}
	return actorIdx, nil
}

// stageBotAction precomputes the next bot's move inside the same
// transaction so presentation timing can execute it later without a
// recomputation race. Cleared whenever the next seat is human.
func (e *Engine) stageBotAction(g *Game) {
	g.BotPendingAction = nil
	if g.Status != GameStatusPlaying {
		return
	}
	current := g.CurrentPlayer()
	if !current.IsBot || e.decider == nil {
		return
	}
	action, targetID := e.decider(g, g.CurrentPlayerIndex, e.rng)
	now := e.now().UnixMilli()
	g.BotPendingAction = &BotPendingAction{
		Action:         action,
		TargetPlayerID: targetID,
		ActionID:       uuid.NewString(),
		BotPlayerID:    current.ID,
		ComputedAt:     now,
		ExpiresAt:      now + e.botActionTTL.Milliseconds(),
	}
}

func (e *Engine) update(ctx context.Context, roomCode string, mutate func(*Game) error) (*Game, error) {
	var lastErr error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		g, err := e.store.Update(ctx, roomCode, mutate)
		if err == nil {
			return g, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return nil, err
		}
		engineLogger.Debug().
			Str(logging.RoomCodeKey, roomCode).
			Int("attempt", attempt+1).
			Msg("Concurrent update conflict, retrying transaction")
		lastErr = err
	}
	return nil, errors.Wrap(lastErr, "transaction did not settle after retries")
}

const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewRoomCode generates a human-shareable 6-character room code.
func NewRoomCode(rng *rand.Rand) string {
	code := make([]byte, 6)
	for i := range code {
		code[i] = roomCodeAlphabet[rng.Intn(len(roomCodeAlphabet))]
	}
	return string(code)
}
