// Package client holds the client-resident pieces of the game: the
// animation coordinator that sequences optimistic and authoritative
// visual effects, the reconciler that guards snapshot adoption, and
// the timing profile both run on.
package client

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/belassiter/mantid/game"
	"github.com/belassiter/mantid/logging"
)

var coordinatorLogger = log.With().Str("logger_name", "client::coordinator").Logger()

// ErrBusy rejects a user action while a sequence is in flight.
var ErrBusy = errors.New("animation sequence in flight")

// ErrNoVisibleState rejects a user action before the first snapshot.
var ErrNoVisibleState = errors.New("no visible game state yet")

// State is the coordinator's top-level mode.
type State int

const (
	StateIdle State = iota
	StateOptimisticFlip
	StateHintPlayback
)

// Phase is the step within a sequence. Flip phases belong to the
// optimistic timeline, hint phases to authoritative playback.
type Phase string

const (
	PhaseFlipHalf1     Phase = "flip_half1"
	PhaseFlipHalf2     Phase = "flip_half2"
	PhaseFlipFade      Phase = "flip_fade"
	PhaseHintHighlight Phase = "hint_highlight"
	PhaseHintMove      Phase = "hint_move"
	PhaseHintSettle    Phase = "hint_settle"
)

// Renderer receives phase notifications so the presentation layer can
// draw each step. Calls arrive serialized while the coordinator lock
// is held; implementations must not call back into the coordinator.
type Renderer interface {
	FlipPhase(phase Phase, card game.Card)
	HintPhase(phase Phase, hint *game.AnimationHint)
	SnapshotApplied(g *game.Game)
}

// NopRenderer discards all notifications.
type NopRenderer struct{}

func (NopRenderer) FlipPhase(Phase, game.Card)           {}
func (NopRenderer) HintPhase(Phase, *game.AnimationHint) {}
func (NopRenderer) SnapshotApplied(*game.Game)           {}

// Coordinator serializes all visual sequences for one client through a
// single FIFO queue. While any sequence is active, authoritative
// snapshots are buffered and only adopted, via the reconciler, on the
// transition back to idle.
type Coordinator struct {
	mu       sync.Mutex
	sched    Scheduler
	delays   Delays
	renderer Renderer

	state State
	phase Phase

	visible  *game.Game
	buffered *game.Game

	queue      []*game.AnimationHint
	current    *game.AnimationHint
	lastHintTs int64

	flipCard       game.Card
	signalFallback Timer
}

func NewCoordinator(sched Scheduler, delays Delays, renderer Renderer) *Coordinator {
	if renderer == nil {
		renderer = NopRenderer{}
	}
	return &Coordinator{
		sched:    sched,
		delays:   delays,
		renderer: renderer,
	}
}

// State reports the current top-level mode.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Visible returns the last adopted snapshot.
func (c *Coordinator) Visible() *game.Game {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible
}

// BeginUserAction starts the optimistic flip of the locally-known top
// card, before the authoritative outcome is known. User actions are
// disabled while any sequence is active.
func (c *Coordinator) BeginUserAction() (game.Card, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return game.Card{}, ErrBusy
	}
	if c.visible == nil {
		return game.Card{}, ErrNoVisibleState
	}
	top, ok := c.visible.TopCard()
	if !ok {
		return game.Card{}, game.ErrEmptyDeck
	}
	c.state = StateOptimisticFlip
	c.phase = PhaseFlipHalf1
	c.flipCard = top
	c.renderer.FlipPhase(PhaseFlipHalf1, top)
	// If the local completion signal never arrives, force the
	// progression so the queue cannot deadlock.
	c.signalFallback = c.sched.AfterFunc(c.millis(c.delays.FlipSignalTimeout), func() {
		coordinatorLogger.Warn().Msg("Flip completion signal timed out, forcing progression")
		c.SignalFlipHalfDone()
	})
	return top, nil
}

// SignalFlipHalfDone is the local completion signal progressing the
// flip from half1 to half2. Duplicate or late signals are ignored.
func (c *Coordinator) SignalFlipHalfDone() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateOptimisticFlip || c.phase != PhaseFlipHalf1 {
		return
	}
	if c.signalFallback != nil {
		c.signalFallback.Stop()
		c.signalFallback = nil
	}
	c.phase = PhaseFlipHalf2
	c.renderer.FlipPhase(PhaseFlipHalf2, c.flipCard)
	c.sched.AfterFunc(c.millis(c.delays.FlipHold), c.flipFade)
}

func (c *Coordinator) flipFade() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateOptimisticFlip || c.phase != PhaseFlipHalf2 {
		return
	}
	c.phase = PhaseFlipFade
	c.renderer.FlipPhase(PhaseFlipFade, c.flipCard)
	c.sched.AfterFunc(c.millis(c.delays.FlipFade), c.flipFinished)
}

func (c *Coordinator) flipFinished() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateOptimisticFlip || c.phase != PhaseFlipFade {
		return
	}
	c.dequeueOrIdle()
}

// Deliver feeds one broadcast snapshot into the coordinator: the
// embedded hint first (it may start or queue a playback), then the
// snapshot itself.
func (c *Coordinator) Deliver(g *game.Game) {
	c.HintArrived(g.AnimationHint)
	c.SnapshotArrived(g)
}

// HintArrived plays an authoritative hint, or queues it behind the
// in-flight sequence. Hints are deduplicated by timestamp so a
// re-delivered snapshot never double-plays an effect.
func (c *Coordinator) HintArrived(h *game.AnimationHint) {
	if h == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if h.Timestamp <= c.lastHintTs {
		return
	}
	c.lastHintTs = h.Timestamp
	if c.state == StateIdle {
		c.startPlayback(h)
		return
	}
	c.queue = append(c.queue, h)
}

// SnapshotArrived buffers the authoritative snapshot while a sequence
// is active; otherwise it goes through reconciliation immediately.
func (c *Coordinator) SnapshotArrived(g *game.Game) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		c.buffered = g
		return
	}
	c.adopt(g)
}

func (c *Coordinator) startPlayback(h *game.AnimationHint) {
	c.state = StateHintPlayback
	c.current = h
	c.phase = PhaseHintHighlight
	c.renderer.HintPhase(PhaseHintHighlight, h)
	c.sched.AfterFunc(c.millis(c.delays.HintHighlight), c.playbackMove)
}

func (c *Coordinator) playbackMove() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateHintPlayback || c.phase != PhaseHintHighlight {
		return
	}
	c.phase = PhaseHintMove
	c.renderer.HintPhase(PhaseHintMove, c.current)
	c.sched.AfterFunc(c.millis(c.delays.HintMove), c.playbackSettle)
}

func (c *Coordinator) playbackSettle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateHintPlayback || c.phase != PhaseHintMove {
		return
	}
	c.phase = PhaseHintSettle
	c.renderer.HintPhase(PhaseHintSettle, c.current)
	c.sched.AfterFunc(c.millis(c.delays.HintSettle), c.playbackFinished)
}

func (c *Coordinator) playbackFinished() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateHintPlayback || c.phase != PhaseHintSettle {
		return
	}
	c.applyHintLocally(c.current)
	c.current = nil
	c.dequeueOrIdle()
}

// dequeueOrIdle pops the next queued hint or returns to idle, adopting
// any snapshot buffered while sequences were running.
func (c *Coordinator) dequeueOrIdle() {
	if len(c.queue) > 0 {
		next := c.queue[0]
		c.queue = c.queue[1:]
		c.startPlayback(next)
		return
	}
	c.state = StateIdle
	c.phase = ""
	if c.buffered != nil {
		buffered := c.buffered
		c.buffered = nil
		c.adopt(buffered)
	}
}

// applyHintLocally replays the action the hint describes onto the
// visible state using the same rules the server ran, so the follow-up
// snapshot reconciles cleanly.
func (c *Coordinator) applyHintLocally(h *game.AnimationHint) {
	if c.visible == nil {
		return
	}
	_, actorIdx := c.visible.PlayerByID(h.PlayerID)
	if actorIdx < 0 {
		coordinatorLogger.Error().Str("playerID", h.PlayerID).Msg("Hint names unknown actor, skipping local replay")
		return
	}
	var err error
	switch h.Sequence {
	case game.SeqStealSuccess, game.SeqStealFail:
		_, targetIdx := c.visible.PlayerByID(h.TargetPlayerID)
		_, err = game.ApplySteal(c.visible, actorIdx, targetIdx, h.Timestamp)
	default:
		_, err = game.ApplyScore(c.visible, actorIdx, h.Timestamp)
	}
	if err != nil {
		coordinatorLogger.Error().Msgf("Local hint replay failed: %v", err)
	}
}

// adopt runs the buffered snapshot through the reconciler. A non-empty
// diff is logged and the last-known-good state kept; only a clean diff
// makes the snapshot the new visible truth.
func (c *Coordinator) adopt(g *game.Game) {
	if c.visible == nil {
		c.visible = g
		c.renderer.SnapshotApplied(g)
		return
	}
	diffs := Diff(c.visible, g)
	if len(diffs) > 0 {
		for _, d := range diffs {
			coordinatorLogger.Warn().
				Str(logging.RoomCodeKey, g.RoomCode).
				Msgf("Snapshot rejected by reconciler: %s", d)
		}
		return
	}
	c.visible = g
	c.renderer.SnapshotApplied(g)
}

func (c *Coordinator) millis(ms uint32) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
