// Package rest is the action-submission surface of the game server.
// It translates HTTP calls into engine transactions and typed engine
// errors back into HTTP codes; all rules live in the engine.
package rest

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/belassiter/mantid/caching"
	"github.com/belassiter/mantid/game"
	"github.com/belassiter/mantid/logging"
)

var restLogger = log.With().Str("logger_name", "rest::rest").Logger()

const sessionHeader = "X-Player-ID"

//
// APP error definition
//
type appError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Server wires the engine and read path into gin handlers.
type Server struct {
	engine *game.Engine
	store  game.GameStore
	cache  *caches.SnapshotCache

	limiterLock sync.Mutex
	limiters    map[string]*rate.Limiter
}

func NewServer(engine *game.Engine, store game.GameStore, cache *caches.SnapshotCache) *Server {
	return &Server{
		engine:   engine,
		store:    store,
		cache:    cache,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.POST("/new-game", s.newGame)
	r.POST("/start-game", s.startGame)
	r.POST("/action", s.submitAction)
	r.GET("/game/:roomCode", s.getGame)

	return r
}

// RunRestServer blocks serving the API on the given address.
func (s *Server) RunRestServer(addr string) error {
	return s.Router().Run(addr)
}

type seatPayload struct {
	Name          string `json:"name"`
	IsBot         bool   `json:"isBot"`
	BotDifficulty string `json:"botDifficulty"`
}

func (s *Server) newGame(c *gin.Context) {
	type payload struct {
		Players []seatPayload `json:"players"`
	}
	var body payload
	if err := c.BindJSON(&body); err != nil {
		restLogger.Error().Msgf("Unable to parse new-game payload. Error: %v", err)
		c.IndentedJSON(http.StatusBadRequest, appError{Code: http.StatusBadRequest, Message: err.Error()})
		return
	}
	seats := make([]game.Seat, len(body.Players))
	for i, p := range body.Players {
		seats[i] = game.Seat{
			Name:          p.Name,
			IsBot:         p.IsBot,
			BotDifficulty: game.BotDifficulty(p.BotDifficulty),
		}
	}
	g, err := s.engine.CreateGame(c.Request.Context(), seats)
	if err != nil {
		s.writeError(c, err)
		return
	}
	restLogger.Info().Str(logging.RoomCodeKey, g.RoomCode).Msg("New game created")
	c.IndentedJSON(http.StatusOK, gin.H{"success": true, "roomCode": g.RoomCode, "game": g})
}

func (s *Server) startGame(c *gin.Context) {
	type payload struct {
		GameID string `json:"gameId"`
	}
	var body payload
	if err := c.BindJSON(&body); err != nil {
		c.IndentedJSON(http.StatusBadRequest, appError{Code: http.StatusBadRequest, Message: err.Error()})
		return
	}
	g, err := s.engine.StartGame(c.Request.Context(), body.GameID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"success": true, "game": g})
}

func (s *Server) submitAction(c *gin.Context) {
	type payload struct {
		GameID         string `json:"gameId"`
		Action         string `json:"action"`
		PlayerID       string `json:"playerId"`
		TargetPlayerID string `json:"targetPlayerId"`
		BotPlayerID    string `json:"botPlayerId"`
		ActionID       string `json:"actionId"`
	}
	var body payload
	if err := c.BindJSON(&body); err != nil {
		c.IndentedJSON(http.StatusBadRequest, appError{Code: http.StatusBadRequest, Message: err.Error()})
		return
	}
	if !s.limiter(body.GameID).Allow() {
		c.IndentedJSON(http.StatusTooManyRequests, appError{Code: http.StatusTooManyRequests, Message: "too many actions for this room"})
		return
	}

	sessionID := c.GetHeader(sessionHeader)
	ctx := c.Request.Context()

	var hint *game.AnimationHint
	var err error
	switch {
	case body.ActionID != "":
		// Bot-authored call presenting a staged action.
		_, hint, err = s.engine.ExecuteBotAction(ctx, body.GameID, sessionID, body.ActionID)
	case game.ActionType(body.Action) == game.ActionSteal:
		_, hint, err = s.engine.Steal(ctx, body.GameID, sessionID, s.actorID(body.PlayerID, sessionID), body.TargetPlayerID)
	default:
		_, hint, err = s.engine.Score(ctx, body.GameID, sessionID, s.actorID(body.PlayerID, sessionID))
	}
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"success": true, "animationHint": hint})
}

// actorID resolves the seat being acted for. Networked clients act for
// themselves; local-controller clients name the seat explicitly.
func (s *Server) actorID(playerID, sessionID string) string {
	if playerID != "" {
		return playerID
	}
	return sessionID
}

func (s *Server) getGame(c *gin.Context) {
	roomCode := c.Param("roomCode")
	if g, ok := s.cache.Get(roomCode); ok {
		c.IndentedJSON(http.StatusOK, gin.H{"success": true, "game": g})
		return
	}
	g, err := s.store.Load(c.Request.Context(), roomCode)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"success": true, "game": g})
}

// limiter returns the per-room action limiter, creating it on first use.
func (s *Server) limiter(roomCode string) *rate.Limiter {
	s.limiterLock.Lock()
	defer s.limiterLock.Unlock()
	l, ok := s.limiters[roomCode]
	if !ok {
		l = rate.NewLimiter(rate.Limit(8), 16)
		s.limiters[roomCode] = l
	}
	return l
}

func (s *Server) writeError(c *gin.Context, err error) {
	code := errorStatus(err)
	if code >= http.StatusInternalServerError {
		restLogger.Error().Msgf("Request failed: %v", err)
	}
	c.IndentedJSON(code, appError{Code: code, Message: err.Error()})
}

// errorStatus maps typed engine errors onto HTTP codes. Anything
// unrecognized is a 500.
func errorStatus(err error) int {
	var notFound game.GameNotFoundError
	var turn game.TurnViolationError
	var target game.InvalidTargetError
	var invalid game.InvalidStateError
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrAuthenticationRequired):
		return http.StatusUnauthorized
	case errors.As(err, &turn):
		return http.StatusForbidden
	case errors.As(err, &target), errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrEmptyDeck),
		errors.Is(err, game.ErrGameFinished),
		errors.Is(err, game.ErrGameNotStarted),
		errors.Is(err, game.ErrBotActionExpired),
		errors.Is(err, game.ErrBotActionConsumed),
		errors.Is(err, game.ErrBotActionMismatch),
		errors.Is(err, game.ErrVersionConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
