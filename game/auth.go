package game

// Policy decides whether a session may act for a seat. It is resolved
// once per engine call; the engine itself never branches on trust mode.
//
// Turn ownership stays the mutation gate in both modes: only the
// current-turn seat may be acted for.
type Policy interface {
	Authorize(g *Game, sessionID string, seatPlayerID string) error
}

// RemoteIdentityPolicy is the networked trust model: every session may
// only act for its own seat.
type RemoteIdentityPolicy struct{}

func (RemoteIdentityPolicy) Authorize(g *Game, sessionID string, seatPlayerID string) error {
	if sessionID == "" {
		return ErrAuthenticationRequired
	}
	if sessionID != seatPlayerID {
		return TurnViolationError{PlayerID: sessionID}
	}
	if g.CurrentPlayer().ID != seatPlayerID {
		return TurnViolationError{PlayerID: seatPlayerID}
	}
	return nil
}

// LocalControllerPolicy is the device-local trust model: one trusted
// controller session drives all seats, still constrained to the
// current-turn seat.
type LocalControllerPolicy struct {
	ControllerID string
}

func (p LocalControllerPolicy) Authorize(g *Game, sessionID string, seatPlayerID string) error {
	if sessionID == "" {
		return ErrAuthenticationRequired
	}
	if sessionID != p.ControllerID {
		return TurnViolationError{PlayerID: sessionID}
	}
	if g.CurrentPlayer().ID != seatPlayerID {
		return TurnViolationError{PlayerID: seatPlayerID}
	}
	return nil
}
