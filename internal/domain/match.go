package domain

// Side identifies who is to move or who won.
type Side uint8

const (
    NoSide Side = iota
    Player
    Opponent
)

// Other returns the opposing side.
func (s Side) Other() Side {
    switch s {
    case Player:
        return Opponent
    case Opponent:
        return Player
    default:
        return NoSide
    }
}

func (s Side) String() string {
    switch s {
    case Player:
        return "player"
    case Opponent:
        return "opponent"
    default:
        return "none"
    }
}

// Phase is the lifecycle stage of a match.
type Phase uint8

const (
    InProgress Phase = iota
    Won
    Drawn
)

func (p Phase) String() string {
    switch p {
    case Won:
        return "won"
    case Drawn:
        return "draw"
    default:
        return "in_progress"
    }
}

// EventKind classifies a state change produced by the match.
type EventKind uint8

const (
    EventWin EventKind = iota + 1
    EventDraw
    EventTurnChanged
)

func (k EventKind) String() string {
    switch k {
    case EventWin:
        return "win"
    case EventDraw:
        return "draw"
    case EventTurnChanged:
        return "turn"
    default:
        return "unknown"
    }
}

// Event is emitted by state transitions. Side is the winner for EventWin
// and the new side to move for EventTurnChanged.
type Event struct {
    Kind EventKind
    Side Side
}

// Match holds the current state of a paper soccer match.
type Match struct {
    Ball    Coord
    Turn    Side
    History History
    Phase   Phase
    Winner  Side
}

// New returns a new match with the ball at the origin and the Player to move.
func New() Match {
    return Match{Ball: Origin, Turn: Player, History: newHistory(), Phase: InProgress}
}

// Reset restarts the match in place.
func (m *Match) Reset() { *m = New() }

// Over reports whether the match reached a terminal phase.
func (m *Match) Over() bool { return m.Phase != InProgress }

// Clone returns a copy that shares no history storage with m.
func (m Match) Clone() Match {
    m.History = m.History.clone()
    return m
}

// Check returns the reason dest cannot be played from the current ball, or nil.
func (m *Match) Check(dest Coord) error {
    if m.Over() {
        return ErrMatchOver
    }
    return checkMove(m.History, m.Ball, dest)
}

// Legal reports whether dest can be played now.
func (m *Match) Legal(dest Coord) bool { return m.Check(dest) == nil }

// CanBounce reports whether the side to move keeps the turn at the current ball.
func (m *Match) CanBounce() bool { return CanBounce(m.History, m.Ball) }

// HasLegalMove reports whether any neighbour of the ball can be played.
func (m *Match) HasLegalMove() bool { return hasLegalMove(m.History, m.Ball) }

// LegalMoves lists the playable neighbours of the ball.
func (m *Match) LegalMoves() []Coord {
    if m.Over() {
        return nil
    }
    var out []Coord
    for _, n := range Neighbours(m.Ball) {
        if Legal(m.History, m.Ball, n) {
            out = append(out, n)
        }
    }
    return out
}

// Move draws the segment from the ball to dest for the side to move.
// On error the match is left untouched.
func (m *Match) Move(dest Coord) ([]Event, error) {
    if err := m.Check(dest); err != nil {
        return nil, err
    }

    m.History = append(m.History, dest)
    m.Ball = m.History.Last()

    var events []Event
    switch {
    case dest.Y > MaxY:
        events = append(events, m.win(Opponent))
    case dest.Y < MinY:
        events = append(events, m.win(Player))
    }
    if m.Over() {
        return events, nil
    }

    if m.CanBounce() {
        // Same side goes again, unless there is nowhere left to go.
        if !m.HasLegalMove() {
            m.Phase = Drawn
            events = append(events, Event{Kind: EventDraw})
        }
        return events, nil
    }

    m.Turn = m.Turn.Other()
    events = append(events, Event{Kind: EventTurnChanged, Side: m.Turn})
    return events, nil
}

// ForceWin ends the match in favour of side without a move.
func (m *Match) ForceWin(side Side) ([]Event, error) {
    if m.Over() {
        return nil, ErrMatchOver
    }
    if side != Player && side != Opponent {
        return nil, ErrIllegalMove
    }
    return []Event{m.win(side)}, nil
}

// DeclareDraw ends the match without a winner.
func (m *Match) DeclareDraw() ([]Event, error) {
    if m.Over() {
        return nil, ErrMatchOver
    }
    m.Phase = Drawn
    return []Event{{Kind: EventDraw}}, nil
}

func (m *Match) win(side Side) Event {
    m.Phase = Won
    m.Winner = side
    return Event{Kind: EventWin, Side: side}
}
