package app

import (
    "context"
    "errors"
    "sync"
    "time"

    "github.com/google/uuid"
    "github.com/rs/zerolog"
    "github.com/rs/zerolog/log"

    "github.com/jaminalder/codex-paper-soccer/internal/domain"
    "github.com/jaminalder/codex-paper-soccer/internal/score"
)

// Errors exposed by the service layer.
var (
    ErrNotFound    = errors.New("match not found")
    ErrNotYourTurn = errors.New("not your turn")
    ErrNotAPlayer  = errors.New("not a player")
)

// MatchState is the in-memory state tracked per match.
type MatchState struct {
    ID      string
    Match   domain.Match
    Owner   string         // holder of the Player seat
    Events  []domain.Event // produced by the last action
    Created time.Time
    Updated time.Time
}

func (ms *MatchState) snapshot() MatchState {
    cp := *ms
    cp.Match = ms.Match.Clone()
    cp.Events = append([]domain.Event(nil), ms.Events...)
    return cp
}

// Strategy picks the scripted opponent's next destination.
type Strategy func(domain.Match) (domain.Coord, error)

type subscriber struct {
    ch        chan []byte
    closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

// Service manages matches, the shared score tally and subscribers.
type Service struct {
    mu       sync.Mutex
    saveMu   sync.Mutex // orders score writes
    matches  map[string]*MatchState
    subs     map[string]map[*subscriber]struct{}
    render   func(MatchState) []byte
    tally    *score.Tally
    store    score.Store
    opponent Strategy
    log      zerolog.Logger
}

// NewService creates a service with a default renderer (encodes nothing useful).
// A nil tally starts from zero.
func NewService(tally *score.Tally) *Service {
    return NewServiceWithRenderer(tally, func(MatchState) []byte { return nil })
}

// NewServiceWithRenderer allows injecting a renderer for broadcast payloads.
func NewServiceWithRenderer(tally *score.Tally, renderer func(MatchState) []byte) *Service {
    if renderer == nil {
        renderer = func(MatchState) []byte { return nil }
    }
    if tally == nil {
        tally = score.NewTally(score.Record{})
    }
    return &Service{
        matches:  make(map[string]*MatchState),
        subs:     make(map[string]map[*subscriber]struct{}),
        render:   renderer,
        tally:    tally,
        opponent: domain.ChooseMove,
        log:      log.Logger.With().Str("component", "app").Logger(),
    }
}

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer func(MatchState) []byte) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if renderer == nil {
        s.render = func(MatchState) []byte { return nil }
        return
    }
    s.render = renderer
}

// SetStore makes the service save the score after every win.
func (s *Service) SetStore(st score.Store) {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.store = st
}

// SetLogger replaces the service logger.
func (s *Service) SetLogger(l zerolog.Logger) {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.log = l
}

// Score returns the current tally.
func (s *Service) Score() score.Record { return s.tally.Snapshot() }

// SaveScore writes the tally to the configured store, if any. Saves are
// serialized and take their snapshot inside the lock.
func (s *Service) SaveScore(ctx context.Context) error {
    s.mu.Lock()
    st := s.store
    s.mu.Unlock()
    if st == nil {
        return nil
    }
    s.saveMu.Lock()
    defer s.saveMu.Unlock()
    return st.Save(ctx, s.tally.Snapshot())
}

// CreateMatch creates and registers a new match.
func (s *Service) CreateMatch() (*MatchState, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    id := uuid.NewString()
    now := time.Now()
    ms := &MatchState{ID: id, Match: domain.New(), Created: now, Updated: now}
    s.matches[id] = ms
    s.log.Info().Str("match", id).Msg("match created")
    cp := ms.snapshot()
    return &cp, nil
}

// Get returns a copy of the match state if present.
func (s *Service) Get(id string) (*MatchState, bool) {
    s.mu.Lock()
    defer s.mu.Unlock()
    ms, ok := s.matches[id]
    if !ok {
        return nil, false
    }
    cp := ms.snapshot()
    return &cp, true
}

// Join gives the Player seat to the first caller; everyone else spectates (NoSide).
func (s *Service) Join(id, playerID string) (domain.Side, *MatchState, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    ms, ok := s.matches[id]
    if !ok {
        return domain.NoSide, nil, ErrNotFound
    }
    side := domain.NoSide
    if ms.Owner == "" || ms.Owner == playerID {
        ms.Owner = playerID
        side = domain.Player
    }
    ms.Updated = time.Now()
    cp := ms.snapshot()
    return side, &cp, nil
}

// Play validates seat and turn, applies the Player's move, lets the scripted
// opponent answer, updates the tally and broadcasts.
func (s *Service) Play(ctx context.Context, id, playerID string, dest domain.Coord) (*MatchState, error) {
    return s.mutate(ctx, id, playerID, func(ms *MatchState) ([]domain.Event, error) {
        if ms.Match.Over() {
            return nil, domain.ErrMatchOver
        }
        if ms.Match.Turn != domain.Player {
            return nil, ErrNotYourTurn
        }
        events, err := ms.Match.Move(dest)
        if err != nil {
            return nil, err
        }
        s.log.Debug().Str("match", ms.ID).Int("x", dest.X).Int("y", dest.Y).Msg("player move")
        return append(events, s.settleLocked(ms)...), nil
    })
}

// ForceWin ends the match in favour of side, scoring it like a natural win.
func (s *Service) ForceWin(ctx context.Context, id, playerID string, side domain.Side) (*MatchState, error) {
    return s.mutate(ctx, id, playerID, func(ms *MatchState) ([]domain.Event, error) {
        return ms.Match.ForceWin(side)
    })
}

// Reset restarts the match. The tally is left alone.
func (s *Service) Reset(ctx context.Context, id, playerID string) (*MatchState, error) {
    return s.mutate(ctx, id, playerID, func(ms *MatchState) ([]domain.Event, error) {
        ms.Match.Reset()
        return nil, nil
    })
}

// mutate runs fn on the seated player's match, then records the outcome,
// fans the new state out and saves the score if anybody won.
func (s *Service) mutate(ctx context.Context, id, playerID string, fn func(*MatchState) ([]domain.Event, error)) (*MatchState, error) {
    var toDrop []*subscriber

    s.mu.Lock()
    ms, ok := s.matches[id]
    if !ok {
        s.mu.Unlock()
        return nil, ErrNotFound
    }
    if ms.Owner == "" || ms.Owner != playerID {
        s.mu.Unlock()
        return nil, ErrNotAPlayer
    }
    events, err := fn(ms)
    if err != nil {
        s.mu.Unlock()
        return nil, err
    }
    ms.Events = events
    ms.Updated = time.Now()
    wins := s.tally.Apply(events)
    s.logOutcomeLocked(ms)

    // Snapshot state and subscribers
    cp := ms.snapshot()
    subs := s.copySubsLocked(id)
    payload := s.render(cp)
    s.mu.Unlock()

    // Fan-out; drop slow subscribers by closing and marking for deletion
    for sub := range subs {
        select {
        case sub.ch <- payload:
        default:
            sub.close()
            toDrop = append(toDrop, sub)
        }
    }
    if len(toDrop) > 0 {
        s.mu.Lock()
        for _, sub := range toDrop {
            if set, ok := s.subs[id]; ok {
                delete(set, sub)
            }
        }
        s.mu.Unlock()
    }

    if wins > 0 {
        if err := s.SaveScore(ctx); err != nil {
            s.log.Warn().Err(err).Str("match", id).Msg("save score")
        }
    }
    return &cp, nil
}

// settleLocked plays the scripted opponent until the turn comes back to the
// Player or the match ends. A side left with no legal move draws the match.
func (s *Service) settleLocked(ms *MatchState) []domain.Event {
    var events []domain.Event
    for !ms.Match.Over() {
        if ms.Match.Turn == domain.Player {
            if !ms.Match.HasLegalMove() {
                s.log.Info().Str("match", ms.ID).Msg("player stuck, declaring draw")
                ev, _ := ms.Match.DeclareDraw()
                events = append(events, ev...)
            }
            return events
        }
        dest, err := s.opponent(ms.Match.Clone())
        if err == nil {
            var ev []domain.Event
            ev, err = ms.Match.Move(dest)
            if err == nil {
                s.log.Debug().Str("match", ms.ID).Int("x", dest.X).Int("y", dest.Y).Msg("opponent move")
                events = append(events, ev...)
                continue
            }
        }
        if !errors.Is(err, domain.ErrOpponentStuck) {
            s.log.Error().Err(err).Str("match", ms.ID).Msg("opponent failed")
        }
        ev, _ := ms.Match.DeclareDraw()
        return append(events, ev...)
    }
    return events
}

func (s *Service) logOutcomeLocked(ms *MatchState) {
    for _, ev := range ms.Events {
        switch ev.Kind {
        case domain.EventWin:
            s.log.Info().Str("match", ms.ID).Stringer("winner", ev.Side).Int("moves", len(ms.Match.History)-1).Msg("match won")
        case domain.EventDraw:
            s.log.Info().Str("match", ms.ID).Int("moves", len(ms.Match.History)-1).Msg("match drawn")
        }
    }
}

// Subscribe registers a subscriber for an existing match. Returns a channel
// and an unsubscribe func, or ErrNotFound for an unknown id.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func(), error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.matches[id]; !ok {
        return nil, nil, ErrNotFound
    }
    set := s.subs[id]
    if set == nil {
        set = make(map[*subscriber]struct{})
        s.subs[id] = set
    }
    sub := &subscriber{ch: make(chan []byte, 1)}
    set[sub] = struct{}{}

    unsubOnce := &sync.Once{}
    unsub := func() {
        unsubOnce.Do(func() {
            s.mu.Lock()
            if set, ok := s.subs[id]; ok {
                delete(set, sub)
            }
            s.mu.Unlock()
            sub.close()
        })
    }
    go func() {
        <-ctx.Done()
        unsub()
    }()
    return sub.ch, unsub, nil
}

func (s *Service) copySubsLocked(id string) map[*subscriber]struct{} {
    out := make(map[*subscriber]struct{})
    if set, ok := s.subs[id]; ok {
        for k := range set {
            out[k] = struct{}{}
        }
    }
    return out
}
