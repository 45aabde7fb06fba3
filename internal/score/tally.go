package score

import (
    "sync"

    "github.com/jaminalder/codex-paper-soccer/internal/domain"
)

// Record is the persisted win count for each side.
type Record struct {
    PlayerWins   int `json:"playerWins"`
    OpponentWins int `json:"opponentWins"`
}

// Tally is the live score shared by every match in a process.
// Engine results and manual overrides both write to it.
type Tally struct {
    mu  sync.Mutex
    rec Record
}

// NewTally starts a tally from a loaded record.
func NewTally(r Record) *Tally { return &Tally{rec: r} }

// Add counts one win for side. Other values are ignored.
func (t *Tally) Add(side domain.Side) {
    t.mu.Lock()
    defer t.mu.Unlock()
    switch side {
    case domain.Player:
        t.rec.PlayerWins++
    case domain.Opponent:
        t.rec.OpponentWins++
    }
}

// Apply counts every win in events and reports how many there were.
// Draws do not score.
func (t *Tally) Apply(events []domain.Event) int {
    n := 0
    for _, ev := range events {
        if ev.Kind == domain.EventWin {
            t.Add(ev.Side)
            n++
        }
    }
    return n
}

// Snapshot returns the current counts.
func (t *Tally) Snapshot() Record {
    t.mu.Lock()
    defer t.mu.Unlock()
    return t.rec
}
