package score

import (
    "context"
    "errors"
    "sync"
)

// ErrNoRecord is returned by Load when nothing has been saved yet.
var ErrNoRecord = errors.New("no score record")

// Store persists the score record.
// Implementations may be backed by memory (this file), a key-value file or SQLite.
type Store interface {
    Load(ctx context.Context) (Record, error)
    Save(ctx context.Context, r Record) error
}

// LoadOrInit reads the record, writing a zeroed one first on the very first run.
func LoadOrInit(ctx context.Context, st Store) (Record, error) {
    r, err := st.Load(ctx)
    if errors.Is(err, ErrNoRecord) {
        if err := st.Save(ctx, Record{}); err != nil {
            return Record{}, err
        }
        return st.Load(ctx)
    }
    return r, err
}

type memory struct {
    mu  sync.RWMutex
    rec *Record
}

// NewMemoryStore returns a Store that lives as long as the process.
func NewMemoryStore() Store { return &memory{} }

func (m *memory) Load(ctx context.Context) (Record, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    if m.rec == nil {
        return Record{}, ErrNoRecord
    }
    return *m.rec, nil
}

func (m *memory) Save(ctx context.Context, r Record) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    m.rec = &r
    return nil
}
