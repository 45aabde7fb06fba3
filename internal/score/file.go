package score

import (
    "context"
    "errors"
    "fmt"
    "io/fs"
    "os"
    "path/filepath"
    "strconv"

    "github.com/joho/godotenv"
)

// Keys used in the key-value score file.
const (
    playerKey   = "PLAYER_WINS"
    opponentKey = "OPPONENT_WINS"
)

// FileStore keeps the record as KEY=value lines, e.g.
//
//    OPPONENT_WINS=2
//    PLAYER_WINS=5
type FileStore struct {
    path string
}

// NewFileStore returns a store writing to path. The file is created on first Save.
func NewFileStore(path string) *FileStore { return &FileStore{path: path} }

func (f *FileStore) Load(ctx context.Context) (Record, error) {
    env, err := godotenv.Read(f.path)
    if errors.Is(err, fs.ErrNotExist) {
        return Record{}, ErrNoRecord
    }
    if err != nil {
        return Record{}, fmt.Errorf("read %s: %w", f.path, err)
    }
    var r Record
    if r.PlayerWins, err = count(env, playerKey); err != nil {
        return Record{}, err
    }
    if r.OpponentWins, err = count(env, opponentKey); err != nil {
        return Record{}, err
    }
    return r, nil
}

func (f *FileStore) Save(ctx context.Context, r Record) error {
    if dir := filepath.Dir(f.path); dir != "." && dir != "" {
        if err := os.MkdirAll(dir, 0o755); err != nil {
            return fmt.Errorf("mkdir %s: %w", dir, err)
        }
    }
    env := map[string]string{
        playerKey:   strconv.Itoa(r.PlayerWins),
        opponentKey: strconv.Itoa(r.OpponentWins),
    }
    if err := godotenv.Write(env, f.path); err != nil {
        return fmt.Errorf("write %s: %w", f.path, err)
    }
    return nil
}

// count parses a non-negative counter; a missing key counts as zero.
func count(env map[string]string, key string) (int, error) {
    v, ok := env[key]
    if !ok || v == "" {
        return 0, nil
    }
    n, err := strconv.Atoi(v)
    if err != nil || n < 0 {
        return 0, fmt.Errorf("bad %s value %q", key, v)
    }
    return n, nil
}
