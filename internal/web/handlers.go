package web

import (
    "encoding/json"
    "errors"
    "html/template"
    "io"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/rs/zerolog/log"

    "github.com/jaminalder/codex-paper-soccer/internal/app"
    "github.com/jaminalder/codex-paper-soccer/internal/domain"
)

type handlers struct {
    svc    *app.Service
    tpl    *templates
    tokens *Tokens
}

func (h *handlers) renderBoard(ms app.MatchState, errMsg string) []byte {
    return renderTemplate(h.tpl.board, "", newBoardView(ms, h.svc.Score(), errMsg))
}

func (h *handlers) writeBoard(w http.ResponseWriter, ms app.MatchState, errMsg string) {
    w.Header().Set("Content-Type", "text/html; charset=utf-8")
    _, _ = w.Write(h.renderBoard(ms, errMsg))
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
    w.Header().Set("Content-Type", "text/html; charset=utf-8")
    w.WriteHeader(http.StatusOK)
    _, _ = w.Write(renderTemplate(h.tpl.index, "base", scoreLines(h.svc.Score())))
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
    writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *handlers) score(w http.ResponseWriter, r *http.Request) {
    writeJSON(w, http.StatusOK, h.svc.Score())
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
    ms, err := h.svc.CreateMatch()
    if err != nil {
        http.Error(w, "failed to create", http.StatusInternalServerError)
        return
    }
    http.Redirect(w, r, "/match/"+ms.ID, http.StatusSeeOther)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    // ensure cookie and auto-claim the Player seat
    pid := h.tokens.ensurePlayerCookie(w, r)
    _, _, _ = h.svc.Join(id, pid)

    ms, ok := h.svc.Get(id)
    if !ok {
        http.NotFound(w, r)
        return
    }
    data := struct {
        ID        string
        BoardHTML template.HTML
    }{ID: ms.ID, BoardHTML: template.HTML(h.renderBoard(*ms, ""))}

    w.Header().Set("Content-Type", "text/html; charset=utf-8")
    w.WriteHeader(http.StatusOK)
    _, _ = w.Write(renderTemplate(h.tpl.game, "base", data))
}

func (h *handlers) join(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    pid := h.tokens.ensurePlayerCookie(w, r)
    side, ms, err := h.svc.Join(id, pid)
    if err != nil || ms == nil {
        http.NotFound(w, r)
        return
    }
    var errMsg string
    if side == domain.NoSide {
        errMsg = "You are a spectator"
    }
    h.writeBoard(w, *ms, errMsg)
}

func (h *handlers) move(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    pid := h.tokens.ensurePlayerCookie(w, r)
    _ = r.ParseForm()
    x, errX := strconv.Atoi(r.Form.Get("x"))
    y, errY := strconv.Atoi(r.Form.Get("y"))
    if errX != nil || errY != nil {
        h.respond(w, r, id, nil, domain.ErrIllegalMove)
        return
    }
    ms, err := h.svc.Play(r.Context(), id, pid, domain.Coord{X: x, Y: y})
    h.respond(w, r, id, ms, err)
}

func (h *handlers) reset(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    pid := h.tokens.ensurePlayerCookie(w, r)
    ms, err := h.svc.Reset(r.Context(), id, pid)
    h.respond(w, r, id, ms, err)
}

// forceWin backs the manual win/lose buttons: score the result, then start over.
func (h *handlers) forceWin(side domain.Side) http.HandlerFunc {
    return func(w http.ResponseWriter, r *http.Request) {
        id := chi.URLParam(r, "id")
        pid := h.tokens.ensurePlayerCookie(w, r)
        ms, err := h.svc.ForceWin(r.Context(), id, pid, side)
        if err == nil {
            ms, err = h.svc.Reset(r.Context(), id, pid)
        }
        h.respond(w, r, id, ms, err)
    }
}

// respond writes the board fragment, with a short alert when err is set.
func (h *handlers) respond(w http.ResponseWriter, r *http.Request, id string, ms *app.MatchState, err error) {
    var errMsg string
    if err != nil {
        if ms == nil {
            if m, ok := h.svc.Get(id); ok {
                ms = m
            }
        }
        errMsg = errorText(err)
    }
    if ms == nil {
        http.NotFound(w, r)
        return
    }
    h.writeBoard(w, *ms, errMsg)
}

func errorText(err error) string {
    switch {
    case errors.Is(err, app.ErrNotYourTurn):
        return "Not your turn"
    case errors.Is(err, app.ErrNotAPlayer):
        return "You are a spectator"
    case errors.Is(err, domain.ErrMatchOver):
        return "Match is over"
    case errors.Is(err, domain.ErrSegmentDrawn):
        return "Line already drawn"
    case errors.Is(err, domain.ErrTooFar):
        return "Too far"
    case errors.Is(err, domain.ErrBandSlide):
        return "Cannot run along the band"
    case errors.Is(err, domain.ErrOffField):
        return "Off the field"
    case errors.Is(err, domain.ErrGoalLine):
        return "Cannot run along the goal line"
    default:
        return "Invalid move"
    }
}

type historyRes struct {
    ID       string           `json:"id"`
    Phase    string           `json:"phase"`
    Turn     string           `json:"turn"`
    Winner   string           `json:"winner,omitempty"`
    Ball     domain.Coord     `json:"ball"`
    History  []domain.Coord   `json:"history"`
    Segments []domain.Segment `json:"segments"`
    Last     *domain.Segment  `json:"last,omitempty"`
}

func (h *handlers) history(w http.ResponseWriter, r *http.Request) {
    ms, ok := h.svc.Get(chi.URLParam(r, "id"))
    if !ok {
        writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
        return
    }
    m := ms.Match
    res := historyRes{
        ID:       ms.ID,
        Phase:    m.Phase.String(),
        Turn:     m.Turn.String(),
        Ball:     m.Ball,
        History:  m.History,
        Segments: m.History.Segments(),
    }
    if res.Segments == nil {
        res.Segments = []domain.Segment{}
    }
    if m.Phase == domain.Won {
        res.Winner = m.Winner.String()
    }
    if s, ok := m.History.LastSegment(); ok {
        res.Last = &s
    }
    writeJSON(w, http.StatusOK, res)
}

var heartbeatInterval = 15 * time.Second

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
    id := chi.URLParam(r, "id")
    if _, ok := h.svc.Get(id); !ok {
        http.NotFound(w, r)
        return
    }
    w.Header().Set("Content-Type", "text/event-stream")
    w.Header().Set("Cache-Control", "no-cache")
    w.Header().Set("X-Accel-Buffering", "no")
    // In tests or non-EventSource requests, just acknowledge headers and return
    if r.Header.Get("Accept") != "text/event-stream" {
        w.WriteHeader(http.StatusOK)
        return
    }
    flusher, ok := w.(http.Flusher)
    if !ok {
        w.WriteHeader(http.StatusOK)
        return
    }
    ctx := r.Context()
    ch, unsub, err := h.svc.Subscribe(ctx, id)
    if err != nil {
        http.NotFound(w, r)
        return
    }
    defer unsub()
    ticker := time.NewTicker(heartbeatInterval)
    defer ticker.Stop()
    flusher.Flush()
    for {
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
            _, _ = io.WriteString(w, ": ping\n\n")
            flusher.Flush()
        case b, ok := <-ch:
            if !ok {
                return
            }
            writeEvent(w, "board", b)
            flusher.Flush()
        }
    }
}

// writeEvent emits one SSE event; every payload line gets its own data field.
func writeEvent(w io.Writer, name string, payload []byte) {
    var sb strings.Builder
    sb.WriteString("event: " + name + "\n")
    for _, line := range strings.Split(string(payload), "\n") {
        sb.WriteString("data: " + line + "\n")
    }
    sb.WriteString("\n")
    _, _ = io.WriteString(w, sb.String())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
    w.Header().Set("Content-Type", "application/json; charset=utf-8")
    w.WriteHeader(status)
    if err := json.NewEncoder(w).Encode(v); err != nil {
        log.Warn().Err(err).Msg("encode response")
    }
}
