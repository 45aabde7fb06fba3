package web

import (
    "net/http"
    "time"

    "github.com/go-chi/chi/v5"
    chimw "github.com/go-chi/chi/v5/middleware"
    "github.com/rs/zerolog/log"

    "github.com/jaminalder/codex-paper-soccer/internal/app"
    "github.com/jaminalder/codex-paper-soccer/internal/domain"
)

// NewServer wires routes and returns an http.Handler. It also installs the
// board renderer used for live updates on s.
func NewServer(s *app.Service, tokens *Tokens) http.Handler {
    r := chi.NewRouter()
    h := &handlers{svc: s, tpl: loadTemplates(), tokens: tokens}
    s.SetRenderer(func(ms app.MatchState) []byte { return h.renderBoard(ms, "") })

    r.Use(chimw.RequestID)
    r.Use(chimw.RealIP)
    r.Use(chimw.Recoverer)
    r.Use(requestLogger)

    r.Get("/", h.index)
    r.Get("/health", h.health)
    r.Get("/score", h.score)
    r.Post("/match", h.create)
    r.Route("/match/{id}", func(r chi.Router) {
        r.Get("/", h.view)
        r.Post("/join", h.join)
        r.Post("/move", h.move)
        r.Post("/reset", h.reset)
        r.Post("/win", h.forceWin(domain.Player))
        r.Post("/lose", h.forceWin(domain.Opponent))
        r.Get("/history", h.history)
        r.Get("/events", h.events)
    })
    return r
}

func requestLogger(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
        start := time.Now()
        next.ServeHTTP(ww, r)
        log.Debug().
            Str("method", r.Method).
            Str("path", r.URL.Path).
            Int("status", ww.Status()).
            Dur("took", time.Since(start)).
            Str("request_id", chimw.GetReqID(r.Context())).
            Msg("request")
    })
}
