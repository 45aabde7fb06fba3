package main

import (
    "context"
    "errors"
    "io"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/rs/zerolog"
    "github.com/rs/zerolog/log"

    "github.com/jaminalder/codex-paper-soccer/internal/app"
    "github.com/jaminalder/codex-paper-soccer/internal/config"
    "github.com/jaminalder/codex-paper-soccer/internal/score"
    "github.com/jaminalder/codex-paper-soccer/internal/web"
)

func main() {
    cfg, err := config.Load()
    if err != nil {
        log.Fatal().Err(err).Msg("bad configuration")
    }
    setupLogging(cfg)
    if cfg.DevSecret() {
        log.Warn().Msg("TOKEN_SECRET not set, player cookies are signed with the built-in dev secret")
    }

    st, closeStore, err := openStore(cfg)
    if err != nil {
        log.Fatal().Err(err).Str("backend", cfg.ScoreBackend).Msg("open score store")
    }
    defer closeStore()

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    rec, err := score.LoadOrInit(ctx, st)
    if err != nil {
        log.Fatal().Err(err).Msg("load score")
    }
    log.Info().Int("player", rec.PlayerWins).Int("opponent", rec.OpponentWins).Msg("score loaded")

    svc := app.NewService(score.NewTally(rec))
    svc.SetStore(st)
    srv := &http.Server{
        Addr:              cfg.Addr(),
        Handler:           web.NewServer(svc, web.NewTokens(cfg.TokenSecret, cfg.TokenTTL)),
        ReadHeaderTimeout: 10 * time.Second,
    }

    go func() {
        log.Info().Str("addr", srv.Addr).Msg("starting papersoccer")
        if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
            log.Error().Err(err).Msg("server exited")
            stop()
        }
    }()

    <-ctx.Done()
    log.Info().Msg("shutting down")
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if err := srv.Shutdown(shutdownCtx); err != nil {
        log.Warn().Err(err).Msg("shutdown")
    }
    if err := svc.SaveScore(shutdownCtx); err != nil {
        log.Error().Err(err).Msg("save score")
    }
}

func setupLogging(cfg config.Config) {
    if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
        zerolog.SetGlobalLevel(lvl)
    }
    var out io.Writer = os.Stderr
    if cfg.LogFormat == "console" {
        out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
    }
    log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

func openStore(cfg config.Config) (score.Store, func(), error) {
    switch cfg.ScoreBackend {
    case config.BackendSQLite:
        st, err := score.OpenSQLite(cfg.ScorePath)
        if err != nil {
            return nil, nil, err
        }
        return st, func() { _ = st.Close() }, nil
    case config.BackendMemory:
        return score.NewMemoryStore(), func() {}, nil
    default:
        return score.NewFileStore(cfg.ScorePath), func() {}, nil
    }
}
