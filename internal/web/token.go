package web

import (
    "errors"
    "net/http"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/google/uuid"
    "github.com/rs/zerolog/log"
)

const playerCookie = "player"

// Tokens signs and verifies the player cookie, so a seat cannot be taken
// over by guessing another visitor's id.
type Tokens struct {
    secret []byte
    ttl    time.Duration
}

// NewTokens returns an HS256 signer. A non-positive ttl means 14 days.
func NewTokens(secret string, ttl time.Duration) *Tokens {
    if ttl <= 0 {
        ttl = 14 * 24 * time.Hour
    }
    return &Tokens{secret: []byte(secret), ttl: ttl}
}

// Sign issues a token carrying the player id.
func (t *Tokens) Sign(playerID string) (string, time.Time, error) {
    now := time.Now()
    exp := now.Add(t.ttl)
    tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
        "pid": playerID,
        "exp": exp.Unix(),
        "iat": now.Unix(),
    })
    ss, err := tok.SignedString(t.secret)
    return ss, exp, err
}

// Parse returns the player id from a valid token.
func (t *Tokens) Parse(token string) (string, error) {
    claims := jwt.MapClaims{}
    parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
        return t.secret, nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
    if err != nil {
        return "", err
    }
    if !parsed.Valid {
        return "", errors.New("invalid token")
    }
    pid, _ := claims["pid"].(string)
    if pid == "" {
        return "", errors.New("token without player id")
    }
    return pid, nil
}

// ensurePlayerCookie returns the caller's player id, issuing a fresh signed
// cookie when the request has none or a bad one.
func (t *Tokens) ensurePlayerCookie(w http.ResponseWriter, r *http.Request) string {
    if c, err := r.Cookie(playerCookie); err == nil && c.Value != "" {
        if pid, err := t.Parse(c.Value); err == nil {
            return pid
        }
    }
    pid := uuid.NewString()
    tok, exp, err := t.Sign(pid)
    if err != nil {
        log.Error().Err(err).Msg("sign player cookie")
        return pid
    }
    http.SetCookie(w, &http.Cookie{
        Name:     playerCookie,
        Value:    tok,
        Path:     "/",
        HttpOnly: true,
        SameSite: http.SameSiteLaxMode,
        Expires:  exp,
    })
    return pid
}
