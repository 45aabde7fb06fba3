package web

import (
    "bufio"
    "context"
    "encoding/json"
    "io"
    "net/http"
    "net/http/httptest"
    "net/url"
    "strings"
    "testing"
    "time"

    "github.com/rs/zerolog"

    "github.com/jaminalder/codex-paper-soccer/internal/app"
    "github.com/jaminalder/codex-paper-soccer/internal/domain"
    "github.com/jaminalder/codex-paper-soccer/internal/score"
)

func newTestServer(t *testing.T) (*app.Service, *Tokens, http.Handler) {
    t.Helper()
    s := app.NewService(score.NewTally(score.Record{}))
    s.SetLogger(zerolog.Nop())
    tokens := NewTokens("test-secret", time.Hour)
    return s, tokens, NewServer(s, tokens)
}

// playerCookieFor signs a cookie the server will accept for pid.
func playerCookieFor(t *testing.T, tokens *Tokens, pid string) *http.Cookie {
    t.Helper()
    tok, _, err := tokens.Sign(pid)
    if err != nil {
        t.Fatalf("sign: %v", err)
    }
    return &http.Cookie{Name: playerCookie, Value: tok}
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values, c *http.Cookie) *httptest.ResponseRecorder {
    t.Helper()
    req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
    req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
    if c != nil {
        req.AddCookie(c)
    }
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    return rr
}

func TestIndexPage(t *testing.T) {
    _, _, h := newTestServer(t)
    req := httptest.NewRequest("GET", "/", nil)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    body := rr.Body.String()
    if !strings.Contains(body, "<form") || !strings.Contains(body, "action=\"/match\"") {
        t.Fatalf("index should contain create form; got body: %q", body)
    }
    if !strings.Contains(body, "Player score: 0") || !strings.Contains(body, "AI score: 0") {
        t.Fatalf("index should show the score; got body: %q", body)
    }
}

func TestCreateRedirectsToMatch(t *testing.T) {
    _, _, h := newTestServer(t)
    req := httptest.NewRequest("POST", "/match", nil)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusSeeOther && rr.Code != http.StatusFound {
        t.Fatalf("expected redirect, got %d", rr.Code)
    }
    loc := rr.Result().Header.Get("Location")
    if !strings.HasPrefix(loc, "/match/") {
        t.Fatalf("expected redirect to /match/{id}, got %q", loc)
    }
}

func TestMatchPageSetsCookieAndClaimsSeat(t *testing.T) {
    svc, tokens, h := newTestServer(t)
    ms, _ := svc.CreateMatch()

    req := httptest.NewRequest("GET", "/match/"+url.PathEscape(ms.ID), nil)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    var token string
    for _, c := range rr.Result().Cookies() {
        if c.Name == playerCookie {
            token = c.Value
            break
        }
    }
    if token == "" {
        t.Fatalf("expected player cookie to be set")
    }
    pid, err := tokens.Parse(token)
    if err != nil {
        t.Fatalf("cookie should be a valid token: %v", err)
    }
    latest, ok := svc.Get(ms.ID)
    if !ok || latest.Owner != pid {
        t.Fatalf("expected seat claimed by %q, got %q", pid, latest.Owner)
    }
    body := rr.Body.String()
    if !strings.Contains(body, "hx-ext=\"sse\"") || !strings.Contains(body, "/match/"+ms.ID+"/events") {
        t.Fatalf("expected SSE wiring in page; got body: %q", body)
    }
    if !strings.Contains(body, "Turn: Player") {
        t.Fatalf("expected turn label in page")
    }
}

func TestUnknownMatchIsNotFound(t *testing.T) {
    _, _, h := newTestServer(t)
    req := httptest.NewRequest("GET", "/match/nope", nil)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusNotFound {
        t.Fatalf("expected 404, got %d", rr.Code)
    }
}

func TestForgedCookieIsReplaced(t *testing.T) {
    svc, _, h := newTestServer(t)
    ms, _ := svc.CreateMatch()
    svc.Join(ms.ID, "owner")

    forged := &http.Cookie{Name: playerCookie, Value: "owner"}
    rr := postForm(t, h, "/match/"+ms.ID+"/move", url.Values{"x": {"0"}, "y": {"1"}}, forged)
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    if !strings.Contains(rr.Body.String(), "You are a spectator") {
        t.Fatalf("forged cookie should not act as the owner; got %q", rr.Body.String())
    }
    latest, _ := svc.Get(ms.ID)
    if len(latest.Match.History) != 1 {
        t.Fatalf("move should not be applied")
    }
}

func TestJoinEndpointReturnsBoardFragment(t *testing.T) {
    svc, tokens, h := newTestServer(t)
    ms, _ := svc.CreateMatch()
    svc.Join(ms.ID, "p1")

    rr := postForm(t, h, "/match/"+ms.ID+"/join", url.Values{}, playerCookieFor(t, tokens, "p2"))
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    body := rr.Body.String()
    if !strings.Contains(body, "id=\"board\"") {
        t.Fatalf("expected board fragment, got %q", body)
    }
    if !strings.Contains(body, "You are a spectator") {
        t.Fatalf("second visitor should spectate, got %q", body)
    }
}

func TestMoveEndpointUpdatesStateAndReturnsFragment(t *testing.T) {
    svc, tokens, h := newTestServer(t)
    ms, _ := svc.CreateMatch()
    svc.Join(ms.ID, "p1")

    rr := postForm(t, h, "/match/"+ms.ID+"/move", url.Values{"x": {"1"}, "y": {"1"}}, playerCookieFor(t, tokens, "p1"))
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    body := rr.Body.String()
    if !strings.Contains(body, "id=\"board\"") || strings.Contains(body, "class=\"alert\"") {
        t.Fatalf("expected clean board fragment, got %q", body)
    }
    if strings.Count(body, "<line ") != 2 {
        t.Fatalf("expected player and opponent segments drawn, got %q", body)
    }
    latest, _ := svc.Get(ms.ID)
    if len(latest.Match.History) != 3 {
        t.Fatalf("expected player move and opponent reply, history=%v", latest.Match.History)
    }
}

func TestIllegalMoveShowsAlert(t *testing.T) {
    svc, tokens, h := newTestServer(t)
    ms, _ := svc.CreateMatch()
    svc.Join(ms.ID, "p1")
    c := playerCookieFor(t, tokens, "p1")

    cases := []struct {
        form url.Values
        want string
    }{
        {url.Values{"x": {"2"}, "y": {"0"}}, "Too far"},
        {url.Values{"x": {"0"}, "y": {"0"}}, "Invalid move"},
        {url.Values{"x": {"a"}, "y": {"1"}}, "Invalid move"},
    }
    for _, tc := range cases {
        rr := postForm(t, h, "/match/"+ms.ID+"/move", tc.form, c)
        if rr.Code != http.StatusOK {
            t.Fatalf("expected 200, got %d", rr.Code)
        }
        if !strings.Contains(rr.Body.String(), tc.want) {
            t.Fatalf("%v: expected %q alert, got %q", tc.form, tc.want, rr.Body.String())
        }
    }
    latest, _ := svc.Get(ms.ID)
    if len(latest.Match.History) != 1 {
        t.Fatalf("illegal moves must not change state")
    }
}

func TestWinAndLoseButtonsScoreAndReset(t *testing.T) {
    svc, tokens, h := newTestServer(t)
    ms, _ := svc.CreateMatch()
    svc.Join(ms.ID, "p1")
    c := playerCookieFor(t, tokens, "p1")

    rr := postForm(t, h, "/match/"+ms.ID+"/win", url.Values{}, c)
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    rr = postForm(t, h, "/match/"+ms.ID+"/lose", url.Values{}, c)
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    body := rr.Body.String()
    if !strings.Contains(body, "Player score: 1") || !strings.Contains(body, "AI score: 1") {
        t.Fatalf("expected both wins counted, got %q", body)
    }
    if got := svc.Score(); got != (score.Record{PlayerWins: 1, OpponentWins: 1}) {
        t.Fatalf("unexpected tally %+v", got)
    }
    latest, _ := svc.Get(ms.ID)
    if latest.Match.Over() {
        t.Fatalf("manual result should be followed by a reset")
    }
}

func TestHistoryAndScoreJSON(t *testing.T) {
    svc, tokens, h := newTestServer(t)
    ms, _ := svc.CreateMatch()
    svc.Join(ms.ID, "p1")
    postForm(t, h, "/match/"+ms.ID+"/move", url.Values{"x": {"0"}, "y": {"1"}}, playerCookieFor(t, tokens, "p1"))

    req := httptest.NewRequest("GET", "/match/"+ms.ID+"/history", nil)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    var res historyRes
    if err := json.NewDecoder(rr.Body).Decode(&res); err != nil {
        t.Fatalf("decode: %v", err)
    }
    if len(res.History) != 3 || len(res.Segments) != 2 || res.Last == nil {
        t.Fatalf("unexpected history payload %+v", res)
    }
    if res.Last.B != (domain.Coord{X: 0, Y: 2}) || res.Phase != "in_progress" || res.Turn != "player" {
        t.Fatalf("unexpected history payload %+v", res)
    }

    req = httptest.NewRequest("GET", "/score", nil)
    rr = httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    var rec score.Record
    if err := json.NewDecoder(rr.Body).Decode(&rec); err != nil {
        t.Fatalf("decode score: %v", err)
    }
    if rec != (score.Record{}) {
        t.Fatalf("unexpected score %+v", rec)
    }
}

func TestEventsEndpointSSEHeaders(t *testing.T) {
    _, _, h := newTestServer(t)
    reqCreate := httptest.NewRequest("POST", "/match", nil)
    rrCreate := httptest.NewRecorder()
    h.ServeHTTP(rrCreate, reqCreate)
    loc := rrCreate.Result().Header.Get("Location")
    if loc == "" {
        t.Fatalf("missing redirect location")
    }
    req := httptest.NewRequest("GET", loc+"/events", nil)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d", rr.Code)
    }
    ct := rr.Result().Header.Get("Content-Type")
    if !strings.HasPrefix(ct, "text/event-stream") {
        io.Copy(io.Discard, rr.Result().Body)
        t.Fatalf("expected text/event-stream, got %q", ct)
    }
}

func TestEventsUnknownMatchIsNotFound(t *testing.T) {
    s, _, h := newTestServer(t)
    req := httptest.NewRequest("GET", "/match/never-created/events", nil)
    req.Header.Set("Accept", "text/event-stream")
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusNotFound {
        t.Fatalf("expected 404, got %d", rr.Code)
    }
    if _, ok := s.Get("never-created"); ok {
        t.Fatalf("events request must not register a match")
    }
}

func TestEventsStreamBoardAfterMove(t *testing.T) {
    s, tokens, h := newTestServer(t)
    srv := httptest.NewServer(h)
    defer srv.Close()

    ms, err := s.CreateMatch()
    if err != nil {
        t.Fatalf("create: %v", err)
    }
    if _, _, err := s.Join(ms.ID, "p1"); err != nil {
        t.Fatalf("join: %v", err)
    }

    ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
    defer cancel()
    req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/match/"+ms.ID+"/events", nil)
    if err != nil {
        t.Fatalf("new request: %v", err)
    }
    req.Header.Set("Accept", "text/event-stream")
    resp, err := srv.Client().Do(req)
    if err != nil {
        t.Fatalf("connect: %v", err)
    }
    defer resp.Body.Close()
    if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
        t.Fatalf("expected text/event-stream, got %q", ct)
    }

    rr := postForm(t, h, "/match/"+ms.ID+"/move", url.Values{"x": {"1"}, "y": {"1"}}, playerCookieFor(t, tokens, "p1"))
    if rr.Code != http.StatusOK {
        t.Fatalf("move: expected 200, got %d", rr.Code)
    }

    sc := bufio.NewScanner(resp.Body)
    for sc.Scan() {
        if sc.Text() != "event: board" {
            continue
        }
        if !sc.Scan() || !strings.HasPrefix(sc.Text(), "data: ") {
            t.Fatalf("expected a data line after the event name, got %q", sc.Text())
        }
        return
    }
    t.Fatalf("no board event received: %v", sc.Err())
}

func TestWriteEventPrefixesEveryLine(t *testing.T) {
    var sb strings.Builder
    writeEvent(&sb, "board", []byte("<div>\n</div>"))
    want := "event: board\ndata: <div>\ndata: </div>\n\n"
    if sb.String() != want {
        t.Fatalf("expected %q, got %q", want, sb.String())
    }
}

func TestTokensRejectOtherSecret(t *testing.T) {
    tok, _, err := NewTokens("a", time.Hour).Sign("p1")
    if err != nil {
        t.Fatalf("sign: %v", err)
    }
    if _, err := NewTokens("b", time.Hour).Parse(tok); err == nil {
        t.Fatalf("expected token signed with another secret to be rejected")
    }
    pid, err := NewTokens("a", time.Hour).Parse(tok)
    if err != nil || pid != "p1" {
        t.Fatalf("expected p1, got %q err=%v", pid, err)
    }
}
