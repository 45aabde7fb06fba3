package web

import (
    "bytes"
    "fmt"
    "html/template"

    "github.com/jaminalder/codex-paper-soccer/internal/app"
    "github.com/jaminalder/codex-paper-soccer/internal/domain"
    "github.com/jaminalder/codex-paper-soccer/internal/score"
)

// Labels shown next to the board.
const (
    playerScoreText = "Player score:"
    aiScoreText     = "AI score:"
    playerTurnText  = "Turn: Player"
    aiTurnText      = "Turn: AI"
    playerWinsText  = "Player wins!"
    aiWinsText      = "AI wins!"
    drawText        = "Draw!"
)

// cell is the spacing in pixels between lattice points in the trail drawing.
const cell = 30

type templates struct {
    base  *template.Template
    game  *template.Template
    board *template.Template
    index *template.Template
}

func loadTemplates() *templates {
    base := template.Must(template.New("base").Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<title>Paper Soccer</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
</head><body>{{template "content" .}}</body></html>`))
    index := template.Must(template.Must(base.Clone()).New("content").Parse(`<h1>Paper Soccer</h1>
<div class="score">{{range .}}<div>{{.}}</div>{{end}}</div>
<form action="/match" method="post"><button>New match</button></form>`))
    game := template.Must(template.Must(base.Clone()).New("content").Parse(`
<div hx-ext="sse" hx-sse="connect:/match/{{.ID}}/events">
  <div id="board-slot" hx-sse="swap:board">{{.BoardHTML}}</div>
</div>`))
    board := template.Must(template.New("board_only").Parse(boardTemplate))
    return &templates{base: base, game: game, board: board, index: index}
}

func renderTemplate(t *template.Template, name string, data any) []byte {
    var buf bytes.Buffer
    if name == "" {
        _ = t.Execute(&buf, data)
    } else {
        _ = t.ExecuteTemplate(&buf, name, data)
    }
    return buf.Bytes()
}

const boardTemplate = `
<div id="board">
  {{if .Error}}
  <div class="alert">{{.Error}}</div>
  {{end}}
  <div class="status">{{.Status}}</div>
  <div class="score">{{range .Score}}<div>{{.}}</div>{{end}}</div>
  <svg class="trail" viewBox="0 0 {{.Width}} {{.Height}}" width="{{.Width}}" height="{{.Height}}">
    {{range .Segments}}<line x1="{{.X1}}" y1="{{.Y1}}" x2="{{.X2}}" y2="{{.Y2}}" stroke="black"/>{{end}}
    <circle cx="{{.BallX}}" cy="{{.BallY}}" r="5"/>
  </svg>
  {{range .Rows}}
  <div class="row">
    {{range .Points}}
      {{if .OnField}}
      <form hx-post="/match/{{$.ID}}/move" hx-target="#board" hx-swap="outerHTML" method="post">
        <input type="hidden" name="x" value="{{.X}}">
        <input type="hidden" name="y" value="{{.Y}}">
        <button type="submit" class="{{.Class}}">{{.Symbol}}</button>
      </form>
      {{else}}
      <span class="void"></span>
      {{end}}
    {{end}}
  </div>
  {{end}}
  <form hx-post="/match/{{.ID}}/reset" hx-target="#board" hx-swap="outerHTML" method="post"><button>Play again</button></form>
  <form hx-post="/match/{{.ID}}/win" hx-target="#board" hx-swap="outerHTML" method="post"><button>Win</button></form>
  <form hx-post="/match/{{.ID}}/lose" hx-target="#board" hx-swap="outerHTML" method="post"><button>Lose</button></form>
</div>
`

type pointView struct {
    X, Y    int
    OnField bool
    Class   string
    Symbol  string
}

type rowView struct {
    Y      int
    Points []pointView
}

type lineView struct{ X1, Y1, X2, Y2 int }

type boardView struct {
    ID           string
    Error        string
    Status       string
    Score        []string
    Width        int
    Height       int
    BallX, BallY int
    Segments     []lineView
    Rows         []rowView
}

func px(x int) int { return (x-domain.MinX)*cell + cell/2 }
func py(y int) int { return (domain.MaxY+1-y)*cell + cell/2 }

// playable reports whether a point can hold the ball: the field plus the
// three goal points beyond each goal line.
func playable(c domain.Coord) bool {
    if c.X < domain.MinX || c.X > domain.MaxX {
        return false
    }
    if c.Y >= domain.MinY && c.Y <= domain.MaxY {
        return true
    }
    return (c.Y == domain.MinY-1 || c.Y == domain.MaxY+1) && c.X >= -1 && c.X <= 1
}

func statusText(m domain.Match) string {
    switch m.Phase {
    case domain.Won:
        if m.Winner == domain.Player {
            return playerWinsText
        }
        return aiWinsText
    case domain.Drawn:
        return drawText
    }
    if m.Turn == domain.Opponent {
        return aiTurnText
    }
    return playerTurnText
}

func scoreLines(r score.Record) []string {
    return []string{
        fmt.Sprintf("%s %d", playerScoreText, r.PlayerWins),
        fmt.Sprintf("%s %d", aiScoreText, r.OpponentWins),
    }
}

func newBoardView(ms app.MatchState, rec score.Record, errMsg string) boardView {
    m := ms.Match
    v := boardView{
        ID:     ms.ID,
        Error:  errMsg,
        Status: statusText(m),
        Score:  scoreLines(rec),
        Width:  (domain.MaxX - domain.MinX + 1) * cell,
        Height: (domain.MaxY - domain.MinY + 3) * cell,
        BallX:  px(m.Ball.X),
        BallY:  py(m.Ball.Y),
    }
    for _, s := range m.History.Segments() {
        v.Segments = append(v.Segments, lineView{X1: px(s.A.X), Y1: py(s.A.Y), X2: px(s.B.X), Y2: py(s.B.Y)})
    }

    legal := make(map[domain.Coord]bool)
    if m.Turn == domain.Player {
        for _, c := range m.LegalMoves() {
            legal[c] = true
        }
    }
    visited := make(map[domain.Coord]bool, len(m.History))
    for _, c := range m.History {
        visited[c] = true
    }

    for y := domain.MaxY + 1; y >= domain.MinY-1; y-- {
        row := rowView{Y: y}
        for x := domain.MinX; x <= domain.MaxX; x++ {
            c := domain.Coord{X: x, Y: y}
            p := pointView{X: x, Y: y, OnField: playable(c), Class: "point", Symbol: "."}
            switch {
            case c == m.Ball:
                p.Class, p.Symbol = "ball", "o"
            case legal[c]:
                p.Class, p.Symbol = "legal", "+"
            case visited[c]:
                p.Class, p.Symbol = "visited", "*"
            }
            row.Points = append(row.Points, p)
        }
        v.Rows = append(v.Rows, row)
    }
    return v
}
