package domain

// Field bounds. The goal lines sit just past MinY and MaxY.
const (
    MinX = -4
    MaxX = 4
    MinY = -5
    MaxY = 5
)

// Coord is a lattice point on the field.
type Coord struct {
    X int `json:"x"`
    Y int `json:"y"`
}

// Origin is the kick-off point.
var Origin = Coord{}

// Add returns c shifted by d.
func (c Coord) Add(d Coord) Coord { return Coord{X: c.X + d.X, Y: c.Y + d.Y} }

// neighbourhood lists the 8 offsets around a point.
var neighbourhood = [8]Coord{
    {1, 0}, {-1, 0}, {0, 1}, {0, -1},
    {1, 1}, {1, -1}, {-1, -1}, {-1, 1},
}

// Neighbours returns the 8 points adjacent to c.
func Neighbours(c Coord) [8]Coord {
    var out [8]Coord
    for i, d := range neighbourhood {
        out[i] = c.Add(d)
    }
    return out
}

// Segment is an undirected edge between two adjacent points.
type Segment struct {
    A Coord `json:"a"`
    B Coord `json:"b"`
}

// Joins reports whether s connects a and b in either direction.
func (s Segment) Joins(a, b Coord) bool {
    return (s.A == a && s.B == b) || (s.A == b && s.B == a)
}

// History is the ordered list of visited points, starting at Origin.
type History []Coord

func newHistory() History { return History{Origin} }

// Last returns the most recent point.
func (h History) Last() Coord {
    if len(h) == 0 {
        return Origin
    }
    return h[len(h)-1]
}

// Segments returns every drawn segment in play order.
func (h History) Segments() []Segment {
    if len(h) < 2 {
        return nil
    }
    out := make([]Segment, 0, len(h)-1)
    for i := 1; i < len(h); i++ {
        out = append(out, Segment{A: h[i-1], B: h[i]})
    }
    return out
}

// LastSegment returns the newest segment; false before the first move.
func (h History) LastSegment() (Segment, bool) {
    if len(h) < 2 {
        return Segment{}, false
    }
    return Segment{A: h[len(h)-2], B: h[len(h)-1]}, true
}

// Drawn reports whether the segment a-b has been played in either direction.
func (h History) Drawn(a, b Coord) bool {
    for i := 1; i < len(h); i++ {
        if (Segment{A: h[i-1], B: h[i]}).Joins(a, b) {
            return true
        }
    }
    return false
}

// visitedBefore reports whether c occurs anywhere except the final entry.
func (h History) visitedBefore(c Coord) bool {
    for i := 0; i < len(h)-1; i++ {
        if h[i] == c {
            return true
        }
    }
    return false
}

func (h History) clone() History {
    out := make(History, len(h))
    copy(out, h)
    return out
}
