package domain

import (
    "errors"
    "fmt"
)

// Errors returned by domain operations.
var (
    ErrIllegalMove   = errors.New("illegal move")
    ErrMatchOver     = errors.New("match over")
    ErrOpponentStuck = errors.New("opponent has no legal move")
)

// Reasons a move is rejected. All of them match ErrIllegalMove with errors.Is.
var (
    ErrSegmentDrawn = fmt.Errorf("%w: segment already drawn", ErrIllegalMove)
    ErrNullMove     = fmt.Errorf("%w: ball must move", ErrIllegalMove)
    ErrTooFar       = fmt.Errorf("%w: not an adjacent point", ErrIllegalMove)
    ErrBandSlide    = fmt.Errorf("%w: cannot run along the side band", ErrIllegalMove)
    ErrOffField     = fmt.Errorf("%w: off the field", ErrIllegalMove)
    ErrGoalLine     = fmt.Errorf("%w: cannot run along the goal line", ErrIllegalMove)
)

// checkMove validates the segment ball->dest against the drawn history.
// The order of checks is significant: the first failure is reported.
func checkMove(h History, ball, dest Coord) error {
    if h.Drawn(ball, dest) {
        return ErrSegmentDrawn
    }
    if dest == ball {
        return ErrNullMove
    }
    if abs(dest.X-ball.X) > 1 || abs(dest.Y-ball.Y) > 1 {
        return ErrTooFar
    }
    if ball.X == MinX && dest.X == MinX && ball.Y != dest.Y {
        return ErrBandSlide
    }
    if ball.X == MaxX && dest.X == MaxX && ball.Y != dest.Y {
        return ErrBandSlide
    }
    if dest.X < MinX || dest.X > MaxX {
        return ErrOffField
    }
    // The x clause is redundant for integers but kept as the rule was written.
    if ball.X != 0 && ball.Y == MinY && dest.Y <= MinY && (dest.X >= 1 || dest.X <= -1) {
        return ErrGoalLine
    }
    if ball.X != 0 && ball.Y == MaxY && dest.Y >= MaxY && (dest.X >= 1 || dest.X <= -1) {
        return ErrGoalLine
    }
    return nil
}

// Legal reports whether the segment ball->dest may be drawn.
// Overshooting a goal line vertically is legal; it ends the match.
func Legal(h History, ball, dest Coord) bool {
    return checkMove(h, ball, dest) == nil
}

// CanBounce reports whether a ball resting at ball lets the mover go again:
// a revisited point, a side band, or the goal line away from the goal mouth.
func CanBounce(h History, ball Coord) bool {
    if h.visitedBefore(ball) {
        return true
    }
    if ball.X == MinX || ball.X == MaxX {
        return true
    }
    if (ball.Y == MinY || ball.Y == MaxY) && ball.X != 0 {
        return true
    }
    return false
}

// hasLegalMove reports whether any neighbour of ball is reachable.
func hasLegalMove(h History, ball Coord) bool {
    for _, n := range Neighbours(ball) {
        if Legal(h, ball, n) {
            return true
        }
    }
    return false
}

func abs(v int) int {
    if v < 0 {
        return -v
    }
    return v
}
