package domain

// Candidate orders for the scripted opponent, picked by the sign of the
// ball's x. The opponent always prefers moving up, toward the goal it attacks.
var (
    leftOrder = [8]Coord{
        {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {1, 0}, {1, -1}, {-1, -1}, {0, -1},
    }
    // (0,1) appears twice and (1,1) never; kept to match the shipped opponent.
    rightOrder = [8]Coord{
        {-1, 1}, {0, 1}, {0, 1}, {-1, 0}, {1, 0}, {1, -1}, {0, -1}, {-1, -1},
    }
    centreOrder = [8]Coord{
        {0, 1}, {1, 1}, {-1, 1}, {-1, 0}, {1, 0}, {1, -1}, {0, -1}, {-1, -1},
    }
)

func candidateOrder(ball Coord) [8]Coord {
    switch {
    case ball.X < 0:
        return leftOrder
    case ball.X > 0:
        return rightOrder
    default:
        return centreOrder
    }
}

// ChooseMove returns the scripted opponent's destination for m.
// It is deterministic and does not modify m.
func ChooseMove(m Match) (Coord, error) {
    if m.Over() {
        return Coord{}, ErrMatchOver
    }
    for _, d := range candidateOrder(m.Ball) {
        dest := m.Ball.Add(d)
        if Legal(m.History, m.Ball, dest) {
            return dest, nil
        }
    }
    return Coord{}, ErrOpponentStuck
}
