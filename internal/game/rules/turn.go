package rules

import "fmt"

// Direction is the ±1 multiplier applied to seat stepping.
type Direction int

const (
	Clockwise        Direction = 1
	CounterClockwise Direction = -1
)

var directionNames = map[Direction]string{
	Clockwise:        "CLOCKWISE",
	CounterClockwise: "COUNTER_CLOCKWISE",
}

func (d Direction) String() string {
	if name, ok := directionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("DIRECTION_%d", int(d))
}

// TurnManager tracks the current seat, play direction and turn count.
type TurnManager struct {
	seats      int
	current    int
	direction  Direction
	turnNumber int
}

// NewTurnManager creates a turn manager for seats players starting at first.
func NewTurnManager(seats, first int) *TurnManager {
	if seats <= 0 {
		seats = 1
	}
	tm := &TurnManager{
		seats:      seats,
		direction:  Clockwise,
		turnNumber: 1,
	}
	tm.current = tm.Offset(first, 0)
	return tm
}

// Seats returns the number of seats at the table.
func (tm *TurnManager) Seats() int {
	return tm.seats
}

// Current returns the seat whose turn it is.
func (tm *TurnManager) Current() int {
	return tm.current
}

// SetCurrent moves the turn to seat without counting a new turn.
func (tm *TurnManager) SetCurrent(seat int) {
	tm.current = tm.Offset(seat, 0)
}

// Direction returns the current play direction.
func (tm *TurnManager) Direction() Direction {
	return tm.direction
}

// TurnNumber returns the current turn number (1-based).
func (tm *TurnManager) TurnNumber() int {
	return tm.turnNumber
}

// Reverse flips the play direction.
func (tm *TurnManager) Reverse() Direction {
	tm.direction = -tm.direction
	return tm.direction
}

// Offset returns the seat steps away from base, wrapping in both directions.
func (tm *TurnManager) Offset(base, steps int) int {
	return ((base+steps)%tm.seats + tm.seats) % tm.seats
}

// Relative returns the seat steps away from base along the play direction.
// Negative steps count against the direction.
func (tm *TurnManager) Relative(base, steps int) int {
	return tm.Offset(base, int(tm.direction)*steps)
}

// Next returns the seat after base in the play direction.
func (tm *TurnManager) Next(base int) int {
	return tm.Relative(base, 1)
}

// Previous returns the seat before base in the play direction.
func (tm *TurnManager) Previous(base int) int {
	return tm.Relative(base, -1)
}

// Advance passes the turn steps seats along the play direction from the
// current seat and returns the new current seat.
func (tm *TurnManager) Advance(steps int) int {
	tm.current = tm.Relative(tm.current, steps)
	tm.turnNumber++
	return tm.current
}
