package game

import "errors"

// Rejections. The game is unchanged when one of these is returned and the
// call may be retried with corrected input.
var (
	ErrGameOver         = errors.New("game is over")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrInvalidCardIndex = errors.New("invalid card index")
	ErrIllegalPlay      = errors.New("card does not match the discard top")
	ErrInvalidColor     = errors.New("invalid color")
	ErrNotPendingActor  = errors.New("player is not expected to resolve the pending action")
	ErrMissingInput     = errors.New("missing input for pending action")
	ErrInvalidTarget    = errors.New("invalid target player")
	ErrPendingOpen      = errors.New("a pending action must be resolved first")
	ErrJailOccupied     = errors.New("jail already holds a card")
	ErrNotJailCard      = errors.New("only a yellow four can be jailed")
)

// ErrInvariant marks a broken engine invariant. It is a bug, not a user error.
var ErrInvariant = errors.New("engine invariant violated")

// IsRejection reports whether err is a retryable input rejection.
func IsRejection(err error) bool {
	for _, sentinel := range []error{
		ErrGameOver, ErrNotYourTurn, ErrInvalidCardIndex, ErrIllegalPlay,
		ErrInvalidColor, ErrNotPendingActor, ErrMissingInput, ErrInvalidTarget,
		ErrPendingOpen, ErrJailOccupied, ErrNotJailCard,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
