package apperror

import "errors"

var (
	ErrGameNotActive      = errors.New("game is not active")
	ErrNotYourTurn        = errors.New("it's not your turn")
	ErrIllegalMove        = errors.New("illegal move")
	ErrEmptySquare        = errors.New("square is empty")
	ErrNotYourPiece       = errors.New("piece belongs to the opponent")
	ErrOutOfBounds        = errors.New("position is out of bounds")
	ErrNoFloatingPiece    = errors.New("no piece is picked up")
	ErrNoPendingPromotion = errors.New("no promotion is pending")
	ErrInvalidPromotion   = errors.New("invalid promotion piece")
	ErrInvalidColour      = errors.New("invalid colour")

	ErrMalformedMessage = errors.New("malformed message")
	ErrConnectionLost   = errors.New("connection lost")
	ErrRosterFull       = errors.New("roster is full")
)
