package entity

import (
	"errors"
	"fmt"
)

const BoardSize = 8

// Colour - side of a player; White moves first.
type Colour int32

const (
	White Colour = 1
	Black Colour = -1
)

func (that Colour) Opponent() Colour {
	return -that
}

func (that Colour) Valid() bool {
	return that == White || that == Black
}

func (that Colour) String() string {
	switch that {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return fmt.Sprintf("colour(%d)", int32(that))
	}
}

// Kind - closed set of piece kinds.
type Kind uint8

const (
	Pawn Kind = iota + 1
	Knight
	Bishop
	Rook
	Queen
	King
)

var ErrUnknownPieceCode = errors.New("unknown piece code")

var kindNames = map[Kind]string{
	Pawn:   "pawn",
	Knight: "knight",
	Bishop: "bishop",
	Rook:   "rook",
	Queen:  "queen",
	King:   "king",
}

var kindLetters = map[Kind]byte{
	Pawn:   'P',
	Knight: 'N',
	Bishop: 'B',
	Rook:   'R',
	Queen:  'Q',
	King:   'K',
}

func (that Kind) String() string {
	if name, ok := kindNames[that]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(that))
}

// Letter - upper-case letter of the kind, as used on a printed board.
func (that Kind) Letter() byte {
	if l, ok := kindLetters[that]; ok {
		return l
	}
	return '?'
}

// Code - wire code of a promotion piece: 1 knight, 2 bishop, 3 rook, 4 queen.
func (that Kind) Code() int32 {
	switch that {
	case Knight:
		return 1
	case Bishop:
		return 2
	case Rook:
		return 3
	case Queen:
		return 4
	default:
		return 0
	}
}

// IsPromotion reports whether a pawn may be promoted to this kind.
func (that Kind) IsPromotion() bool {
	return that.Code() != 0
}

// KindFromCode - inverse of Kind.Code.
func KindFromCode(code int32) (Kind, error) {
	switch code {
	case 1:
		return Knight, nil
	case 2:
		return Bishop, nil
	case 3:
		return Rook, nil
	case 4:
		return Queen, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownPieceCode, code)
	}
}

// Piece - a piece on the board. Colour never changes after creation.
type Piece struct {
	Kind   Kind   `json:"kind"`
	Colour Colour `json:"colour"`
	// Side is the pawn's forward direction: +1 towards row 0, -1 towards row 7.
	Side int `json:"side"`
	// CanCastle is only meaningful for rooks and kings.
	CanCastle bool `json:"can_castle,omitempty"`
}

func NewPiece(kind Kind, colour Colour, side int) *Piece {
	return &Piece{
		Kind:      kind,
		Colour:    colour,
		Side:      side,
		CanCastle: kind == Rook || kind == King,
	}
}

// StartRow - row a pawn of this side starts on.
func (that *Piece) StartRow() int {
	if that.Side > 0 {
		return BoardSize - 2
	}
	return 1
}

// FarRow - row where a pawn of this side is promoted.
func (that *Piece) FarRow() int {
	if that.Side > 0 {
		return 0
	}
	return BoardSize - 1
}

// Name - two letter name, e.g. "wK" or "bP".
func (that *Piece) Name() string {
	prefix := byte('b')
	if that.Colour == White {
		prefix = 'w'
	}
	return string([]byte{prefix, that.Kind.Letter()})
}
