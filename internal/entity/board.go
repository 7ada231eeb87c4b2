package entity

import (
	"fmt"
	"hash/fnv"
)

// Position - a square of the board in the local orientation.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (that Position) InBounds() bool {
	return that.Row >= 0 && that.Row < BoardSize && that.Col >= 0 && that.Col < BoardSize
}

// Mirror - the same square as seen by the opposite peer.
func (that Position) Mirror() Position {
	return Position{Row: BoardSize - 1 - that.Row, Col: that.Col}
}

func (that Position) String() string {
	return fmt.Sprintf("(%d,%d)", that.Row, that.Col)
}

// Move - source and destination squares of a ply.
type Move struct {
	From Position `json:"from"`
	To   Position `json:"to"`
}

// NewMove - builds a move from (srcRow, srcCol, dstRow, dstCol).
func NewMove(srcRow, srcCol, dstRow, dstCol int) Move {
	return Move{
		From: Position{Row: srcRow, Col: srcCol},
		To:   Position{Row: dstRow, Col: dstCol},
	}
}

// Ints - the move as [srcRow, srcCol, dstRow, dstCol].
func (that Move) Ints() [4]int {
	return [4]int{that.From.Row, that.From.Col, that.To.Row, that.To.Col}
}

func (that Move) Mirror() Move {
	return Move{From: that.From.Mirror(), To: that.To.Mirror()}
}

func (that Move) InBounds() bool {
	return that.From.InBounds() && that.To.InBounds()
}

func (that Move) String() string {
	return fmt.Sprintf("%s->%s", that.From, that.To)
}

// Board - fixed 8x8 grid; nil cells are empty.
type Board struct {
	cells [BoardSize][BoardSize]*Piece
}

func NewBoard() *Board {
	return &Board{}
}

// At - piece on the square, nil when empty or out of bounds.
func (that *Board) At(pos Position) *Piece {
	if !pos.InBounds() {
		return nil
	}
	return that.cells[pos.Row][pos.Col]
}

func (that *Board) Set(pos Position, piece *Piece) {
	that.cells[pos.Row][pos.Col] = piece
}

func (that *Board) Clear(pos Position) {
	that.cells[pos.Row][pos.Col] = nil
}

func (that *Board) IsEmpty(pos Position) bool {
	return that.At(pos) == nil
}

// Clone - deep copy, pieces included.
func (that *Board) Clone() *Board {
	clone := &Board{}
	for row := range that.cells {
		for col, piece := range that.cells[row] {
			if piece != nil {
				cp := *piece
				clone.cells[row][col] = &cp
			}
		}
	}
	return clone
}

// Snapshot - value copy of the grid for renderers; zero Kind means empty.
func (that *Board) Snapshot() [BoardSize][BoardSize]Piece {
	var grid [BoardSize][BoardSize]Piece
	for row := range that.cells {
		for col, piece := range that.cells[row] {
			if piece != nil {
				grid[row][col] = *piece
			}
		}
	}
	return grid
}

// Checksum - digest of the grid normalised to White's orientation, so two
// consistent peers produce the same value.
func (that *Board) Checksum(perspective Colour) uint64 {
	h := fnv.New64a()
	buf := make([]byte, 0, BoardSize*BoardSize*3)

	for i := range BoardSize {
		row := i
		if perspective == Black {
			row = BoardSize - 1 - i
		}

		for col := range BoardSize {
			piece := that.cells[row][col]
			if piece == nil {
				buf = append(buf, 0, 0, 0)
				continue
			}

			castle := byte(0)
			if piece.CanCastle {
				castle = 1
			}
			buf = append(buf, byte(piece.Kind), byte(int8(piece.Colour)), castle)
		}
	}

	_, _ = h.Write(buf)

	return h.Sum64()
}
