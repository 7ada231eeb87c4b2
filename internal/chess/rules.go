package chess

import (
	"github.com/rocketscienceinc/chess-relay/internal/entity"
)

// rule - pure legality predicate of one piece kind. It never mutates the board
// or the piece; castle flags are cleared when the move is applied.
type rule func(board *entity.Board, piece *entity.Piece, move entity.Move) bool

var rules = map[entity.Kind]rule{
	entity.Pawn:   pawnRule,
	entity.Knight: knightRule,
	entity.Bishop: bishopRule,
	entity.Rook:   rookRule,
	entity.Queen:  queenRule,
	entity.King:   kingRule,
}

// IsLegal - reports whether the piece standing on move.From may go to move.To.
func IsLegal(board *entity.Board, move entity.Move) bool {
	if !move.From.InBounds() || !move.To.InBounds() {
		return false
	}

	piece := board.At(move.From)
	if piece == nil {
		return false
	}

	check, ok := rules[piece.Kind]
	if !ok {
		return false
	}

	return check(board, piece, move)
}

// IsCastling - king onto an eligible rook of its own colour on the same row
// with nothing in between.
func IsCastling(board *entity.Board, king *entity.Piece, move entity.Move) bool {
	if king.Kind != entity.King || !king.CanCastle || !move.To.InBounds() {
		return false
	}

	target := board.At(move.To)
	if target == nil || target.Kind != entity.Rook || target.Colour != king.Colour || !target.CanCastle {
		return false
	}

	return move.From.Row == move.To.Row && isPathClear(board, move)
}

// baseCheck - shared by every kind: destination on the board, empty or held
// by the opponent, and nothing standing in between for straight and diagonal lines.
func baseCheck(board *entity.Board, piece *entity.Piece, move entity.Move) bool {
	if !move.To.InBounds() {
		return false
	}

	target := board.At(move.To)
	if target != nil && target.Colour == piece.Colour {
		return false
	}

	return isPathClear(board, move)
}

func pawnRule(board *entity.Board, piece *entity.Piece, move entity.Move) bool {
	if !baseCheck(board, piece, move) {
		return false
	}

	forward := move.From.Row - move.To.Row
	sideways := abs(move.To.Col - move.From.Col)

	if !board.IsEmpty(move.To) {
		return forward == piece.Side && sideways == 1
	}

	if sideways != 0 {
		return false
	}

	if forward == piece.Side {
		return true
	}

	return move.From.Row == piece.StartRow() && forward == 2*piece.Side
}

// knightRule - the (1,2) shape skips the base check, so a knight can land on
// its own piece with that jump.
func knightRule(board *entity.Board, piece *entity.Piece, move entity.Move) bool {
	dRow, dCol := deltas(move)

	return (baseCheck(board, piece, move) && dRow == 2 && dCol == 1) || (dRow == 1 && dCol == 2)
}

func bishopRule(board *entity.Board, piece *entity.Piece, move entity.Move) bool {
	return baseCheck(board, piece, move) && isDiagonal(move)
}

func rookRule(board *entity.Board, piece *entity.Piece, move entity.Move) bool {
	return baseCheck(board, piece, move) && isStraight(move)
}

func queenRule(board *entity.Board, piece *entity.Piece, move entity.Move) bool {
	return baseCheck(board, piece, move) && (isStraight(move) || isDiagonal(move))
}

func kingRule(board *entity.Board, piece *entity.Piece, move entity.Move) bool {
	if IsCastling(board, piece, move) {
		return true
	}

	dRow, dCol := deltas(move)

	return baseCheck(board, piece, move) && dRow <= 1 && dCol <= 1
}

func isStraight(move entity.Move) bool {
	return (move.From.Row == move.To.Row) != (move.From.Col == move.To.Col)
}

func isDiagonal(move entity.Move) bool {
	dRow, dCol := deltas(move)
	return dRow == dCol && dRow != 0
}

// isPathClear - every square strictly between the endpoints is empty. Moves
// that are neither straight nor diagonal have no path.
func isPathClear(board *entity.Board, move entity.Move) bool {
	from, to := move.From, move.To
	dRow, dCol := deltas(move)

	if from.Row != to.Row && from.Col != to.Col && dRow != dCol {
		return true
	}

	rowStep := sign(to.Row - from.Row)
	colStep := sign(to.Col - from.Col)

	row, col := from.Row+rowStep, from.Col+colStep
	for row != to.Row || col != to.Col {
		if !board.IsEmpty(entity.Position{Row: row, Col: col}) {
			return false
		}
		row += rowStep
		col += colStep
	}

	return true
}

func deltas(move entity.Move) (int, int) {
	return abs(move.To.Row - move.From.Row), abs(move.To.Col - move.From.Col)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
