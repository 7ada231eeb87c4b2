package chess

import "github.com/rocketscienceinc/chess-relay/internal/entity"

var backRank = [entity.BoardSize]entity.Kind{
	entity.Rook, entity.Knight, entity.Bishop, entity.Queen,
	entity.King, entity.Bishop, entity.Knight, entity.Rook,
}

// SetupBoard - starting position seen by the player of the given colour:
// its own pieces on rows 6-7 (side +1), the opponent's on rows 0-1 (side -1).
func SetupBoard(local entity.Colour) *entity.Board {
	board := entity.NewBoard()
	opponent := local.Opponent()

	for col := range entity.BoardSize {
		board.Set(entity.Position{Row: 0, Col: col}, entity.NewPiece(backRank[col], opponent, -1))
		board.Set(entity.Position{Row: 1, Col: col}, entity.NewPiece(entity.Pawn, opponent, -1))
		board.Set(entity.Position{Row: entity.BoardSize - 2, Col: col}, entity.NewPiece(entity.Pawn, local, 1))
		board.Set(entity.Position{Row: entity.BoardSize - 1, Col: col}, entity.NewPiece(backRank[col], local, 1))
	}

	return board
}
