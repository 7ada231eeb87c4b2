package game

import (
	"io"
	"log/slog"
	"testing"

	"github.com/rocketscienceinc/chess-relay/internal/apperror"
	"github.com/rocketscienceinc/chess-relay/internal/chess"
	"github.com/rocketscienceinc/chess-relay/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startedSession(t *testing.T, colour entity.Colour) *Session {
	t.Helper()

	session := NewSession(newTestLogger())
	require.NoError(t, session.Start(colour))

	return session
}

func pos(row, col int) entity.Position {
	return entity.Position{Row: row, Col: col}
}

func TestSession_Start(t *testing.T) {
	t.Run("awaiting start rejects moves", func(t *testing.T) {
		// Given: a fresh session
		session := NewSession(newTestLogger())

		// When: a move arrives before START
		_, err := session.ApplyMove(entity.White, entity.NewMove(6, 4, 4, 4))

		// Then: it is rejected
		require.ErrorIs(t, err, apperror.ErrGameNotActive)
		assert.Equal(t, StatusAwaitingStart, session.Status())
	})

	t.Run("invalid colour", func(t *testing.T) {
		session := NewSession(newTestLogger())

		err := session.Start(0)

		require.ErrorIs(t, err, apperror.ErrInvalidColour)
		assert.Equal(t, StatusAwaitingStart, session.Status())
	})

	t.Run("white moves first for both colours", func(t *testing.T) {
		for _, colour := range []entity.Colour{entity.White, entity.Black} {
			session := startedSession(t, colour)

			assert.Equal(t, StatusActive, session.Status())
			assert.Equal(t, entity.White, session.Turn())
			assert.Equal(t, colour, session.Colour())
			assert.Equal(t, colour == entity.White, session.IsLocalTurn())
			assert.Equal(t, colour, session.Board().At(pos(7, 4)).Colour)
		}
	})
}

func TestSession_ApplyMove(t *testing.T) {
	t.Run("ordinary move alternates the turn", func(t *testing.T) {
		// Given: a started session
		session := startedSession(t, entity.White)

		// When: white advances a pawn
		outcome, err := session.ApplyMove(entity.White, entity.NewMove(6, 4, 4, 4))
		require.NoError(t, err)

		// Then: the pawn moved and it is black's turn
		assert.Equal(t, Moved, outcome.Kind)
		assert.Nil(t, outcome.Captured)
		assert.Nil(t, session.Board().At(pos(6, 4)))
		assert.Equal(t, entity.Pawn, session.Board().At(pos(4, 4)).Kind)
		assert.Equal(t, entity.Black, session.Turn())
		assert.Equal(t, 1, session.Plies())

		// When: black answers
		_, err = session.ApplyMove(entity.Black, entity.NewMove(1, 3, 3, 3))
		require.NoError(t, err)

		// Then: it is white's turn again
		assert.Equal(t, entity.White, session.Turn())
	})

	t.Run("failed preconditions leave the turn alone", func(t *testing.T) {
		session := startedSession(t, entity.White)

		_, err := session.ApplyMove(entity.White, entity.NewMove(4, 4, 3, 4))
		require.ErrorIs(t, err, apperror.ErrEmptySquare)

		_, err = session.ApplyMove(entity.White, entity.NewMove(6, 4, 8, 4))
		require.ErrorIs(t, err, apperror.ErrOutOfBounds)

		assert.Equal(t, entity.White, session.Turn())
		assert.Equal(t, 0, session.Plies())
	})

	t.Run("capture goes to the captured list", func(t *testing.T) {
		// Given: an opponent knight diagonally in front of a pawn
		session := startedSession(t, entity.White)
		session.Board().Set(pos(5, 5), entity.NewPiece(entity.Knight, entity.Black, -1))

		// When: the pawn captures it
		outcome, err := session.ApplyMove(entity.White, entity.NewMove(6, 4, 5, 5))
		require.NoError(t, err)

		// Then: the knight is reported and kept
		require.NotNil(t, outcome.Captured)
		assert.Equal(t, entity.Knight, outcome.Captured.Kind)
		assert.Equal(t, []entity.Piece{*entity.NewPiece(entity.Knight, entity.Black, -1)}, session.Captured())
	})

	t.Run("capturing the king ends the game", func(t *testing.T) {
		// Given: the opponent king in reach of a pawn
		session := startedSession(t, entity.White)
		session.Board().Clear(pos(0, 4))
		session.Board().Set(pos(5, 5), entity.NewPiece(entity.King, entity.Black, -1))

		// When: the pawn takes the king
		outcome, err := session.ApplyMove(entity.White, entity.NewMove(6, 4, 5, 5))
		require.NoError(t, err)

		// Then: the session is over with white as winner
		assert.Equal(t, Checkmate, outcome.Kind)
		assert.Equal(t, entity.White, outcome.Winner)
		assert.Equal(t, StatusTerminated, session.Status())
		assert.Equal(t, entity.White, session.Winner())
		assert.Equal(t, entity.Pawn, session.Board().At(pos(5, 5)).Kind)

		// And: no further moves are accepted
		_, err = session.ApplyMove(entity.Black, entity.NewMove(1, 0, 2, 0))
		require.ErrorIs(t, err, apperror.ErrGameNotActive)

		// And: a late CHECKMATE does not change the winner
		session.Finish(entity.Black)
		assert.Equal(t, entity.White, session.Winner())
	})
}

func TestSession_Castling(t *testing.T) {
	t.Run("short castle happens exactly once", func(t *testing.T) {
		// Given: the squares between king and rook are empty
		session := startedSession(t, entity.White)
		session.Board().Clear(pos(7, 5))
		session.Board().Clear(pos(7, 6))
		move := entity.NewMove(7, 4, 7, 7)
		require.True(t, chess.IsLegal(session.Board(), move))

		// When: the king moves onto its rook
		outcome, err := session.ApplyMove(entity.White, move)
		require.NoError(t, err)

		// Then: king and rook are repositioned
		assert.Equal(t, Castled, outcome.Kind)
		king := session.Board().At(pos(7, 6))
		rook := session.Board().At(pos(7, 5))
		require.NotNil(t, king)
		require.NotNil(t, rook)
		assert.Equal(t, entity.King, king.Kind)
		assert.Equal(t, entity.Rook, rook.Kind)
		assert.Nil(t, session.Board().At(pos(7, 4)))
		assert.Nil(t, session.Board().At(pos(7, 7)))
		assert.False(t, king.CanCastle)
		assert.False(t, rook.CanCastle)

		// And: castling again with the same pieces is illegal
		assert.False(t, chess.IsLegal(session.Board(), entity.NewMove(7, 6, 7, 5)))
	})

	t.Run("long castle", func(t *testing.T) {
		session := startedSession(t, entity.Black)
		for col := 1; col < 4; col++ {
			session.Board().Clear(pos(7, col))
		}

		outcome, err := session.ApplyMove(entity.Black, entity.NewMove(7, 4, 7, 0))
		require.NoError(t, err)

		assert.Equal(t, Castled, outcome.Kind)
		assert.Equal(t, entity.King, session.Board().At(pos(7, 2)).Kind)
		assert.Equal(t, entity.Rook, session.Board().At(pos(7, 3)).Kind)
		assert.Nil(t, session.Board().At(pos(7, 0)))
		assert.Nil(t, session.Board().At(pos(7, 4)))
	})

	t.Run("king move clears its flag", func(t *testing.T) {
		// Given: an open path to the rook
		session := startedSession(t, entity.White)
		session.Board().Clear(pos(7, 5))
		session.Board().Clear(pos(7, 6))

		// When: the king steps aside and back
		_, err := session.ApplyMove(entity.White, entity.NewMove(7, 4, 7, 5))
		require.NoError(t, err)
		_, err = session.ApplyMove(entity.White, entity.NewMove(7, 5, 7, 4))
		require.NoError(t, err)

		// Then: castling is no longer legal
		assert.False(t, chess.IsLegal(session.Board(), entity.NewMove(7, 4, 7, 7)))
	})

	t.Run("rook move clears its flag", func(t *testing.T) {
		session := startedSession(t, entity.White)
		session.Board().Clear(pos(7, 5))
		session.Board().Clear(pos(7, 6))

		_, err := session.ApplyMove(entity.White, entity.NewMove(7, 7, 7, 6))
		require.NoError(t, err)
		_, err = session.ApplyMove(entity.White, entity.NewMove(7, 6, 7, 7))
		require.NoError(t, err)

		assert.False(t, chess.IsLegal(session.Board(), entity.NewMove(7, 4, 7, 7)))
	})

	t.Run("landing off the board is rejected", func(t *testing.T) {
		// Given: a king next to the edge with its own rook in the corner
		session := startedSession(t, entity.White)
		session.Board().Set(pos(7, 1), session.Board().At(pos(7, 4)))
		session.Board().Clear(pos(7, 4))

		// When: the king is moved onto the rook
		_, err := session.ApplyMove(entity.White, entity.NewMove(7, 1, 7, 0))

		// Then: nothing changes
		require.ErrorIs(t, err, apperror.ErrOutOfBounds)
		assert.Equal(t, entity.White, session.Turn())
		assert.Equal(t, entity.Rook, session.Board().At(pos(7, 0)).Kind)
	})
}

func TestSession_Promotion(t *testing.T) {
	t.Run("local promotion", func(t *testing.T) {
		// Given: a white pawn one step from the far rank with a rook to capture
		session := startedSession(t, entity.White)
		session.Board().Set(pos(1, 1), entity.NewPiece(entity.Pawn, entity.White, 1))

		// When: the pawn captures onto the far rank
		outcome, err := session.ApplyMove(entity.White, entity.NewMove(1, 1, 0, 0))
		require.NoError(t, err)

		// Then: the pawn is gone and a promotion is pending
		assert.Equal(t, PromotionPending, outcome.Kind)
		require.NotNil(t, outcome.Captured)
		assert.Equal(t, entity.Rook, outcome.Captured.Kind)
		assert.Nil(t, session.Board().At(pos(1, 1)))
		assert.Nil(t, session.Board().At(pos(0, 0)))
		assert.Equal(t, entity.Black, session.Turn())

		pending, ok := session.Pending()
		require.True(t, ok)
		assert.Equal(t, pos(0, 0), pending)

		// When: a king is chosen
		_, err = session.Promote(entity.King)

		// Then: it is refused
		require.ErrorIs(t, err, apperror.ErrInvalidPromotion)

		// When: a queen is chosen
		placement, err := session.Promote(entity.Queen)
		require.NoError(t, err)

		// Then: the queen stands on the square
		assert.Equal(t, Placement{Action: Add, Kind: entity.Queen, Pos: pos(0, 0)}, placement)
		queen := session.Board().At(pos(0, 0))
		require.NotNil(t, queen)
		assert.Equal(t, entity.Queen, queen.Kind)
		assert.Equal(t, entity.White, queen.Colour)
		assert.Equal(t, 1, queen.Side)

		_, err = session.Promote(entity.Queen)
		require.ErrorIs(t, err, apperror.ErrNoPendingPromotion)
	})

	t.Run("remote promotion resolved by place", func(t *testing.T) {
		// Given: an opponent pawn reaching row 7
		session := startedSession(t, entity.White)
		session.Board().Set(pos(6, 0), entity.NewPiece(entity.Pawn, entity.Black, -1))
		session.Board().Clear(pos(7, 0))

		outcome, err := session.ApplyMove(entity.Black, entity.NewMove(6, 0, 7, 0))
		require.NoError(t, err)
		require.Equal(t, PromotionPending, outcome.Kind)

		// When: the PLACE for a rook arrives
		err = session.Place(entity.Black, Placement{Action: Add, Kind: entity.Rook, Pos: pos(7, 0)})
		require.NoError(t, err)

		// Then: a black rook without castling rights stands there
		rook := session.Board().At(pos(7, 0))
		require.NotNil(t, rook)
		assert.Equal(t, entity.Black, rook.Colour)
		assert.Equal(t, -1, rook.Side)
		assert.False(t, rook.CanCastle)

		_, ok := session.Pending()
		assert.False(t, ok)
	})

	t.Run("place remove clears the square", func(t *testing.T) {
		session := startedSession(t, entity.White)

		err := session.Place(entity.Black, Placement{Action: Remove, Pos: pos(1, 3)})
		require.NoError(t, err)

		assert.Nil(t, session.Board().At(pos(1, 3)))
	})

	t.Run("place rejects bad input", func(t *testing.T) {
		session := startedSession(t, entity.White)

		err := session.Place(entity.Black, Placement{Action: Add, Kind: entity.Pawn, Pos: pos(3, 3)})
		require.ErrorIs(t, err, apperror.ErrInvalidPromotion)

		err = session.Place(entity.Black, Placement{Action: Add, Kind: entity.Queen, Pos: pos(8, 3)})
		require.ErrorIs(t, err, apperror.ErrOutOfBounds)

		assert.Nil(t, session.Board().At(pos(3, 3)))
	})
}

func TestSession_Terminal(t *testing.T) {
	t.Run("finish", func(t *testing.T) {
		session := startedSession(t, entity.Black)

		session.Finish(entity.White)

		assert.Equal(t, StatusTerminated, session.Status())
		assert.Equal(t, entity.White, session.Winner())
	})

	t.Run("abandon", func(t *testing.T) {
		session := startedSession(t, entity.Black)

		session.Abandon()

		assert.Equal(t, StatusTerminated, session.Status())
		assert.Equal(t, entity.Colour(0), session.Winner())

		err := session.Place(entity.White, Placement{Action: Remove, Pos: pos(0, 0)})
		require.ErrorIs(t, err, apperror.ErrGameNotActive)
	})
}

func TestSession_PeersStayConsistent(t *testing.T) {
	// Given: one session per peer
	white := startedSession(t, entity.White)
	black := startedSession(t, entity.Black)

	require.Equal(t, white.Board().Checksum(entity.White), black.Board().Checksum(entity.Black))

	// When: plies are applied locally and mirrored on the other peer
	plies := []struct {
		actor entity.Colour
		move  entity.Move
	}{
		{actor: entity.White, move: entity.NewMove(6, 4, 4, 4)},
		{actor: entity.Black, move: entity.NewMove(6, 3, 4, 3)},
		{actor: entity.White, move: entity.NewMove(4, 4, 3, 3)},
		{actor: entity.Black, move: entity.NewMove(7, 3, 4, 3)},
		{actor: entity.White, move: entity.NewMove(7, 6, 5, 5)},
	}

	for _, ply := range plies {
		local, remote := white, black
		if ply.actor == entity.Black {
			local, remote = black, white
		}

		require.True(t, chess.IsLegal(local.Board(), ply.move), "move %s", ply.move)

		_, err := local.ApplyMove(ply.actor, ply.move)
		require.NoError(t, err)
		_, err = remote.ApplyMove(ply.actor, ply.move.Mirror())
		require.NoError(t, err)

		// Then: both boards describe the same position and agree on the turn
		assert.Equal(t, white.Board().Checksum(entity.White), black.Board().Checksum(entity.Black))
		assert.Equal(t, white.Turn(), black.Turn())
	}

	// And: both peers saw the same captures
	names := func(pieces []entity.Piece) []string {
		out := make([]string, 0, len(pieces))
		for _, piece := range pieces {
			out = append(out, piece.Name())
		}
		return out
	}
	assert.Equal(t, []string{"bP", "wP"}, names(white.Snapshot().Captured))
	assert.Equal(t, names(white.Snapshot().Captured), names(black.Snapshot().Captured))
}
