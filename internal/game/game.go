package game

import (
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/chess-relay/internal/apperror"
	"github.com/rocketscienceinc/chess-relay/internal/chess"
	"github.com/rocketscienceinc/chess-relay/internal/entity"
)

// Session - board and turn state of one game as seen by one peer.
// It is not safe for concurrent use; the client owner loop serializes access.
type Session struct {
	logger *slog.Logger

	board    *entity.Board
	colour   entity.Colour
	turn     entity.Colour
	status   Status
	winner   entity.Colour
	plies    int
	captured []entity.Piece
	pending  *promotion
}

func NewSession(logger *slog.Logger) *Session {
	return &Session{
		logger: logger.With("component", "session"),
		board:  entity.NewBoard(),
		status: StatusAwaitingStart,
	}
}

// Start - sets up the board for the local colour and hands the first turn to White.
func (that *Session) Start(colour entity.Colour) error {
	if !colour.Valid() {
		return fmt.Errorf("%w: %d", apperror.ErrInvalidColour, colour)
	}

	that.board = chess.SetupBoard(colour)
	that.colour = colour
	that.turn = entity.White
	that.status = StatusActive
	that.winner = 0
	that.plies = 0
	that.captured = nil
	that.pending = nil

	that.logger.Info("game started", "colour", colour.String())

	return nil
}

// ApplyMove - applies a move already accepted by the local legality check or
// received from the opponent. Turn ownership is not re-validated.
func (that *Session) ApplyMove(actor entity.Colour, move entity.Move) (Outcome, error) {
	log := that.logger.With("method", "ApplyMove")

	if that.status != StatusActive {
		return Outcome{}, apperror.ErrGameNotActive
	}

	if !move.InBounds() {
		return Outcome{}, fmt.Errorf("%w: %s", apperror.ErrOutOfBounds, move)
	}

	piece := that.board.At(move.From)
	if piece == nil {
		return Outcome{}, fmt.Errorf("%w: %s", apperror.ErrEmptySquare, move.From)
	}

	target := that.board.At(move.To)
	castling := piece.Kind == entity.King && target != nil && target.Colour == piece.Colour

	if castling && !castleLanding(move).InBounds() {
		return Outcome{}, fmt.Errorf("%w: castle %s", apperror.ErrOutOfBounds, move)
	}

	that.turn = that.turn.Opponent()
	that.plies++

	outcome := Outcome{Actor: actor, Move: move, Piece: *piece}

	switch {
	case target != nil && target.Kind == entity.King && target.Colour != piece.Colour:
		outcome.Kind = Checkmate
		outcome.Captured = that.capture(target)
		that.relocate(piece, move)
		that.winner = piece.Colour
		that.status = StatusTerminated
		outcome.Winner = that.winner

	case piece.Kind == entity.Pawn && move.To.Row == piece.FarRow():
		outcome.Kind = PromotionPending
		if target != nil {
			outcome.Captured = that.capture(target)
		}
		that.board.Clear(move.From)
		that.board.Clear(move.To)
		that.pending = &promotion{pos: move.To, colour: piece.Colour}

	case castling:
		outcome.Kind = Castled
		that.castle(piece, target, move)

	default:
		outcome.Kind = Moved
		if target != nil {
			outcome.Captured = that.capture(target)
		}
		if piece.Kind == entity.King || piece.Kind == entity.Rook {
			piece.CanCastle = false
		}
		that.relocate(piece, move)
	}

	log.Debug("move applied",
		"actor", actor.String(),
		"move", move.String(),
		"outcome", outcome.Kind.String(),
		"checksum", that.board.Checksum(that.colour),
	)

	return outcome, nil
}

// Promote - completes the pending promotion with the chosen kind and returns
// the placement to announce to the opponent.
func (that *Session) Promote(kind entity.Kind) (Placement, error) {
	if that.pending == nil {
		return Placement{}, apperror.ErrNoPendingPromotion
	}

	if !kind.IsPromotion() {
		return Placement{}, fmt.Errorf("%w: %s", apperror.ErrInvalidPromotion, kind)
	}

	placement := Placement{Action: Add, Kind: kind, Pos: that.pending.pos}
	that.materialize(that.pending.colour, placement)
	that.pending = nil

	return placement, nil
}

// Place - applies a PLACE: Add creates a new piece of the given colour on the
// square, Remove clears it.
func (that *Session) Place(colour entity.Colour, placement Placement) error {
	if that.status != StatusActive {
		return apperror.ErrGameNotActive
	}

	if !placement.Pos.InBounds() {
		return fmt.Errorf("%w: %s", apperror.ErrOutOfBounds, placement.Pos)
	}

	switch placement.Action {
	case Remove:
		that.board.Clear(placement.Pos)
		return nil
	case Add:
	default:
		return fmt.Errorf("%w: action %d", apperror.ErrInvalidPromotion, placement.Action)
	}

	if !colour.Valid() {
		return fmt.Errorf("%w: %d", apperror.ErrInvalidColour, colour)
	}

	if !placement.Kind.IsPromotion() {
		return fmt.Errorf("%w: %s", apperror.ErrInvalidPromotion, placement.Kind)
	}

	that.materialize(colour, placement)

	if that.pending != nil && that.pending.pos == placement.Pos {
		that.pending = nil
	}

	return nil
}

// Finish - terminal transition on a received CHECKMATE. A session that already
// ended keeps its winner.
func (that *Session) Finish(winner entity.Colour) {
	if that.status == StatusTerminated {
		return
	}

	that.status = StatusTerminated
	that.winner = winner
}

// Abandon - terminal transition on QUIT or a lost connection.
func (that *Session) Abandon() {
	that.status = StatusTerminated
	that.pending = nil
}

func (that *Session) Status() Status {
	return that.status
}

func (that *Session) Turn() entity.Colour {
	return that.turn
}

func (that *Session) Colour() entity.Colour {
	return that.colour
}

func (that *Session) Winner() entity.Colour {
	return that.winner
}

func (that *Session) Plies() int {
	return that.plies
}

func (that *Session) IsLocalTurn() bool {
	return that.status == StatusActive && that.turn == that.colour
}

// Board - the live board. Callers must not keep it across mutations.
func (that *Session) Board() *entity.Board {
	return that.board
}

func (that *Session) Captured() []entity.Piece {
	return append([]entity.Piece(nil), that.captured...)
}

// Pending - square of an unresolved promotion.
func (that *Session) Pending() (entity.Position, bool) {
	if that.pending == nil {
		return entity.Position{}, false
	}
	return that.pending.pos, true
}

func (that *Session) Snapshot() View {
	view := View{
		Board:    that.board.Snapshot(),
		Colour:   that.colour,
		Turn:     that.turn,
		Status:   that.status,
		Winner:   that.winner,
		Plies:    that.plies,
		Captured: that.Captured(),
	}

	if pos, ok := that.Pending(); ok {
		view.Pending = &pos
	}

	return view
}

func (that *Session) capture(target *entity.Piece) *entity.Piece {
	captured := *target
	that.captured = append(that.captured, captured)
	return &captured
}

func (that *Session) relocate(piece *entity.Piece, move entity.Move) {
	that.board.Clear(move.From)
	that.board.Set(move.To, piece)
}

// castle - the king moves two squares towards the rook, the rook lands on the
// square the king crossed.
func (that *Session) castle(king, rook *entity.Piece, move entity.Move) {
	landing := castleLanding(move)

	that.board.Clear(move.To)
	that.board.Clear(move.From)
	that.board.Set(landing, king)
	that.board.Set(entity.Position{Row: landing.Row, Col: (landing.Col + move.From.Col) / 2}, rook)

	king.CanCastle = false
	rook.CanCastle = false
}

// castleLanding - square the king ends on after castling.
func castleLanding(move entity.Move) entity.Position {
	step := 1
	if move.To.Col < move.From.Col {
		step = -1
	}
	return entity.Position{Row: move.From.Row, Col: move.From.Col + 2*step}
}

func (that *Session) materialize(colour entity.Colour, placement Placement) {
	side := 1
	if colour != that.colour {
		side = -1
	}

	piece := entity.NewPiece(placement.Kind, colour, side)
	piece.CanCastle = false

	that.board.Set(placement.Pos, piece)
}
