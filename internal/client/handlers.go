package client

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/chess-relay/internal/apperror"
	"github.com/rocketscienceinc/chess-relay/internal/chess"
	"github.com/rocketscienceinc/chess-relay/internal/entity"
	"github.com/rocketscienceinc/chess-relay/internal/game"
	"github.com/rocketscienceinc/chess-relay/internal/protocol"
)

func (that *Client) handleStart(_ context.Context, msg *protocol.Message) (bool, error) {
	colour, err := msg.Colour()
	if err != nil {
		return false, err
	}

	session := game.NewSession(that.logger)
	if err = session.Start(colour); err != nil {
		return false, fmt.Errorf("failed to start game: %w", err)
	}

	that.session = session
	that.floating = nil
	that.gameOver = false

	that.notifier.GameStarted(colour)
	that.render()

	return false, nil
}

// handleMove - applies the opponent's move, mirrored into the local orientation.
func (that *Client) handleMove(_ context.Context, msg *protocol.Message) (bool, error) {
	move, err := msg.Mirrored().Move()
	if err != nil {
		return false, err
	}

	outcome, err := that.session.ApplyMove(entity.Colour(msg.SenderID), move)
	if err != nil {
		return false, fmt.Errorf("failed to apply remote move %s: %w", move, err)
	}

	that.afterMove(outcome)

	if outcome.Kind == game.Checkmate {
		that.announceGameOver()
	}

	that.render()

	return false, nil
}

func (that *Client) handleCheckmate(_ context.Context, msg *protocol.Message) (bool, error) {
	winner, err := msg.Colour()
	if err != nil {
		return false, err
	}

	that.session.Finish(winner)
	that.floating = nil
	that.announceGameOver()
	that.render()

	return false, nil
}

// handleQuit - the opponent left. Waiting keeps the connection for the next START.
func (that *Client) handleQuit(_ context.Context, msg *protocol.Message) (bool, error) {
	departed, err := msg.Departed()
	if err != nil {
		return false, err
	}

	that.session.Abandon()
	that.floating = nil
	that.render()

	if that.notifier.OpponentLeft(departed) == ChoiceExit {
		return true, nil
	}

	that.session = game.NewSession(that.logger)
	that.gameOver = false
	that.render()

	return false, nil
}

// handlePlace - materializes a piece announced by the opponent, usually a promotion.
func (that *Client) handlePlace(_ context.Context, msg *protocol.Message) (bool, error) {
	placement, err := msg.Mirrored().Place()
	if err != nil {
		return false, err
	}

	if err = that.session.Place(entity.Colour(msg.SenderID), placement); err != nil {
		return false, fmt.Errorf("failed to place piece: %w", err)
	}

	that.render()

	return false, nil
}

func (that *Client) pickUp(pos entity.Position) error {
	if that.session.Status() != game.StatusActive {
		return apperror.ErrGameNotActive
	}

	if !that.session.IsLocalTurn() {
		return apperror.ErrNotYourTurn
	}

	if !pos.InBounds() {
		return fmt.Errorf("%w: %s", apperror.ErrOutOfBounds, pos)
	}

	piece := that.session.Board().At(pos)
	if piece == nil {
		return fmt.Errorf("%w: %s", apperror.ErrEmptySquare, pos)
	}

	if piece.Colour != that.session.Colour() {
		return fmt.Errorf("%w: %s", apperror.ErrNotYourPiece, pos)
	}

	that.floating = &pos
	that.sound.Play(SoundSelect)
	that.render()

	return nil
}

// drop - turns the floating piece into a move. Illegal moves put the piece
// back and send nothing.
func (that *Client) drop(pos entity.Position) error {
	log := that.logger.With("method", "drop")

	if that.floating == nil {
		return apperror.ErrNoFloatingPiece
	}

	from := *that.floating
	that.floating = nil

	if from == pos {
		that.render()
		return nil
	}

	local := that.session.Colour()
	move := entity.Move{From: from, To: pos}

	if !chess.IsLegal(that.session.Board(), move) {
		that.render()
		return fmt.Errorf("%w: %s", apperror.ErrIllegalMove, move)
	}

	outcome, err := that.session.ApplyMove(local, move)
	if err != nil {
		that.render()
		return fmt.Errorf("failed to apply move %s: %w", move, err)
	}

	that.afterMove(outcome)

	if err = that.send(protocol.NewMove(local, move)); err != nil {
		that.render()
		return err
	}

	switch outcome.Kind {
	case game.Checkmate:
		if err = that.send(protocol.NewCheckmate(local, outcome.Winner)); err != nil {
			log.Error("failed to announce checkmate", "error", err)
		}
		that.announceGameOver()

	case game.PromotionPending:
		kind := that.chooser.ChoosePromotion(move.To, local)
		if !kind.IsPromotion() {
			kind = entity.Queen
		}

		placement, promoteErr := that.session.Promote(kind)
		if promoteErr != nil {
			that.render()
			return fmt.Errorf("failed to promote: %w", promoteErr)
		}

		if err = that.send(protocol.NewPlace(local, placement)); err != nil {
			that.render()
			return err
		}
	}

	that.render()

	return nil
}

func (that *Client) afterMove(outcome game.Outcome) {
	if outcome.Captured != nil {
		that.sound.Play(SoundCapture)
	} else {
		that.sound.Play(SoundMove)
	}

	that.logger.Debug("ply",
		"plies", that.session.Plies(),
		"outcome", outcome.Kind.String(),
		"checksum", that.session.Board().Checksum(that.session.Colour()),
	)
}

func (that *Client) announceGameOver() {
	if that.gameOver {
		return
	}
	that.gameOver = true

	that.notifier.GameOver(that.session.Winner(), that.session.Colour())
}
