package relay

import (
	"context"

	"github.com/rocketscienceinc/chess-relay/internal/entity"
	"github.com/rocketscienceinc/chess-relay/internal/protocol"
)

func (that *Server) handleMove(ctx context.Context, from *player, msg *protocol.Message) {
	that.forward(ctx, from, msg)

	if that.match != nil && that.match.IsOngoing() {
		that.match.Plies++
		that.saveMatch(ctx)
	}
}

func (that *Server) handlePlace(ctx context.Context, from *player, msg *protocol.Message) {
	that.forward(ctx, from, msg)
}

// handleCheckmate - forwards the result to the loser and ends the game. The
// roster is kept; a new game needs a fresh pairing.
func (that *Server) handleCheckmate(ctx context.Context, from *player, msg *protocol.Message) {
	log := that.logger.With("method", "handleCheckmate", "player", from.ID)

	that.forward(ctx, from, msg)

	that.inProgress = false

	winner, err := msg.Colour()
	if err != nil {
		log.Warn("checkmate without a valid winner, crediting the sender", "error", err)
		winner = entity.Colour(from.ID)
	}

	if that.match != nil && that.match.IsOngoing() {
		that.match.Finish(winner, that.now())
		that.saveMatch(ctx)
		that.metrics.matchTransition(ctx, entity.MatchFinished)
	}

	that.syncStats()

	log.Info("game over", "winner", winner.String())
}

// handleUnexpected - START and QUIT are only sent by the relay.
func (that *Server) handleUnexpected(_ context.Context, from *player, msg *protocol.Message) {
	that.logger.Warn("dropping message not accepted from players",
		"player", from.ID,
		"type", msg.Type.String(),
	)
}
